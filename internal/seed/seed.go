// Package seed creates the default admin account on first run.
package seed

import (
	"context"
	"fmt"
	"log"

	dom "tiktask/internal/domain"
	"tiktask/internal/repo"

	"golang.org/x/crypto/bcrypt"
)

// EnsureAdmin creates the admin account if no user with the Admin role
// exists yet. Safe to call on every boot.
func EnsureAdmin(ctx context.Context, users repo.UserRepo, username, email, password string) error {
	exists, err := users.ExistsByRole(ctx, dom.RoleAdmin)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	u, err := users.Create(ctx, username, email, string(hash), dom.RoleAdmin)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Printf("admin user created: %s", u.Username)
	return nil
}
