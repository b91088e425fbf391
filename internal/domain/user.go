package domain

import "time"

// Roles a user account can hold. Admins may additionally read every
// user's tasks via the admin listing; everything else is owner-scoped.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// User is the domain entity for a user account.
// Fields are immutable after creation.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
