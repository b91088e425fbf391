package service

import (
	"context"
	"errors"
	"strings"

	"tiktask/internal/auth"
	dom "tiktask/internal/domain"
	"tiktask/internal/repo"
	"tiktask/internal/utils"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for unknown usernames and wrong passwords
// alike, so login failures never reveal whether an account exists.
var ErrInvalidCredentials = errors.New("invalid username or password")

var (
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
)

// AuthService handles registration and login.
type AuthService struct {
	repo   repo.UserRepo
	tokens *auth.Manager
}

// NewAuthService returns a new AuthService.
func NewAuthService(repo repo.UserRepo, tokens *auth.Manager) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// Register creates a user with the User role and a hashed password, then
// issues a token. Username uniqueness is checked before email uniqueness.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (dom.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return dom.User{}, "", ErrInvalidCredentials
	}

	taken, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return dom.User{}, "", err
	}
	if taken {
		return dom.User{}, "", ErrUsernameTaken
	}
	taken, err = s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return dom.User{}, "", err
	}
	if taken {
		return dom.User{}, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dom.User{}, "", err
	}

	u, err := s.repo.Create(ctx, username, email, string(hash), dom.RoleUser)
	if err != nil {
		// Lost a race between the existence checks and the insert.
		if constraint, ok := utils.PGUniqueConstraint(err); ok {
			if strings.Contains(constraint, "email") {
				return dom.User{}, "", ErrEmailTaken
			}
			return dom.User{}, "", ErrUsernameTaken
		}
		return dom.User{}, "", err
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return dom.User{}, "", err
	}
	return u, token, nil
}

// Login checks credentials and issues a token. No side effects.
func (s *AuthService) Login(ctx context.Context, username, password string) (dom.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return dom.User{}, "", ErrInvalidCredentials
	}
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, "", ErrInvalidCredentials
		}
		return dom.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return dom.User{}, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return dom.User{}, "", err
	}
	return u, token, nil
}
