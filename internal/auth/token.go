package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	dom "tiktask/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: malformed, expired,
// wrong signature, wrong issuer or audience. Callers get no finer detail.
var ErrInvalidToken = errors.New("invalid token")

// Claims carried inside an issued token. Subject holds the user id.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the numeric user id from the subject claim.
func (c *Claims) UserID() int64 {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

// Manager issues and verifies HS256 tokens keyed by a server-held secret.
type Manager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

const defaultTTL = 24 * time.Hour

// NewManager returns a token manager. ttl bounds token lifetime; zero
// means the default of 24h.
func NewManager(secret, issuer, audience string, ttl time.Duration) *Manager {
	if ttl == 0 {
		ttl = defaultTTL
	}
	return &Manager{secret: []byte(secret), issuer: issuer, audience: audience, ttl: ttl}
}

// Issue signs a token embedding the user's id, username and role.
func (m *Manager) Issue(u dom.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
