package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dom "tiktask/internal/domain"

	"github.com/gin-gonic/gin"
)

func testRouter(tokens *Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RequireAuth(tokens), func(c *gin.Context) {
		c.JSON(200, gin.H{"id": UserIDFromContext(c), "role": RoleFromContext(c)})
	})
	r.GET("/admin", RequireAuth(tokens), RequireRole(dom.RoleAdmin), func(c *gin.Context) {
		c.Status(200)
	})
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthMissingToken(t *testing.T) {
	r := testRouter(NewManager("secret", "api", "web", time.Hour))
	if w := get(r, "/me", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuthBadToken(t *testing.T) {
	r := testRouter(NewManager("secret", "api", "web", time.Hour))
	if w := get(r, "/me", "garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuthSetsClaims(t *testing.T) {
	m := NewManager("secret", "api", "web", time.Hour)
	token, err := m.Issue(dom.User{ID: 7, Username: "alice", Role: dom.RoleUser})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	w := get(testRouter(m), "/me", token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if body != `{"id":7,"role":"User"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestRequireRole(t *testing.T) {
	m := NewManager("secret", "api", "web", time.Hour)
	r := testRouter(m)

	userToken, _ := m.Issue(dom.User{ID: 1, Username: "bob", Role: dom.RoleUser})
	if w := get(r, "/admin", userToken); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for User role, got %d", w.Code)
	}

	adminToken, _ := m.Issue(dom.User{ID: 2, Username: "root", Role: dom.RoleAdmin})
	if w := get(r, "/admin", adminToken); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for Admin role, got %d", w.Code)
	}
}
