package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"tiktask/internal/config"
	dom "tiktask/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	nextID int64
	users  []dom.User
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (dom.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (f *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := f.GetByUsername(ctx, username)
	return err == nil, nil
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) ExistsByRole(ctx context.Context, role string) (bool, error) {
	for _, u := range f.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, username, email, passwordHash, role string) (dom.User, error) {
	f.nextID++
	u := dom.User{ID: f.nextID, Username: username, Email: email, PasswordHash: passwordHash, Role: role, CreatedAt: time.Now().UTC()}
	f.users = append(f.users, u)
	return u, nil
}

type fakeTaskRepo struct {
	nextID int64
	tasks  map[int64]dom.Task
	owners *fakeUserRepo
	clock  time.Time
}

func (f *fakeTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	f.nextID++
	f.clock = f.clock.Add(time.Second)
	t.ID = f.nextID
	t.IsCompleted = false
	t.CreatedAt = f.clock
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeTaskRepo) GetOwned(ctx context.Context, userID, id int64) (dom.Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return dom.Task{}, pgx.ErrNoRows
	}
	return t, nil
}

func (f *fakeTaskRepo) ListByOwner(ctx context.Context, userID int64) ([]dom.Task, error) {
	var list []dom.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			list = append(list, t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (f *fakeTaskRepo) ListAllWithOwner(ctx context.Context) ([]dom.TaskWithOwner, error) {
	var list []dom.TaskWithOwner
	for _, t := range f.tasks {
		name := ""
		for _, u := range f.owners.users {
			if u.ID == t.UserID {
				name = u.Username
			}
		}
		list = append(list, dom.TaskWithOwner{Task: t, Username: name})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, userID, id int64, patch dom.Task) (dom.Task, error) {
	t, err := f.GetOwned(ctx, userID, id)
	if err != nil {
		return dom.Task{}, err
	}
	t.Title, t.Description, t.DueDate = patch.Title, patch.Description, patch.DueDate
	f.tasks[id] = t
	return t, nil
}

func (f *fakeTaskRepo) ToggleCompleted(ctx context.Context, userID, id int64) (dom.Task, error) {
	t, err := f.GetOwned(ctx, userID, id)
	if err != nil {
		return dom.Task{}, err
	}
	t.IsCompleted = !t.IsCompleted
	f.tasks[id] = t
	return t, nil
}

func (f *fakeTaskRepo) Delete(ctx context.Context, userID, id int64) error {
	if _, err := f.GetOwned(ctx, userID, id); err != nil {
		return err
	}
	delete(f.tasks, id)
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeUserRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var cfg config.Config
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Issuer = "tiktask-api"
	cfg.JWT.Audience = "tiktask-client"

	users := &fakeUserRepo{}
	tasks := &fakeTaskRepo{
		tasks:  map[int64]dom.Task{},
		owners: users,
		clock:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	SetupAPI(r, cfg, users, tasks, nil)
	return r, users
}

func do(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, r *gin.Engine, username, email, password string) string {
	t.Helper()
	w := do(r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "email": email, "password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: expected 200, got %d: %s", username, w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if resp.Token == "" || resp.Role != dom.RoleUser {
		t.Fatalf("unexpected register response: %s", w.Body.String())
	}
	return resp.Token
}

func TestTaskLifecycleEndToEnd(t *testing.T) {
	r, _ := newTestRouter(t)
	token := register(t, r, "alice", "a@x.com", "Secret1!")

	w := do(r, http.MethodPost, "/api/tasks", token, map[string]string{
		"title": "Buy milk", "description": "", "dueDate": "2025-01-01",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		ID          int64 `json:"id"`
		IsCompleted bool  `json:"isCompleted"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.IsCompleted {
		t.Fatal("new task must not be completed")
	}

	togglePath := fmt.Sprintf("/api/tasks/%d/complete", created.ID)
	for i, want := range []string{`{"isCompleted":true}`, `{"isCompleted":false}`} {
		w = do(r, http.MethodPatch, togglePath, token, nil)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("toggle %d: got %d %s", i+1, w.Code, w.Body.String())
		}
	}

	taskPath := fmt.Sprintf("/api/tasks/%d", created.ID)
	if w = do(r, http.MethodDelete, taskPath, token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if w = do(r, http.MethodGet, taskPath, token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", w.Code)
	}
}

func TestRegisterConflicts(t *testing.T) {
	r, _ := newTestRouter(t)
	register(t, r, "alice", "a@x.com", "pw")

	w := do(r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "other@x.com", "password": "pw",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate username: expected 409, got %d", w.Code)
	}

	w = do(r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "bob", "email": "a@x.com", "password": "pw",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", w.Code)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	r, _ := newTestRouter(t)
	register(t, r, "alice", "a@x.com", "Secret1!")

	wrongPassword := do(r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "nope",
	})
	unknownUser := do(r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "nobody", "password": "nope",
	})
	if wrongPassword.Code != http.StatusUnauthorized || unknownUser.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPassword.Code, unknownUser.Code)
	}
	if wrongPassword.Body.String() != unknownUser.Body.String() {
		t.Fatalf("login failures must be identical: %s vs %s",
			wrongPassword.Body.String(), unknownUser.Body.String())
	}
}

func TestCrossUserAccessLooksLikeNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	aliceToken := register(t, r, "alice", "a@x.com", "pw")
	bobToken := register(t, r, "bob", "b@x.com", "pw")

	w := do(r, http.MethodPost, "/api/tasks", aliceToken, map[string]string{"title": "private"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d", w.Code)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	path := fmt.Sprintf("/api/tasks/%d", created.ID)

	if w = do(r, http.MethodGet, path, bobToken, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign get: expected 404, got %d", w.Code)
	}
	if w = do(r, http.MethodPut, path, bobToken, map[string]string{"title": "stolen"}); w.Code != http.StatusNotFound {
		t.Fatalf("foreign update: expected 404, got %d", w.Code)
	}
	if w = do(r, http.MethodDelete, path, bobToken, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign delete: expected 404, got %d", w.Code)
	}
	if w = do(r, http.MethodGet, path, aliceToken, nil); w.Code != http.StatusOK {
		t.Fatalf("owner get: expected 200, got %d", w.Code)
	}
}

func TestAdminListing(t *testing.T) {
	r, users := newTestRouter(t)
	aliceToken := register(t, r, "alice", "a@x.com", "pw")

	hash, err := bcrypt.GenerateFromPassword([]byte("Admin123!"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := users.Create(context.Background(), "admin", "admin@tiktask.com", string(hash), dom.RoleAdmin); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	if w := do(r, http.MethodPost, "/api/tasks", aliceToken, map[string]string{"title": "chore"}); w.Code != http.StatusCreated {
		t.Fatalf("create: got %d", w.Code)
	}

	// User-role token is rejected at the admin route.
	if w := do(r, http.MethodGet, "/api/tasks/all", aliceToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("user on /tasks/all: expected 403, got %d", w.Code)
	}

	// No token at all.
	if w := do(r, http.MethodGet, "/api/tasks/all", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous on /tasks/all: expected 401, got %d", w.Code)
	}

	login := do(r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin", "password": "Admin123!",
	})
	if login.Code != http.StatusOK {
		t.Fatalf("admin login: got %d: %s", login.Code, login.Body.String())
	}
	var auth struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	_ = json.Unmarshal(login.Body.Bytes(), &auth)
	if auth.Role != dom.RoleAdmin {
		t.Fatalf("expected Admin role, got %q", auth.Role)
	}

	w := do(r, http.MethodGet, "/api/tasks/all", auth.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin on /tasks/all: expected 200, got %d", w.Code)
	}
	var list []struct {
		Title    string `json:"title"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].Username != "alice" {
		t.Fatalf("expected alice's task with owner name, got %+v", list)
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	r, _ := newTestRouter(t)
	for _, rt := range []struct{ method, path string }{
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodGet, "/api/tasks/1"},
		{http.MethodPut, "/api/tasks/1"},
		{http.MethodPatch, "/api/tasks/1/complete"},
		{http.MethodDelete, "/api/tasks/1"},
	} {
		if w := do(r, rt.method, rt.path, "", nil); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", rt.method, rt.path, w.Code)
		}
	}
}
