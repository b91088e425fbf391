// Package client is a thin Go consumer of the TikTask API. Authentication
// state is an explicit Session value returned by Login/Register and passed
// to every task call, so one Client can serve any number of sessions.
//
// Transport and service failures are swallowed: callers get a false or an
// empty result, never an error kind.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Session is the authentication state of one logged-in user. The zero
// value means "not authenticated".
type Session struct {
	Token    string
	Username string
	Role     string
}

// Authenticated reports whether the session holds a token.
func (s Session) Authenticated() bool { return s.Token != "" }

// IsAdmin reports whether the session's role claim is Admin.
func (s Session) IsAdmin() bool { return s.Role == "Admin" }

// Task mirrors a task on the wire. Username is set only in admin listings.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UserID      int64     `json:"userId"`
	Username    string    `json:"username,omitempty"`
}

// TaskRequest is the body for creating and updating tasks.
type TaskRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
}

// Client calls the TikTask API.
type Client struct {
	base string
	http *http.Client

	mu   sync.Mutex
	subs []func(Session)
}

// New returns a client for the API at baseURL (e.g. "http://localhost:8080").
// If httpClient is nil a default with a 10s timeout is used.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/") + "/api",
		http: httpClient,
	}
}

// OnAuthChange subscribes fn to authentication state changes. fn receives
// the new session (zero on logout).
func (c *Client) OnAuthChange(fn func(Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

func (c *Client) notify(s Session) {
	c.mu.Lock()
	subs := make([]func(Session), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Register creates an account and returns its session. The zero session
// and false on any failure.
func (c *Client) Register(ctx context.Context, username, email, password string) (Session, bool) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", body, &resp); err != nil {
		return Session{}, false
	}
	s := Session{Token: resp.Token, Username: resp.Username, Role: resp.Role}
	c.notify(s)
	return s, true
}

// Login authenticates and returns a session. The zero session and false
// on any failure.
func (c *Client) Login(ctx context.Context, username, password string) (Session, bool) {
	body := map[string]string{"username": username, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &resp); err != nil {
		return Session{}, false
	}
	s := Session{Token: resp.Token, Username: resp.Username, Role: resp.Role}
	c.notify(s)
	return s, true
}

// Logout discards a session. Purely client-side: tokens are stateless and
// simply stop being presented.
func (c *Client) Logout() {
	c.notify(Session{})
}

// Tasks returns the session owner's tasks, empty on failure.
func (c *Client) Tasks(ctx context.Context, s Session) []Task {
	var list []Task
	if err := c.do(ctx, http.MethodGet, "/tasks", s.Token, nil, &list); err != nil {
		return nil
	}
	return list
}

// AllTasks returns every user's tasks (admin sessions only), empty on failure.
func (c *Client) AllTasks(ctx context.Context, s Session) []Task {
	var list []Task
	if err := c.do(ctx, http.MethodGet, "/tasks/all", s.Token, nil, &list); err != nil {
		return nil
	}
	return list
}

// Task returns one owned task by id.
func (c *Client) Task(ctx context.Context, s Session, id int64) (Task, bool) {
	var t Task
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", id), s.Token, nil, &t); err != nil {
		return Task{}, false
	}
	return t, true
}

// CreateTask creates a task owned by the session's user.
func (c *Client) CreateTask(ctx context.Context, s Session, req TaskRequest) (Task, bool) {
	var t Task
	if err := c.do(ctx, http.MethodPost, "/tasks", s.Token, req, &t); err != nil {
		return Task{}, false
	}
	return t, true
}

// UpdateTask overwrites title, description and due date of an owned task.
func (c *Client) UpdateTask(ctx context.Context, s Session, id int64, req TaskRequest) bool {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", id), s.Token, req, nil) == nil
}

// ToggleComplete flips an owned task's completion flag and returns the
// new value; ok is false on any failure.
func (c *Client) ToggleComplete(ctx context.Context, s Session, id int64) (completed, ok bool) {
	var resp struct {
		IsCompleted bool `json:"isCompleted"`
	}
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/tasks/%d/complete", id), s.Token, nil, &resp); err != nil {
		return false, false
	}
	return resp.IsCompleted, true
}

// DeleteTask permanently removes an owned task.
func (c *Client) DeleteTask(ctx context.Context, s Session, id int64) bool {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), s.Token, nil, nil) == nil
}

// do performs one request. Any transport error or non-2xx status collapses
// into a plain error; callers only ever see success or failure.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
