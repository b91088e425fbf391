package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tiktask/internal/domain"
)

// DueDate parses dueDate from JSON as either date-only ("2006-01-02") or RFC3339.
// Date-only is stored as start of that day in UTC.
type DueDate struct{ t time.Time }

func (d *DueDate) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = time.Time{}
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		"2006-01-02", // date only
		time.RFC3339, // 2006-01-02T15:04:05Z07:00
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			if layout == "2006-01-02" {
				parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			}
			d.t = parsed
			return nil
		}
	}
	return fmt.Errorf("dueDate: use date (YYYY-MM-DD) or RFC3339 datetime")
}

// Time returns the parsed timestamp (zero if absent).
func (d DueDate) Time() time.Time { return d.t }

// TaskRequest is the JSON body for POST /tasks and PUT /tasks/{id}.
type TaskRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=120"`
	Description string  `json:"description" binding:"max=1000"`
	DueDate     DueDate `json:"dueDate"`
}

// TaskResponse mirrors a task on the wire. Username is set only on the
// admin listing, where each task carries its owner's name.
type TaskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UserID      int64     `json:"userId"`
	Username    string    `json:"username,omitempty"`
}

// ToggleResponse is returned by PATCH /tasks/{id}/complete.
type ToggleResponse struct {
	IsCompleted bool `json:"isCompleted"`
}

// FromTask converts a domain task to its wire form.
func FromTask(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		IsCompleted: t.IsCompleted,
		CreatedAt:   t.CreatedAt,
		UserID:      t.UserID,
	}
}

// FromTasks converts a slice of domain tasks.
func FromTasks(list []domain.Task) []TaskResponse {
	out := make([]TaskResponse, len(list))
	for i := range list {
		out[i] = FromTask(list[i])
	}
	return out
}

// FromTasksWithOwner converts the admin listing, keeping owner usernames.
func FromTasksWithOwner(list []domain.TaskWithOwner) []TaskResponse {
	out := make([]TaskResponse, len(list))
	for i := range list {
		out[i] = FromTask(list[i].Task)
		out[i].Username = list[i].Username
	}
	return out
}
