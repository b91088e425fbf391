package domain

import "time"

// Task is a unit of work owned by exactly one user.
// UserID and CreatedAt never change after creation.
type Task struct {
	ID          int64
	Title       string
	Description string
	DueDate     time.Time
	IsCompleted bool
	CreatedAt   time.Time
	UserID      int64
}

// TaskWithOwner is a task annotated with its owner's username,
// used by the admin listing.
type TaskWithOwner struct {
	Task
	Username string
}
