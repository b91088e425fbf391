package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"tiktask/internal/cache"
	dom "tiktask/internal/domain"
	"tiktask/internal/repo"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound covers both a missing task and a task owned by someone else;
// the two cases are deliberately indistinguishable to the caller.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when a non-admin calls the admin listing.
var ErrForbidden = errors.New("forbidden")

// TaskService orchestrates task CRUD, enforcing ownership scoping on every
// operation and role-gating the admin listing.
type TaskService struct {
	repo  repo.TaskRepo
	cache *cache.TaskCache
	sf    singleflight.Group
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(r repo.TaskRepo, c *cache.TaskCache) *TaskService {
	return &TaskService{repo: r, cache: c}
}

// Create persists a new task owned by userID. The completion flag starts
// false and the creation timestamp is set by the store.
func (s *TaskService) Create(ctx context.Context, userID int64, title, desc string, dueDate time.Time) (dom.Task, error) {
	title = strings.TrimSpace(title)
	desc = strings.TrimSpace(desc)

	t, err := s.repo.Create(ctx, dom.Task{
		Title:       title,
		Description: desc,
		DueDate:     dueDate,
		UserID:      userID,
	})
	if err != nil {
		return dom.Task{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

// ListOwn returns the caller's tasks, newest first.
func (s *TaskService) ListOwn(ctx context.Context, userID int64) ([]dom.Task, error) {
	if s.cache != nil {
		key := "list:" + strconv.FormatInt(userID, 10)
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if list, err := s.cache.GetList(ctx, userID); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.ListByOwner(ctx, userID)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetList(ctx, userID, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.Task), nil
	}
	return s.repo.ListByOwner(ctx, userID)
}

// ListAll returns every user's tasks annotated with the owner's username,
// newest first. Only admins may call it.
func (s *TaskService) ListAll(ctx context.Context, userID int64, role string) ([]dom.TaskWithOwner, error) {
	_ = userID
	if role != dom.RoleAdmin {
		return nil, ErrForbidden
	}
	if s.cache != nil {
		v, err, _ := s.sf.Do("all", func() (interface{}, error) {
			if list, err := s.cache.GetAll(ctx); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.ListAllWithOwner(ctx)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetAll(ctx, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.TaskWithOwner), nil
	}
	return s.repo.ListAllWithOwner(ctx)
}

// GetOne returns the task with the given id if userID owns it.
func (s *TaskService) GetOne(ctx context.Context, userID, id int64) (dom.Task, error) {
	t, err := s.repo.GetOwned(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	return t, nil
}

// Update overwrites title, description and due date of an owned task.
// The completion flag and creation timestamp are untouched.
func (s *TaskService) Update(ctx context.Context, userID, id int64, title, desc string, dueDate time.Time) (dom.Task, error) {
	patch := dom.Task{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(desc),
		DueDate:     dueDate,
	}
	t, err := s.repo.Update(ctx, userID, id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

// ToggleComplete flips the completion flag of an owned task and returns
// the new value.
func (s *TaskService) ToggleComplete(ctx context.Context, userID, id int64) (bool, error) {
	t, err := s.repo.ToggleCompleted(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	s.invalidateCache(ctx, userID)
	return t.IsCompleted, nil
}

// Delete permanently removes an owned task.
func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.invalidateCache(ctx, userID)
	return nil
}

func (s *TaskService) invalidateCache(ctx context.Context, userID int64) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, userID)
	}
}
