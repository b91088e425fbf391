package repo

import (
	"context"

	dom "tiktask/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskRepo provides task persistence. Every operation except ListAllWithOwner
// is scoped to the owning user id: a task that exists but belongs to someone
// else behaves exactly like a missing row (pgx.ErrNoRows).
type TaskRepo interface {
	Create(ctx context.Context, t dom.Task) (dom.Task, error)
	GetOwned(ctx context.Context, userID, id int64) (dom.Task, error)
	ListByOwner(ctx context.Context, userID int64) ([]dom.Task, error)
	ListAllWithOwner(ctx context.Context) ([]dom.TaskWithOwner, error)
	Update(ctx context.Context, userID, id int64, patch dom.Task) (dom.Task, error)
	ToggleCompleted(ctx context.Context, userID, id int64) (dom.Task, error)
	Delete(ctx context.Context, userID, id int64) error
}

// PGTaskRepo implements TaskRepo with Postgres.
type PGTaskRepo struct {
	db *pgxpool.Pool
}

func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db}
}

func (r *PGTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	query := `
		INSERT INTO tasks (title, description, due_date, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, description, due_date, is_completed, created_at, user_id`
	var out dom.Task
	err := r.db.QueryRow(ctx, query, t.Title, t.Description, t.DueDate, t.UserID).Scan(
		&out.ID, &out.Title, &out.Description, &out.DueDate,
		&out.IsCompleted, &out.CreatedAt, &out.UserID,
	)
	return out, err
}

func (r *PGTaskRepo) GetOwned(ctx context.Context, userID, id int64) (dom.Task, error) {
	query := `
		SELECT id, title, description, due_date, is_completed, created_at, user_id
		FROM tasks WHERE id = $1 AND user_id = $2`
	var t dom.Task
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&t.ID, &t.Title, &t.Description, &t.DueDate,
		&t.IsCompleted, &t.CreatedAt, &t.UserID,
	)
	return t, err
}

func (r *PGTaskRepo) ListByOwner(ctx context.Context, userID int64) ([]dom.Task, error) {
	query := `
		SELECT id, title, description, due_date, is_completed, created_at, user_id
		FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.Task
	for rows.Next() {
		var t dom.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate,
			&t.IsCompleted, &t.CreatedAt, &t.UserID); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTaskRepo) ListAllWithOwner(ctx context.Context) ([]dom.TaskWithOwner, error) {
	query := `
		SELECT t.id, t.title, t.description, t.due_date, t.is_completed, t.created_at, t.user_id, u.username
		FROM tasks t JOIN users u ON u.id = t.user_id
		ORDER BY t.created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.TaskWithOwner
	for rows.Next() {
		var t dom.TaskWithOwner
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate,
			&t.IsCompleted, &t.CreatedAt, &t.UserID, &t.Username); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTaskRepo) Update(ctx context.Context, userID, id int64, patch dom.Task) (dom.Task, error) {
	query := `
		UPDATE tasks SET title = $3, description = $4, due_date = $5
		WHERE id = $1 AND user_id = $2
		RETURNING id, title, description, due_date, is_completed, created_at, user_id`
	var t dom.Task
	err := r.db.QueryRow(ctx, query, id, userID, patch.Title, patch.Description, patch.DueDate).Scan(
		&t.ID, &t.Title, &t.Description, &t.DueDate,
		&t.IsCompleted, &t.CreatedAt, &t.UserID,
	)
	return t, err
}

func (r *PGTaskRepo) ToggleCompleted(ctx context.Context, userID, id int64) (dom.Task, error) {
	query := `
		UPDATE tasks SET is_completed = NOT is_completed
		WHERE id = $1 AND user_id = $2
		RETURNING id, title, description, due_date, is_completed, created_at, user_id`
	var t dom.Task
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&t.ID, &t.Title, &t.Description, &t.DueDate,
		&t.IsCompleted, &t.CreatedAt, &t.UserID,
	)
	return t, err
}

func (r *PGTaskRepo) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
