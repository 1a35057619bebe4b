package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"todoManagement/internal/db"
	"todoManagement/models"
)

const todoColumns = `id, title, description, priority, is_completed, owner_id, created_at, updated_at, completed_at`

// TodoRepository is the core repository for Todo entities.
// It handles basic CRUD operations; filtered queries live in todo_query.go.
type TodoRepository struct {
	db *db.DB
}

// NewTodoRepository creates a new TodoRepository.
func NewTodoRepository(d *db.DB) *TodoRepository {
	return &TodoRepository{db: d}
}

// Create inserts a new todo. Priority defaults to 'medium' and the completion
// timestamp is derived from IsCompleted.
func (r *TodoRepository) Create(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	if t == nil {
		return nil, errors.New("todo is nil")
	}
	out := *t
	if out.Priority == "" {
		out.Priority = models.PriorityMedium
	}
	now := time.Now().UTC()
	out.CreatedAt = now
	out.UpdatedAt = nil
	out.CompletedAt = nil
	out.SetCompleted(t.IsCompleted, now)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := r.db.QueryRowContext(ctx, r.db.Rebind(`INSERT INTO todos (title, description, priority, is_completed, owner_id, created_at, completed_at) VALUES (?,?,?,?,?,?,?) RETURNING id`),
		out.Title, nullString(out.Description), string(out.Priority), out.IsCompleted, out.OwnerID, now, nullTime(out.CompletedAt)).Scan(&out.ID)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByID fetches a todo by its ID.
func (r *TodoRepository) GetByID(ctx context.Context, id int64) (*models.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT `+todoColumns+` FROM todos WHERE id = ?`), id)
	t, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// Update persists every mutable field of t. Returns sql.ErrNoRows when the todo is gone.
func (r *TodoRepository) Update(ctx context.Context, t *models.Todo) error {
	if t == nil {
		return errors.New("todo is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE todos SET title = ?, description = ?, priority = ?, is_completed = ?, completed_at = ?, updated_at = ? WHERE id = ?`),
		t.Title, nullString(t.Description), string(t.Priority), t.IsCompleted, nullTime(t.CompletedAt), now, t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	t.UpdatedAt = &now
	return nil
}

// Delete removes a todo. Returns sql.ErrNoRows when nothing was deleted.
func (r *TodoRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM todos WHERE id = ?`), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// scanTodo is a helper to scan one row into a Todo.
func scanTodo(s rowScanner) (*models.Todo, error) {
	var t models.Todo
	var priority string
	var description sql.NullString
	var updatedAt, completedAt sql.NullTime
	if err := s.Scan(&t.ID, &t.Title, &description, &priority, &t.IsCompleted, &t.OwnerID, &t.CreatedAt, &updatedAt, &completedAt); err != nil {
		return nil, err
	}
	t.Priority = models.Priority(priority)
	if description.Valid {
		v := description.String
		t.Description = &v
	}
	if updatedAt.Valid {
		v := updatedAt.Time
		t.UpdatedAt = &v
	}
	if completedAt.Valid {
		v := completedAt.Time
		t.CompletedAt = &v
	}
	return &t, nil
}
