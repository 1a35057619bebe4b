package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"todoManagement/models"
)

// ListTodosParams represents filters and pagination for todo listings.
// A nil field means "no filter".
type ListTodosParams struct {
	OwnerID   *int64
	Completed *bool
	Priority  *models.Priority
	Skip      int
	Limit     int
}

// where builds the WHERE clause shared by the list and stats queries.
// prefix qualifies columns when the query joins other tables.
func (p ListTodosParams) where(prefix string) (string, []any) {
	var where []string
	var args []any
	if p.OwnerID != nil {
		where = append(where, prefix+"owner_id = ?")
		args = append(args, *p.OwnerID)
	}
	if p.Completed != nil {
		where = append(where, prefix+"is_completed = ?")
		args = append(args, *p.Completed)
	}
	if p.Priority != nil {
		where = append(where, prefix+"priority = ?")
		args = append(args, string(*p.Priority))
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// List returns todos matching filters ordered by created_at desc, id desc.
func (r *TodoRepository) List(ctx context.Context, p ListTodosParams) ([]models.Todo, error) {
	p.Skip, p.Limit = clampPage(p.Skip, p.Limit)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	where, args := p.where("")
	query := `SELECT ` + todoColumns + ` FROM todos` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, p.Limit, p.Skip)

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListWithOwner is List joined with each todo's owner, for admin views.
func (r *TodoRepository) ListWithOwner(ctx context.Context, p ListTodosParams) ([]models.TodoWithOwner, error) {
	p.Skip, p.Limit = clampPage(p.Skip, p.Limit)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	where, args := p.where("t.")
	query := `
SELECT t.id, t.title, t.description, t.priority, t.is_completed, t.owner_id, t.created_at, t.updated_at, t.completed_at,
       u.id, u.email, u.username, u.full_name, u.password_hash, u.role, u.is_active, u.is_verified, u.created_at, u.updated_at
FROM todos t
JOIN users u ON u.id = t.owner_id` + where + `
ORDER BY t.created_at DESC, t.id DESC
LIMIT ? OFFSET ?`
	args = append(args, p.Limit, p.Skip)

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TodoWithOwner{}
	for rows.Next() {
		var tw models.TodoWithOwner
		var priority, role string
		var description, fullName sql.NullString
		var updatedAt, completedAt, ownerUpdatedAt sql.NullTime
		u := &tw.Owner
		if err := rows.Scan(&tw.ID, &tw.Title, &description, &priority, &tw.IsCompleted, &tw.OwnerID, &tw.CreatedAt, &updatedAt, &completedAt,
			&u.ID, &u.Email, &u.Username, &fullName, &u.PasswordHash, &role, &u.IsActive, &u.IsVerified, &u.CreatedAt, &ownerUpdatedAt); err != nil {
			return nil, err
		}
		tw.Priority = models.Priority(priority)
		u.Role = models.Role(role)
		if description.Valid {
			v := description.String
			tw.Description = &v
		}
		if fullName.Valid {
			v := fullName.String
			u.FullName = &v
		}
		if updatedAt.Valid {
			v := updatedAt.Time
			tw.UpdatedAt = &v
		}
		if completedAt.Valid {
			v := completedAt.Time
			tw.CompletedAt = &v
		}
		if ownerUpdatedAt.Valid {
			v := ownerUpdatedAt.Time
			u.UpdatedAt = &v
		}
		out = append(out, tw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats counts todos, optionally restricted to one owner.
func (r *TodoRepository) Stats(ctx context.Context, ownerID *int64) (*models.TodoStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	where, args := ListTodosParams{OwnerID: ownerID}.where("")

	var total int64
	var completed sql.NullInt64
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT COUNT(*), SUM(CASE WHEN is_completed THEN 1 ELSE 0 END) FROM todos`+where), args...).
		Scan(&total, &completed)
	if err != nil {
		return nil, err
	}
	st := &models.TodoStats{
		Total:      total,
		Completed:  completed.Int64,
		Pending:    total - completed.Int64,
		ByPriority: map[models.Priority]int64{},
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`SELECT priority, COUNT(*) FROM todos`+where+` GROUP BY priority`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p string
		var n int64
		if err := rows.Scan(&p, &n); err != nil {
			return nil, err
		}
		st.ByPriority[models.Priority(p)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return st, nil
}
