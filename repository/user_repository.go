package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"todoManagement/internal/db"
	"todoManagement/models"
)

const userColumns = `id, email, username, full_name, password_hash, role, is_active, is_verified, created_at, updated_at`

type UserRepository struct {
	db *db.DB
}

func NewUserRepository(d *db.DB) *UserRepository {
	return &UserRepository{db: d}
}

// Create inserts a new user and returns it with its generated ID.
// Role defaults to 'user'. A taken username or email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if u == nil {
		return nil, errors.New("user is nil")
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	now := time.Now().UTC()
	var id int64
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`INSERT INTO users (email, username, full_name, password_hash, role, is_active, is_verified, created_at) VALUES (?,?,?,?,?,?,?,?) RETURNING id`),
		u.Email, u.Username, nullString(u.FullName), u.PasswordHash, string(u.Role), u.IsActive, u.IsVerified, now).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	out := *u
	out.ID = id
	out.CreatedAt = now
	return &out, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

// getBy loads one user by a unique column. column is never user input.
func (r *UserRepository) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	row := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`), value)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// ListUsersParams represents filters and pagination for List.
type ListUsersParams struct {
	Role   *models.Role
	Active *bool
	Skip   int
	Limit  int
}

// List returns users newest first.
func (r *UserRepository) List(ctx context.Context, p ListUsersParams) ([]models.User, error) {
	p.Skip, p.Limit = clampPage(p.Skip, p.Limit)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var where []string
	var args []any
	if p.Role != nil {
		where = append(where, "role = ?")
		args = append(args, string(*p.Role))
	}
	if p.Active != nil {
		where = append(where, "is_active = ?")
		args = append(args, *p.Active)
	}
	query := `SELECT ` + userColumns + ` FROM users`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, p.Limit, p.Skip)

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfile sets the self-editable fields. Returns sql.ErrNoRows when id is unknown
// and ErrDuplicate when the email is taken.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, email string, fullName *string, verified bool) error {
	err := r.exec(ctx, `UPDATE users SET email = ?, full_name = ?, is_verified = ?, updated_at = ? WHERE id = ?`,
		email, nullString(fullName), verified, time.Now().UTC(), id)
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// MarkVerified flags the user's email as verified.
func (r *UserRepository) MarkVerified(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET is_verified = ?, updated_at = ? WHERE id = ?`, true, time.Now().UTC(), id)
}

// UpdateRole sets the role for the given user.
// Intended for administrative flows and tests.
func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role models.Role) error {
	return r.exec(ctx, `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, string(role), time.Now().UTC(), id)
}

// SetActive enables or disables the account.
func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, `UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`, active, time.Now().UTC(), id)
}

// Delete removes the user and every todo it owns in one transaction.
// The schema also declares ON DELETE CASCADE; deleting todos explicitly keeps
// the rule independent of per-connection foreign key settings.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM todos WHERE owner_id = ?`), id); err != nil {
		_ = tx.Rollback()
		return err
	}
	res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		_ = tx.Rollback()
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// CountAdmins returns the number of users holding the admin role.
func (r *UserRepository) CountAdmins(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int64
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT COUNT(*) FROM users WHERE role = ?`), string(models.RoleAdmin)).Scan(&n)
	return n, err
}

// Stats aggregates user counts for the admin overview.
func (r *UserRepository) Stats(ctx context.Context) (*models.UserStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var total int64
	var active, verified sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*),
       SUM(CASE WHEN is_active THEN 1 ELSE 0 END),
       SUM(CASE WHEN is_verified THEN 1 ELSE 0 END)
FROM users`).Scan(&total, &active, &verified)
	if err != nil {
		return nil, err
	}
	st := &models.UserStats{
		Total:    total,
		Active:   active.Int64,
		Verified: verified.Int64,
		ByRole:   map[models.Role]int64{},
	}

	rows, err := r.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		var n int64
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		st.ByRole[models.Role(role)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return st, nil
}

// exec runs a single-row update and maps "no row touched" to sql.ErrNoRows.
func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*models.User, error) {
	var u models.User
	var role string
	var fullName sql.NullString
	var updatedAt sql.NullTime
	if err := s.Scan(&u.ID, &u.Email, &u.Username, &fullName, &u.PasswordHash, &role, &u.IsActive, &u.IsVerified, &u.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	if fullName.Valid {
		v := fullName.String
		u.FullName = &v
	}
	if updatedAt.Valid {
		v := updatedAt.Time
		u.UpdatedAt = &v
	}
	return &u, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
