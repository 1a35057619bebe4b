package repository

import (
	"context"
	"errors"

	"todoManagement/models"
)

// ErrDuplicate is returned when an insert or update would break a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// UserRepositoryI defines operations on User entities.
// Lookups return (nil, nil) when no row matches.
type UserRepositoryI interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, p ListUsersParams) ([]models.User, error)
	UpdateProfile(ctx context.Context, id int64, email string, fullName *string, verified bool) error
	MarkVerified(ctx context.Context, id int64) error
	UpdateRole(ctx context.Context, id int64, role models.Role) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
	CountAdmins(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*models.UserStats, error)
}

// TodoRepositoryI defines operations on Todo entities.
type TodoRepositoryI interface {
	Create(ctx context.Context, t *models.Todo) (*models.Todo, error)
	GetByID(ctx context.Context, id int64) (*models.Todo, error)
	List(ctx context.Context, p ListTodosParams) ([]models.Todo, error)
	ListWithOwner(ctx context.Context, p ListTodosParams) ([]models.TodoWithOwner, error)
	Update(ctx context.Context, t *models.Todo) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, ownerID *int64) (*models.TodoStats, error)
}

var (
	_ UserRepositoryI = (*UserRepository)(nil)
	_ TodoRepositoryI = (*TodoRepository)(nil)
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// clampPage normalizes skip/limit the way every list endpoint expects.
func clampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit
}
