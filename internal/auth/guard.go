package auth

import (
	"context"
	"strings"

	"todoManagement/internal/apperr"
	"todoManagement/models"
)

// Rejections returned by the guard chain.
var (
	ErrUnauthenticated = apperr.Unauthenticated("Could not validate credentials")
	ErrInactive        = apperr.Forbidden("User account is inactive")
	ErrUnverified      = apperr.Forbidden("Email not verified. Please verify your email to access this resource.")
	ErrAdminRequired   = apperr.Forbidden("Admin privileges required")
)

// UserLookup is the read-only slice of the user store the guard needs.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Check is one stage of the guard chain. It returns nil to pass.
type Check func(u *models.User) error

// Active rejects deactivated accounts.
func Active(u *models.User) error {
	if !u.IsActive {
		return ErrInactive
	}
	return nil
}

// Verified rejects accounts whose email is not verified.
func Verified(u *models.User) error {
	if !u.IsVerified {
		return ErrUnverified
	}
	return nil
}

// Admin rejects non-admin accounts.
func Admin(u *models.User) error {
	if !u.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// Named chains. Each stage assumes the previous ones passed.
var (
	ActiveChain   = []Check{Active}
	VerifiedChain = []Check{Active, Verified}
	AdminChain    = []Check{Active, Admin}
)

// Guard authenticates bearer tokens against the user store and runs checks.
// It never writes to the store.
type Guard struct {
	codec *Codec
	users UserLookup
}

func NewGuard(codec *Codec, users UserLookup) *Guard {
	return &Guard{codec: codec, users: users}
}

// Authenticate resolves an access token to its user. An invalid token and an
// unknown subject yield the same ErrUnauthenticated.
func (g *Guard) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, ok := g.codec.Parse(token, KindAccess)
	if !ok {
		return nil, ErrUnauthenticated
	}
	u, err := g.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

// Require authenticates token and then runs checks in order, returning the
// first rejection.
func (g *Guard) Require(ctx context.Context, token string, checks ...Check) (*models.User, error) {
	u, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	for _, check := range checks {
		if err := check(u); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// Optional is Require(ActiveChain) with every rejection turned into "no user".
func (g *Guard) Optional(ctx context.Context, token string) (*models.User, bool) {
	u, err := g.Require(ctx, token, ActiveChain...)
	if err != nil {
		return nil, false
	}
	return u, true
}

// BearerToken extracts the token from an Authorization header value.
// It returns "" when the scheme is not Bearer.
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type userKey struct{}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext retrieves the authenticated user from ctx (if any).
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey{}).(*models.User)
	return u, ok && u != nil
}
