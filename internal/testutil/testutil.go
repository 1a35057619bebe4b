package testutil

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/metadata"

	"todoManagement/internal/db"
)

// OpenInMemoryDB opens an in-memory SQLite database and applies migrations.
// The database is closed through t.Cleanup.
func OpenInMemoryDB(t *testing.T, name string) *db.DB {
	t.Helper()
	// We use a shared cache memory database so that multiple connections share the same DB if needed.
	d, err := db.Open("sqlite3", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// OpenFileDB opens a SQLite database file in a per-test temp dir.
// Use it when tests need real concurrent writers.
func OpenFileDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open("sqlite3", t.TempDir()+"/test.db")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// UserSeed describes a user row inserted by SeedUser.
type UserSeed struct {
	Username string
	Email    string
	Password string
	Role     string
	Active   bool
	Verified bool
}

// SeedUser inserts a user directly and returns its id. The password is
// hashed at bcrypt.MinCost to keep tests fast.
func SeedUser(t *testing.T, d *db.DB, s UserSeed) int64 {
	t.Helper()
	if s.Email == "" {
		s.Email = s.Username + "@example.com"
	}
	if s.Role == "" {
		s.Role = "user"
	}
	if s.Password == "" {
		s.Password = "password123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	var id int64
	err = d.QueryRow(d.Rebind(`INSERT INTO users (email, username, password_hash, role, is_active, is_verified, created_at) VALUES (?,?,?,?,?,?,?) RETURNING id`),
		s.Email, s.Username, string(hash), s.Role, s.Active, s.Verified, time.Now().UTC()).Scan(&id)
	if err != nil {
		t.Fatalf("seed user %s: %v", s.Username, err)
	}
	return id
}

// GenerateJWTHS256 returns a signed JWT string with the given claims and no expiry handling.
func GenerateJWTHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// CtxWithBearer returns a context containing gRPC metadata Authorization header with the given token.
func CtxWithBearer(ctx context.Context, token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(ctx, md)
}
