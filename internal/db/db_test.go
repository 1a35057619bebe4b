package db

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func openMem(t *testing.T, name string) *DB {
	t.Helper()
	d, err := Open("sqlite3", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestOpen_AppliesMigrations(t *testing.T) {
	d := openMem(t, "dbmigrate")
	var n int
	if err := d.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected applied migrations")
	}
	for _, table := range []string{"users", "todos"} {
		if _, err := d.Exec(`SELECT 1 FROM ` + table + ` LIMIT 1`); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
	// Reopening must not reapply.
	if err := applyMigrations(d); err != nil {
		t.Fatalf("second apply: %v", err)
	}
}

func TestRollbackLast(t *testing.T) {
	d := openMem(t, "dbrollback")
	if err := RollbackLast(d); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if _, err := d.Exec(`SELECT 1 FROM users LIMIT 1`); err == nil {
		t.Fatalf("expected users table to be dropped")
	}
	if err := applyMigrations(d); err != nil {
		t.Fatalf("reapply: %v", err)
	}
}

func TestForeignKeyCascade(t *testing.T) {
	d := openMem(t, "dbcascade")
	now := time.Now().UTC()
	var uid int64
	err := d.QueryRow(`INSERT INTO users (email, username, password_hash, created_at) VALUES (?,?,?,?) RETURNING id`,
		"a@x.com", "a", "h", now).Scan(&uid)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if _, err := d.Exec(`INSERT INTO todos (title, owner_id, created_at) VALUES (?,?,?)`, "t", uid, now); err != nil {
		t.Fatalf("insert todo: %v", err)
	}
	if _, err := d.Exec(`DELETE FROM users WHERE id = ?`, uid); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	var n int
	if err := d.QueryRow(`SELECT COUNT(*) FROM todos`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected cascade delete, %d todos left", n)
	}
}

func TestCompletionCheckConstraint(t *testing.T) {
	d := openMem(t, "dbcheck")
	now := time.Now().UTC()
	var uid int64
	if err := d.QueryRow(`INSERT INTO users (email, username, password_hash, created_at) VALUES (?,?,?,?) RETURNING id`,
		"c@x.com", "c", "h", now).Scan(&uid); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	_, err := d.Exec(`INSERT INTO todos (title, owner_id, created_at, is_completed) VALUES (?,?,?,?)`, "t", uid, now, true)
	if err == nil {
		t.Fatalf("expected check constraint failure for completed todo without completed_at")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	d := openMem(t, "dbunique")
	now := time.Now().UTC()
	ins := `INSERT INTO users (email, username, password_hash, created_at) VALUES (?,?,?,?)`
	if _, err := d.Exec(ins, "u@x.com", "u", "h", now); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := d.Exec(ins, "u@x.com", "u2", "h", now)
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if !IsUniqueViolation(fmt.Errorf("wrapped: %w", &pq.Error{Code: "23505"})) {
		t.Fatalf("lib/pq unique violation not detected")
	}
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("pgx unique violation not detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) || IsUniqueViolation(errors.New("x")) || IsUniqueViolation(nil) {
		t.Fatalf("false positive")
	}
}

func TestRebind(t *testing.T) {
	q := `SELECT id FROM users WHERE username = ? AND role = ? LIMIT ?`
	if got := Rebind(DialectSQLite, q); got != q {
		t.Fatalf("sqlite rebind changed query: %s", got)
	}
	want := `SELECT id FROM users WHERE username = $1 AND role = $2 LIMIT $3`
	if got := Rebind(DialectPostgres, q); got != want {
		t.Fatalf("postgres rebind = %s, want %s", got, want)
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := map[string]string{
		"todo.db":                      "todo.db?_foreign_keys=1&_busy_timeout=5000",
		"file:x?mode=memory":           "file:x?mode=memory&_foreign_keys=1&_busy_timeout=5000",
		"a.db?_fk=1&_busy_timeout=100": "a.db?_fk=1&_busy_timeout=100",
	}
	for in, want := range tests {
		if got := sqliteDSN(in); got != want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDialectFor(t *testing.T) {
	for driver, want := range map[string]Dialect{"sqlite3": DialectSQLite, "postgres": DialectPostgres, "pgx": DialectPostgres} {
		got, err := DialectFor(driver)
		if err != nil || got != want {
			t.Fatalf("DialectFor(%s) = %s, %v", driver, got, err)
		}
	}
	if _, err := DialectFor("mysql"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
