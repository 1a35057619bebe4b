package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DB_DRIVER", "DB_DSN", "HTTP_ADDRESS", "GRPC_ADDRESS", "JWT_SECRET", "JWT_ALGORITHM",
		"ACCESS_TOKEN_EXPIRE_MINUTES", "REFRESH_TOKEN_EXPIRE_DAYS", "APP_DEBUG", "CORS_ORIGINS", "ADMIN_PASSWORD"} {
		os.Unsetenv(k)
	}
}

func TestLoadWithDefaults_Succeeds(t *testing.T) {
	// Ensure envs are clean to use defaults
	clearEnv(t)
	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.GRPC.Address == "" || cfg.HTTP.Address == "" || cfg.Database.DSN == "" || cfg.Auth.JWTSecret == "" {
		t.Fatalf("unexpected empty defaults: %+v", cfg)
	}
	if cfg.Auth.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("access ttl = %v, want 30m", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Auth.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("refresh ttl = %v, want 7d", cfg.Auth.RefreshTokenTTL)
	}
	if cfg.Auth.VerificationTTL != 24*time.Hour {
		t.Fatalf("verification ttl = %v, want 24h", cfg.Auth.VerificationTTL)
	}
	if !cfg.UsesDefaultAdminPassword() {
		t.Fatalf("expected default admin password to be detected")
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "test.db")
	t.Setenv("GRPC_ADDRESS", ":1234")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is not set")
	}
	// When set, it should succeed
	t.Setenv("JWT_SECRET", "x")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with secret set: %v", err)
	}
}

func TestLoad_ParsesOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("REFRESH_TOKEN_EXPIRE_DAYS", "1")
	t.Setenv("APP_DEBUG", "true")
	t.Setenv("CORS_ORIGINS", "http://a.test/, http://b.test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.AccessTokenTTL != 5*time.Minute || cfg.Auth.RefreshTokenTTL != 24*time.Hour {
		t.Fatalf("ttl overrides not applied: %+v", cfg.Auth)
	}
	if !cfg.App.Debug {
		t.Fatalf("APP_DEBUG not applied")
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[0] != "http://a.test" {
		t.Fatalf("cors origins = %v", cfg.HTTP.CORSOrigins)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"ACCESS_TOKEN_EXPIRE_MINUTES": "soon",
		"JWT_ALGORITHM":               "RS256",
		"DB_DRIVER":                   "oracle",
		"APP_DEBUG":                   "maybe",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "x")
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestString_MasksSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "super-secret-value")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s := cfg.String(); strings.Contains(s, "super-secret-value") {
		t.Fatalf("secret leaked in String(): %s", s)
	}
}
