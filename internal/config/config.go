package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	HTTP      HTTPConfig
	GRPC      GRPCConfig
	Auth      AuthConfig
	Bootstrap BootstrapConfig
	Log       LogConfig
}

// AppConfig contains service identity settings.
type AppConfig struct {
	Name    string
	Version string
	Debug   bool // expose internal error messages in responses
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Driver string // "sqlite3", "postgres" (lib/pq) or "pgx"
	DSN    string // file path for sqlite3, connection URL otherwise
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string // gRPC server listen address (e.g., ":50051")
}

// AuthConfig contains token and password settings.
type AuthConfig struct {
	JWTSecret       string // JWT signing secret
	JWTAlgorithm    string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	VerificationTTL time.Duration
	BcryptCost      int
	RequireVerified bool // add the verified-email check to todo endpoints
}

// BootstrapConfig describes the admin account created when none exists.
type BootstrapConfig struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

const (
	defaultDevSecret     = "dev-secret-change-me"
	defaultAdminPassword = "admin123"
)

// Load loads configuration from environment variables (and an optional .env file)
// with sensible defaults. JWT_SECRET must be set.
func Load() (*Config, error) {
	loadDotenv()
	cfg, err := build("")
	if err != nil {
		return nil, err
	}

	// Validate critical settings
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	loadDotenv()
	return build(defaultDevSecret)
}

// UsesDefaultAdminPassword reports whether the bootstrap admin still has the shipped password.
func (c *Config) UsesDefaultAdminPassword() bool {
	return c.Bootstrap.AdminPassword == defaultAdminPassword
}

func build(secretDefault string) (*Config, error) {
	readTimeout, err := getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	writeTimeout, err := getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	accessMinutes, err := getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	refreshDays, err := getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)
	if err != nil {
		return nil, err
	}
	cost, err := getEnvInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, err
	}
	debug, err := getEnvBool("APP_DEBUG", false)
	if err != nil {
		return nil, err
	}
	requireVerified, err := getEnvBool("AUTH_REQUIRE_VERIFIED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "Todo API"),
			Version: getEnv("APP_VERSION", "1.0.0"),
			Debug:   debug,
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite3"),
			DSN:    getEnv("DB_DSN", "todo.db"),
		},
		HTTP: HTTPConfig{
			Address:      getEnv("HTTP_ADDRESS", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "*")),
		},
		GRPC: GRPCConfig{
			Address: getEnv("GRPC_ADDRESS", ":50051"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", secretDefault),
			JWTAlgorithm:    strings.ToUpper(getEnv("JWT_ALGORITHM", "HS256")),
			JWTIssuer:       getEnv("JWT_ISSUER", ""),
			AccessTokenTTL:  time.Duration(accessMinutes) * time.Minute,
			RefreshTokenTTL: time.Duration(refreshDays) * 24 * time.Hour,
			VerificationTTL: 24 * time.Hour,
			BcryptCost:      cost,
			RequireVerified: requireVerified,
		},
		Bootstrap: BootstrapConfig{
			AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
			AdminPassword: getEnv("ADMIN_PASSWORD", defaultAdminPassword),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}

	if cfg.Auth.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be > 0")
	}
	if cfg.Auth.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("REFRESH_TOKEN_EXPIRE_DAYS must be > 0")
	}
	switch cfg.Auth.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("JWT_ALGORITHM %q is not supported", cfg.Auth.JWTAlgorithm)
	}
	switch cfg.Database.Driver {
	case "sqlite3", "postgres", "pgx":
	default:
		return nil, fmt.Errorf("DB_DRIVER %q is not supported", cfg.Database.Driver)
	}
	return cfg, nil
}

// loadDotenv reads .env when present. Variables already in the environment win.
func loadDotenv() {
	_ = godotenv.Load()
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
		}
		return b, nil
	}
	return defaultVal, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		return d, nil
	}
	return defaultVal, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimRight(strings.TrimSpace(p), "/"); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s %s, DB: %s, HTTP: %s, gRPC: %s, Auth: %s *** (masked) ***, Admin: %s}",
		c.App.Name, c.App.Version, c.Database.Driver, c.HTTP.Address, c.GRPC.Address, c.Auth.JWTAlgorithm, c.Bootstrap.AdminUsername)
}
