// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development, and a
// local .env file is honoured when present.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Store driver names accepted by LUCKY_BOX_STORE and RESET_TOKEN_STORE.
const (
	StoreMemory  = "memory"
	StoreRedis   = "redis"
	StoreMariaDB = "mariadb"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 3000).
	Port int

	// BaseURL is the public-facing URL used for reset links and CORS.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	// Empty means debug in development and info otherwise.
	LogLevel string

	// TrustedProxies lists the CIDRs whose X-Forwarded-For is believed
	// when resolving the client IP.
	TrustedProxies []string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Security holds the envelope and cookie secrets.
	Security SecurityConfig

	// Backend holds the external backend service settings.
	Backend BackendConfig

	// Locale holds the enabled languages.
	Locale LocaleConfig

	// LuckyBox holds lucky-box storage settings.
	LuckyBox LuckyBoxConfig

	// ResetToken holds password reset token settings.
	ResetToken ResetTokenConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so
// container orchestrators can manage each independently.
// If DATABASE_URL is set, it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	User     string
	Password string
	Name     string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsPath is the directory holding *.up.sql / *.down.sql files.
	MigrationsPath string
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// fields using the driver's Config.FormatDSN() to safely handle special
// characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = true // golang-migrate runs multi-statement files.
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// SecurityConfig holds the static secrets.
type SecurityConfig struct {
	// EncryptionSecret is the process-wide envelope passphrase.
	EncryptionSecret string

	// CookiePassword signs and encrypts the session cookie.
	CookiePassword string

	// SessionMaxAge is the session cookie lifetime (default 30 days).
	SessionMaxAge time.Duration
}

// BackendConfig holds the external backend service settings.
type BackendConfig struct {
	// BaseURL is the backend origin (BE_BASE_URL).
	BaseURL string

	// APIKey is sent as X-Api-Key on every backend call.
	APIKey string

	// Timeout bounds each backend call.
	Timeout time.Duration
}

// LocaleConfig lists the enabled UI languages.
type LocaleConfig struct {
	Default string
	Enabled []string
}

// LuckyBoxConfig selects the lucky-box store and its calendar time zone.
type LuckyBoxConfig struct {
	Store    string
	TimeZone string
}

// ResetTokenConfig selects the reset token store and token lifetime.
type ResetTokenConfig struct {
	Store string
	TTL   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing in production.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("ignoring unreadable .env file", slog.Any("error", err))
	}

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 3000),
		BaseURL:  getEnv("NEXT_PUBLIC_BASE_URL", "http://localhost:3000"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		TrustedProxies: getEnvList("TRUSTED_PROXIES", []string{
			"127.0.0.0/8",
			"10.0.0.0/8",
			"172.16.0.0/12",
			"192.168.0.0/16",
			"fd00::/8",
		}),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "bocmenh"),
			Password:        getEnv("DB_PASSWORD", "bocmenh"),
			Name:            getEnv("DB_NAME", "bocmenh"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "db/migrations"),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Security: SecurityConfig{
			EncryptionSecret: getEnv("ENCRYPTION_SECRET", getEnv("NEXT_PUBLIC_ENCRYPTION_SECRET", "")),
			CookiePassword:   getEnv("SECRET_COOKIE_PASSWORD", ""),
			SessionMaxAge:    getEnvDuration("SESSION_MAX_AGE", 30*24*time.Hour),
		},

		Backend: BackendConfig{
			BaseURL: strings.TrimRight(getEnv("BE_BASE_URL", "http://localhost:5000"), "/"),
			APIKey:  getEnv("API_KEY", ""),
			Timeout: getEnvDuration("BACKEND_TIMEOUT", 30*time.Second),
		},

		Locale: LocaleConfig{
			Default: getEnv("DEFAULT_LOCALE", "vi"),
			Enabled: getEnvList("LOCALES", []string{"vi", "en"}),
		},

		LuckyBox: LuckyBoxConfig{
			Store:    strings.ToLower(getEnv("LUCKY_BOX_STORE", StoreRedis)),
			TimeZone: getEnv("LUCKY_BOX_TZ", "Asia/Ho_Chi_Minh"),
		},

		ResetToken: ResetTokenConfig{
			Store: strings.ToLower(getEnv("RESET_TOKEN_STORE", StoreMariaDB)),
			TTL:   getEnvDuration("RESET_TOKEN_TTL", 15*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Provide dev-only default secrets so local dev works without .env.
	if cfg.Security.EncryptionSecret == "" {
		cfg.Security.EncryptionSecret = "dev-encryption-secret-do-not-use-in-production"
	}
	if cfg.Security.CookiePassword == "" {
		cfg.Security.CookiePassword = "dev-cookie-password-do-not-use-in-production!!"
	}

	return cfg, nil
}

// validate checks store names and, in production, the required secrets.
func (c *Config) validate() error {
	switch c.LuckyBox.Store {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("LUCKY_BOX_STORE must be %q or %q, got %q", StoreMemory, StoreRedis, c.LuckyBox.Store)
	}
	switch c.ResetToken.Store {
	case StoreMemory, StoreMariaDB:
	default:
		return fmt.Errorf("RESET_TOKEN_STORE must be %q or %q, got %q", StoreMemory, StoreMariaDB, c.ResetToken.Store)
	}
	if !contains(c.Locale.Enabled, c.Locale.Default) {
		return fmt.Errorf("DEFAULT_LOCALE %q is not listed in LOCALES", c.Locale.Default)
	}
	if _, err := time.LoadLocation(c.LuckyBox.TimeZone); err != nil {
		return fmt.Errorf("LUCKY_BOX_TZ: %w", err)
	}

	if !c.IsProduction() {
		return nil
	}
	if c.Security.EncryptionSecret == "" {
		return fmt.Errorf("ENCRYPTION_SECRET is required in production")
	}
	if len(c.Security.CookiePassword) < 32 {
		return fmt.Errorf("SECRET_COOKIE_PASSWORD must be at least 32 characters in production")
	}
	if c.Backend.APIKey == "" {
		return fmt.Errorf("API_KEY is required in production")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction returns true for "production" or "prod" in any case.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// Location returns the lucky-box calendar time zone. validate guarantees
// the name loads.
func (l LuckyBoxConfig) Location() *time.Location {
	loc, err := time.LoadLocation(l.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "720h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var or returns the default.
func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
