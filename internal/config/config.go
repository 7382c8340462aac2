// Package config provides centralized configuration management for the service.
// Values come from environment variables (optionally seeded from a .env file),
// fall back to the defaults declared in struct tags, and are validated on
// startup so a misconfigured deployment fails fast.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Cache    CacheConfig
	Storage  StorageConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout stays 0 so progress streams (SSE) are not cut off.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds synchronous handlers. Bulk import endpoints get
	// Import.Timeout instead.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. DB_URL is accepted for compatibility.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// Migrate applies the embedded schema on startup.
	Migrate bool `env:"DB_MIGRATE" default:"true"`
}

// ImportConfig holds bulk import settings.
type ImportConfig struct {
	// MaxFileSize is enforced before decoding (default: 50MB).
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"52428800"`

	// ClientChunkSize is the number of clients sent per insert call.
	ClientChunkSize int `env:"IMPORT_CLIENT_CHUNK_SIZE" default:"500"`

	// ProductChunkSize is the number of products sent per insert call.
	ProductChunkSize int `env:"IMPORT_PRODUCT_CHUNK_SIZE" default:"1000"`

	// MaxConcurrent caps imports running at the same time across all requests.
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a request waits for a free import slot.
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single import run, persistence included.
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`

	// ResultRetention is how long a finished import stays queryable.
	ResultRetention time.Duration `env:"IMPORT_RESULT_RETENTION" default:"30m"`

	// PreviewRows is the number of lines returned by the preview endpoint.
	PreviewRows int `env:"IMPORT_PREVIEW_ROWS" default:"10"`

	// AuditRetentionDays is how long import audit entries are kept.
	AuditRetentionDays int `env:"IMPORT_AUDIT_RETENTION_DAYS" default:"90"`

	// AuditPruneInterval is how often expired audit entries are deleted.
	AuditPruneInterval time.Duration `env:"IMPORT_AUDIT_PRUNE_INTERVAL" default:"24h"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// ImportLimit is requests per minute for import endpoints.
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// JWTSecret is the HMAC secret of the identity provider that issues access
	// tokens. Empty disables authentication.
	JWTSecret string `env:"AUTH_JWT_SECRET"`

	// RequireAdminForClientImport restricts client imports to admin tokens.
	RequireAdminForClientImport bool `env:"AUTH_ADMIN_CLIENT_IMPORT" default:"true"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// AuthEnabled reports whether bearer tokens are verified.
func (c *SecurityConfig) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json.
	Format string `env:"LOG_FORMAT" default:"text"`
}

// CacheConfig holds the optional search cache settings.
type CacheConfig struct {
	// RedisURL enables the cache when set, e.g. redis://localhost:6379/0.
	RedisURL  string        `env:"CACHE_REDIS_URL"`
	SearchTTL time.Duration `env:"CACHE_SEARCH_TTL" default:"60s"`
}

// StorageConfig holds the optional raw-upload archive settings.
type StorageConfig struct {
	// Endpoint enables archiving of uploaded files when set.
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" default:"imports"`
	UseSSL    bool   `env:"MINIO_USE_SSL" default:"false"`
}

// Enabled reports whether an object store is configured.
func (c *StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
