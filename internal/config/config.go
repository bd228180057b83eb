// Package config defines the configuration consumed by the data-access
// layer. Configuration is loaded once at process initialization and is
// immutable thereafter; components receive only the subsets they require.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File (Lowest)
//
// Any missing required value or invalid format surfaces as a ConfigError
// before the pool is ever constructed (fail fast).
package config

import (
	"time"

	"orgdata/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used for the store DSN so it cannot leak through logs or config dumps.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
type Config struct {
	// System metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"orgdata"`

	// Domain configurations
	Log      LogConfig
	Database DatabaseConfig

	// Build metadata (injected via ldflags, not env)
	Build BuildInfo
}

// LogConfig holds logger output settings.
type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	// Console switches to the human-readable writer for local work;
	// the default is JSON lines.
	Console bool `envconfig:"LOG_CONSOLE" default:"false"`

	// File enables a rotating file sink when non-empty.
	File           string `envconfig:"LOG_FILE"`
	FileMaxSizeMB  int    `envconfig:"LOG_FILE_MAX_SIZE_MB" default:"100"`
	FileMaxBackups int    `envconfig:"LOG_FILE_MAX_BACKUPS" default:"3"`
	FileMaxAgeDays int    `envconfig:"LOG_FILE_MAX_AGE_DAYS" default:"28"`
	FileCompress   bool   `envconfig:"LOG_FILE_COMPRESS" default:"true"`
}

// DatabaseConfig holds the store address and pool tuning parameters.
// The layer consumes these; it does not own their distribution.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	// Pool bounds. Demand beyond PoolMax blocks at acquire rather than
	// opening additional connections.
	PoolMin int `envconfig:"DB_POOL_MIN" default:"2" validate:"gte=0"`
	PoolMax int `envconfig:"DB_POOL_MAX" default:"10" validate:"gte=1,gtefield=PoolMin"`

	// Connection hygiene.
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`

	// AcquireTimeout bounds how long an operation waits for a free
	// connection before failing with pool_exhausted.
	AcquireTimeout time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"5s" validate:"gt=0"`

	// TxTimeout bounds a transaction's total duration; past it the
	// transaction is rolled back and reported as transaction_timeout.
	TxTimeout time.Duration `envconfig:"DB_TX_TIMEOUT" default:"15s" validate:"gt=0"`

	// Connect-path retry policy: attempts beyond the first, base delay for
	// the exponential backoff, and the cap it never exceeds.
	ConnectRetries int           `envconfig:"DB_CONNECT_RETRIES" default:"3" validate:"gte=0"`
	BackoffBase    time.Duration `envconfig:"DB_BACKOFF_BASE" default:"500ms" validate:"gt=0"`
	BackoffMax     time.Duration `envconfig:"DB_BACKOFF_MAX" default:"10s" validate:"gt=0"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrParsing indicates a failure when parsing environment variable
	// values into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
)
