package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/authkit/pkg/httpserver"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the process level configuration. Driver specific settings
// (pg.Config, mongo.Config, redis.Config, email.Config) are loaded only
// when the matching feature is enabled.
type Config struct {
	AppName     string `env:"APP_NAME" envDefault:"authkit"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	// Overrides the environment default level.
	LogLevel string `env:"LOG_LEVEL"`

	HTTP httpserver.Config

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"`

	// Mirror attempts to a Redis stream.
	AttemptStream   bool          `env:"ATTEMPT_STREAM_ENABLED" envDefault:"false"`
	AttemptBuffer   int           `env:"ATTEMPT_BUFFER_SIZE" envDefault:"1024"`
	AttemptBatch    int           `env:"ATTEMPT_BATCH_SIZE" envDefault:"100"`
	AttemptInterval time.Duration `env:"ATTEMPT_BATCH_TIMEOUT" envDefault:"1s"`

	// Hex encoded, 32 bytes. Encrypts HMAC secrets at rest when set.
	EncryptionKey string        `env:"APP_ENCRYPTION_KEY"`
	JWTSigningKey string        `env:"JWT_SIGNING_KEY,required"`
	JWTIssuer     string        `env:"JWT_ISSUER" envDefault:"authkit"`
	JWTTTL        time.Duration `env:"JWT_TTL" envDefault:"24h"`

	MagicLinkEnabled   bool          `env:"MAGIC_LINK_ENABLED" envDefault:"true"`
	MagicLinkVerifyURL string        `env:"MAGIC_LINK_VERIFY_URL" envDefault:"http://localhost:8080/auth/magic-link/verify"`
	MagicLinkTTL       time.Duration `env:"MAGIC_LINK_TTL" envDefault:"1h"`
	MagicLinkSingle    bool          `env:"MAGIC_LINK_SINGLE_OUTSTANDING" envDefault:"false"`

	HMACUnusedLifetime time.Duration `env:"HMAC_UNUSED_LIFETIME" envDefault:"2160h"`
	AccessTokenIdle    time.Duration `env:"ACCESS_TOKEN_IDLE_LIFETIME" envDefault:"720h"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL"` // Zero disables the hard expiry
	SessionTokenScheme string        `env:"SESSION_TOKEN_SCHEME" envDefault:"jwt"`
	SignupEnabled      bool          `env:"SIGNUP_ENABLED" envDefault:"true"`
	DefaultLanguage    string        `env:"DEFAULT_LANGUAGE" envDefault:"en"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case DriverMemory, DriverPostgres, DriverMongo:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.StorageDriver))
	}
	if len(c.JWTSigningKey) < 32 {
		errs = append(errs, fmt.Errorf("%w: JWT_SIGNING_KEY must be at least 32 bytes", ErrInvalidConfig))
	}
	switch c.SessionTokenScheme {
	case "jwt", "tokens":
	default:
		errs = append(errs, fmt.Errorf("%w: SESSION_TOKEN_SCHEME must be jwt or tokens", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}
