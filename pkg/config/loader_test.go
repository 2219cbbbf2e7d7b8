package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/config"
)

type testConfig struct {
	Addr    string        `env:"ADDR" envDefault:":8080"`
	TTL     time.Duration `env:"TTL" envDefault:"1h"`
	Secret  string        `env:"SECRET,required"`
	Drivers []string      `env:"DRIVERS" envSeparator:","`
}

type validatedConfig struct {
	Port int `env:"PORT" envDefault:"0"`
}

func (c *validatedConfig) Validate() error {
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("defaults and values", func(t *testing.T) {
		t.Parallel()
		var cfg testConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{
			"SECRET":  "s3cret",
			"DRIVERS": "memory,postgres",
		}))
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, time.Hour, cfg.TTL)
		assert.Equal(t, "s3cret", cfg.Secret)
		assert.Equal(t, []string{"memory", "postgres"}, cfg.Drivers)
	})

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()
		var cfg testConfig
		err := config.Load(&cfg,
			config.WithPrefix("AUTH_"),
			config.WithEnvironment(map[string]string{"AUTH_SECRET": "x", "AUTH_ADDR": ":9000"}),
		)
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Addr)
	})

	t.Run("missing required", func(t *testing.T) {
		t.Parallel()
		var cfg testConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{}))
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Parallel()
		var cfg testConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{"SECRET": "x", "TTL": "soon"}))
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("validator", func(t *testing.T) {
		t.Parallel()
		var cfg validatedConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{}))
		assert.ErrorIs(t, err, config.ErrInvalidConfig)

		err = config.Load(&cfg, config.WithEnvironment(map[string]string{"PORT": "80"}))
		require.NoError(t, err)
		assert.Equal(t, 80, cfg.Port)
	})

	t.Run("nil pointer", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, config.Load[testConfig](nil), config.ErrNilPointer)
	})

	t.Run("must load panics", func(t *testing.T) {
		t.Parallel()
		var cfg testConfig
		assert.Panics(t, func() {
			config.MustLoad(&cfg, config.WithEnvironment(map[string]string{}))
		})
	})
}

// Not parallel: dotenv files write to the process environment.
func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CONFIG_TEST_FILE_SECRET=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CONFIG_TEST_FILE_SECRET") })

	var cfg struct {
		Secret string `env:"CONFIG_TEST_FILE_SECRET,required"`
	}
	require.NoError(t, config.Load(&cfg, config.WithEnvFiles(path, filepath.Join(dir, "missing.env"))))
	assert.Equal(t, "from-file", cfg.Secret)
}
