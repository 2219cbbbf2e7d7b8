package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/config"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	require.NoError(t, config.Load(&cfg, config.WithEnvironment(map[string]string{
		"JWT_SIGNING_KEY": testSigningKey,
	})))

	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, time.Hour, cfg.MagicLinkTTL)
	assert.Equal(t, "jwt", cfg.SessionTokenScheme)
	assert.True(t, cfg.SignupEnabled)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"JWT_SIGNING_KEY": testSigningKey, "STORAGE_DRIVER": "sqlite"}},
		{name: "short signing key", env: map[string]string{"JWT_SIGNING_KEY": "short"}},
		{name: "unknown session scheme", env: map[string]string{"JWT_SIGNING_KEY": testSigningKey, "SESSION_TOKEN_SCHEME": "hmac"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var cfg Config
			err := config.Load(&cfg, config.WithEnvironment(tt.env))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	t.Run("missing signing key", func(t *testing.T) {
		t.Parallel()
		var cfg Config
		assert.Error(t, config.Load(&cfg, config.WithEnvironment(map[string]string{})))
	})
}

func TestBuildRegistry(t *testing.T) {
	t.Parallel()

	cfg := Config{
		JWTSigningKey:      testSigningKey,
		JWTTTL:             time.Hour,
		HMACUnusedLifetime: time.Hour,
		AccessTokenIdle:    time.Hour,
		SessionTokenScheme: "jwt",
	}
	reg, err := buildRegistry(cfg, logger.Noop(), nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"password", "hmac", "tokens", "jwt"}, reg.Aliases())

	cfg.EncryptionKey = "not-hex"
	_, err = buildRegistry(cfg, logger.Noop(), nil)
	assert.Error(t, err)
}

func TestOpenStorage_Memory(t *testing.T) {
	t.Parallel()

	st, err := openStorage(t.Context(), Config{StorageDriver: DriverMemory}, logger.Noop())
	require.NoError(t, err)
	defer st.close()
	assert.NotNil(t, st.store)
	assert.NotNil(t, st.users)
	assert.NotNil(t, st.attempts)
	assert.Empty(t, st.checks)
}
