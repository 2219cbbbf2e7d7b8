package secrets_test

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/secrets"
)

func newCipher(t *testing.T, purpose string) (*secrets.Cipher, []byte) {
	t.Helper()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	c, err := secrets.NewCipher(key, purpose)
	require.NoError(t, err)
	return c, key
}

func TestCipherRoundTrip(t *testing.T) {
	t.Parallel()
	c, _ := newCipher(t, "hmac-keys")

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty string", ""},
		{"hex key", "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"},
		{"unicode", "Hello 世界 🌍"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sealed, err := c.Encrypt(tt.plaintext)
			require.NoError(t, err)
			if tt.plaintext != "" {
				assert.NotEqual(t, tt.plaintext, sealed)
			}

			plain, err := c.Decrypt(sealed)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, plain)
		})
	}
}

func TestCipherNonceIsRandom(t *testing.T) {
	t.Parallel()
	c, _ := newCipher(t, "hmac-keys")

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCipherPurposeSeparation(t *testing.T) {
	t.Parallel()
	c, key := newCipher(t, "hmac-keys")
	other, err := secrets.NewCipher(key, "something-else")
	require.NoError(t, err)

	sealed, err := c.Encrypt("secret")
	require.NoError(t, err)

	_, err = other.Decrypt(sealed)
	assert.ErrorIs(t, err, secrets.ErrDecryptionFailed)
}

func TestCipherDecryptErrors(t *testing.T) {
	t.Parallel()
	c, _ := newCipher(t, "hmac-keys")

	t.Run("not base64", func(t *testing.T) {
		t.Parallel()
		_, err := c.Decrypt("%%%")
		assert.ErrorIs(t, err, secrets.ErrInvalidCiphertext)
	})

	t.Run("too short", func(t *testing.T) {
		t.Parallel()
		_, err := c.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
		assert.ErrorIs(t, err, secrets.ErrInvalidCiphertext)
	})

	t.Run("tampered", func(t *testing.T) {
		t.Parallel()
		sealed, err := c.Encrypt("secret")
		require.NoError(t, err)
		raw, err := base64.StdEncoding.DecodeString(sealed)
		require.NoError(t, err)
		raw[len(raw)-1] ^= 0xff
		_, err = c.Decrypt(base64.StdEncoding.EncodeToString(raw))
		assert.ErrorIs(t, err, secrets.ErrDecryptionFailed)
	})
}

func TestNewCipherValidation(t *testing.T) {
	t.Parallel()

	_, err := secrets.NewCipher([]byte("short"), "hmac-keys")
	assert.ErrorIs(t, err, secrets.ErrInvalidAppKey)

	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	_, err = secrets.NewCipher(key, "")
	assert.ErrorIs(t, err, secrets.ErrInvalidPurpose)
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	key, err := secrets.GenerateKey()
	require.NoError(t, err)

	parsed, err := secrets.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = secrets.ParseKey("abcd")
	assert.ErrorIs(t, err, secrets.ErrInvalidAppKey)
	_, err = secrets.ParseKey("not-hex")
	assert.ErrorIs(t, err, secrets.ErrInvalidAppKey)
}
