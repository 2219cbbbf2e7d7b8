package token_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/token"
)

func TestRandom(t *testing.T) {
	t.Parallel()

	t.Run("decodes to requested length", func(t *testing.T) {
		t.Parallel()
		s, err := token.Random(32)
		require.NoError(t, err)
		b, err := base64.RawURLEncoding.DecodeString(s)
		require.NoError(t, err)
		assert.Len(t, b, 32)
	})

	t.Run("values differ", func(t *testing.T) {
		t.Parallel()
		a, err := token.Random(16)
		require.NoError(t, err)
		b, err := token.Random(16)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("rejects non-positive length", func(t *testing.T) {
		t.Parallel()
		_, err := token.Random(0)
		assert.ErrorIs(t, err, token.ErrInvalidLength)
		_, err = token.RandomHex(-1)
		assert.ErrorIs(t, err, token.ErrInvalidLength)
	})

	t.Run("hex variant", func(t *testing.T) {
		t.Parallel()
		s, err := token.RandomHex(8)
		require.NoError(t, err)
		assert.Len(t, s, 16)
		assert.Equal(t, strings.ToLower(s), s)
	})
}

func TestHash(t *testing.T) {
	t.Parallel()
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", token.Hash("abc"))
}

func TestSignVerify(t *testing.T) {
	t.Parallel()

	body := []byte(`{"foo":"bar"}`)
	key := "secret-key"
	sig := token.Sign(body, key)

	tests := []struct {
		name    string
		body    []byte
		key     string
		sig     string
		wantErr error
	}{
		{name: "valid", body: body, key: key, sig: sig},
		{name: "wrong key", body: body, key: "other", sig: sig, wantErr: token.ErrSignatureInvalid},
		{name: "tampered body", body: []byte(`{"foo":"baz"}`), key: key, sig: sig, wantErr: token.ErrSignatureInvalid},
		{name: "short signature", body: body, key: key, sig: sig[:10], wantErr: token.ErrMalformedSignature},
		{name: "not hex", body: body, key: key, sig: strings.Repeat("z", 64), wantErr: token.ErrMalformedSignature},
		{name: "empty", body: body, key: key, sig: "", wantErr: token.ErrMalformedSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := token.Verify(tt.body, tt.key, tt.sig)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSignKnownVector(t *testing.T) {
	t.Parallel()
	// RFC 4231 test case 2
	got := token.Sign([]byte("what do ya want for nothing?"), "Jefe")
	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", got)
}
