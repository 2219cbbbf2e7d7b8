package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns lowercase hex HMAC-SHA256 of body keyed with key.
func Sign(body []byte, key string) string {
	h := hmac.New(sha256.New, []byte(key))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks a hex signature produced by Sign.
func Verify(body []byte, key, signature string) error {
	if len(signature) != sha256.Size*2 {
		return ErrMalformedSignature
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return ErrMalformedSignature
	}
	h := hmac.New(sha256.New, []byte(key))
	h.Write(body)
	if !hmac.Equal(got, h.Sum(nil)) {
		return ErrSignatureInvalid
	}
	return nil
}
