// Package secrets encrypts credential material at rest, such as the
// private half of HMAC signing keys.
//
// A Cipher derives a dedicated 32-byte key from the application key and a
// purpose label with HKDF-SHA-256, then seals values with AES-256-GCM. The
// random nonce is prepended to the ciphertext and the result is stored as
// base64, so a sealed value fits in a text column. Different purposes yield
// unrelated keys, so a value sealed for one purpose will not open under
// another.
//
// # Usage
//
//	import "github.com/dmitrymomot/authkit/pkg/secrets"
//
//	appKey, _ := secrets.GenerateKey() // store securely
//	c, err := secrets.NewCipher(appKey, "hmac-keys")
//	if err != nil {
//	    // ErrInvalidAppKey
//	}
//
//	sealed, err := c.Encrypt("super-secret")
//	plain, err := c.Decrypt(sealed)
//
// # Error Handling
//
// Errors wrap a package sentinel such as ErrEncryptionFailed or
// ErrInvalidCiphertext; match with errors.Is.
package secrets
