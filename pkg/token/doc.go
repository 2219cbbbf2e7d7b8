// Package token provides the cryptographic primitives behind credential
// secrets: random opaque strings, hex HMAC-SHA256 signatures and hex
// SHA-256 digests.
//
// Signatures are compared in constant time. Verify accepts only lowercase
// hex of the exact digest length and reports ErrMalformedSignature
// otherwise, so callers can tell garbage from a wrong key.
//
// # Usage
//
//	import "github.com/dmitrymomot/authkit/pkg/token"
//
//	key, err := token.Random(32)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sig := token.Sign([]byte(`{"amount":10}`), key)
//	if err := token.Verify([]byte(`{"amount":10}`), key, sig); err != nil {
//	    // ErrSignatureInvalid or ErrMalformedSignature
//	}
//
// Uses only the standard library crypto packages.
package token
