package token

import "errors"

var (
	ErrInvalidLength      = errors.New("token length must be positive")
	ErrMalformedSignature = errors.New("malformed signature")
	ErrSignatureInvalid   = errors.New("signature mismatch")
)
