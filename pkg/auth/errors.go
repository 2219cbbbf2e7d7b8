package auth

import "errors"

// Verification failures. These never escape an Authenticator as errors;
// they are carried by Result and can be matched with errors.Is(res.Err(), ...).
var (
	ErrNoToken            = errors.New("no token provided")
	ErrBadToken           = errors.New("invalid token")
	ErrOldToken           = errors.New("token expired")
	ErrTokenNotFound      = errors.New("magic link token not found")
	ErrLinkExpired        = errors.New("magic link expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthUnavailable    = errors.New("authentication temporarily unavailable")
)

// Wiring errors. Raised at startup, never per request.
var (
	ErrUnknownHandler       = errors.New("unknown authentication handler")
	ErrUnconfiguredProvider = errors.New("credential store not bound to registry")
)

// Storage and state errors
var (
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrSubjectExists      = errors.New("subject with this email already exists")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrIdentityTypeExists = errors.New("identity of this type already exists")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password does not meet security requirements")
)

// reasonKeys maps result failures to catalogue keys used for localisation.
var reasonKeys = map[error]string{
	ErrNoToken:            "auth.no_token",
	ErrBadToken:           "auth.bad_token",
	ErrOldToken:           "auth.old_token",
	ErrTokenNotFound:      "auth.magic_token_not_found",
	ErrLinkExpired:        "auth.magic_link_expired",
	ErrInvalidCredentials: "auth.invalid_credentials",
	ErrAuthUnavailable:    "auth.unavailable",
}

// ReasonKey returns the catalogue key for a verification failure,
// or "auth.failed" for errors outside the taxonomy.
func ReasonKey(err error) string {
	for e, key := range reasonKeys {
		if errors.Is(err, e) {
			return key
		}
	}
	return "auth.failed"
}
