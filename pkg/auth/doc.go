// Package auth verifies presented credentials against stored identity
// records and reports a uniform Result regardless of the credential scheme.
//
// # Schemes
//
// Each scheme is an Authenticator registered under an alias:
//
//   - password: email and password against a bcrypt hash (PasswordAuthenticator)
//   - magic_link: single-use login links delivered by email (MagicLinkAuthenticator)
//   - hmac: requests signed with a per-key secret (HMACAuthenticator)
//   - tokens: opaque bearer tokens stored as SHA-256 digests (AccessTokenAuthenticator)
//   - jwt: stateless HS256 bearer tokens (JWTAuthenticator)
//
// Scheme specific operations are exposed through capability interfaces
// such as HMACKeyIssuer, LinkIssuer, TokenIssuer, Registrar and
// IdentityHolder. Query them with a type assertion:
//
//	a, err := registry.Resolve(auth.AliasHMAC)
//	if issuer, ok := a.(auth.HMACKeyIssuer); ok {
//		key, err := issuer.GenerateHMACKey(ctx, userID, "ci")
//		// key.Secret2 is shown to the user once
//	}
//
// # Registry
//
// A Registry maps aliases to factories, validates the default alias when
// constructed and caches one Authenticator per alias. Authenticators hold
// the login state of a single request, so derive a fresh registry per
// request with Scope:
//
//	base, err := auth.NewRegistry(auth.RegistryConfig{
//		Default: auth.AliasPassword,
//		Authenticators: map[string]auth.Factory{
//			auth.AliasPassword:  auth.PasswordFactory(),
//			auth.AliasHMAC:      auth.HMACFactory(auth.WithKeyCipher(cipher)),
//			auth.AliasMagicLink: auth.MagicLinkFactory(auth.WithMagicLinkSender(mailer)),
//		},
//		Attempts: attemptLogger,
//		Logger:   log,
//	})
//	if err != nil {
//		// ErrUnknownHandler: the default alias is not registered
//	}
//	base.SetStore(store)
//
//	reg := base.Scope() // per request
//	a, _ := reg.Resolve("")
//	res := a.Attempt(ctx, auth.Credentials{
//		auth.CredentialEmail:    email,
//		auth.CredentialPassword: password,
//	})
//	if !res.OK() {
//		return res.Err() // ErrInvalidCredentials, ErrBadToken, ...
//	}
//
// Resolving before SetStore panics with ErrUnconfiguredProvider.
//
// # Results and errors
//
// Verification failures never escape as errors. They are carried by Result
// and can be matched with errors.Is(res.Err(), auth.ErrOldToken). Reasons
// stay generic so a caller cannot learn whether an identifier exists.
// Store outages are reported as ErrAuthUnavailable and logged.
//
// Attempt writes exactly one LoginAttempt to the configured AttemptLogger
// per call. Check never writes attempts and never changes login state.
//
// # Storage
//
// CredentialStore abstracts persistence. MemoryStore is bundled for tests
// and development; see pkg/pgstore and pkg/mongostore for databases.
package auth
