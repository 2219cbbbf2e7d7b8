// Package authhttp serves the auth package over HTTP with chi.
//
// Handler wires a base auth.Registry into routes and middleware. Every
// request gets its own scoped registry (Scope), so authenticator login
// state never leaks between requests. Client address and user agent are
// attached to the context for the attempt log.
//
//	h := authhttp.NewHandler(registry,
//		authhttp.WithTranslator(tr),
//		authhttp.WithSignup(store),
//		authhttp.WithLogger(log),
//	)
//	r.Mount("/auth", h.Routes())
//
// RequireBearer and RequireHMAC can protect other routes:
//
//	r.With(h.Scope, h.RequireHMAC()).Post("/webhooks", hook)
//
// Bearer tokens with three dot separated parts are treated as JWTs when
// the jwt scheme is registered; other values are opaque access tokens.
// HMAC requests send "Authorization: HMAC-SHA256 <public>:<signature>"
// where the signature covers the raw body.
//
// Failures answer with {"error": "<catalogue key>", "message": "..."} and
// status 401, or 503 when the credential store is unavailable.
package authhttp
