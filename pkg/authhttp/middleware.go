package authhttp

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

// Authorization schemes.
const (
	SchemeHMAC   = "HMAC-SHA256"
	SchemeBearer = "Bearer"
)

// Scope derives a request scoped registry from the base registry and
// records the caller's address and user agent for the attempt log.
func (h *Handler) Scope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithRegistry(r.Context(), h.registry.Scope())
		ctx = auth.WithClientInfo(ctx, ClientIP(r), r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireHMAC authenticates requests signed with an HMAC key:
//
//	Authorization: HMAC-SHA256 <public>:<hex signature of the body>
//
// The body is restored for downstream handlers.
func (h *Handler) RequireHMAC() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := credential(r, SchemeHMAC)

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				h.badRequest(w, r, err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			h.authenticate(w, r, next, auth.AliasHMAC, auth.Credentials{
				auth.CredentialToken: raw,
				auth.CredentialBody:  string(body),
			})
		})
	}
}

// RequireBearer authenticates "Authorization: Bearer <token>" requests.
// Tokens shaped like a JWT go to the JWT scheme when it is registered,
// everything else to opaque access tokens.
func (h *Handler) RequireBearer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := credential(r, SchemeBearer)
			alias := auth.AliasAccessToken
			if strings.Count(raw, ".") == 2 && h.hasAlias(auth.AliasJWT) {
				alias = auth.AliasJWT
			}
			h.authenticate(w, r, next, alias, auth.Credentials{auth.CredentialToken: raw})
		})
	}
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request, next http.Handler, alias string, creds auth.Credentials) {
	ctx := r.Context()
	a, err := h.resolve(r, alias)
	if err != nil {
		h.internalError(w, r, "failed to resolve authenticator", err)
		return
	}

	res := a.Attempt(ctx, creds)
	if !res.OK() {
		h.fail(w, r, res)
		return
	}
	if err := a.RecordActive(ctx); err != nil {
		h.log.WarnContext(ctx, "failed to record activity",
			logger.UserID(res.Subject().AuthID()),
			logger.Error(err),
		)
	}

	ctx = auth.SetUserToContext(ctx, res.Subject())
	if holder, ok := a.(auth.IdentityHolder); ok {
		ctx = withIdentity(ctx, holder.CurrentIdentity())
	}
	next.ServeHTTP(w, r.WithContext(ctx))
}

// credential returns the value after scheme in the Authorization header.
func credential(r *http.Request, scheme string) string {
	header := r.Header.Get("Authorization")
	prefix, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(prefix, scheme) {
		return ""
	}
	return strings.TrimSpace(value)
}
