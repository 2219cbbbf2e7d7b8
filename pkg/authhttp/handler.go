package authhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/i18n"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/sanitizer"
	"github.com/dmitrymomot/authkit/pkg/validator"
)

// UserCreator persists new subjects. pgstore.Store, mongostore.Store and
// auth.MemoryStore implement it.
type UserCreator interface {
	CreateUser(ctx context.Context, u *auth.User) error
}

// Handler exposes the registry's schemes over HTTP.
type Handler struct {
	registry   *auth.Registry
	users      UserCreator
	tr         *i18n.Translator
	log        *slog.Logger
	tokenAlias string
}

// Option configures a Handler.
type Option func(*Handler)

// WithTranslator localises error and status messages.
func WithTranslator(tr *i18n.Translator) Option {
	return func(h *Handler) {
		h.tr = tr
	}
}

// WithLogger sets the handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithSessionTokenAlias selects the scheme that issues tokens after a
// password or magic link login. Defaults to auth.AliasJWT.
func WithSessionTokenAlias(alias string) Option {
	return func(h *Handler) {
		h.tokenAlias = alias
	}
}

// WithSignup enables POST /register.
func WithSignup(users UserCreator) Option {
	return func(h *Handler) {
		h.users = users
	}
}

// NewHandler creates a Handler around a registry with a bound store.
func NewHandler(registry *auth.Registry, opts ...Option) *Handler {
	h := &Handler{
		registry:   registry,
		log:        logger.Noop(),
		tokenAlias: auth.AliasJWT,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With(logger.Component("authhttp"))
	return h
}

// Routes returns the authentication API.
//
//	POST   /login                  email and password, returns a session token
//	POST   /register               only with WithSignup
//	POST   /magic-link             request a sign-in link
//	GET    /magic-link/verify      redeem ?token=
//	GET    /me                     bearer
//	POST   /tokens                 bearer, issue an access token
//	POST   /hmac-keys              bearer, generate a signing key
//	DELETE /hmac-keys/{publicKey}  bearer
//	GET    /hmac/me                HMAC signed
//
// Scheme specific routes are mounted only when the scheme is registered.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, h.Scope)
	if h.tr != nil {
		r.Use(i18n.Middleware(h.tr))
	}

	r.Post("/login", h.login)
	if h.hasAlias(auth.AliasMagicLink) {
		r.Post("/magic-link", h.requestLink)
		r.Get("/magic-link/verify", h.verifyLink)
	}
	if h.users != nil {
		r.Post("/register", h.register)
	}

	r.Group(func(r chi.Router) {
		r.Use(h.RequireBearer())
		r.Get("/me", h.me)
		if h.hasAlias(auth.AliasAccessToken) {
			r.Post("/tokens", h.issueAccessToken)
		}
		if h.hasAlias(auth.AliasHMAC) {
			r.Post("/hmac-keys", h.generateHMACKey)
			r.Delete("/hmac-keys/{publicKey}", h.revokeHMACKey)
		}
	})

	if h.hasAlias(auth.AliasHMAC) {
		r.With(h.RequireHMAC()).Get("/hmac/me", h.me)
	}
	return r
}

type meResponse struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	Scheme     string `json:"scheme,omitempty"`
	Credential string `json:"credential,omitempty"`
	ForceReset bool   `json:"force_reset,omitempty"`
}

type sessionResponse struct {
	UserID     string `json:"user_id"`
	Token      string `json:"token"`
	TokenType  string `json:"token_type"`
	ForceReset bool   `json:"force_reset,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	a, err := h.resolve(r, auth.AliasPassword)
	if err != nil {
		h.internalError(w, r, "failed to resolve authenticator", err)
		return
	}
	res := a.Attempt(r.Context(), auth.Credentials{
		auth.CredentialEmail:    req.Email,
		auth.CredentialPassword: req.Password,
	})
	if !res.OK() {
		h.fail(w, r, res)
		return
	}
	h.issueSession(w, r, res)
}

func (h *Handler) requestLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	a, err := h.resolve(r, auth.AliasMagicLink)
	if err != nil {
		h.internalError(w, r, "failed to resolve authenticator", err)
		return
	}
	issuer, ok := a.(auth.LinkIssuer)
	if !ok {
		h.internalError(w, r, "magic link scheme cannot issue links", auth.ErrUnknownHandler)
		return
	}

	if err := issuer.RequestLink(r.Context(), req.Email); err != nil {
		if errors.Is(err, auth.ErrInvalidEmail) {
			h.badRequest(w, r, err)
			return
		}
		h.internalError(w, r, "failed to request magic link", err)
		return
	}

	email := sanitizer.NormalizeEmail(req.Email)
	writeJSON(w, http.StatusAccepted, messageResponse{
		Message: h.translate(r, "auth.link_sent", "email", email),
	})
}

func (h *Handler) verifyLink(w http.ResponseWriter, r *http.Request) {
	a, err := h.resolve(r, auth.AliasMagicLink)
	if err != nil {
		h.internalError(w, r, "failed to resolve authenticator", err)
		return
	}
	res := a.Attempt(r.Context(), auth.Credentials{auth.CredentialToken: r.URL.Query().Get("token")})
	if !res.OK() {
		h.fail(w, r, res)
		return
	}
	h.issueSession(w, r, res)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	email := sanitizer.NormalizeEmail(req.Email)

	// Validated up front: a rejected password must not leave a user behind.
	if err := validator.Apply(
		validator.Required("email", email),
		validator.ValidEmail("email", email),
		validator.MaxLen("name", req.Name, 100),
		validator.StrongPassword("password", req.Password, validator.DefaultPasswordStrength()),
		validator.NotCommonPassword("password", req.Password),
	); err != nil {
		h.badRequest(w, r, err)
		return
	}

	a, err := h.resolve(r, auth.AliasPassword)
	if err != nil {
		h.internalError(w, r, "failed to resolve authenticator", err)
		return
	}
	registrar, ok := a.(auth.Registrar)
	if !ok {
		h.internalError(w, r, "password scheme cannot register", auth.ErrUnknownHandler)
		return
	}

	user := &auth.User{Email: email, Name: req.Name, Active: true}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrSubjectExists) {
			h.conflict(w, r)
			return
		}
		h.internalError(w, r, "failed to create user", err)
		return
	}
	if _, err := registrar.Register(r.Context(), user.AuthID(), email, req.Password); err != nil {
		switch {
		case errors.Is(err, auth.ErrIdentityTypeExists):
			h.conflict(w, r)
		case validator.IsValidationError(err):
			h.badRequest(w, r, err)
		default:
			h.internalError(w, r, "failed to register password", err)
		}
		return
	}

	h.log.InfoContext(r.Context(), "user registered", logger.UserID(user.AuthID()))
	writeJSON(w, http.StatusCreated, meResponse{UserID: user.AuthID(), Email: user.Email, Name: user.Name})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	subject, _ := auth.GetUserFromContext(r.Context())
	resp := meResponse{UserID: subject.AuthID()}
	if u, ok := subject.(*auth.User); ok {
		resp.Email = u.Email
		resp.Name = u.Name
	}
	if identity, ok := IdentityFromContext(r.Context()); ok {
		resp.Scheme = string(identity.Type)
		resp.Credential = identity.Name
		resp.ForceReset = identity.ForceReset
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) issueAccessToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := validator.Apply(validator.MaxLen("name", req.Name, 100)); err != nil {
		h.badRequest(w, r, err)
		return
	}

	subject, _ := auth.GetUserFromContext(r.Context())
	raw, err := h.issueToken(r, auth.AliasAccessToken, subject.AuthID(), req.Name)
	if err != nil {
		h.internalError(w, r, "failed to issue access token", err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{UserID: subject.AuthID(), Token: raw, TokenType: SchemeBearer})
}

func (h *Handler) generateHMACKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := validator.Apply(validator.MaxLen("name", req.Name, 100)); err != nil {
		h.badRequest(w, r, err)
		return
	}

	issuer, err := h.hmacIssuer(r)
	if err != nil {
		h.internalError(w, r, "failed to resolve hmac scheme", err)
		return
	}
	subject, _ := auth.GetUserFromContext(r.Context())
	key, err := issuer.GenerateHMACKey(r.Context(), subject.AuthID(), req.Name)
	if err != nil {
		h.internalError(w, r, "failed to generate hmac key", err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		PublicKey string `json:"public_key"`
		Secret    string `json:"secret"`
		Name      string `json:"name,omitempty"`
	}{PublicKey: key.Secret, Secret: key.Secret2, Name: key.Name})
}

func (h *Handler) revokeHMACKey(w http.ResponseWriter, r *http.Request) {
	issuer, err := h.hmacIssuer(r)
	if err != nil {
		h.internalError(w, r, "failed to resolve hmac scheme", err)
		return
	}
	subject, _ := auth.GetUserFromContext(r.Context())

	err = issuer.RevokeHMACKey(r.Context(), subject.AuthID(), chi.URLParam(r, "publicKey"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, auth.ErrIdentityNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "auth.bad_token", Message: h.translate(r, "auth.bad_token")})
	default:
		h.internalError(w, r, "failed to revoke hmac key", err)
	}
}

// issueSession answers a successful login with a bearer token.
func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, res auth.Result) {
	userID := res.Subject().AuthID()
	raw, err := h.issueToken(r, h.tokenAlias, userID, "session")
	if err != nil {
		h.internalError(w, r, "failed to issue session token", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:     userID,
		Token:      raw,
		TokenType:  SchemeBearer,
		ForceReset: res.Identity() != nil && res.Identity().ForceReset,
	})
}

func (h *Handler) issueToken(r *http.Request, alias, ownerID, name string) (string, error) {
	a, err := h.resolve(r, alias)
	if err != nil {
		return "", err
	}
	issuer, ok := a.(auth.TokenIssuer)
	if !ok {
		return "", auth.ErrUnknownHandler
	}
	return issuer.IssueToken(r.Context(), ownerID, name)
}

func (h *Handler) hmacIssuer(r *http.Request) (auth.HMACKeyIssuer, error) {
	a, err := h.resolve(r, auth.AliasHMAC)
	if err != nil {
		return nil, err
	}
	issuer, ok := a.(auth.HMACKeyIssuer)
	if !ok {
		return nil, auth.ErrUnknownHandler
	}
	return issuer, nil
}

// resolve uses the request scoped registry set by Scope.
func (h *Handler) resolve(r *http.Request, alias string) (auth.Authenticator, error) {
	reg, ok := auth.RegistryFromContext(r.Context())
	if !ok {
		reg = h.registry.Scope()
	}
	return reg.Resolve(alias)
}

func (h *Handler) hasAlias(alias string) bool {
	return slices.Contains(h.registry.Aliases(), alias)
}

func (h *Handler) conflict(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusConflict, errorResponse{Error: "auth.account_exists", Message: h.translate(r, "auth.account_exists")})
}
