package authhttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/i18n"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/validator"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Fields  []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// translate falls back to the key when no translator is configured.
func (h *Handler) translate(r *http.Request, key string, args ...string) string {
	if h.tr == nil {
		return key
	}
	return h.tr.T(i18n.GetLocale(r.Context()), key, args...)
}

// fail writes an authentication failure. Outages answer 503, everything
// else 401, so clients cannot tell which check rejected them.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, res auth.Result) {
	status := http.StatusUnauthorized
	if errors.Is(res.Err(), auth.ErrAuthUnavailable) {
		status = http.StatusServiceUnavailable
	}
	key := res.ReasonKey()
	writeJSON(w, status, errorResponse{Error: key, Message: h.translate(r, key)})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		resp := errorResponse{Error: "validation.failed", Message: h.translate(r, "validation.failed")}
		for _, e := range ve {
			msg := e.Message
			if h.tr != nil {
				msg = h.tr.Tm(i18n.GetLocale(r.Context()), e.TranslationKey, e.TranslationValues)
			}
			resp.Fields = append(resp.Fields, fieldError{Field: e.Field, Error: e.TranslationKey, Message: msg})
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request.invalid", Message: h.translate(r, "request.invalid")})
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.ErrorContext(r.Context(), msg, logger.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "server.error", Message: h.translate(r, "server.error")})
}
