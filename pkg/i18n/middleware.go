package i18n

import "net/http"

// Middleware stores the best matching language in the request context.
// The "lang" query parameter and cookie take precedence over Accept-Language.
func Middleware(t *Translator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookie string
			if c, err := r.Cookie("lang"); err == nil {
				cookie = c.Value
			}
			lang := t.Match(r.URL.Query().Get("lang"), cookie, r.Header.Get("Accept-Language"))
			next.ServeHTTP(w, r.WithContext(SetLocale(r.Context(), lang)))
		})
	}
}
