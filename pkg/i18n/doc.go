// Package i18n translates the message keys produced by auth results and
// validation errors.
//
// Catalogues are YAML documents keyed by language whose nested maps
// flatten into dotted keys:
//
//	en:
//	  auth:
//	    bad_token: "The authentication token is invalid."
//
// New loads the bundled English and German catalogues. NewFromFS loads
// application files instead.
//
//	tr, err := i18n.New()
//	msg := tr.T("de", auth.ReasonKey(res.Err()))
//	msg = tr.T("en", "auth.link_sent", "email", addr)
//
// Middleware negotiates the language with golang.org/x/text/language and
// stores it for Tc and GetLocale.
package i18n
