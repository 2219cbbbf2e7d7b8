// Package logger builds log/slog loggers for authkit services.
//
// New returns a JSON or text logger whose handler is decorated with
// context extractors, so request-scoped values set by middleware show up
// on every record logged with a *Context method:
//
//	log := logger.New(
//	    logger.WithEnvironment("production", "authd"),
//	    logger.WithContextExtractors(authhttp.RequestIDExtractor),
//	)
//	log.InfoContext(ctx, "login", logger.UserID(id), logger.Handler("hmac"))
//
// Attribute helpers return an empty slog.Attr for empty input, which slog
// drops from output.
package logger
