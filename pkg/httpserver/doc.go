// Package httpserver runs an http.Handler with graceful shutdown bound to
// a context, and serves JSON health probes.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	err := httpserver.Run(ctx, cfg, router, log)
package httpserver
