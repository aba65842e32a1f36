// Package app wires the settlement HTTP service together: configuration,
// the global slog logger, OpenTelemetry providers, the workbook service and
// the chi router with its middleware chain.
//
// # Middleware
//
// Requests pass through, in order: RequestID, OTel (server span and HTTP
// metrics), StructuredLogger, Recoverer, SecurityHeaders and the optional
// per-client RateLimiter. /metrics sits outside that chain.
//
// # Lifecycle
//
//	app, err := app.NewApplication("")
//	if err != nil {
//	    return err
//	}
//	return app.Run() // blocks until SIGINT/SIGTERM, then shuts down
package app
