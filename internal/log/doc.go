// Package log provides logging with automatic redaction of credentials,
// built on top of the standard slog package.
//
// A crawler logs URLs constantly, and URLs leak secrets: signed links,
// session tokens, and API keys routinely travel in query strings. The
// RedactHandler masks the values of credential-bearing query parameters
// in every logged URL, and masks whole attributes whose key names a
// secret, before the record reaches the underlying handler.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("crawled",
//	    "url", "http://example.com/reset?token=abc123", // token masked
//	)
//
//	slog.SetDefault(logger)
package log
