// Package logging provides structured logging configuration for restmock.
//
// This package wraps log/slog so every component logs the same way. Engine
// components accept a *slog.Logger through an option and default to Nop, so
// a test that does not care about logs gets none.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatText,
//	})
//	logger.Debug("request handled", "url", url)
//
// Inside tests, ForTest routes records to t.Log:
//
//	chain := interceptor.NewChain(interceptor.WithLogger(logging.ForTest(t)))
//
// # Log Levels
//
// Four log levels are supported (Debug, Info, Warn, Error). Dispatch and
// fixture decisions are logged at Debug.
//
// # Output Formats
//
//   - Text: Human-readable format for development
//   - JSON: Structured format for log aggregation systems
package logging
