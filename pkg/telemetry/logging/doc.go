// Package logging provides structured logging for the policy model tools.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON, text and console formats
//   - Context-aware logging with run ids, model sources and node ids
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	ctx = logging.WithRunID(ctx, eval.RunID())
//	logger.InfoContext(ctx, "run started") // includes run_id
//
// Library packages take a *slog.Logger. Logger.Slog returns one whose
// handler adds the context fields to every record logged with a context:
//
//	eval, err := runtime.New(m, runtime.WithLogger(logger.Slog()))
package logging
