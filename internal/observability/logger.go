package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns the process logger: human readable text in dev, JSON
// everywhere else. Every record carries the service name.
func NewLogger(env, service string) *slog.Logger {
	return newLogger(os.Stdout, env).With("service", service)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler

	if env == "dev" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(NewTraceHandler(handler))
}
