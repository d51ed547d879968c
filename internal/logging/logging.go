// Package logging sets up the process logger. Records go through a log/slog
// text handler on stderr, since stdout carries the guest console, and are
// exposed to the rest of efivm as a logr.Logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/go-logr/logr"
)

// Options configures the logger.
type Options struct {
	// Debug lowers the level to debug and enables logr V(1) messages.
	Debug bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// Setup installs the default slog logger and returns it as a logr.Logger.
func Setup(opts Options) logr.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	return logr.FromSlogHandler(handler)
}
