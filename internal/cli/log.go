// Package cli implements the babelone command-line interface.
//
// This package provides commands for translating Python build specification
// files between formats, scaffolding new ones and inspecting what a file
// parses into. The CLI is built using cobra and logs via charmbracelet/log.
//
// # Commands
//
//   - translate: convert a specification file into one or more other formats
//   - create: scaffold an empty specification file
//   - inspect: print the canonical model a file parses into
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context. Translation warnings are logged at warn
// level; --strict turns them into a failure.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/babelone/pkg/project"
)

// newLogger returns a leveled logger writing "HH:MM:SS.ms" timestamps to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the completion of a command with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Translated setup.py (2ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// logWarnings logs each warning for file at warn level.
func logWarnings(l *log.Logger, file string, warnings []project.Warning) {
	for _, w := range warnings {
		kv := []any{"file", file, "kind", w.Kind}
		if w.Field != "" {
			kv = append(kv, "field", w.Field)
		}
		if w.Line > 0 {
			kv = append(kv, "line", w.Line)
		}
		l.Warn(w.Message, kv...)
	}
}
