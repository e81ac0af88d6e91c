// Package cli implements the nextstep command-line interface.
//
// This package provides commands for serving the graph editor API,
// rendering and predicting graph files, converting Petri nets and managing
// the prediction backend's matrices. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - serve: Run the HTTP API over a workspace of graphs
//   - render: Generate an SVG of a graph file
//   - predict: Ask the backend for the next steps of a graph file
//   - petri: Convert a Petri net into a graph file
//   - matrices: List, pick, upload and remove prediction matrices
//   - cache: Manage the prediction cache
//   - config: Show the effective configuration
//
// # Configuration
//
// Commands read a TOML file (--config, or the XDG default) layered under
// NEXTSTEP_* environment variables. See the config package.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at level, timestamped as
// "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the completion of an operation with its elapsed time.
// It is safe for sequential use by a single goroutine.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg and the elapsed time, rounded to the millisecond, along
// with any key/value pairs.
// Example output: "Predicted 3 next steps took=1.234s matrix=Simple IOR Choice"
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append([]any{"took", p.elapsed()}, keyvals...)
	p.logger.Info(msg, keyvals...)
}

// failed logs err at warn level with the elapsed time.
func (p *progress) failed(msg string, err error) {
	p.logger.Warn(msg, "took", p.elapsed(), "err", err)
}

func (p *progress) elapsed() time.Duration {
	return time.Since(p.start).Round(time.Millisecond)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() if
// none is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// commandLogger returns the context logger prefixed with the command name.
func commandLogger(ctx context.Context, name string) *log.Logger {
	return loggerFromContext(ctx).WithPrefix(name)
}
