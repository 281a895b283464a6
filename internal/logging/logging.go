// Package logging configures process-wide slog output and adapts it to
// store.Logger, the explicit debug-trace sink threaded through Indexer
// and Searcher. LOG_LEVEL picks the slog level, a text handler writes
// to stderr. slog.SetDefault only seeds the process-wide default for
// anything that reaches for slog.Default() outside the engine's own
// call graph; the resulting logger is still handed to callers
// explicitly as a field.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/falcon-search/falcon/store"
)

// Init configures the default slog handler from LOG_LEVEL, with forceDebug
// (the CLI's --debug flag) overriding it to slog.LevelDebug regardless of
// what LOG_LEVEL says.
func Init(forceDebug bool) {
	level := slog.LevelInfo
	if raw, ok := os.LookupEnv("LOG_LEVEL"); ok {
		switch strings.ToLower(raw) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	if forceDebug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// SlogLogger adapts a *slog.Logger to store.Logger, so debug tracing
// from Indexer/Searcher flows through the same structured sink as the
// rest of the process instead of raw stdout writes.
type SlogLogger struct {
	Logger *slog.Logger
}

// NewSlogLogger builds a SlogLogger over the default slog logger.
func NewSlogLogger() SlogLogger {
	return SlogLogger{Logger: slog.Default()}
}

func (l SlogLogger) Print(v ...any) {
	l.Logger.Debug(fmt.Sprint(v...))
}

func (l SlogLogger) Printf(format string, v ...any) {
	l.Logger.Debug(fmt.Sprintf(format, v...))
}

func (l SlogLogger) Println(v ...any) {
	l.Logger.Debug(fmt.Sprintln(v...))
}

var _ store.Logger = SlogLogger{}
