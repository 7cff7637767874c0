// Package logging provides the leveled, component-tagged logger used
// throughout searchd. It wraps zerolog so every call site gets a cheap
// console line carrying its component as a tag=<component> field by
// default, with the option to switch to structured JSON output for
// production deployments. The component is not rendered as a bracketed
// [TAG] prefix.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	root zerolog.Logger
)

func init() {
	Init(Options{Level: InfoLevel, Console: true})
}

// Level is the logger's severity taxonomy, from most to least verbose.
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
	CriticalLevel
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case TraceLevel:
		return zerolog.TraceLevel
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case CriticalLevel:
		// zerolog has no distinct "critical" level; Fatal carries the same
		// severity ordering. zerolog's own os.Exit side effect on Fatal
		// is never triggered here, since that decision belongs to
		// cmd/server's startup path alone.
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Options configures the process-wide logger.
type Options struct {
	Level   Level
	Console bool      // human-readable console output (component as a tag field) vs JSON
	Output  io.Writer // defaults to os.Stderr
}

// Init (re)configures the root logger. Safe to call once at startup.
func Init(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    false,
		}
	}

	mu.Lock()
	defer mu.Unlock()
	root = zerolog.New(out).With().Timestamp().Logger().Level(opts.Level.zerolog())
}

// Logger is a component-scoped logger. Component names render as a
// "tag" field on every line it emits.
type Logger struct {
	zl        zerolog.Logger
	component string
}

// For returns a logger scoped to the given component (e.g. "pool", "index").
func For(component string) Logger {
	mu.RLock()
	defer mu.RUnlock()
	return Logger{zl: root.With().Str("tag", component).Logger(), component: component}
}

func (l Logger) Trace(msg string, args ...any)    { l.zl.Trace().Msgf(msg, args...) }
func (l Logger) Debug(msg string, args ...any)    { l.zl.Debug().Msgf(msg, args...) }
func (l Logger) Info(msg string, args ...any)     { l.zl.Info().Msgf(msg, args...) }
func (l Logger) Warn(msg string, args ...any)     { l.zl.Warn().Msgf(msg, args...) }
func (l Logger) Error(msg string, args ...any)    { l.zl.Error().Msgf(msg, args...) }
func (l Logger) Critical(msg string, args ...any) { l.zl.WithLevel(zerolog.FatalLevel).Msgf(msg, args...) }

// WithErr attaches err to the next logged message, following zerolog's
// chained-field style.
func (l Logger) WithErr(err error) Logger {
	return Logger{zl: l.zl.With().Err(err).Logger(), component: l.component}
}
