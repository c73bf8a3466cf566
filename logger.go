package gv

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gv/internal/cache"
	"github.com/gogpu/gv/text"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// backends holds the backends of open renderers so SetLogger can reach
// them.
var (
	backendsMu sync.Mutex
	backends   = map[any]struct{}{}
)

// SetLogger configures the logger for gv and its sub-packages, including
// the backends of open renderers that accept a logger. By default gv
// produces no log output. Pass nil to restore that.
//
// Log levels used by gv:
//   - [slog.LevelDebug]: batch counts, atlas growth, evictions
//   - [slog.LevelInfo]: backend selection
//   - [slog.LevelWarn]: resource release failures
//
// Example:
//
//	gv.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	cache.SetLogger(l)
	text.SetLogger(l)

	backendsMu.Lock()
	defer backendsMu.Unlock()
	for b := range backends {
		propagateLogger(b, l)
	}
}

// Logger returns the current logger. It is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

func slogger() *slog.Logger { return loggerPtr.Load() }

// loggerSetter is implemented by backends that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func propagateLogger(b any, l *slog.Logger) {
	if ls, ok := b.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

func trackBackend(b any) {
	backendsMu.Lock()
	backends[b] = struct{}{}
	backendsMu.Unlock()
	propagateLogger(b, Logger())
}

func untrackBackend(b any) {
	backendsMu.Lock()
	delete(backends, b)
	backendsMu.Unlock()
}
