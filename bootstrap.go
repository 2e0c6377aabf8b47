package akumuli

import (
	"context"
	"log/slog"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/expenses/akumuli-go/engine"
	"github.com/expenses/akumuli-go/engine/local"
	"github.com/expenses/akumuli-go/errs"
)

// LevelTrace is the slog level of engine trace messages.
const LevelTrace = slog.Level(-8)

// initialized holds one Once per engine the sinks were registered with.
var initialized = xsync.NewMapOf[engine.Engine, *sync.Once]()

// Initialize registers the panic and log sinks with the default engine,
// logging through slog.Default(). It is idempotent; Open, Create and
// OpenOrCreate call it implicitly for the engine they use.
func Initialize() {
	ensureInitialized(local.Default(), slog.Default().With("component", "akumuli"))
}

func ensureInitialized(eng engine.Engine, logger *slog.Logger) {
	once, _ := initialized.LoadOrCompute(eng, func() *sync.Once { return new(sync.Once) })
	once.Do(func() {
		eng.Initialize(panicSink(logger), logSink(logger))
	})
}

// logSink forwards engine diagnostics to logger.
func logSink(logger *slog.Logger) engine.LogFunc {
	return func(level engine.LogLevel, msg string) {
		logger.Log(context.Background(), slogLevel(level), msg)
	}
}

// panicSink never returns: an engine fault ends the calling goroutine with an
// *errs.InternalFault panic.
func panicSink(logger *slog.Logger) engine.PanicFunc {
	return func(msg string) {
		logger.Error("engine fault", "msg", msg)
		panic(&errs.InternalFault{Message: msg})
	}
}

func slogLevel(level engine.LogLevel) slog.Level {
	switch level {
	case engine.LogTrace:
		return LevelTrace
	case engine.LogInfo:
		return slog.LevelInfo
	case engine.LogError:
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// ReplaceLevel is a slog.HandlerOptions.ReplaceAttr function that prints
// LevelTrace as "TRACE".
func ReplaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}

	return a
}
