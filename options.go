package akumuli

import (
	"log/slog"
	"time"

	"github.com/expenses/akumuli-go/engine"
	"github.com/expenses/akumuli-go/engine/local"
	"github.com/expenses/akumuli-go/errs"
	"github.com/expenses/akumuli-go/internal/options"
)

type dbOptions struct {
	engine   engine.Engine
	logger   *slog.Logger
	fineTune engine.FineTuneParams
	clock    func() time.Time
}

// Option configures Open, Create and OpenOrCreate.
type Option = options.Option[*dbOptions]

func newDBOptions(op string, opts []Option) (*dbOptions, error) {
	o := &dbOptions{
		fineTune: engine.DefaultFineTuneParams(),
		clock:    time.Now,
	}
	if err := options.Apply(o, opts...); err != nil {
		return nil, errs.Config(op, "%w", err)
	}
	if o.engine == nil {
		o.engine = local.Default()
	}
	if o.logger == nil {
		o.logger = slog.Default().With("component", "akumuli")
	}

	return o, nil
}

// WithEngine selects the storage engine. The default is the process-wide
// pure-Go engine, local.Default().
func WithEngine(e engine.Engine) Option {
	return options.New(func(o *dbOptions) error {
		if e == nil {
			return errNilOption("engine")
		}
		o.engine = e

		return nil
	})
}

// WithLogger sets the logger for client and engine diagnostics.
func WithLogger(l *slog.Logger) Option {
	return options.New(func(o *dbOptions) error {
		if l == nil {
			return errNilOption("logger")
		}
		o.logger = l

		return nil
	})
}

// WithFineTune replaces the engine tuning parameters used when opening.
func WithFineTune(p engine.FineTuneParams) Option {
	return options.NoError(func(o *dbOptions) {
		o.fineTune = p
	})
}

// WithClock sets the source of sample timestamps for Session.Write.
func WithClock(now func() time.Time) Option {
	return options.New(func(o *dbOptions) error {
		if now == nil {
			return errNilOption("clock")
		}
		o.clock = now

		return nil
	})
}

type errNilOption string

func (e errNilOption) Error() string {
	return "nil " + string(e)
}
