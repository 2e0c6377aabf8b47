package local

import (
	"fmt"

	"github.com/expenses/akumuli-go/compress"
	"github.com/expenses/akumuli-go/format"
	"github.com/expenses/akumuli-go/internal/options"
)

// Default engine settings.
const (
	DefaultCompression    = format.CompressionZstd
	DefaultFlushThreshold = 1024
	DefaultVolumeCapacity = 1024 // pages
)

type config struct {
	compression    format.CompressionType
	flushThreshold int
	volumeCapacity uint32
	syncInputLog   bool
}

func defaultConfig() *config {
	return &config{
		compression:    DefaultCompression,
		flushThreshold: DefaultFlushThreshold,
		volumeCapacity: DefaultVolumeCapacity,
	}
}

// Option configures an Engine.
type Option = options.Option[*config]

// WithCompression selects the codec for newly created instances. Existing
// instances keep the codec recorded in their metadata.
func WithCompression(c format.CompressionType) Option {
	return options.New(func(cfg *config) error {
		if _, err := compress.Lookup(c); err != nil {
			return err
		}
		cfg.compression = c

		return nil
	})
}

// WithFlushThreshold sets how many buffered samples trigger a page flush.
func WithFlushThreshold(n int) Option {
	return options.New(func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("flush threshold must be positive, got %d", n)
		}
		cfg.flushThreshold = n

		return nil
	})
}

// WithVolumeCapacity sets the number of pages per volume for newly created
// instances.
func WithVolumeCapacity(pages uint32) Option {
	return options.New(func(cfg *config) error {
		if pages == 0 {
			return fmt.Errorf("volume capacity must be positive")
		}
		cfg.volumeCapacity = pages

		return nil
	})
}

// WithInputLogSync makes every write fsync the input log before it returns,
// so buffered samples survive an OS crash as well as a process crash.
// Without it the log is only synced when the database is released.
func WithInputLogSync(enabled bool) Option {
	return options.NoError(func(cfg *config) {
		cfg.syncInputLog = enabled
	})
}
