package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/expenses/akumuli-go/engine"
	"github.com/expenses/akumuli-go/errs"
	"github.com/expenses/akumuli-go/internal/options"
)

// maxPageSize bounds the page size accepted by CreateDatabase.
const maxPageSize = 1 << 24

// Engine is a pure-Go storage engine. It is safe for concurrent use.
type Engine struct {
	cfg *config

	databases  *xsync.MapOf[engine.DatabaseHandle, *database]
	sessions   *xsync.MapOf[engine.SessionHandle, *session]
	nextHandle atomic.Uintptr

	panicFn atomic.Pointer[engine.PanicFunc]
	logFn   atomic.Pointer[engine.LogFunc]

	metrics *engineMetrics
}

var _ engine.Engine = (*Engine)(nil)

// New creates an engine.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	if err := applyOptions(cfg, opts); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		databases: xsync.NewMapOf[engine.DatabaseHandle, *database](),
		sessions:  xsync.NewMapOf[engine.SessionHandle, *session](),
	}
	e.metrics = newEngineMetrics(func() float64 { return float64(e.databases.Size()) })

	return e, nil
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the process-wide engine with default options.
func Default() *Engine {
	defaultOnce.Do(func() {
		e, err := New()
		if err != nil {
			panic(err)
		}
		defaultEngine = e
	})

	return defaultEngine
}

func applyOptions(cfg *config, opts []Option) error {
	if err := options.Apply(cfg, opts...); err != nil {
		return fmt.Errorf("local engine: %w", err)
	}

	return nil
}

func (e *Engine) handle() uintptr {
	return e.nextHandle.Add(1)
}

func (e *Engine) logf(level engine.LogLevel, format string, args ...any) {
	if fn := e.logFn.Load(); fn != nil && *fn != nil {
		(*fn)(level, fmt.Sprintf(format, args...))
	}
}

// fault reports a broken invariant through the panic sink. It never returns.
func (e *Engine) fault(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if fn := e.panicFn.Load(); fn != nil && *fn != nil {
		(*fn)(msg)
	}
	panic(&errs.InternalFault{Message: msg})
}

// Initialize registers the panic and log sinks. Later calls replace them.
func (e *Engine) Initialize(panicFn engine.PanicFunc, logFn engine.LogFunc) {
	e.panicFn.Store(&panicFn)
	e.logFn.Store(&logFn)
}

// OpenDatabase opens the instance whose metadata file is at path.
func (e *Engine) OpenDatabase(path string, params engine.FineTuneParams) engine.DatabaseHandle {
	db, err := openDatabase(e, path, params)
	if err != nil {
		e.logf(engine.LogError, "failed to open %s: %v", path, err)
		return 0
	}

	h := engine.DatabaseHandle(e.handle())
	e.databases.Store(h, db)

	return h
}

// CreateDatabase creates the metadata file "<metaPath>/<baseName>.akumuli"
// and numVolumes volumes "<volumesPath>/<baseName>_<i>.vol".
func (e *Engine) CreateDatabase(baseName, metaPath, volumesPath string, numVolumes int32, pageSize uint64, allocate bool) errs.Status {
	switch {
	case baseName == "" || strings.ContainsAny(baseName, `/\`):
		e.logf(engine.LogError, "invalid base name %q", baseName)
		return errs.StatusBadArg
	case numVolumes < 1:
		e.logf(engine.LogError, "invalid number of volumes %d", numVolumes)
		return errs.StatusBadArg
	case pageSize < minPageSize || pageSize > maxPageSize:
		e.logf(engine.LogError, "invalid page size %d", pageSize)
		return errs.StatusBadArg
	}

	for _, dir := range []string{metaPath, volumesPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			e.logf(engine.LogError, "failed to create %s: %v", dir, err)
			return statusOf(err)
		}
	}

	metaFile := filepath.Join(metaPath, baseName+engine.MetaExtension)
	if _, err := os.Stat(metaFile); err == nil {
		e.logf(engine.LogError, "database %s already exists", metaFile)
		return errs.StatusBadArg
	}

	vols := make([]volumeInfo, 0, numVolumes)
	cleanup := func() {
		for _, v := range vols {
			_ = os.Remove(v.Path)
		}
	}
	for i := range int(numVolumes) {
		info := volumeInfo{
			ID:         i,
			Path:       filepath.Join(volumesPath, engine.VolumeName(baseName, i)),
			Capacity:   e.cfg.volumeCapacity,
			Generation: uint64(i), //nolint:gosec
		}
		if err := createVolume(info.Path, info.Capacity, int(pageSize), allocate); err != nil { //nolint:gosec
			e.logf(engine.LogError, "failed to create volume %s: %v", info.Path, err)
			cleanup()
			return statusOf(err)
		}
		vols = append(vols, info)
	}

	cfg := instanceConfig{
		BaseName:       baseName,
		PageSize:       pageSize,
		NumVolumes:     int(numVolumes),
		VolumeCapacity: e.cfg.volumeCapacity,
		Compression:    uint8(e.cfg.compression),
		Created:        time.Now(),
	}
	if err := createMeta(metaFile, cfg, vols); err != nil {
		e.logf(engine.LogError, "failed to create %s: %v", metaFile, err)
		_ = os.Remove(metaFile)
		cleanup()
		return statusOf(err)
	}

	e.logf(engine.LogInfo, "created database %s with %d volumes of %d pages", metaFile, numVolumes, e.cfg.volumeCapacity)

	return errs.StatusSuccess
}

func statusOf(err error) errs.Status {
	switch {
	case errors.Is(err, os.ErrExist):
		return errs.StatusBadArg
	case os.IsPermission(err):
		return errs.StatusAccess
	default:
		return errs.StatusGeneral
	}
}

// CloseDatabase flushes and releases db.
func (e *Engine) CloseDatabase(h engine.DatabaseHandle) {
	db, ok := e.databases.LoadAndDelete(h)
	if !ok {
		e.logf(engine.LogError, "close of unknown database handle %d", h)
		return
	}
	if n := db.sessions.Load(); n > 0 {
		e.logf(engine.LogError, "closing %s with %d open sessions", db.path, n)
	}
	if err := db.close(); err != nil {
		e.logf(engine.LogError, "failed to close %s: %v", db.path, err)
	}
}

// CreateSession opens a write session on db.
func (e *Engine) CreateSession(h engine.DatabaseHandle) engine.SessionHandle {
	db, ok := e.databases.Load(h)
	if !ok || db.closed.Load() {
		e.logf(engine.LogError, "session requested for unknown database handle %d", h)
		return 0
	}

	sh := engine.SessionHandle(e.handle())
	e.sessions.Store(sh, newSession(sh, db))
	db.sessions.Add(1)

	return sh
}

// DestroySession releases s. Destroying an unknown session is a fault.
func (e *Engine) DestroySession(h engine.SessionHandle) {
	s, ok := e.sessions.LoadAndDelete(h)
	if !ok {
		e.fault("destroy of unknown session handle %d", h)
	}
	s.db.sessions.Add(-1)
}

// SeriesToParamID resolves series and stores its id into rec.
func (e *Engine) SeriesToParamID(h engine.SessionHandle, series, rec []byte) errs.Status {
	s, ok := e.sessions.Load(h)
	if !ok {
		return errs.StatusBadArg
	}

	return s.resolve(series, rec)
}

// Write submits the sample in rec.
func (e *Engine) Write(h engine.SessionHandle, rec []byte) errs.Status {
	s, ok := e.sessions.Load(h)
	if !ok {
		return errs.StatusBadArg
	}

	return s.write(rec)
}

// points returns every sample stored by db, for tests and tooling.
func (e *Engine) points(h engine.DatabaseHandle) ([]sampleView, error) {
	db, ok := e.databases.Load(h)
	if !ok {
		return nil, errClosed
	}
	samples, err := db.points()
	if err != nil {
		return nil, err
	}

	out := make([]sampleView, 0, len(samples))
	for _, smp := range samples {
		name, _ := db.matcher.name(smp.ParamID)
		out = append(out, sampleView{Series: name, Timestamp: smp.Timestamp, Value: smp.Payload.Float64})
	}

	return out, nil
}

// sampleView is a stored sample with its series name.
type sampleView struct {
	Series    string
	Timestamp uint64
	Value     float64
}
