package local

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/expenses/akumuli-go/engine"
	"github.com/expenses/akumuli-go/format"
	"github.com/expenses/akumuli-go/sample"
)

var errClosed = errors.New("database is closed")

// database is one open instance: metadata, volume ring, series dictionary,
// write buffer and input log.
type database struct {
	e      *Engine
	path   string
	cfg    instanceConfig
	meta   *metaStore
	logger engine.LogFunc

	matcher  *seriesMatcher
	sessions atomic.Int64
	closed   atomic.Bool

	mu             sync.Mutex
	vols           []*volume
	active         int
	buf            []sample.Sample
	flushThreshold int
	ilog           *inputLog
}

func openDatabase(e *Engine, path string, params engine.FineTuneParams) (_ *database, err error) {
	meta, err := openMeta(path)
	if err != nil {
		return nil, err
	}
	db := &database{
		e:              e,
		path:           path,
		meta:           meta,
		logger:         params.Logger,
		flushThreshold: e.cfg.flushThreshold,
	}
	defer func() {
		if err != nil {
			_ = db.release()
		}
	}()

	if db.cfg, err = meta.config(); err != nil {
		return nil, err
	}
	infos, err := meta.volumes()
	if err != nil {
		return nil, err
	}
	if len(infos) != db.cfg.NumVolumes || len(infos) == 0 {
		return nil, fmt.Errorf("%w: %d volumes registered, %d configured", errNotInstance, len(infos), db.cfg.NumVolumes)
	}
	for _, info := range infos {
		v, err := openVolume(info, int(db.cfg.PageSize)) //nolint:gosec
		if err != nil {
			return nil, err
		}
		db.vols = append(db.vols, v)
	}
	if db.cfg.ActiveVolume >= 0 && db.cfg.ActiveVolume < len(db.vols) {
		db.active = db.cfg.ActiveVolume
	}

	known, err := meta.series()
	if err != nil {
		return nil, err
	}
	db.matcher = newSeriesMatcher(known, meta.insertSeries)

	if params.InputLogPath != "" {
		if err := db.openInputLog(params); err != nil {
			return nil, err
		}
	}

	db.logf(engine.LogInfo, "opened %s: %d volumes, %d series, %d samples replayed",
		path, len(db.vols), db.matcher.size(), len(db.buf))

	return db, nil
}

func (db *database) openInputLog(params engine.FineTuneParams) error {
	base := inputLogBase(filepath.Dir(db.path), db.cfg.BaseName, params.InputLogPath)
	perVolume := params.InputLogVolumeSize
	if perVolume == 0 {
		perVolume = engine.DefaultInputLogVolumeSize
	}
	numVolumes := params.InputLogVolumeNumb
	if numVolumes == 0 {
		numVolumes = engine.DefaultInputLogVolumeNumb
	}

	ilog, err := openInputLog(base, perVolume, numVolumes)
	if err != nil {
		return err
	}
	db.ilog = ilog

	replayed, err := ilog.replay()
	if err != nil {
		return err
	}
	for _, s := range replayed {
		if db.matcher.known(s.ParamID) {
			db.buf = append(db.buf, s)
		}
	}
	if len(db.buf) >= db.flushThreshold {
		db.mu.Lock()
		defer db.mu.Unlock()
		return db.flushLocked()
	}

	return nil
}

// inputLogBase prefixes the log file name with the instance base name so
// instances sharing a directory never share a log. A relative logPath is
// resolved against metaDir.
func inputLogBase(metaDir, baseName, logPath string) string {
	dir, file := filepath.Split(logPath)
	if !filepath.IsAbs(logPath) {
		dir = filepath.Join(metaDir, dir)
	}

	return filepath.Join(dir, baseName+"_"+file)
}

func (db *database) logf(level engine.LogLevel, format string, args ...any) {
	if db.logger != nil {
		db.logger(level, fmt.Sprintf(format, args...))
		return
	}
	db.e.logf(level, format, args...)
}

// write accepts a validated sample.
func (db *database) write(s sample.Sample) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed.Load() {
		return errClosed
	}

	if db.ilog != nil {
		if db.ilog.full() {
			if err := db.flushLocked(); err != nil {
				return err
			}
		}
		if err := db.ilog.append(s); err != nil {
			return err
		}
		if db.e.cfg.syncInputLog {
			if err := db.ilog.sync(); err != nil {
				return err
			}
		}
	}

	db.buf = append(db.buf, s)
	if len(db.buf) >= db.flushThreshold {
		return db.flushLocked()
	}

	return nil
}

// flushLocked writes the buffer to pages of the active volume, rotating
// through the ring as volumes fill up, then checkpoints the input log.
func (db *database) flushLocked() error {
	if len(db.buf) == 0 {
		return nil
	}

	sortSamples(db.buf)
	pages, err := encodePages(db.buf, format.CompressionType(db.cfg.Compression), int(db.cfg.PageSize)) //nolint:gosec
	if err != nil {
		return fmt.Errorf("failed to encode pages: %w", err)
	}

	touched := make(map[int]struct{})
	for _, page := range pages {
		if db.vols[db.active].full() {
			if err := db.rotateLocked(); err != nil {
				return err
			}
		}
		v := db.vols[db.active]
		if _, err := v.append(page); err != nil {
			return err
		}
		touched[db.active] = struct{}{}
	}

	for i := range touched {
		if err := db.vols[i].sync(); err != nil {
			return err
		}
		if err := db.meta.updateVolume(db.vols[i].info); err != nil {
			return err
		}
	}
	if db.ilog != nil {
		if err := db.ilog.reset(); err != nil {
			return err
		}
	}

	db.e.metrics.pagesFlushed.Add(len(pages))
	db.logf(engine.LogTrace, "flushed %d samples into %d pages", len(db.buf), len(pages))
	db.buf = db.buf[:0]

	return nil
}

// rotateLocked moves to the next volume of the ring, recycling it.
func (db *database) rotateLocked() error {
	gen := db.vols[db.active].info.Generation + 1
	next := (db.active + 1) % len(db.vols)

	v := db.vols[next]
	if v.info.NBlocks > 0 {
		db.logf(engine.LogInfo, "recycling volume %s (generation %d)", v.info.Path, v.info.Generation)
	}
	v.recycle(gen)
	if err := db.meta.updateVolume(v.info); err != nil {
		return err
	}
	if err := db.meta.setActiveVolume(next); err != nil {
		return err
	}
	db.active = next

	return nil
}

// points returns every stored sample of the ring, oldest generation first,
// followed by the buffered ones.
func (db *database) points() ([]sample.Sample, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []sample.Sample
	for i := 1; i <= len(db.vols); i++ {
		v := db.vols[(db.active+i)%len(db.vols)]
		for idx := range v.info.NBlocks {
			page, err := v.read(idx)
			if err != nil {
				return nil, err
			}
			samples, err := decodePage(page)
			if err != nil {
				return nil, fmt.Errorf("%s page %d: %w", v.info.Path, idx, err)
			}
			out = append(out, samples...)
		}
	}

	return append(out, db.buf...), nil
}

// close flushes pending samples and releases every file.
func (db *database) close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed.Swap(true) {
		return errClosed
	}

	flushErr := db.flushLocked()
	if flushErr != nil {
		db.logf(engine.LogError, "final flush of %s failed: %v", db.path, flushErr)
	}

	return errors.Join(flushErr, db.release())
}

func (db *database) release() error {
	var errs []error
	for _, v := range db.vols {
		errs = append(errs, v.close())
	}
	db.vols = nil
	if db.ilog != nil {
		errs = append(errs, db.ilog.sync(), db.ilog.close())
		db.ilog = nil
	}
	errs = append(errs, db.meta.close())

	return errors.Join(errs...)
}
