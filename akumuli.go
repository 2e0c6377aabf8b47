// Package akumuli is a client for the Akumuli embedded time-series storage
// engine.
//
// A DB owns one open engine instance. Sessions created from it resolve series
// names ("metric key=value ...") to numeric param ids and write float samples:
//
//	db, err := akumuli.OpenOrCreate("./example_db", akumuli.DefaultDBConfig())
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	session, ok := db.CreateSession()
//	if !ok {
//	    return errors.New("no session")
//	}
//	defer session.Close()
//
//	err = session.Write("temperature region=east", 21.5)
//
// By default the pure-Go engine from engine/local is used. Binaries built with
// the "akumuli" tag can pass native.New() to WithEngine to use libakumuli.
//
// # Errors
//
// Failures are *errs.Error values matching one of errs.ErrConfig,
// errs.ErrOpen, errs.ErrCreate, errs.ErrResolve or errs.ErrWrite. Engine
// reported failures carry the engine status, see errs.CodeOf.
//
// # Lifetime
//
// Every session must be closed before the DB that created it. A Session
// serializes its own calls and may be shared between goroutines; a DB may
// create sessions concurrently.
package akumuli

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/expenses/akumuli-go/engine"
	"github.com/expenses/akumuli-go/errs"
)

// DB is an open database instance.
type DB struct {
	eng    engine.Engine
	handle engine.DatabaseHandle
	path   string
	logger *slog.Logger
	clock  func() time.Time

	closed   atomic.Bool
	sessions atomic.Int64
}

// Open opens the instance named suffix inside directory path.
func Open(path, suffix string, opts ...Option) (*DB, error) {
	o, err := newDBOptions("Open", opts)
	if err != nil {
		return nil, err
	}

	return open(path, suffix, o)
}

func open(path, suffix string, o *dbOptions) (*DB, error) {
	const op = "Open"

	switch {
	case hasNUL(path):
		return nil, errs.Config(op, "path %q contains a NUL byte", path)
	case hasNUL(suffix):
		return nil, errs.Config(op, "suffix %q contains a NUL byte", suffix)
	case hasNUL(o.fineTune.InputLogPath):
		return nil, errs.Config(op, "input log path %q contains a NUL byte", o.fineTune.InputLogPath)
	}

	ensureInitialized(o.engine, o.logger)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &errs.Error{Kind: errs.KindOpen, Op: op, Path: path, Err: err}
	}
	file := filepath.Join(abs, suffix+engine.MetaExtension)

	h := o.engine.OpenDatabase(file, o.fineTune)
	if h == 0 {
		return nil, errs.Open(op, file)
	}
	o.logger.Debug("database opened", "path", file)

	return &DB{
		eng:    o.engine,
		handle: h,
		path:   file,
		logger: o.logger,
		clock:  o.clock,
	}, nil
}

// Create creates a new instance in directory path and opens it.
func Create(path string, cfg DBConfig, opts ...Option) (*DB, error) {
	o, err := newDBOptions("Create", opts)
	if err != nil {
		return nil, err
	}

	return create(path, cfg, o)
}

func create(path string, cfg DBConfig, o *dbOptions) (*DB, error) {
	const op = "Create"

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if hasNUL(path) {
		return nil, errs.Config(op, "path %q contains a NUL byte", path)
	}

	ensureInitialized(o.engine, o.logger)

	status := o.engine.CreateDatabase(cfg.Suffix, path, path, cfg.NumVolumes, cfg.PageSize, cfg.Allocate)
	if !status.OK() {
		return nil, &errs.Error{Kind: errs.KindCreate, Code: status, Op: op, Path: path}
	}
	o.logger.Info("database created", "path", path, "suffix", cfg.Suffix,
		"volumes", cfg.NumVolumes, "page_size", cfg.PageSize)

	return open(path, cfg.Suffix, o)
}

// OpenOrCreate opens the instance in path if path exists and creates it
// otherwise.
//
// Only path itself is checked: an existing directory without an instance
// named cfg.Suffix is opened, and the open fails.
func OpenOrCreate(path string, cfg DBConfig, opts ...Option) (*DB, error) {
	o, err := newDBOptions("OpenOrCreate", opts)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		return open(path, cfg.Suffix, o)
	}

	return create(path, cfg, o)
}

// Path returns the path of the instance's metadata file.
func (db *DB) Path() string {
	return db.path
}

// CreateSession opens a write session. It returns false if the engine could
// not provide one or the DB is closed.
func (db *DB) CreateSession() (*Session, bool) {
	if db.closed.Load() {
		return nil, false
	}

	h := db.eng.CreateSession(db.handle)
	if h == 0 {
		db.logger.Warn("engine returned no session", "path", db.path)
		return nil, false
	}
	db.sessions.Add(1)

	return &Session{db: db, handle: h}, true
}

// Close releases the instance. Sessions must be closed first.
// Subsequent calls return errs.ErrDatabaseClosed.
func (db *DB) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return errs.ErrDatabaseClosed
	}

	if n := db.sessions.Load(); n > 0 {
		db.logger.Warn("closing database with open sessions", "path", db.path, "sessions", n)
	}
	db.eng.CloseDatabase(db.handle)
	db.logger.Debug("database closed", "path", db.path)

	return nil
}
