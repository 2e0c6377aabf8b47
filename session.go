package akumuli

import (
	"sync"
	"time"

	"github.com/expenses/akumuli-go/endian"
	"github.com/expenses/akumuli-go/engine"
	"github.com/expenses/akumuli-go/errs"
	"github.com/expenses/akumuli-go/sample"
)

// Session writes samples to a DB.
//
// Calls on one Session are serialized, so it may be shared between
// goroutines. Close must be called exactly once the session is no longer
// needed, and before the DB is closed.
type Session struct {
	db     *DB
	handle engine.SessionHandle

	mu     sync.Mutex
	closed bool
}

// guard must be called with s.mu held.
func (s *Session) guard() error {
	if s.closed {
		return errs.ErrSessionClosed
	}
	if s.db.closed.Load() {
		return errs.ErrDatabaseClosed
	}

	return nil
}

// MetricToParamID resolves metric to its param id, assigning one if the
// series is new.
func (s *Session) MetricToParamID(metric string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(); err != nil {
		return 0, err
	}

	return s.resolveLocked("Session.MetricToParamID", metric)
}

func (s *Session) resolveLocked(op, metric string) (uint64, error) {
	if hasNUL(metric) {
		return 0, errs.Config(op, "metric %q contains a NUL byte", metric)
	}

	host := endian.HostEngine()
	rec := sample.NewResolveRequest().Bytes(host)
	if err := errs.FromStatus(errs.KindResolve, op, s.db.eng.SeriesToParamID(s.handle, []byte(metric), rec)); err != nil {
		return 0, err
	}

	resolved, err := sample.Parse(rec, host)
	if err != nil {
		return 0, &errs.Error{Kind: errs.KindResolve, Code: errs.StatusBadData, Op: op, Err: err}
	}

	return resolved.ParamID, nil
}

// Write writes value to metric, timestamped now.
func (s *Session) Write(metric string, value float64) error {
	return s.WriteAt(metric, s.db.clock(), value)
}

// WriteAt writes value to metric with timestamp ts, truncated to seconds.
func (s *Session) WriteAt(metric string, ts time.Time, value float64) error {
	const op = "Session.Write"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(); err != nil {
		return err
	}
	id, err := s.resolveLocked(op, metric)
	if err != nil {
		return err
	}

	return s.writeLocked(op, id, ts, value)
}

// WriteParamID writes value to an already resolved param id.
func (s *Session) WriteParamID(id uint64, ts time.Time, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(); err != nil {
		return err
	}

	return s.writeLocked("Session.WriteParamID", id, ts, value)
}

func (s *Session) writeLocked(op string, id uint64, ts time.Time, value float64) error {
	sec := ts.Unix()
	if sec < 0 {
		return errs.Config(op, "timestamp %s is before the epoch", ts)
	}

	rec := sample.NewFloat(uint64(sec), id, value).Bytes(endian.HostEngine())

	return errs.FromStatus(errs.KindWrite, op, s.db.eng.Write(s.handle, rec))
}

// Close destroys the session. It always releases the engine session, even
// after failed writes or when the DB was already closed. Subsequent calls
// return errs.ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errs.ErrSessionClosed
	}
	s.closed = true
	s.db.eng.DestroySession(s.handle)
	s.db.sessions.Add(-1)

	return nil
}
