package local

import (
	"errors"
	"sync/atomic"

	"github.com/expenses/akumuli-go/endian"
	"github.com/expenses/akumuli-go/engine"
	"github.com/expenses/akumuli-go/errs"
	"github.com/expenses/akumuli-go/internal/series"
	"github.com/expenses/akumuli-go/sample"
)

// session is a write session. It is not safe for concurrent use: a call that
// overlaps another one on the same session fails with StatusBusy.
type session struct {
	handle engine.SessionHandle
	db     *database
	busy   atomic.Bool
	cache  map[string]uint64
}

func newSession(h engine.SessionHandle, db *database) *session {
	return &session{handle: h, db: db, cache: make(map[string]uint64)}
}

func (s *session) enter() bool {
	return s.busy.CompareAndSwap(false, true)
}

func (s *session) leave() {
	s.busy.Store(false)
}

// resolve stores the param id of name into rec.
func (s *session) resolve(name, rec []byte) errs.Status {
	if !s.enter() {
		s.db.e.metrics.busy.Inc()
		return errs.StatusBusy
	}
	defer s.leave()

	if s.db.closed.Load() {
		return errs.StatusClosed
	}

	host := endian.HostEngine()
	smp, err := sample.Parse(rec, host)
	if err != nil {
		return errs.StatusBadArg
	}

	canonical, err := series.Normalize(name)
	if err != nil {
		s.db.logf(engine.LogTrace, "rejected series %q: %v", name, err)
		return errs.StatusBadData
	}

	id, ok := s.cache[canonical]
	if !ok {
		var created bool
		id, created, err = s.db.matcher.resolve(canonical)
		if err != nil {
			s.db.logf(engine.LogError, "failed to register series %q: %v", canonical, err)
			return errs.StatusGeneral
		}
		if created {
			s.db.e.metrics.seriesCreated.Inc()
		}
		s.cache[canonical] = id
	}

	smp.ParamID = id
	copy(rec, smp.Bytes(host))
	s.db.e.metrics.resolves.Inc()

	return errs.StatusSuccess
}

// write submits rec, which must be a float sample of a known series.
func (s *session) write(rec []byte) errs.Status {
	if !s.enter() {
		s.db.e.metrics.busy.Inc()
		return errs.StatusBusy
	}
	defer s.leave()

	status := s.writeSample(rec)
	if status.OK() {
		s.db.e.metrics.writes.Inc()
	} else {
		s.db.e.metrics.writeErrors.Inc()
	}

	return status
}

func (s *session) writeSample(rec []byte) errs.Status {
	if s.db.closed.Load() {
		return errs.StatusClosed
	}

	smp, err := sample.Parse(rec, endian.HostEngine())
	if err != nil {
		return errs.StatusBadArg
	}
	if !smp.Has(sample.TypeRegular) || !smp.Has(sample.FlagFloat) || smp.Validate() != nil {
		return errs.StatusBadData
	}
	if !s.db.matcher.known(smp.ParamID) {
		return errs.StatusNotFound
	}

	if err := s.db.write(smp); err != nil {
		if errors.Is(err, errClosed) {
			return errs.StatusClosed
		}
		s.db.logf(engine.LogError, "write of param id %d failed: %v", smp.ParamID, err)
		return errs.StatusGeneral
	}

	return errs.StatusSuccess
}
