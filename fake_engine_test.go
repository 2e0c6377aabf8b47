package akumuli

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/expenses/akumuli-go/endian"
	"github.com/expenses/akumuli-go/engine"
	"github.com/expenses/akumuli-go/errs"
	"github.com/expenses/akumuli-go/sample"
)

// fakeEngine records every call and returns canned results.
type fakeEngine struct {
	mu    sync.Mutex
	calls []string

	openHandle    engine.DatabaseHandle
	sessionHandle engine.SessionHandle
	createStatus  errs.Status
	resolveStatus errs.Status
	writeStatus   errs.Status
	paramID       uint64

	panicFn engine.PanicFunc
	logFn   engine.LogFunc

	destroyed map[engine.SessionHandle]int
	writes    [][]byte
	lastParam engine.FineTuneParams

	inFlight   atomic.Int32
	overlapped atomic.Int32
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		openHandle:    1,
		sessionHandle: 10,
		paramID:       1024,
		destroyed:     make(map[engine.SessionHandle]int),
	}
}

func (f *fakeEngine) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeEngine) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// enter tracks overlapping calls on a session.
func (f *fakeEngine) enter() func() {
	if f.inFlight.Add(1) > 1 {
		f.overlapped.Add(1)
	}
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeEngine) Initialize(panicFn engine.PanicFunc, logFn engine.LogFunc) {
	f.record("Initialize")
	f.panicFn, f.logFn = panicFn, logFn
}

func (f *fakeEngine) OpenDatabase(path string, params engine.FineTuneParams) engine.DatabaseHandle {
	f.record("OpenDatabase %s", path)
	f.mu.Lock()
	f.lastParam = params
	f.mu.Unlock()
	return f.openHandle
}

func (f *fakeEngine) CreateDatabase(baseName, metaPath, volumesPath string, numVolumes int32, pageSize uint64, allocate bool) errs.Status {
	f.record("CreateDatabase %s %s %s %d %d %t", baseName, metaPath, volumesPath, numVolumes, pageSize, allocate)
	return f.createStatus
}

func (f *fakeEngine) CloseDatabase(db engine.DatabaseHandle) {
	f.record("CloseDatabase %d", db)
}

func (f *fakeEngine) CreateSession(db engine.DatabaseHandle) engine.SessionHandle {
	f.record("CreateSession %d", db)
	return f.sessionHandle
}

func (f *fakeEngine) DestroySession(s engine.SessionHandle) {
	f.record("DestroySession %d", s)
	f.mu.Lock()
	f.destroyed[s]++
	f.mu.Unlock()
}

func (f *fakeEngine) SeriesToParamID(s engine.SessionHandle, series, rec []byte) errs.Status {
	defer f.enter()()
	f.record("SeriesToParamID %s", series)
	if !f.resolveStatus.OK() {
		return f.resolveStatus
	}

	host := endian.HostEngine()
	smp, err := sample.Parse(rec, host)
	if err != nil {
		return errs.StatusBadArg
	}
	smp.ParamID = f.paramID
	copy(rec, smp.Bytes(host))

	return errs.StatusSuccess
}

func (f *fakeEngine) Write(s engine.SessionHandle, rec []byte) errs.Status {
	defer f.enter()()
	f.record("Write")
	f.mu.Lock()
	f.writes = append(f.writes, append([]byte(nil), rec...))
	f.mu.Unlock()

	return f.writeStatus
}

func (f *fakeEngine) destroyCount(s engine.SessionHandle) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed[s]
}
