//go:build akumuli && cgo

package native

/*
#cgo LDFLAGS: -lakumuli
#include <stdlib.h>
#include <akumuli.h>

extern void goPanicHandler(char* msg);
extern void goLogger(aku_LogLevel level, char* msg);
*/
import "C"

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/expenses/akumuli-go/engine"
	"github.com/expenses/akumuli-go/errs"
	"github.com/expenses/akumuli-go/sample"
)

var (
	initOnce sync.Once
	panicFn  atomic.Pointer[engine.PanicFunc]
	logFn    atomic.Pointer[engine.LogFunc]
)

//export goPanicHandler
func goPanicHandler(msg *C.char) {
	text := C.GoString(msg)
	if fn := panicFn.Load(); fn != nil && *fn != nil {
		(*fn)(text)
	}
	panic(&errs.InternalFault{Message: text})
}

//export goLogger
func goLogger(level C.aku_LogLevel, msg *C.char) {
	if fn := logFn.Load(); fn != nil && *fn != nil {
		(*fn)(engine.LogLevel(level), C.GoString(msg))
	}
}

// Engine calls into libakumuli. The zero value is ready to use.
type Engine struct{}

var _ engine.Engine = (*Engine)(nil)

// New returns the libakumuli engine.
func New() *Engine {
	return &Engine{}
}

// Initialize registers the sinks. libakumuli itself is initialized once per
// process; later calls only replace the sinks.
func (*Engine) Initialize(p engine.PanicFunc, l engine.LogFunc) {
	panicFn.Store(&p)
	logFn.Store(&l)
	initOnce.Do(func() {
		C.aku_initialize(
			(C.aku_panic_handler_t)(unsafe.Pointer(C.goPanicHandler)),
			(C.aku_logger_cb_t)(unsafe.Pointer(C.goLogger)),
		)
	})
}

func (*Engine) OpenDatabase(path string, params engine.FineTuneParams) engine.DatabaseHandle {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	cLogPath := C.CString(params.InputLogPath)
	defer C.free(unsafe.Pointer(cLogPath))

	var p C.aku_FineTuneParams
	p.logger = (C.aku_logger_cb_t)(unsafe.Pointer(C.goLogger))
	p.input_log_volume_size = C.uint32_t(params.InputLogVolumeSize)
	p.input_log_volume_numb = C.uint32_t(params.InputLogVolumeNumb)
	p.input_log_concurrency = C.uint32_t(params.InputLogConcurrency)
	p.input_log_path = cLogPath

	return engine.DatabaseHandle(unsafe.Pointer(C.aku_open_database(cPath, p)))
}

func (*Engine) CreateDatabase(baseName, metaPath, volumesPath string, numVolumes int32, pageSize uint64, allocate bool) errs.Status {
	cBase := C.CString(baseName)
	defer C.free(unsafe.Pointer(cBase))
	cMeta := C.CString(metaPath)
	defer C.free(unsafe.Pointer(cMeta))
	cVols := C.CString(volumesPath)
	defer C.free(unsafe.Pointer(cVols))

	status := C.aku_create_database_ex(cBase, cMeta, cVols, C.i32(numVolumes), C.u64(pageSize), C.bool(allocate))

	return errs.Status(status)
}

func (*Engine) CloseDatabase(db engine.DatabaseHandle) {
	C.aku_close_database(dbPtr(db))
}

func (*Engine) CreateSession(db engine.DatabaseHandle) engine.SessionHandle {
	return engine.SessionHandle(unsafe.Pointer(C.aku_create_session(dbPtr(db))))
}

func (*Engine) DestroySession(s engine.SessionHandle) {
	C.aku_destroy_session(sessionPtr(s))
}

// SeriesToParamID copies series and rec into C memory, resolves, and copies
// the record back.
func (*Engine) SeriesToParamID(s engine.SessionHandle, series, rec []byte) errs.Status {
	if len(rec) < sample.HeaderSize {
		return errs.StatusBadArg
	}

	cSeries := C.CBytes(series)
	defer C.free(cSeries)
	cRec := C.CBytes(rec)
	defer C.free(cRec)

	begin := (*C.char)(cSeries)
	end := (*C.char)(unsafe.Add(cSeries, len(series)))
	status := C.aku_series_to_param_id(sessionPtr(s), begin, end, (*C.aku_Sample)(cRec))
	copy(rec, C.GoBytes(cRec, C.int(len(rec))))

	return errs.Status(status)
}

func (*Engine) Write(s engine.SessionHandle, rec []byte) errs.Status {
	if len(rec) < sample.HeaderSize {
		return errs.StatusBadArg
	}

	cRec := C.CBytes(rec)
	defer C.free(cRec)

	return errs.Status(C.aku_write(sessionPtr(s), (*C.aku_Sample)(cRec)))
}

func dbPtr(h engine.DatabaseHandle) *C.aku_Database {
	return (*C.aku_Database)(unsafe.Pointer(uintptr(h))) //nolint:govet
}

func sessionPtr(h engine.SessionHandle) *C.aku_Session {
	return (*C.aku_Session)(unsafe.Pointer(uintptr(h))) //nolint:govet
}
