// Package engine describes the foreign boundary of the time-series storage engine.
//
// The Engine interface mirrors the engine's C API one call per method. Handles
// are opaque, non-reference-counted values; zero is the null handle. Records
// cross the boundary as encoded bytes (see package sample) in host byte order.
//
// Two implementations exist:
//   - engine/local: a pure-Go engine using the same on-disk conventions
//   - engine/native: cgo bindings to libakumuli (build tag "akumuli")
//
// Callers must check that every string is free of NUL bytes before passing it
// in; the native engine receives them as C strings.
package engine

import (
	"fmt"

	"github.com/expenses/akumuli-go/errs"
)

// DatabaseHandle is an opaque handle to an open database. Zero is null.
type DatabaseHandle uintptr

// SessionHandle is an opaque handle to a write session. Zero is null.
type SessionHandle uintptr

// LogLevel is the severity passed to a LogFunc. Values match aku_LogLevel.
type LogLevel uint32

const (
	LogInfo  LogLevel = 2
	LogError LogLevel = 4
	LogTrace LogLevel = 7
)

func (l LogLevel) String() string {
	switch l {
	case LogInfo:
		return "info"
	case LogError:
		return "error"
	case LogTrace:
		return "trace"
	default:
		return fmt.Sprintf("level(%d)", uint32(l))
	}
}

// PanicFunc receives unrecoverable engine faults. It must not return.
type PanicFunc func(msg string)

// LogFunc receives engine diagnostics.
type LogFunc func(level LogLevel, msg string)

// MetaExtension is appended to an instance's base name to form the metadata
// file name.
const MetaExtension = ".akumuli"

// Defaults for FineTuneParams.
const (
	DefaultInputLogVolumeSize  = 1000
	DefaultInputLogVolumeNumb  = 1
	DefaultInputLogConcurrency = 0x0100_0000
	DefaultInputLogPath        = "log.log"
)

// FineTuneParams are the tuning knobs supplied when a database is opened.
type FineTuneParams struct {
	// Logger overrides the process-wide log sink for this database. Optional.
	Logger LogFunc
	// InputLogVolumeSize is the number of entries per input log volume.
	InputLogVolumeSize uint32
	// InputLogVolumeNumb is the number of input log volumes kept.
	InputLogVolumeNumb uint32
	// InputLogConcurrency is a concurrency hint bit mask.
	InputLogConcurrency uint32
	// InputLogPath is the input log file path. Empty disables the input log.
	InputLogPath string
}

// DefaultFineTuneParams returns the fixed defaults used by Database.Open.
func DefaultFineTuneParams() FineTuneParams {
	return FineTuneParams{
		InputLogVolumeSize:  DefaultInputLogVolumeSize,
		InputLogVolumeNumb:  DefaultInputLogVolumeNumb,
		InputLogConcurrency: DefaultInputLogConcurrency,
		InputLogPath:        DefaultInputLogPath,
	}
}

// VolumeName returns the file name of the i-th volume of instance base.
func VolumeName(base string, i int) string {
	return fmt.Sprintf("%s_%d.vol", base, i)
}

// Engine is the storage engine's C API.
//
// None of the calls can be cancelled and none take timeouts. A session handle
// must never be used by two calls at once; a database handle may be used by
// concurrent CreateSession calls. CloseDatabase must only be called after all
// sessions of that database were destroyed.
type Engine interface {
	// Initialize registers the process-wide panic and log sinks. It must run
	// before any other call.
	Initialize(panicFn PanicFunc, logFn LogFunc)

	// OpenDatabase opens the instance whose metadata file is at path.
	// It returns the null handle on failure.
	OpenDatabase(path string, params FineTuneParams) DatabaseHandle

	// CreateDatabase creates a new instance named baseName with its metadata
	// file in metaPath and numVolumes volumes of pageSize in volumesPath.
	CreateDatabase(baseName, metaPath, volumesPath string, numVolumes int32, pageSize uint64, allocate bool) errs.Status

	// CloseDatabase releases db.
	CloseDatabase(db DatabaseHandle)

	// CreateSession opens a write session on db. It returns the null handle
	// on failure.
	CreateSession(db DatabaseHandle) SessionHandle

	// DestroySession releases s.
	DestroySession(s SessionHandle)

	// SeriesToParamID resolves or assigns the param id of series. rec is an
	// encoded record used as in/out buffer; on success its param id field is
	// populated.
	SeriesToParamID(s SessionHandle, series []byte, rec []byte) errs.Status

	// Write submits the encoded record rec.
	Write(s SessionHandle, rec []byte) errs.Status
}
