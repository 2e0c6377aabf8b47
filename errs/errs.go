// Package errs defines the error taxonomy shared by the akumuli client and engines.
//
// Engine failures carry the native status code unchanged, so callers can tell
// configuration mistakes (fixable without touching the engine) apart from
// engine-reported failures:
//
//	id, err := session.MetricToParamID("cpu host=a")
//	if errors.Is(err, errs.ErrResolve) {
//	    code, _ := errs.CodeOf(err)
//	    log.Printf("resolve failed with engine status %d (%s)", code, code)
//	}
//
// Unrecoverable engine faults are not errors: they surface as a panic with an
// *InternalFault value.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is matched by errors caused by caller-supplied values that cannot
	// cross the engine boundary, e.g. strings containing NUL bytes.
	ErrConfig = errors.New("invalid configuration")
	// ErrOpen is matched when the engine could not open a database instance.
	ErrOpen = errors.New("failed to open database")
	// ErrCreate is matched when the engine could not create a database instance.
	ErrCreate = errors.New("failed to create database")
	// ErrResolve is matched when a metric could not be resolved to a param id.
	ErrResolve = errors.New("failed to resolve metric")
	// ErrWrite is matched when the engine rejected a sample.
	ErrWrite = errors.New("failed to write sample")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("session is closed")
	// ErrDatabaseClosed is returned by operations on a closed database, or on a
	// session whose database was closed.
	ErrDatabaseClosed = errors.New("database is closed")
)

// Kind classifies an Error.
type Kind uint8

const (
	KindConfig Kind = iota + 1
	KindOpen
	KindCreate
	KindResolve
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindOpen:
		return "open"
	case KindCreate:
		return "create"
	case KindResolve:
		return "resolve"
	case KindWrite:
		return "write"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindConfig:
		return ErrConfig
	case KindOpen:
		return ErrOpen
	case KindCreate:
		return ErrCreate
	case KindResolve:
		return ErrResolve
	case KindWrite:
		return ErrWrite
	default:
		return nil
	}
}

// Error is a classified failure of a client operation.
//
// Code holds the engine status for the kinds that have one (create, resolve,
// write). Config and open errors carry StatusSuccess as Code.
type Error struct {
	Kind Kind
	Code Status
	// Op names the failed operation, e.g. "Session.Write".
	Op string
	// Path is the filesystem path involved, if any.
	Path string
	// Err is an optional underlying cause.
	Err error
}

func (e *Error) Error() string {
	msg := "akumuli error"
	if s := e.Kind.sentinel(); s != nil {
		msg = s.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " [" + e.Path + "]"
	}
	if e.hasCode() {
		msg += fmt.Sprintf(": engine status %d (%s)", int32(e.Code), e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *Error) hasCode() bool {
	switch e.Kind {
	case KindCreate, KindResolve, KindWrite:
		return true
	default:
		return false
	}
}

// FromStatus maps an engine status code to an error of the given kind.
//
// StatusSuccess maps to nil. Every other code, including codes unknown to this
// package, maps to an *Error that carries the code unchanged.
func FromStatus(kind Kind, op string, code Status) error {
	if code.OK() {
		return nil
	}

	return &Error{Kind: kind, Code: code, Op: op}
}

// CodeOf extracts the engine status carried by err.
// The boolean is false if err carries no engine status.
func CodeOf(err error) (Status, bool) {
	var e *Error
	if !errors.As(err, &e) || !e.hasCode() {
		return StatusSuccess, false
	}

	return e.Code, true
}

// Config returns a KindConfig error for op with a formatted reason.
func Config(op, format string, args ...any) error {
	return &Error{Kind: KindConfig, Op: op, Err: fmt.Errorf(format, args...)}
}

// Open returns a KindOpen error for the instance at path.
func Open(op, path string) error {
	return &Error{Kind: KindOpen, Op: op, Path: path}
}

// InternalFault is the panic value raised when the engine reports an
// unrecoverable internal condition through its panic sink.
type InternalFault struct {
	Message string
}

func (f *InternalFault) Error() string {
	return "akumuli: internal engine fault: " + f.Message
}
