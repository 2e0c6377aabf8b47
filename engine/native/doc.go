// Package native binds engine.Engine to libakumuli through cgo.
//
// The binding is only compiled with the "akumuli" build tag and cgo enabled,
// and needs akumuli.h and libakumuli on the include and library paths:
//
//	CGO_CFLAGS=-I/opt/akumuli/include CGO_LDFLAGS=-L/opt/akumuli/lib \
//	    go build -tags akumuli ./...
//
// libakumuli's panic and log callbacks are process-wide, so a single set of
// sinks is shared by every Engine. FineTuneParams.Logger is not forwarded; the
// sinks registered with Initialize receive every message.
package native
