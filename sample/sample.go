// Package sample defines the fixed-layout record exchanged with the storage engine.
//
// A Sample is one (timestamp, param id, value) triple. Its type tag says which
// of those fields are meaningful. The binary form matches the engine's
// aku_Sample struct:
//
//	┌──────────────────────────────────────────────┐
//	│ timestamp  uint64           offset 0         │
//	│ param id   uint64           offset 8         │
//	│ payload    float64 (union)  offset 16        │
//	│ type tag   uint16           offset 24        │
//	│ size       uint16           offset 26        │
//	│ padding    4 bytes          offset 28        │
//	├──────────────────────────────────────────────┤
//	│ trailing data (variable, empty for floats)   │
//	└──────────────────────────────────────────────┘
//
// Records are transient request buffers: build one per call, encode it, hand
// the bytes to the engine, decode the result. They are never shared.
package sample

import (
	"errors"
	"fmt"
	"math"

	"github.com/expenses/akumuli-go/endian"
)

var (
	ErrShortBuffer  = errors.New("sample: buffer shorter than record header")
	ErrSizeMismatch = errors.New("sample: size field does not match record")
	ErrTooLarge     = errors.New("sample: record exceeds maximum size")
	ErrInvalidType  = errors.New("sample: type tag does not match populated fields")
)

// Payload is the tagged value part of a record.
//
// Which member is active is decided by the owning Sample's type tag.
type Payload struct {
	// Float64 is the float member, active when FlagFloat is set.
	Float64 float64
	// Data is the trailing variable-length area. Empty for scalar floats.
	Data []byte
}

// Sample is a decoded record.
type Sample struct {
	Timestamp uint64
	ParamID   uint64
	Payload   Payload
	// Type is the type tag bit set.
	Type uint16
}

// NewFloat builds a float record with exactly the param id, timestamp and
// float bits set.
func NewFloat(timestamp, paramID uint64, value float64) Sample {
	return Sample{
		Timestamp: timestamp,
		ParamID:   paramID,
		Payload:   Payload{Float64: value},
		Type:      TypeFloat,
	}
}

// NewResolveRequest builds a zeroed record tagged for scalar-float use. It is
// the in/out buffer of a series-to-param-id call.
func NewResolveRequest() Sample {
	return Sample{Type: TypeFloat}
}

// Size returns the true size of the encoded record including trailing data.
func (s Sample) Size() int {
	return HeaderSize + len(s.Payload.Data)
}

// Has reports whether all bits of flags are set in the type tag.
func (s Sample) Has(flags uint16) bool {
	return s.Type&flags == flags
}

// Float returns the float member and whether it is active.
func (s Sample) Float() (float64, bool) {
	if !s.Has(FlagFloat) {
		return 0, false
	}

	return s.Payload.Float64, true
}

// Validate checks that the record can be encoded and that a float-tagged
// record carries no trailing data.
func (s Sample) Validate() error {
	if s.Size() > MaxSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, s.Size())
	}
	if s.Has(FlagFloat) && len(s.Payload.Data) != 0 {
		return fmt.Errorf("%w: float record with %d trailing bytes", ErrInvalidType, len(s.Payload.Data))
	}

	return nil
}

// Bytes encodes the record with the given engine into a new slice.
//
// Use endian.HostEngine() for buffers passed to the native engine.
func (s Sample) Bytes(engine endian.EndianEngine) []byte {
	return s.AppendTo(make([]byte, 0, s.Size()), engine)
}

// AppendTo appends the encoded record to dst.
//
// The size field is computed from the trailing data length. Callers must
// Validate records that may exceed MaxSize.
func (s Sample) AppendTo(dst []byte, engine endian.EndianEngine) []byte {
	dst = engine.AppendUint64(dst, s.Timestamp)
	dst = engine.AppendUint64(dst, s.ParamID)
	dst = engine.AppendUint64(dst, math.Float64bits(s.Payload.Float64))
	dst = engine.AppendUint16(dst, s.Type)
	dst = engine.AppendUint16(dst, uint16(s.Size())) //nolint:gosec
	dst = append(dst, 0, 0, 0, 0)

	return append(dst, s.Payload.Data...)
}

// Parse decodes a record from data.
//
// data must hold exactly one record: the size field has to equal len(data)
// and be at least HeaderSize. The trailing data is copied.
func Parse(data []byte, engine endian.EndianEngine) (Sample, error) {
	if len(data) < HeaderSize {
		return Sample{}, fmt.Errorf("%w: got %d bytes, need %d", ErrShortBuffer, len(data), HeaderSize)
	}

	size := int(engine.Uint16(data[SizeOffset : SizeOffset+2]))
	if size < HeaderSize || size != len(data) {
		return Sample{}, fmt.Errorf("%w: size field %d, buffer %d", ErrSizeMismatch, size, len(data))
	}

	s := Sample{
		Timestamp: engine.Uint64(data[TimestampOffset : TimestampOffset+8]),
		ParamID:   engine.Uint64(data[ParamIDOffset : ParamIDOffset+8]),
		Type:      engine.Uint16(data[TypeOffset : TypeOffset+2]),
	}
	s.Payload.Float64 = math.Float64frombits(engine.Uint64(data[PayloadOffset : PayloadOffset+8]))
	if size > HeaderSize {
		s.Payload.Data = append([]byte(nil), data[HeaderSize:size]...)
	}

	return s, nil
}
