// Package endian provides byte order engines for the fixed-layout records that
// cross the storage engine boundary.
//
// Records handed to the native engine are raw C structs, so they use the
// host's byte order. Records persisted by the pure-Go engine (pages, input log
// frames) are little-endian on every host.
//
//	rec := s.Bytes(endian.HostEngine())             // native boundary
//	frame := s.AppendTo(buf, endian.LittleEngine()) // on disk
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

var (
	_ EndianEngine = binary.NativeEndian
	_ EndianEngine = binary.LittleEndian
	_ EndianEngine = binary.BigEndian
)

// HostEngine returns the engine matching the host's native byte order.
func HostEngine() EndianEngine { return binary.NativeEndian }

// LittleEngine returns the little-endian engine.
func LittleEngine() EndianEngine { return binary.LittleEndian }

// BigEngine returns the big-endian engine.
func BigEngine() EndianEngine { return binary.BigEndian }
