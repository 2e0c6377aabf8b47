package sample

// Type tag bit flags. A record's type tag has exactly the bits of the fields it
// populates set.
const (
	FlagParamID         uint16 = 1 << 0  // param id field is meaningful
	FlagTimestamp       uint16 = 1 << 1  // timestamp field is meaningful
	FlagCustomTimestamp uint16 = 1 << 2  // timestamp was supplied by the caller, not the engine
	FlagFloat           uint16 = 1 << 4  // payload holds a float64
	FlagMargin          uint16 = 1 << 13 // record marks a series margin
	FlagError           uint16 = 1 << 14 // record carries an error status
	FlagSAXWord         uint16 = 1 << 15 // trailing data holds a SAX word

	TypeEmpty   uint16 = 0
	TypeRegular        = FlagParamID | FlagTimestamp
	TypeFloat          = TypeRegular | FlagFloat
)

// Byte layout of the fixed part of a record.
const (
	TimestampOffset = 0  // uint64
	ParamIDOffset   = 8  // uint64
	PayloadOffset   = 16 // float64 bits (union)
	TypeOffset      = 24 // uint16
	SizeOffset      = 26 // uint16
	PaddingOffset   = 28 // 4 zero bytes up to 8-byte alignment

	// HeaderSize is the size of the fixed part, equal to sizeof(aku_Sample).
	HeaderSize = 32

	// MaxSize is the largest size representable by the 16-bit size field.
	MaxSize = 1<<16 - 1
)
