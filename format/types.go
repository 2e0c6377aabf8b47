// Package format names the compression algorithms a volume page can use.
//
// The numeric values are stored in page headers and must not change.
package format

import (
	"fmt"
	"strings"
)

type CompressionType uint8

const (
	CompressionNone CompressionType = 0x1 // CompressionNone stores the payload as is.
	CompressionZstd CompressionType = 0x2 // CompressionZstd uses Zstandard.
	CompressionS2   CompressionType = 0x3 // CompressionS2 uses S2.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 uses LZ4 blocks.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression converts a name such as "zstd" or "S2" to a
// CompressionType. Matching ignores case.
func ParseCompression(name string) (CompressionType, error) {
	for _, c := range []CompressionType{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4} {
		if strings.EqualFold(c.String(), name) {
			return c, nil
		}
	}

	return 0, fmt.Errorf("unknown compression %q", name)
}
