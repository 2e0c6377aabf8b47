package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in   string
		want CompressionType
	}{
		{"none", CompressionNone},
		{"ZSTD", CompressionZstd},
		{"s2", CompressionS2},
		{"Lz4", CompressionLZ4},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.in)
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}

	_, err := ParseCompression("gzip")
	require.Error(t, err)
}

func TestCompressionString(t *testing.T) {
	require.Equal(t, "Zstd", CompressionZstd.String())
	require.Equal(t, "Unknown", CompressionType(0).String())
}
