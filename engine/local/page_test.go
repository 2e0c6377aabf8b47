package local

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/expenses/akumuli-go/format"
	"github.com/expenses/akumuli-go/sample"
)

var allCompressions = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
}

func randomSamples(n int, seed uint64) []sample.Sample {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]sample.Sample, n)
	for i := range out {
		out[i] = sample.NewFloat(
			1_700_000_000+uint64(rng.IntN(3600)),
			firstSeriesID+uint64(rng.IntN(8)),
			rng.NormFloat64()*100,
		)
	}

	return out
}

func TestPage_Roundtrip(t *testing.T) {
	for _, c := range allCompressions {
		t.Run(c.String(), func(t *testing.T) {
			samples := randomSamples(100, 1)
			sortSamples(samples)

			page, err := encodePage(samples, c, 4096)
			require.NoError(t, err)
			require.Len(t, page, 4096)

			h, err := parsePageHeader(page)
			require.NoError(t, err)
			require.Equal(t, uint32(100), h.Count)
			require.Equal(t, uint8(c), h.Compression)

			decoded, err := decodePage(page)
			require.NoError(t, err)
			require.Equal(t, samples, decoded)
		})
	}
}

func TestPage_MinTimestamp(t *testing.T) {
	samples := []sample.Sample{
		sample.NewFloat(50, 1024, 1),
		sample.NewFloat(20, 1025, 2),
		sample.NewFloat(90, 1025, 3),
	}
	sortSamples(samples)

	page, err := encodePage(samples, format.CompressionNone, minPageSize)
	require.NoError(t, err)

	h, err := parsePageHeader(page)
	require.NoError(t, err)
	require.Equal(t, uint64(20), h.MinTimestamp)
}

func TestSortSamples(t *testing.T) {
	samples := []sample.Sample{
		sample.NewFloat(3, 1025, 0),
		sample.NewFloat(2, 1024, 0),
		sample.NewFloat(1, 1025, 0),
		sample.NewFloat(1, 1024, 0),
	}
	sortSamples(samples)

	require.Equal(t, []sample.Sample{
		sample.NewFloat(1, 1024, 0),
		sample.NewFloat(2, 1024, 0),
		sample.NewFloat(1, 1025, 0),
		sample.NewFloat(3, 1025, 0),
	}, samples)
}

func TestEncodePages_Split(t *testing.T) {
	samples := randomSamples(1000, 7)
	sortSamples(samples)

	_, err := encodePage(samples, format.CompressionNone, 512)
	require.ErrorIs(t, err, errPageOverflow)

	pages, err := encodePages(samples, format.CompressionNone, 512)
	require.NoError(t, err)
	require.Greater(t, len(pages), 1)

	var decoded []sample.Sample
	for _, page := range pages {
		require.Len(t, page, 512)
		got, err := decodePage(page)
		require.NoError(t, err)
		decoded = append(decoded, got...)
	}
	require.Equal(t, samples, decoded)
}

func TestEncodePages_Empty(t *testing.T) {
	pages, err := encodePages(nil, format.CompressionZstd, 4096)
	require.NoError(t, err)
	require.Empty(t, pages)
}

func TestDecodePage_Errors(t *testing.T) {
	samples := randomSamples(10, 3)
	sortSamples(samples)
	page, err := encodePage(samples, format.CompressionS2, 1024)
	require.NoError(t, err)

	t.Run("zeroed", func(t *testing.T) {
		_, err := decodePage(make([]byte, 1024))
		require.ErrorIs(t, err, errEmptyPage)
	})

	t.Run("short", func(t *testing.T) {
		_, err := decodePage(page[:pageHeaderSize-1])
		require.ErrorIs(t, err, errCorruptPage)
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), page...)
		bad[0] ^= 0xff
		_, err := decodePage(bad)
		require.ErrorIs(t, err, errCorruptPage)
	})

	t.Run("checksum", func(t *testing.T) {
		bad := append([]byte(nil), page...)
		bad[pageHeaderSize] ^= 0xff
		_, err := decodePage(bad)
		require.ErrorIs(t, err, errCorruptPage)
	})

	t.Run("version", func(t *testing.T) {
		bad := append([]byte(nil), page...)
		bad[13] = pageVersion + 1
		_, err := decodePage(bad)
		require.ErrorIs(t, err, errCorruptPage)
	})
}

func TestDecodePoints_Truncated(t *testing.T) {
	samples := []sample.Sample{sample.NewFloat(1, 1024, 1.5)}
	raw := appendPoints(nil, samples)

	_, err := decodePoints(raw[:len(raw)-1], 1)
	require.ErrorIs(t, err, errTruncatedData)

	_, err = decodePoints(raw, 2)
	require.ErrorIs(t, err, errTruncatedData)
}
