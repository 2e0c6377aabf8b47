package local

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/expenses/akumuli-go/compress"
	"github.com/expenses/akumuli-go/endian"
	"github.com/expenses/akumuli-go/format"
	"github.com/expenses/akumuli-go/internal/hash"
	"github.com/expenses/akumuli-go/internal/pool"
	"github.com/expenses/akumuli-go/sample"
)

// Page header layout, little-endian.
const (
	pageMagic   = 0x50554B41 // "AKUP"
	pageVersion = 1

	pageHeaderSize = 32
	// minPageSize leaves room for the header and a handful of points.
	minPageSize = 128

	// maxPointSize is the largest encoding of one point: two varints and the
	// float bits.
	maxPointSize = 2*binary.MaxVarintLen64 + 8
	// maxDecodedPage caps the decoded payload of a single page.
	maxDecodedPage = 64 << 20
)

var (
	errEmptyPage     = errors.New("page is empty")
	errCorruptPage   = errors.New("page is corrupted")
	errPageOverflow  = errors.New("points do not fit in one page")
	errTruncatedData = errors.New("truncated point data")
)

// pageHeader is the fixed 32 byte header at the start of every page.
type pageHeader struct {
	Magic       uint32 // byte offset 0-3
	Count       uint32 // byte offset 4-7
	PayloadLen  uint32 // byte offset 8-11
	Compression uint8  // byte offset 12
	Version     uint8  // byte offset 13
	// byte offset 14-15 reserved
	MinTimestamp uint64 // byte offset 16-23
	Checksum     uint64 // byte offset 24-31, xxHash64 of the stored payload
}

func (h *pageHeader) putTo(b []byte) {
	engine := endian.LittleEngine()
	engine.PutUint32(b[0:4], h.Magic)
	engine.PutUint32(b[4:8], h.Count)
	engine.PutUint32(b[8:12], h.PayloadLen)
	b[12] = h.Compression
	b[13] = h.Version
	b[14], b[15] = 0, 0
	engine.PutUint64(b[16:24], h.MinTimestamp)
	engine.PutUint64(b[24:32], h.Checksum)
}

func parsePageHeader(b []byte) (pageHeader, error) {
	if len(b) < pageHeaderSize {
		return pageHeader{}, fmt.Errorf("%w: %d bytes", errCorruptPage, len(b))
	}

	engine := endian.LittleEngine()
	h := pageHeader{
		Magic:        engine.Uint32(b[0:4]),
		Count:        engine.Uint32(b[4:8]),
		PayloadLen:   engine.Uint32(b[8:12]),
		Compression:  b[12],
		Version:      b[13],
		MinTimestamp: engine.Uint64(b[16:24]),
		Checksum:     engine.Uint64(b[24:32]),
	}
	switch {
	case h.Magic == 0 && h.Count == 0:
		return pageHeader{}, errEmptyPage
	case h.Magic != pageMagic:
		return pageHeader{}, fmt.Errorf("%w: bad magic 0x%08x", errCorruptPage, h.Magic)
	case h.Version != pageVersion:
		return pageHeader{}, fmt.Errorf("%w: unsupported version %d", errCorruptPage, h.Version)
	case int(h.PayloadLen) > len(b)-pageHeaderSize:
		return pageHeader{}, fmt.Errorf("%w: payload length %d", errCorruptPage, h.PayloadLen)
	}

	return h, nil
}

// sortSamples orders samples by param id, then timestamp.
func sortSamples(samples []sample.Sample) {
	slices.SortStableFunc(samples, func(a, b sample.Sample) int {
		if a.ParamID != b.ParamID {
			if a.ParamID < b.ParamID {
				return -1
			}
			return 1
		}
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		default:
			return 0
		}
	})
}

// appendPoints encodes sorted samples: per point a uvarint param id delta, a
// zigzag varint timestamp delta (wrapping) and the raw float bits.
func appendPoints(dst []byte, samples []sample.Sample) []byte {
	var prevID, prevTs uint64
	for _, s := range samples {
		dst = binary.AppendUvarint(dst, s.ParamID-prevID)
		dst = binary.AppendVarint(dst, int64(s.Timestamp-prevTs)) //nolint:gosec
		dst = endian.LittleEngine().AppendUint64(dst, math.Float64bits(s.Payload.Float64))
		prevID, prevTs = s.ParamID, s.Timestamp
	}

	return dst
}

func decodePoints(data []byte, count uint32) ([]sample.Sample, error) {
	out := make([]sample.Sample, 0, count)
	var prevID, prevTs uint64
	for i := uint32(0); i < count; i++ {
		idDelta, n := binary.Uvarint(data)
		if n <= 0 {
			return nil, fmt.Errorf("%w: point %d param id", errTruncatedData, i)
		}
		data = data[n:]

		tsDelta, n := binary.Varint(data)
		if n <= 0 {
			return nil, fmt.Errorf("%w: point %d timestamp", errTruncatedData, i)
		}
		data = data[n:]

		if len(data) < 8 {
			return nil, fmt.Errorf("%w: point %d value", errTruncatedData, i)
		}
		value := math.Float64frombits(endian.LittleEngine().Uint64(data[:8]))
		data = data[8:]

		prevID += idDelta
		prevTs += uint64(tsDelta) //nolint:gosec
		out = append(out, sample.NewFloat(prevTs, prevID, value))
	}

	return out, nil
}

// encodePage encodes sorted samples into one pageSize page.
// It returns errPageOverflow if they do not fit.
func encodePage(samples []sample.Sample, compression format.CompressionType, pageSize int) ([]byte, error) {
	codec, err := compress.Lookup(compression)
	if err != nil {
		return nil, err
	}

	raw := pool.GetPageBuffer()
	defer pool.PutPageBuffer(raw)
	raw.B = appendPoints(raw.B, samples)

	// the payload is compressed straight behind the header
	page, err := codec.Compress(make([]byte, pageHeaderSize, pageSize), raw.Bytes())
	if err != nil {
		return nil, err
	}
	if len(page) > pageSize {
		return nil, fmt.Errorf("%w: %d points need %d bytes", errPageOverflow, len(samples), len(page))
	}
	payload := page[pageHeaderSize:]

	minTs := samples[0].Timestamp
	for _, s := range samples[1:] {
		minTs = min(minTs, s.Timestamp)
	}

	h := pageHeader{
		Magic:        pageMagic,
		Count:        uint32(len(samples)), //nolint:gosec
		PayloadLen:   uint32(len(payload)), //nolint:gosec
		Compression:  uint8(compression),
		Version:      pageVersion,
		MinTimestamp: minTs,
		Checksum:     hash.Sum(payload),
	}
	h.putTo(page)

	n := len(page)
	page = page[:pageSize]
	clear(page[n:])

	return page, nil
}

// encodePages splits sorted samples into as many pages as needed.
func encodePages(samples []sample.Sample, compression format.CompressionType, pageSize int) ([][]byte, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	page, err := encodePage(samples, compression, pageSize)
	if err == nil {
		return [][]byte{page}, nil
	}
	if !errors.Is(err, errPageOverflow) || len(samples) == 1 {
		return nil, err
	}

	mid := len(samples) / 2
	left, err := encodePages(samples[:mid], compression, pageSize)
	if err != nil {
		return nil, err
	}
	right, err := encodePages(samples[mid:], compression, pageSize)
	if err != nil {
		return nil, err
	}

	return append(left, right...), nil
}

// decodePage verifies and decodes a page written by encodePage.
func decodePage(page []byte) ([]sample.Sample, error) {
	h, err := parsePageHeader(page)
	if err != nil {
		return nil, err
	}

	payload := page[pageHeaderSize : pageHeaderSize+int(h.PayloadLen)]
	if !hash.Verify(payload, h.Checksum) {
		return nil, fmt.Errorf("%w: checksum mismatch", errCorruptPage)
	}

	codec, err := compress.Lookup(format.CompressionType(h.Compression))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptPage, err)
	}
	limit := min(int(h.Count)*maxPointSize, maxDecodedPage)
	raw, err := codec.Decompress(nil, payload, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptPage, err)
	}

	return decodePoints(raw, h.Count)
}
