package local

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"

	"github.com/expenses/akumuli-go/endian"
	"github.com/expenses/akumuli-go/internal/hash"
	"github.com/expenses/akumuli-go/internal/pool"
	"github.com/expenses/akumuli-go/sample"
)

// Frame layout: [u32 length][u64 xxHash64][snappy block], little-endian.
// The checksum covers the snappy block.
const frameHeaderSize = 12

// maxFrameSize bounds a frame read back from disk.
const maxFrameSize = 1 << 20

var errLogFull = errors.New("input log is full")

// inputLog is a write-ahead log of accepted samples not yet flushed to a
// volume page. It is a fixed set of files "<base>.<n>", each holding up to
// perVolume frames, filled in order.
type inputLog struct {
	base      string
	perVolume uint32
	files     []*os.File
	counts    []uint32
	current   int
}

func logVolumeName(base string, i int) string {
	return fmt.Sprintf("%s.%d", base, i)
}

// openInputLog opens or creates the log volumes of base.
// Existing contents are kept for replay.
func openInputLog(base string, perVolume, numVolumes uint32) (*inputLog, error) {
	if perVolume == 0 || numVolumes == 0 {
		return nil, fmt.Errorf("invalid input log geometry: %d entries x %d volumes", perVolume, numVolumes)
	}

	l := &inputLog{
		base:      base,
		perVolume: perVolume,
		files:     make([]*os.File, 0, numVolumes),
		counts:    make([]uint32, numVolumes),
	}
	for i := range int(numVolumes) {
		f, err := os.OpenFile(logVolumeName(base, i), os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			_ = l.close()
			return nil, err
		}
		l.files = append(l.files, f)
	}

	return l, nil
}

// replay reads every intact frame in write order. A torn or corrupt frame
// ends the volume it is in. Afterwards appends continue after the last
// intact frame.
func (l *inputLog) replay() ([]sample.Sample, error) {
	var out []sample.Sample
	l.current = 0
	for i, f := range l.files {
		samples, end, err := readFrames(f)
		if err != nil {
			return nil, fmt.Errorf("failed to replay %s: %w", f.Name(), err)
		}
		if err := f.Truncate(end); err != nil {
			return nil, err
		}
		if _, err := f.Seek(end, io.SeekStart); err != nil {
			return nil, err
		}

		l.counts[i] = uint32(len(samples)) //nolint:gosec
		if len(samples) > 0 {
			l.current = i
		}
		out = append(out, samples...)
	}
	if l.counts[l.current] >= l.perVolume && l.current < len(l.files)-1 {
		l.current++
	}

	return out, nil
}

func readFrames(f *os.File) ([]sample.Sample, int64, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, 0, err
	}

	var (
		out    []sample.Sample
		offset int64
		header [frameHeaderSize]byte
	)
	r := bufio.NewReader(f)
	le := endian.LittleEngine()
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return out, offset, nil
		}
		n := le.Uint32(header[0:4])
		sum := le.Uint64(header[4:12])
		if n == 0 || n > maxFrameSize {
			return out, offset, nil
		}

		block := make([]byte, n)
		if _, err := io.ReadFull(r, block); err != nil {
			return out, offset, nil
		}
		if !hash.Verify(block, sum) {
			return out, offset, nil
		}

		raw, err := snappy.Decode(nil, block)
		if err != nil {
			return out, offset, nil
		}
		s, err := sample.Parse(raw, le)
		if err != nil {
			return out, offset, nil
		}

		out = append(out, s)
		offset += frameHeaderSize + int64(n)
	}
}

func (l *inputLog) full() bool {
	return l.current == len(l.files)-1 && l.counts[l.current] >= l.perVolume
}

// append writes s as one frame.
func (l *inputLog) append(s sample.Sample) error {
	if l.counts[l.current] >= l.perVolume {
		if l.current == len(l.files)-1 {
			return errLogFull
		}
		l.current++
	}

	raw := pool.GetFrameBuffer()
	defer pool.PutFrameBuffer(raw)
	raw.B = s.AppendTo(raw.B, endian.LittleEngine())

	block := snappy.Encode(nil, raw.Bytes())
	frame := make([]byte, frameHeaderSize, frameHeaderSize+len(block))
	le := endian.LittleEngine()
	le.PutUint32(frame[0:4], uint32(len(block))) //nolint:gosec
	le.PutUint64(frame[4:12], hash.Sum(block))
	frame = append(frame, block...)

	if _, err := l.files[l.current].Write(frame); err != nil {
		return err
	}
	l.counts[l.current]++

	return nil
}

// reset drops every frame. Called once the buffered samples are on disk.
func (l *inputLog) reset() error {
	for i, f := range l.files {
		if err := f.Truncate(0); err != nil {
			return err
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		l.counts[i] = 0
	}
	l.current = 0

	return nil
}

func (l *inputLog) sync() error {
	var errs []error
	for _, f := range l.files {
		errs = append(errs, f.Sync())
	}

	return errors.Join(errs...)
}

func (l *inputLog) close() error {
	var errs []error
	for _, f := range l.files {
		errs = append(errs, f.Close())
	}
	l.files = nil

	return errors.Join(errs...)
}
