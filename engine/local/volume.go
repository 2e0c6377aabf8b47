package local

import (
	"errors"
	"fmt"
	"os"
)

var (
	errVolumeFull = errors.New("volume is full")
	errBadPage    = errors.New("page index out of range")
)

// volume is a fixed-capacity file of pageSize pages. Pages are appended until
// the volume is full; a recycled volume starts over at page 0 with its
// generation bumped.
type volume struct {
	info     volumeInfo
	file     *os.File
	pageSize int
}

// createVolume creates the file of a new volume. With allocate the file is
// sized to its full capacity up front.
func createVolume(path string, capacity uint32, pageSize int, allocate bool) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if allocate {
		if err := f.Truncate(int64(capacity) * int64(pageSize)); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to allocate volume %s: %w", path, err)
		}
	}

	return f.Close()
}

func openVolume(info volumeInfo, pageSize int) (*volume, error) {
	f, err := os.OpenFile(info.Path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	return &volume{info: info, file: f, pageSize: pageSize}, nil
}

func (v *volume) full() bool {
	return v.info.NBlocks >= v.info.Capacity
}

// append writes page at the next free slot and returns its index.
func (v *volume) append(page []byte) (uint32, error) {
	if len(page) != v.pageSize {
		return 0, fmt.Errorf("page of %d bytes in volume with %d byte pages", len(page), v.pageSize)
	}
	if v.full() {
		return 0, errVolumeFull
	}

	idx := v.info.NBlocks
	if _, err := v.file.WriteAt(page, int64(idx)*int64(v.pageSize)); err != nil {
		return 0, err
	}
	v.info.NBlocks++

	return idx, nil
}

// read returns the page at idx.
func (v *volume) read(idx uint32) ([]byte, error) {
	if idx >= v.info.NBlocks {
		return nil, fmt.Errorf("%w: %d of %d", errBadPage, idx, v.info.NBlocks)
	}

	page := make([]byte, v.pageSize)
	if _, err := v.file.ReadAt(page, int64(idx)*int64(v.pageSize)); err != nil {
		return nil, err
	}

	return page, nil
}

// recycle makes the volume reusable from page 0 as generation gen.
func (v *volume) recycle(gen uint64) {
	v.info.Generation = gen
	v.info.NBlocks = 0
}

func (v *volume) sync() error {
	return v.file.Sync()
}

func (v *volume) close() error {
	return v.file.Close()
}
