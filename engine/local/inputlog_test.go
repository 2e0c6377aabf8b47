package local

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/expenses/akumuli-go/sample"
)

func TestInputLog_AppendReplay(t *testing.T) {
	base := filepath.Join(t.TempDir(), "log.log")

	l, err := openInputLog(base, 10, 2)
	require.NoError(t, err)
	replayed, err := l.replay()
	require.NoError(t, err)
	require.Empty(t, replayed)

	want := randomSamples(15, 11)
	for _, s := range want {
		require.NoError(t, l.append(s))
	}
	require.NoError(t, l.sync())
	require.NoError(t, l.close())

	for i := range 2 {
		_, err := os.Stat(logVolumeName(base, i))
		require.NoError(t, err)
	}

	l, err = openInputLog(base, 10, 2)
	require.NoError(t, err)
	defer l.close()

	replayed, err = l.replay()
	require.NoError(t, err)
	require.Equal(t, want, replayed)
	require.Equal(t, 1, l.current)

	// appends continue where the log left off
	extra := sample.NewFloat(42, 1024, 4.2)
	require.NoError(t, l.append(extra))
	require.Equal(t, []uint32{10, 6}, l.counts)
}

func TestInputLog_Full(t *testing.T) {
	l, err := openInputLog(filepath.Join(t.TempDir(), "wal"), 2, 2)
	require.NoError(t, err)
	defer l.close()
	_, err = l.replay()
	require.NoError(t, err)

	for _, s := range randomSamples(4, 5) {
		require.False(t, l.full())
		require.NoError(t, l.append(s))
	}
	require.True(t, l.full())
	require.ErrorIs(t, l.append(sample.NewFloat(1, 1024, 1)), errLogFull)

	require.NoError(t, l.reset())
	require.False(t, l.full())
	require.NoError(t, l.append(sample.NewFloat(1, 1024, 1)))
}

func TestInputLog_TornFrame(t *testing.T) {
	base := filepath.Join(t.TempDir(), "wal")
	l, err := openInputLog(base, 100, 1)
	require.NoError(t, err)
	_, err = l.replay()
	require.NoError(t, err)

	want := randomSamples(3, 9)
	for _, s := range want {
		require.NoError(t, l.append(s))
	}
	require.NoError(t, l.close())

	// simulate a crash in the middle of a fourth frame
	f, err := os.OpenFile(logVolumeName(base, 0), os.O_WRONLY|os.O_APPEND, 0)
	require.NoError(t, err)
	_, err = f.Write([]byte{40, 0, 0, 0, 1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l, err = openInputLog(base, 100, 1)
	require.NoError(t, err)
	defer l.close()

	replayed, err := l.replay()
	require.NoError(t, err)
	require.Equal(t, want, replayed)

	// the torn tail is cut off so new frames stay readable
	next := sample.NewFloat(7, 1030, 7)
	require.NoError(t, l.append(next))
	got, _, err := readFrames(l.files[0])
	require.NoError(t, err)
	require.Equal(t, append(want, next), got)
}

func TestInputLog_InvalidGeometry(t *testing.T) {
	_, err := openInputLog(filepath.Join(t.TempDir(), "wal"), 0, 1)
	require.Error(t, err)
}
