package local

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeriesMatcher_Resolve(t *testing.T) {
	persisted := make(map[uint64]string)
	m := newSeriesMatcher(nil, func(id uint64, name string) error {
		persisted[id] = name
		return nil
	})

	id, created, err := m.resolve("cpu host=a")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, uint64(firstSeriesID), id)

	again, created, err := m.resolve("cpu host=a")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, id, again)

	other, _, err := m.resolve("cpu host=b")
	require.NoError(t, err)
	require.Equal(t, id+1, other)

	require.True(t, m.known(id))
	require.False(t, m.known(id+2))
	require.Equal(t, map[uint64]string{1024: "cpu host=a", 1025: "cpu host=b"}, persisted)

	name, ok := m.name(other)
	require.True(t, ok)
	require.Equal(t, "cpu host=b", name)
}

func TestSeriesMatcher_Known(t *testing.T) {
	m := newSeriesMatcher(map[string]uint64{"a x=1": 1024, "b x=1": 2000}, nil)
	require.Equal(t, 2, m.size())

	id, created, err := m.resolve("b x=1")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, uint64(2000), id)

	id, created, err = m.resolve("c x=1")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, uint64(2001), id)
}

func TestSeriesMatcher_PersistFailure(t *testing.T) {
	fail := errors.New("disk full")
	m := newSeriesMatcher(nil, func(uint64, string) error { return fail })

	_, _, err := m.resolve("cpu host=a")
	require.ErrorIs(t, err, fail)
	require.Zero(t, m.size())
	require.False(t, m.known(firstSeriesID))
}

func TestSeriesMatcher_Concurrent(t *testing.T) {
	m := newSeriesMatcher(nil, nil)

	const workers = 8
	ids := make([][]uint64, workers)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				id, _, err := m.resolve(fmt.Sprintf("m k=%d", i))
				if err != nil {
					return
				}
				ids[w] = append(ids[w], id)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 50, m.size())
	for w := 1; w < workers; w++ {
		require.Equal(t, ids[0], ids[w])
	}
}
