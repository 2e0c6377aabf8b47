package local

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// firstSeriesID is the first param id handed out. Lower ids are reserved.
const firstSeriesID = 1024

// seriesMatcher maps canonical series names to param ids. Lookups are lock
// free; assignment is serialized and persisted before the id is published.
type seriesMatcher struct {
	byName *xsync.MapOf[string, uint64]
	byID   *xsync.MapOf[uint64, string]

	mu      sync.Mutex
	next    uint64
	persist func(id uint64, name string) error
}

func newSeriesMatcher(known map[string]uint64, persist func(uint64, string) error) *seriesMatcher {
	m := &seriesMatcher{
		byName:  xsync.NewMapOf[string, uint64](),
		byID:    xsync.NewMapOf[uint64, string](),
		next:    firstSeriesID,
		persist: persist,
	}
	for name, id := range known {
		m.byName.Store(name, id)
		m.byID.Store(id, name)
		if id >= m.next {
			m.next = id + 1
		}
	}

	return m
}

// resolve returns the id of name, assigning a new one if it is unknown.
// created reports whether the id was assigned by this call.
func (m *seriesMatcher) resolve(name string) (id uint64, created bool, err error) {
	if id, ok := m.byName.Load(name); ok {
		return id, false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byName.Load(name); ok {
		return id, false, nil
	}

	id = m.next
	if m.persist != nil {
		if err := m.persist(id, name); err != nil {
			return 0, false, err
		}
	}
	m.next++
	m.byID.Store(id, name)
	m.byName.Store(name, id)

	return id, true, nil
}

func (m *seriesMatcher) known(id uint64) bool {
	_, ok := m.byID.Load(id)
	return ok
}

func (m *seriesMatcher) name(id uint64) (string, bool) {
	return m.byID.Load(id)
}

func (m *seriesMatcher) size() int {
	return m.byName.Size()
}
