package job

import (
	"sync"

	"github.com/bkolar18/wedding-scraper/internal/model"
)

// MemoryStore keeps jobs in process memory. Snapshots are copied on both
// paths so executors and pollers never share a struct.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]model.ScrapeJob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]model.ScrapeJob)}
}

func (m *MemoryStore) Save(j *model.ScrapeJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = *j
	return nil
}

func (m *MemoryStore) Get(id string) (*model.ScrapeJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &j, nil
}
