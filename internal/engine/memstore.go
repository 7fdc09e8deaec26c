package engine

import (
	"log/slog"
	"sync"

	"github.com/celerix-dev/celerix-extract/pkg/schema"
)

// MemStore is the thread-safe in-memory job history.
type MemStore struct {
	mu        sync.RWMutex
	jobs      map[string]schema.Job
	order     []string // insertion order of job IDs
	persister *Persistence
	wg        sync.WaitGroup
}

// NewMemStore initializes a store.
// It accepts existing jobs (from LoadAll, oldest first) and a persister.
func NewMemStore(initial []schema.Job, p *Persistence) *MemStore {
	m := &MemStore{
		jobs:      make(map[string]schema.Job, len(initial)),
		persister: p,
	}
	for _, job := range initial {
		if _, ok := m.jobs[job.ID]; !ok {
			m.order = append(m.order, job.ID)
		}
		m.jobs[job.ID] = job
	}
	return m
}

// Wait waits for all background persistence tasks to complete.
func (m *MemStore) Wait() {
	m.wg.Wait()
}

func (m *MemStore) Put(job schema.Job) error {
	if job.ID == "" {
		return ErrInvalidJob
	}

	m.mu.Lock()
	if _, ok := m.jobs[job.ID]; !ok {
		m.order = append(m.order, job.ID)
	}
	m.jobs[job.ID] = job
	m.mu.Unlock()

	// Persist in background
	if m.persister != nil {
		m.wg.Add(1)
		go func(j schema.Job) {
			defer m.wg.Done()
			if err := m.persister.SaveJob(j); err != nil {
				slog.Warn("could not persist job", "job", j.ID, "error", err)
			}
		}(job)
	}
	return nil
}

func (m *MemStore) Get(id string) (schema.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return schema.Job{}, ErrJobNotFound
	}
	return job, nil
}

func (m *MemStore) List() []schema.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]schema.Job, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		list = append(list, m.jobs[m.order[i]])
	}
	return list
}

// Len returns the number of jobs held.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}
