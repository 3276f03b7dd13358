package store

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu      sync.RWMutex
	samples map[string]Sample
}

func NewMemory() *MemoryStore {
	return &MemoryStore{samples: make(map[string]Sample)}
}

func (m *MemoryStore) Insert(_ context.Context, samples []Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range samples {
		m.samples[s.Key()] = s
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, dataType string, from, to int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, s := range m.samples {
		if s.DataType == dataType && s.Within(from, to) {
			delete(m.samples, k)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Query(_ context.Context, dataType string, from, to int64) ([]Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Sample, 0)
	for _, s := range m.samples {
		if s.DataType == dataType && s.Within(from, to) {
			out = append(out, s)
		}
	}
	sortSamples(out)
	return out, nil
}

func (m *MemoryStore) All(_ context.Context) ([]Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Sample, 0, len(m.samples))
	for _, s := range m.samples {
		out = append(out, s)
	}
	sortSamples(out)
	return out, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.samples = make(map[string]Sample)
	m.mu.Unlock()
	return nil
}
