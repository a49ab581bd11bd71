// Package store provides in-memory sheet.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/carecheck/attendance-engine/sheet"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/CLI)
// =============================================================================

// Memory keeps uploads in a map guarded by a RWMutex.
type Memory struct {
	mu      sync.RWMutex
	uploads map[string]sheet.Upload
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{uploads: make(map[string]sheet.Upload)}
}

// Save stores a copy of the upload, replacing one with the same id.
func (m *Memory) Save(_ context.Context, u sheet.Upload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads[u.ID] = cloneUpload(u)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (sheet.Upload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.uploads[id]
	if !ok {
		return sheet.Upload{}, sheet.ErrUploadNotFound
	}
	return cloneUpload(u), nil
}

func (m *Memory) List(_ context.Context, facilityID string) ([]sheet.UploadInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []sheet.UploadInfo
	for _, u := range m.uploads {
		if facilityID != "" && u.FacilityID != facilityID {
			continue
		}
		result = append(result, u.Info())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.uploads[id]; !ok {
		return sheet.ErrUploadNotFound
	}
	delete(m.uploads, id)
	return nil
}

func (m *Memory) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, u := range m.uploads {
		if u.CreatedAt.Before(cutoff) {
			delete(m.uploads, id)
			n++
		}
	}
	return n, nil
}

// rows are copied so callers cannot mutate stored data
func cloneUpload(u sheet.Upload) sheet.Upload {
	rows := make([]sheet.Row, len(u.Rows))
	for i, r := range u.Rows {
		rows[i] = append(sheet.Row(nil), r...)
	}
	u.Rows = rows
	return u
}
