package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"picking-verification-backend/internal/apperrors"
)

// MemoryStore keeps the table in process. Used for local runs and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	lines     [][]string
	snapshots map[string][][]string
}

func NewMemoryStore(lines ...[]string) *MemoryStore {
	return &MemoryStore{
		lines:     copyGrid(lines),
		snapshots: make(map[string][][]string),
	}
}

func (m *MemoryStore) ReadAll(_ context.Context) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyGrid(m.lines), nil
}

func (m *MemoryStore) AppendRows(_ context.Context, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, copyGrid(rows)...)
	return nil
}

func (m *MemoryStore) DeleteRows(_ context.Context, column, value string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.lines) == 0 {
		return 0, nil
	}
	idx := columnIndex(m.lines[0], column)
	if idx < 0 {
		return 0, fmt.Errorf("column %q not in store header", column)
	}

	kept := [][]string{m.lines[0]}
	removed := 0
	for _, line := range m.lines[1:] {
		if cell(line, idx) == value {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	m.lines = kept
	return removed, nil
}

func (m *MemoryStore) CreateSnapshot(_ context.Context, name string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.snapshots[name]; ok {
		return fmt.Errorf("%w: %s", apperrors.ErrSnapshotExists, name)
	}
	m.snapshots[name] = copyGrid(rows)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = nil
	return nil
}

func (m *MemoryStore) Snapshot(_ context.Context, name string) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snapshots[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSnapshotNotFound, name)
	}
	return copyGrid(s), nil
}

func (m *MemoryStore) Snapshots(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.snapshots)), nil
}
