package dataset

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/quantboard-lab/quantboard/internal/types"
	"github.com/quantboard-lab/quantboard/pkg/errors"
)

type memoryDataset struct {
	columns []string
	rows    []types.Row
}

// MemoryStore is an in-memory Store used in tests and as an embedding
// building block.
type MemoryStore struct {
	datasets map[string]*memoryDataset
	mu       sync.RWMutex
}

// NewMemoryStore creates an empty in-memory dataset store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		datasets: make(map[string]*memoryDataset),
		mu:       sync.RWMutex{},
	}
}

// Load replaces the dataset's content with the given rows. Column order
// follows first occurrence across the provided column list.
func (s *MemoryStore) Load(datasetID string, columns []string, rows []types.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]types.Row, len(rows))
	for i, row := range rows {
		copied[i] = maps.Clone(row)
	}

	s.datasets[datasetID] = &memoryDataset{
		columns: slices.Clone(columns),
		rows:    copied,
	}
}

func (s *MemoryStore) get(datasetID string) (*memoryDataset, error) {
	ds, ok := s.datasets[datasetID]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeDatasetNotFound, "dataset %s not found", datasetID)
	}

	return ds, nil
}

// ReadAll implements Store.
func (s *MemoryStore) ReadAll(_ context.Context, datasetID string) ([]types.Row, []string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, err := s.get(datasetID)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]types.Row, len(ds.rows))
	for i, row := range ds.rows {
		rows[i] = maps.Clone(row)
	}

	return rows, slices.Clone(ds.columns), nil
}

// Columns implements Store.
func (s *MemoryStore) Columns(_ context.Context, datasetID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, err := s.get(datasetID)
	if err != nil {
		return nil, err
	}

	return slices.Clone(ds.columns), nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context, datasetID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, err := s.get(datasetID)
	if err != nil {
		return 0, err
	}

	return len(ds.rows), nil
}

// WriteColumn implements Store.
func (s *MemoryStore) WriteColumn(_ context.Context, datasetID, name string, values []*float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeColumnLocked(datasetID, name, values)
}

// WriteGroupColumns implements Store.
func (s *MemoryStore) WriteGroupColumns(_ context.Context, datasetID, group string, values map[string][]*float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, output := range slices.Sorted(maps.Keys(values)) {
		if err := s.writeColumnLocked(datasetID, types.GroupColumn(group, output), values[output]); err != nil {
			return err
		}
	}

	return nil
}

func (s *MemoryStore) writeColumnLocked(datasetID, name string, values []*float64) error {
	ds, err := s.get(datasetID)
	if err != nil {
		return err
	}

	if len(values) != len(ds.rows) {
		return errors.Newf(errors.ErrCodeColumnLengthMismatch,
			"column %q has %d values for %d rows", name, len(values), len(ds.rows))
	}

	if !slices.Contains(ds.columns, name) {
		ds.columns = append(ds.columns, name)
	}

	for i, value := range values {
		if value == nil {
			ds.rows[i][name] = nil
		} else {
			ds.rows[i][name] = *value
		}
	}

	return nil
}
