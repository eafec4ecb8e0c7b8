package catalog

import (
	"sync"

	"github.com/quantboard-lab/quantboard/internal/types"
	"github.com/quantboard-lab/quantboard/pkg/errors"
)

// Catalog holds the full set of known indicators. List returns indicators in
// insertion order, which makes dependency-free ordering deterministic for the
// topological sorter.
type Catalog interface {
	// List returns all indicators in insertion order.
	List() []types.Indicator
	// Get retrieves an indicator by id.
	Get(id string) (types.Indicator, bool)
	// Put inserts a new indicator or replaces an existing one in place.
	Put(indicator types.Indicator) error
	// Remove deletes an indicator by id.
	Remove(id string) error
	// Len returns the number of indicators.
	Len() int
}

// MemoryCatalog is an in-memory, insertion-ordered Catalog. Graph operations
// treat one MemoryCatalog as an internally consistent snapshot for the
// duration of a call.
type MemoryCatalog struct {
	order []string
	byID  map[string]types.Indicator
	mu    sync.RWMutex
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		order: nil,
		byID:  make(map[string]types.Indicator),
		mu:    sync.RWMutex{},
	}
}

// NewMemoryCatalogWith creates an in-memory catalog pre-populated with the
// given indicators, preserving their order.
func NewMemoryCatalogWith(indicators ...types.Indicator) (*MemoryCatalog, error) {
	c := NewMemoryCatalog()
	for _, indicator := range indicators {
		if err := c.Put(indicator); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// List implements Catalog.
func (c *MemoryCatalog) List() []types.Indicator {
	c.mu.RLock()
	defer c.mu.RUnlock()

	indicators := make([]types.Indicator, 0, len(c.order))
	for _, id := range c.order {
		indicators = append(indicators, c.byID[id])
	}

	return indicators
}

// Get implements Catalog.
func (c *MemoryCatalog) Get(id string) (types.Indicator, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	indicator, ok := c.byID[id]

	return indicator, ok
}

// Put implements Catalog. Replacing an existing indicator keeps its position.
func (c *MemoryCatalog) Put(indicator types.Indicator) error {
	if indicator.ID == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "indicator id is empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[indicator.ID]; !exists {
		c.order = append(c.order, indicator.ID)
	}

	c.byID[indicator.ID] = indicator

	return nil
}

// Remove implements Catalog.
func (c *MemoryCatalog) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[id]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", id)
	}

	delete(c.byID, id)

	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)

			break
		}
	}

	return nil
}

// Len implements Catalog.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byID)
}
