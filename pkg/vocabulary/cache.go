package vocabulary

import (
	"sync"

	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// Provider supplies the vocabulary for a target attribute.
type Provider interface {
	Vocabulary(attribute string) (*Vocabulary, error)
}

type cacheEntry struct {
	once  sync.Once
	vocab *Vocabulary
	err   error
}

// Cache builds each attribute's vocabulary from one value-set table at
// most once. It is safe for concurrent use.
type Cache struct {
	valueSets *table.Table
	opts      []Option

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

var _ Provider = (*Cache)(nil)

// NewCache creates a cache over valueSets. opts apply to every build.
func NewCache(valueSets *table.Table, opts ...Option) *Cache {
	return &Cache{
		valueSets: valueSets,
		opts:      opts,
		entries:   make(map[string]*cacheEntry),
	}
}

// Vocabulary returns the vocabulary for attribute, building it on first use.
// Build failures are cached too.
func (c *Cache) Vocabulary(attribute string) (*Vocabulary, error) {
	c.mu.Lock()
	e, ok := c.entries[attribute]
	if !ok {
		e = &cacheEntry{}
		c.entries[attribute] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.vocab, e.err = Build(c.valueSets, attribute, c.opts...)
	})
	return e.vocab, e.err
}

// Table returns the underlying value-set table.
func (c *Cache) Table() *table.Table {
	return c.valueSets
}

// Names returns the value set names in the underlying table.
func (c *Cache) Names() ([]string, error) {
	return Names(c.valueSets, c.opts...)
}
