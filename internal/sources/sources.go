// Package sources loads the materialized inputs of a release (merged
// assay metadata, clinical tables, value-set workbooks) into tables.
//
// Each input is a Source identified by the name the release config gives
// it. Sources are loaded concurrently and kept in a Sources container:
//
//	srcs := sources.NewSources()
//	srcs.Set(sources.NewFile("files", "exports/files.csv"))
//	srcs.Set(sources.NewFile("value_sets", "templates/CDS.xlsx", sources.WithSheet("Terms and Value Sets")))
//	tables, err := sources.LoadAll(ctx, srcs.List()...)
package sources

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/logging"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// ID is the name a release gives to one of its inputs.
type ID string

// String returns the string representation of a source ID.
func (id ID) String() string {
	return string(id)
}

// Source produces one table.
type Source interface {
	// ID returns the name of this source
	ID() ID

	// Load reads the source into a table
	Load(ctx context.Context) (*table.Table, error)
}

// Sources is a thread-safe container of sources keyed by ID.
type Sources struct {
	mu      sync.RWMutex
	sources map[ID]Source
}

// NewSources creates an empty container.
func NewSources() *Sources {
	return &Sources{sources: make(map[ID]Source)}
}

// Get returns a source by ID.
func (s *Sources) Get(id ID) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, found := s.sources[id]
	return src, found
}

// Set adds or replaces a source.
func (s *Sources) Set(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[src.ID()] = src
}

// Len returns the number of sources.
func (s *Sources) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// List returns every source, sorted by ID.
func (s *Sources) List() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Source, 0, len(s.sources))
	for _, src := range s.sources {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// IDs returns every source ID, sorted.
func (s *Sources) IDs() []ID {
	list := s.List()
	ids := make([]ID, len(list))
	for i, src := range list {
		ids[i] = src.ID()
	}
	return ids
}

// Tables holds loaded tables by source ID.
type Tables map[ID]*table.Table

// Get returns the table of a source, or a not found error.
func (t Tables) Get(id ID) (*table.Table, error) {
	tbl, ok := t[id]
	if !ok {
		return nil, errors.NewResourceError("find", "source", id.String(), errors.ErrNotFound)
	}
	return tbl, nil
}

// LoadAll loads every source concurrently. The first failure cancels the
// remaining loads.
func LoadAll(ctx context.Context, srcs ...Source) (Tables, error) {
	results := make([]*table.Table, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		g.Go(func() error {
			t, err := src.Load(ctx)
			if err != nil {
				return errors.WrapResource("load", "source", src.ID().String(), err)
			}
			logging.FromContext(ctx).Debug().
				Str("source", src.ID().String()).
				Int("rows", t.Len()).
				Int("columns", t.Width()).
				Msg("Source loaded")
			results[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(Tables, len(srcs))
	for i, src := range srcs {
		out[src.ID()] = results[i]
	}
	return out, nil
}

// Static is a Source over a table already in memory.
type Static struct {
	id    ID
	table *table.Table
}

// NewStatic creates a source that always returns t.
func NewStatic(id ID, t *table.Table) *Static {
	return &Static{id: id, table: t}
}

// ID returns the source ID.
func (s *Static) ID() ID { return s.id }

// Load returns the wrapped table.
func (s *Static) Load(context.Context) (*table.Table, error) {
	if s.table == nil {
		return table.Empty(), nil
	}
	return s.table, nil
}
