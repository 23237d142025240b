package appcontext

import (
	"context"

	"github.com/mc2-center/mc2-data-models/internal/sources"
	"github.com/mc2-center/mc2-data-models/pkg/vocabulary"
)

// LoadValueSets reads a value-set table and returns a vocabulary cache
// over it. sheet is ignored for delimited files.
func LoadValueSets(path, sheet string, opts ...vocabulary.Option) (*vocabulary.Cache, error) {
	t, err := sources.NewFile("value_sets", path, sources.WithSheet(sheet)).Load(context.Background())
	if err != nil {
		return nil, err
	}
	return vocabulary.NewCache(t, opts...), nil
}
