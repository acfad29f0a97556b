package reflection

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
)

// Source selects what goes into a registry.
type Source struct {
	Include []string
	Exclude []string
	// Dump is an optional YAML reflection dump merged over the parsed sources.
	Dump string
}

// Build assembles a registry from the builtin stubs, the sources matched by
// src and an optional dump. Files that cannot be indexed are logged and left out.
func (i *Indexer) Build(ctx context.Context, src Source) (*Registry, []FileIndex, error) {
	builtins, err := Builtins()
	if err != nil {
		return nil, nil, err
	}
	reg := NewRegistry(builtins...)

	files, err := i.Discover(src.Include, src.Exclude)
	if err != nil {
		return nil, nil, fmt.Errorf("discover sources: %w", err)
	}
	indexes, errs := i.Index(ctx, files)
	for _, e := range errs {
		i.logger.Warn("skipping source", "path", e.Path, "error", e.Err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	for _, idx := range indexes {
		reg.Add(idx.Classes...)
	}

	if src.Dump != "" {
		dumped, err := LoadDump(i.fs, src.Dump)
		if err != nil {
			return nil, nil, err
		}
		reg.Add(dumped...)
	}
	i.logger.Debug("reflection registry built", "classes", reg.Len())
	return reg, indexes, nil
}

// Fs exposes the filesystem the indexer reads from.
func (i *Indexer) Fs() afero.Fs { return i.fs }
