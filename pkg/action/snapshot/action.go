package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/cmmoran/phptestgen/internal/output"
	"github.com/cmmoran/phptestgen/pkg/generator"
	"github.com/cmmoran/phptestgen/pkg/manifest"
)

// Record appends the changes of a run to the manifest configured in opts.
// Dry runs and runs without a manifest path record nothing.
func Record(fsys afero.Fs, opts *generator.Options, command string, at time.Time, changes []output.Change) (manifest.Run, error) {
	if opts.DryRun || opts.Manifest == "" {
		return manifest.Run{}, nil
	}
	m, err := manifest.Load(fsys, opts.Manifest)
	if err != nil {
		return manifest.Run{}, err
	}

	files := make([]manifest.FileChange, 0, len(changes))
	for _, c := range changes {
		files = append(files, manifest.FileChange{Path: c.Path, Action: string(c.Kind)})
	}
	run := manifest.NewRun(command, opts.MockBackend, opts.ProjectNamespace, at, files)
	m.AddRun(run, opts.ManifestHistory)

	if err := m.Save(fsys, opts.Manifest); err != nil {
		return manifest.Run{}, err
	}
	return run, nil
}

// List returns all runs recorded in the manifest.
func List(fsys afero.Fs, manifestPath string) (*manifest.Manifest, error) {
	return manifest.Load(fsys, manifestPath)
}

// DiffLastRuns compares the files touched by the last two recorded runs.
func DiffLastRuns(fsys afero.Fs, manifestPath string) (string, error) {
	m, err := manifest.Load(fsys, manifestPath)
	if err != nil {
		return "", err
	}

	current, ok := m.Last(0)
	previous, okPrev := m.Last(1)
	if !ok || !okPrev {
		return "", fmt.Errorf("no current/previous runs recorded")
	}

	return cmp.Diff(previous.Files, current.Files), nil
}

// Reflection indexes the project and writes its reflection dump to path.
func Reflection(ctx context.Context, opts *generator.Options, path string) (int, error) {
	g, err := generator.New(ctx, opts, nil, nil)
	if err != nil {
		return 0, err
	}
	if err := g.Dump(path); err != nil {
		return 0, err
	}
	return g.Registry().Len(), nil
}
