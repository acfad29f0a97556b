package generate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cmmoran/phptestgen/internal/output"
	"github.com/cmmoran/phptestgen/pkg/action/snapshot"
	"github.com/cmmoran/phptestgen/pkg/generator"
)

// Class generates the tests of the named classes (FQNs or file paths).
func Class(ctx context.Context, opts *generator.Options, out io.Writer, targets ...string) error {
	return run(ctx, opts, out, "class", func(g *generator.Generator) ([]generator.Result, error) {
		var results []generator.Result
		for _, t := range targets {
			res, err := g.Class(ctx, t)
			if err != nil {
				return results, fmt.Errorf("class %s: %w", t, err)
			}
			results = append(results, res)
		}
		return results, nil
	})
}

// Project generates the tests of every class under the configured sources.
func Project(ctx context.Context, opts *generator.Options, out io.Writer) error {
	return run(ctx, opts, out, "project", func(g *generator.Generator) ([]generator.Result, error) {
		return g.Project(ctx)
	})
}

func run(ctx context.Context, opts *generator.Options, out io.Writer, command string, do func(*generator.Generator) ([]generator.Result, error)) error {
	started := time.Now()
	g, err := generator.New(ctx, opts, nil, slog.Default())
	if err != nil {
		return err
	}

	results, err := do(g)
	for _, r := range results {
		fmt.Fprintln(out, r.String())
	}
	// Files of classes finished before a failure are kept and recorded.
	changes := g.Changes()
	if opts.DryRun {
		report(out, changes)
	}
	if _, recErr := snapshot.Record(g.Store().Fs(), opts, command, started, changes); recErr != nil {
		slog.Default().Warn("run not recorded", "manifest", opts.Manifest, "error", recErr)
	}
	slog.Default().Debug("run finished", "command", command, "results", len(results), "changes", len(changes), "elapsed", time.Since(started))
	return err
}

func report(out io.Writer, changes []output.Change) {
	for _, c := range changes {
		if c.Kind == output.Skipped {
			continue
		}
		fmt.Fprintf(out, "--- %s (%s)\n%s", c.Path, c.Kind, c.Diff())
	}
}
