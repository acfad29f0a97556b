package mock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmmoran/phptestgen/internal/layout"
	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/output"
	"github.com/cmmoran/phptestgen/internal/phpval"
	"github.com/cmmoran/phptestgen/internal/render"
	"github.com/cmmoran/phptestgen/internal/scanner"
)

// Writer flushes descriptors into their mock helper traits.
type Writer struct {
	Layout  layout.Layout
	Store   *output.Store
	Render  *render.Registry
	Backend Backend
	Clock   render.Clock
}

// bucket is one trait file with the descriptors it receives.
type bucket struct {
	target layout.Target
	mocks  []*Descriptor
}

// group buckets descriptors by trait, keeping discovery order.
func (w *Writer) group(descriptors []*Descriptor) []*bucket {
	var out []*bucket
	byPath := map[string]*bucket{}
	for _, d := range descriptors {
		t := w.Layout.MockTrait(d.Class)
		b, ok := byPath[t.Path]
		if !ok {
			b = &bucket{target: t}
			byPath[t.Path] = b
			out = append(out, b)
		}
		b.mocks = append(b.mocks, d)
	}
	return out
}

// Write merges the helper methods of descriptors into their traits and
// returns the traits a test using these mocks must include. Helpers already
// present in a trait are left untouched.
func (w *Writer) Write(ctx context.Context, descriptors []*Descriptor) ([]layout.Target, error) {
	var targets []layout.Target
	for _, b := range w.group(descriptors) {
		targets = append(targets, b.target)

		existing, err := w.existingMethods(ctx, b.target.Path)
		if err != nil {
			return nil, err
		}
		var members strings.Builder
		for _, d := range b.mocks {
			if existing[strings.ToLower(d.MethodName)] {
				continue
			}
			existing[strings.ToLower(d.MethodName)] = true
			code, err := w.Render.Render(render.MockMethod, render.MockMethodVars{
				Class:           d.Class,
				MethodName:      d.MethodName,
				ReturnInterface: w.Backend.ReturnInterface(),
				Args:            phpval.ExportInline(d.Args),
				Times:           phpval.ExportInline(d.Times),
				Body:            d.Setup,
			})
			if err != nil {
				return nil, err
			}
			members.WriteString(code)
		}
		if members.Len() == 0 {
			w.Store.Skip(b.target.Path)
			continue
		}
		if err := w.Store.Merge(ctx, b.target.Path, members.String(), w.document(b.target)); err != nil {
			return nil, fmt.Errorf("write mock helper %s: %w", b.target.FQN(), err)
		}
	}
	return targets, nil
}

func (w *Writer) existingMethods(ctx context.Context, path string) (map[string]bool, error) {
	names := map[string]bool{}
	src, err := w.Store.ReadFile(path)
	if errors.Is(err, model.ErrFileNotExists) {
		return names, nil
	}
	if err != nil {
		return nil, err
	}
	found, err := scanner.ScanMethodNames(ctx, []byte(src))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	for _, n := range found {
		names[strings.ToLower(n)] = true
	}
	return names, nil
}

func (w *Writer) document(t layout.Target) func(string) (string, error) {
	return func(members string) (string, error) {
		return w.Render.Render(render.MockTrait, render.MockTraitVars{
			Stamp:     render.StampOf(w.Clock),
			Namespace: t.Namespace,
			Name:      t.Name,
			Bucket:    t.Namespace,
			Methods:   members,
		})
	}
}
