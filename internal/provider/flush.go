package provider

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

// Writer flushes assembled entries into provider classes.
type Writer struct {
	Store  *output.Store
	Render *render.Registry
	Clock  render.Clock
}

// Flush writes every collected provider method that its file does not hold
// yet and returns the providers touched. Entries are kept.
func (a *Assembler) Flush(ctx context.Context, w Writer) ([]layout.Target, error) {
	var targets []layout.Target
	for _, k := range a.order {
		e := a.entries[k]
		targets = append(targets, e.target)

		existing, err := existingMethods(ctx, w.Store, e.target.Path)
		if err != nil {
			return nil, err
		}
		var members strings.Builder
		for _, name := range e.ordered() {
			if existing[strings.ToLower(name)] {
				continue
			}
			existing[strings.ToLower(name)] = true

			rows := make([]any, 0, a.opts.DataSets)
			for _, set := range e.merged(name, a.opts.DataSets) {
				rows = append(rows, set.export())
			}
			code, err := w.Render.Render(render.DataProviderMethod, render.DataProviderMethodVars{
				Name:   name,
				Method: e.describe(name),
				Data:   phpval.Indent(phpval.Export(rows), "        "),
			})
			if err != nil {
				return nil, err
			}
			members.WriteString(code)
		}
		if members.Len() == 0 {
			w.Store.Skip(e.target.Path)
			continue
		}
		a.logger.Debug("writing data provider", "class", e.class, "provider", e.target.FQN())
		if err := w.Store.Merge(ctx, e.target.Path, members.String(), w.document(e)); err != nil {
			return nil, fmt.Errorf("write data provider %s: %w", e.target.FQN(), err)
		}
	}
	return targets, nil
}

// ordered puts the constructor defaults first.
func (e *entry) ordered() []string {
	out := make([]string, 0, len(e.methods))
	if _, ok := e.sets[DefaultArgs]; ok {
		out = append(out, DefaultArgs)
	}
	for _, m := range e.methods {
		if m != DefaultArgs {
			out = append(out, m)
		}
	}
	return out
}

func (e *entry) describe(providerMethod string) string {
	if providerMethod == DefaultArgs {
		return `the constructor of \` + e.class
	}
	m, ok := e.labels[providerMethod]
	if !ok {
		m = strings.TrimSuffix(strings.TrimPrefix(providerMethod, "getDataFor"), "Method")
	}
	return `\` + e.class + "::" + m
}

func (w Writer) document(e *entry) func(string) (string, error) {
	return func(members string) (string, error) {
		return w.Render.Render(render.DataProvider, render.DataProviderVars{
			Stamp:     render.StampOf(w.Clock),
			Namespace: e.target.Namespace,
			Name:      e.target.Name,
			TestClass: e.class,
			Methods:   members,
		})
	}
}

func existingMethods(ctx context.Context, store *output.Store, path string) (map[string]bool, error) {
	names := map[string]bool{}
	src, err := store.ReadFile(path)
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
