package synth

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/cmmoran/phptestgen/internal/mock"
	"github.com/cmmoran/phptestgen/internal/render"
)

// BaseTestCase writes the abstract test case every generated test extends,
// unless it exists. It reports whether the file was written.
func (g *Generator) BaseTestCase() (bool, error) {
	t := g.layout.BaseTestCase()
	if g.store.Exists(t.Path) {
		g.store.Skip(t.Path)
		return false, nil
	}
	doc, err := g.render.Render(render.BaseTestCase, render.BaseTestCaseVars{
		Stamp:     render.StampOf(g.opts.Clock),
		Namespace: t.Namespace,
		Name:      t.Name,
		Mockery:   g.mocks.Backend().Name() == mock.BackendMockery,
	})
	if err != nil {
		return false, err
	}
	if err := g.store.WriteFile(t.Path, doc); err != nil {
		return false, fmt.Errorf("write base test case: %w", err)
	}
	return true, nil
}

// PHPUnitConfig writes path with one test suite per module, unless it
// exists. Test file paths are written relative to the directory of path.
func (g *Generator) PHPUnitConfig(path, bootstrap string, modules map[string][]string) (bool, error) {
	if g.store.Exists(path) {
		g.store.Skip(path)
		return false, nil
	}
	names := make([]string, 0, len(modules))
	for m := range modules {
		names = append(names, m)
	}
	sort.Strings(names)

	dir := filepath.Dir(path)
	vars := render.PHPUnitVars{Bootstrap: bootstrap}
	for _, m := range names {
		files := make([]string, 0, len(modules[m]))
		for _, f := range modules[m] {
			if rel, err := filepath.Rel(dir, f); err == nil {
				f = rel
			}
			files = append(files, filepath.ToSlash(f))
		}
		sort.Strings(files)
		vars.Suites = append(vars.Suites, render.Suite{Name: m + " Test Suite", Files: files})
	}
	doc, err := g.render.Render(render.PHPUnitXML, vars)
	if err != nil {
		return false, err
	}
	if err := g.store.WriteFile(path, doc); err != nil {
		return false, fmt.Errorf("write phpunit config: %w", err)
	}
	return true, nil
}
