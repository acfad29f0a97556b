// Package generator is the public entry point: it indexes a PHP project and
// writes unit test skeletons for its classes.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/cmmoran/phptestgen/internal/fake"
	"github.com/cmmoran/phptestgen/internal/layout"
	"github.com/cmmoran/phptestgen/internal/mock"
	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/output"
	"github.com/cmmoran/phptestgen/internal/provider"
	"github.com/cmmoran/phptestgen/internal/reflection"
	"github.com/cmmoran/phptestgen/internal/render"
	"github.com/cmmoran/phptestgen/internal/resolver"
	"github.com/cmmoran/phptestgen/internal/scanner"
	"github.com/cmmoran/phptestgen/internal/synth"
)

// Result reports the outcome for one class.
type Result = synth.Result

// Change is one file touched by a run.
type Change = output.Change

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

// Generator holds the indexed project and the pipeline built over it.
type Generator struct {
	Opts *Options

	fs       afero.Fs
	store    *output.Store
	indexer  *reflection.Indexer
	registry *reflection.Registry
	files    []reflection.FileIndex
	sources  map[string]bool
	synth    *synth.Generator
	logger   *slog.Logger
}

// New normalizes opts, indexes the project and wires the pipeline.
func New(ctx context.Context, opts *Options, now func() time.Time, logger *slog.Logger) (*Generator, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{Opts: opts, fs: opts.Fs, logger: logger}
	if g.fs == nil {
		g.fs = output.Base(opts.Root)
	}
	if err := IsProjectDir(g.fs); err != nil {
		return nil, fmt.Errorf("root %s: %w", opts.Root, err)
	}
	g.store = output.NewStore(g.fs, output.WithDryRun(opts.DryRun))

	if opts.ProjectNamespace == "" {
		ns, err := ComposerNamespace(g.fs, opts.SourceDir)
		if err != nil {
			return nil, err
		}
		if ns == "" {
			logger.Warn("no project namespace configured or found in composer.json")
		}
		opts.ProjectNamespace = ns
	}

	g.indexer = reflection.NewIndexer(g.fs, reflection.WithWorkers(opts.Workers), reflection.WithLogger(logger))
	sources, err := g.indexer.Discover(opts.Sources, opts.ExcludePaths)
	if err != nil {
		return nil, fmt.Errorf("discover sources: %w", err)
	}
	g.sources = make(map[string]bool, len(sources))
	for _, s := range sources {
		g.sources[s] = true
	}
	g.registry, g.files, err = g.indexer.Build(ctx, reflection.Source{
		Include: append(append([]string(nil), opts.Sources...), opts.IndexPaths...),
		Exclude: opts.ExcludePaths,
		Dump:    opts.Reflection,
	})
	if err != nil {
		return nil, err
	}

	var clock render.Clock = render.SystemClock{}
	if now != nil {
		clock = clockFunc(now)
	}
	g.synth, err = g.pipeline(clock)
	if err != nil {
		return nil, err
	}
	logger.Debug("project indexed", "classes", g.registry.Len(), "sources", len(sources), "namespace", opts.ProjectNamespace)
	return g, nil
}

// IsProjectDir checks that the root of fsys is a directory.
func IsProjectDir(fsys afero.Fs) error {
	info, err := fsys.Stat(".")
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrFileNotExists, err)
	}
	if !info.IsDir() {
		return model.ErrNotADirectory
	}
	return nil
}

func (g *Generator) pipeline(clock render.Clock) (*synth.Generator, error) {
	opts := g.Opts
	backend, err := mock.BackendFor(opts.MockBackend)
	if err != nil {
		return nil, err
	}
	imports := scanner.New(g.fs)
	for _, f := range g.files {
		imports.Prime(f.Path, f.Imports)
	}
	res := resolver.New(g.registry, imports, resolver.Options{
		Strict:        opts.Strict,
		SelfReturning: opts.SelfReturningMethods,
		Logger:        g.logger,
	})
	filter := opts.Exclude.Filter()
	lay := layout.New(opts.ProjectNamespace, opts.TestDir)

	mocks := mock.NewBuilder(g.registry, res, backend, mock.Options{
		ProjectNamespace: opts.ProjectNamespace,
		MaxDepth:         opts.MaxDepth,
		AllowFinal:       opts.AllowFinal,
		Filter:           filter,
		Logger:           g.logger,
	})
	providers := provider.New(g.registry, res, fake.New(opts.Seed), lay, provider.Options{
		DataSets:       opts.DataSets,
		MaxDepth:       opts.MaxDepth,
		SelfMethods:    opts.ProviderSelfMethods,
		ExcludeMethods: opts.ProviderExcludeMethods,
		Filter:         filter,
		Logger:         g.logger,
	})
	var pre synth.Preprocessor
	if len(opts.Preprocess) > 0 {
		pre = synth.Rules(opts.Preprocess)
	}
	reg, err := render.New()
	if err != nil {
		return nil, err
	}
	return synth.New(synth.Config{
		Reflector: g.registry,
		Resolver:  res,
		Mocks:     mocks,
		Providers: providers,
		Layout:    lay,
		Store:     g.store,
		Render:    reg,
		Options: synth.Options{
			Filter:       filter,
			Preprocessor: pre,
			Clock:        clock,
			Logger:       g.logger,
		},
	}), nil
}

func (g *Generator) Registry() *reflection.Registry { return g.registry }
func (g *Generator) Store() *output.Store           { return g.store }
func (g *Generator) Layout() layout.Layout          { return g.synth.Layout() }

// Changes lists every file touched so far, in order.
func (g *Generator) Changes() []Change { return g.store.Changes() }

// Class generates the test of one class, named by FQN or by the path of
// the file declaring it.
func (g *Generator) Class(ctx context.Context, target string) (Result, error) {
	name := target
	if strings.EqualFold(path.Ext(target), ".php") {
		var err error
		if name, err = g.classOf(ctx, target); err != nil {
			return Result{Class: target}, err
		}
	}
	return g.synth.Generate(ctx, strings.TrimPrefix(name, `\`))
}

func (g *Generator) classOf(ctx context.Context, file string) (string, error) {
	file = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(file, `\`, "/")), "/")
	for _, f := range g.files {
		if f.Path == file && len(f.Classes) > 0 {
			return primaryClass(file, f.Classes[0].Name, classNames(f.Classes)), nil
		}
	}

	source, err := afero.ReadFile(g.fs, file)
	if err != nil {
		return "", fmt.Errorf("%w: %s", model.ErrFileNotExists, file)
	}
	names, err := scanner.ScanClassNames(ctx, source)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no class declared in %s", model.ErrInvalidClassName, file)
	}
	name := primaryClass(file, names[0], names)
	if g.registry.Exists(name) {
		return name, nil
	}
	// Outside the indexed sources: index it now.
	idx, err := reflection.ParseSource(ctx, file, source)
	if err != nil {
		return "", err
	}
	g.registry.Add(idx.Classes...)
	g.files = append(g.files, idx)
	return name, nil
}

// primaryClass picks the class named after the file, as PSR-4 expects.
func primaryClass(file, fallback string, names []string) string {
	base := strings.TrimSuffix(path.Base(file), path.Ext(file))
	for _, n := range names {
		if strings.EqualFold(model.ShortName(n), base) {
			return n
		}
	}
	return fallback
}

func classNames(classes []*model.Class) []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = c.Name
	}
	return out
}

// Project generates tests for every class declared under Sources, then the
// base test case and, when configured, phpunit.xml. The first failing class
// stops the run; files written for earlier classes remain.
func (g *Generator) Project(ctx context.Context) ([]Result, error) {
	var results []Result
	modules := map[string][]string{}
	for _, f := range g.files {
		if !g.sources[f.Path] {
			continue
		}
		for _, c := range f.Classes {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			res, err := g.synth.Generate(ctx, c.Name)
			if err != nil {
				return results, err
			}
			results = append(results, res)
			if res.Status == synth.Created || res.Status == synth.Exists {
				m := g.Layout().Module(c.Name)
				modules[m] = append(modules[m], res.Target.Path)
			}
		}
	}

	if _, err := g.synth.BaseTestCase(); err != nil {
		return results, err
	}
	if g.Opts.PHPUnitConfig != "" {
		if _, err := g.synth.PHPUnitConfig(g.Opts.PHPUnitConfig, "vendor/autoload.php", modules); err != nil {
			return results, err
		}
	}
	return results, nil
}

// Dump writes the reflection registry as YAML.
func (g *Generator) Dump(path string) error {
	return reflection.SaveDump(g.store.Fs(), path, g.registry)
}
