// Package synth generates the unit test of a PHP class together with the
// mock helpers and data providers it relies on.
package synth

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/cmmoran/phptestgen/internal/layout"
	"github.com/cmmoran/phptestgen/internal/mock"
	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/output"
	"github.com/cmmoran/phptestgen/internal/provider"
	"github.com/cmmoran/phptestgen/internal/reflection"
	"github.com/cmmoran/phptestgen/internal/render"
	"github.com/cmmoran/phptestgen/internal/resolver"
)

// Status is the outcome for one class.
type Status int

const (
	Created Status = iota
	// Exists means a test file was already present and left untouched.
	Exists
	Abstract
	MissingTrait
	// NotTestable covers interfaces and traits.
	NotTestable
)

func (s Status) String() string {
	switch s {
	case Created:
		return "created"
	case Exists:
		return "exists"
	case Abstract:
		return "abstract"
	case MissingTrait:
		return "missing-trait"
	case NotTestable:
		return "not-testable"
	}
	return "unknown"
}

// Result reports what happened to one class.
type Result struct {
	Class  string
	Target layout.Target
	Status Status
	// Methods counts the generated test methods.
	Methods int
	// Missing lists the unknown traits of a MissingTrait class.
	Missing []string
}

// String is the one-line report shown to users.
func (r Result) String() string {
	switch r.Status {
	case Created:
		return fmt.Sprintf("UnitTest '%s' created.", r.Target.Path)
	case Exists:
		return fmt.Sprintf("UnitTest '%s' already exists.", r.Target.Path)
	case Abstract:
		return fmt.Sprintf("Class '%s' is abstract, test will not be generated.", r.Class)
	case MissingTrait:
		return fmt.Sprintf("Class '%s' skipped: %v %s.", r.Class, model.ErrMissingTrait, strings.Join(r.Missing, ", "))
	}
	return fmt.Sprintf("Class '%s' is not a class, test will not be generated.", r.Class)
}

type Options struct {
	Filter       mock.Filter
	Preprocessor Preprocessor
	Clock        render.Clock
	Logger       *slog.Logger
}

// Config wires the collaborators of a Generator.
type Config struct {
	Reflector reflection.Reflector
	Resolver  *resolver.Resolver
	Mocks     *mock.Builder
	Providers *provider.Assembler
	Layout    layout.Layout
	Store     *output.Store
	Render    *render.Registry
	Options   Options
}

// Generator writes the tests of classes one at a time.
type Generator struct {
	reflector reflection.Reflector
	resolver  *resolver.Resolver
	mocks     *mock.Builder
	providers *provider.Assembler
	layout    layout.Layout
	store     *output.Store
	render    *render.Registry
	opts      Options
	logger    *slog.Logger
}

func New(cfg Config) *Generator {
	g := &Generator{
		reflector: cfg.Reflector,
		resolver:  cfg.Resolver,
		mocks:     cfg.Mocks,
		providers: cfg.Providers,
		layout:    cfg.Layout,
		store:     cfg.Store,
		render:    cfg.Render,
		opts:      cfg.Options,
		logger:    cfg.Options.Logger,
	}
	if g.render == nil {
		g.render = render.MustNew()
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

func (g *Generator) Layout() layout.Layout { return g.layout }
func (g *Generator) Store() *output.Store  { return g.store }

// run is the state of one class generation.
type run struct {
	g        *Generator
	class    *model.Class
	names    namer
	ctorArgs []string
	ctorInit []string
}

func (r *run) mock(ctx context.Context, typeName string, m *model.Method) (*mock.Descriptor, error) {
	key, err := r.g.mocks.EnsureMock(ctx, typeName, m, nil, 1, r.class)
	if err != nil {
		return nil, err
	}
	d, ok := r.g.mocks.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrMockNotExists, key)
	}
	return d, nil
}

// Generate writes the test of the class named name. Nothing is written for
// the class when an error is returned.
func (g *Generator) Generate(ctx context.Context, name string) (Result, error) {
	class, ok := g.reflector.Class(name)
	if !ok {
		return Result{Class: name}, fmt.Errorf("%w: %q", model.ErrInvalidClassName, name)
	}
	res := Result{Class: class.Name, Target: g.layout.TestClass(class.Name)}
	logger := g.logger.With("class", class.Name)

	switch {
	case class.IsInterface(), class.IsTrait():
		res.Status = NotTestable
		return res, nil
	case class.Abstract:
		res.Status = Abstract
		logger.Info("class is abstract, skipping")
		return res, nil
	}
	if missing := g.reflector.MissingTraits(class); len(missing) > 0 {
		res.Status, res.Missing = MissingTrait, missing
		logger.Warn("class uses unknown traits, skipping", "traits", missing)
		return res, nil
	}
	if g.store.Exists(res.Target.Path) {
		res.Status = Exists
		g.store.Skip(res.Target.Path)
		return res, nil
	}

	g.mocks.Reset()
	g.providers.Reset()
	r := &run{g: g, class: class, names: namer{}}

	methods := g.reflector.Methods(class)
	for _, m := range methods {
		if !m.IsConstructor() {
			continue
		}
		providerMethod, err := g.providers.AddMethod(ctx, class, m)
		if err != nil {
			return res, fmt.Errorf("constructor of %s: %w", class.Name, err)
		}
		if r.ctorArgs, r.ctorInit, err = r.arguments(ctx, m, providerMethod); err != nil {
			return res, fmt.Errorf("constructor of %s: %w", class.Name, err)
		}
	}

	var members strings.Builder
	for _, m := range methods {
		if !g.opts.Filter.Testable(m) {
			continue
		}
		code, err := r.emit(ctx, m)
		if err != nil {
			return res, fmt.Errorf("method %s::%s: %w", class.Name, m.Name, err)
		}
		if code == "" {
			continue
		}
		members.WriteString(code)
		res.Methods++
	}
	logger.Log(ctx, slog.Level(-8), "methods emitted", "count", res.Methods, "mocks", len(g.mocks.Descriptors()))

	if err := g.write(ctx, r, res.Target, members.String()); err != nil {
		return res, err
	}
	res.Status = Created
	return res, nil
}

func (g *Generator) write(ctx context.Context, r *run, target layout.Target, members string) error {
	mw := &mock.Writer{Layout: g.layout, Store: g.store, Render: g.render, Backend: g.mocks.Backend(), Clock: g.opts.Clock}
	traits, err := mw.Write(ctx, g.mocks.Descriptors())
	if err != nil {
		return err
	}
	if _, err := g.providers.Flush(ctx, provider.Writer{Store: g.store, Render: g.render, Clock: g.opts.Clock}); err != nil {
		return err
	}

	uses, names := g.imports(r.class, target, traits)
	doc, err := g.render.Render(render.TestClass, render.TestClassVars{
		Stamp:         render.StampOf(g.opts.Clock),
		Namespace:     target.Namespace,
		Name:          target.Name,
		FullClassName: r.class.Name,
		BaseTestCase:  layout.BaseTestCaseName,
		Uses:          uses,
		Traits:        names,
		Methods:       members,
	})
	if err != nil {
		return err
	}
	if err := g.store.WriteFile(target.Path, doc); err != nil {
		return fmt.Errorf("write test %s: %w", target.FQN(), err)
	}
	return nil
}

// imports returns the sorted use statements of a test class and how it refers
// to each trait. Traits whose short name is taken are referenced by FQN.
func (g *Generator) imports(class *model.Class, target layout.Target, traits []layout.Target) ([]string, []string) {
	taken := map[string]bool{
		strings.ToLower(class.ShortName()):       true,
		strings.ToLower(target.Name):             true,
		strings.ToLower(layout.BaseTestCaseName): true,
	}
	uses := []string{class.Name}
	if base := g.layout.BaseTestCase(); base.Namespace != target.Namespace {
		uses = append(uses, base.FQN())
	}
	names := make([]string, 0, len(traits))
	for _, t := range traits {
		if taken[strings.ToLower(t.Name)] {
			names = append(names, `\`+t.FQN())
			continue
		}
		taken[strings.ToLower(t.Name)] = true
		uses = append(uses, t.FQN())
		names = append(names, t.Name)
	}
	sort.Strings(uses)
	return uses, names
}
