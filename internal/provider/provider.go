// Package provider assembles the data sets that feed generated tests and
// writes them into data provider classes.
package provider

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cmmoran/phptestgen/internal/fake"
	"github.com/cmmoran/phptestgen/internal/layout"
	"github.com/cmmoran/phptestgen/internal/mock"
	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/phpval"
	"github.com/cmmoran/phptestgen/internal/reflection"
	"github.com/cmmoran/phptestgen/internal/resolver"
)

// DefaultArgs is the provider method holding constructor arguments.
const DefaultArgs = "defaultArgs"

var (
	// DefaultSelfMethods return their own object in mock data.
	DefaultSelfMethods = []string{"toNative", "generateAsString", "toString"}
	// DefaultExcludeMethods never appear in mock data.
	DefaultExcludeMethods = []string{"fromNative", "fromArray", "toReal", "toNatural", "toInteger", "__toString"}
)

type Options struct {
	DataSets       int
	MaxDepth       int
	SelfMethods    []string
	ExcludeMethods []string
	Filter         mock.Filter
	Logger         *slog.Logger
}

// DataSet is one row handed to a test: the argument values and the expected
// call counts of the mocks built from them.
type DataSet struct {
	Args  *phpval.Map
	Times *phpval.Map
}

func newDataSet() DataSet {
	return DataSet{Args: phpval.NewMap(), Times: phpval.NewMap()}
}

func (d DataSet) export() []any { return []any{d.Args, d.Times} }

// entry collects the provider methods of one class under test.
type entry struct {
	class   string
	target  layout.Target
	methods []string
	sets    map[string][]DataSet
	// labels maps provider methods to the method they feed.
	labels map[string]string
}

func (e *entry) method(name string) {
	if _, ok := e.sets[name]; ok {
		return
	}
	e.methods = append(e.methods, name)
	e.sets[name] = nil
}

// Assembler accumulates data sets per class and provider method.
type Assembler struct {
	reflector reflection.Reflector
	resolver  *resolver.Resolver
	fake      *fake.Synthesizer
	layout    layout.Layout
	opts      Options
	logger    *slog.Logger

	self    map[string]bool
	exclude map[string]bool
	entries map[string]*entry
	order   []string
}

func New(reflector reflection.Reflector, res *resolver.Resolver, synth *fake.Synthesizer, lay layout.Layout, opts Options) *Assembler {
	if opts.DataSets <= 0 {
		opts.DataSets = 1
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = mock.DefaultMaxDepth
	}
	if opts.SelfMethods == nil {
		opts.SelfMethods = DefaultSelfMethods
	}
	if opts.ExcludeMethods == nil {
		opts.ExcludeMethods = DefaultExcludeMethods
	}
	a := &Assembler{
		reflector: reflector,
		resolver:  res,
		fake:      synth,
		layout:    lay,
		opts:      opts,
		logger:    opts.Logger,
		self:      map[string]bool{},
		exclude:   map[string]bool{},
		entries:   map[string]*entry{},
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	for _, n := range opts.SelfMethods {
		a.self[n] = true
	}
	for _, n := range opts.ExcludeMethods {
		a.exclude[n] = true
	}
	return a
}

// MethodName is the provider method feeding the test of m.
func MethodName(m *model.Method) string {
	if m.IsConstructor() {
		return DefaultArgs
	}
	return "getDataFor" + ucfirst(m.Name) + "Method"
}

// Target locates the provider class of class.
func (a *Assembler) Target(class string) layout.Target {
	return a.layout.DataProvider(class)
}

// Reset drops every collected entry.
func (a *Assembler) Reset() {
	a.entries = map[string]*entry{}
	a.order = nil
}

func (a *Assembler) entry(class string) *entry {
	k := strings.ToLower(class)
	e, ok := a.entries[k]
	if !ok {
		e = &entry{class: class, target: a.Target(class), sets: map[string][]DataSet{}, labels: map[string]string{}}
		a.entries[k] = e
		a.order = append(a.order, k)
	}
	return e
}

// DataSets returns the sets collected so far for one provider method.
func (a *Assembler) DataSets(class, method string) []DataSet {
	e, ok := a.entries[strings.ToLower(class)]
	if !ok {
		return nil
	}
	return e.sets[method]
}

// AddMethod registers the provider method of m and fills its data sets with
// the value m is expected to return. Constructors and void methods get no
// return value.
func (a *Assembler) AddMethod(ctx context.Context, class *model.Class, m *model.Method) (string, error) {
	name := MethodName(m)
	e := a.entry(class.Name)
	if _, ok := e.sets[name]; ok {
		return name, nil
	}
	e.method(name)
	e.labels[name] = m.Name
	if m.IsConstructor() {
		return name, nil
	}

	ret, err := a.resolver.ReturnType(ctx, m)
	if err != nil {
		return "", err
	}
	if ret.IsVoid() {
		return name, nil
	}
	for i := 0; i < a.opts.DataSets; i++ {
		value, times, err := a.returnValue(ctx, m, ret)
		if err != nil {
			return "", err
		}
		set := newDataSet()
		set.Args.Set(m.Name, value)
		set.Times.Set(m.Name, times)
		e.sets[name] = append(e.sets[name], set)
	}
	return name, nil
}

func (a *Assembler) returnValue(ctx context.Context, m *model.Method, ret model.ResolvedType) (any, any, error) {
	target, isArray := "", false
	switch ret.Kind {
	case model.KindNamed, model.KindSelf:
		target = ret.Name
	case model.KindArrayOf:
		target, isArray = ret.ElemClass()
	}
	if target != "" {
		if cls, ok := a.resolver.ResolveClass(ctx, target, m, nil); ok {
			args, times, err := a.walk(ctx, cls, 1)
			if err != nil {
				return nil, nil, err
			}
			args.Set("className", cls.Name)
			times.Set("className", cls.Name)
			if isArray {
				return []any{args}, []any{times}, nil
			}
			return args, times, nil
		}
	}
	value, ok := a.fake.ForName(m.Name)
	if !ok {
		value, _ = a.fake.ForType(ret)
	}
	return value, 0, nil
}

// AddArgument adds the parameter at index of m to every data set of the
// provider method. A parameter already present keeps its value.
func (a *Assembler) AddArgument(ctx context.Context, class *model.Class, m *model.Method, index int, providerMethod string) error {
	e := a.entry(class.Name)
	e.method(providerMethod)
	for i := 0; i < a.opts.DataSets; i++ {
		key, value, times, err := a.argument(ctx, m, index)
		if err != nil {
			return err
		}
		if key == "" {
			return nil
		}
		sets := e.sets[providerMethod]
		if i < len(sets) && sets[i].Args.Has(key) {
			return nil
		}
		for len(sets) <= i {
			sets = append(sets, newDataSet())
		}
		sets[i].Args.Set(key, value)
		sets[i].Times.Set(key, times)
		e.sets[providerMethod] = sets
	}
	return nil
}

// ArgumentKey is the data set key of a parameter of type t: the short class
// name for class-typed parameters, the parameter name otherwise.
func ArgumentKey(p *model.Param, t model.ResolvedType) string {
	if t.IsClassLike() {
		return model.ShortName(t.Name)
	}
	return p.Name
}

func (a *Assembler) argument(ctx context.Context, m *model.Method, index int) (string, any, any, error) {
	p := m.Params[index]
	t, err := a.resolver.ParamType(ctx, m, index)
	if err != nil {
		return "", nil, nil, err
	}
	switch {
	case t.Is(model.PrimitiveCallable), t.Is(model.PrimitiveClosure), t.Is(model.PrimitiveObject):
		return "", nil, nil, nil
	case t.IsClassLike():
		if cls, ok := a.resolver.ResolveClass(ctx, t.Name, m, nil); ok {
			args, times, err := a.walk(ctx, cls, 1)
			if err != nil {
				return "", nil, nil, err
			}
			return ArgumentKey(p, model.Named(cls.Name)), args, times, nil
		}
	}
	value, ok := a.fake.ForName(p.Name)
	if !ok {
		value, _ = a.fake.ForType(t)
	}
	return p.Name, value, 0, nil
}

// merged returns the sets of method with the constructor defaults folded in.
func (e *entry) merged(method string, count int) []DataSet {
	sets := e.sets[method]
	defaults := e.sets[DefaultArgs]
	if method == DefaultArgs || len(defaults) == 0 {
		if len(sets) == 0 {
			sets = make([]DataSet, count)
			for i := range sets {
				sets[i] = newDataSet()
			}
		}
		return sets
	}
	if len(sets) == 0 {
		out := make([]DataSet, len(defaults))
		for i, d := range defaults {
			out[i] = DataSet{Args: d.Args.Clone(), Times: d.Times.Clone()}
		}
		return out
	}
	out := make([]DataSet, len(sets))
	for i, s := range sets {
		if i >= len(defaults) {
			out[i] = s
			continue
		}
		out[i] = DataSet{
			Args:  phpval.Merge(defaults[i].Args, s.Args),
			Times: phpval.Merge(defaults[i].Times, s.Times),
		}
	}
	return out
}

func ucfirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
