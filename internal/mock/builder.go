package mock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/reflection"
	"github.com/cmmoran/phptestgen/internal/resolver"
	"github.com/cmmoran/phptestgen/internal/scanner"
)

// DefaultMaxDepth bounds how many levels of nested mocks are expanded.
const DefaultMaxDepth = 4

type Options struct {
	ProjectNamespace string
	MaxDepth         int
	// AllowFinal lets final classes be mocked, for projects that load a
	// final-bypassing extension.
	AllowFinal bool
	Filter     Filter
	Logger     *slog.Logger
}

// Builder owns the mock descriptors of one generation pass.
type Builder struct {
	reflector reflection.Reflector
	resolver  *resolver.Resolver
	backend   Backend
	opts      Options
	logger    *slog.Logger

	mocks map[string]*Descriptor
	order []string
}

func NewBuilder(reflector reflection.Reflector, res *resolver.Resolver, backend Backend, opts Options) *Builder {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		reflector: reflector,
		resolver:  res,
		backend:   backend,
		opts:      opts,
		logger:    logger,
		mocks:     map[string]*Descriptor{},
	}
}

func (b *Builder) Backend() Backend { return b.backend }
func (b *Builder) MaxDepth() int    { return b.opts.MaxDepth }
func (b *Builder) Filter() Filter   { return b.opts.Filter }

// Reset discards every descriptor, starting a new pass.
func (b *Builder) Reset() {
	b.mocks = map[string]*Descriptor{}
	b.order = nil
}

// Lookup returns the descriptor registered under key.
func (b *Builder) Lookup(key string) (*Descriptor, bool) {
	d, ok := b.mocks[key]
	return d, ok
}

// Descriptors returns the descriptors in discovery order.
func (b *Builder) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, b.mocks[k])
	}
	return out
}

// Methods lists the methods of class that mocks expect, in reflection order.
func (b *Builder) Methods(class *model.Class) []*model.Method {
	var out []*model.Method
	for _, m := range b.reflector.Methods(class) {
		if b.opts.Filter.Mockable(class.Name, m) {
			out = append(out, m)
		}
	}
	return out
}

// EnsureMock registers a mock for typeName, as seen from contextMethod, and
// returns its key. A type already registered in this pass is returned as is.
// depth is 1 for mocks requested by the class under test.
func (b *Builder) EnsureMock(ctx context.Context, typeName string, contextMethod *model.Method, imports scanner.ImportTable, depth int, root *model.Class) (string, error) {
	class, ok := b.resolver.ResolveClass(ctx, typeName, contextMethod, imports)
	if !ok {
		where := ""
		if contextMethod != nil {
			where = fmt.Sprintf(" for %s::%s", contextMethod.Class, contextMethod.Name)
		}
		return "", fmt.Errorf("%w: class %q%s", model.ErrMockTargetNotResolvable, typeName, where)
	}
	key := KeyOf(class.Name)
	if _, ok := b.mocks[key]; ok {
		return key, nil
	}

	d := newDescriptor(class.Name, b.opts.ProjectNamespace, depth)
	if depth > 1 && root != nil && strings.EqualFold(root.Name, class.Name) {
		d.Stub = true
		d.Setup = b.backend.Declare(class.Name, nil)
		b.register(d)
		return key, nil
	}
	if class.Final && !b.opts.AllowFinal {
		return "", fmt.Errorf("%w: %s", model.ErrMockFinalClass, class.Name)
	}
	b.register(d)
	b.logger.Log(ctx, slog.Level(-8), "expanding mock", "class", class.Name, "depth", depth)

	methods := b.Methods(class)
	names := make([]string, 0, len(methods))
	var expectations []string
	for _, m := range methods {
		names = append(names, m.Name)
		d.Args.Set(m.Name, "")
		d.Times.Set(m.Name, 0)

		e, err := b.expectation(ctx, class, m, depth, root)
		if err != nil {
			b.unregister(key)
			return "", err
		}
		expectations = append(expectations, "")
		expectations = append(expectations, b.backend.Expect(e)...)
	}
	d.Setup = append(b.backend.Declare(class.Name, names), expectations...)
	return key, nil
}

func (b *Builder) register(d *Descriptor) {
	b.mocks[d.Key] = d
	b.order = append(b.order, d.Key)
}

func (b *Builder) unregister(key string) {
	delete(b.mocks, key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			return
		}
	}
}

// expectation classifies what m returns inside the mock of class.
func (b *Builder) expectation(ctx context.Context, class *model.Class, m *model.Method, depth int, root *model.Class) (Expectation, error) {
	e := Expectation{Method: m.Name}
	ret, err := b.resolver.ReturnType(ctx, m)
	if err != nil {
		return e, err
	}

	switch ret.Kind {
	case model.KindSelf:
		e.Return = ReturnSelf
	case model.KindPrimitive:
		switch ret.Primitive {
		case model.PrimitiveVoid:
			e.Return = ReturnVoid
		case model.PrimitiveNull:
			e.Return = ReturnNull
		case model.PrimitiveCallable, model.PrimitiveClosure:
			e.Return = ReturnCallable
		case model.PrimitiveObject:
			e.Return = ReturnObject
		default:
			e.Return = ReturnValue
		}
	case model.KindArrayOf:
		elem, isClass := ret.ElemClass()
		if !isClass || depth >= b.opts.MaxDepth {
			e.Return = ReturnValue
			break
		}
		if _, ok := b.resolver.ResolveClass(ctx, elem, m, nil); !ok {
			e.Return = ReturnValue
			break
		}
		nested, err := b.nested(ctx, elem, m, depth, root)
		if err != nil {
			return e, err
		}
		e.Return, e.Mock = ReturnMockList, nested
	case model.KindNamed:
		if b.returnsSelf(class, ret.Name) {
			e.Return = ReturnSelf
			break
		}
		if depth >= b.opts.MaxDepth {
			b.logger.Debug("mock depth reached", "class", class.Name, "method", m.Name, "returns", ret.Name)
			e.Return = ReturnValue
			break
		}
		nested, err := b.nested(ctx, ret.Name, m, depth, root)
		if err != nil {
			return e, err
		}
		e.Return, e.Mock = ReturnMock, nested
	default:
		e.Return = ReturnValue
	}
	return e, nil
}

func (b *Builder) nested(ctx context.Context, typeName string, m *model.Method, depth int, root *model.Class) (*Descriptor, error) {
	key, err := b.EnsureMock(ctx, typeName, m, nil, depth+1, root)
	if err != nil {
		return nil, err
	}
	d, ok := b.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrMockNotExists, key)
	}
	return d, nil
}

// returnsSelf reports whether a method of class returning name hands back
// the mock itself: the class, one of its parents or one of its traits.
func (b *Builder) returnsSelf(class *model.Class, name string) bool {
	if strings.EqualFold(class.Name, name) {
		return true
	}
	for _, a := range b.reflector.Ancestors(class) {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}
