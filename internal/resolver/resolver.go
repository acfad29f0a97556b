// Package resolver classifies method return and parameter types by combining
// declared types with docblock annotations.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/reflection"
	"github.com/cmmoran/phptestgen/internal/scanner"
)

// ImportSource provides the import table of a source file.
type ImportSource interface {
	Imports(ctx context.Context, path string) (scanner.ImportTable, error)
}

// Options control the resolver.
type Options struct {
	Strict bool
	// SelfReturning names methods, such as named constructors, that always
	// resolve to the declaring class.
	SelfReturning []string
	Logger        *slog.Logger
}

type Resolver struct {
	reflector     reflection.Reflector
	imports       ImportSource
	strict        bool
	selfReturning map[string]bool
	logger        *slog.Logger
}

func New(reflector reflection.Reflector, imports ImportSource, opts Options) *Resolver {
	r := &Resolver{
		reflector:     reflector,
		imports:       imports,
		strict:        opts.Strict,
		selfReturning: map[string]bool{},
		logger:        opts.Logger,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	for _, name := range opts.SelfReturning {
		r.selfReturning[name] = true
	}
	return r
}

// Strict reports whether unresolvable types are errors.
func (r *Resolver) Strict() bool { return r.strict }

// ReturnType resolves what m returns.
func (r *Resolver) ReturnType(ctx context.Context, m *model.Method) (model.ResolvedType, error) {
	if r.selfReturning[m.Name] {
		return model.Self(m.Class), nil
	}

	declared, ok := r.declared(m, m.ReturnType)
	if ok && !declared.Is(model.PrimitiveArray) {
		return declared, nil
	}

	doc, err := r.docOf(m)
	if err != nil {
		return model.ResolvedType{}, err
	}
	if expr, found := ReturnTag(doc); found {
		if t, ok := r.annotated(ctx, m, expr); ok {
			return t, nil
		}
	}
	if ok {
		return declared, nil
	}
	return r.unresolved(m, "return type")
}

// ParamType resolves the type of the parameter at index.
func (r *Resolver) ParamType(ctx context.Context, m *model.Method, index int) (model.ResolvedType, error) {
	if index < 0 || index >= len(m.Params) {
		return model.ResolvedType{}, fmt.Errorf("%w: %s::%s has no parameter %d", model.ErrReturnTypeNotFound, m.Class, m.Name, index)
	}
	p := m.Params[index]

	declared, ok := r.declared(m, p.Type)
	if ok && !declared.Is(model.PrimitiveArray) {
		return declared, nil
	}

	doc, err := r.docOf(m)
	if err != nil {
		return model.ResolvedType{}, err
	}
	if expr, found := matchParamTag(ParamTags(doc), p.Name, index); found {
		if t, ok := r.annotated(ctx, m, expr); ok {
			return t, nil
		}
	}
	if ok {
		return declared, nil
	}
	return r.unresolved(m, "type of parameter $"+p.Name)
}

func matchParamTag(tags []ParamTag, name string, index int) (string, bool) {
	for _, t := range tags {
		if t.Var != "" && t.Var == name {
			return t.Type, t.Type != ""
		}
	}
	if index < len(tags) && tags[index].Var == "" && tags[index].Type != "" {
		return tags[index].Type, true
	}
	return "", false
}

func (r *Resolver) unresolved(m *model.Method, what string) (model.ResolvedType, error) {
	if r.strict {
		return model.ResolvedType{}, fmt.Errorf("%w: %s for %s::%s in %s", model.ErrReturnTypeNotFound, what, m.Class, m.Name, m.File)
	}
	r.logger.Debug("type unresolved, using mixed", "class", m.Class, "method", m.Name, "what", what)
	return model.Prim(model.PrimitiveMixed), nil
}

// docOf returns the doc block that describes m, following @inheritdoc to
// the prototype.
func (r *Resolver) docOf(m *model.Method) (string, error) {
	doc := m.Doc
	if !HasInheritdoc(doc) {
		return doc, nil
	}
	seen := map[*model.Method]bool{}
	for cur := m; HasInheritdoc(doc); {
		seen[cur] = true
		proto, ok := r.reflector.Prototype(cur)
		if !ok || seen[proto] {
			if r.strict {
				return "", fmt.Errorf("%w: @inheritdoc without prototype for %s::%s in %s", model.ErrReturnTypeNotFound, m.Class, m.Name, m.File)
			}
			return "", nil
		}
		cur, doc = proto, proto.Doc
	}
	return doc, nil
}

// declared classifies a declared type; names were qualified at index time.
func (r *Resolver) declared(m *model.Method, text string) (model.ResolvedType, bool) {
	alt := firstAlternative(text)
	if alt == "" {
		return model.ResolvedType{}, false
	}
	if model.IsSelfName(alt) {
		return model.Self(m.Class), true
	}
	if p, ok := model.LookupPrimitive(alt); ok {
		return model.Prim(p), true
	}
	return model.Named(alt), true
}

// annotated classifies an annotation type expression, qualifying class names
// relative to the declaring source.
func (r *Resolver) annotated(ctx context.Context, m *model.Method, expr string) (model.ResolvedType, bool) {
	ref, ok := ParseTypeExpr(expr)
	if !ok {
		return model.ResolvedType{}, false
	}
	var elem model.ResolvedType
	switch p, prim := model.LookupPrimitive(ref.Name); {
	case model.IsSelfName(ref.Name):
		elem = model.Self(m.Class)
	case prim:
		elem = model.Prim(p)
	default:
		elem = model.Named(r.qualify(ctx, m, ref.Name))
	}
	switch {
	case ref.Nested:
		return model.Prim(model.PrimitiveArray), true
	case ref.Array:
		return model.ArrayOf(elem), true
	}
	return elem, true
}

// qualify turns an annotation class name into a fully-qualified one: an
// import alias wins, then an imported class with that short name, then the
// namespace of the declaring source.
func (r *Resolver) qualify(ctx context.Context, m *model.Method, name string) string {
	if strings.HasPrefix(name, `\`) {
		return strings.TrimPrefix(name, `\`)
	}
	imports := r.importsOf(ctx, m)
	if fqn, ok := imports.Resolve(name); ok {
		return fqn
	}
	for _, target := range imports.Targets() {
		if strings.EqualFold(model.ShortName(target), name) && r.reflector.Exists(target) {
			return target
		}
	}
	return model.Qualify(model.NamespaceOf(m.SourceClass()), name)
}

func (r *Resolver) importsOf(ctx context.Context, m *model.Method) scanner.ImportTable {
	if r.imports == nil || m.File == "" {
		return scanner.ImportTable{}
	}
	t, err := r.imports.Imports(ctx, m.File)
	if err != nil {
		r.logger.Debug("imports unavailable", "file", m.File, "error", err)
		return scanner.ImportTable{}
	}
	return t
}

// ResolveClass finds the class a type name refers to from the point of view
// of contextMethod: directly, through imports, then relative to its namespace.
func (r *Resolver) ResolveClass(ctx context.Context, name string, contextMethod *model.Method, imports scanner.ImportTable) (*model.Class, bool) {
	name = strings.TrimPrefix(strings.TrimSpace(name), `\`)
	if name == "" {
		return nil, false
	}
	if c, ok := r.reflector.Class(name); ok {
		return c, true
	}
	if imports == nil && contextMethod != nil {
		imports = r.importsOf(ctx, contextMethod)
	}
	if fqn, ok := imports.Resolve(name); ok {
		if c, ok := r.reflector.Class(fqn); ok {
			return c, true
		}
	}
	if contextMethod != nil {
		if c, ok := r.reflector.Class(model.Qualify(model.NamespaceOf(contextMethod.SourceClass()), name)); ok {
			return c, true
		}
	}
	return nil, false
}
