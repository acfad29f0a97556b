package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/phpval"
	"github.com/cmmoran/phptestgen/internal/provider"
	"github.com/cmmoran/phptestgen/internal/render"
)

// Assertion is how a test checks the value returned by the call under test.
type Assertion struct {
	// Method is the PHPUnit assertion, empty for void methods.
	Method string
	// Expected is the expected value expression, empty for unary assertions.
	Expected string
	// Setup builds what Expected refers to.
	Setup []string
}

func (a Assertion) line() string {
	if a.Expected == "" {
		return "$this->" + a.Method + "($result);"
	}
	return "$this->" + a.Method + "(" + a.Expected + ", $result);"
}

func mockArg(key string) string   { return "$mockArgs[" + phpval.Quote(key) + "]" }
func mockTimes(key string) string { return "$mockTimes[" + phpval.Quote(key) + "]" }

// assertion picks the check for a method of class returning ret.
func (r *run) assertion(ctx context.Context, m *model.Method, ret model.ResolvedType) (Assertion, error) {
	switch ret.Kind {
	case model.KindPrimitive:
		switch ret.Primitive {
		case model.PrimitiveVoid:
			return Assertion{}, nil
		case model.PrimitiveBool:
			return Assertion{Method: "assertTrue"}, nil
		case model.PrimitiveNull:
			return Assertion{Method: "assertNull"}, nil
		case model.PrimitiveCallable, model.PrimitiveClosure:
			return Assertion{Method: "assertIsCallable"}, nil
		case model.PrimitiveObject:
			return Assertion{Method: "assertIsObject"}, nil
		}
		return Assertion{Method: "assertEquals", Expected: mockArg(m.Name)}, nil
	case model.KindNamed:
		// The helper is offered for tests that stub the returned object; a
		// type that cannot be mocked only loses the helper.
		if _, err := r.mock(ctx, ret.Name, m); err != nil {
			if !errors.Is(err, model.ErrMockFinalClass) && !errors.Is(err, model.ErrMockTargetNotResolvable) {
				return Assertion{}, err
			}
			r.g.logger.Debug("no mock for returned type", "class", r.class.Name, "method", m.Name, "error", err)
		}
		return Assertion{Method: "assertInstanceOf", Expected: `\` + ret.Name + "::class"}, nil
	case model.KindSelf:
		return Assertion{Method: "assertInstanceOf", Expected: `\` + ret.Name + "::class"}, nil
	case model.KindArrayOf:
		elem, ok := ret.ElemClass()
		if !ok {
			return Assertion{Method: "assertEquals", Expected: mockArg(m.Name)}, nil
		}
		d, err := r.mock(ctx, elem, m)
		if err != nil {
			return Assertion{}, err
		}
		list := "$" + m.Name + "s"
		return Assertion{
			Method:   "assertEquals",
			Expected: list,
			Setup: []string{
				list + " = [];",
				"",
				"foreach (" + mockArg(m.Name) + " as $i => $" + d.ShortName + ") {",
				"    " + list + "[] = $this->" + d.MethodName + "($" + d.ShortName + ", " + mockTimes(m.Name) + "[$i]);",
				"}",
			},
		}, nil
	}
	return Assertion{}, fmt.Errorf("%w: %s::%s", model.ErrReturnTypeNotFound, m.Class, m.Name)
}

// arguments returns the argument list of a call to m and the statements
// initialising it from the data set. Parameter data is registered with the
// provider method as a side effect.
func (r *run) arguments(ctx context.Context, m *model.Method, providerMethod string) ([]string, []string, error) {
	var args, init []string
	plain := r.g.opts.Filter.ExcludedDeclaring(m.Class)
	for i, p := range m.Params {
		if err := r.g.providers.AddArgument(ctx, r.class, m, i, providerMethod); err != nil {
			return nil, nil, err
		}
		t, err := r.g.resolver.ParamType(ctx, m, i)
		if err != nil {
			return nil, nil, err
		}
		name := "$" + p.Name

		switch {
		case p.HasDefault && !(t.IsClassLike() && literalDefault(p.Default)):
			init = append(init, name+" = "+defaultValue(m, p.Default)+";")
		case t.Is(model.PrimitiveCallable), t.Is(model.PrimitiveClosure):
			init = append(init, name+" = function () { return true; };")
		case t.Is(model.PrimitiveObject):
			init = append(init, name+" = new class {};")
		case t.IsClassLike() && !plain:
			d, err := r.mock(ctx, t.Name, m)
			if err != nil {
				return nil, nil, err
			}
			key := provider.ArgumentKey(p, model.Named(d.Class))
			name = "$" + d.ShortName
			init = append(init, name+" = $this->"+d.MethodName+"("+mockArg(key)+", "+mockTimes(key)+");")
		default:
			init = append(init, name+" = "+mockArg(p.Name)+";")
		}
		if p.Variadic {
			name = "..." + name
		}
		args = append(args, name)
	}
	return args, init, nil
}

// literalDefault reports a default that a mock may replace.
func literalDefault(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "null", "true", "false":
		return true
	}
	return false
}

// defaultValue reproduces a default, pointing self references at the
// declaring class.
func defaultValue(m *model.Method, v string) string {
	v = strings.TrimSpace(v)
	for _, kw := range []string{"self::", "static::"} {
		if strings.HasPrefix(strings.ToLower(v), kw) {
			v = `\` + m.Class + "::" + v[len(kw):]
		}
	}
	return v
}

// emit renders the test of m, or returns "" when the method is not tested.
func (r *run) emit(ctx context.Context, m *model.Method) (string, error) {
	ret, err := r.g.resolver.ReturnType(ctx, m)
	if err != nil {
		return "", err
	}
	name := r.names.unique(TestMethodName(m, ret))

	var additional []string
	if pre := r.g.opts.Preprocessor; pre != nil {
		if !pre.ShouldTest(r.class, m) {
			r.g.logger.Debug("preprocessor skipped method", "class", r.class.Name, "method", m.Name)
			return "", nil
		}
		name, additional = pre.Process(r.class, m, name)
	}

	assert, err := r.assertion(ctx, m, ret)
	if err != nil {
		return "", err
	}
	providerMethod, err := r.g.providers.AddMethod(ctx, r.class, m)
	if err != nil {
		return "", err
	}
	args, init, err := r.arguments(ctx, m, providerMethod)
	if err != nil {
		return "", err
	}

	var body []string
	block := func(lines ...string) {
		if len(lines) == 0 {
			return
		}
		if len(body) > 0 {
			body = append(body, "")
		}
		body = append(body, lines...)
	}
	call := "$test->" + m.Name + "(" + strings.Join(args, ", ") + ")"
	if m.Static {
		call = r.class.ShortName() + "::" + m.Name + "(" + strings.Join(args, ", ") + ")"
	} else {
		block(r.ctorInit...)
		block("$test = new " + r.class.ShortName() + "(" + strings.Join(r.ctorArgs, ", ") + ");")
	}
	block(assert.Setup...)
	block(init...)
	block(additional...)
	if assert.Method == "" {
		block(call + ";")
	} else {
		block("$result = " + call + ";")
		body = append(body, assert.line())
	}

	provided := r.g.providers.Target(r.class.Name)
	return r.g.render.Render(render.TestMethod, render.TestMethodVars{
		Comment:            Summary(m),
		FullClassName:      r.class.Name,
		OrigMethodName:     m.Name,
		DataProvider:       provided.FQN(),
		DataProviderMethod: providerMethod,
		MethodName:         name,
		Body:               body,
	})
}
