package provider

import (
	"context"
	"strings"

	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/phpval"
)

type cached struct {
	value any
	times any
}

// walk builds the $mockArgs and $mockTimes a mock of class is created from.
// Methods returning classes are walked one level deeper, up to MaxDepth;
// past it only the empty maps are returned.
func (a *Assembler) walk(ctx context.Context, class *model.Class, level int) (*phpval.Map, *phpval.Map, error) {
	args := phpval.NewMap()
	times := phpval.NewMap().Set("times", 0)
	seen := map[string]cached{}

	reuse := func(method, param string) bool {
		c, ok := seen[param]
		if ok {
			args.Set(method, c.value)
			times.Set(method, c.times)
		}
		return ok
	}

	for _, m := range a.reflector.Methods(class) {
		if !a.walkable(class, m) {
			continue
		}
		name := m.Name
		param := name
		if reuse(name, param) {
			continue
		}
		if a.self[name] {
			param = class.Name
			if reuse(name, param) {
				continue
			}
		}
		if level > a.opts.MaxDepth {
			continue
		}

		ret, err := a.resolver.ReturnType(ctx, m)
		if err != nil {
			return nil, nil, err
		}
		target, isArray := "", false
		switch ret.Kind {
		case model.KindNamed, model.KindSelf:
			target = ret.Name
		case model.KindArrayOf:
			target, isArray = ret.ElemClass()
		}

		var value, count any = nil, 0
		if target != "" {
			if reuse(name, target) || strings.EqualFold(target, class.Name) {
				continue
			}
			if cls, ok := a.resolver.ResolveClass(ctx, target, m, nil); ok {
				subArgs, subTimes, err := a.walk(ctx, cls, level+1)
				if err != nil {
					return nil, nil, err
				}
				value, count = subArgs, subTimes
			}
		}
		if value == nil {
			value, _ = a.fake.ForName(param)
		}
		if value == nil {
			param = ret.String()
			if reuse(name, param) {
				continue
			}
			value, _ = a.fake.ForType(ret)
		}
		seen[param] = cached{value: value, times: count}

		if isArray {
			value = []any{value}
			count = nestTimes(count)
		}
		args.Set(name, value)
		times.Set(name, count)
	}
	return args, times, nil
}

// nestTimes turns the times map of one element into the shape expected for
// a list of mocks: the outer count plus one map per element.
func nestTimes(t any) any {
	m, ok := t.(*phpval.Map)
	if !ok || !m.Has("times") {
		return t
	}
	outer, _ := m.Get("times")
	rest := m.Clone()
	rest.Delete("times")
	return phpval.NewMap().Set("times", outer).Set("mockTimes", []any{rest})
}

func (a *Assembler) walkable(class *model.Class, m *model.Method) bool {
	switch {
	case m.IsConstructor(), m.IsDestructor(), !m.IsPublic(), m.Static:
		return false
	case a.exclude[m.Name]:
		return false
	}
	return !a.opts.Filter.Excludes(class.Name, m)
}
