package fake

import (
	"math"
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/cmmoran/phptestgen/internal/model"
)

// Synthesizer draws values from a seeded faker so that runs are reproducible.
type Synthesizer struct {
	faker   *gofakeit.Faker
	catalog []Entry
}

func New(seed uint64) *Synthesizer {
	return &Synthesizer{faker: gofakeit.New(seed), catalog: Catalog}
}

// ForName returns the value of the first catalog entry with a fragment
// contained in name, ignoring case.
func (s *Synthesizer) ForName(name string) (any, bool) {
	if name == "" {
		return nil, false
	}
	lower := strings.ToLower(name)
	for _, e := range s.catalog {
		for _, frag := range e.Fragments() {
			if strings.Contains(lower, frag) {
				return e.Generate(s.faker), true
			}
		}
	}
	return nil, false
}

// ForType returns the default value for a primitive type.
func (s *Synthesizer) ForType(t model.ResolvedType) (any, bool) {
	switch t.Kind {
	case model.KindPrimitive:
		switch t.Primitive {
		case model.PrimitiveBool:
			return s.faker.Bool(), true
		case model.PrimitiveInt:
			return s.faker.Number(1, 9), true
		case model.PrimitiveFloat:
			return math.Round(s.faker.Float64Range(0, 100)*100) / 100, true
		case model.PrimitiveString, model.PrimitiveMixed:
			return s.faker.Word(), true
		case model.PrimitiveArray:
			return s.words(), true
		}
	case model.KindArrayOf:
		if t.Elem != nil && t.Elem.Kind == model.KindPrimitive {
			if v, ok := s.ForType(*t.Elem); ok {
				return []any{v}, true
			}
		}
		return s.words(), true
	}
	return nil, false
}

// Value tries the name heuristics first, then the type default.
func (s *Synthesizer) Value(name string, t model.ResolvedType) (any, bool) {
	if v, ok := s.ForName(name); ok {
		return v, true
	}
	return s.ForType(t)
}

func (s *Synthesizer) words() []any {
	return []any{s.faker.Word(), s.faker.Word(), s.faker.Word()}
}
