package fake

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmmoran/phptestgen/internal/model"
)

func TestForName(t *testing.T) {
	s := New(1)

	tests := []struct {
		name    string
		matches *regexp.Regexp
	}{
		{name: "customerEmail", matches: regexp.MustCompile(`^\S+@\S+$`)},
		{name: "uuid", matches: regexp.MustCompile(`^[0-9a-f-]{36}$`)},
		{name: "createdDate", matches: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)},
		{name: "ipv4", matches: regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := s.ForName(tt.name)
			require.True(t, ok)
			str, isString := v.(string)
			require.True(t, isString)
			require.Regexp(t, tt.matches, str)
		})
	}

	_, ok := s.ForName("qwz")
	require.False(t, ok)
}

func TestForNameOrder(t *testing.T) {
	s := New(1)
	// "member" selects the person name before the internet userName entry.
	v, ok := s.ForName("memberUserName")
	require.True(t, ok)
	require.Contains(t, v, " ")
}

func TestForType(t *testing.T) {
	s := New(1)

	v, ok := s.ForType(model.Prim(model.PrimitiveInt))
	require.True(t, ok)
	require.GreaterOrEqual(t, v.(int), 1)
	require.LessOrEqual(t, v.(int), 9)

	v, ok = s.ForType(model.Prim(model.PrimitiveBool))
	require.True(t, ok)
	require.IsType(t, true, v)

	v, ok = s.ForType(model.Prim(model.PrimitiveArray))
	require.True(t, ok)
	require.Len(t, v, 3)

	v, ok = s.ForType(model.ArrayOf(model.Prim(model.PrimitiveString)))
	require.True(t, ok)
	require.Len(t, v, 1)

	_, ok = s.ForType(model.Prim(model.PrimitiveVoid))
	require.False(t, ok)
	_, ok = s.ForType(model.Named(`App\User`))
	require.False(t, ok)
}

func TestDeterministic(t *testing.T) {
	a, b := New(42), New(42)
	for _, name := range []string{"email", "firstName", "city", "amount"} {
		va, _ := a.Value(name, model.Prim(model.PrimitiveInt))
		vb, _ := b.Value(name, model.Prim(model.PrimitiveInt))
		require.Equal(t, va, vb)
	}
}
