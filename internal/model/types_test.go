package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArrayOf(t *testing.T) {
	tests := []struct {
		name string
		elem ResolvedType
		want string
		kind Kind
	}{
		{name: "class element", elem: Named(`\App\User`), want: `App\User[]`, kind: KindArrayOf},
		{name: "primitive element", elem: Prim(PrimitiveString), want: "string[]", kind: KindArrayOf},
		{name: "nested array flattens", elem: ArrayOf(Named("App\\User")), want: "array", kind: KindPrimitive},
		{name: "array of array primitive flattens", elem: Prim(PrimitiveArray), want: "array", kind: KindPrimitive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ArrayOf(tt.elem)
			require.Equal(t, tt.kind, got.Kind)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestSuffix(t *testing.T) {
	require.Equal(t, "Int", Prim(PrimitiveInt).Suffix())
	require.Equal(t, "UserInterface", Named(`App\Contract\UserInterface`).Suffix())
	require.Equal(t, "User", ArrayOf(Named(`App\User`)).Suffix())
	require.Equal(t, "Array", ArrayOf(Prim(PrimitiveMixed)).Suffix())
	require.Equal(t, "Calculator", Self(`App\Calculator`).Suffix())
}

func TestLookupPrimitive(t *testing.T) {
	for _, name := range []string{"INT", "integer", "Boolean", `\Closure`, "iterable"} {
		_, ok := LookupPrimitive(name)
		require.Truef(t, ok, "expected %q to be primitive", name)
	}
	_, ok := LookupPrimitive(`App\Thing`)
	require.False(t, ok)
}

func TestNames(t *testing.T) {
	require.Equal(t, `App\Service`, NamespaceOf(`\App\Service\Mailer`))
	require.Equal(t, "", NamespaceOf("DateTime"))
	require.Equal(t, "Mailer", ShortName(`App\Service\Mailer`))
	require.Equal(t, `App\Mailer`, Qualify(`\App\`, `\Mailer`))
	require.Equal(t, "Mailer", Qualify("", "Mailer"))
	require.Equal(t, `App\Tests\Unit`, Qualify(`App\Tests\Unit\`, ""))
}
