package reflection

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/phptestgen/internal/model"
)

const calculator = `<?php
namespace App\Math;

use App\Contract\ResultInterface as Result;

/**
 * Adds numbers.
 */
final class Calculator extends BaseCalculator implements \Countable
{
    use LoggerAware;

    /**
     * @param int $a
     */
    public function add(int $a, int $b = self::ZERO): int
    {
        return $a + $b;
    }

    protected function reset(): void {}

    public static function make(?Result $seed, string ...$rest): static {}
}
`

func TestParseSource(t *testing.T) {
	idx, err := ParseSource(context.Background(), "src/Math/Calculator.php", []byte(calculator))
	require.NoError(t, err)
	require.Equal(t, `App\Math`, idx.Namespace)
	require.Len(t, idx.Classes, 1)

	c := idx.Classes[0]
	require.Equal(t, `App\Math\Calculator`, c.Name)
	require.True(t, c.Final)
	require.Equal(t, `App\Math\BaseCalculator`, c.Parent)
	require.Equal(t, []string{"Countable"}, c.Interfaces)
	require.Equal(t, []string{`App\Math\LoggerAware`}, c.Traits)
	require.Contains(t, c.Doc, "Adds numbers.")
	require.Len(t, c.Methods, 3)

	add := c.Methods[0]
	require.Equal(t, "add", add.Name)
	require.Equal(t, c.Name, add.Class)
	require.Equal(t, "src/Math/Calculator.php", add.File)
	require.Equal(t, "int", add.ReturnType)
	require.Contains(t, add.Doc, "@param int $a")
	require.Len(t, add.Params, 2)
	require.Equal(t, &model.Param{Name: "b", Type: "int", Default: "self::ZERO", HasDefault: true}, add.Params[1])

	reset := c.Methods[1]
	require.Equal(t, model.Protected, reset.Visibility)

	mk := c.Methods[2]
	require.True(t, mk.Static)
	require.Equal(t, "static", mk.ReturnType)
	require.Equal(t, `?App\Contract\ResultInterface`, mk.Params[0].Type)
	require.True(t, mk.Params[1].Variadic)
}

func fixture() *Registry {
	return NewRegistry(
		&model.Class{Name: `App\Base`, Abstract: true, Traits: []string{`App\Greets`}, Interfaces: []string{`App\Named`},
			Methods: []*model.Method{{Name: "base", Class: `App\Base`}, {Name: "name", Class: `App\Base`, Doc: "/** base */"}}},
		&model.Class{Name: `App\Greets`, Kind: model.ClassKindTrait, File: "src/Greets.php",
			Methods: []*model.Method{{Name: "greet", Class: `App\Greets`, File: "src/Greets.php"}}},
		&model.Class{Name: `App\Named`, Kind: model.ClassKindInterface,
			Methods: []*model.Method{{Name: "name", Class: `App\Named`, Doc: "/** @return string */"}, {Name: "alias", Class: `App\Named`}}},
		&model.Class{Name: `App\Child`, Parent: `App\Base`, Traits: []string{`App\Missing`},
			Methods: []*model.Method{{Name: "name", Class: `App\Child`, Doc: "/** {@inheritdoc} */"}, {Name: "child", Class: `App\Child`}}},
	)
}

func TestRegistryMethodsOrder(t *testing.T) {
	r := fixture()
	child, ok := r.Class(`app\child`)
	require.True(t, ok)

	var names []string
	for _, m := range r.Methods(child) {
		names = append(names, m.Name)
	}
	require.Equal(t, []string{"name", "child", "base", "greet", "alias"}, names)

	base, _ := r.Class(`App\Base`)
	for _, m := range r.Methods(base) {
		if m.Name == "greet" {
			require.Equal(t, `App\Base`, m.Class)
			require.Equal(t, `App\Greets`, m.Origin)
			require.Equal(t, "src/Greets.php", m.File)
		}
	}
}

func TestRegistryAncestorsAndTraits(t *testing.T) {
	r := fixture()
	child, _ := r.Class(`App\Child`)
	require.Equal(t, []string{`App\Base`, `App\Missing`, `App\Greets`}, r.Ancestors(child))
	require.Equal(t, []string{`App\Missing`}, r.MissingTraits(child))

	base, _ := r.Class(`App\Base`)
	require.Empty(t, r.MissingTraits(base))
}

func TestRegistryPrototype(t *testing.T) {
	r := fixture()
	child, _ := r.Class(`App\Child`)
	proto, ok := r.Prototype(child.DeclaredMethod("name"))
	require.True(t, ok)
	require.Equal(t, `App\Named`, proto.Class)

	_, ok = r.Prototype(child.DeclaredMethod("child"))
	require.False(t, ok)
}

func TestRegistryPrefersUserClasses(t *testing.T) {
	user := &model.Class{Name: "Countable", Methods: []*model.Method{{Name: "custom"}}}
	r := NewRegistry(user)
	builtins, err := Builtins()
	require.NoError(t, err)
	r.Add(builtins...)

	got, ok := r.Class("Countable")
	require.True(t, ok)
	require.Same(t, user, got)
	require.True(t, r.Exists("DateTimeInterface"))
}

func TestIndexerBuild(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "src/Math/Calculator.php", []byte(calculator), 0o644))
	require.NoError(t, afero.WriteFile(fs, "src/Math/Ignored.php", []byte("<?php\nclass Ignored {}\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "src/readme.md", []byte("# no"), 0o644))

	ix := NewIndexer(fs, WithWorkers(2))
	reg, indexes, err := ix.Build(context.Background(), Source{
		Include: []string{"src/**/*.php"},
		Exclude: []string{"**/Ignored.php"},
	})
	require.NoError(t, err)
	require.Len(t, indexes, 1)
	require.True(t, reg.Exists(`App\Math\Calculator`))
	require.False(t, reg.Exists("Ignored"))
	require.True(t, reg.Exists("Exception"))
}

func TestDumpRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := fixture()
	builtins, err := Builtins()
	require.NoError(t, err)
	r.Add(builtins...)

	require.NoError(t, SaveDump(fs, "out/reflection.yaml", r))
	classes, err := LoadDump(fs, "out/reflection.yaml")
	require.NoError(t, err)
	require.Len(t, classes, 4)

	missing, err := LoadDump(fs, "nope.yaml")
	require.NoError(t, err)
	require.Nil(t, missing)
}
