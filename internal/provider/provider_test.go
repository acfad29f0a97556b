package provider

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/phptestgen/internal/fake"
	"github.com/cmmoran/phptestgen/internal/layout"
	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/output"
	"github.com/cmmoran/phptestgen/internal/phpval"
	"github.com/cmmoran/phptestgen/internal/reflection"
	"github.com/cmmoran/phptestgen/internal/render"
	"github.com/cmmoran/phptestgen/internal/resolver"
)

func newAssembler(opts Options, classes ...*model.Class) *Assembler {
	reg := reflection.NewRegistry(classes...)
	res := resolver.New(reg, nil, resolver.Options{})
	return New(reg, res, fake.New(1), layout.New("App", "tests/Unit"), opts)
}

func param(name, typ string) *model.Param { return &model.Param{Name: name, Type: typ} }

var calculator = &model.Class{Name: `App\Calculator`, Methods: []*model.Method{
	{Name: "add", Class: `App\Calculator`, ReturnType: "int", Params: []*model.Param{param("a", "int"), param("b", "int")}},
	{Name: "notify", Class: `App\Calculator`, ReturnType: "void", Params: []*model.Param{param("msg", "string")}},
}}

func addAll(t *testing.T, a *Assembler, class *model.Class, m *model.Method) string {
	t.Helper()
	ctx := context.Background()
	name, err := a.AddMethod(ctx, class, m)
	require.NoError(t, err)
	for i := range m.Params {
		require.NoError(t, a.AddArgument(ctx, class, m, i, name))
	}
	return name
}

func TestMethodName(t *testing.T) {
	require.Equal(t, DefaultArgs, MethodName(&model.Method{Name: "__construct"}))
	require.Equal(t, "getDataForAddMethod", MethodName(&model.Method{Name: "add"}))
}

func TestAddScalarMethod(t *testing.T) {
	a := newAssembler(Options{})
	name := addAll(t, a, calculator, calculator.Methods[0])
	require.Equal(t, "getDataForAddMethod", name)

	sets := a.DataSets(calculator.Name, name)
	require.Len(t, sets, 1)
	require.Equal(t, []string{"add", "a", "b"}, sets[0].Args.Keys())
	for _, k := range []string{"a", "b"} {
		v, _ := sets[0].Args.Get(k)
		require.IsType(t, 0, v)
		require.GreaterOrEqual(t, v.(int), 1)
		require.LessOrEqual(t, v.(int), 9)
		times, _ := sets[0].Times.Get(k)
		require.Equal(t, 0, times)
	}
}

func TestAddVoidMethod(t *testing.T) {
	a := newAssembler(Options{DataSets: 2})
	name := addAll(t, a, calculator, calculator.Methods[1])

	sets := a.DataSets(calculator.Name, name)
	require.Len(t, sets, 2)
	for _, s := range sets {
		require.Equal(t, []string{"msg"}, s.Args.Keys())
		require.False(t, s.Args.Has("notify"))
		times, _ := s.Times.Get("msg")
		require.Equal(t, 0, times)
	}
}

func TestConstructorDefaultsPropagate(t *testing.T) {
	foo := &model.Class{Name: `App\Foo`, Methods: []*model.Method{
		{Name: "__construct", Class: `App\Foo`, Params: []*model.Param{param("name", "string")}},
		{Name: "bar", Class: `App\Foo`, ReturnType: "void"},
		{Name: "baz", Class: `App\Foo`, ReturnType: "string", Params: []*model.Param{param("name", "string")}},
	}}
	a := newAssembler(Options{}, foo)
	for _, m := range foo.Methods {
		addAll(t, a, foo, m)
	}

	e := a.entries[strings.ToLower(foo.Name)]
	bar := e.merged("getDataForBarMethod", 1)
	require.Len(t, bar, 1)
	require.True(t, bar[0].Args.Has("name"))

	defaults := a.DataSets(foo.Name, DefaultArgs)
	want, _ := defaults[0].Args.Get("name")
	baz := e.merged("getDataForBazMethod", 1)
	require.Equal(t, []string{"name", "baz"}, baz[0].Args.Keys())
	got, _ := baz[0].Args.Get("name")
	own, _ := a.DataSets(foo.Name, "getDataForBazMethod")[0].Args.Get("name")
	require.Equal(t, own, got, "method values win over defaults")
	require.NotNil(t, want)
	require.Equal(t, []string{DefaultArgs, "getDataForBarMethod", "getDataForBazMethod"}, e.ordered())
}

func TestMockDataWalk(t *testing.T) {
	user := &model.Class{Name: `App\Entity\User`, Methods: []*model.Method{
		{Name: "getEmail", Class: `App\Entity\User`, ReturnType: "string"},
		{Name: "getAddress", Class: `App\Entity\User`, ReturnType: `App\Entity\Address`},
		{Name: "getFriends", Class: `App\Entity\User`, ReturnType: "array", Doc: "/** @return Address[] */"},
		{Name: "copy", Class: `App\Entity\User`, ReturnType: `App\Entity\User`},
		{Name: "fromArray", Class: `App\Entity\User`, ReturnType: "static", Static: true},
	}}
	address := &model.Class{Name: `App\Entity\Address`, Methods: []*model.Method{
		{Name: "getCity", Class: `App\Entity\Address`, ReturnType: "string"},
	}}
	repo := &model.Class{Name: `App\Repo\Users`, Methods: []*model.Method{
		{Name: "find", Class: `App\Repo\Users`, ReturnType: `App\Entity\User`, Params: []*model.Param{param("id", "int")}},
	}}
	a := newAssembler(Options{}, user, address, repo)
	name := addAll(t, a, repo, repo.Methods[0])

	set := a.DataSets(repo.Name, name)[0]
	v, _ := set.Args.Get("find")
	found := v.(*phpval.Map)
	require.Equal(t, []string{"getEmail", "getAddress", "getFriends", "className"}, found.Keys())
	cls, _ := found.Get("className")
	require.Equal(t, `App\Entity\User`, cls)

	email, _ := found.Get("getEmail")
	require.Contains(t, email, "@")

	tm, _ := set.Times.Get("find")
	times := tm.(*phpval.Map)
	outer, _ := times.Get("times")
	require.Equal(t, 0, outer)

	friends, _ := times.Get("getFriends")
	nested := friends.(*phpval.Map)
	require.Equal(t, []string{"times", "mockTimes"}, nested.Keys())
	list, _ := nested.Get("mockTimes")
	require.Len(t, list, 1)
	require.Equal(t, []string{"getCity"}, list.([]any)[0].(*phpval.Map).Keys())
}

func TestMockDataDepth(t *testing.T) {
	var classes []*model.Class
	names := []string{`App\A`, `App\B`, `App\C`, `App\D`, `App\E`, `App\F`}
	for i, n := range names[:5] {
		classes = append(classes, &model.Class{Name: n, Methods: []*model.Method{{Name: "next", Class: n, ReturnType: names[i+1]}}})
	}
	classes = append(classes, &model.Class{Name: `App\F`})
	a := newAssembler(Options{MaxDepth: 2}, classes...)

	args, _, err := a.walk(context.Background(), classes[0], 1)
	require.NoError(t, err)

	depth := 0
	for cur := args; cur != nil; depth++ {
		next, ok := cur.Get("next")
		if !ok {
			break
		}
		cur = next.(*phpval.Map)
	}
	require.Equal(t, 2, depth)
}

func TestFlushIdempotent(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	w := Writer{Store: output.NewStore(fs), Render: render.MustNew()}

	a := newAssembler(Options{}, calculator)
	addAll(t, a, calculator, calculator.Methods[0])
	targets, err := a.Flush(ctx, w)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, `App\Tests\Unit\DataProvider\CalculatorDataProvider`, targets[0].FQN())

	first, err := afero.ReadFile(fs, targets[0].Path)
	require.NoError(t, err)
	require.Contains(t, string(first), "class CalculatorDataProvider")
	require.Contains(t, string(first), "public static function getDataForAddMethod(): array")

	again := newAssembler(Options{}, calculator)
	addAll(t, again, calculator, calculator.Methods[0])
	addAll(t, again, calculator, calculator.Methods[1])
	_, err = again.Flush(ctx, w)
	require.NoError(t, err)

	second, err := afero.ReadFile(fs, targets[0].Path)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(second), "function getDataForAddMethod("))
	require.Equal(t, 1, strings.Count(string(second), "function getDataForNotifyMethod("))
	require.True(t, strings.HasPrefix(string(second), string(first[:len(first)-2])))
}
