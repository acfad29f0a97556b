package synth

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/phptestgen/internal/fake"
	"github.com/cmmoran/phptestgen/internal/layout"
	"github.com/cmmoran/phptestgen/internal/mock"
	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/output"
	"github.com/cmmoran/phptestgen/internal/provider"
	"github.com/cmmoran/phptestgen/internal/reflection"
	"github.com/cmmoran/phptestgen/internal/render"
	"github.com/cmmoran/phptestgen/internal/resolver"
)

var clock = render.FixedClock(time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC))

func newGenerator(fs afero.Fs, opts Options, classes ...*model.Class) *Generator {
	reg := reflection.NewRegistry(classes...)
	res := resolver.New(reg, nil, resolver.Options{})
	lay := layout.New("App", "tests/Unit")
	filter := mock.DefaultFilter()
	opts.Filter = filter
	if opts.Clock == nil {
		opts.Clock = clock
	}
	return New(Config{
		Reflector: reg,
		Resolver:  res,
		Mocks:     mock.NewBuilder(reg, res, mock.Mockery{}, mock.Options{ProjectNamespace: "App", Filter: filter}),
		Providers: provider.New(reg, res, fake.New(1), lay, provider.Options{Filter: filter}),
		Layout:    lay,
		Store:     output.NewStore(fs),
		Render:    render.MustNew(),
		Options:   opts,
	})
}

func method(class, name, ret string, params ...*model.Param) *model.Method {
	return &model.Method{Name: name, Class: class, ReturnType: ret, Params: params}
}

func param(name, typ string) *model.Param { return &model.Param{Name: name, Type: typ} }

func calculator() *model.Class {
	const c = `App\Calculator`
	return &model.Class{Name: c, Methods: []*model.Method{
		method(c, "add", "int", param("a", "int"), param("b", "int")),
		method(c, "notify", "void", param("msg", "string")),
	}}
}

func users() []*model.Class {
	return []*model.Class{
		{Name: `App\Contract\UserInterface`, Kind: model.ClassKindInterface, Methods: []*model.Method{
			method(`App\Contract\UserInterface`, "getName", "string"),
		}},
		{Name: `App\Service\Users`, Methods: []*model.Method{
			method(`App\Service\Users`, "getUser", `?App\Contract\UserInterface`),
		}},
	}
}

func orders() []*model.Class {
	const c = `App\OrderService`
	ctor := method(c, "__construct", "", param("mailer", `App\Mail\Mailer`), &model.Param{Name: "retries", Type: "int", Default: "3", HasDefault: true})
	all := method(c, "all", "array")
	all.Doc = "/** @return User[] */"
	return []*model.Class{
		{Name: `App\Mail\Mailer`, Kind: model.ClassKindInterface, Methods: []*model.Method{method(`App\Mail\Mailer`, "deliver", "bool")}},
		{Name: `App\User`, Methods: []*model.Method{method(`App\User`, "getName", "string")}},
		{Name: c, Methods: []*model.Method{ctor, method(c, "send", "bool", param("to", "string")), all}},
	}
}

func read(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(b)
}

func TestScalarMethod(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	g := newGenerator(fs, Options{}, calculator())

	res, err := g.Generate(ctx, `App\Calculator`)
	require.NoError(t, err)
	require.Equal(t, Created, res.Status)
	require.Equal(t, 2, res.Methods)
	require.Equal(t, filepath.Join("tests", "Unit", "CalculatorTest.php"), res.Target.Path)
	require.Equal(t, "UnitTest '"+res.Target.Path+"' created.", res.String())

	doc := read(t, fs, res.Target.Path)
	require.Contains(t, doc, "namespace App\\Tests\\Unit;")
	require.Contains(t, doc, "use App\\Calculator;")
	require.Contains(t, doc, "class CalculatorTest extends UnitTestCase")
	require.NotContains(t, doc, "use App\\Tests\\Unit\\UnitTestCase;")
	require.Contains(t, doc, "@dataProvider \\App\\Tests\\Unit\\DataProvider\\CalculatorDataProvider::getDataForAddMethod")
	require.Contains(t, doc, "public function addShouldReturnInt(array $mockArgs, array $mockTimes): void")
	require.Contains(t, doc, strings.Join([]string{
		"        $test = new Calculator();",
		"",
		"        $a = $mockArgs['a'];",
		"        $b = $mockArgs['b'];",
		"",
		"        $result = $test->add($a, $b);",
		"        $this->assertEquals($mockArgs['add'], $result);",
		"    }",
	}, "\n"))
	require.Contains(t, doc, "@generated 2024-03-01 12:30:00")

	sets := g.providers.DataSets(`App\Calculator`, "getDataForAddMethod")
	require.Len(t, sets, 1)
	require.Equal(t, []string{"add", "a", "b"}, sets[0].Args.Keys())

	data := read(t, fs, filepath.Join("tests", "Unit", "DataProvider", "CalculatorDataProvider.php"))
	require.Contains(t, data, "namespace App\\Tests\\Unit\\DataProvider;")
	require.Contains(t, data, "function getDataForAddMethod(")
	require.Empty(t, g.mocks.Descriptors())
}

func TestVoidMethod(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := newGenerator(fs, Options{}, calculator())
	res, err := g.Generate(context.Background(), `App\Calculator`)
	require.NoError(t, err)

	doc := read(t, fs, res.Target.Path)
	require.Contains(t, doc, "public function notifyShouldReturnVoid(array $mockArgs, array $mockTimes): void")
	require.Contains(t, doc, "        $test->notify($msg);\n    }")
	require.NotContains(t, doc, "$result = $test->notify(")

	sets := g.providers.DataSets(`App\Calculator`, "getDataForNotifyMethod")
	require.Len(t, sets, 1)
	require.Equal(t, []string{"msg"}, sets[0].Args.Keys())
	times, _ := sets[0].Times.Get("msg")
	require.Equal(t, 0, times)
}

func TestClassReturn(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := newGenerator(fs, Options{}, users()...)
	res, err := g.Generate(context.Background(), `App\Service\Users`)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("tests", "Unit", "Service", "UsersTest.php"), res.Target.Path)

	doc := read(t, fs, res.Target.Path)
	require.Contains(t, doc, "namespace App\\Tests\\Unit\\Service;")
	require.Contains(t, doc, "use App\\Tests\\Unit\\UnitTestCase;")
	require.Contains(t, doc, "public function getUserShouldReturnUserInterface(")
	require.Contains(t, doc, "$this->assertInstanceOf(\\App\\Contract\\UserInterface::class, $result);")

	d, ok := g.mocks.Lookup(mock.KeyOf(`App\Contract\UserInterface`))
	require.True(t, ok)
	require.Equal(t, "AppContractUserInterfaceMock", d.Key)

	trait := read(t, fs, filepath.Join("tests", "Unit", "Mock", "Contract", "UserInterfaceMockHelper.php"))
	require.Contains(t, trait, "function createContractUserInterfaceMock(")
	require.Contains(t, doc, "use App\\Tests\\Unit\\Mock\\Contract\\UserInterfaceMockHelper;")
	require.Contains(t, doc, "    use UserInterfaceMockHelper;")
}

func TestMockedArguments(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := newGenerator(fs, Options{}, orders()...)
	res, err := g.Generate(context.Background(), `App\OrderService`)
	require.NoError(t, err)
	require.Equal(t, 2, res.Methods)

	doc := read(t, fs, res.Target.Path)
	require.Contains(t, doc, strings.Join([]string{
		"        $mailMailerMock = $this->createMailMailerMock($mockArgs['Mailer'], $mockTimes['Mailer']);",
		"        $retries = 3;",
		"",
		"        $test = new OrderService($mailMailerMock, $retries);",
		"",
		"        $to = $mockArgs['to'];",
		"",
		"        $result = $test->send($to);",
		"        $this->assertTrue($result);",
	}, "\n"))
	require.Contains(t, doc, "public function allShouldReturnUsers(")
	require.Contains(t, doc, strings.Join([]string{
		"        $alls = [];",
		"",
		"        foreach ($mockArgs['all'] as $i => $userMock) {",
		"            $alls[] = $this->createUserMock($userMock, $mockTimes['all'][$i]);",
		"        }",
	}, "\n"))
	require.Contains(t, doc, "$this->assertEquals($alls, $result);")
	require.Contains(t, doc, "use App\\Tests\\Unit\\Mock\\Mail\\MailerMockHelper;")

	defaults := g.providers.DataSets(`App\OrderService`, provider.DefaultArgs)
	require.Len(t, defaults, 1)
	require.Equal(t, []string{"Mailer", "retries"}, defaults[0].Args.Keys())
	sets := g.providers.DataSets(`App\OrderService`, "getDataForSendMethod")
	require.Len(t, sets, 1)
	require.True(t, sets[0].Args.Has("to"))
}

func TestDeterministicOutput(t *testing.T) {
	snapshot := func() map[string]string {
		fs := afero.NewMemMapFs()
		g := newGenerator(fs, Options{}, append(orders(), calculator())...)
		for _, name := range []string{`App\OrderService`, `App\Calculator`} {
			_, err := g.Generate(context.Background(), name)
			require.NoError(t, err)
		}
		files := map[string]string{}
		require.NoError(t, afero.Walk(fs, "tests", func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return err
			}
			files[path] = read(t, fs, path)
			return nil
		}))
		return files
	}
	first := snapshot()
	require.NotEmpty(t, first)
	if diff := cmp.Diff(first, snapshot()); diff != "" {
		t.Fatalf("output differs between runs (-first +second):\n%s", diff)
	}
}

func TestRepeatedGeneration(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	const other = `App\Billing`
	classes := append(orders(), &model.Class{Name: other, Methods: []*model.Method{
		method(other, "charge", "bool", param("mailer", `App\Mail\Mailer`)),
	}})
	g := newGenerator(fs, Options{}, classes...)

	first, err := g.Generate(ctx, `App\OrderService`)
	require.NoError(t, err)
	test := read(t, fs, first.Target.Path)
	trait := filepath.Join("tests", "Unit", "Mock", "Mail", "MailerMockHelper.php")

	again, err := g.Generate(ctx, `App\OrderService`)
	require.NoError(t, err)
	require.Equal(t, Exists, again.Status)
	require.Equal(t, test, read(t, fs, first.Target.Path))

	_, err = g.Generate(ctx, other)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(read(t, fs, trait), "function createMailMailerMock("))
}

func TestSkippedClasses(t *testing.T) {
	ctx := context.Background()
	classes := []*model.Class{
		{Name: `App\Base`, Abstract: true},
		{Name: `App\Contract\Repo`, Kind: model.ClassKindInterface},
		{Name: `App\Mixed`, Traits: []string{`App\Missing\Helper`}},
	}
	g := newGenerator(afero.NewMemMapFs(), Options{}, classes...)

	tests := []struct {
		class  string
		status Status
		report string
	}{
		{`App\Base`, Abstract, `Class 'App\Base' is abstract, test will not be generated.`},
		{`App\Contract\Repo`, NotTestable, `Class 'App\Contract\Repo' is not a class, test will not be generated.`},
		{`App\Mixed`, MissingTrait, ""},
	}
	for _, tc := range tests {
		t.Run(tc.class, func(t *testing.T) {
			res, err := g.Generate(ctx, tc.class)
			require.NoError(t, err)
			require.Equal(t, tc.status, res.Status)
			if tc.report != "" {
				require.Equal(t, tc.report, res.String())
			}
		})
	}

	_, err := g.Generate(ctx, `App\Nope`)
	require.ErrorIs(t, err, model.ErrInvalidClassName)
	require.Empty(t, g.Store().Changes())
}

func TestTestMethodName(t *testing.T) {
	user := model.Named(`App\User`)
	tests := []struct {
		name string
		m    *model.Method
		ret  model.ResolvedType
		want string
	}{
		{"plain", method("", "getTotal", "int"), model.Prim(model.PrimitiveInt), "getTotalShouldReturnInt"},
		{"create", method("", "createUser", ""), user, "createUserShouldInitializeAndReturnUser"},
		{"make", method("", "makeReport", ""), model.Prim(model.PrimitiveString), "makeReportShouldInitializeAndReturnString"},
		{"event", method("", "dispatch", ""), model.Named(`App\Event\OrderPlacedEvent`), "dispatchShouldFireOrderPlacedEvent"},
		{"handle void", method("", "handle", "", param("order", ""), param("user", "")), model.Prim(model.PrimitiveVoid), "handleShouldProcessOrderUser"},
		{"handle value", method("", "handleCommand", "", param("cmd", "")), model.Prim(model.PrimitiveBool), "handleCommandShouldProcessCmdAndReturnBool"},
		{"list", method("", "All", ""), model.ArrayOf(user), "allShouldReturnUsers"},
		{"array", method("", "toArray", ""), model.Prim(model.PrimitiveArray), "toArrayShouldReturnArray"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, TestMethodName(tc.m, tc.ret))
		})
	}
}

func TestUniqueNames(t *testing.T) {
	n := namer{}
	require.Equal(t, "getShouldReturnInt", n.unique("getShouldReturnInt"))
	require.Equal(t, "getShouldReturnInt2", n.unique("getShouldReturnInt"))
	require.Equal(t, "getShouldReturnInt3", n.unique("getShouldReturnInt"))
	require.Equal(t, "other", n.unique("other"))
}

func TestSummary(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{"", "Execute 'run' method"},
		{"/** Adds two numbers. */", "Adds two numbers"},
		{"/**\n * Sends the mail.\n *\n * @param string $to\n */", "Sends the mail"},
		{"/**\n * @return int\n */", "Execute 'run' method"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, Summary(&model.Method{Name: "run", Doc: tc.doc}), tc.doc)
	}
}

func TestRules(t *testing.T) {
	fs := afero.NewMemMapFs()
	rules := Rules{{
		Class:  `\App\Calculator`,
		Skip:   []string{"NOTIFY"},
		Rename: map[string]string{"add": "addsTwoNumbers"},
		Additional: map[string][]string{
			"add": {"$test->reset();"},
			"*":   {"$this->markAsRisky();"},
		},
	}}
	g := newGenerator(fs, Options{Preprocessor: rules}, calculator())
	res, err := g.Generate(context.Background(), `App\Calculator`)
	require.NoError(t, err)
	require.Equal(t, 1, res.Methods)

	doc := read(t, fs, res.Target.Path)
	require.NotContains(t, doc, "notify")
	require.Contains(t, doc, "public function addsTwoNumbers(")
	require.Contains(t, doc, "        $this->markAsRisky();\n        $test->reset();\n\n        $result = $test->add($a, $b);")
}

func TestRulesCaseCollisions(t *testing.T) {
	rules := Rules{{
		Class:  `App\Calculator`,
		Rename: map[string]string{"ADD": "upper", "add": "exact", "Add": "title"},
		Additional: map[string][]string{
			"add": {"$c = 3;"},
			"Add": {"$b = 2;"},
			"ADD": {"$a = 1;"},
		},
	}}
	class := calculator()
	for i := 0; i < 20; i++ {
		name, extra := rules.Process(class, class.Methods[0], "addShouldReturnInt")
		require.Equal(t, "exact", name)
		require.Equal(t, []string{"$c = 3;", "$a = 1;", "$b = 2;"}, extra)
	}

	rules[0].Rename = map[string]string{"Add": "title", "ADD": "upper"}
	name, _ := rules.Process(class, &model.Method{Name: "aDD", Class: class.Name}, "x")
	require.Equal(t, "upper", name)
}

func TestScaffold(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := newGenerator(fs, Options{})

	written, err := g.BaseTestCase()
	require.NoError(t, err)
	require.True(t, written)
	base := read(t, fs, filepath.Join("tests", "Unit", "UnitTestCase.php"))
	require.Contains(t, base, "abstract class UnitTestCase extends TestCase")
	require.Contains(t, base, "use MockeryPHPUnitIntegration;")

	written, err = g.BaseTestCase()
	require.NoError(t, err)
	require.False(t, written)

	written, err = g.PHPUnitConfig("phpunit.xml", "vendor/autoload.php", map[string][]string{
		"Order":   {filepath.Join("tests", "Unit", "Order", "ServiceTest.php")},
		"Billing": {filepath.Join("tests", "Unit", "Billing", "InvoiceTest.php")},
	})
	require.NoError(t, err)
	require.True(t, written)
	xml := read(t, fs, "phpunit.xml")
	require.Less(t, strings.Index(xml, "Billing Test Suite"), strings.Index(xml, "Order Test Suite"))
	require.Contains(t, xml, "tests/Unit/Order/ServiceTest.php")
}
