package mock

import (
	"fmt"
	"strings"

	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/phpval"
)

const (
	BackendMockery = "mockery"
	BackendPHPUnit = "phpunit"
)

// ReturnKind is the category of value a mocked method hands back.
type ReturnKind int

const (
	// ReturnValue returns the placeholder supplied in $mockArgs.
	ReturnValue ReturnKind = iota
	ReturnNull
	ReturnVoid
	ReturnSelf
	ReturnCallable
	ReturnObject
	// ReturnMock returns a nested mock built from $mockArgs.
	ReturnMock
	// ReturnMockList returns one nested mock per element of $mockArgs.
	ReturnMockList
)

// Expectation is one mocked method with its return category.
type Expectation struct {
	Method string
	Return ReturnKind
	// Mock is the nested descriptor for ReturnMock and ReturnMockList.
	Mock *Descriptor
}

// Backend renders mock setup statements for one mocking framework.
type Backend interface {
	Name() string
	// ReturnInterface is the type returned by generated mock helpers.
	ReturnInterface() string
	// Declare creates $mock for class, restricted to methods when the
	// framework needs them listed.
	Declare(class string, methods []string) []string
	// Expect configures one method of $mock.
	Expect(e Expectation) []string
}

// BackendFor selects a backend by configuration name.
func BackendFor(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BackendMockery, "":
		return Mockery{}, nil
	case BackendPHPUnit:
		return PHPUnit{}, nil
	}
	return nil, fmt.Errorf("%w: %q", model.ErrInvalidMockBackend, name)
}

func args(method string) string  { return "$mockArgs[" + phpval.Quote(method) + "]" }
func times(method string) string { return "$mockTimes[" + phpval.Quote(method) + "]" }

// nested returns the statements binding the nested mock of e, and the
// expression holding it.
func nested(e Expectation) ([]string, string) {
	m := e.Mock
	if e.Return == ReturnMockList {
		list := "$" + m.ShortName + "s"
		return []string{
			list + " = [];",
			"",
			"foreach (" + args(e.Method) + " as $i => $" + m.ShortName + ") {",
			"    " + list + "[] = $this->" + m.MethodName + "($" + m.ShortName + ", " + times(e.Method) + "['mockTimes'][$i]);",
			"}",
		}, list
	}
	v := "$" + m.ShortName
	return []string{v + " = $this->" + m.MethodName + "(" + args(e.Method) + ", " + times(e.Method) + ");"}, v
}

func indent(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if l != "" {
			l = "    " + l
		}
		out[i] = l
	}
	return out
}

// Mockery renders fluent \Mockery expectations.
type Mockery struct{}

func (Mockery) Name() string            { return BackendMockery }
func (Mockery) ReturnInterface() string { return `Mockery\MockInterface` }

func (Mockery) Declare(class string, _ []string) []string {
	return []string{"$mock = \\Mockery::namedMock(" + phpval.Quote(`Mock\`+class) + ", \\" + class + "::class);"}
}

func (Mockery) Expect(e Expectation) []string {
	t := times(e.Method)
	out := []string{
		"if (array_key_exists(" + phpval.Quote(e.Method) + ", $mockTimes)) {",
		"    $mockMethod = $mock",
		"        ->shouldReceive(" + phpval.Quote(e.Method) + ");",
		"",
		"    if (null === " + t + ") {",
		"        $mockMethod->zeroOrMoreTimes();",
		"    } elseif (is_array(" + t + ")) {",
		"        $mockMethod->times(" + t + "['times']);",
		"    } else {",
		"        $mockMethod->times(" + t + ");",
		"    }",
	}
	var ret []string
	switch e.Return {
	case ReturnValue:
		ret = []string{"$mockMethod->andReturn(" + args(e.Method) + ");"}
	case ReturnNull:
		ret = []string{"$mockMethod->andReturnNull();"}
	case ReturnSelf:
		ret = []string{"$mockMethod->andReturnSelf();"}
	case ReturnCallable:
		ret = []string{"$mockMethod->andReturn(function () { return true; });"}
	case ReturnObject:
		ret = []string{"$mockMethod->andReturn(new class {});"}
	case ReturnMock, ReturnMockList:
		bind, v := nested(e)
		ret = append(bind, "$mockMethod->andReturn("+v+");")
	}
	out = append(out, indent(ret)...)
	return append(out, "}")
}

// PHPUnit renders expectations on a built-in PHPUnit mock object.
type PHPUnit struct{}

func (PHPUnit) Name() string            { return BackendPHPUnit }
func (PHPUnit) ReturnInterface() string { return `PHPUnit\Framework\MockObject\MockObject` }

func (PHPUnit) Declare(class string, methods []string) []string {
	out := []string{
		"$mock = $this->getMockBuilder(\\" + class + "::class)",
		"    ->disableOriginalConstructor()",
	}
	if len(methods) > 0 {
		quoted := make([]any, len(methods))
		for i, m := range methods {
			quoted[i] = m
		}
		out = append(out, "    ->onlyMethods("+phpval.ExportInline(quoted)+")")
	}
	return append(out, "    ->getMock();")
}

func (PHPUnit) Expect(e Expectation) []string {
	t := times(e.Method)
	out := []string{
		"if (array_key_exists(" + phpval.Quote(e.Method) + ", $mockTimes)) {",
		"    if (null === " + t + ") {",
		"        $expects = $this->any();",
		"    } elseif (is_array(" + t + ")) {",
		"        $expects = $this->exactly(" + t + "['times']);",
		"    } else {",
		"        $expects = $this->exactly(" + t + ");",
		"    }",
		"    $mockMethod = $mock",
		"        ->expects($expects)",
		"        ->method(" + phpval.Quote(e.Method) + ");",
	}
	var ret []string
	switch e.Return {
	case ReturnValue:
		ret = []string{"$mockMethod->willReturn(" + args(e.Method) + ");"}
	case ReturnNull:
		ret = []string{"$mockMethod->willReturn(null);"}
	case ReturnSelf:
		ret = []string{"$mockMethod->willReturnSelf();"}
	case ReturnCallable:
		ret = []string{"$mockMethod->willReturn(function () { return true; });"}
	case ReturnObject:
		ret = []string{"$mockMethod->willReturn(new class {});"}
	case ReturnMock, ReturnMockList:
		bind, v := nested(e)
		ret = append(bind, "$mockMethod->willReturn("+v+");")
	}
	out = append(out, indent(ret)...)
	return append(out, "}")
}
