// Package render turns generation results into PHP source text using the
// embedded templates.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// ID names one embedded template.
type ID string

const (
	TestClass          ID = "test_class"
	TestMethod         ID = "test_method"
	DataProvider       ID = "data_provider"
	DataProviderMethod ID = "data_provider_method"
	MockTrait          ID = "mock_trait"
	MockMethod         ID = "mock_method"
	BaseTestCase       ID = "base_test_case"
	PHPUnitXML         ID = "phpunit_xml"
)

// fragments render a member appended to a class body: they start with a
// newline and carry no trailing one.
var fragments = map[ID]bool{
	TestMethod:         true,
	DataProviderMethod: true,
	MockMethod:         true,
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"xml":  template.HTMLEscapeString,
}

// Registry holds the parsed templates.
type Registry struct {
	tmpl *template.Template
}

func New() (*Registry, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Registry{tmpl: t}, nil
}

// MustNew is New for callers that treat a broken embedded template as a bug.
func MustNew() *Registry {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes the template id with vars.
func (r *Registry) Render(id ID, vars any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, string(id)+".tmpl", vars); err != nil {
		return "", fmt.Errorf("render %s: %w", id, err)
	}
	out := strings.TrimRight(buf.String(), "\n")
	if fragments[id] {
		return out, nil
	}
	return out + "\n", nil
}

// Stamp carries the date and time written into file headers.
type Stamp struct {
	Date string
	Time string
}

// Clock supplies the current time for header stamps.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// StampOf formats the current time of c.
func StampOf(c Clock) Stamp {
	if c == nil {
		c = SystemClock{}
	}
	now := c.Now()
	return Stamp{Date: now.Format("2006-01-02"), Time: now.Format("15:04:05")}
}

type TestClassVars struct {
	Stamp
	Namespace     string
	Name          string
	FullClassName string
	BaseTestCase  string
	Uses          []string
	Traits        []string
	Methods       string
}

type TestMethodVars struct {
	Comment            string
	FullClassName      string
	OrigMethodName     string
	DataProvider       string
	DataProviderMethod string
	MethodName         string
	Body               []string
}

type DataProviderVars struct {
	Stamp
	Namespace string
	Name      string
	TestClass string
	Methods   string
}

type DataProviderMethodVars struct {
	Name   string
	Method string
	Data   string
}

type MockTraitVars struct {
	Stamp
	Namespace string
	Name      string
	Bucket    string
	Methods   string
}

type MockMethodVars struct {
	Class           string
	MethodName      string
	ReturnInterface string
	Args            string
	Times           string
	Body            []string
}

type BaseTestCaseVars struct {
	Stamp
	Namespace string
	Name      string
	Mockery   bool
}

type PHPUnitVars struct {
	Bootstrap string
	Suites    []Suite
}

// Suite is one <testsuite> of phpunit.xml.
type Suite struct {
	Name  string
	Files []string
}
