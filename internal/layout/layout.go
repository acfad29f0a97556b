// Package layout maps PHP class names to the location of the artefacts
// generated for them, following PSR-4 under the project namespace.
package layout

import (
	"path/filepath"
	"strings"

	"github.com/cmmoran/phptestgen/internal/model"
)

const (
	TestSuffix         = "Test"
	MockTraitSuffix    = "MockHelper"
	DataProviderSuffix = "DataProvider"
	BaseTestCaseName   = "UnitTestCase"
	MockFolder         = "Mock"
	DataProviderFolder = "DataProvider"

	vendorFolder    = "Vendor"
	nativeNamespace = "Native"
	commonFolder    = "Common"
)

// Target locates one generated PHP type.
type Target struct {
	Namespace string
	Name      string
	Path      string
}

// FQN returns the fully-qualified name without a leading backslash.
func (t Target) FQN() string { return model.Qualify(t.Namespace, t.Name) }

// Layout holds the namespace and directory roots of a project.
type Layout struct {
	ProjectNamespace string
	TestNamespace    string
	TestDir          string
}

// New derives the test namespace `<project>\Tests\Unit` from the project
// namespace.
func New(projectNamespace, testDir string) Layout {
	projectNamespace = strings.Trim(projectNamespace, `\`)
	return Layout{
		ProjectNamespace: projectNamespace,
		TestNamespace:    model.Qualify(projectNamespace, `Tests\Unit`),
		TestDir:          filepath.Clean(testDir),
	}
}

// InProject reports whether fqn lives under the project namespace.
func (l Layout) InProject(fqn string) bool {
	_, ok := l.Relative(fqn)
	return ok
}

// Relative strips the project namespace from fqn.
func (l Layout) Relative(fqn string) (string, bool) {
	fqn = strings.TrimPrefix(fqn, `\`)
	if l.ProjectNamespace == "" {
		return fqn, true
	}
	prefix := l.ProjectNamespace + `\`
	if len(fqn) > len(prefix) && strings.EqualFold(fqn[:len(prefix)], prefix) {
		return fqn[len(prefix):], true
	}
	return "", false
}

// Module returns the top-level segment of a project class, used to group
// test suites.
func (l Layout) Module(fqn string) string {
	rel, ok := l.Relative(fqn)
	if !ok {
		rel = strings.TrimPrefix(fqn, `\`)
	}
	if i := strings.Index(rel, `\`); i >= 0 {
		return rel[:i]
	}
	return nativeNamespace
}

func (l Layout) relativeOrFull(fqn string) string {
	if rel, ok := l.Relative(fqn); ok {
		return rel
	}
	return strings.TrimPrefix(fqn, `\`)
}

func toPath(ns string) string {
	if ns == "" {
		return ""
	}
	return filepath.Join(strings.Split(ns, `\`)...)
}

// TestClass locates the unit test of fqn.
func (l Layout) TestClass(fqn string) Target {
	rel := l.relativeOrFull(fqn)
	ns := model.NamespaceOf(rel)
	name := model.ShortName(rel) + TestSuffix
	return Target{
		Namespace: model.Qualify(l.TestNamespace, ns),
		Name:      name,
		Path:      filepath.Join(l.TestDir, toPath(ns), name+".php"),
	}
}

// DataProvider locates the provider class of fqn. Classes outside the
// project share the Common folder and carry their full name.
func (l Layout) DataProvider(fqn string) Target {
	base := model.Qualify(l.TestNamespace, DataProviderFolder)
	dir := filepath.Join(l.TestDir, DataProviderFolder)

	rel, ok := l.Relative(fqn)
	if !ok {
		name := ucfirst(strings.ReplaceAll(strings.TrimPrefix(fqn, `\`), `\`, "")) + DataProviderSuffix
		return Target{
			Namespace: model.Qualify(base, commonFolder),
			Name:      name,
			Path:      filepath.Join(dir, commonFolder, name+".php"),
		}
	}
	ns := model.NamespaceOf(rel)
	name := model.ShortName(rel) + DataProviderSuffix
	return Target{
		Namespace: model.Qualify(base, ns),
		Name:      name,
		Path:      filepath.Join(dir, toPath(ns), name+".php"),
	}
}

// MockTrait locates the mock helper trait that holds the mock of fqn. Mocks
// are bucketed by the first two segments of their name; classes outside the
// project go under Vendor and global classes under Native.
func (l Layout) MockTrait(fqn string) Target {
	ns := model.Qualify(l.TestNamespace, MockFolder)
	dir := filepath.Join(l.TestDir, MockFolder)

	rel, ok := l.Relative(fqn)
	if !ok {
		ns = model.Qualify(ns, vendorFolder)
		dir = filepath.Join(dir, vendorFolder)
		rel = strings.TrimPrefix(fqn, `\`)
	}
	if !strings.Contains(rel, `\`) {
		rel = nativeNamespace + `\` + rel
	}
	segs := strings.Split(rel, `\`)
	name := segs[1] + MockTraitSuffix
	return Target{
		Namespace: model.Qualify(ns, segs[0]),
		Name:      name,
		Path:      filepath.Join(dir, segs[0], name+".php"),
	}
}

// BaseTestCase locates the abstract test case every generated test extends.
func (l Layout) BaseTestCase() Target {
	return Target{
		Namespace: l.TestNamespace,
		Name:      BaseTestCaseName,
		Path:      filepath.Join(l.TestDir, BaseTestCaseName+".php"),
	}
}

func ucfirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
