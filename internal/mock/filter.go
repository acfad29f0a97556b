package mock

import (
	"strings"

	"github.com/cmmoran/phptestgen/internal/model"
)

// MagicMethods never get mocks or tests; compared lower-cased.
var MagicMethods = []string{"__call", "__get", "__set", "__isset", "__unset", "__sleep", "__wakeup", "__tostring"}

// Filter holds the configured exclusion lists.
type Filter struct {
	// Classes whose mocks expose no methods at all.
	Classes []string
	// Methods excluded from every mock.
	Methods []string
	// ClassMethods excludes methods of one class.
	ClassMethods map[string][]string
	// AllExcept keeps only the listed methods of one class.
	AllExcept map[string][]string
	// DeclaringClasses excludes methods whose declaring class has one of
	// these top-level segments.
	DeclaringClasses []string
}

// DefaultFilter leaves out what PHP's own Exception declares.
func DefaultFilter() Filter {
	return Filter{DeclaringClasses: []string{"Exception"}}
}

// contains reports whether list holds s ignoring case, as PHP does for
// class and method names.
func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func lookup(m map[string][]string, class string) ([]string, bool) {
	if v, ok := m[class]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(strings.TrimPrefix(k, `\`), class) {
			return v, true
		}
	}
	return nil, false
}

// IsMagic reports whether name is one of the magic methods.
func IsMagic(name string) bool {
	return contains(MagicMethods, strings.ToLower(name))
}

// ExcludedDeclaring reports whether methods declared by class are skipped.
func (f Filter) ExcludedDeclaring(class string) bool {
	top := strings.TrimPrefix(class, `\`)
	if i := strings.Index(top, `\`); i >= 0 {
		top = top[:i]
	}
	return contains(f.DeclaringClasses, top)
}

// Excludes applies the configured lists to m as a member of class.
func (f Filter) Excludes(class string, m *model.Method) bool {
	if contains(f.Classes, class) || contains(f.Methods, m.Name) {
		return true
	}
	if list, ok := lookup(f.ClassMethods, class); ok && contains(list, m.Name) {
		return true
	}
	if keep, ok := lookup(f.AllExcept, class); ok && !contains(keep, m.Name) {
		return true
	}
	return false
}

// Mockable reports whether m gets an expectation in the mock of class.
func (f Filter) Mockable(class string, m *model.Method) bool {
	switch {
	case m.IsConstructor(), m.IsDestructor(), !m.IsPublic(), m.Static:
		return false
	case f.Excludes(class, m), IsMagic(m.Name), f.ExcludedDeclaring(m.Class):
		return false
	}
	return true
}

// Testable reports whether m of the class under test gets a test method.
func (f Filter) Testable(m *model.Method) bool {
	switch {
	case m.IsConstructor(), m.IsDestructor(), !m.IsPublic(), m.Abstract:
		return false
	case IsMagic(m.Name), f.ExcludedDeclaring(m.Class):
		return false
	}
	return !f.Excludes(m.Class, m)
}
