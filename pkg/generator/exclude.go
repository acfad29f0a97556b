package generator

import (
	"strings"

	"github.com/cmmoran/phptestgen/internal/mock"
)

// Exclude lists what mocks and tests leave out. Method entries are either a
// bare method name, excluded everywhere, or "Class::method".
type Exclude struct {
	// Classes are mocked without any expectations.
	Classes []string `json:"classes,omitempty" yaml:"classes,omitempty" toml:"classes,omitempty" mapstructure:"classes,omitempty"`
	Methods []string `json:"methods,omitempty" yaml:"methods,omitempty" toml:"methods,omitempty" mapstructure:"methods,omitempty"`
	// AllExcept entries ("Class::method") keep only the listed methods of a class.
	AllExcept []string `json:"all_except,omitempty" yaml:"all_except,omitempty" toml:"all_except,omitempty" mapstructure:"all_except,omitempty"`
	// DeclaringClasses drops methods declared by classes under these
	// top-level namespaces.
	DeclaringClasses []string `json:"declaring_classes,omitempty" yaml:"declaring_classes,omitempty" toml:"declaring_classes,omitempty" mapstructure:"declaring_classes,omitempty"`
}

// Add records a method entry, ignoring blanks and duplicates.
func (e *Exclude) Add(entry string) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return
	}
	for _, m := range e.Methods {
		if m == entry {
			return
		}
	}
	e.Methods = append(e.Methods, entry)
}

// Filter converts the lists into the filter used by the mock builder and
// the test synthesizer.
func (e Exclude) Filter() mock.Filter {
	f := mock.Filter{
		ClassMethods: map[string][]string{},
		AllExcept:    map[string][]string{},
	}
	for _, c := range e.Classes {
		if c = trimClass(c); c != "" {
			f.Classes = append(f.Classes, c)
		}
	}
	for _, entry := range e.Methods {
		class, method, ok := splitMethod(entry)
		switch {
		case method == "":
		case ok:
			f.ClassMethods[class] = append(f.ClassMethods[class], method)
		default:
			f.Methods = append(f.Methods, method)
		}
	}
	for _, entry := range e.AllExcept {
		if class, method, ok := splitMethod(entry); ok && method != "" {
			f.AllExcept[class] = append(f.AllExcept[class], method)
		}
	}
	for _, c := range e.DeclaringClasses {
		if c = trimClass(c); c != "" {
			f.DeclaringClasses = append(f.DeclaringClasses, c)
		}
	}
	return f
}

// splitMethod splits "Class::method"; ok is false for a bare method name.
func splitMethod(entry string) (class, method string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(entry), "::", 2)
	if len(parts) != 2 {
		return "", strings.TrimSpace(parts[0]), false
	}
	return trimClass(parts[0]), strings.TrimSpace(parts[1]), true
}

func trimClass(c string) string {
	return strings.Trim(strings.TrimSpace(c), `\`)
}
