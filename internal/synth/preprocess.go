package synth

import (
	"sort"
	"strings"

	"github.com/cmmoran/phptestgen/internal/model"
)

// Preprocessor can veto a test method, rename it and extend its body.
type Preprocessor interface {
	ShouldTest(class *model.Class, m *model.Method) bool
	// Process returns the final test method name and lines added to the
	// body before the call under test.
	Process(class *model.Class, m *model.Method, name string) (string, []string)
}

// Rule customises the tests of one class.
type Rule struct {
	Class      string              `json:"class" yaml:"class" toml:"class" mapstructure:"class"`
	Skip       []string            `json:"skip,omitempty" yaml:"skip,omitempty" toml:"skip,omitempty" mapstructure:"skip"`
	Rename     map[string]string   `json:"rename,omitempty" yaml:"rename,omitempty" toml:"rename,omitempty" mapstructure:"rename"`
	Additional map[string][]string `json:"additional,omitempty" yaml:"additional,omitempty" toml:"additional,omitempty" mapstructure:"additional"`
}

// Rules is a Preprocessor driven by configuration. Method names match
// case-insensitively; "*" in Additional applies to every method.
type Rules []Rule

var _ Preprocessor = Rules(nil)

func (r Rules) rule(class string) (Rule, bool) {
	for _, rule := range r {
		if strings.EqualFold(strings.TrimPrefix(rule.Class, `\`), class) {
			return rule, true
		}
	}
	return Rule{}, false
}

func (r Rules) ShouldTest(class *model.Class, m *model.Method) bool {
	rule, ok := r.rule(class.Name)
	if !ok {
		return true
	}
	for _, s := range rule.Skip {
		if strings.EqualFold(s, m.Name) {
			return false
		}
	}
	return true
}

func (r Rules) Process(class *model.Class, m *model.Method, name string) (string, []string) {
	rule, ok := r.rule(class.Name)
	if !ok {
		return name, nil
	}
	for _, k := range matching(rule.Rename, m.Name) {
		if v := rule.Rename[k]; v != "" {
			name = v
			break
		}
	}
	extra := append([]string(nil), rule.Additional["*"]...)
	for _, k := range matching(rule.Additional, m.Name) {
		if k != "*" {
			extra = append(extra, rule.Additional[k]...)
		}
	}
	return name, extra
}

// matching returns the keys of m equal to name ignoring case, the exact
// spelling first and the rest sorted.
func matching[V any](m map[string]V, name string) []string {
	var keys []string
	for k := range m {
		if strings.EqualFold(k, name) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if (keys[i] == name) != (keys[j] == name) {
			return keys[i] == name
		}
		return keys[i] < keys[j]
	})
	return keys
}
