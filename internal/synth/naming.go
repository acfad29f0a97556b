package synth

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/cmmoran/phptestgen/internal/model"
)

// TestMethodName derives the descriptive name of the test of m returning ret.
func TestMethodName(m *model.Method, ret model.ResolvedType) string {
	name := lcfirst(m.Name)
	lower := strings.ToLower(m.Name)
	suffix := typeSuffix(ret)

	switch {
	case strings.Contains(lower, "create"), strings.Contains(lower, "make"):
		return name + "ShouldInitializeAndReturn" + suffix
	case ret.IsClassLike() && strings.Contains(model.ShortName(ret.Name), "Event"):
		return name + "ShouldFire" + suffix
	case strings.Contains(lower, "handle"):
		name += "ShouldProcess"
		for _, p := range m.Params {
			name += ucfirst(p.Name)
		}
		if ret.IsVoid() {
			return name
		}
		return name + "AndReturn" + suffix
	}
	return name + "ShouldReturn" + suffix
}

// typeSuffix names ret in a test method name; lists of objects read as the
// plural of the element class.
func typeSuffix(ret model.ResolvedType) string {
	if c, ok := ret.ElemClass(); ok {
		return inflection.Plural(model.ShortName(c))
	}
	return ret.Suffix()
}

// namer hands out unique test method names within one test class.
type namer map[string]int

// unique appends 2, 3, ... to repeated names in order of encounter.
func (n namer) unique(name string) string {
	n[name]++
	if c := n[name]; c > 1 {
		return name + strconv.Itoa(c)
	}
	return name
}

var summaryLine = regexp.MustCompile(`(?m)^\s*/?\*+\s?([^@\s*/].*?)\s*$`)

// Summary returns the first sentence of a doc comment, or a generic one.
func Summary(m *model.Method) string {
	if match := summaryLine.FindStringSubmatch(m.Doc); match != nil {
		s := strings.TrimSuffix(strings.TrimSpace(match[1]), "*/")
		if s = strings.Trim(s, ". \t\r\n"); s != "" {
			return s
		}
	}
	return "Execute '" + m.Name + "' method"
}

func lcfirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func ucfirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
