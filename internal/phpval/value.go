// Package phpval models the PHP literal values written into data providers
// and exports them as short-array source text.
package phpval

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Map is an insertion-ordered string-keyed PHP array.
type Map struct {
	keys []string
	vals map[string]any
}

func NewMap() *Map {
	return &Map{vals: map[string]any{}}
}

// Set stores v under k, keeping the position of an existing key.
func (m *Map) Set(k string, v any) *Map {
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
	return m
}

func (m *Map) Get(k string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[k]
	return v, ok
}

func (m *Map) Has(k string) bool {
	_, ok := m.Get(k)
	return ok
}

func (m *Map) Delete(k string) {
	if !m.Has(k) {
		return
	}
	delete(m.vals, k)
	for i, key := range m.keys {
		if key == k {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *Map) Keys() []string {
	if m == nil {
		return []string{}
	}
	return append(make([]string, 0, len(m.keys)), m.keys...)
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone deep-copies nested maps and lists.
func (m *Map) Clone() *Map {
	out := NewMap()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out.Set(k, cloneValue(m.vals[k]))
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}

// Merge follows array_merge for string keys: keys of base come first, values
// of over win.
func Merge(base, over *Map) *Map {
	out := base.Clone()
	if over == nil {
		return out
	}
	for _, k := range over.keys {
		out.Set(k, cloneValue(over.vals[k]))
	}
	return out
}

// Raw is PHP source emitted verbatim.
type Raw string

// Export renders v the way var_export does, with short array syntax and
// two-space indentation.
func Export(v any) string {
	var b strings.Builder
	export(&b, v, 0)
	return b.String()
}

func export(b *strings.Builder, v any, depth int) {
	indent := strings.Repeat("  ", depth)
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case Raw:
		b.WriteString(string(t))
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case int:
		b.WriteString(strconv.Itoa(t))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case uint64:
		b.WriteString(strconv.FormatUint(t, 10))
	case float64:
		b.WriteString(formatFloat(t))
	case float32:
		b.WriteString(formatFloat(float64(t)))
	case string:
		b.WriteString(Quote(t))
	case []string:
		list := make([]any, len(t))
		for i, s := range t {
			list[i] = s
		}
		export(b, list, depth)
	case []any:
		b.WriteString("[\n")
		for i, e := range t {
			fmt.Fprintf(b, "%s  %d => ", indent, i)
			export(b, e, depth+1)
			b.WriteString(",\n")
		}
		b.WriteString(indent + "]")
	case *Map:
		b.WriteString("[\n")
		for _, k := range t.Keys() {
			fmt.Fprintf(b, "%s  %s => ", indent, Quote(k))
			export(b, t.vals[k], depth+1)
			b.WriteString(",\n")
		}
		b.WriteString(indent + "]")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.Set(k, t[k])
		}
		export(b, m, depth)
	default:
		b.WriteString(Quote(fmt.Sprint(t)))
	}
}

// Quote renders s as a single-quoted PHP string.
func Quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NAN"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Indent prefixes every line after the first with prefix.
func Indent(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}

// ExportInline renders v on a single line, e.g. ['a' => '', 'b' => 0].
func ExportInline(v any) string {
	var b strings.Builder
	exportInline(&b, v)
	return b.String()
}

func exportInline(b *strings.Builder, v any) {
	switch t := v.(type) {
	case []any:
		b.WriteString("[")
		for i, e := range t {
			if i > 0 {
				b.WriteString(", ")
			}
			exportInline(b, e)
		}
		b.WriteString("]")
	case *Map:
		b.WriteString("[")
		for i, k := range t.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(Quote(k) + " => ")
			exportInline(b, t.vals[k])
		}
		b.WriteString("]")
	default:
		b.WriteString(Export(v))
	}
}
