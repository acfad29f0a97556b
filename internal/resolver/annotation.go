package resolver

import (
	"regexp"
	"strings"
)

var (
	returnTag     = regexp.MustCompile(`(?m)@return\s+(.*?)\s*(?:\*/)?$`)
	paramTag      = regexp.MustCompile(`(?m)@param\s+(.*?)\s*(?:\*/)?$`)
	inheritdocTag = regexp.MustCompile(`(?i)@inheritdoc`)
)

// ParamTag is one `@param` line.
type ParamTag struct {
	Type string
	Var  string
}

// ReturnTag returns the type expression of the first `@return` tag.
func ReturnTag(doc string) (string, bool) {
	m := returnTag.FindStringSubmatch(doc)
	if m == nil {
		return "", false
	}
	expr, _ := splitTypeExpr(m[1])
	return expr, expr != ""
}

// ParamTags returns every `@param` tag in declaration order.
func ParamTags(doc string) []ParamTag {
	var out []ParamTag
	for _, m := range paramTag.FindAllStringSubmatch(doc, -1) {
		expr, rest := splitTypeExpr(m[1])
		if strings.HasPrefix(expr, "$") {
			// `@param $name` without a type
			out = append(out, ParamTag{Var: strings.TrimPrefix(expr, "$")})
			continue
		}
		tag := ParamTag{Type: expr}
		if f := strings.Fields(rest); len(f) > 0 {
			v := strings.TrimPrefix(f[0], "...")
			if strings.HasPrefix(v, "$") {
				tag.Var = strings.TrimPrefix(v, "$")
			}
		}
		out = append(out, tag)
	}
	return out
}

// HasInheritdoc reports whether doc defers to the overridden method's doc.
func HasInheritdoc(doc string) bool {
	return inheritdocTag.MatchString(doc)
}

// splitTypeExpr cuts the leading type expression off a tag body at the first
// whitespace outside brackets.
func splitTypeExpr(body string) (expr, rest string) {
	body = strings.TrimSpace(body)
	depth := 0
	for i, r := range body {
		switch r {
		case '<', '(', '{':
			depth++
		case '>', ')', '}':
			if depth > 0 {
				depth--
			}
		case ' ', '\t':
			if depth == 0 {
				return body[:i], strings.TrimSpace(body[i:])
			}
		}
	}
	return body, ""
}

// TypeRef is a single type alternative picked out of an annotation.
type TypeRef struct {
	Name  string
	Array bool
	// Nested is set for X[][] and deeper.
	Nested bool
}

// ParseTypeExpr picks the first non-null alternative of a union, drops
// generic parameters and records a trailing array suffix.
func ParseTypeExpr(expr string) (TypeRef, bool) {
	alt := firstAlternative(expr)
	if alt == "" {
		return TypeRef{}, false
	}
	alt = stripGenerics(alt)
	var ref TypeRef
	for strings.HasSuffix(alt, "[]") {
		if ref.Array {
			ref.Nested = true
		}
		ref.Array = true
		alt = strings.TrimSuffix(alt, "[]")
	}
	ref.Name = strings.TrimSpace(alt)
	return ref, ref.Name != ""
}

func firstAlternative(expr string) string {
	expr = strings.TrimSpace(expr)
	expr = strings.Trim(expr, "()")
	parts := strings.Split(expr, "|")
	for _, p := range parts {
		p = strings.TrimPrefix(strings.TrimSpace(p), "?")
		if p == "" || strings.EqualFold(p, "null") {
			continue
		}
		return p
	}
	if len(parts) > 0 {
		return strings.TrimSpace(parts[0])
	}
	return ""
}

func stripGenerics(s string) string {
	if i := strings.IndexAny(s, "<{("); i > 0 {
		suffix := ""
		if strings.HasSuffix(s, "[]") {
			suffix = s[strings.LastIndexAny(s, ">})")+1:]
		}
		return s[:i] + suffix
	}
	return s
}
