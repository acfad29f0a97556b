// Package phpast wraps tree-sitter PHP parsing and the node helpers shared by
// the scanner and the reflection indexer.
package phpast

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// PHP AST node types.
const (
	NodeProgram              = "program"
	NodeNamespaceDefinition  = "namespace_definition"
	NodeNamespaceName        = "namespace_name"
	NodeNamespaceUse         = "namespace_use_declaration"
	NodeNamespaceUseClause   = "namespace_use_clause"
	NodeNamespaceUseGroup    = "namespace_use_group"
	NodeNamespaceGroupClause = "namespace_use_group_clause"
	NodeNamespaceAliasing    = "namespace_aliasing_clause"
	NodeClassDeclaration     = "class_declaration"
	NodeInterfaceDeclaration = "interface_declaration"
	NodeTraitDeclaration     = "trait_declaration"
	NodeEnumDeclaration      = "enum_declaration"
	NodeDeclarationList      = "declaration_list"
	NodeMethodDeclaration    = "method_declaration"
	NodeFormalParameters     = "formal_parameters"
	NodeSimpleParameter      = "simple_parameter"
	NodeVariadicParameter    = "variadic_parameter"
	NodePromotionParameter   = "property_promotion_parameter"
	NodeUseDeclaration       = "use_declaration"
	NodeBaseClause           = "base_clause"
	NodeInterfaceClause      = "class_interface_clause"
	NodeVisibilityModifier   = "visibility_modifier"
	NodeStaticModifier       = "static_modifier"
	NodeAbstractModifier     = "abstract_modifier"
	NodeFinalModifier        = "final_modifier"
	NodeComment              = "comment"
	NodeName                 = "name"
	NodeQualifiedName        = "qualified_name"
	NodeVariableName         = "variable_name"
)

var (
	lang     *sitter.Language
	langOnce sync.Once
)

// Language returns the PHP grammar.
func Language() *sitter.Language {
	langOnce.Do(func() {
		lang = php.GetLanguage()
	})
	return lang
}

// Parse parses source with a fresh parser. Caller MUST call tree.Close().
func Parse(ctx context.Context, source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Language())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse php: %w", err)
	}
	return tree, nil
}

// Children returns the direct children of node.
func Children(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.ChildCount())
	for i := 0; i < int(node.ChildCount()); i++ {
		if c := node.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildOfType returns the first direct child with one of the given types.
func FirstChildOfType(node *sitter.Node, types ...string) *sitter.Node {
	for _, c := range Children(node) {
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

// HasChildOfType reports whether node has a direct child of the given type.
func HasChildOfType(node *sitter.Node, typ string) bool {
	return FirstChildOfType(node, typ) != nil
}

// Walk visits node and its descendants depth-first until fn returns false.
func Walk(node *sitter.Node, fn func(*sitter.Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, c := range Children(node) {
		Walk(c, fn)
	}
}

// NameOf returns the `name` field of a declaration, falling back to the
// first name child for grammars without field names.
func NameOf(node *sitter.Node, source []byte) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return n.Content(source)
	}
	if n := FirstChildOfType(node, NodeName); n != nil {
		return n.Content(source)
	}
	return ""
}

// Names collects the name or qualified_name children of node, e.g. the
// class list of a base_clause.
func Names(node *sitter.Node, source []byte) []string {
	var out []string
	for _, c := range Children(node) {
		switch c.Type() {
		case NodeName, NodeQualifiedName:
			out = append(out, c.Content(source))
		}
	}
	return out
}

// DocComment returns the doc block immediately preceding node, if any.
func DocComment(node *sitter.Node, source []byte) string {
	prev := node.PrevSibling()
	if prev == nil || prev.Type() != NodeComment {
		return ""
	}
	if text := prev.Content(source); strings.HasPrefix(text, "/**") {
		return text
	}
	return ""
}

// Line returns the 1-based start line of node.
func Line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// IsTypeDeclaration reports whether node declares a class-like type.
func IsTypeDeclaration(node *sitter.Node) bool {
	switch node.Type() {
	case NodeClassDeclaration, NodeInterfaceDeclaration, NodeTraitDeclaration, NodeEnumDeclaration:
		return true
	}
	return false
}

// EachTypeDeclaration calls fn for every class-like declaration together
// with the namespace it is declared in. Both the braced and the statement
// form of namespace definitions are handled.
func EachTypeDeclaration(root *sitter.Node, source []byte, fn func(namespace string, decl *sitter.Node)) {
	namespace := ""
	for _, c := range Children(root) {
		switch {
		case c.Type() == NodeNamespaceDefinition:
			ns := ""
			if n := c.ChildByFieldName("name"); n != nil {
				ns = n.Content(source)
			} else if n := FirstChildOfType(c, NodeNamespaceName); n != nil {
				ns = n.Content(source)
			}
			ns = strings.Trim(ns, `\`)
			body := c.ChildByFieldName("body")
			if body == nil {
				body = FirstChildOfType(c, "compound_statement")
			}
			if body == nil {
				namespace = ns
				continue
			}
			for _, d := range Children(body) {
				if IsTypeDeclaration(d) {
					fn(ns, d)
				}
			}
		case IsTypeDeclaration(c):
			fn(namespace, c)
		}
	}
}

// BodyOf returns the declaration_list of a class-like declaration.
func BodyOf(decl *sitter.Node) *sitter.Node {
	if b := decl.ChildByFieldName("body"); b != nil {
		return b
	}
	return FirstChildOfType(decl, NodeDeclarationList, "enum_declaration_list")
}
