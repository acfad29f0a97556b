// Package scanner recovers what reflection does not expose from raw PHP
// source: import alias tables, literal method-name lists, declared class
// names and the location of a class body's closing brace.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/spf13/afero"

	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/phpast"
)

// ImportTable maps a lower-cased alias to the fully-qualified name it imports.
type ImportTable map[string]string

// Lookup finds the target of alias, ignoring case.
func (t ImportTable) Lookup(alias string) (string, bool) {
	fqn, ok := t[strings.ToLower(alias)]
	return fqn, ok
}

// Resolve expands a partially-qualified name whose first segment is an alias.
func (t ImportTable) Resolve(name string) (string, bool) {
	if strings.HasPrefix(name, `\`) {
		return strings.TrimPrefix(name, `\`), false
	}
	first, rest, nested := strings.Cut(name, `\`)
	fqn, ok := t.Lookup(first)
	if !ok {
		return "", false
	}
	if nested {
		return fqn + `\` + rest, true
	}
	return fqn, true
}

// Targets returns the imported names in sorted order.
func (t ImportTable) Targets() []string {
	out := make([]string, 0, len(t))
	for _, v := range t {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Merge returns a new table holding t overlaid by other.
func (t ImportTable) Merge(other ImportTable) ImportTable {
	out := make(ImportTable, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// ScanImports builds the import table of one source file.
func ScanImports(ctx context.Context, source []byte) (ImportTable, error) {
	tree, err := phpast.Parse(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCodeExtract, err)
	}
	defer tree.Close()

	return ImportsOf(tree.RootNode(), source), nil
}

// ImportsOf extracts the import table from an already parsed tree.
func ImportsOf(root *sitter.Node, source []byte) ImportTable {
	table := ImportTable{}
	phpast.Walk(root, func(n *sitter.Node) bool {
		switch {
		case n.Type() == phpast.NodeNamespaceUse:
			addUseDeclaration(table, n, source)
			return false
		case phpast.IsTypeDeclaration(n):
			return false
		}
		return true
	})
	return table
}

func addUseDeclaration(table ImportTable, decl *sitter.Node, source []byte) {
	prefix := ""
	for _, c := range phpast.Children(decl) {
		switch c.Type() {
		case "function", "const":
			return
		case phpast.NodeNamespaceName, phpast.NodeQualifiedName, phpast.NodeName:
			prefix = c.Content(source)
		case phpast.NodeNamespaceUseClause:
			addUseClause(table, c, "", source)
		case phpast.NodeNamespaceUseGroup:
			for _, gc := range phpast.Children(c) {
				switch gc.Type() {
				case phpast.NodeNamespaceUseClause, phpast.NodeNamespaceGroupClause:
					addUseClause(table, gc, prefix, source)
				}
			}
		}
	}
}

func addUseClause(table ImportTable, clause *sitter.Node, prefix string, source []byte) {
	var path, alias string
	sawAs := false
	for _, c := range phpast.Children(clause) {
		switch c.Type() {
		case phpast.NodeName, phpast.NodeQualifiedName, phpast.NodeNamespaceName:
			if sawAs {
				alias = c.Content(source)
			} else if path == "" {
				path = c.Content(source)
			}
		case "as":
			sawAs = true
		case phpast.NodeNamespaceAliasing:
			if n := phpast.FirstChildOfType(c, phpast.NodeName); n != nil {
				alias = n.Content(source)
			}
		}
	}
	if path == "" {
		return
	}
	fqn := strings.Trim(path, `\`)
	if prefix != "" {
		fqn = model.Qualify(prefix, fqn)
	}
	if alias == "" {
		alias = model.ShortName(fqn)
	}
	table[strings.ToLower(alias)] = fqn
}

// ScanMethodNames lists every method and function name declared in source,
// in source order.
func ScanMethodNames(ctx context.Context, source []byte) ([]string, error) {
	tree, err := phpast.Parse(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCodeExtract, err)
	}
	defer tree.Close()

	var names []string
	phpast.Walk(tree.RootNode(), func(n *sitter.Node) bool {
		switch n.Type() {
		case phpast.NodeMethodDeclaration, "function_definition":
			if name := phpast.NameOf(n, source); name != "" {
				names = append(names, name)
			}
		}
		return true
	})
	return names, nil
}

// ScanClassNames lists the fully-qualified names of the class-like types
// declared in source.
func ScanClassNames(ctx context.Context, source []byte) ([]string, error) {
	tree, err := phpast.Parse(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCodeExtract, err)
	}
	defer tree.Close()

	var names []string
	phpast.EachTypeDeclaration(tree.RootNode(), source, func(ns string, decl *sitter.Node) {
		if name := phpast.NameOf(decl, source); name != "" {
			names = append(names, model.Qualify(ns, name))
		}
	})
	return names, nil
}

// ClosingBrace returns the byte offset of the closing brace of the last
// class-like body in source.
func ClosingBrace(ctx context.Context, source []byte) (int, bool) {
	tree, err := phpast.Parse(ctx, source)
	if err != nil {
		return 0, false
	}
	defer tree.Close()

	offset, found := 0, false
	phpast.EachTypeDeclaration(tree.RootNode(), source, func(_ string, decl *sitter.Node) {
		body := phpast.BodyOf(decl)
		if body == nil || body.HasError() {
			return
		}
		end := int(body.EndByte())
		if end > 0 && end <= len(source) && source[end-1] == '}' {
			offset, found = end-1, true
		}
	})
	return offset, found
}

// Scanner caches import tables per source path for the duration of a run.
type Scanner struct {
	fs      afero.Fs
	mu      sync.Mutex
	imports map[string]ImportTable
}

// New creates a Scanner reading sources from fs.
func New(fs afero.Fs) *Scanner {
	return &Scanner{fs: fs, imports: map[string]ImportTable{}}
}

// Imports returns the import table of the file at path.
func (s *Scanner) Imports(ctx context.Context, path string) (ImportTable, error) {
	if path == "" {
		return ImportTable{}, nil
	}
	s.mu.Lock()
	if t, ok := s.imports[path]; ok {
		s.mu.Unlock()
		return t, nil
	}
	s.mu.Unlock()

	source, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", model.ErrFileNotExists, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", model.ErrCodeExtract, path, err)
	}
	t, err := ScanImports(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("scan imports of %s: %w", path, err)
	}

	s.mu.Lock()
	s.imports[path] = t
	s.mu.Unlock()
	return t, nil
}

// Prime stores an already computed table, e.g. from the indexer.
func (s *Scanner) Prime(path string, t ImportTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imports[path] = t
}
