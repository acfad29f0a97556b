package reflection

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/phpast"
	"github.com/cmmoran/phptestgen/internal/scanner"
)

// MaxWorkers bounds parallel parsing.
const MaxWorkers = 64

// FileIndex is what indexing one source file yields.
type FileIndex struct {
	Path      string
	Namespace string
	Imports   scanner.ImportTable
	Classes   []*model.Class
}

// IndexError records a file that could not be indexed.
type IndexError struct {
	Path string
	Err  error
}

func (e IndexError) Error() string { return fmt.Sprintf("index %s: %v", e.Path, e.Err) }
func (e IndexError) Unwrap() error { return e.Err }

// Indexer builds class metadata from PHP sources on an afero filesystem.
// Paths are slash-separated and relative to the filesystem root.
type Indexer struct {
	fs      afero.Fs
	workers int
	logger  *slog.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

func WithWorkers(n int) IndexerOption { return func(i *Indexer) { i.workers = n } }

func WithLogger(l *slog.Logger) IndexerOption {
	return func(i *Indexer) {
		if l != nil {
			i.logger = l
		}
	}
}

func NewIndexer(fsys afero.Fs, opts ...IndexerOption) *Indexer {
	i := &Indexer{fs: fsys, logger: slog.Default()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Discover expands include globs, dropping paths matching any exclude glob.
// The result is sorted and free of duplicates.
func (i *Indexer) Discover(include, exclude []string) ([]string, error) {
	iofs := afero.NewIOFS(i.fs)
	seen := map[string]bool{}
	var files []string
	for _, pattern := range include {
		pattern = strings.TrimPrefix(path.Clean("/"+pattern), "/")
		matches, err := doublestar.Glob(iofs, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || matchesAny(m, exclude) {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func matchesAny(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}

// Index parses files in parallel. Files that fail to parse are reported in
// the error slice; the successful results are returned sorted by path.
func (i *Indexer) Index(ctx context.Context, files []string) ([]FileIndex, []IndexError) {
	workers := i.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	sem := semaphore.NewWeighted(int64(workers))
	g, gCtx := errgroup.WithContext(ctx)

	var (
		mu      sync.Mutex
		indexes = make([]FileIndex, 0, len(files))
		errs    []IndexError
	)
	for _, file := range files {
		g.Go(func() error {
			if err := sem.Acquire(gCtx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			idx, err := i.IndexFile(gCtx, file)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, IndexError{Path: file, Err: err})
				return nil
			}
			indexes = append(indexes, idx)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(indexes, func(a, b int) bool { return indexes[a].Path < indexes[b].Path })
	sort.Slice(errs, func(a, b int) bool { return errs[a].Path < errs[b].Path })
	i.logger.Debug("indexed sources", "files", len(indexes), "failed", len(errs))
	return indexes, errs
}

// IndexFile reads and parses one file.
func (i *Indexer) IndexFile(ctx context.Context, file string) (FileIndex, error) {
	if err := ctx.Err(); err != nil {
		return FileIndex{}, err
	}
	source, err := afero.ReadFile(i.fs, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FileIndex{}, fmt.Errorf("%w: %s", model.ErrFileNotExists, file)
		}
		return FileIndex{}, fmt.Errorf("%w: %w", model.ErrCodeExtract, err)
	}
	return ParseSource(ctx, file, source)
}

// ParseSource extracts class metadata from PHP source text. Type names in
// signatures are qualified against the file's imports and namespace, the way
// the PHP compiler resolves them.
func ParseSource(ctx context.Context, file string, source []byte) (FileIndex, error) {
	tree, err := phpast.Parse(ctx, source)
	if err != nil {
		return FileIndex{}, fmt.Errorf("%w: %w", model.ErrCodeExtract, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	idx := FileIndex{Path: file, Imports: scanner.ImportsOf(root, source)}
	phpast.EachTypeDeclaration(root, source, func(ns string, decl *sitter.Node) {
		if idx.Namespace == "" {
			idx.Namespace = ns
		}
		c := parseClass(decl, source, ns, idx.Imports)
		if c == nil {
			return
		}
		c.File = file
		for _, m := range c.Methods {
			m.File = file
		}
		idx.Classes = append(idx.Classes, c)
	})
	return idx, nil
}

type qualifier struct {
	namespace string
	imports   scanner.ImportTable
}

// name resolves a class reference as written in source.
func (q qualifier) name(n string) string {
	n = strings.TrimSpace(n)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, `\`) {
		return strings.TrimPrefix(n, `\`)
	}
	if _, ok := model.LookupPrimitive(n); ok || model.IsSelfName(n) {
		return n
	}
	if strings.HasPrefix(strings.ToLower(n), `namespace\`) {
		return model.Qualify(q.namespace, n[len(`namespace\`):])
	}
	if fqn, ok := q.imports.Resolve(n); ok {
		return fqn
	}
	return model.Qualify(q.namespace, n)
}

// typeText qualifies every class name in a declared type expression.
func (q qualifier) typeText(t string) string {
	t = strings.TrimLeft(strings.TrimSpace(t), ": ")
	if t == "" {
		return ""
	}
	var b strings.Builder
	start := 0
	flush := func(end int) {
		part := t[start:end]
		trimmed := strings.TrimSpace(part)
		lead := ""
		for len(trimmed) > 0 && (trimmed[0] == '?' || trimmed[0] == '(') {
			lead += trimmed[:1]
			trimmed = trimmed[1:]
		}
		trail := ""
		for len(trimmed) > 0 && trimmed[len(trimmed)-1] == ')' {
			trail = ")" + trail
			trimmed = trimmed[:len(trimmed)-1]
		}
		b.WriteString(lead + q.name(trimmed) + trail)
	}
	for i := 0; i < len(t); i++ {
		if t[i] == '|' || t[i] == '&' {
			flush(i)
			b.WriteByte(t[i])
			start = i + 1
		}
	}
	flush(len(t))
	return b.String()
}

func parseClass(decl *sitter.Node, source []byte, ns string, imports scanner.ImportTable) *model.Class {
	name := phpast.NameOf(decl, source)
	if name == "" {
		return nil
	}
	q := qualifier{namespace: ns, imports: imports}
	c := &model.Class{
		Name: model.Qualify(ns, name),
		Doc:  phpast.DocComment(decl, source),
		Line: phpast.Line(decl),
	}
	switch decl.Type() {
	case phpast.NodeInterfaceDeclaration:
		c.Kind = model.ClassKindInterface
	case phpast.NodeTraitDeclaration:
		c.Kind = model.ClassKindTrait
	case phpast.NodeEnumDeclaration:
		c.Final = true
	}

	for _, child := range phpast.Children(decl) {
		switch child.Type() {
		case phpast.NodeAbstractModifier:
			c.Abstract = true
		case phpast.NodeFinalModifier:
			c.Final = true
		case phpast.NodeBaseClause:
			names := phpast.Names(child, source)
			if c.IsInterface() {
				for _, n := range names {
					c.Interfaces = append(c.Interfaces, q.name(n))
				}
			} else if len(names) > 0 {
				c.Parent = q.name(names[0])
			}
		case phpast.NodeInterfaceClause:
			for _, n := range phpast.Names(child, source) {
				c.Interfaces = append(c.Interfaces, q.name(n))
			}
		}
	}
	if c.IsInterface() {
		c.Abstract = true
	}

	for _, member := range phpast.Children(phpast.BodyOf(decl)) {
		switch member.Type() {
		case phpast.NodeUseDeclaration:
			for _, n := range phpast.Names(member, source) {
				c.Traits = append(c.Traits, q.name(n))
			}
		case phpast.NodeMethodDeclaration:
			if m := parseMethod(member, source, q); m != nil {
				m.Class = c.Name
				if c.IsInterface() {
					m.Abstract = true
				}
				c.Methods = append(c.Methods, m)
			}
		}
	}
	return c
}

func parseMethod(decl *sitter.Node, source []byte, q qualifier) *model.Method {
	name := phpast.NameOf(decl, source)
	if name == "" {
		return nil
	}
	m := &model.Method{
		Name: name,
		Doc:  phpast.DocComment(decl, source),
		Line: phpast.Line(decl),
	}
	for _, child := range phpast.Children(decl) {
		switch child.Type() {
		case phpast.NodeVisibilityModifier:
			_ = m.Visibility.UnmarshalText([]byte(child.Content(source)))
		case phpast.NodeStaticModifier:
			m.Static = true
		case phpast.NodeAbstractModifier:
			m.Abstract = true
		case phpast.NodeFinalModifier:
			m.Final = true
		}
	}
	if rt := decl.ChildByFieldName("return_type"); rt != nil {
		m.ReturnType = q.typeText(rt.Content(source))
	}
	params := decl.ChildByFieldName("parameters")
	if params == nil {
		params = phpast.FirstChildOfType(decl, phpast.NodeFormalParameters)
	}
	for _, p := range phpast.Children(params) {
		switch p.Type() {
		case phpast.NodeSimpleParameter, phpast.NodeVariadicParameter, phpast.NodePromotionParameter:
			m.Params = append(m.Params, parseParam(p, source, q))
		}
	}
	return m
}

func parseParam(node *sitter.Node, source []byte, q qualifier) *model.Param {
	p := &model.Param{
		Variadic: node.Type() == phpast.NodeVariadicParameter,
		Promoted: node.Type() == phpast.NodePromotionParameter,
	}
	if n := node.ChildByFieldName("name"); n != nil {
		p.Name = n.Content(source)
	} else if n := phpast.FirstChildOfType(node, phpast.NodeVariableName); n != nil {
		p.Name = n.Content(source)
	}
	p.Name = strings.TrimPrefix(p.Name, "$")
	if t := node.ChildByFieldName("type"); t != nil {
		p.Type = q.typeText(t.Content(source))
	}
	if d := node.ChildByFieldName("default_value"); d != nil {
		p.Default = d.Content(source)
		p.HasDefault = true
	}
	return p
}
