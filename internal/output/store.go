// Package output writes generated files and keeps a record of every change so
// dry runs can print diffs instead of touching the tree.
package output

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/akedrou/textdiff"
	"github.com/spf13/afero"

	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/scanner"
)

// Kind classifies a file change.
type Kind string

const (
	Created  Kind = "created"
	Appended Kind = "appended"
	Skipped  Kind = "skipped"
)

// Change is one file written (or left alone) during a run.
type Change struct {
	Path   string
	Kind   Kind
	Before string
	After  string
}

// Diff renders the change as a unified diff; an unchanged file yields "".
func (c Change) Diff() string {
	if c.Before == c.After {
		return ""
	}
	return textdiff.Unified("a/"+filepath.ToSlash(c.Path), "b/"+filepath.ToSlash(c.Path), c.Before, c.After)
}

// Store is the file system facade used by the generators.
type Store struct {
	fs      afero.Fs
	dryRun  bool
	mu      sync.Mutex
	changes []Change
	index   map[string]int
}

type StoreOption func(*Store)

// WithDryRun layers an in-memory copy-on-write file system over the base so
// the run sees its own writes while the base stays untouched.
func WithDryRun(dry bool) StoreOption {
	return func(s *Store) { s.dryRun = dry }
}

func NewStore(base afero.Fs, opts ...StoreOption) *Store {
	s := &Store{fs: base, index: map[string]int{}}
	for _, o := range opts {
		o(s)
	}
	if s.dryRun {
		s.fs = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(base), afero.NewMemMapFs())
	}
	return s
}

// Fs exposes the file system the store writes to.
func (s *Store) Fs() afero.Fs { return s.fs }

func (s *Store) DryRun() bool { return s.dryRun }

// ReadFile returns the content of path or ErrFileNotExists.
func (s *Store) ReadFile(path string) (string, error) {
	b, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", model.ErrFileNotExists, path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

func (s *Store) Exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}

// IsDir fails with ErrNotADirectory when path exists but is a file.
func (s *Store) IsDir(path string) error {
	info, err := s.fs.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", model.ErrNotADirectory, path)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", model.ErrNotADirectory, path)
	}
	return nil
}

func (s *Store) MkdirAll(path string) error {
	if err := s.fs.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// WriteFile replaces the content of path, creating parent directories.
func (s *Store) WriteFile(path, content string) error {
	before, err := s.ReadFile(path)
	kind := Appended
	if errors.Is(err, model.ErrFileNotExists) {
		kind, before = Created, ""
	} else if err != nil {
		return err
	}
	if err := s.MkdirAll(filepath.Dir(path)); err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	s.record(Change{Path: path, Kind: kind, Before: before, After: content})
	return nil
}

// Skip records that path was left untouched.
func (s *Store) Skip(path string) {
	content, _ := s.ReadFile(path)
	s.record(Change{Path: path, Kind: Skipped, Before: content, After: content})
}

// record keeps one entry per path; later writes extend the earlier one.
func (s *Store) record(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[c.Path]; ok {
		prev := s.changes[i]
		c.Before = prev.Before
		if prev.Kind == Created || (c.Kind == Skipped && prev.Kind != Skipped) {
			c.Kind = prev.Kind
		}
		s.changes[i] = c
		return
	}
	s.index[c.Path] = len(s.changes)
	s.changes = append(s.changes, c)
}

// Changes returns the recorded changes sorted by path.
func (s *Store) Changes() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Change(nil), s.changes...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Merge adds members to the class body of the file at path. A missing file
// is created from newDocument, which receives the members to embed.
func (s *Store) Merge(ctx context.Context, path, members string, newDocument func(members string) (string, error)) error {
	existing, err := s.ReadFile(path)
	switch {
	case errors.Is(err, model.ErrFileNotExists):
		doc, err := newDocument(members)
		if err != nil {
			return err
		}
		return s.WriteFile(path, doc)
	case err != nil:
		return err
	case members == "":
		return nil
	}
	return s.WriteFile(path, Append(ctx, existing, members))
}

// Append inserts members before the closing brace of the last type body in
// existing. When the source cannot be parsed the text is cut at the last
// line starting with "}".
func Append(ctx context.Context, existing, members string) string {
	pos, ok := scanner.ClosingBrace(ctx, []byte(existing))
	if !ok {
		if i := strings.LastIndex(existing, "\n}"); i >= 0 {
			pos = i + 1
		} else {
			pos = len(existing)
		}
	}
	head := strings.TrimRight(existing[:pos], " \t\r\n")
	return head + "\n" + members + "\n}\n"
}

// Base returns the file system a Store would write to outside dry runs.
func Base(root string) afero.Fs {
	if root == "" || root == "." {
		return afero.NewOsFs()
	}
	return afero.NewBasePathFs(afero.NewOsFs(), root)
}
