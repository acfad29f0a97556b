package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// FileChange is one file a run created, appended to or skipped.
type FileChange struct {
	Path   string `yaml:"path" json:"path"`
	Action string `yaml:"action" json:"action"`
}

// Run represents one generation run recorded in the manifest.
type Run struct {
	ID        string       `yaml:"id" json:"id"`
	Time      time.Time    `yaml:"time" json:"time"`
	Command   string       `yaml:"command" json:"command"`
	Backend   string       `yaml:"backend" json:"backend"`
	Namespace string       `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Files     []FileChange `yaml:"files,omitempty" json:"files,omitempty"`
}

// NewRun stamps a run with a fresh id.
func NewRun(command, backend, namespace string, at time.Time, files []FileChange) Run {
	return Run{
		ID:        uuid.NewString(),
		Time:      at.UTC(),
		Command:   command,
		Backend:   backend,
		Namespace: namespace,
		Files:     files,
	}
}

// Manifest tracks the generation runs made against a project.
type Manifest struct {
	Runs []Run `yaml:"runs" json:"runs"`
}

// Load reads a manifest from the provided path. If the file does not exist,
// an empty manifest is returned.
func Load(fsys afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	return &m, nil
}

// Save writes the manifest to the provided path, creating parent directories as needed.
func (m *Manifest) Save(fsys afero.Fs, path string) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// AddRun records r, keeping at most history runs (oldest dropped first).
// A run with an id already present replaces it.
func (m *Manifest) AddRun(r Run, history int) {
	replaced := false
	for i := range m.Runs {
		if m.Runs[i].ID == r.ID {
			m.Runs[i], replaced = r, true
		}
	}
	if !replaced {
		m.Runs = append(m.Runs, r)
	}
	if history > 0 && len(m.Runs) > history {
		m.Runs = append([]Run(nil), m.Runs[len(m.Runs)-history:]...)
	}
}

// Last returns the n-th most recent run, 0 being the latest.
func (m *Manifest) Last(n int) (Run, bool) {
	i := len(m.Runs) - 1 - n
	if n < 0 || i < 0 {
		return Run{}, false
	}
	return m.Runs[i], true
}

// Generated returns the paths created by any recorded run, oldest first.
func (m *Manifest) Generated() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range m.Runs {
		for _, f := range r.Files {
			if f.Action == "created" && !seen[f.Path] {
				seen[f.Path] = true
				out = append(out, f.Path)
			}
		}
	}
	return out
}
