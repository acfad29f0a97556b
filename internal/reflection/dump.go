package reflection

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/cmmoran/phptestgen/internal/model"
)

//go:embed builtins.yaml
var builtinsYAML []byte

// Dump is the serialized form of a registry.
type Dump struct {
	Classes []*model.Class `yaml:"classes"`
}

// Builtins returns stubs for the engine classes generated code commonly meets.
func Builtins() ([]*model.Class, error) {
	var d Dump
	if err := yaml.Unmarshal(builtinsYAML, &d); err != nil {
		return nil, fmt.Errorf("decode builtins: %w", err)
	}
	for _, c := range d.Classes {
		c.Builtin = true
		for _, m := range c.Methods {
			if m.Class == "" {
				m.Class = c.Name
			}
		}
	}
	return d.Classes, nil
}

// LoadDump reads a YAML reflection dump. A missing file yields no classes.
func LoadDump(fsys afero.Fs, path string) ([]*model.Class, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reflection dump: %w", err)
	}
	var d Dump
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode reflection dump: %w", err)
	}
	for _, c := range d.Classes {
		for _, m := range c.Methods {
			if m.Class == "" {
				m.Class = c.Name
			}
			if m.File == "" {
				m.File = c.File
			}
		}
	}
	return d.Classes, nil
}

// SaveDump writes the non-builtin classes of r as YAML.
func SaveDump(fsys afero.Fs, path string, r *Registry) error {
	var d Dump
	for _, c := range r.Classes() {
		if !c.Builtin {
			d.Classes = append(d.Classes, c)
		}
	}
	sort.Slice(d.Classes, func(i, j int) bool { return d.Classes[i].Name < d.Classes[j].Name })

	data, err := yaml.Marshal(&d)
	if err != nil {
		return fmt.Errorf("encode reflection dump: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create reflection dump dir: %w", err)
		}
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("write reflection dump: %w", err)
	}
	return nil
}
