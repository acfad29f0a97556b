package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

type composerFile struct {
	Autoload struct {
		PSR4 map[string]json.RawMessage `json:"psr-4"`
	} `json:"autoload"`
}

// ComposerNamespace reads the psr-4 autoload map of composer.json and
// returns the namespace mapped to sourceDir, or the first one in sorted
// order when none is. A missing composer.json yields "".
func ComposerNamespace(fsys afero.Fs, sourceDir string) (string, error) {
	data, err := afero.ReadFile(fsys, "composer.json")
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read composer.json: %w", err)
	}
	var c composerFile
	if err := json.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("unmarshal composer.json: %w", err)
	}

	prefixes := make([]string, 0, len(c.Autoload.PSR4))
	for p := range c.Autoload.PSR4 {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	want := cleanDir(sourceDir)
	for _, p := range prefixes {
		for _, dir := range psr4Dirs(c.Autoload.PSR4[p]) {
			if cleanDir(dir) == want {
				return strings.Trim(p, `\`), nil
			}
		}
	}
	if len(prefixes) > 0 {
		return strings.Trim(prefixes[0], `\`), nil
	}
	return "", nil
}

// psr4Dirs accepts both the string and the list form of a psr-4 entry.
func psr4Dirs(raw json.RawMessage) []string {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}
	}
	var many []string
	_ = json.Unmarshal(raw, &many)
	return many
}

func cleanDir(d string) string {
	return strings.Trim(path.Clean("/"+strings.ReplaceAll(d, `\`, "/")), "/")
}
