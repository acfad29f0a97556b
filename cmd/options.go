package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmmoran/phptestgen/internal/mock"
	"github.com/cmmoran/phptestgen/pkg/generator"
)

// flagKeys maps generator flags to their config keys.
var flagKeys = map[string]string{
	"root":              "root",
	"mock-backend":      "mock_backend",
	"strict":            "strict",
	"dry-run":           "dry_run",
	"max-depth":         "max_depth",
	"data-sets":         "data_sets",
	"seed":              "seed",
	"allow-final":       "allow_final",
	"project-namespace": "project_namespace",
	"test-dir":          "test_dir",
	"workers":           "workers",
	"reflection":        "reflection",
}

func addGeneratorFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringP("root", "r", ".", "project root")
	f.StringP("mock-backend", "b", mock.BackendMockery, "mocking framework (mockery, phpunit)")
	f.Bool("strict", false, "fail on types that cannot be resolved instead of using mixed")
	f.BoolP("dry-run", "n", false, "print diffs instead of writing files")
	f.Int("max-depth", mock.DefaultMaxDepth, "mock and data expansion depth")
	f.Int("data-sets", 1, "data sets per provider method")
	f.Uint64("seed", 1, "fake data seed")
	f.Bool("allow-final", false, "mock final classes (requires BypassFinals)")
	f.StringP("project-namespace", "p", "", "project root namespace, read from composer.json when empty")
	f.String("test-dir", "tests/Unit", "directory of generated tests")
	f.Int("workers", 0, "parallel source parsers, 0 uses every CPU")
	f.String("reflection", "", "YAML reflection dump merged over the indexed sources")
	f.StringSliceP("exclude-methods", "x", []string{}, "methods left out of mocks and tests, ex: save or App\\Repo::find")
}

// loadOptions builds generator options from defaults, config files, the
// environment and flags, in increasing priority.
func loadOptions(c *cobra.Command) (*generator.Options, error) {
	for name, key := range flagKeys {
		if fl := c.Flags().Lookup(name); fl != nil {
			if err := viper.BindPFlag(key, fl); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}
	opts := generator.NewOptions()
	if err := viper.Unmarshal(opts); err != nil {
		return nil, fmt.Errorf("read options: %w", err)
	}
	excluded, _ := c.Flags().GetStringSlice("exclude-methods")
	if err := opts.Normalize(excluded...); err != nil {
		return nil, err
	}
	return opts, nil
}
