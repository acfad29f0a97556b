package generator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/cmmoran/phptestgen/internal/mock"
	"github.com/cmmoran/phptestgen/internal/provider"
	"github.com/cmmoran/phptestgen/internal/synth"
)

// Options control indexing and generation.
//
// Root                   – project root; every other path is relative to it
// Sources                – globs of classes to generate tests for
// IndexPaths             – extra globs indexed for reflection only (vendor code)
// ExcludePaths           – globs dropped from Sources and IndexPaths
// Reflection             – optional YAML reflection dump merged over the index
// ProjectNamespace       – root namespace; read from composer.json when empty
// SourceDir              – psr-4 directory used to pick the composer namespace
// TestDir                – where generated tests go
// MockBackend            – mockery or phpunit
// Strict                 – unresolvable types are errors instead of mixed
// AllowFinal             – mock final classes (requires BypassFinals)
// MaxDepth               – mock and data expansion depth
// DataSets               – data sets per provider method
// Seed                   – fake data seed
// DryRun                 – write to an in-memory overlay and report diffs
// Manifest               – run history file, empty disables it
// ManifestHistory        – runs kept in the manifest
// Workers                – parallel source parsers, 0 means GOMAXPROCS
// Exclude                – mock and test exclusion lists
// SelfReturningMethods   – methods resolved to the declaring class
// ProviderSelfMethods    – methods whose fake value is the class name
// ProviderExcludeMethods – methods left out of mock data
// Preprocess             – per-class test method rules
// PHPUnitConfig          – phpunit.xml written by project runs, empty disables it
type Options struct {
	Root                   string       `json:"root,omitempty" yaml:"root,omitempty" toml:"root,omitempty" mapstructure:"root,omitempty"`
	Sources                []string     `json:"sources,omitempty" yaml:"sources,omitempty" toml:"sources,omitempty" mapstructure:"sources,omitempty"`
	IndexPaths             []string     `json:"index,omitempty" yaml:"index,omitempty" toml:"index,omitempty" mapstructure:"index,omitempty"`
	ExcludePaths           []string     `json:"exclude_paths,omitempty" yaml:"exclude_paths,omitempty" toml:"exclude_paths,omitempty" mapstructure:"exclude_paths,omitempty"`
	Reflection             string       `json:"reflection,omitempty" yaml:"reflection,omitempty" toml:"reflection,omitempty" mapstructure:"reflection,omitempty"`
	ProjectNamespace       string       `json:"project_namespace,omitempty" yaml:"project_namespace,omitempty" toml:"project_namespace,omitempty" mapstructure:"project_namespace,omitempty"`
	SourceDir              string       `json:"source_dir,omitempty" yaml:"source_dir,omitempty" toml:"source_dir,omitempty" mapstructure:"source_dir,omitempty"`
	TestDir                string       `json:"test_dir,omitempty" yaml:"test_dir,omitempty" toml:"test_dir,omitempty" mapstructure:"test_dir,omitempty"`
	MockBackend            string       `json:"mock_backend,omitempty" yaml:"mock_backend,omitempty" toml:"mock_backend,omitempty" mapstructure:"mock_backend,omitempty"`
	Strict                 bool         `json:"strict,omitempty" yaml:"strict,omitempty" toml:"strict,omitempty" mapstructure:"strict,omitempty"`
	AllowFinal             bool         `json:"allow_final,omitempty" yaml:"allow_final,omitempty" toml:"allow_final,omitempty" mapstructure:"allow_final,omitempty"`
	MaxDepth               int          `json:"max_depth,omitempty" yaml:"max_depth,omitempty" toml:"max_depth,omitempty" mapstructure:"max_depth,omitempty"`
	DataSets               int          `json:"data_sets,omitempty" yaml:"data_sets,omitempty" toml:"data_sets,omitempty" mapstructure:"data_sets,omitempty"`
	Seed                   uint64       `json:"seed,omitempty" yaml:"seed,omitempty" toml:"seed,omitempty" mapstructure:"seed,omitempty"`
	DryRun                 bool         `json:"dry_run,omitempty" yaml:"dry_run,omitempty" toml:"dry_run,omitempty" mapstructure:"dry_run,omitempty"`
	Manifest               string       `json:"manifest,omitempty" yaml:"manifest,omitempty" toml:"manifest,omitempty" mapstructure:"manifest,omitempty"`
	ManifestHistory        int          `json:"manifest_history,omitempty" yaml:"manifest_history,omitempty" toml:"manifest_history,omitempty" mapstructure:"manifest_history,omitempty"`
	Workers                int          `json:"workers,omitempty" yaml:"workers,omitempty" toml:"workers,omitempty" mapstructure:"workers,omitempty"`
	Exclude                Exclude      `json:"exclude,omitempty" yaml:"exclude,omitempty" toml:"exclude,omitempty" mapstructure:"exclude,omitempty"`
	SelfReturningMethods   []string     `json:"self_returning_methods,omitempty" yaml:"self_returning_methods,omitempty" toml:"self_returning_methods,omitempty" mapstructure:"self_returning_methods,omitempty"`
	ProviderSelfMethods    []string     `json:"provider_self_methods,omitempty" yaml:"provider_self_methods,omitempty" toml:"provider_self_methods,omitempty" mapstructure:"provider_self_methods,omitempty"`
	ProviderExcludeMethods []string     `json:"provider_exclude_methods,omitempty" yaml:"provider_exclude_methods,omitempty" toml:"provider_exclude_methods,omitempty" mapstructure:"provider_exclude_methods,omitempty"`
	Preprocess             []synth.Rule `json:"preprocess,omitempty" yaml:"preprocess,omitempty" toml:"preprocess,omitempty" mapstructure:"preprocess,omitempty"`
	PHPUnitConfig          string       `json:"phpunit_config,omitempty" yaml:"phpunit_config,omitempty" toml:"phpunit_config,omitempty" mapstructure:"phpunit_config,omitempty"`

	// Fs replaces the filesystem rooted at Root, mostly for tests.
	Fs afero.Fs `json:"-" yaml:"-" toml:"-" mapstructure:"-"`
}

func NewOptions() *Options {
	return &Options{
		Root:                   ".",
		Sources:                []string{"src/**/*.php"},
		SourceDir:              "src",
		TestDir:                "tests/Unit",
		MockBackend:            mock.BackendMockery,
		MaxDepth:               mock.DefaultMaxDepth,
		DataSets:               1,
		Seed:                   1,
		Manifest:               ".phptestgen/manifest.yaml",
		ManifestHistory:        20,
		Exclude:                Exclude{DeclaringClasses: []string{"Exception"}},
		SelfReturningMethods:   []string{"fromNative"},
		ProviderSelfMethods:    append([]string(nil), provider.DefaultSelfMethods...),
		ProviderExcludeMethods: append([]string(nil), provider.DefaultExcludeMethods...),
	}
}

// Normalize fills unset values with defaults and parses excludeMethods
// entries ("method" or "Class::method", see Exclude.Add). It fails on an
// unknown mock backend.
func (o *Options) Normalize(excludeMethods ...string) error {
	for _, s := range excludeMethods {
		o.Exclude.Add(s)
	}
	def := NewOptions()
	if len(o.Root) == 0 {
		o.Root = def.Root
	}
	if strings.Contains(o.Root, ".") {
		o.Root, _ = filepath.Abs(o.Root)
	}
	if len(o.Sources) == 0 {
		o.Sources = def.Sources
	}
	if len(o.SourceDir) == 0 {
		o.SourceDir = def.SourceDir
	}
	if len(o.TestDir) == 0 {
		o.TestDir = def.TestDir
	}
	o.TestDir = filepath.ToSlash(filepath.Clean(o.TestDir))
	o.MockBackend = strings.ToLower(strings.TrimSpace(o.MockBackend))
	if o.MockBackend == "" {
		o.MockBackend = def.MockBackend
	}
	if _, err := mock.BackendFor(o.MockBackend); err != nil {
		return err
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = def.MaxDepth
	}
	if o.DataSets <= 0 {
		o.DataSets = def.DataSets
	}
	if o.ManifestHistory <= 0 {
		o.ManifestHistory = def.ManifestHistory
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", o.Workers)
	}
	o.ProjectNamespace = strings.Trim(o.ProjectNamespace, `\`)
	return nil
}

// functional option pattern ---------------------------------------------------

type Option func(*Options)

func WithRoot(d string) Option           { return func(o *Options) { o.Root = d } }
func WithFs(fs afero.Fs) Option          { return func(o *Options) { o.Fs = fs } }
func WithSources(globs ...string) Option { return func(o *Options) { o.Sources = globs } }
func WithIndexPaths(globs ...string) Option {
	return func(o *Options) { o.IndexPaths = append(o.IndexPaths, globs...) }
}
func WithExcludePaths(globs ...string) Option {
	return func(o *Options) { o.ExcludePaths = append(o.ExcludePaths, globs...) }
}
func WithReflection(path string) Option     { return func(o *Options) { o.Reflection = path } }
func WithProjectNamespace(ns string) Option { return func(o *Options) { o.ProjectNamespace = ns } }
func WithTestDir(d string) Option           { return func(o *Options) { o.TestDir = d } }
func WithMockBackend(name string) Option    { return func(o *Options) { o.MockBackend = name } }
func WithStrict() Option                    { return func(o *Options) { o.Strict = true } }
func WithAllowFinal() Option                { return func(o *Options) { o.AllowFinal = true } }
func WithMaxDepth(n int) Option             { return func(o *Options) { o.MaxDepth = n } }
func WithDataSets(n int) Option             { return func(o *Options) { o.DataSets = n } }
func WithSeed(seed uint64) Option           { return func(o *Options) { o.Seed = seed } }
func WithDryRun() Option                    { return func(o *Options) { o.DryRun = true } }
func WithManifest(path string) Option       { return func(o *Options) { o.Manifest = path } }
func WithWorkers(n int) Option              { return func(o *Options) { o.Workers = n } }
func WithPHPUnitConfig(path string) Option  { return func(o *Options) { o.PHPUnitConfig = path } }
func WithPreprocess(rules ...synth.Rule) Option {
	return func(o *Options) { o.Preprocess = append(o.Preprocess, rules...) }
}
func WithExcludeMethods(entries ...string) Option {
	return func(o *Options) {
		for _, e := range entries {
			o.Exclude.Add(e)
		}
	}
}

// Apply runs opts over o.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}
