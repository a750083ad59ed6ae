// Package config loads and validates the TOML run configuration.
//
// A configuration declares an ordered list of artifact sources, the filter
// settings applied after aggregation, and cache/runtime options. Source
// order matters: the position of a [[source]] block assigns its priority
// (1 = first declared), which the duplicate filter later uses to decide
// which copy of an artifact survives.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/repotools/artlist/pkg/errors"
)

// Source types accepted in a [[source]] block.
const (
	SourceTypeTag             = "tag"
	SourceTypeDependencyList  = "dependency-list"
	SourceTypeDependencyGraph = "dependency-graph"
	SourceTypeRepository      = "repository"
)

// Thread-count bounds for the transient worker pools (excluded-repository
// probes, all-classifiers listings).
const (
	DefaultThreads = 10
	MaxThreads     = 20
)

// AllClassifiersValue in add-classifiers requests every classifier of every
// extension instead of an explicit list.
const AllClassifiersValue = "*:*"

// Config is the root of the TOML configuration file.
type Config struct {
	// Output is the path the artifact list is written to. Empty means stdout.
	Output string `toml:"output"`

	// Threads sizes the transient worker pools. Clamped to [1, MaxThreads].
	Threads int `toml:"threads"`

	// AddClassifiers lists extra "type:classifier" pairs to admit beyond the
	// main artifacts, or the single value "*:*" to admit everything.
	AddClassifiers []string `toml:"add-classifiers"`

	Cache   CacheConfig  `toml:"cache"`
	Sources []*Source    `toml:"source"`
	Filter  FilterConfig `toml:"filter"`
}

// CacheConfig selects and locates the response cache backend.
type CacheConfig struct {
	// Dir is the cache root directory. Empty selects a default under the
	// user cache dir.
	Dir string `toml:"dir"`

	// RedisAddr switches the response cache from files to Redis when set.
	RedisAddr string `toml:"redis-addr"`

	// Disabled turns response and dependency-graph caching off entirely.
	Disabled bool `toml:"disabled"`
}

// Source describes one artifact source. The set of meaningful fields
// depends on Type; Validate enforces the per-type requirements.
type Source struct {
	Type string `toml:"type"`

	// Patterns removed from this source's result before aggregation.
	ExcludedGAVs []string `toml:"excluded-gavs"`

	// tag
	BuildServiceURL     string   `toml:"build-service-url"`
	DownloadRootURL     string   `toml:"download-root-url"`
	TagName             string   `toml:"tag-name"`
	IncludedGAVPatterns []string `toml:"included-gav-patterns"`

	// dependency-list and repository
	RepoURLs []string `toml:"repo-urls"`

	// dependency-list
	TopLevelGAVs   []string `toml:"top-level-gavs"`
	Recursive      bool     `toml:"recursive"`
	IncludeScope   string   `toml:"include-scope"`
	SkipMissing    bool     `toml:"skip-missing"`
	AllClassifiers bool     `toml:"all-classifiers"`

	// dependency-graph
	GraphServiceURL   string   `toml:"graph-service-url"`
	WorkspaceID       string   `toml:"wsid"`
	SourceKey         string   `toml:"source-key"`
	ExcludedSources   []string `toml:"excluded-sources"`
	ExcludedSubgraphs []string `toml:"excluded-subgraphs"`
	Preset            string   `toml:"preset"`
	Mutator           string   `toml:"mutator"`
	PatcherIDs        []string `toml:"patcher-ids"`
	InjectedBOMs      []string `toml:"injected-boms"`
	Analyze           bool     `toml:"analyze"`

	// repository
	IncludedGATCVs []string `toml:"included-gatcvs"`
}

// FilterConfig holds the settings for the post-aggregation filter pipeline.
type FilterConfig struct {
	ExcludedGAVs         []string `toml:"excluded-gavs"`
	ExcludedTypes        []string `toml:"excluded-types"`
	GATCVWhitelist       []string `toml:"gatcv-whitelist"`
	SingleVersion        bool     `toml:"single-version"`
	MultiVersionGAs      []string `toml:"multi-version-gas"`
	ExcludedRepositories []string `toml:"excluded-repositories"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err,
			fmt.Sprintf("reading config file %s", path))
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err,
			fmt.Sprintf("parsing config file %s", path))
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Threads == 0 {
		c.Threads = DefaultThreads
	}
	if c.Threads < 1 {
		c.Threads = 1
	}
	if c.Threads > MaxThreads {
		c.Threads = MaxThreads
	}
	for _, src := range c.Sources {
		// sob-build resolves runtime dependencies only
		if src.Type == SourceTypeDependencyGraph && src.Preset == "" {
			src.Preset = "sob-build"
		}
	}
}

// Validate checks structural requirements that TOML decoding cannot express.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "no sources declared")
	}

	for _, ec := range c.AddClassifiers {
		if ec == AllClassifiersValue {
			continue
		}
		if strings.Count(ec, ":") != 1 {
			return errors.New(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("add-classifiers entry %q is not type:classifier", ec))
		}
	}

	for i, src := range c.Sources {
		if err := src.validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err,
				fmt.Sprintf("source %d", i+1))
		}
	}
	return nil
}

func (s *Source) validate() error {
	switch s.Type {
	case SourceTypeTag:
		if s.BuildServiceURL == "" || s.DownloadRootURL == "" || s.TagName == "" {
			return errors.New(errors.ErrCodeInvalidConfig,
				"tag source requires build-service-url, download-root-url and tag-name")
		}
	case SourceTypeDependencyList:
		if len(s.RepoURLs) == 0 {
			return errors.New(errors.ErrCodeInvalidConfig,
				"dependency-list source requires repo-urls")
		}
		if len(s.TopLevelGAVs) == 0 {
			return errors.New(errors.ErrCodeInvalidConfig,
				"dependency-list source requires top-level-gavs")
		}
	case SourceTypeDependencyGraph:
		if s.GraphServiceURL == "" || s.SourceKey == "" {
			return errors.New(errors.ErrCodeInvalidConfig,
				"dependency-graph source requires graph-service-url and source-key")
		}
		if len(s.TopLevelGAVs) == 0 {
			return errors.New(errors.ErrCodeInvalidConfig,
				"dependency-graph source requires top-level-gavs")
		}
	case SourceTypeRepository:
		if len(s.RepoURLs) == 0 {
			return errors.New(errors.ErrCodeInvalidConfig,
				"repository source requires repo-urls")
		}
	case "":
		return errors.New(errors.ErrCodeInvalidConfig, "source is missing a type")
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported source type %q", s.Type))
	}
	return nil
}

// IsAllClassifiers reports whether every classifier should be admitted.
func (c *Config) IsAllClassifiers() bool {
	for _, ec := range c.AddClassifiers {
		if ec == AllClassifiersValue {
			return true
		}
	}
	return false
}

// ExtClassifier is one admitted extension/classifier pair beyond the main
// artifact types.
type ExtClassifier struct {
	Type       string `json:"type"`
	Classifier string `json:"classifier"`
}

// ExtraClassifiers returns the admitted pairs in declaration order. For the
// all-classifiers value it returns the single wildcard pair understood by
// the dependency-graph service.
func (c *Config) ExtraClassifiers() []ExtClassifier {
	if c.IsAllClassifiers() {
		return []ExtClassifier{{Type: "*", Classifier: "*"}}
	}
	extras := make([]ExtClassifier, 0, len(c.AddClassifiers))
	for _, ec := range c.AddClassifiers {
		ext, class, _ := strings.Cut(ec, ":")
		extras = append(extras, ExtClassifier{Type: ext, Classifier: class})
	}
	return extras
}

// ContainsAddClassifier reports whether the extension/classifier pair is
// explicitly admitted by add-classifiers.
func (c *Config) ContainsAddClassifier(extension, classifier string) bool {
	if c.IsAllClassifiers() {
		return true
	}
	for _, ec := range c.AddClassifiers {
		ext, class, _ := strings.Cut(ec, ":")
		if ext == extension && class == classifier {
			return true
		}
	}
	return false
}
