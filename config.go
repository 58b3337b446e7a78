package goprovenance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the provenance engine.
type Config struct {
	// CachePath is the full path to the SQLite snapshot cache.
	// If empty, defaults to ~/.goprovenance/<CacheName>.db
	CachePath string `json:"cache_path" yaml:"cache_path"`

	// CacheName names the cache file when CachePath is empty. Defaults to
	// "provenance".
	CacheName string `json:"cache_name" yaml:"cache_name"`

	// StorageDir controls where the cache lives when CachePath is not set:
	// "home" (default) uses ~/.goprovenance/, "local" the working
	// directory, "none" disables the cache.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// Index build
	MinParseFraction   float64  `json:"min_parse_fraction" yaml:"min_parse_fraction"`
	ExpectedReferences int      `json:"expected_references" yaml:"expected_references"` // 0 = number of references supplied
	BuildConcurrency   int      `json:"build_concurrency" yaml:"build_concurrency"`
	SeeAlsoMarkers     []string `json:"see_also_markers" yaml:"see_also_markers"`

	// Document processing
	Workers            int      `json:"workers" yaml:"workers"`
	DisabledStrategies []string `json:"disabled_strategies" yaml:"disabled_strategies"`
	Organizations      []string `json:"organizations" yaml:"organizations"` // collective-author vocabulary override
	LinkKeywords       bool     `json:"link_keywords" yaml:"link_keywords"`

	// Linking
	FuzzyThreshold        float64 `json:"fuzzy_threshold" yaml:"fuzzy_threshold"`
	AliasConfidence       float64 `json:"alias_confidence" yaml:"alias_confidence"`
	ContextConfidence     float64 `json:"context_confidence" yaml:"context_confidence"`
	TextContextConfidence float64 `json:"text_context_confidence" yaml:"text_context_confidence"`
	AmbiguousConfidence   float64 `json:"ambiguous_confidence" yaml:"ambiguous_confidence"`

	// Logging
	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"` // json or pretty
}

// DefaultConfig returns a Config with the documented defaults. The cache is
// stored in ~/.goprovenance/provenance.db.
func DefaultConfig() Config {
	return Config{
		CacheName:             "provenance",
		StorageDir:            "home",
		MinParseFraction:      0.5,
		BuildConcurrency:      8,
		SeeAlsoMarkers:        []string{"see also"},
		Workers:               8,
		LinkKeywords:          true,
		FuzzyThreshold:        0.85,
		AliasConfidence:       0.9,
		ContextConfidence:     0.9,
		TextContextConfidence: 0.7,
		AmbiguousConfidence:   0.5,
		LogLevel:              "info",
		LogFormat:             "json",
	}
}

// LoadConfig reads a YAML (.yaml, .yml) or JSON file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PROVENANCE_* environment variables. List
// values are comma-separated.
func (c *Config) ApplyEnv() error {
	str := map[string]*string{
		"PROVENANCE_CACHE_PATH":  &c.CachePath,
		"PROVENANCE_CACHE_NAME":  &c.CacheName,
		"PROVENANCE_STORAGE_DIR": &c.StorageDir,
		"PROVENANCE_LOG_LEVEL":   &c.LogLevel,
		"PROVENANCE_LOG_FORMAT":  &c.LogFormat,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"PROVENANCE_MIN_PARSE_FRACTION":      &c.MinParseFraction,
		"PROVENANCE_FUZZY_THRESHOLD":         &c.FuzzyThreshold,
		"PROVENANCE_ALIAS_CONFIDENCE":        &c.AliasConfidence,
		"PROVENANCE_CONTEXT_CONFIDENCE":      &c.ContextConfidence,
		"PROVENANCE_TEXT_CONTEXT_CONFIDENCE": &c.TextContextConfidence,
		"PROVENANCE_AMBIGUOUS_CONFIDENCE":    &c.AmbiguousConfidence,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, v)
			}
			*dst = f
		}
	}

	ints := map[string]*int{
		"PROVENANCE_EXPECTED_REFERENCES": &c.ExpectedReferences,
		"PROVENANCE_BUILD_CONCURRENCY":   &c.BuildConcurrency,
		"PROVENANCE_WORKERS":             &c.Workers,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, v)
			}
			*dst = n
		}
	}

	lists := map[string]*[]string{
		"PROVENANCE_DISABLED_STRATEGIES": &c.DisabledStrategies,
		"PROVENANCE_SEE_ALSO_MARKERS":    &c.SeeAlsoMarkers,
		"PROVENANCE_ORGANIZATIONS":       &c.Organizations,
	}
	for key, dst := range lists {
		if v := os.Getenv(key); v != "" {
			*dst = splitList(v)
		}
	}

	if v := os.Getenv("PROVENANCE_LINK_KEYWORDS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: PROVENANCE_LINK_KEYWORDS=%q", ErrInvalidConfig, v)
		}
		c.LinkKeywords = b
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks ranges: confidences and threshold in [0,1], parse
// fraction in (0,1], positive worker counts.
func (c *Config) Validate() error {
	for name, v := range map[string]float64{
		"fuzzy_threshold":         c.FuzzyThreshold,
		"alias_confidence":        c.AliasConfidence,
		"context_confidence":      c.ContextConfidence,
		"text_context_confidence": c.TextContextConfidence,
		"ambiguous_confidence":    c.AmbiguousConfidence,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be in [0,1], got %v", ErrInvalidConfig, name, v)
		}
	}
	if c.MinParseFraction <= 0 || c.MinParseFraction > 1 {
		return fmt.Errorf("%w: min_parse_fraction must be in (0,1], got %v", ErrInvalidConfig, c.MinParseFraction)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.BuildConcurrency <= 0 {
		return fmt.Errorf("%w: build_concurrency must be positive, got %d", ErrInvalidConfig, c.BuildConcurrency)
	}
	if c.ExpectedReferences < 0 {
		return fmt.Errorf("%w: expected_references must not be negative", ErrInvalidConfig)
	}
	switch c.StorageDir {
	case "", "home", "local", "cwd", "none":
	default:
		return fmt.Errorf("%w: unknown storage_dir %q", ErrInvalidConfig, c.StorageDir)
	}
	return nil
}

// resolveCachePath computes the snapshot cache path. Empty means no cache.
func (c *Config) resolveCachePath() string {
	if c.CachePath != "" {
		return c.CachePath
	}

	name := c.CacheName
	if name == "" {
		name = "provenance"
	}

	switch c.StorageDir {
	case "none":
		return ""
	case "local", "cwd":
		return name + ".db"
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db"
		}
		return filepath.Join(home, ".goprovenance", name+".db")
	}
}
