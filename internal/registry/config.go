// Package registry resolves which (namespace, version) repositories
// participate in a run and in what order they load.
//
// The registry handles:
//   - Parsing and validating girbind.yaml configuration
//   - Discovering repository files across the search paths
//   - Grouping discoveries per namespace and applying the version policy
//   - Computing a dependency-ordered load sequence
package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gircore/girbind/internal/config"
)

// VersionPolicy decides how a namespace discovered in more than one
// version is handled.
type VersionPolicy string

const (
	// PolicyFail reports the group as conflicting and loads nothing
	// for it. The default.
	PolicyFail VersionPolicy = "fail"

	// PolicyHighest deterministically picks the numerically highest
	// version.
	PolicyHighest VersionPolicy = "highest"
)

// Config represents the top-level girbind.yaml configuration.
type Config struct {
	// Modules lists the requested module name patterns. A pattern
	// matches either a namespace name ("Gtk") or a namespace-version
	// unit ("Gtk-4.0"), with glob support ("Gtk-*").
	Modules []string `yaml:"modules"`

	// Ignore lists namespace-version units to drop from discovery
	// before grouping (e.g. "Gtk-3.0"). Glob patterns are allowed.
	Ignore []string `yaml:"ignore,omitempty"`

	// SearchPaths are the directories scanned for repository files.
	// Defaults to the platform locations when empty.
	SearchPaths []string `yaml:"search_paths,omitempty"`

	// VersionPolicy is "fail" (default) or "highest".
	VersionPolicy VersionPolicy `yaml:"version_policy,omitempty"`

	// Pins force a specific version per namespace and win over the
	// general policy (e.g. Gtk: "4.0").
	Pins map[string]string `yaml:"pins,omitempty"`

	// CachePath enables the discovery cache when set: repository
	// header facts are memoized in a sqlite file at this path.
	CachePath string `yaml:"cache_path,omitempty"`
}

// LoadConfig reads and parses a girbind.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses girbind.yaml content from bytes. The path
// argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for girbind.yaml starting from dir and walking
// up to parent directories. Returns the path if found, or empty string
// and nil error if not found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range config.ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) validate(path string) error {
	if len(c.Modules) == 0 {
		return fmt.Errorf("%s: at least one module pattern is required", path)
	}
	switch c.VersionPolicy {
	case "", PolicyFail, PolicyHighest:
	default:
		return fmt.Errorf("%s: unknown version_policy %q (want %q or %q)",
			path, c.VersionPolicy, PolicyFail, PolicyHighest)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.VersionPolicy == "" {
		c.VersionPolicy = PolicyFail
	}
	if len(c.SearchPaths) == 0 {
		c.SearchPaths = append(c.SearchPaths, config.DefaultSearchPaths...)
	}
}
