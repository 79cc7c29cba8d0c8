// Package config loads the usweep configuration file.
//
// Configuration is optional: when no file exists at the default path,
// built-in defaults are used. YAML is the primary format; JSON and JSONC
// (JSON with comments, stripped via github.com/tidwall/jsonc) are accepted
// for operators who template configs from tooling that emits JSON.
//
// The most important setting is the package exclusion list. `apt-get
// autoremove` on Ubuntu may propose kernel packages whose removal is only
// safe if GRUB no longer references them, so kernel packages are excluded
// from purging by default and the list is operator-configurable rather
// than hardcoded.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the configuration file is looked up when the
// --config flag is not given.
const DefaultPath = "/etc/usweep/config.yaml"

// Config holds all operator-tunable settings for a maintenance run.
// Fields absent from the file are replaced by defaults in Load, so a
// partial file only overrides the fields it names.
type Config struct {
	// ExcludePackages lists glob patterns (filepath.Match syntax) of
	// package names that must never be purged even when apt marks them
	// as automatically removable. Defaults to kernel packages.
	ExcludePackages []string `yaml:"exclude_packages" json:"excludePackages"`

	// ProtectedSnaps lists snap names whose disabled revisions are
	// kept during pruning.
	ProtectedSnaps []string `yaml:"protected_snaps" json:"protectedSnaps"`

	// ExtraTempDirs lists additional directories to clean beyond the
	// built-in /tmp and /var/tmp.
	ExtraTempDirs []string `yaml:"extra_temp_dirs" json:"extraTempDirs"`

	// LogDirs lists directories scanned for rotated and oversized log
	// files. Defaults to /var/log.
	LogDirs []string `yaml:"log_dirs" json:"logDirs"`

	// LogMaxAgeDays is the minimum age of rotated/compressed log files
	// before they are deleted. An explicit zero means rotated logs are
	// deleted regardless of age; leaving the field unset means 30 days.
	// A pointer distinguishes the two, the same way nil vs empty does
	// for the list fields above.
	LogMaxAgeDays *int `yaml:"log_max_age_days" json:"logMaxAgeDays"`

	// TruncateLogsOver is a human-readable size (e.g., "100 MB").
	// Active .log files larger than this are truncated to zero bytes.
	// An explicit empty string disables truncation; leaving the field
	// unset means "100 MB".
	TruncateLogsOver *string `yaml:"truncate_logs_over" json:"truncateLogsOver"`

	// LogFile is the plain-text log destination for the run itself.
	// Empty means log to stderr. Cron deployments point this at a
	// fixed path such as /var/log/usweep.log.
	LogFile string `yaml:"log_file" json:"logFile"`

	// truncateBytes is TruncateLogsOver parsed during Validate.
	// Zero when truncation is disabled.
	truncateBytes int64
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	age := 30
	truncate := "100 MB"
	return &Config{
		ExcludePackages: []string{
			"linux-image-*",
			"linux-headers-*",
			"linux-modules-*",
		},
		LogDirs:          []string{"/var/log"},
		LogMaxAgeDays:    &age,
		TruncateLogsOver: &truncate,
	}
}

// Load reads the configuration from the given path. An empty path means
// DefaultPath. A missing file at the default path yields Default(); a
// missing file at an explicitly requested path is an error, because the
// operator clearly expected it to be read.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg := Default()
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := parse(path, data)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// parse decodes the file content based on its extension.
// JSONC comments are stripped before handing the bytes to encoding/json,
// so both plain JSON and commented JSON parse identically.
func parse(path string, data []byte) (*Config, error) {
	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (expected .yaml, .yml, .json, or .jsonc)", filepath.Ext(path))
	}
	return cfg, nil
}

// applyDefaults fills in defaults for fields the file left unset.
// Every field here is only defaulted when nil, so that an explicitly
// empty value ("exclude_packages: []", "log_max_age_days: 0",
// `truncate_logs_over: ""`) disables the behavior instead of being
// re-defaulted.
func (c *Config) applyDefaults() {
	def := Default()
	if c.ExcludePackages == nil {
		c.ExcludePackages = def.ExcludePackages
	}
	if c.LogDirs == nil {
		c.LogDirs = def.LogDirs
	}
	if c.LogMaxAgeDays == nil {
		c.LogMaxAgeDays = def.LogMaxAgeDays
	}
	if c.TruncateLogsOver == nil {
		c.TruncateLogsOver = def.TruncateLogsOver
	}
}

// Validate checks pattern syntax and size strings, and resolves
// TruncateLogsOver into bytes. It must be called before the accessor
// methods are used; Load does this automatically.
func (c *Config) Validate() error {
	for _, pattern := range c.ExcludePackages {
		// filepath.Match reports malformed patterns (e.g., a trailing
		// backslash) as ErrBadPattern regardless of the name matched.
		if _, err := filepath.Match(pattern, "probe"); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}

	if c.LogMaxAgeDays != nil && *c.LogMaxAgeDays < 0 {
		return fmt.Errorf("log_max_age_days must not be negative (got %d)", *c.LogMaxAgeDays)
	}

	for _, dir := range append(append([]string{}, c.ExtraTempDirs...), c.LogDirs...) {
		if !filepath.IsAbs(dir) {
			return fmt.Errorf("directory %q must be an absolute path", dir)
		}
	}

	c.truncateBytes = 0
	if c.TruncateLogsOver != nil && *c.TruncateLogsOver != "" {
		size, err := humanize.ParseBytes(*c.TruncateLogsOver)
		if err != nil {
			return fmt.Errorf("invalid truncate_logs_over value %q: %w", *c.TruncateLogsOver, err)
		}
		c.truncateBytes = int64(size)
	}

	return nil
}

// TruncateThreshold returns the active-log truncation threshold in
// bytes. Zero means truncation is disabled.
func (c *Config) TruncateThreshold() int64 {
	return c.truncateBytes
}

// LogMaxAge returns the minimum age in days a rotated log file must
// reach before deletion. Zero means rotated logs are deleted
// regardless of age.
func (c *Config) LogMaxAge() int {
	if c.LogMaxAgeDays == nil {
		return 0
	}
	return *c.LogMaxAgeDays
}

// IsExcludedPackage reports whether the given package name matches any
// configured exclusion pattern. Patterns that fail to compile were
// rejected by Validate, so match errors cannot occur here.
func (c *Config) IsExcludedPackage(name string) bool {
	for _, pattern := range c.ExcludePackages {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// IsProtectedSnap reports whether the given snap name is on the
// protected list. Protection is an exact name match, not a pattern —
// snap names are fixed identifiers, unlike versioned package names.
func (c *Config) IsProtectedSnap(name string) bool {
	for _, snap := range c.ProtectedSnaps {
		if snap == name {
			return true
		}
	}
	return false
}
