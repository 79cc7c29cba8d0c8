package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig is a test helper that writes content to a file with the
// given name inside a fresh temp directory and returns its path.
func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err, "failed to write test config")
	return path
}

// TestDefaultExcludesKernelPackages verifies that the built-in defaults
// keep kernel packages out of the purge list. This is the safe default
// for instances where GRUB may still reference an older kernel.
func TestDefaultExcludesKernelPackages(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.IsExcludedPackage("linux-image-5.15.0-89-generic"))
	assert.True(t, cfg.IsExcludedPackage("linux-headers-5.15.0-89"))
	assert.True(t, cfg.IsExcludedPackage("linux-modules-extra-5.15.0-89-generic"))
	assert.False(t, cfg.IsExcludedPackage("libpython3.10-minimal"))
	assert.False(t, cfg.IsExcludedPackage("snapd"))
}

// TestLoadYAML verifies loading a YAML config file with partial
// overrides: named fields replace defaults, unnamed fields keep them.
func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
protected_snaps:
  - amazon-ssm-agent
extra_temp_dirs:
  - /var/cache/build
log_max_age_days: 14
log_file: /var/log/usweep.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProtectedSnap("amazon-ssm-agent"))
	assert.False(t, cfg.IsProtectedSnap("core20"))
	assert.Equal(t, []string{"/var/cache/build"}, cfg.ExtraTempDirs)
	assert.Equal(t, 14, cfg.LogMaxAge())
	assert.Equal(t, "/var/log/usweep.log", cfg.LogFile)

	// Fields not present in the file keep their defaults.
	assert.Equal(t, []string{"/var/log"}, cfg.LogDirs)
	assert.True(t, cfg.IsExcludedPackage("linux-image-6.2.0-37-generic"))
	assert.Equal(t, int64(100_000_000), cfg.TruncateThreshold())
}

// TestLoadJSONC verifies that JSONC files parse after comment stripping.
func TestLoadJSONC(t *testing.T) {
	path := writeConfig(t, "config.jsonc", `{
  // Keep the SSM agent's old revisions around for rollback.
  "protectedSnaps": ["amazon-ssm-agent"],
  "logMaxAgeDays": 7,
  /* block comments work too */
  "truncateLogsOver": "50 MB"
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProtectedSnap("amazon-ssm-agent"))
	assert.Equal(t, 7, cfg.LogMaxAge())
	assert.Equal(t, int64(50_000_000), cfg.TruncateThreshold())
}

// TestLoadEmptyExclusionListDisablesDefaults verifies that an explicitly
// empty exclude_packages list clears the kernel defaults rather than
// being re-defaulted. Operators who manage kernels externally rely on this.
func TestLoadEmptyExclusionListDisablesDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", "exclude_packages: []\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.IsExcludedPackage("linux-image-5.15.0-89-generic"),
		"explicit empty list should disable default exclusions")
}

// TestLoadMissingExplicitPath verifies that a --config path that does
// not exist is an error, while the default path silently falls back to
// defaults.
func TestLoadMissingExplicitPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := Load(missing)
	assert.Error(t, err, "explicitly requested missing file should fail")
}

// TestLoadBadExtension verifies that unsupported file extensions are
// rejected with a clear error.
func TestLoadBadExtension(t *testing.T) {
	path := writeConfig(t, "config.toml", "key = true\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file extension")
}

// TestValidateRejectsBadValues covers the individual validation rules.
func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "malformed exclude pattern",
			mutate: func(c *Config) { c.ExcludePackages = []string{`linux-[`} },
		},
		{
			name:   "negative log age",
			mutate: func(c *Config) { age := -1; c.LogMaxAgeDays = &age },
		},
		{
			name:   "relative temp dir",
			mutate: func(c *Config) { c.ExtraTempDirs = []string{"cache/build"} },
		},
		{
			name:   "relative log dir",
			mutate: func(c *Config) { c.LogDirs = []string{"log"} },
		},
		{
			name:   "unparseable truncate size",
			mutate: func(c *Config) { bad := "quite big"; c.TruncateLogsOver = &bad },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// TestLoadExplicitZeroValuesDisable verifies that explicit zero/empty
// values in the file disable the corresponding behavior instead of
// being silently re-defaulted by Load. Without the pointer fields, an
// explicit `truncate_logs_over: ""` was indistinguishable from an
// absent field and came back as the 100 MB default.
func TestLoadExplicitZeroValuesDisable(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
log_max_age_days: 0
truncate_logs_over: ""
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Zero(t, cfg.TruncateThreshold(),
		"explicit empty string should disable truncation")
	assert.Zero(t, cfg.LogMaxAge(),
		"explicit zero should drop the rotated-log age floor")
}

// TestTruncateThresholdDisabled verifies that an empty size string
// disables truncation when validating a hand-built config.
func TestTruncateThresholdDisabled(t *testing.T) {
	disabled := ""
	cfg := Default()
	cfg.TruncateLogsOver = &disabled
	require.NoError(t, cfg.Validate())
	assert.Zero(t, cfg.TruncateThreshold())
}
