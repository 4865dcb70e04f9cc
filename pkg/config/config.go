// Package config loads the .autorel.yaml release configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/ethpandaops/autorel/pkg/commits"
	"github.com/ethpandaops/autorel/pkg/semver"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the repository root.
const DefaultFile = ".autorel.yaml"

// TokenEnv is the environment variable consulted when no token is configured.
const TokenEnv = "GITHUB_TOKEN"

// ErrNoBranches is returned when a channel must be inferred but no branches
// are configured.
var ErrNoBranches = errors.New("branches are not defined in the configuration")

// Config represents the autorel configuration.
type Config struct {
	BreakingChangeTitle string               `yaml:"breakingChangeTitle"`
	CommitTypes         []commits.CommitType `yaml:"commitTypes"`
	Branches            []Branch             `yaml:"branches"`

	// PrereleaseChannel forces a channel regardless of branch.
	PrereleaseChannel string `yaml:"prereleaseChannel,omitempty"`

	// UseVersion skips commit analysis and releases this version (no "v" prefix).
	UseVersion string `yaml:"useVersion,omitempty"`

	SkipRelease bool   `yaml:"skipRelease,omitempty"`
	Publish     bool   `yaml:"publish,omitempty"`
	DryRun      bool   `yaml:"dryRun,omitempty"`
	PreRun      string `yaml:"preRun,omitempty"`
	Run         string `yaml:"run,omitempty"`
	GitHubToken string `yaml:"githubToken,omitempty"`
}

// Branch maps a git branch to the prerelease channel it releases on. An empty
// channel releases stable versions.
type Branch struct {
	Name              string `yaml:"name"`
	PrereleaseChannel string `yaml:"prereleaseChannel,omitempty"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		BreakingChangeTitle: "🚨 Breaking Changes 🚨",
		CommitTypes:         DefaultCommitTypes(),
		Branches: []Branch{
			{Name: "main"},
		},
	}
}

// DefaultCommitTypes returns the conventional commit types recognised out of
// the box.
func DefaultCommitTypes() []commits.CommitType {
	return []commits.CommitType{
		{Type: "feat", Title: "✨ Features", Release: semver.Minor},
		{Type: "fix", Title: "🐛 Bug Fixes", Release: semver.Patch},
		{Type: "perf", Title: "⚡ Performance Improvements", Release: semver.Patch},
		{Type: "revert", Title: "⏪ Reverts", Release: semver.Patch},
		{Type: "docs", Title: "📚 Documentation", Release: semver.None},
		{Type: "style", Title: "💅 Styles", Release: semver.None},
		{Type: "refactor", Title: "🛠 Code Refactoring", Release: semver.None},
		{Type: "test", Title: "🧪 Tests", Release: semver.None},
		{Type: "build", Title: "🏗 Build System", Release: semver.None},
		{Type: "ci", Title: "🔧 Continuous Integration", Release: semver.None},
	}
}

// Load reads a config file and overlays it onto the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.applyEnv()

		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := mergo.Merge(cfg, file, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.GitHubToken == "" {
		c.GitHubToken = os.Getenv(TokenEnv)
	}
}

// Save writes the configuration to a file. The token is never written.
func (c *Config) Save(path string) error {
	out := *c
	out.GitHubToken = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	//nolint:gosec // Config file permissions are intentionally 0644 for readability
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.CommitTypes))

	for i, ct := range c.CommitTypes {
		if strings.TrimSpace(ct.Type) == "" {
			return fmt.Errorf("commitTypes[%d]: type is required", i)
		}

		if seen[ct.Type] {
			return fmt.Errorf("commitTypes[%d]: duplicate type %q", i, ct.Type)
		}

		seen[ct.Type] = true
	}

	if len(c.Branches) == 0 {
		return ErrNoBranches
	}

	for i, b := range c.Branches {
		if b.Name == "" {
			return fmt.Errorf("branches[%d]: name is required", i)
		}

		if err := ValidateChannel(b.PrereleaseChannel); err != nil {
			return fmt.Errorf("branches[%d]: %w", i, err)
		}
	}

	if err := ValidateChannel(c.PrereleaseChannel); err != nil {
		return fmt.Errorf("prereleaseChannel: %w", err)
	}

	if err := ValidateUseVersion(c.UseVersion); err != nil {
		return fmt.Errorf("useVersion: %w", err)
	}

	return nil
}

// ResolveChannel returns the prerelease channel for branch. An explicit
// PrereleaseChannel wins, otherwise the matching branch entry decides. A
// branch without an entry releases stable versions.
func (c *Config) ResolveChannel(branch string) (string, error) {
	if c.PrereleaseChannel != "" {
		return c.PrereleaseChannel, nil
	}

	if len(c.Branches) == 0 {
		return "", ErrNoBranches
	}

	for _, b := range c.Branches {
		if b.Name == branch {
			return b.PrereleaseChannel, nil
		}
	}

	return "", nil
}

// ValidateChannel checks a channel name can be used in a tag. Empty is valid.
func ValidateChannel(channel string) error {
	if channel == "" {
		return nil
	}

	if !semver.IsValidChannel(channel) {
		return fmt.Errorf("invalid prerelease channel %q: only [0-9A-Za-z-] allowed", channel)
	}

	return nil
}

// ValidateUseVersion checks an explicit version. Empty is valid.
func ValidateUseVersion(version string) error {
	if version == "" {
		return nil
	}

	if strings.HasPrefix(version, "v") {
		return fmt.Errorf("version %q must not start with \"v\"", version)
	}

	if !semver.IsValidTag("v" + version) {
		return fmt.Errorf("version %q is not a valid semantic version", version)
	}

	return nil
}
