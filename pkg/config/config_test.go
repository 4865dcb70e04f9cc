package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethpandaops/autorel/pkg/semver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	return path
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(TokenEnv, "env-token")

	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFile))
	require.NoError(t, err)

	assert.Equal(t, Default().CommitTypes, cfg.CommitTypes)
	assert.Equal(t, []Branch{{Name: "main"}}, cfg.Branches)
	assert.Equal(t, "env-token", cfg.GitHubToken)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	t.Setenv(TokenEnv, "env-token")

	path := writeConfig(t, `
breakingChangeTitle: "BREAKING"
branches:
  - name: main
  - name: next
    prereleaseChannel: next
publish: true
run: echo done
githubToken: file-token
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "BREAKING", cfg.BreakingChangeTitle)
	assert.Equal(t, DefaultCommitTypes(), cfg.CommitTypes)
	assert.Equal(t, []Branch{{Name: "main"}, {Name: "next", PrereleaseChannel: "next"}}, cfg.Branches)
	assert.True(t, cfg.Publish)
	assert.False(t, cfg.SkipRelease)
	assert.Equal(t, "echo done", cfg.Run)
	assert.Equal(t, "file-token", cfg.GitHubToken)
}

func TestLoadCommitTypes(t *testing.T) {
	path := writeConfig(t, `
commitTypes:
  - type: feat
    title: Features
    release: minor
  - type: chore
    title: Chores
    release: patch
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.CommitTypes, 2)
	assert.Equal(t, "chore", cfg.CommitTypes[1].Type)
	assert.Equal(t, semver.Patch, cfg.CommitTypes[1].Release)
	assert.Equal(t, Default().BreakingChangeTitle, cfg.BreakingChangeTitle)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "invalid yaml",
			content: "branches: [",
			wantErr: "failed to parse config file",
		},
		{
			name:    "invalid release type",
			content: "commitTypes:\n  - type: feat\n    release: huge\n",
			wantErr: "invalid release type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFile)

	cfg := Default()
	cfg.GitHubToken = "secret"
	cfg.Branches = append(cfg.Branches, Branch{Name: "beta", PrereleaseChannel: "beta"})

	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Equal(t, "secret", cfg.GitHubToken)

	t.Setenv(TokenEnv, "")

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Branches, loaded.Branches)
	assert.Equal(t, cfg.CommitTypes, loaded.CommitTypes)
	assert.Empty(t, loaded.GitHubToken)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "empty commit type",
			mutate:  func(c *Config) { c.CommitTypes[0].Type = "" },
			wantErr: "type is required",
		},
		{
			name:    "duplicate commit type",
			mutate:  func(c *Config) { c.CommitTypes[1].Type = "feat" },
			wantErr: "duplicate type",
		},
		{
			name:    "no branches",
			mutate:  func(c *Config) { c.Branches = nil },
			wantErr: "branches are not defined",
		},
		{
			name:    "bad branch channel",
			mutate:  func(c *Config) { c.Branches[0].PrereleaseChannel = "al.pha" },
			wantErr: "invalid prerelease channel",
		},
		{
			name:    "bad channel",
			mutate:  func(c *Config) { c.PrereleaseChannel = "a_b" },
			wantErr: "prereleaseChannel",
		},
		{
			name:    "channel with build number",
			mutate:  func(c *Config) { c.PrereleaseChannel = "rc.1" },
			wantErr: "invalid prerelease channel",
		},
		{
			name:    "channel with metadata",
			mutate:  func(c *Config) { c.PrereleaseChannel = "rc+meta" },
			wantErr: "invalid prerelease channel",
		},
		{
			name:    "use version with v",
			mutate:  func(c *Config) { c.UseVersion = "v1.0.0" },
			wantErr: "must not start with",
		},
		{
			name:    "use version invalid",
			mutate:  func(c *Config) { c.UseVersion = "1.0" },
			wantErr: "not a valid semantic version",
		},
		{
			name:   "use version prerelease",
			mutate: func(c *Config) { c.UseVersion = "2.0.0-rc.1" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateChannel(t *testing.T) {
	tests := []struct {
		channel string
		valid   bool
	}{
		{channel: "", valid: true},
		{channel: "beta", valid: true},
		{channel: "rc-2", valid: true},
		{channel: "rc.1", valid: false},
		{channel: "rc+meta", valid: false},
		{channel: "a_b", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			err := ValidateChannel(tt.channel)
			if tt.valid {
				assert.NoError(t, err)

				return
			}

			assert.Error(t, err)
		})
	}
}

func TestResolveChannel(t *testing.T) {
	cfg := Default()
	cfg.Branches = []Branch{
		{Name: "main"},
		{Name: "develop", PrereleaseChannel: "alpha"},
	}

	channel, err := cfg.ResolveChannel("main")
	require.NoError(t, err)
	assert.Empty(t, channel)

	channel, err = cfg.ResolveChannel("develop")
	require.NoError(t, err)
	assert.Equal(t, "alpha", channel)

	channel, err = cfg.ResolveChannel("feature/x")
	require.NoError(t, err)
	assert.Empty(t, channel)

	cfg.PrereleaseChannel = "rc"

	channel, err = cfg.ResolveChannel("feature/x")
	require.NoError(t, err)
	assert.Equal(t, "rc", channel)
}

func TestResolveChannelNoBranches(t *testing.T) {
	cfg := &Config{}

	_, err := cfg.ResolveChannel("main")
	assert.True(t, errors.Is(err, ErrNoBranches))

	cfg.PrereleaseChannel = "beta"

	channel, err := cfg.ResolveChannel("main")
	require.NoError(t, err)
	assert.Equal(t, "beta", channel)
}
