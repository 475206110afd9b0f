package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GITRELAY_ADDR",
		"RHINO_API_KEY",
		"GITHUB_TOKEN",
		"GITLAB_PRIVATE_TOKEN",
		"GITLAB_DOMAIN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, ":5000", cfg.Addr)
	assert.Equal(t, "gitlab.com", cfg.GitLabDomain)
	assert.Empty(t, cfg.APIKey)
	assert.Empty(t, cfg.GitHubToken)
	assert.Empty(t, cfg.GitLabToken)
}

func TestLoad_from_environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITRELAY_ADDR", ":8080")
	t.Setenv("RHINO_API_KEY", "sekret")
	t.Setenv("GITHUB_TOKEN", "gh-tok")
	t.Setenv("GITLAB_PRIVATE_TOKEN", "gl-tok")
	t.Setenv("GITLAB_DOMAIN", "gitlab.example.com")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "sekret", cfg.APIKey)
	assert.Equal(t, "gh-tok", cfg.GitHubToken)
	assert.Equal(t, "gl-tok", cfg.GitLabToken)
	assert.Equal(t, "gitlab.example.com", cfg.GitLabDomain)
}

func TestGitLabBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITLAB_DOMAIN", "gitlab.example.com")

	cfg := Load()

	assert.Equal(t, "https://gitlab.example.com", cfg.GitLabBaseURL())
}

func TestValidate_requires_api_key(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RHINO_API_KEY")

	cfg.APIKey = "sekret"
	assert.NoError(t, cfg.Validate())
}
