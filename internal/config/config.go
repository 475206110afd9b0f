// Package config provides process-wide configuration for gitrelay.
package config

import (
	"fmt"
	"os"
)

// Config holds all configuration for a relay service. It is loaded once at
// startup and never mutated afterwards.
type Config struct {
	// Addr is the address the HTTP server listens on (e.g., ":5000").
	Addr string

	// APIKey is the shared secret every inbound request must present in
	// the X-Api-Key header.
	APIKey string

	// GitHubToken is the personal access token for GitHub API calls.
	GitHubToken string

	// GitLabToken is the private token for GitLab API calls.
	GitLabToken string

	// GitLabDomain is the GitLab instance to talk to (host only,
	// no scheme). Defaults to gitlab.com.
	GitLabDomain string
}

// Load creates a Config from environment variables.
func Load() *Config {
	return &Config{
		Addr:         envOr("GITRELAY_ADDR", ":5000"),
		APIKey:       os.Getenv("RHINO_API_KEY"),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		GitLabToken:  os.Getenv("GITLAB_PRIVATE_TOKEN"),
		GitLabDomain: envOr("GITLAB_DOMAIN", "gitlab.com"),
	}
}

// GitLabBaseURL returns the full base URL of the configured GitLab instance.
func (c *Config) GitLabBaseURL() string {
	return "https://" + c.GitLabDomain
}

// Validate checks the configuration every service flavor needs. A missing
// shared secret would make the auth gate reject every request, so it is a
// startup error rather than a per-request one.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("RHINO_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
