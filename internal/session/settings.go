package session

import "strings"

// GitHubSettings captures how to reach the target repository.
type GitHubSettings struct {
	ExplicitToken string `mapstructure:"-"`
	Token         string `mapstructure:"token"`
	TokenSource   string `mapstructure:"token_source"`
	Owner         string `mapstructure:"owner"`
	Repository    string `mapstructure:"repository"`
	BaseURL       string `mapstructure:"base_url"`
}

// Settings aggregates the values shared by every subcommand.
type Settings struct {
	GitHub       GitHubSettings
	OutputFormat string
	MetricsFile  string
}

// Provider supplies the settings resolved from configuration and root flags.
type Provider func() Settings

// WithRepository returns a copy whose explicit token, owner and repository
// are replaced by the non-empty values supplied.
func (settings Settings) WithRepository(token string, owner string, repository string) Settings {
	updated := settings
	if trimmed := strings.TrimSpace(token); len(trimmed) > 0 {
		updated.GitHub.ExplicitToken = trimmed
	}
	if trimmed := strings.TrimSpace(owner); len(trimmed) > 0 {
		updated.GitHub.Owner = trimmed
	}
	if trimmed := strings.TrimSpace(repository); len(trimmed) > 0 {
		updated.GitHub.Repository = trimmed
	}
	return updated
}
