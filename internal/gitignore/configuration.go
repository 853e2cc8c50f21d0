package gitignore

import "strings"

const (
	defaultDirectoryConstant         = "."
	configurationPathKeyConstant     = "path"
	configurationRemoteKeyConstant   = "remote"
	configurationBranchKeyConstant   = "branch"
	configurationDryRunKeyConstant   = "dry_run"
	configurationPatternsKeyConstant = "patterns"
)

// CommandConfiguration captures configuration values for the gitignore command.
type CommandConfiguration struct {
	Directory string   `mapstructure:"path"`
	Remote    bool     `mapstructure:"remote"`
	Branch    string   `mapstructure:"branch"`
	DryRun    bool     `mapstructure:"dry_run"`
	Patterns  []string `mapstructure:"patterns"`
}

// DefaultCommandConfiguration updates the local file in the working directory with the default catalog.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Directory: defaultDirectoryConstant,
		Remote:    false,
		Branch:    "",
		DryRun:    false,
		Patterns:  append([]string{}, DefaultPatterns...),
	}
}

// DefaultConfigurationValues returns the defaults keyed under rootKey for the configuration loader.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationPathKeyConstant:     defaults.Directory,
		rootKey + "." + configurationRemoteKeyConstant:   defaults.Remote,
		rootKey + "." + configurationBranchKeyConstant:   defaults.Branch,
		rootKey + "." + configurationDryRunKeyConstant:   defaults.DryRun,
		rootKey + "." + configurationPatternsKeyConstant: defaults.Patterns,
	}
}

func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Directory = strings.TrimSpace(sanitized.Directory)
	if len(sanitized.Directory) == 0 {
		sanitized.Directory = defaultDirectoryConstant
	}
	sanitized.Branch = strings.TrimSpace(sanitized.Branch)
	if len(configuration.Patterns) == 0 {
		sanitized.Patterns = append([]string{}, DefaultPatterns...)
	}
	return sanitized
}
