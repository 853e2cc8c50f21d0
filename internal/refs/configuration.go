package refs

import "strings"

const (
	configurationCutoffDaysKeyConstant = "cutoff_days"
	configurationDryRunKeyConstant     = "dry_run"
	configurationExcludeKeyConstant    = "exclude"
)

// CommandConfiguration captures configuration values for the branches and tags commands.
type CommandConfiguration struct {
	CutoffDays int      `mapstructure:"cutoff_days"`
	DryRun     bool     `mapstructure:"dry_run"`
	Exclude    []string `mapstructure:"exclude"`
}

// DefaultCommandConfiguration provides baseline configuration values for stale reference cleanup.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		CutoffDays: DefaultCutoffDays,
		DryRun:     false,
		Exclude:    nil,
	}
}

// DefaultConfigurationValues returns the defaults keyed under rootKey for the configuration loader.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationCutoffDaysKeyConstant: defaults.CutoffDays,
		rootKey + "." + configurationDryRunKeyConstant:     defaults.DryRun,
		rootKey + "." + configurationExcludeKeyConstant:    []string{},
	}
}

func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	if sanitized.CutoffDays <= 0 {
		sanitized.CutoffDays = DefaultCutoffDays
	}
	sanitized.Exclude = make([]string, 0, len(configuration.Exclude))
	for _, pattern := range configuration.Exclude {
		trimmedPattern := strings.TrimSpace(pattern)
		if len(trimmedPattern) == 0 {
			continue
		}
		sanitized.Exclude = append(sanitized.Exclude, trimmedPattern)
	}
	return sanitized
}
