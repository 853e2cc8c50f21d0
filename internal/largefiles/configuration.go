package largefiles

import "strings"

const (
	defaultRepositoryPathConstant          = "."
	defaultSizeThresholdConstant           = "5"
	configurationRepositoryPathKeyConstant = "path"
	configurationSizeThresholdKeyConstant  = "size_threshold"
)

// CommandConfiguration captures configuration values for the large-files command.
type CommandConfiguration struct {
	RepositoryPath string `mapstructure:"path"`
	SizeThreshold  string `mapstructure:"size_threshold"`
}

// DefaultCommandConfiguration scans the working directory with a five mebibyte threshold.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryPath: defaultRepositoryPathConstant,
		SizeThreshold:  defaultSizeThresholdConstant,
	}
}

// DefaultConfigurationValues returns the defaults keyed under rootKey for the configuration loader.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationRepositoryPathKeyConstant: defaults.RepositoryPath,
		rootKey + "." + configurationSizeThresholdKeyConstant:  defaults.SizeThreshold,
	}
}

func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.RepositoryPath = strings.TrimSpace(sanitized.RepositoryPath)
	if len(sanitized.RepositoryPath) == 0 {
		sanitized.RepositoryPath = defaultRepositoryPathConstant
	}
	sanitized.SizeThreshold = strings.TrimSpace(sanitized.SizeThreshold)
	if len(sanitized.SizeThreshold) == 0 {
		sanitized.SizeThreshold = defaultSizeThresholdConstant
	}
	return sanitized
}
