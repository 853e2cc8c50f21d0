package duplicates

import "strings"

const (
	defaultRootConstant                     = "."
	configurationRootKeyConstant            = "path"
	configurationDeleteKeyConstant          = "delete"
	configurationSkipDirectoriesKeyConstant = "skip_directories"
)

// CommandConfiguration captures configuration values for the duplicates command.
type CommandConfiguration struct {
	Root            string   `mapstructure:"path"`
	Delete          bool     `mapstructure:"delete"`
	SkipDirectories []string `mapstructure:"skip_directories"`
}

// DefaultCommandConfiguration scans the working directory without deleting anything.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Root:            defaultRootConstant,
		Delete:          false,
		SkipDirectories: []string{defaultSkippedDirectoryConstant},
	}
}

// DefaultConfigurationValues returns the defaults keyed under rootKey for the configuration loader.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationRootKeyConstant:            defaults.Root,
		rootKey + "." + configurationDeleteKeyConstant:          defaults.Delete,
		rootKey + "." + configurationSkipDirectoriesKeyConstant: defaults.SkipDirectories,
	}
}

func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Root = strings.TrimSpace(sanitized.Root)
	if len(sanitized.Root) == 0 {
		sanitized.Root = defaultRootConstant
	}
	if configuration.SkipDirectories == nil {
		sanitized.SkipDirectories = []string{defaultSkippedDirectoryConstant}
		return sanitized
	}
	sanitized.SkipDirectories = make([]string, 0, len(configuration.SkipDirectories))
	for _, directoryName := range configuration.SkipDirectories {
		trimmedName := strings.TrimSpace(directoryName)
		if len(trimmedName) > 0 {
			sanitized.SkipDirectories = append(sanitized.SkipDirectories, trimmedName)
		}
	}
	return sanitized
}
