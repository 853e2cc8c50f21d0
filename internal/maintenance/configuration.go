package maintenance

import "strings"

const (
	configurationBranchKeyConstant          = "branch"
	configurationMessageTemplateKeyConstant = "message_template"
	configurationDryRunKeyConstant          = "dry_run"
)

// CommandConfiguration captures configuration values for the archive, delete-file and close-pr commands.
type CommandConfiguration struct {
	Branch          string `mapstructure:"branch"`
	MessageTemplate string `mapstructure:"message_template"`
	DryRun          bool   `mapstructure:"dry_run"`
}

// DefaultCommandConfiguration provides baseline configuration values for remote maintenance.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Branch:          DefaultBranch,
		MessageTemplate: DefaultDeletionMessageTemplate,
		DryRun:          false,
	}
}

// DefaultConfigurationValues returns the defaults keyed under rootKey for the configuration loader.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationBranchKeyConstant:          defaults.Branch,
		rootKey + "." + configurationMessageTemplateKeyConstant: defaults.MessageTemplate,
		rootKey + "." + configurationDryRunKeyConstant:          defaults.DryRun,
	}
}

func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Branch = strings.TrimSpace(configuration.Branch)
	if len(sanitized.Branch) == 0 {
		sanitized.Branch = DefaultBranch
	}
	if !strings.Contains(configuration.MessageTemplate, pathPlaceholderConstant) {
		sanitized.MessageTemplate = DefaultDeletionMessageTemplate
	}
	return sanitized
}
