package cleanup

import (
	"strings"

	"github.com/temirov/gitsweep/internal/gitignore"
	"github.com/temirov/gitsweep/internal/largefiles"
	"github.com/temirov/gitsweep/internal/refs"
)

const (
	defaultSizeThresholdConstant             = "5"
	defaultSkippedDirectoryConstant          = ".git"
	configurationPathKeyConstant             = "path"
	configurationDeleteDuplicatesKeyConstant = "delete_duplicates"
	configurationSizeThresholdKeyConstant    = "size_threshold"
	configurationCutoffDaysKeyConstant       = "cutoff_days"
	configurationDryRunKeyConstant           = "dry_run"
	configurationArchiveKeyConstant          = "archive"
	configurationRemoteGitignoreKeyConstant  = "remote_gitignore"
	configurationGitignoreBranchKeyConstant  = "gitignore_branch"
	configurationExcludeKeyConstant          = "exclude"
	configurationSkipDirectoriesKeyConstant  = "skip_directories"
	configurationPatternsKeyConstant         = "patterns"
)

// CommandConfiguration captures configuration values for the cleanup command.
type CommandConfiguration struct {
	LocalPath        string   `mapstructure:"path"`
	DeleteDuplicates bool     `mapstructure:"delete_duplicates"`
	SizeThreshold    string   `mapstructure:"size_threshold"`
	CutoffDays       int      `mapstructure:"cutoff_days"`
	DryRun           bool     `mapstructure:"dry_run"`
	Archive          bool     `mapstructure:"archive"`
	RemoteGitignore  bool     `mapstructure:"remote_gitignore"`
	GitignoreBranch  string   `mapstructure:"gitignore_branch"`
	Exclude          []string `mapstructure:"exclude"`
	SkipDirectories  []string `mapstructure:"skip_directories"`
	Patterns         []string `mapstructure:"patterns"`
}

// DefaultCommandConfiguration runs only the remote reference steps.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		LocalPath:        "",
		DeleteDuplicates: false,
		SizeThreshold:    defaultSizeThresholdConstant,
		CutoffDays:       refs.DefaultCutoffDays,
		DryRun:           false,
		Archive:          false,
		RemoteGitignore:  false,
		GitignoreBranch:  "",
		Exclude:          nil,
		SkipDirectories:  []string{defaultSkippedDirectoryConstant},
		Patterns:         append([]string{}, gitignore.DefaultPatterns...),
	}
}

// DefaultConfigurationValues returns the defaults keyed under rootKey for the configuration loader.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationPathKeyConstant:             defaults.LocalPath,
		rootKey + "." + configurationDeleteDuplicatesKeyConstant: defaults.DeleteDuplicates,
		rootKey + "." + configurationSizeThresholdKeyConstant:    defaults.SizeThreshold,
		rootKey + "." + configurationCutoffDaysKeyConstant:       defaults.CutoffDays,
		rootKey + "." + configurationDryRunKeyConstant:           defaults.DryRun,
		rootKey + "." + configurationArchiveKeyConstant:          defaults.Archive,
		rootKey + "." + configurationRemoteGitignoreKeyConstant:  defaults.RemoteGitignore,
		rootKey + "." + configurationGitignoreBranchKeyConstant:  defaults.GitignoreBranch,
		rootKey + "." + configurationExcludeKeyConstant:          []string{},
		rootKey + "." + configurationSkipDirectoriesKeyConstant:  defaults.SkipDirectories,
		rootKey + "." + configurationPatternsKeyConstant:         defaults.Patterns,
	}
}

func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.LocalPath = strings.TrimSpace(sanitized.LocalPath)
	sanitized.SizeThreshold = strings.TrimSpace(sanitized.SizeThreshold)
	if len(sanitized.SizeThreshold) == 0 {
		sanitized.SizeThreshold = defaultSizeThresholdConstant
	}
	if sanitized.CutoffDays <= 0 {
		sanitized.CutoffDays = refs.DefaultCutoffDays
	}
	sanitized.GitignoreBranch = strings.TrimSpace(sanitized.GitignoreBranch)
	if configuration.SkipDirectories == nil {
		sanitized.SkipDirectories = []string{defaultSkippedDirectoryConstant}
	}
	if len(configuration.Patterns) == 0 {
		sanitized.Patterns = append([]string{}, gitignore.DefaultPatterns...)
	}
	return sanitized
}

func (configuration CommandConfiguration) thresholdBytes() (int64, error) {
	return largefiles.ParseThreshold(configuration.SizeThreshold)
}
