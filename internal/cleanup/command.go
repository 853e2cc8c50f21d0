package cleanup

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/gitrepo"
	"github.com/temirov/gitsweep/internal/largefiles"
	"github.com/temirov/gitsweep/internal/refs"
	"github.com/temirov/gitsweep/internal/session"
	"github.com/temirov/gitsweep/internal/utils"
)

const (
	commandUseConstant                        = "cleanup [token] [owner] [repository]"
	commandShortDescriptionConstant           = "Run the full repository hygiene sequence"
	commandLongDescriptionConstant            = "cleanup deletes stale branches and tags, scans a local clone for large objects and duplicate files, appends boilerplate .gitignore patterns, and optionally archives the repository. Every step runs even when an earlier one fails."
	commandExampleConstant                    = "gitsweep cleanup \"$GITHUB_TOKEN\" octocat hello-world --path ./hello-world --dry-run"
	flagPathNameConstant                      = "path"
	flagPathDescriptionConstant               = "Path to a local clone for the large file, duplicate and .gitignore steps"
	flagDeleteDuplicatesNameConstant          = "delete-duplicates"
	flagDeleteDuplicatesDescriptionConstant   = "Delete duplicate files found under --path"
	flagSizeThresholdNameConstant             = "size-threshold"
	flagSizeThresholdDescriptionConstant      = "Large file threshold; a plain number is read as MiB"
	flagCutoffDaysNameConstant                = "cutoff-days"
	flagCutoffDaysDescriptionConstant         = "Age in days after which branches and tags are stale"
	flagDryRunNameConstant                    = "dry-run"
	flagDryRunDescriptionConstant             = "Report what would change without modifying anything"
	flagArchiveNameConstant                   = "archive"
	flagArchiveDescriptionConstant            = "Archive the repository as the last step"
	flagRemoteGitignoreNameConstant           = "remote-gitignore"
	flagRemoteGitignoreDescriptionConstant    = "Also update the repository's .gitignore through the API"
	flagExcludeNameConstant                   = "exclude"
	flagExcludeDescriptionConstant            = "Glob pattern of branch or tag names to keep (repeatable)"
	sessionErrorTemplateConstant              = "unable to prepare cleanup: %w"
	runnerErrorTemplateConstant               = "unable to prepare cleanup steps: %w"
	sequenceErrorTemplateConstant             = "cleanup finished with failures: %w"
	tokenArgumentIndexConstant                = 0
	ownerArgumentIndexConstant                = 1
	repositoryArgumentIndexConstant           = 2
	maximumArgumentsConstant                  = 3
	repositoryInferenceWarningMessageConstant = "Unable to infer repository from local clone"
	localPathLogFieldConstant                 = "path"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies command configuration values.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the cleanup command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	SettingsProvider      session.Provider
	ConfigurationProvider ConfigurationProvider
	ExecutorProvider      largefiles.ExecutorProvider
	Client                Client
	Filesystem            afero.Fs
	Clock                 refs.Clock
}

// Build constructs the cleanup command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    cobra.MaximumNArgs(maximumArgumentsConstant),
		RunE:    builder.run,
	}

	command.Flags().String(flagPathNameConstant, "", flagPathDescriptionConstant)
	command.Flags().Bool(flagDeleteDuplicatesNameConstant, false, flagDeleteDuplicatesDescriptionConstant)
	command.Flags().String(flagSizeThresholdNameConstant, defaultSizeThresholdConstant, flagSizeThresholdDescriptionConstant)
	command.Flags().Int(flagCutoffDaysNameConstant, refs.DefaultCutoffDays, flagCutoffDaysDescriptionConstant)
	command.Flags().Bool(flagDryRunNameConstant, false, flagDryRunDescriptionConstant)
	command.Flags().Bool(flagArchiveNameConstant, false, flagArchiveDescriptionConstant)
	command.Flags().Bool(flagRemoteGitignoreNameConstant, false, flagRemoteGitignoreDescriptionConstant)
	command.Flags().StringSlice(flagExcludeNameConstant, nil, flagExcludeDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration(command)
	thresholdBytes, thresholdError := configuration.thresholdBytes()
	if thresholdError != nil {
		return thresholdError
	}

	logger := builder.resolveLogger()
	settings := builder.resolveSettings().WithRepository(
		argumentAt(arguments, tokenArgumentIndexConstant),
		argumentAt(arguments, ownerArgumentIndexConstant),
		argumentAt(arguments, repositoryArgumentIndexConstant),
	)

	localPath := configuration.LocalPath
	if len(localPath) > 0 {
		localPath = utils.ExpandHomeDirectory(localPath)
	}
	var gitExecutor largefiles.GitExecutor
	if builder.ExecutorProvider != nil {
		gitExecutor = builder.ExecutorProvider()
	}
	settings = builder.inferRepository(command.Context(), logger, settings, localPath, gitExecutor)

	sessionInstance, sessionError := session.Open(logger, settings, session.Dependencies{Output: command.OutOrStdout()})
	if sessionError != nil {
		return fmt.Errorf(sessionErrorTemplateConstant, sessionError)
	}
	if repositoryError := sessionInstance.RequireRepository(); repositoryError != nil {
		return fmt.Errorf(sessionErrorTemplateConstant, repositoryError)
	}

	var client Client = sessionInstance.Client
	if builder.Client != nil {
		client = builder.Client
	}
	runner, runnerError := NewRunner(logger, Dependencies{
		Client:      client,
		GitExecutor: gitExecutor,
		Filesystem:  builder.Filesystem,
		Metrics:     sessionInstance.Metrics,
		Clock:       builder.Clock,
	})
	if runnerError != nil {
		return fmt.Errorf(runnerErrorTemplateConstant, runnerError)
	}

	cleanupReport, sequenceError := runner.Run(command.Context(), Options{
		Repository:         sessionInstance.Repository,
		CutoffDays:         configuration.CutoffDays,
		ExcludePatterns:    configuration.Exclude,
		DryRun:             configuration.DryRun,
		LocalPath:          localPath,
		SizeThresholdBytes: thresholdBytes,
		DeleteDuplicates:   configuration.DeleteDuplicates,
		SkipDirectories:    configuration.SkipDirectories,
		GitignorePatterns:  configuration.Patterns,
		RemoteGitignore:    configuration.RemoteGitignore,
		GitignoreBranch:    configuration.GitignoreBranch,
		Archive:            configuration.Archive,
	})

	var commandError error
	if sequenceError != nil {
		commandError = fmt.Errorf(sequenceErrorTemplateConstant, sequenceError)
	}
	return multierr.Append(commandError, sessionInstance.Finish(cleanupReport.Sections...))
}

// inferRepository fills a missing owner or repository name from the origin
// remote of the local clone.
func (builder *CommandBuilder) inferRepository(executionContext context.Context, logger *zap.Logger, settings session.Settings, localPath string, gitExecutor largefiles.GitExecutor) session.Settings {
	if len(localPath) == 0 || gitExecutor == nil {
		return settings
	}
	if len(settings.GitHub.Owner) > 0 && len(settings.GitHub.Repository) > 0 {
		return settings
	}

	resolver, resolverError := gitrepo.NewOriginResolver(logger, gitExecutor)
	if resolverError != nil {
		return settings
	}
	remote, resolveError := resolver.Resolve(executionContext, localPath)
	if resolveError != nil {
		logger.Warn(repositoryInferenceWarningMessageConstant, zap.String(localPathLogFieldConstant, localPath), zap.Error(resolveError))
		return settings
	}

	inferred := remote.Reference()
	updated := settings
	if len(updated.GitHub.Owner) == 0 {
		updated.GitHub.Owner = inferred.Owner
	}
	if len(updated.GitHub.Repository) == 0 {
		updated.GitHub.Repository = inferred.Name
	}
	return updated
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flags := command.Flags()
	if flags.Changed(flagPathNameConstant) {
		configuration.LocalPath, _ = flags.GetString(flagPathNameConstant)
	}
	if flags.Changed(flagDeleteDuplicatesNameConstant) {
		configuration.DeleteDuplicates, _ = flags.GetBool(flagDeleteDuplicatesNameConstant)
	}
	if flags.Changed(flagSizeThresholdNameConstant) {
		configuration.SizeThreshold, _ = flags.GetString(flagSizeThresholdNameConstant)
	}
	if flags.Changed(flagCutoffDaysNameConstant) {
		configuration.CutoffDays, _ = flags.GetInt(flagCutoffDaysNameConstant)
	}
	if flags.Changed(flagDryRunNameConstant) {
		configuration.DryRun, _ = flags.GetBool(flagDryRunNameConstant)
	}
	if flags.Changed(flagArchiveNameConstant) {
		configuration.Archive, _ = flags.GetBool(flagArchiveNameConstant)
	}
	if flags.Changed(flagRemoteGitignoreNameConstant) {
		configuration.RemoteGitignore, _ = flags.GetBool(flagRemoteGitignoreNameConstant)
	}
	if flags.Changed(flagExcludeNameConstant) {
		configuration.Exclude, _ = flags.GetStringSlice(flagExcludeNameConstant)
	}

	return configuration.sanitize()
}

func (builder *CommandBuilder) resolveSettings() session.Settings {
	if builder.SettingsProvider == nil {
		return session.Settings{}
	}
	return builder.SettingsProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func argumentAt(arguments []string, index int) string {
	if index < len(arguments) {
		return arguments[index]
	}
	return ""
}
