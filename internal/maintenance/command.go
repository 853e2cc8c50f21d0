package maintenance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/session"
)

const (
	archiveCommandUseConstant                       = "archive"
	archiveCommandShortDescriptionConstant          = "Archive the repository"
	archiveCommandLongDescriptionConstant           = "archive marks the configured repository as archived, making it read-only on GitHub."
	deleteFileCommandUseConstant                    = "delete-file PATH..."
	deleteFileCommandShortDescriptionConstant       = "Delete files from the repository through the contents API"
	deleteFileCommandLongDescriptionConstant        = "delete-file removes each path from the target branch with one commit per file. Missing files are reported and skipped."
	closePullRequestCommandUseConstant              = "close-pr NUMBER..."
	closePullRequestCommandShortDescriptionConstant = "Close pull requests by number"
	closePullRequestCommandLongDescriptionConstant  = "close-pr closes each listed pull request. Failures are reported and skipped."
	flagDryRunNameConstant                          = "dry-run"
	flagDryRunDescriptionConstant                   = "Report the planned changes without applying them"
	flagBranchNameConstant                          = "branch"
	flagBranchDescriptionConstant                   = "Branch to commit file deletions to"
	flagMessageNameConstant                         = "message"
	flagMessageDescriptionConstant                  = "Commit message template; %s is replaced by the file path"
	unexpectedArgumentsTemplateConstant             = "%s does not accept positional arguments"
	invalidPullRequestNumberTemplateConstant        = "invalid pull request number %q"
	sessionErrorTemplateConstant                    = "unable to prepare %s: %w"
	commandExecutionErrorTemplateConstant           = "%s failed: %w"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies command configuration values.
type ConfigurationProvider func() CommandConfiguration

// CommandDependencies carries the collaborators shared by the maintenance commands.
type CommandDependencies struct {
	LoggerProvider        LoggerProvider
	SettingsProvider      session.Provider
	ConfigurationProvider ConfigurationProvider
	Client                RepositoryClient
}

// ArchiveCommandBuilder assembles the archive command.
type ArchiveCommandBuilder struct {
	CommandDependencies
}

// DeleteFileCommandBuilder assembles the delete-file command.
type DeleteFileCommandBuilder struct {
	CommandDependencies
}

// ClosePullRequestCommandBuilder assembles the close-pr command.
type ClosePullRequestCommandBuilder struct {
	CommandDependencies
}

// Build constructs the archive command.
func (builder *ArchiveCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   archiveCommandUseConstant,
		Short: archiveCommandShortDescriptionConstant,
		Long:  archiveCommandLongDescriptionConstant,
		RunE:  builder.run,
	}
	command.Flags().Bool(flagDryRunNameConstant, false, flagDryRunDescriptionConstant)
	return command, nil
}

func (builder *ArchiveCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf(unexpectedArgumentsTemplateConstant, command.Name())
	}

	configuration := builder.resolveConfiguration(command)
	service, sessionInstance, prepareError := builder.prepare(command)
	if prepareError != nil {
		return prepareError
	}

	result, archiveError := service.Archive(command.Context(), sessionInstance.Repository, configuration.DryRun)
	if finishError := sessionInstance.Finish(result.Section()); finishError != nil {
		return finishError
	}
	if archiveError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, command.Name(), archiveError)
	}
	return nil
}

// Build constructs the delete-file command.
func (builder *DeleteFileCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   deleteFileCommandUseConstant,
		Short: deleteFileCommandShortDescriptionConstant,
		Long:  deleteFileCommandLongDescriptionConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE:  builder.run,
	}
	command.Flags().Bool(flagDryRunNameConstant, false, flagDryRunDescriptionConstant)
	command.Flags().String(flagBranchNameConstant, DefaultBranch, flagBranchDescriptionConstant)
	command.Flags().String(flagMessageNameConstant, DefaultDeletionMessageTemplate, flagMessageDescriptionConstant)
	return command, nil
}

func (builder *DeleteFileCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration(command)
	service, sessionInstance, prepareError := builder.prepare(command)
	if prepareError != nil {
		return prepareError
	}

	result := service.DeleteFiles(command.Context(), sessionInstance.Repository, FileDeletionOptions{
		Paths:           arguments,
		Branch:          configuration.Branch,
		MessageTemplate: configuration.MessageTemplate,
		DryRun:          configuration.DryRun,
	})
	return sessionInstance.Finish(result.Section())
}

// Build constructs the close-pr command.
func (builder *ClosePullRequestCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   closePullRequestCommandUseConstant,
		Short: closePullRequestCommandShortDescriptionConstant,
		Long:  closePullRequestCommandLongDescriptionConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE:  builder.run,
	}
	command.Flags().Bool(flagDryRunNameConstant, false, flagDryRunDescriptionConstant)
	return command, nil
}

func (builder *ClosePullRequestCommandBuilder) run(command *cobra.Command, arguments []string) error {
	pullRequestNumbers := make([]int, 0, len(arguments))
	for _, argument := range arguments {
		pullRequestNumber, parseError := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(argument), "#"))
		if parseError != nil || pullRequestNumber <= 0 {
			return fmt.Errorf(invalidPullRequestNumberTemplateConstant, argument)
		}
		pullRequestNumbers = append(pullRequestNumbers, pullRequestNumber)
	}

	configuration := builder.resolveConfiguration(command)
	service, sessionInstance, prepareError := builder.prepare(command)
	if prepareError != nil {
		return prepareError
	}

	result := service.ClosePullRequests(command.Context(), sessionInstance.Repository, pullRequestNumbers, configuration.DryRun)
	return sessionInstance.Finish(result.Section())
}

func (dependencies CommandDependencies) prepare(command *cobra.Command) (*Service, *session.Session, error) {
	logger := dependencies.resolveLogger()

	settings := session.Settings{}
	if dependencies.SettingsProvider != nil {
		settings = dependencies.SettingsProvider()
	}

	sessionInstance, sessionError := session.Open(logger, settings, session.Dependencies{Output: command.OutOrStdout()})
	if sessionError != nil {
		return nil, nil, fmt.Errorf(sessionErrorTemplateConstant, command.Name(), sessionError)
	}
	if repositoryError := sessionInstance.RequireRepository(); repositoryError != nil {
		return nil, nil, fmt.Errorf(sessionErrorTemplateConstant, command.Name(), repositoryError)
	}

	var client RepositoryClient = sessionInstance.Client
	if dependencies.Client != nil {
		client = dependencies.Client
	}

	service, serviceError := NewService(logger, client, sessionInstance.Metrics)
	if serviceError != nil {
		return nil, nil, serviceError
	}
	return service, sessionInstance, nil
}

func (dependencies CommandDependencies) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if dependencies.ConfigurationProvider != nil {
		configuration = dependencies.ConfigurationProvider()
	}

	if command.Flags().Changed(flagDryRunNameConstant) {
		configuration.DryRun, _ = command.Flags().GetBool(flagDryRunNameConstant)
	}
	if flag := command.Flags().Lookup(flagBranchNameConstant); flag != nil && flag.Changed {
		configuration.Branch = flag.Value.String()
	}
	if flag := command.Flags().Lookup(flagMessageNameConstant); flag != nil && flag.Changed {
		configuration.MessageTemplate = flag.Value.String()
	}

	return configuration.sanitize()
}

func (dependencies CommandDependencies) resolveLogger() *zap.Logger {
	if dependencies.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := dependencies.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}
