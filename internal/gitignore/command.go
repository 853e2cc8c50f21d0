package gitignore

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/session"
	"github.com/temirov/gitsweep/internal/utils"
)

const (
	commandUseConstant                  = "gitignore"
	commandShortDescriptionConstant     = "Append boilerplate ignore patterns to .gitignore"
	commandLongDescriptionConstant      = "gitignore appends the missing boilerplate patterns to the .gitignore of a local directory, or with --remote to the repository's .gitignore through the contents API."
	flagPathNameConstant                = "path"
	flagPathDescriptionConstant         = "Directory containing the local .gitignore"
	flagRemoteNameConstant              = "remote"
	flagRemoteDescriptionConstant       = "Update the repository's .gitignore on GitHub instead of the local file"
	flagBranchNameConstant              = "branch"
	flagBranchDescriptionConstant       = "Branch to read and commit the remote .gitignore on (default branch when empty)"
	flagDryRunNameConstant              = "dry-run"
	flagDryRunDescriptionConstant       = "Report the patterns that would be added without writing"
	unexpectedArgumentsTemplateConstant = "%s does not accept positional arguments"
	sessionErrorTemplateConstant        = "unable to prepare .gitignore update: %w"
	updateErrorTemplateConstant         = ".gitignore update failed: %w"
	updateLocalOperationConstant        = "update_local_gitignore"
	updateRemoteOperationConstant       = "update_remote_gitignore"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies command configuration values.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the gitignore command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	SettingsProvider      session.Provider
	ConfigurationProvider ConfigurationProvider
	Filesystem            afero.Fs
	Client                RemoteClient
}

// Build constructs the gitignore command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}
	command.Flags().String(flagPathNameConstant, defaultDirectoryConstant, flagPathDescriptionConstant)
	command.Flags().Bool(flagRemoteNameConstant, false, flagRemoteDescriptionConstant)
	command.Flags().String(flagBranchNameConstant, "", flagBranchDescriptionConstant)
	command.Flags().Bool(flagDryRunNameConstant, false, flagDryRunDescriptionConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf(unexpectedArgumentsTemplateConstant, command.Name())
	}

	configuration := builder.resolveConfiguration(command)
	if configuration.Remote {
		return builder.runRemote(command, configuration)
	}
	return builder.runLocal(command, configuration)
}

func (builder *CommandBuilder) runLocal(command *cobra.Command, configuration CommandConfiguration) error {
	logger := builder.resolveLogger()
	sessionInstance, sessionError := session.OpenLocal(logger, builder.resolveSettings(), session.Dependencies{Output: command.OutOrStdout()})
	if sessionError != nil {
		return fmt.Errorf(sessionErrorTemplateConstant, sessionError)
	}

	filesystem := builder.Filesystem
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}
	updater, updaterError := NewLocalUpdater(logger, filesystem)
	if updaterError != nil {
		return updaterError
	}

	result, updateError := updater.Update(utils.ExpandHomeDirectory(configuration.Directory), configuration.Patterns, configuration.DryRun)
	return finish(sessionInstance, result, updateError, updateLocalOperationConstant)
}

func (builder *CommandBuilder) runRemote(command *cobra.Command, configuration CommandConfiguration) error {
	logger := builder.resolveLogger()
	sessionInstance, sessionError := session.Open(logger, builder.resolveSettings(), session.Dependencies{Output: command.OutOrStdout()})
	if sessionError != nil {
		return fmt.Errorf(sessionErrorTemplateConstant, sessionError)
	}
	if repositoryError := sessionInstance.RequireRepository(); repositoryError != nil {
		return fmt.Errorf(sessionErrorTemplateConstant, repositoryError)
	}

	var client RemoteClient = sessionInstance.Client
	if builder.Client != nil {
		client = builder.Client
	}
	updater, updaterError := NewRemoteUpdater(logger, client)
	if updaterError != nil {
		return updaterError
	}

	result, updateError := updater.Update(command.Context(), sessionInstance.Repository, configuration.Branch, configuration.Patterns, configuration.DryRun)
	return finish(sessionInstance, result, updateError, updateRemoteOperationConstant)
}

// finish reports the update, including a failed one, before returning its error.
func finish(sessionInstance *session.Session, result Result, updateError error, operation string) error {
	if updateError != nil {
		sessionInstance.Metrics.OperationFailed(operation)
		result.Error = updateError.Error()
	} else if !result.DryRun {
		sessionInstance.Metrics.GitignorePatternsAdded(len(result.Added))
	}

	if finishError := sessionInstance.Finish(result.Section()); finishError != nil {
		return finishError
	}
	if updateError != nil {
		return fmt.Errorf(updateErrorTemplateConstant, updateError)
	}
	return nil
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	if command.Flags().Changed(flagPathNameConstant) {
		configuration.Directory, _ = command.Flags().GetString(flagPathNameConstant)
	}
	if command.Flags().Changed(flagRemoteNameConstant) {
		configuration.Remote, _ = command.Flags().GetBool(flagRemoteNameConstant)
	}
	if command.Flags().Changed(flagBranchNameConstant) {
		configuration.Branch, _ = command.Flags().GetString(flagBranchNameConstant)
	}
	if command.Flags().Changed(flagDryRunNameConstant) {
		configuration.DryRun, _ = command.Flags().GetBool(flagDryRunNameConstant)
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
