package refs

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/session"
)

const (
	branchesCommandUseConstant              = "branches"
	branchesCommandShortDescriptionConstant = "Delete branches whose last commit is older than the cutoff"
	branchesCommandLongDescriptionConstant  = "branches lists every branch of the repository, resolves the date of its last commit, and deletes the branches older than the cutoff."
	tagsCommandUseConstant                  = "tags"
	tagsCommandShortDescriptionConstant     = "Delete tags whose commit is older than the cutoff"
	tagsCommandLongDescriptionConstant      = "tags lists every tag of the repository, resolves the date of the tagged commit, and deletes the tags older than the cutoff."
	commandExecutionErrorTemplateConstant   = "%s cleanup failed: %w"
	sessionErrorTemplateConstant            = "unable to prepare %s cleanup: %w"
	unexpectedArgumentsTemplateConstant     = "%s does not accept positional arguments"
	flagCutoffDaysNameConstant              = "cutoff-days"
	flagCutoffDaysDescriptionConstant       = "Age in days after which a reference is considered stale"
	flagDryRunNameConstant                  = "dry-run"
	flagDryRunDescriptionConstant           = "Report stale references without deleting them"
	flagExcludeNameConstant                 = "exclude"
	flagExcludeDescriptionConstant          = "Glob pattern of reference names to keep (repeatable)"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies command configuration values.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the Cobra command for stale branch or tag cleanup.
type CommandBuilder struct {
	Kind                  Kind
	LoggerProvider        LoggerProvider
	SettingsProvider      session.Provider
	ConfigurationProvider ConfigurationProvider
	Client                ReferenceClient
	Clock                 Clock
}

// Build constructs the branches or tags command depending on Kind.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   branchesCommandUseConstant,
		Short: branchesCommandShortDescriptionConstant,
		Long:  branchesCommandLongDescriptionConstant,
		RunE:  builder.run,
	}
	switch builder.Kind {
	case KindBranch:
	case KindTag:
		command.Use = tagsCommandUseConstant
		command.Short = tagsCommandShortDescriptionConstant
		command.Long = tagsCommandLongDescriptionConstant
	default:
		return nil, fmt.Errorf(unsupportedKindTemplateConstant, builder.Kind)
	}

	command.Flags().Int(flagCutoffDaysNameConstant, DefaultCutoffDays, flagCutoffDaysDescriptionConstant)
	command.Flags().Bool(flagDryRunNameConstant, false, flagDryRunDescriptionConstant)
	command.Flags().StringSlice(flagExcludeNameConstant, nil, flagExcludeDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf(unexpectedArgumentsTemplateConstant, command.Name())
	}

	configuration := builder.resolveConfiguration(command)
	logger := builder.resolveLogger()

	sessionInstance, sessionError := session.Open(logger, builder.resolveSettings(), session.Dependencies{Output: command.OutOrStdout()})
	if sessionError != nil {
		return fmt.Errorf(sessionErrorTemplateConstant, builder.Kind, sessionError)
	}
	if repositoryError := sessionInstance.RequireRepository(); repositoryError != nil {
		return fmt.Errorf(sessionErrorTemplateConstant, builder.Kind, repositoryError)
	}

	var client ReferenceClient = sessionInstance.Client
	if builder.Client != nil {
		client = builder.Client
	}

	service, serviceError := NewService(logger, client, builder.Clock, sessionInstance.Metrics)
	if serviceError != nil {
		return serviceError
	}

	result, cleanupError := service.Cleanup(command.Context(), Options{
		Repository:      sessionInstance.Repository,
		Kind:            builder.Kind,
		CutoffDays:      configuration.CutoffDays,
		DryRun:          configuration.DryRun,
		ExcludePatterns: configuration.Exclude,
	})
	if cleanupError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, builder.Kind, cleanupError)
	}

	return sessionInstance.Finish(result.Section())
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	if command.Flags().Changed(flagCutoffDaysNameConstant) {
		configuration.CutoffDays, _ = command.Flags().GetInt(flagCutoffDaysNameConstant)
	}
	if command.Flags().Changed(flagDryRunNameConstant) {
		configuration.DryRun, _ = command.Flags().GetBool(flagDryRunNameConstant)
	}
	if command.Flags().Changed(flagExcludeNameConstant) {
		configuration.Exclude, _ = command.Flags().GetStringSlice(flagExcludeNameConstant)
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
