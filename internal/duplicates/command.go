package duplicates

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/session"
	"github.com/temirov/gitsweep/internal/utils"
)

const (
	commandUseConstant                  = "duplicates"
	commandShortDescriptionConstant     = "Find files with identical content"
	commandLongDescriptionConstant      = "duplicates walks a local directory, groups files by content hash, and reports every copy after the first. With --delete the copies are removed."
	flagPathNameConstant                = "path"
	flagPathDescriptionConstant         = "Directory to scan"
	flagDeleteNameConstant              = "delete"
	flagDeleteDescriptionConstant       = "Delete duplicate files, keeping the first copy in walk order"
	unexpectedArgumentsTemplateConstant = "%s does not accept positional arguments"
	sessionErrorTemplateConstant        = "unable to prepare duplicate scan: %w"
	scanErrorTemplateConstant           = "duplicate scan failed: %w"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies command configuration values.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the duplicates command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	SettingsProvider      session.Provider
	ConfigurationProvider ConfigurationProvider
	Filesystem            afero.Fs
}

// Build constructs the duplicates command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}
	command.Flags().String(flagPathNameConstant, defaultRootConstant, flagPathDescriptionConstant)
	command.Flags().Bool(flagDeleteNameConstant, false, flagDeleteDescriptionConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf(unexpectedArgumentsTemplateConstant, command.Name())
	}

	configuration := builder.resolveConfiguration(command)
	logger := builder.resolveLogger()

	sessionInstance, sessionError := session.OpenLocal(logger, builder.resolveSettings(), session.Dependencies{Output: command.OutOrStdout()})
	if sessionError != nil {
		return fmt.Errorf(sessionErrorTemplateConstant, sessionError)
	}

	filesystem := builder.Filesystem
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}
	finder, finderError := NewFinder(logger, filesystem)
	if finderError != nil {
		return finderError
	}

	result, findError := finder.Find(command.Context(), Options{
		Root:            utils.ExpandHomeDirectory(configuration.Root),
		Delete:          configuration.Delete,
		SkipDirectories: configuration.SkipDirectories,
	})
	if findError != nil {
		return fmt.Errorf(scanErrorTemplateConstant, findError)
	}

	sessionInstance.Metrics.DuplicatesFound(len(result.Duplicates), result.DeletedCount())
	return sessionInstance.Finish(result.Section())
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	if command.Flags().Changed(flagPathNameConstant) {
		configuration.Root, _ = command.Flags().GetString(flagPathNameConstant)
	}
	if command.Flags().Changed(flagDeleteNameConstant) {
		configuration.Delete, _ = command.Flags().GetBool(flagDeleteNameConstant)
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
