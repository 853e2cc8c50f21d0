package largefiles

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/execshell"
	"github.com/temirov/gitsweep/internal/session"
	"github.com/temirov/gitsweep/internal/utils"
)

const (
	commandUseConstant                   = "large-files"
	commandShortDescriptionConstant      = "Report blobs in history larger than a threshold"
	commandLongDescriptionConstant       = "large-files enumerates every object reachable from any ref of a local clone and reports the blobs larger than the size threshold, largest first."
	flagPathNameConstant                 = "path"
	flagPathDescriptionConstant          = "Path to the local clone"
	flagSizeThresholdNameConstant        = "size-threshold"
	flagSizeThresholdDescriptionConstant = "Size threshold; a plain number is read as MiB (e.g. 5, 512KB, 10MiB)"
	unexpectedArgumentsTemplateConstant  = "%s does not accept positional arguments"
	sessionErrorTemplateConstant         = "unable to prepare large file scan: %w"
	executorErrorTemplateConstant        = "unable to prepare git executor: %w"
	scanErrorTemplateConstant            = "large file scan failed: %w"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies command configuration values.
type ConfigurationProvider func() CommandConfiguration

// ExecutorProvider supplies the git executor used by the scan.
type ExecutorProvider func() GitExecutor

// CommandBuilder assembles the large-files command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	SettingsProvider      session.Provider
	ConfigurationProvider ConfigurationProvider
	ExecutorProvider      ExecutorProvider
}

// Build constructs the large-files command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}
	command.Flags().String(flagPathNameConstant, defaultRepositoryPathConstant, flagPathDescriptionConstant)
	command.Flags().String(flagSizeThresholdNameConstant, defaultSizeThresholdConstant, flagSizeThresholdDescriptionConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf(unexpectedArgumentsTemplateConstant, command.Name())
	}

	configuration := builder.resolveConfiguration(command)
	thresholdBytes, thresholdError := ParseThreshold(configuration.SizeThreshold)
	if thresholdError != nil {
		return thresholdError
	}

	logger := builder.resolveLogger()
	sessionInstance, sessionError := session.OpenLocal(logger, builder.resolveSettings(), session.Dependencies{Output: command.OutOrStdout()})
	if sessionError != nil {
		return fmt.Errorf(sessionErrorTemplateConstant, sessionError)
	}

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return fmt.Errorf(executorErrorTemplateConstant, executorError)
	}
	scanner, scannerError := NewScanner(logger, executor)
	if scannerError != nil {
		return scannerError
	}

	repositoryPath := utils.ExpandHomeDirectory(configuration.RepositoryPath)
	largeFiles, scanError := scanner.Scan(command.Context(), Options{RepositoryPath: repositoryPath, ThresholdBytes: thresholdBytes})
	if scanError != nil {
		return fmt.Errorf(scanErrorTemplateConstant, scanError)
	}

	result := Result{RepositoryPath: repositoryPath, ThresholdBytes: thresholdBytes, Files: largeFiles}
	sessionInstance.Metrics.LargeFilesFound(len(largeFiles), result.TotalBytes())
	return sessionInstance.Finish(result.Section())
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	if command.Flags().Changed(flagPathNameConstant) {
		configuration.RepositoryPath, _ = command.Flags().GetString(flagPathNameConstant)
	}
	if command.Flags().Changed(flagSizeThresholdNameConstant) {
		configuration.SizeThreshold, _ = command.Flags().GetString(flagSizeThresholdNameConstant)
	}

	return configuration.sanitize()
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (GitExecutor, error) {
	if builder.ExecutorProvider != nil {
		if executor := builder.ExecutorProvider(); executor != nil {
			return executor, nil
		}
	}
	return execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
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
