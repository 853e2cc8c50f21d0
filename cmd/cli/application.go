package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/cleanup"
	"github.com/temirov/gitsweep/internal/duplicates"
	"github.com/temirov/gitsweep/internal/execshell"
	"github.com/temirov/gitsweep/internal/gitignore"
	"github.com/temirov/gitsweep/internal/largefiles"
	"github.com/temirov/gitsweep/internal/maintenance"
	"github.com/temirov/gitsweep/internal/refs"
	"github.com/temirov/gitsweep/internal/session"
	"github.com/temirov/gitsweep/internal/ui"
	"github.com/temirov/gitsweep/internal/utils"
)

const (
	applicationNameConstant                 = "gitsweep"
	applicationShortDescriptionConstant     = "Hygiene for a single GitHub repository"
	applicationLongDescriptionConstant      = "gitsweep deletes stale branches and tags, finds large objects and duplicate files, keeps .gitignore stocked with boilerplate patterns, and archives repositories."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	outputFlagNameConstant                  = "output"
	outputFlagUsageConstant                 = "Report format (table or yaml)."
	metricsFileFlagNameConstant             = "metrics-file"
	metricsFileFlagUsageConstant            = "Write Prometheus metrics in textfile format to this path."
	tokenFlagNameConstant                   = "token"
	tokenFlagUsageConstant                  = "GitHub token; overrides configuration and environment."
	ownerFlagNameConstant                   = "owner"
	ownerFlagUsageConstant                  = "Owner of the target repository."
	repositoryFlagNameConstant              = "repository"
	repositoryFlagUsageConstant             = "Name of the target repository."
	apiURLFlagNameConstant                  = "api-url"
	apiURLFlagUsageConstant                 = "GitHub API base URL (for GitHub Enterprise)."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonOutputConfigKeyConstant           = commonConfigurationKeyConstant + ".output"
	commonMetricsFileConfigKeyConstant      = commonConfigurationKeyConstant + ".metrics_file"
	githubConfigurationKeyConstant          = "github"
	githubTokenConfigKeyConstant            = githubConfigurationKeyConstant + ".token"
	githubTokenSourceConfigKeyConstant      = githubConfigurationKeyConstant + ".token_source"
	githubOwnerConfigKeyConstant            = githubConfigurationKeyConstant + ".owner"
	githubRepositoryConfigKeyConstant       = githubConfigurationKeyConstant + ".repository"
	githubBaseURLConfigKeyConstant          = githubConfigurationKeyConstant + ".base_url"
	defaultOutputFormatConstant             = "table"
	environmentPrefixConstant               = "GITSWEEP"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationDirectoryNameConstant      = ".gitsweep"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	executorCreationWarningMessageConstant  = "Unable to create git executor"
	rootCommandInfoMessageConstant          = "gitsweep CLI executed"
	rootCommandDebugMessageConstant         = "gitsweep CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	toolsConfigurationKeyConstant           = "tools"
	cleanupConfigurationKeyConstant         = toolsConfigurationKeyConstant + ".cleanup"
	branchesConfigurationKeyConstant        = toolsConfigurationKeyConstant + ".branches"
	tagsConfigurationKeyConstant            = toolsConfigurationKeyConstant + ".tags"
	maintenanceConfigurationKeyConstant     = toolsConfigurationKeyConstant + ".maintenance"
	largeFilesConfigurationKeyConstant      = toolsConfigurationKeyConstant + ".large_files"
	duplicatesConfigurationKeyConstant      = toolsConfigurationKeyConstant + ".duplicates"
	gitignoreConfigurationKeyConstant       = toolsConfigurationKeyConstant + ".gitignore"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	GitHub session.GitHubSettings         `mapstructure:"github"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging and reporting configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	Output      string `mapstructure:"output"`
	MetricsFile string `mapstructure:"metrics_file"`
}

// ApplicationToolsConfiguration holds per-command configuration.
type ApplicationToolsConfiguration struct {
	Cleanup     cleanup.CommandConfiguration     `mapstructure:"cleanup"`
	Branches    refs.CommandConfiguration        `mapstructure:"branches"`
	Tags        refs.CommandConfiguration        `mapstructure:"tags"`
	Maintenance maintenance.CommandConfiguration `mapstructure:"maintenance"`
	LargeFiles  largefiles.CommandConfiguration  `mapstructure:"large_files"`
	Duplicates  duplicates.CommandConfiguration  `mapstructure:"duplicates"`
	Gitignore   gitignore.CommandConfiguration   `mapstructure:"gitignore"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	outputFlagValue       string
	metricsFileFlagValue  string
	tokenFlagValue        string
	ownerFlagValue        string
	repositoryFlagValue   string
	apiURLFlagValue       string
}

type commandBuilder interface {
	Build() (*cobra.Command, error)
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		utils.DefaultSearchPaths(configurationDirectoryNameConstant),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	persistentFlags.StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	persistentFlags.StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	persistentFlags.StringVar(&application.outputFlagValue, outputFlagNameConstant, "", outputFlagUsageConstant)
	persistentFlags.StringVar(&application.metricsFileFlagValue, metricsFileFlagNameConstant, "", metricsFileFlagUsageConstant)
	persistentFlags.StringVar(&application.tokenFlagValue, tokenFlagNameConstant, "", tokenFlagUsageConstant)
	persistentFlags.StringVar(&application.ownerFlagValue, ownerFlagNameConstant, "", ownerFlagUsageConstant)
	persistentFlags.StringVar(&application.repositoryFlagValue, repositoryFlagNameConstant, "", repositoryFlagUsageConstant)
	persistentFlags.StringVar(&application.apiURLFlagValue, apiURLFlagNameConstant, "", apiURLFlagUsageConstant)

	loggerProvider := func() *zap.Logger {
		return application.logger
	}

	builders := []commandBuilder{
		&cleanup.CommandBuilder{
			LoggerProvider:   loggerProvider,
			SettingsProvider: application.sessionSettings,
			ConfigurationProvider: func() cleanup.CommandConfiguration {
				return application.configuration.Tools.Cleanup
			},
			ExecutorProvider: application.gitExecutor,
		},
		&refs.CommandBuilder{
			Kind:             refs.KindBranch,
			LoggerProvider:   loggerProvider,
			SettingsProvider: application.sessionSettings,
			ConfigurationProvider: func() refs.CommandConfiguration {
				return application.configuration.Tools.Branches
			},
		},
		&refs.CommandBuilder{
			Kind:             refs.KindTag,
			LoggerProvider:   loggerProvider,
			SettingsProvider: application.sessionSettings,
			ConfigurationProvider: func() refs.CommandConfiguration {
				return application.configuration.Tools.Tags
			},
		},
		&maintenance.ArchiveCommandBuilder{CommandDependencies: application.maintenanceDependencies(loggerProvider)},
		&maintenance.DeleteFileCommandBuilder{CommandDependencies: application.maintenanceDependencies(loggerProvider)},
		&maintenance.ClosePullRequestCommandBuilder{CommandDependencies: application.maintenanceDependencies(loggerProvider)},
		&largefiles.CommandBuilder{
			LoggerProvider:   loggerProvider,
			SettingsProvider: application.sessionSettings,
			ConfigurationProvider: func() largefiles.CommandConfiguration {
				return application.configuration.Tools.LargeFiles
			},
			ExecutorProvider: application.gitExecutor,
		},
		&duplicates.CommandBuilder{
			LoggerProvider:   loggerProvider,
			SettingsProvider: application.sessionSettings,
			ConfigurationProvider: func() duplicates.CommandConfiguration {
				return application.configuration.Tools.Duplicates
			},
		},
		&gitignore.CommandBuilder{
			LoggerProvider:   loggerProvider,
			SettingsProvider: application.sessionSettings,
			ConfigurationProvider: func() gitignore.CommandConfiguration {
				return application.configuration.Tools.Gitignore
			},
		},
	}

	for _, builder := range builders {
		subcommand, buildError := builder.Build()
		if buildError == nil {
			cobraCommand.AddCommand(subcommand)
		}
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:    string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:   string(utils.LogFormatStructured),
		commonOutputConfigKeyConstant:      defaultOutputFormatConstant,
		commonMetricsFileConfigKeyConstant: "",
		githubTokenConfigKeyConstant:       "",
		githubTokenSourceConfigKeyConstant: "",
		githubOwnerConfigKeyConstant:       "",
		githubRepositoryConfigKeyConstant:  "",
		githubBaseURLConfigKeyConstant:     "",
	}
	toolDefaults := []map[string]any{
		cleanup.DefaultConfigurationValues(cleanupConfigurationKeyConstant),
		refs.DefaultConfigurationValues(branchesConfigurationKeyConstant),
		refs.DefaultConfigurationValues(tagsConfigurationKeyConstant),
		maintenance.DefaultConfigurationValues(maintenanceConfigurationKeyConstant),
		largefiles.DefaultConfigurationValues(largeFilesConfigurationKeyConstant),
		duplicates.DefaultConfigurationValues(duplicatesConfigurationKeyConstant),
		gitignore.DefaultConfigurationValues(gitignoreConfigurationKeyConstant),
	}
	for _, toolDefault := range toolDefaults {
		for configurationKey, configurationValue := range toolDefault {
			defaultValues[configurationKey] = configurationValue
		}
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration
	application.applyFlagOverrides(command)

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) applyFlagOverrides(command *cobra.Command) {
	overrides := []struct {
		flagName string
		value    string
		target   *string
	}{
		{flagName: logLevelFlagNameConstant, value: application.logLevelFlagValue, target: &application.configuration.Common.LogLevel},
		{flagName: logFormatFlagNameConstant, value: application.logFormatFlagValue, target: &application.configuration.Common.LogFormat},
		{flagName: outputFlagNameConstant, value: application.outputFlagValue, target: &application.configuration.Common.Output},
		{flagName: metricsFileFlagNameConstant, value: application.metricsFileFlagValue, target: &application.configuration.Common.MetricsFile},
		{flagName: tokenFlagNameConstant, value: application.tokenFlagValue, target: &application.configuration.GitHub.ExplicitToken},
		{flagName: ownerFlagNameConstant, value: application.ownerFlagValue, target: &application.configuration.GitHub.Owner},
		{flagName: repositoryFlagNameConstant, value: application.repositoryFlagValue, target: &application.configuration.GitHub.Repository},
		{flagName: apiURLFlagNameConstant, value: application.apiURLFlagValue, target: &application.configuration.GitHub.BaseURL},
	}
	for _, override := range overrides {
		if application.persistentFlagChanged(command, override.flagName) {
			*override.target = override.value
		}
	}
}

func (application *Application) sessionSettings() session.Settings {
	return session.Settings{
		GitHub:       application.configuration.GitHub,
		OutputFormat: application.configuration.Common.Output,
		MetricsFile:  application.configuration.Common.MetricsFile,
	}
}

func (application *Application) maintenanceDependencies(loggerProvider func() *zap.Logger) maintenance.CommandDependencies {
	return maintenance.CommandDependencies{
		LoggerProvider:   loggerProvider,
		SettingsProvider: application.sessionSettings,
		ConfigurationProvider: func() maintenance.CommandConfiguration {
			return application.configuration.Tools.Maintenance
		},
	}
}

// gitExecutor renders git lifecycle events as readable messages when the
// console log format is active.
func (application *Application) gitExecutor() largefiles.GitExecutor {
	var observers []execshell.CommandEventObserver
	if application.humanReadableLoggingEnabled() {
		observers = append(observers, ui.NewConsoleCommandEventLogger(application.logger))
	}
	executor, executorError := execshell.NewShellExecutor(application.logger, execshell.NewOSCommandRunner(), observers...)
	if executorError != nil {
		application.logger.Warn(executorCreationWarningMessageConstant, zap.Error(executorError))
		return nil
	}
	return executor
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if len(arguments) == 0 {
		return command.Help()
	}

	return nil
}

func (application *Application) flushLogger() error {
	if syncError := application.syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return nil
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
