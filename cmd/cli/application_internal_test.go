package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testConfigurationContentConstant  = "common:\n  log_level: error\n  output: yaml\ngithub:\n  owner: configured-owner\n  repository: configured-repository\ntools:\n  branches:\n    cutoff_days: 30\n    exclude:\n      - release/*\n"
)

func writeConfigurationFile(testInstance *testing.T, content string) string {
	testInstance.Helper()
	configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(content), 0o600))
	return configurationPath
}

func TestApplicationRegistersCommands(testInstance *testing.T) {
	application := NewApplication()

	registered := map[string]bool{}
	for _, subcommand := range application.rootCommand.Commands() {
		registered[subcommand.Name()] = true
	}
	for _, expectedName := range []string{"cleanup", "branches", "tags", "archive", "delete-file", "close-pr", "large-files", "duplicates", "gitignore"} {
		require.True(testInstance, registered[expectedName], expectedName)
	}

	for _, flagName := range []string{"config", "log-level", "log-format", "output", "metrics-file", "token", "owner", "repository", "api-url"} {
		require.NotNil(testInstance, application.rootCommand.PersistentFlags().Lookup(flagName), flagName)
	}
}

func TestInitializeConfigurationUsesEmbeddedDefaults(testInstance *testing.T) {
	application := NewApplication()
	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(configFileFlagNameConstant, writeConfigurationFile(testInstance, "common:\n  log_level: info\n")))

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	configuration := application.configuration
	require.Equal(testInstance, "structured", configuration.Common.LogFormat)
	require.Equal(testInstance, "table", configuration.Common.Output)
	require.Equal(testInstance, 180, configuration.Tools.Cleanup.CutoffDays)
	require.Equal(testInstance, "5", configuration.Tools.Cleanup.SizeThreshold)
	require.Equal(testInstance, []string{".git"}, configuration.Tools.Duplicates.SkipDirectories)
	require.Equal(testInstance, "main", configuration.Tools.Maintenance.Branch)
	require.Equal(testInstance, "Removing obsolete file %s", configuration.Tools.Maintenance.MessageTemplate)
	require.Equal(testInstance, ".", configuration.Tools.LargeFiles.RepositoryPath)
	require.NotEmpty(testInstance, configuration.Tools.Gitignore.Patterns)
}

func TestInitializeConfigurationAppliesFileAndFlags(testInstance *testing.T) {
	application := NewApplication()
	persistentFlags := application.rootCommand.PersistentFlags()
	require.NoError(testInstance, persistentFlags.Set(configFileFlagNameConstant, writeConfigurationFile(testInstance, testConfigurationContentConstant)))
	require.NoError(testInstance, persistentFlags.Set(repositoryFlagNameConstant, "flag-repository"))
	require.NoError(testInstance, persistentFlags.Set(tokenFlagNameConstant, "flag-token"))
	require.NoError(testInstance, persistentFlags.Set(apiURLFlagNameConstant, "https://github.example.com/api/v3/"))

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	require.Equal(testInstance, "error", application.configuration.Common.LogLevel)
	require.Equal(testInstance, 30, application.configuration.Tools.Branches.CutoffDays)
	require.Equal(testInstance, []string{"release/*"}, application.configuration.Tools.Branches.Exclude)
	require.Equal(testInstance, 180, application.configuration.Tools.Tags.CutoffDays)

	settings := application.sessionSettings()
	require.Equal(testInstance, "yaml", settings.OutputFormat)
	require.Equal(testInstance, "configured-owner", settings.GitHub.Owner)
	require.Equal(testInstance, "flag-repository", settings.GitHub.Repository)
	require.Equal(testInstance, "flag-token", settings.GitHub.ExplicitToken)
	require.Empty(testInstance, settings.GitHub.Token)
	require.Equal(testInstance, "https://github.example.com/api/v3/", settings.GitHub.BaseURL)
}

func TestInitializeConfigurationReadsEnvironment(testInstance *testing.T) {
	testInstance.Setenv("GITSWEEP_GITHUB_OWNER", "environment-owner")
	testInstance.Setenv("GITSWEEP_COMMON_LOG_FORMAT", "console")

	application := NewApplication()
	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(configFileFlagNameConstant, writeConfigurationFile(testInstance, testConfigurationContentConstant)))
	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	require.Equal(testInstance, "environment-owner", application.configuration.GitHub.Owner)
	require.True(testInstance, application.humanReadableLoggingEnabled())
	require.NotNil(testInstance, application.gitExecutor())
}

func TestInitializeConfigurationRejectsUnknownLogLevel(testInstance *testing.T) {
	application := NewApplication()
	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(configFileFlagNameConstant, writeConfigurationFile(testInstance, "common:\n  log_level: verbose\n")))
	require.ErrorContains(testInstance, application.initializeConfiguration(application.rootCommand), "unsupported log level")
}

func TestApplicationRunsGitignoreCommand(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	application := NewApplication()

	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetArgs([]string{
		"gitignore",
		"--config", writeConfigurationFile(testInstance, "common:\n  log_level: error\n"),
		"--path", workingDirectory,
	})
	require.NoError(testInstance, application.Execute())

	content, readError := os.ReadFile(filepath.Join(workingDirectory, ".gitignore"))
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(content), "# Entries added by gitsweep")
	require.Contains(testInstance, string(content), "node_modules/")
	require.Contains(testInstance, outputBuffer.String(), "Ignore file (local)")
}
