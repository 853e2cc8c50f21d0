package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	defaultWorkingDirectoryLabelConstant    = "current directory"
)

const (
	gitRevListSubcommandNameConstant  = "rev-list"
	gitCatFileSubcommandNameConstant  = "cat-file"
	gitRevParseSubcommandNameConstant = "rev-parse"
)

const (
	gitRevListStartTemplateConstant             = "Enumerating history objects in %s"
	gitRevListSuccessTemplateConstant           = "Enumerated history objects in %s"
	gitRevListFailureTemplateConstant           = "Failed to enumerate history objects in %s (exit code %d%s)"
	gitRevListExecutionFailureTemplateConstant  = "Unable to enumerate history objects in %s: %s"
	gitCatFileStartTemplateConstant             = "Measuring object sizes in %s"
	gitCatFileSuccessTemplateConstant           = "Measured object sizes in %s"
	gitCatFileFailureTemplateConstant           = "Failed to measure object sizes in %s (exit code %d%s)"
	gitCatFileExecutionFailureTemplateConstant  = "Unable to measure object sizes in %s: %s"
	gitRevParseStartTemplateConstant            = "Analyzing repository at %s"
	gitRevParseSuccessTemplateConstant          = "%s is a Git repository"
	gitRevParseFailureTemplateConstant          = "Could not confirm %s is a Git repository (exit code %d%s)"
	gitRevParseExecutionFailureTemplateConstant = "Could not analyze %s: %s"
)

type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var gitSubcommandTemplates = map[string]stageTemplates{
	gitRevListSubcommandNameConstant: {
		start:            gitRevListStartTemplateConstant,
		success:          gitRevListSuccessTemplateConstant,
		failure:          gitRevListFailureTemplateConstant,
		executionFailure: gitRevListExecutionFailureTemplateConstant,
	},
	gitCatFileSubcommandNameConstant: {
		start:            gitCatFileStartTemplateConstant,
		success:          gitCatFileSuccessTemplateConstant,
		failure:          gitCatFileFailureTemplateConstant,
		executionFailure: gitCatFileExecutionFailureTemplateConstant,
	},
	gitRevParseSubcommandNameConstant: {
		start:            gitRevParseStartTemplateConstant,
		success:          gitRevParseSuccessTemplateConstant,
		failure:          gitRevParseFailureTemplateConstant,
		executionFailure: gitRevParseExecutionFailureTemplateConstant,
	},
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name == CommandGit && len(command.Details.Arguments) > 0 {
		subcommand := strings.TrimSpace(command.Details.Arguments[0])
		if templates, known := gitSubcommandTemplates[subcommand]; known {
			return formatter.describeWithTemplates(templates, command, result, failure, stage)
		}
	}
	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeWithTemplates(templates stageTemplates, command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	location := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, location)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, location)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, location, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(templates.executionFailure, location, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	label := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, label)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, label)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, label, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, label, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	commandParts = append(commandParts, command.Details.Arguments...)
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)

	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return commandLabel
	}
	return commandLabel + fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}
