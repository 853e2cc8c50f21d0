package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	commandGitNameConstant                  = "git"
	loggerNotConfiguredMessageConstant      = "shell executor logger not configured"
	runnerNotConfiguredMessageConstant      = "shell executor command runner not configured"
	commandFailedTemplateConstant           = "%s exited with code %d"
	commandFailedWithOutputTemplateConstant = "%s exited with code %d: %s"
	commandExecutionErrorTemplateConstant   = "%s could not be executed: %v"
	commandLogFieldNameConstant             = "command"
	argumentsLogFieldNameConstant           = "arguments"
	workingDirectoryLogFieldNameConstant    = "working_directory"
	exitCodeLogFieldNameConstant            = "exit_code"
	standardErrorLogFieldNameConstant       = "stderr"
)

// CommandName identifies an executable supported by the shell executor.
type CommandName string

// CommandGit runs the git binary.
const CommandGit CommandName = CommandName(commandGitNameConstant)

// CommandDetails describes the arguments and environment of a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

var (
	// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
	ErrCommandRunnerNotConfigured = errors.New(runnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a process that ran but exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failedError CommandFailedError) Error() string {
	standardError := strings.TrimSpace(failedError.Result.StandardError)
	if len(standardError) == 0 {
		return fmt.Sprintf(commandFailedTemplateConstant, failedError.Command.Name, failedError.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithOutputTemplateConstant, failedError.Command.Name, failedError.Result.ExitCode, standardError)
}

// CommandExecutionError reports a process that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, executionError.Command.Name, executionError.Cause)
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ShellExecutor runs commands through a CommandRunner and reports their lifecycle.
type ShellExecutor struct {
	logger    *zap.Logger
	runner    CommandRunner
	observer  CommandEventObserver
	formatter CommandMessageFormatter
}

// NewShellExecutor constructs a ShellExecutor. When an observer is supplied it
// receives lifecycle events instead of the structured logger.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, observers ...CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	var observer CommandEventObserver
	for _, candidate := range observers {
		if candidate != nil {
			observer = candidate
		}
	}

	return &ShellExecutor{
		logger:    logger,
		runner:    runner,
		observer:  observer,
		formatter: CommandMessageFormatter{},
	}, nil
}

// ExecuteGit runs git with the supplied details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// Execute runs the command and converts non-zero exit codes into CommandFailedError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.reportStarted(command)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.reportExecutionFailure(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.reportCompleted(command, executionResult)
	if executionResult.ExitCode != 0 {
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	return executionResult, nil
}

func (executor *ShellExecutor) reportStarted(command ShellCommand) {
	if executor.observer != nil {
		executor.observer.CommandStarted(command)
		return
	}
	executor.logger.Info(executor.formatter.BuildStartedMessage(command), executor.commandFields(command)...)
}

func (executor *ShellExecutor) reportCompleted(command ShellCommand, result ExecutionResult) {
	if executor.observer != nil {
		executor.observer.CommandCompleted(command, result)
		return
	}

	fields := executor.commandFields(command)
	if result.ExitCode == 0 {
		executor.logger.Info(executor.formatter.BuildSuccessMessage(command), fields...)
		return
	}

	fields = append(fields,
		zap.Int(exitCodeLogFieldNameConstant, result.ExitCode),
		zap.String(standardErrorLogFieldNameConstant, strings.TrimSpace(result.StandardError)),
	)
	executor.logger.Warn(executor.formatter.BuildFailureMessage(command, result), fields...)
}

func (executor *ShellExecutor) reportExecutionFailure(command ShellCommand, failure error) {
	if executor.observer != nil {
		executor.observer.CommandExecutionFailed(command, failure)
		return
	}
	fields := append(executor.commandFields(command), zap.Error(failure))
	executor.logger.Error(executor.formatter.BuildExecutionFailureMessage(command, failure), fields...)
}

func (executor *ShellExecutor) commandFields(command ShellCommand) []zap.Field {
	return []zap.Field{
		zap.String(commandLogFieldNameConstant, string(command.Name)),
		zap.Strings(argumentsLogFieldNameConstant, command.Details.Arguments),
		zap.String(workingDirectoryLogFieldNameConstant, command.Details.WorkingDirectory),
	}
}
