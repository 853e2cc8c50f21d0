package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

const environmentAssignmentSeparatorConstant = "="

// OSCommandRunner executes commands using the operating system facilities.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes the supplied command using os/exec. A non-zero exit code is
// reported through the result, not as an error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executable := exec.CommandContext(executionContext, string(command.Name), append([]string{}, command.Details.Arguments...)...)
	executable.Dir = command.Details.WorkingDirectory
	executable.Env = mergeEnvironment(command.Details.EnvironmentVariables)

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer
	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	exitCode := 0
	if runError := executable.Run(); runError != nil {
		var exitError *exec.ExitError
		if !errors.As(runError, &exitError) {
			return ExecutionResult{}, runError
		}
		exitCode = exitError.ExitCode()
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       exitCode,
	}, nil
}

// mergeEnvironment returns nil when no overrides are present so the child
// inherits the parent environment unchanged.
func mergeEnvironment(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}
	mergedEnvironment := append([]string{}, os.Environ()...)
	for environmentKey, environmentValue := range overrides {
		mergedEnvironment = append(mergedEnvironment, environmentKey+environmentAssignmentSeparatorConstant+environmentValue)
	}
	return mergedEnvironment
}
