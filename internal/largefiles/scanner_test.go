package largefiles_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitsweep/internal/execshell"
	"github.com/temirov/gitsweep/internal/largefiles"
)

const (
	testRepositoryPathConstant = "/tmp/repository"
	testRevListOutputConstant  = "c0ffee0000000000000000000000000000000001\n" +
		"aaaa000000000000000000000000000000000001 assets/video.mp4\n" +
		"bbbb000000000000000000000000000000000002 docs\n" +
		"cccc000000000000000000000000000000000003 docs/manual.pdf\n" +
		"dddd000000000000000000000000000000000004 README.md\n" +
		"eeee000000000000000000000000000000000005 build/archive.zip\n"
	testCatFileOutputConstant = "aaaa000000000000000000000000000000000001 blob 12582912\n" +
		"bbbb000000000000000000000000000000000002 tree 120\n" +
		"cccc000000000000000000000000000000000003 blob 5242880\n" +
		"dddd000000000000000000000000000000000004 blob 1024\n" +
		"eeee000000000000000000000000000000000005 blob 12582912\n"
)

type stubExecutor struct {
	outputs  map[string]string
	failures map[string]error
	calls    []execshell.CommandDetails
}

func (executor *stubExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.calls = append(executor.calls, details)
	subcommand := details.Arguments[0]
	if failure, failing := executor.failures[subcommand]; failing {
		return execshell.ExecutionResult{}, failure
	}
	return execshell.ExecutionResult{StandardOutput: executor.outputs[subcommand]}, nil
}

func newStubExecutor() *stubExecutor {
	return &stubExecutor{
		outputs: map[string]string{
			"rev-parse": ".git\n",
			"rev-list":  testRevListOutputConstant,
			"cat-file":  testCatFileOutputConstant,
		},
		failures: map[string]error{},
	}
}

func TestScanReportsBlobsAboveThresholdSortedBySize(testInstance *testing.T) {
	executor := newStubExecutor()
	observerCore, observedLogs := observer.New(zapcore.InfoLevel)
	scanner, scannerError := largefiles.NewScanner(zap.New(observerCore), executor)
	require.NoError(testInstance, scannerError)

	largeFiles, scanError := scanner.Scan(context.Background(), largefiles.Options{
		RepositoryPath: testRepositoryPathConstant,
		ThresholdBytes: 5 * 1024 * 1024,
	})
	require.NoError(testInstance, scanError)

	require.Equal(testInstance, []largefiles.LargeFile{
		{Path: "assets/video.mp4", ObjectID: "aaaa000000000000000000000000000000000001", SizeBytes: 12582912},
		{Path: "build/archive.zip", ObjectID: "eeee000000000000000000000000000000000005", SizeBytes: 12582912},
	}, largeFiles)
	require.Equal(testInstance, "12MiB", largeFiles[0].HumanSize())

	require.Len(testInstance, executor.calls, 3)
	require.Equal(testInstance, []string{"rev-list", "--objects", "--all"}, executor.calls[1].Arguments)
	require.Equal(testInstance, testRepositoryPathConstant, executor.calls[1].WorkingDirectory)
	require.Equal(testInstance, []string{"cat-file", "--batch-check=%(objectname) %(objecttype) %(objectsize)"}, executor.calls[2].Arguments)

	standardInputLines := strings.Split(strings.TrimSpace(string(executor.calls[2].StandardInput)), "\n")
	require.Len(testInstance, standardInputLines, 5)
	require.NotContains(testInstance, standardInputLines, "c0ffee0000000000000000000000000000000001")

	require.Equal(testInstance, 2, observedLogs.FilterMessage("Large object found").Len())
}

func TestScanThresholdIsStrict(testInstance *testing.T) {
	scanner, scannerError := largefiles.NewScanner(zap.NewNop(), newStubExecutor())
	require.NoError(testInstance, scannerError)

	largeFiles, scanError := scanner.Scan(context.Background(), largefiles.Options{
		RepositoryPath: testRepositoryPathConstant,
		ThresholdBytes: 12582912,
	})
	require.NoError(testInstance, scanError)
	require.Empty(testInstance, largeFiles)
}

func TestScanFailures(testInstance *testing.T) {
	testCases := []struct {
		name          string
		failingStep   string
		expectedError string
	}{
		{name: "not_a_repository", failingStep: "rev-parse", expectedError: "is not a git repository"},
		{name: "enumeration", failingStep: "rev-list", expectedError: "unable to enumerate objects"},
		{name: "measurement", failingStep: "cat-file", expectedError: "unable to measure objects"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			executor := newStubExecutor()
			executor.failures[testCase.failingStep] = errors.New("exit status 128")
			scanner, scannerError := largefiles.NewScanner(zap.NewNop(), executor)
			require.NoError(subTest, scannerError)

			_, scanError := scanner.Scan(context.Background(), largefiles.Options{RepositoryPath: testRepositoryPathConstant})
			require.ErrorContains(subTest, scanError, testCase.expectedError)
		})
	}
}

func TestScanRequiresRepositoryPathAndExecutor(testInstance *testing.T) {
	_, constructorError := largefiles.NewScanner(zap.NewNop(), nil)
	require.ErrorIs(testInstance, constructorError, largefiles.ErrExecutorNotConfigured)

	scanner, scannerError := largefiles.NewScanner(nil, newStubExecutor())
	require.NoError(testInstance, scannerError)
	_, scanError := scanner.Scan(context.Background(), largefiles.Options{RepositoryPath: "  "})
	require.ErrorIs(testInstance, scanError, largefiles.ErrRepositoryPathRequired)
}

func TestParseThreshold(testInstance *testing.T) {
	testCases := []struct {
		input         string
		expectedBytes int64
		expectError   bool
	}{
		{input: "", expectedBytes: 5 * 1024 * 1024},
		{input: "5", expectedBytes: 5 * 1024 * 1024},
		{input: "0.5", expectedBytes: 512 * 1024},
		{input: "512KB", expectedBytes: 512 * 1024},
		{input: "10MiB", expectedBytes: 10 * 1024 * 1024},
		{input: "1g", expectedBytes: 1024 * 1024 * 1024},
		{input: "-1", expectError: true},
		{input: "huge", expectError: true},
		{input: "NaN", expectError: true},
		{input: "Inf", expectError: true},
		{input: "-Inf", expectError: true},
		{input: "1e30", expectError: true},
		{input: "8796093022208", expectError: true},
		{input: "8796093022206", expectedBytes: 8796093022206 * 1024 * 1024},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.input, func(subTest *testing.T) {
			thresholdBytes, parseError := largefiles.ParseThreshold(testCase.input)
			if testCase.expectError {
				require.Error(subTest, parseError)
				require.Zero(subTest, thresholdBytes)
				return
			}
			require.NoError(subTest, parseError)
			require.Equal(subTest, testCase.expectedBytes, thresholdBytes)
		})
	}
}

func TestCommandRendersLargeFiles(testInstance *testing.T) {
	executor := newStubExecutor()
	builder := largefiles.CommandBuilder{
		ExecutorProvider: func() largefiles.GitExecutor { return executor },
		ConfigurationProvider: func() largefiles.CommandConfiguration {
			return largefiles.CommandConfiguration{RepositoryPath: "/configured", SizeThreshold: "1"}
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetArgs([]string{"--path", testRepositoryPathConstant, "--size-threshold", "6MB"})
	require.NoError(testInstance, command.Execute())

	require.Equal(testInstance, testRepositoryPathConstant, executor.calls[0].WorkingDirectory)
	output := outputBuffer.String()
	require.Contains(testInstance, output, "== Large files: 2 above 6MiB, 24MiB total ==")
	require.Contains(testInstance, output, "assets/video.mp4")
	require.NotContains(testInstance, output, "docs/manual.pdf")
}

func TestCommandRejectsInvalidThreshold(testInstance *testing.T) {
	builder := largefiles.CommandBuilder{ExecutorProvider: func() largefiles.GitExecutor { return newStubExecutor() }}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{"--size-threshold", "plenty"})
	require.ErrorContains(testInstance, command.Execute(), "invalid size threshold")
}
