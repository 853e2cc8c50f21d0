package maintenance_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitsweep/internal/githubapi"
	"github.com/temirov/gitsweep/internal/maintenance"
	"github.com/temirov/gitsweep/internal/session"
)

const (
	testOwnerConstant          = "octocat"
	testRepositoryNameConstant = "hello-world"
)

var testRepository = githubapi.RepositoryReference{Owner: testOwnerConstant, Name: testRepositoryNameConstant}

type fakeRepositoryClient struct {
	archiveError      error
	archived          int
	files             map[string]githubapi.RemoteFile
	getErrors         map[string]error
	deleteErrors      map[string]error
	deletions         []githubapi.FileDeletion
	closeErrors       map[int]error
	closedRequests    []int
	requestedBranches []string
}

func newFakeRepositoryClient() *fakeRepositoryClient {
	return &fakeRepositoryClient{
		files: map[string]githubapi.RemoteFile{
			"docs/old.md": {Path: "docs/old.md", SHA: "sha-old"},
			"tmp.txt":     {Path: "tmp.txt", SHA: "sha-tmp"},
		},
		getErrors:    map[string]error{},
		deleteErrors: map[string]error{},
		closeErrors:  map[int]error{},
	}
}

func (client *fakeRepositoryClient) ArchiveRepository(context.Context, githubapi.RepositoryReference) error {
	if client.archiveError != nil {
		return client.archiveError
	}
	client.archived++
	return nil
}

func (client *fakeRepositoryClient) GetFile(_ context.Context, _ githubapi.RepositoryReference, filePath string, branch string) (githubapi.RemoteFile, error) {
	client.requestedBranches = append(client.requestedBranches, branch)
	if getError, exists := client.getErrors[filePath]; exists {
		return githubapi.RemoteFile{}, getError
	}
	remoteFile, exists := client.files[filePath]
	if !exists {
		return githubapi.RemoteFile{}, githubapi.ErrFileNotFound
	}
	return remoteFile, nil
}

func (client *fakeRepositoryClient) DeleteFile(_ context.Context, _ githubapi.RepositoryReference, deletion githubapi.FileDeletion) error {
	if deleteError, exists := client.deleteErrors[deletion.Path]; exists {
		return deleteError
	}
	client.deletions = append(client.deletions, deletion)
	return nil
}

func (client *fakeRepositoryClient) ClosePullRequest(_ context.Context, _ githubapi.RepositoryReference, pullRequestNumber int) error {
	if closeError, exists := client.closeErrors[pullRequestNumber]; exists {
		return closeError
	}
	client.closedRequests = append(client.closedRequests, pullRequestNumber)
	return nil
}

func TestServiceArchive(testInstance *testing.T) {
	client := newFakeRepositoryClient()
	service, serviceError := maintenance.NewService(zap.NewNop(), client, nil)
	require.NoError(testInstance, serviceError)

	dryRunResult, dryRunError := service.Archive(context.Background(), testRepository, true)
	require.NoError(testInstance, dryRunError)
	require.Equal(testInstance, maintenance.OutcomePlanned, dryRunResult.Items[0].Outcome)
	require.Zero(testInstance, client.archived)

	result, archiveError := service.Archive(context.Background(), testRepository, false)
	require.NoError(testInstance, archiveError)
	require.Equal(testInstance, maintenance.OutcomeArchived, result.Items[0].Outcome)
	require.Equal(testInstance, 1, client.archived)

	client.archiveError = errors.New("forbidden")
	failedResult, failedError := service.Archive(context.Background(), testRepository, false)
	require.Error(testInstance, failedError)
	require.Equal(testInstance, 1, failedResult.Failed())
}

func TestServiceDeleteFiles(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zapcore.InfoLevel)
	client := newFakeRepositoryClient()
	client.getErrors["broken.txt"] = errors.New("server error")
	client.deleteErrors["tmp.txt"] = errors.New("conflict")

	service, serviceError := maintenance.NewService(zap.New(observerCore), client, nil)
	require.NoError(testInstance, serviceError)

	result := service.DeleteFiles(context.Background(), testRepository, maintenance.FileDeletionOptions{
		Paths: []string{"docs/old.md", "missing.txt", "broken.txt", "tmp.txt", "  "},
	})

	outcomes := map[string]maintenance.Outcome{}
	for _, item := range result.Items {
		outcomes[item.Target] = item.Outcome
	}
	require.Equal(testInstance, map[string]maintenance.Outcome{
		"docs/old.md": maintenance.OutcomeDeleted,
		"missing.txt": maintenance.OutcomeNotFound,
		"broken.txt":  maintenance.OutcomeFailed,
		"tmp.txt":     maintenance.OutcomeFailed,
	}, outcomes)
	require.Equal(testInstance, 2, result.Failed())

	require.Len(testInstance, client.deletions, 1)
	require.Equal(testInstance, githubapi.FileDeletion{
		Path:    "docs/old.md",
		Branch:  maintenance.DefaultBranch,
		Message: "Removing obsolete file docs/old.md",
		SHA:     "sha-old",
	}, client.deletions[0])

	require.Equal(testInstance, 3, observedLogs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestServiceDeleteFilesDryRunAndBranch(testInstance *testing.T) {
	client := newFakeRepositoryClient()
	service, serviceError := maintenance.NewService(zap.NewNop(), client, nil)
	require.NoError(testInstance, serviceError)

	result := service.DeleteFiles(context.Background(), testRepository, maintenance.FileDeletionOptions{
		Paths:  []string{"tmp.txt"},
		Branch: "develop",
		DryRun: true,
	})
	require.Equal(testInstance, maintenance.OutcomePlanned, result.Items[0].Outcome)
	require.Empty(testInstance, client.deletions)
	require.Equal(testInstance, []string{"develop"}, client.requestedBranches)
}

func TestServiceDeleteFilesMessageTemplate(testInstance *testing.T) {
	testCases := []struct {
		name            string
		messageTemplate string
		expectedMessage string
	}{
		{name: "other_verbs_kept_literally", messageTemplate: "drop %s (%d)", expectedMessage: "drop docs/old.md (%d)"},
		{name: "repeated_placeholder", messageTemplate: "%s: remove %s", expectedMessage: "docs/old.md: remove docs/old.md"},
		{name: "missing_placeholder_uses_default", messageTemplate: "cleanup", expectedMessage: "Removing obsolete file docs/old.md"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			client := newFakeRepositoryClient()
			service, serviceError := maintenance.NewService(zap.NewNop(), client, nil)
			require.NoError(subTest, serviceError)

			service.DeleteFiles(context.Background(), testRepository, maintenance.FileDeletionOptions{
				Paths:           []string{"docs/old.md"},
				MessageTemplate: testCase.messageTemplate,
			})
			require.Len(subTest, client.deletions, 1)
			require.Equal(subTest, testCase.expectedMessage, client.deletions[0].Message)
		})
	}
}

func TestServiceClosePullRequests(testInstance *testing.T) {
	client := newFakeRepositoryClient()
	client.closeErrors[8] = errors.New("not found")

	service, serviceError := maintenance.NewService(zap.NewNop(), client, nil)
	require.NoError(testInstance, serviceError)

	result := service.ClosePullRequests(context.Background(), testRepository, []int{7, 8, 9}, false)
	require.Equal(testInstance, []int{7, 9}, client.closedRequests)
	require.Equal(testInstance, 1, result.Failed())
	require.Equal(testInstance, maintenance.OutcomeFailed, result.Items[1].Outcome)
}

func TestCommandsExecute(testInstance *testing.T) {
	client := newFakeRepositoryClient()
	dependencies := maintenance.CommandDependencies{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		SettingsProvider: func() session.Settings {
			return session.Settings{GitHub: session.GitHubSettings{Token: "test-token", Owner: testOwnerConstant, Repository: testRepositoryNameConstant}}
		},
		Client: client,
	}

	deleteBuilder := maintenance.DeleteFileCommandBuilder{CommandDependencies: dependencies}
	deleteCommand, deleteBuildError := deleteBuilder.Build()
	require.NoError(testInstance, deleteBuildError)
	deleteOutput := &bytes.Buffer{}
	deleteCommand.SetOut(deleteOutput)
	deleteCommand.SetErr(&bytes.Buffer{})
	deleteCommand.SetArgs([]string{"docs/old.md", "--branch", "trunk", "--message", "chore: drop %s"})
	require.NoError(testInstance, deleteCommand.Execute())
	require.Equal(testInstance, "trunk", client.deletions[0].Branch)
	require.Equal(testInstance, "chore: drop docs/old.md", client.deletions[0].Message)
	require.Contains(testInstance, deleteOutput.String(), "== Delete remote files: 1 processed, 0 failed ==")

	closeBuilder := maintenance.ClosePullRequestCommandBuilder{CommandDependencies: dependencies}
	closeCommand, closeBuildError := closeBuilder.Build()
	require.NoError(testInstance, closeBuildError)
	closeCommand.SetOut(&bytes.Buffer{})
	closeCommand.SetErr(&bytes.Buffer{})
	closeCommand.SetArgs([]string{"#12", "13"})
	require.NoError(testInstance, closeCommand.Execute())
	require.Equal(testInstance, []int{12, 13}, client.closedRequests)

	closeCommand.SetArgs([]string{"abc"})
	require.Error(testInstance, closeCommand.Execute())

	archiveBuilder := maintenance.ArchiveCommandBuilder{CommandDependencies: dependencies}
	archiveCommand, archiveBuildError := archiveBuilder.Build()
	require.NoError(testInstance, archiveBuildError)
	archiveCommand.SetOut(&bytes.Buffer{})
	archiveCommand.SetErr(&bytes.Buffer{})
	archiveCommand.SetArgs([]string{"--dry-run"})
	require.NoError(testInstance, archiveCommand.Execute())
	require.Zero(testInstance, client.archived)
}
