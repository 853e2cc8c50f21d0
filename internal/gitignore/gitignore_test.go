package gitignore_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/githubapi"
	"github.com/temirov/gitsweep/internal/gitignore"
	"github.com/temirov/gitsweep/internal/session"
)

const (
	testDirectoryConstant  = "/project"
	testIgnorePathConstant = "/project/.gitignore"
	testBranchConstant     = "main"
	testRemoteSHAConstant  = "abc123"
)

var testRepository = githubapi.RepositoryReference{Owner: "octocat", Name: "hello-world"}

type fakeRemoteClient struct {
	file     githubapi.RemoteFile
	getError error
	putError error
	updates  []githubapi.FileUpdate
}

func (client *fakeRemoteClient) GetFile(_ context.Context, _ githubapi.RepositoryReference, _ string, _ string) (githubapi.RemoteFile, error) {
	if client.getError != nil {
		return githubapi.RemoteFile{}, client.getError
	}
	return client.file, nil
}

func (client *fakeRemoteClient) PutFile(_ context.Context, _ githubapi.RepositoryReference, update githubapi.FileUpdate) error {
	client.updates = append(client.updates, update)
	return client.putError
}

func TestMerge(testInstance *testing.T) {
	testCases := []struct {
		name            string
		existing        string
		patterns        []string
		expectedContent string
		expectedAdded   []string
	}{
		{
			name:            "empty_file",
			existing:        "",
			patterns:        []string{"*.log", "*.tmp"},
			expectedContent: "# Entries added by gitsweep\n*.log\n*.tmp\n",
			expectedAdded:   []string{"*.log", "*.tmp"},
		},
		{
			name:            "missing_trailing_newline",
			existing:        "bin/\n  *.log  ",
			patterns:        []string{"*.log", "*.tmp", "*.tmp"},
			expectedContent: "bin/\n  *.log  \n\n# Entries added by gitsweep\n*.tmp\n",
			expectedAdded:   []string{"*.tmp"},
		},
		{
			name:            "already_complete",
			existing:        "*.log\n*.tmp\n",
			patterns:        []string{"*.tmp", "*.log"},
			expectedContent: "*.log\n*.tmp\n",
			expectedAdded:   nil,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			mergedContent, addedPatterns := gitignore.Merge(testCase.existing, testCase.patterns)
			require.Equal(subTest, testCase.expectedContent, mergedContent)
			require.Equal(subTest, testCase.expectedAdded, addedPatterns)
		})
	}
}

func TestMergeIsIdempotent(testInstance *testing.T) {
	firstContent, firstAdded := gitignore.Merge("vendor/\n", gitignore.DefaultPatterns)
	require.Len(testInstance, firstAdded, len(gitignore.DefaultPatterns))

	secondContent, secondAdded := gitignore.Merge(firstContent, gitignore.DefaultPatterns)
	require.Empty(testInstance, secondAdded)
	require.Equal(testInstance, firstContent, secondContent)
}

func TestLocalUpdaterCreatesAndAppends(testInstance *testing.T) {
	filesystem := afero.NewMemMapFs()
	require.NoError(testInstance, filesystem.MkdirAll(testDirectoryConstant, 0o755))
	updater, updaterError := gitignore.NewLocalUpdater(zap.NewNop(), filesystem)
	require.NoError(testInstance, updaterError)

	createResult, createError := updater.Update(testDirectoryConstant, []string{"*.log"}, false)
	require.NoError(testInstance, createError)
	require.True(testInstance, createResult.Created)
	require.Equal(testInstance, []string{"*.log"}, createResult.Added)

	appendResult, appendError := updater.Update(testDirectoryConstant, []string{"*.log", "*.tmp"}, false)
	require.NoError(testInstance, appendError)
	require.False(testInstance, appendResult.Created)
	require.Equal(testInstance, []string{"*.tmp"}, appendResult.Added)

	content, readError := afero.ReadFile(filesystem, testIgnorePathConstant)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "# Entries added by gitsweep\n*.log\n\n# Entries added by gitsweep\n*.tmp\n", string(content))
}

func TestLocalUpdaterDryRunLeavesFileUntouched(testInstance *testing.T) {
	filesystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(filesystem, testIgnorePathConstant, []byte("*.log\n"), 0o644))
	updater, updaterError := gitignore.NewLocalUpdater(nil, filesystem)
	require.NoError(testInstance, updaterError)

	result, updateError := updater.Update(testDirectoryConstant, []string{"*.log", "*.bak"}, true)
	require.NoError(testInstance, updateError)
	require.Equal(testInstance, []string{"*.bak"}, result.Added)

	content, readError := afero.ReadFile(filesystem, testIgnorePathConstant)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "*.log\n", string(content))
}

func TestLocalUpdaterRejectsMissingDirectory(testInstance *testing.T) {
	updater, updaterError := gitignore.NewLocalUpdater(zap.NewNop(), afero.NewMemMapFs())
	require.NoError(testInstance, updaterError)

	_, updateError := updater.Update("/absent", gitignore.DefaultPatterns, false)
	require.ErrorContains(testInstance, updateError, "/absent is not a directory")

	_, constructorError := gitignore.NewLocalUpdater(zap.NewNop(), nil)
	require.ErrorIs(testInstance, constructorError, gitignore.ErrFilesystemNotConfigured)
}

func TestRemoteUpdater(testInstance *testing.T) {
	testCases := []struct {
		name            string
		client          *fakeRemoteClient
		dryRun          bool
		expectedMessage string
		expectedSHA     string
		expectedContent string
		expectWrite     bool
		expectError     bool
	}{
		{
			name:            "creates_missing_file",
			client:          &fakeRemoteClient{getError: githubapi.ErrFileNotFound},
			expectedMessage: "Creating .gitignore",
			expectedContent: "# Entries added by gitsweep\n*.log\n",
			expectWrite:     true,
		},
		{
			name:            "updates_existing_file",
			client:          &fakeRemoteClient{file: githubapi.RemoteFile{Path: ".gitignore", SHA: testRemoteSHAConstant, Content: []byte("bin/\n")}},
			expectedMessage: "Updating .gitignore",
			expectedSHA:     testRemoteSHAConstant,
			expectedContent: "bin/\n\n# Entries added by gitsweep\n*.log\n",
			expectWrite:     true,
		},
		{
			name:   "nothing_to_add",
			client: &fakeRemoteClient{file: githubapi.RemoteFile{SHA: testRemoteSHAConstant, Content: []byte("*.log\n")}},
		},
		{
			name:   "dry_run",
			client: &fakeRemoteClient{getError: githubapi.ErrFileNotFound},
			dryRun: true,
		},
		{
			name:        "fetch_failure",
			client:      &fakeRemoteClient{getError: errors.New("boom")},
			expectError: true,
		},
		{
			name:        "push_failure",
			client:      &fakeRemoteClient{getError: githubapi.ErrFileNotFound, putError: errors.New("forbidden")},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			updater, updaterError := gitignore.NewRemoteUpdater(zap.NewNop(), testCase.client)
			require.NoError(subTest, updaterError)

			result, updateError := updater.Update(context.Background(), testRepository, testBranchConstant, []string{"*.log"}, testCase.dryRun)
			if testCase.expectError {
				require.Error(subTest, updateError)
				return
			}
			require.NoError(subTest, updateError)
			require.True(subTest, result.Remote)
			require.Equal(subTest, "octocat/hello-world:.gitignore", result.Location)

			if !testCase.expectWrite {
				require.Empty(subTest, testCase.client.updates)
				return
			}
			require.Len(subTest, testCase.client.updates, 1)
			update := testCase.client.updates[0]
			require.Equal(subTest, testCase.expectedMessage, update.Message)
			require.Equal(subTest, testCase.expectedSHA, update.SHA)
			require.Equal(subTest, testBranchConstant, update.Branch)
			require.Equal(subTest, testCase.expectedContent, string(update.Content))
		})
	}
}

func TestCommandUpdatesLocalFile(testInstance *testing.T) {
	filesystem := afero.NewMemMapFs()
	require.NoError(testInstance, filesystem.MkdirAll(testDirectoryConstant, 0o755))
	builder := gitignore.CommandBuilder{
		Filesystem: filesystem,
		ConfigurationProvider: func() gitignore.CommandConfiguration {
			return gitignore.CommandConfiguration{Patterns: []string{"*.log", "*.tmp"}}
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetArgs([]string{"--path", testDirectoryConstant})
	require.NoError(testInstance, command.Execute())

	require.Contains(testInstance, outputBuffer.String(), "== Ignore file (local): 2 patterns added to /project/.gitignore (created) ==")
	exists, existsError := afero.Exists(filesystem, testIgnorePathConstant)
	require.NoError(testInstance, existsError)
	require.True(testInstance, exists)
}

func TestCommandUpdatesRemoteFile(testInstance *testing.T) {
	client := &fakeRemoteClient{getError: githubapi.ErrFileNotFound}
	builder := gitignore.CommandBuilder{
		Client: client,
		SettingsProvider: func() session.Settings {
			return session.Settings{GitHub: session.GitHubSettings{Token: "token", Owner: "octocat", Repository: "hello-world"}}
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetArgs([]string{"--remote", "--branch", testBranchConstant})
	require.NoError(testInstance, command.Execute())

	require.Len(testInstance, client.updates, 1)
	require.Equal(testInstance, "Creating .gitignore", client.updates[0].Message)
	require.Contains(testInstance, outputBuffer.String(), "== Ignore file (remote): ")
}

func TestCommandReportsRemoteFailure(testInstance *testing.T) {
	client := &fakeRemoteClient{getError: errors.New("unavailable")}
	builder := gitignore.CommandBuilder{
		Client: client,
		SettingsProvider: func() session.Settings {
			return session.Settings{GitHub: session.GitHubSettings{Token: "token", Owner: "octocat", Repository: "hello-world"}}
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{"--remote"})
	require.ErrorContains(testInstance, command.Execute(), "unavailable")
	require.Contains(testInstance, outputBuffer.String(), "update of octocat/hello-world:.gitignore failed")
}
