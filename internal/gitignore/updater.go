package gitignore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/githubapi"
)

const (
	ignoreFilePermissionsConstant          = 0o644
	updateCommitMessageConstant            = "Updating .gitignore"
	createCommitMessageConstant            = "Creating .gitignore"
	filesystemNotConfiguredMessageConstant = "filesystem not configured"
	clientNotConfiguredMessageConstant     = "remote client not configured"
	directoryMissingTemplateConstant       = "%s is not a directory"
	readErrorTemplateConstant              = "unable to read %s: %w"
	writeErrorTemplateConstant             = "unable to write %s: %w"
	fetchErrorTemplateConstant             = "unable to fetch remote %s: %w"
	pushErrorTemplateConstant              = "unable to update remote %s: %w"
	patternAddedMessageConstant            = "Added pattern to .gitignore"
	alreadyCompleteMessageConstant         = "No new entries needed; .gitignore already complete"
	updatedMessageConstant                 = ".gitignore updated"
	plannedMessageConstant                 = ".gitignore update planned"
	logFieldPathConstant                   = "path"
	logFieldPatternConstant                = "pattern"
	logFieldCountConstant                  = "count"
	logFieldRepositoryConstant             = "repository"
	logFieldBranchConstant                 = "branch"
	logFieldCreatedConstant                = "created"
)

var (
	// ErrFilesystemNotConfigured indicates the local updater was constructed without a filesystem.
	ErrFilesystemNotConfigured = errors.New(filesystemNotConfiguredMessageConstant)
	// ErrClientNotConfigured indicates the remote updater was constructed without a client.
	ErrClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)
)

// Result describes one ignore file update.
type Result struct {
	Location string   `yaml:"location"`
	Remote   bool     `yaml:"remote"`
	Branch   string   `yaml:"branch,omitempty"`
	Created  bool     `yaml:"created"`
	DryRun   bool     `yaml:"dry_run"`
	Added    []string `yaml:"added"`
	Error    string   `yaml:"error,omitempty"`
}

// LocalUpdater appends missing patterns to a .gitignore on a filesystem.
type LocalUpdater struct {
	logger     *zap.Logger
	filesystem afero.Fs
}

// NewLocalUpdater constructs a LocalUpdater.
func NewLocalUpdater(logger *zap.Logger, filesystem afero.Fs) (*LocalUpdater, error) {
	if filesystem == nil {
		return nil, ErrFilesystemNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalUpdater{logger: logger, filesystem: filesystem}, nil
}

// Update reads or creates <directory>/.gitignore and appends the missing patterns.
func (updater *LocalUpdater) Update(directory string, patterns []string, dryRun bool) (Result, error) {
	ignoreFilePath := filepath.Join(directory, FileName)
	result := Result{Location: ignoreFilePath, DryRun: dryRun}

	isDirectory, directoryError := afero.DirExists(updater.filesystem, directory)
	if directoryError != nil || !isDirectory {
		return result, fmt.Errorf(directoryMissingTemplateConstant, directory)
	}

	existingContent, readError := afero.ReadFile(updater.filesystem, ignoreFilePath)
	if readError != nil {
		if !errors.Is(readError, os.ErrNotExist) {
			return result, fmt.Errorf(readErrorTemplateConstant, ignoreFilePath, readError)
		}
		result.Created = true
	}

	mergedContent, addedPatterns := Merge(string(existingContent), patterns)
	result.Added = addedPatterns
	if len(addedPatterns) == 0 {
		result.Created = false
		updater.logger.Info(alreadyCompleteMessageConstant, zap.String(logFieldPathConstant, ignoreFilePath))
		return result, nil
	}
	if dryRun {
		updater.logger.Info(plannedMessageConstant, zap.String(logFieldPathConstant, ignoreFilePath), zap.Strings(logFieldPatternConstant, addedPatterns))
		return result, nil
	}

	if writeError := afero.WriteFile(updater.filesystem, ignoreFilePath, []byte(mergedContent), ignoreFilePermissionsConstant); writeError != nil {
		return result, fmt.Errorf(writeErrorTemplateConstant, ignoreFilePath, writeError)
	}
	for _, addedPattern := range addedPatterns {
		updater.logger.Info(patternAddedMessageConstant, zap.String(logFieldPatternConstant, addedPattern))
	}
	updater.logger.Info(updatedMessageConstant, zap.String(logFieldPathConstant, ignoreFilePath), zap.Int(logFieldCountConstant, len(addedPatterns)))
	return result, nil
}

// RemoteClient is the subset of the GitHub client used by RemoteUpdater.
type RemoteClient interface {
	GetFile(executionContext context.Context, repository githubapi.RepositoryReference, filePath string, branch string) (githubapi.RemoteFile, error)
	PutFile(executionContext context.Context, repository githubapi.RepositoryReference, update githubapi.FileUpdate) error
}

// RemoteUpdater merges missing patterns into a repository's .gitignore through the contents API.
type RemoteUpdater struct {
	logger *zap.Logger
	client RemoteClient
}

// NewRemoteUpdater constructs a RemoteUpdater.
func NewRemoteUpdater(logger *zap.Logger, client RemoteClient) (*RemoteUpdater, error) {
	if client == nil {
		return nil, ErrClientNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteUpdater{logger: logger, client: client}, nil
}

// Update fetches the remote .gitignore, creating it when absent, and commits
// the merged content. Nothing is written when no pattern is missing.
func (updater *RemoteUpdater) Update(executionContext context.Context, repository githubapi.RepositoryReference, branch string, patterns []string, dryRun bool) (Result, error) {
	trimmedBranch := strings.TrimSpace(branch)
	result := Result{Location: repository.String() + ":" + FileName, Remote: true, Branch: trimmedBranch, DryRun: dryRun}

	remoteFile, getError := updater.client.GetFile(executionContext, repository, FileName, trimmedBranch)
	if getError != nil {
		if !errors.Is(getError, githubapi.ErrFileNotFound) {
			return result, fmt.Errorf(fetchErrorTemplateConstant, FileName, getError)
		}
		result.Created = true
	}

	mergedContent, addedPatterns := Merge(string(remoteFile.Content), patterns)
	result.Added = addedPatterns
	if len(addedPatterns) == 0 {
		result.Created = false
		updater.logger.Info(alreadyCompleteMessageConstant, zap.String(logFieldRepositoryConstant, repository.String()))
		return result, nil
	}
	if dryRun {
		updater.logger.Info(plannedMessageConstant, zap.String(logFieldRepositoryConstant, repository.String()), zap.Strings(logFieldPatternConstant, addedPatterns))
		return result, nil
	}

	commitMessage := updateCommitMessageConstant
	if result.Created {
		commitMessage = createCommitMessageConstant
	}
	if putError := updater.client.PutFile(executionContext, repository, githubapi.FileUpdate{
		Path:    FileName,
		Branch:  trimmedBranch,
		Message: commitMessage,
		Content: []byte(mergedContent),
		SHA:     remoteFile.SHA,
	}); putError != nil {
		return result, fmt.Errorf(pushErrorTemplateConstant, FileName, putError)
	}

	updater.logger.Info(updatedMessageConstant,
		zap.String(logFieldRepositoryConstant, repository.String()),
		zap.String(logFieldBranchConstant, trimmedBranch),
		zap.Bool(logFieldCreatedConstant, result.Created),
		zap.Int(logFieldCountConstant, len(addedPatterns)),
	)
	return result, nil
}
