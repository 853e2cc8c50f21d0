package maintenance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/githubapi"
)

const (
	// DefaultBranch is the branch file deletions are committed to unless configured otherwise.
	DefaultBranch = "main"
	// DefaultDeletionMessageTemplate formats the commit message for a removed file.
	DefaultDeletionMessageTemplate = "Removing obsolete file %s"

	pathPlaceholderConstant               = "%s"
	archiveOperationNameConstant          = "archive_repository"
	deleteFileOperationNameConstant       = "delete_file"
	closePullRequestOperationNameConstant = "close_pull_request"
	clientNotConfiguredMessageConstant    = "repository client not configured"
	archiveErrorTemplateConstant          = "unable to archive %s: %w"
	archiveDryRunMessageConstant          = "DRY-RUN: would archive repository"
	archiveSucceededMessageConstant       = "Archived repository"
	archiveFailedMessageConstant          = "Unable to archive repository"
	fileDryRunMessageConstant             = "DRY-RUN: would delete remote file"
	fileNotFoundMessageConstant           = "Remote file not found; skipping"
	fileLookupFailedMessageConstant       = "Unable to read remote file; skipping"
	fileDeleteFailedMessageConstant       = "Unable to delete remote file; skipping"
	fileDeletedMessageConstant            = "Deleted remote file"
	pullRequestDryRunMessageConstant      = "DRY-RUN: would close pull request"
	pullRequestCloseFailedMessageConstant = "Unable to close pull request; skipping"
	pullRequestClosedMessageConstant      = "Closed pull request"
	logFieldRepositoryConstant            = "repository"
	logFieldPathConstant                  = "path"
	logFieldBranchConstant                = "branch"
	logFieldPullRequestConstant           = "pull_request"
	notFoundOutcomeMessageConstant        = "file does not exist on the branch"
)

// ErrClientNotConfigured indicates the service was constructed without a client.
var ErrClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)

// Service performs single-shot remote maintenance operations.
type Service struct {
	logger  *zap.Logger
	client  RepositoryClient
	metrics MetricsRecorder
}

// NewService constructs a Service. A nil metrics recorder discards outcomes.
func NewService(logger *zap.Logger, client RepositoryClient, metrics MetricsRecorder) (*Service, error) {
	if client == nil {
		return nil, ErrClientNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, client: client, metrics: metrics}, nil
}

// Archive marks the repository archived. The failure is logged and returned.
func (service *Service) Archive(executionContext context.Context, repository githubapi.RepositoryReference, dryRun bool) (Result, error) {
	result := Result{Operation: archiveOperationNameConstant, DryRun: dryRun}
	repositoryField := zap.String(logFieldRepositoryConstant, repository.String())

	if dryRun {
		service.logger.Info(archiveDryRunMessageConstant, repositoryField)
		result.Items = append(result.Items, ItemResult{Target: repository.String(), Outcome: OutcomePlanned})
		return result, nil
	}

	if archiveError := service.client.ArchiveRepository(executionContext, repository); archiveError != nil {
		service.logger.Warn(archiveFailedMessageConstant, repositoryField, zap.Error(archiveError))
		service.recordFailure(archiveOperationNameConstant)
		result.Items = append(result.Items, ItemResult{Target: repository.String(), Outcome: OutcomeFailed, Message: archiveError.Error()})
		return result, fmt.Errorf(archiveErrorTemplateConstant, repository.String(), archiveError)
	}

	service.logger.Info(archiveSucceededMessageConstant, repositoryField)
	if service.metrics != nil {
		service.metrics.RepositoryArchived()
	}
	result.Items = append(result.Items, ItemResult{Target: repository.String(), Outcome: OutcomeArchived})
	return result, nil
}

// DeleteFiles removes each path from the branch through the contents API.
// Missing files and failures are logged and skipped.
func (service *Service) DeleteFiles(executionContext context.Context, repository githubapi.RepositoryReference, options FileDeletionOptions) Result {
	result := Result{Operation: deleteFileOperationNameConstant, DryRun: options.DryRun}

	branch := strings.TrimSpace(options.Branch)
	if len(branch) == 0 {
		branch = DefaultBranch
	}
	messageTemplate := options.MessageTemplate
	if !strings.Contains(messageTemplate, pathPlaceholderConstant) {
		messageTemplate = DefaultDeletionMessageTemplate
	}

	for _, rawPath := range options.Paths {
		filePath := strings.TrimSpace(rawPath)
		if len(filePath) == 0 {
			continue
		}
		fileFields := []zap.Field{
			zap.String(logFieldRepositoryConstant, repository.String()),
			zap.String(logFieldPathConstant, filePath),
			zap.String(logFieldBranchConstant, branch),
		}

		remoteFile, getError := service.client.GetFile(executionContext, repository, filePath, branch)
		if getError != nil {
			if errors.Is(getError, githubapi.ErrFileNotFound) {
				service.logger.Warn(fileNotFoundMessageConstant, fileFields...)
				result.Items = append(result.Items, ItemResult{Target: filePath, Outcome: OutcomeNotFound, Message: notFoundOutcomeMessageConstant})
				continue
			}
			service.logger.Warn(fileLookupFailedMessageConstant, append(fileFields, zap.Error(getError))...)
			service.recordFailure(deleteFileOperationNameConstant)
			result.Items = append(result.Items, ItemResult{Target: filePath, Outcome: OutcomeFailed, Message: getError.Error()})
			continue
		}

		if options.DryRun {
			service.logger.Info(fileDryRunMessageConstant, fileFields...)
			result.Items = append(result.Items, ItemResult{Target: filePath, Outcome: OutcomePlanned})
			continue
		}

		deleteError := service.client.DeleteFile(executionContext, repository, githubapi.FileDeletion{
			Path:    filePath,
			Branch:  branch,
			Message: formatDeletionMessage(messageTemplate, filePath),
			SHA:     remoteFile.SHA,
		})
		if deleteError != nil {
			service.logger.Warn(fileDeleteFailedMessageConstant, append(fileFields, zap.Error(deleteError))...)
			service.recordFailure(deleteFileOperationNameConstant)
			result.Items = append(result.Items, ItemResult{Target: filePath, Outcome: OutcomeFailed, Message: deleteError.Error()})
			continue
		}

		service.logger.Info(fileDeletedMessageConstant, fileFields...)
		if service.metrics != nil {
			service.metrics.RemoteFileDeleted()
		}
		result.Items = append(result.Items, ItemResult{Target: filePath, Outcome: OutcomeDeleted})
	}

	return result
}

// ClosePullRequests closes each pull request, logging and skipping failures.
func (service *Service) ClosePullRequests(executionContext context.Context, repository githubapi.RepositoryReference, pullRequestNumbers []int, dryRun bool) Result {
	result := Result{Operation: closePullRequestOperationNameConstant, DryRun: dryRun}

	for _, pullRequestNumber := range pullRequestNumbers {
		target := strconv.Itoa(pullRequestNumber)
		pullRequestFields := []zap.Field{
			zap.String(logFieldRepositoryConstant, repository.String()),
			zap.Int(logFieldPullRequestConstant, pullRequestNumber),
		}

		if dryRun {
			service.logger.Info(pullRequestDryRunMessageConstant, pullRequestFields...)
			result.Items = append(result.Items, ItemResult{Target: target, Outcome: OutcomePlanned})
			continue
		}

		if closeError := service.client.ClosePullRequest(executionContext, repository, pullRequestNumber); closeError != nil {
			service.logger.Warn(pullRequestCloseFailedMessageConstant, append(pullRequestFields, zap.Error(closeError))...)
			service.recordFailure(closePullRequestOperationNameConstant)
			result.Items = append(result.Items, ItemResult{Target: target, Outcome: OutcomeFailed, Message: closeError.Error()})
			continue
		}

		service.logger.Info(pullRequestClosedMessageConstant, pullRequestFields...)
		if service.metrics != nil {
			service.metrics.PullRequestClosed()
		}
		result.Items = append(result.Items, ItemResult{Target: target, Outcome: OutcomeClosed})
	}

	return result
}

func (service *Service) recordFailure(operation string) {
	if service.metrics != nil {
		service.metrics.OperationFailed(operation)
	}
}

// formatDeletionMessage substitutes every path placeholder literally; other
// verbs in a configured template are left as written.
func formatDeletionMessage(messageTemplate string, filePath string) string {
	return strings.ReplaceAll(messageTemplate, pathPlaceholderConstant, filePath)
}
