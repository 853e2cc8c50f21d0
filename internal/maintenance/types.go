package maintenance

import (
	"context"

	"github.com/temirov/gitsweep/internal/githubapi"
)

// RepositoryClient is the subset of the GitHub API client used for remote maintenance.
type RepositoryClient interface {
	ArchiveRepository(executionContext context.Context, repository githubapi.RepositoryReference) error
	GetFile(executionContext context.Context, repository githubapi.RepositoryReference, filePath string, branch string) (githubapi.RemoteFile, error)
	DeleteFile(executionContext context.Context, repository githubapi.RepositoryReference, deletion githubapi.FileDeletion) error
	ClosePullRequest(executionContext context.Context, repository githubapi.RepositoryReference, pullRequestNumber int) error
}

// MetricsRecorder receives maintenance outcomes.
type MetricsRecorder interface {
	RepositoryArchived()
	RemoteFileDeleted()
	PullRequestClosed()
	OperationFailed(operation string)
}

// Outcome classifies what happened to one maintenance target.
type Outcome string

// Maintenance outcomes.
const (
	OutcomeArchived Outcome = "archived"
	OutcomeDeleted  Outcome = "deleted"
	OutcomeClosed   Outcome = "closed"
	OutcomeNotFound Outcome = "not_found"
	OutcomePlanned  Outcome = "planned"
	OutcomeFailed   Outcome = "failed"
)

// ItemResult records the outcome for one target.
type ItemResult struct {
	Target  string  `yaml:"target"`
	Outcome Outcome `yaml:"outcome"`
	Message string  `yaml:"message,omitempty"`
}

// Result summarizes a best-effort maintenance operation.
type Result struct {
	Operation string       `yaml:"operation"`
	DryRun    bool         `yaml:"dry_run"`
	Items     []ItemResult `yaml:"items"`
}

// Failed counts items whose outcome is OutcomeFailed.
func (result Result) Failed() int {
	failed := 0
	for _, item := range result.Items {
		if item.Outcome == OutcomeFailed {
			failed++
		}
	}
	return failed
}

// FileDeletionOptions configures DeleteFiles.
type FileDeletionOptions struct {
	Paths           []string
	Branch          string
	MessageTemplate string
	DryRun          bool
}
