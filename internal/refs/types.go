package refs

import (
	"context"
	"time"

	"github.com/temirov/gitsweep/internal/githubapi"
)

const (
	branchKindValueConstant = "branch"
	tagKindValueConstant    = "tag"
)

// Kind distinguishes branches from tags.
type Kind string

// Supported reference kinds.
const (
	KindBranch Kind = Kind(branchKindValueConstant)
	KindTag    Kind = Kind(tagKindValueConstant)
)

// RetentionReason explains why a reference was kept.
type RetentionReason string

// Retention reasons.
const (
	RetentionReasonRecent   RetentionReason = "recent"
	RetentionReasonExcluded RetentionReason = "excluded"
)

// ReferenceClient is the subset of the GitHub API client used for stale reference cleanup.
type ReferenceClient interface {
	ListBranches(executionContext context.Context, repository githubapi.RepositoryReference) ([]githubapi.Reference, error)
	ListTags(executionContext context.Context, repository githubapi.RepositoryReference) ([]githubapi.Reference, error)
	ResolveCommitDate(executionContext context.Context, repository githubapi.RepositoryReference, commitSHA string) (time.Time, error)
	DeleteBranch(executionContext context.Context, repository githubapi.RepositoryReference, branchName string) error
	DeleteTag(executionContext context.Context, repository githubapi.RepositoryReference, tagName string) error
}

// MetricsRecorder receives cleanup outcomes.
type MetricsRecorder interface {
	ReferencesStale(kind string, count int)
	ReferenceDeleted(kind string)
	OperationFailed(operation string)
}

// Clock abstracts time-dependent functionality for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the standard library.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Options configures one cleanup pass over branches or tags.
type Options struct {
	Repository      githubapi.RepositoryReference
	Kind            Kind
	CutoffDays      int
	DryRun          bool
	ExcludePatterns []string
}

// StaleReference is a reference whose last commit precedes the cutoff.
type StaleReference struct {
	Name       string    `yaml:"name"`
	CommitDate time.Time `yaml:"commit_date"`
}

// RetainedReference is a reference kept by the cleanup.
type RetainedReference struct {
	Name   string          `yaml:"name"`
	Reason RetentionReason `yaml:"reason"`
}

// Failure records a reference that could not be evaluated or deleted.
type Failure struct {
	Name      string `yaml:"name"`
	Operation string `yaml:"operation"`
	Message   string `yaml:"message"`
}

// Result summarizes a cleanup pass.
type Result struct {
	Kind     Kind                `yaml:"kind"`
	Cutoff   time.Time           `yaml:"cutoff"`
	DryRun   bool                `yaml:"dry_run"`
	Stale    []StaleReference    `yaml:"stale"`
	Retained []RetainedReference `yaml:"retained"`
	Deleted  []string            `yaml:"deleted"`
	Failures []Failure           `yaml:"failures"`
}
