package refs

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/githubapi"
)

const (
	// DefaultCutoffDays is the age after which a branch or tag is considered stale.
	DefaultCutoffDays = 180

	hoursPerDayConstant                   = 24
	unsupportedKindTemplateConstant       = "unsupported reference kind %q"
	listReferencesErrorTemplateConstant   = "unable to list %s: %w"
	clientNotConfiguredMessageConstant    = "reference client not configured"
	resolveDateOperationTemplateConstant  = "resolve_%s_date"
	deleteOperationTemplateConstant       = "delete_%s"
	listOperationTemplateConstant         = "list_%s"
	branchPluralLabelConstant             = "branches"
	tagPluralLabelConstant                = "tags"
	scanStartedMessageConstant            = "Scanning references for staleness"
	referenceExcludedMessageConstant      = "Reference excluded from cleanup"
	commitDateUnavailableMessageConstant  = "Unable to determine last commit date; skipping"
	referenceRecentMessageConstant        = "Reference is recent; keeping"
	referenceStaleMessageConstant         = "Reference is stale"
	referenceDryRunMessageConstant        = "DRY-RUN: would delete stale reference"
	referenceDeleteFailedMessageConstant  = "Unable to delete stale reference; skipping"
	referenceDeletedMessageConstant       = "Deleted stale reference"
	noStaleReferencesMessageConstant      = "No stale references found"
	staleReferencesDeletedMessageConstant = "Deleted stale references"
	staleReferencesDryRunSummaryConstant  = "DRY-RUN: stale references left in place"
	invalidExcludePatternMessageConstant  = "Ignoring invalid exclude pattern"
	logFieldRepositoryConstant            = "repository"
	logFieldKindConstant                  = "kind"
	logFieldNameConstant                  = "name"
	logFieldCutoffConstant                = "cutoff"
	logFieldCommitDateConstant            = "commit_date"
	logFieldPatternConstant               = "pattern"
	logFieldNamesConstant                 = "names"
	logFieldCountConstant                 = "count"
)

// ErrClientNotConfigured indicates the service was constructed without a client.
var ErrClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)

// Service finds and deletes stale branches and tags.
type Service struct {
	logger  *zap.Logger
	client  ReferenceClient
	clock   Clock
	metrics MetricsRecorder
}

// NewService constructs a Service. A nil clock uses SystemClock; a nil metrics recorder discards outcomes.
func NewService(logger *zap.Logger, client ReferenceClient, clock Clock, metrics MetricsRecorder) (*Service, error) {
	if client == nil {
		return nil, ErrClientNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{logger: logger, client: client, clock: clock, metrics: metrics}, nil
}

// Cutoff returns the instant before which a last commit makes a reference stale.
func Cutoff(now time.Time, cutoffDays int) time.Time {
	if cutoffDays <= 0 {
		cutoffDays = DefaultCutoffDays
	}
	return now.Add(-time.Duration(cutoffDays) * hoursPerDayConstant * time.Hour)
}

// Cleanup lists references of the requested kind, classifies each against
// the cutoff and deletes the stale ones unless running dry. Per-reference
// failures are logged and recorded, and never stop the pass. Only a listing
// failure is returned as an error.
func (service *Service) Cleanup(executionContext context.Context, options Options) (Result, error) {
	if options.Kind != KindBranch && options.Kind != KindTag {
		return Result{}, fmt.Errorf(unsupportedKindTemplateConstant, options.Kind)
	}

	cutoff := Cutoff(service.clock.Now(), options.CutoffDays)
	result := Result{Kind: options.Kind, Cutoff: cutoff, DryRun: options.DryRun}
	kindLabel := string(options.Kind)
	repositoryLabel := options.Repository.String()
	excludePatterns := service.validExcludePatterns(options.ExcludePatterns)

	service.logger.Info(scanStartedMessageConstant,
		zap.String(logFieldRepositoryConstant, repositoryLabel),
		zap.String(logFieldKindConstant, kindLabel),
		zap.Time(logFieldCutoffConstant, cutoff),
	)

	references, listError := service.listReferences(executionContext, options)
	if listError != nil {
		service.recordFailure(fmt.Sprintf(listOperationTemplateConstant, options.Kind.plural()))
		return result, fmt.Errorf(listReferencesErrorTemplateConstant, options.Kind.plural(), listError)
	}

	for _, reference := range references {
		referenceFields := []zap.Field{
			zap.String(logFieldRepositoryConstant, repositoryLabel),
			zap.String(logFieldKindConstant, kindLabel),
			zap.String(logFieldNameConstant, reference.Name),
		}

		if matchesAny(reference.Name, excludePatterns) {
			service.logger.Debug(referenceExcludedMessageConstant, referenceFields...)
			result.Retained = append(result.Retained, RetainedReference{Name: reference.Name, Reason: RetentionReasonExcluded})
			continue
		}

		commitDate, dateError := service.client.ResolveCommitDate(executionContext, options.Repository, reference.CommitSHA)
		if dateError != nil {
			operation := fmt.Sprintf(resolveDateOperationTemplateConstant, kindLabel)
			service.logger.Warn(commitDateUnavailableMessageConstant, append(referenceFields, zap.Error(dateError))...)
			result.Failures = append(result.Failures, Failure{Name: reference.Name, Operation: operation, Message: dateError.Error()})
			service.recordFailure(operation)
			continue
		}

		referenceFields = append(referenceFields, zap.Time(logFieldCommitDateConstant, commitDate))
		if !commitDate.Before(cutoff) {
			service.logger.Debug(referenceRecentMessageConstant, referenceFields...)
			result.Retained = append(result.Retained, RetainedReference{Name: reference.Name, Reason: RetentionReasonRecent})
			continue
		}

		service.logger.Debug(referenceStaleMessageConstant, referenceFields...)
		result.Stale = append(result.Stale, StaleReference{Name: reference.Name, CommitDate: commitDate})

		if options.DryRun {
			service.logger.Info(referenceDryRunMessageConstant, referenceFields...)
			continue
		}

		if deleteError := service.deleteReference(executionContext, options, reference.Name); deleteError != nil {
			operation := fmt.Sprintf(deleteOperationTemplateConstant, kindLabel)
			service.logger.Warn(referenceDeleteFailedMessageConstant, append(referenceFields, zap.Error(deleteError))...)
			result.Failures = append(result.Failures, Failure{Name: reference.Name, Operation: operation, Message: deleteError.Error()})
			service.recordFailure(operation)
			continue
		}

		service.logger.Info(referenceDeletedMessageConstant, referenceFields...)
		result.Deleted = append(result.Deleted, reference.Name)
		if service.metrics != nil {
			service.metrics.ReferenceDeleted(kindLabel)
		}
	}

	if service.metrics != nil {
		service.metrics.ReferencesStale(kindLabel, len(result.Stale))
	}
	service.logSummary(result, repositoryLabel)

	return result, nil
}

func (service *Service) listReferences(executionContext context.Context, options Options) ([]githubapi.Reference, error) {
	if options.Kind == KindTag {
		return service.client.ListTags(executionContext, options.Repository)
	}
	return service.client.ListBranches(executionContext, options.Repository)
}

func (service *Service) deleteReference(executionContext context.Context, options Options, name string) error {
	if options.Kind == KindTag {
		return service.client.DeleteTag(executionContext, options.Repository, name)
	}
	return service.client.DeleteBranch(executionContext, options.Repository, name)
}

func (service *Service) logSummary(result Result, repositoryLabel string) {
	summaryFields := []zap.Field{
		zap.String(logFieldRepositoryConstant, repositoryLabel),
		zap.String(logFieldKindConstant, string(result.Kind)),
	}
	switch {
	case len(result.Stale) == 0:
		service.logger.Info(noStaleReferencesMessageConstant, summaryFields...)
	case result.DryRun:
		staleNames := make([]string, 0, len(result.Stale))
		for _, staleReference := range result.Stale {
			staleNames = append(staleNames, staleReference.Name)
		}
		service.logger.Info(staleReferencesDryRunSummaryConstant, append(summaryFields, zap.Strings(logFieldNamesConstant, staleNames))...)
	default:
		service.logger.Info(staleReferencesDeletedMessageConstant, append(summaryFields,
			zap.Int(logFieldCountConstant, len(result.Deleted)),
			zap.Strings(logFieldNamesConstant, result.Deleted),
		)...)
	}
}

func (service *Service) validExcludePatterns(patterns []string) []string {
	validPatterns := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if len(trimmedPattern) == 0 {
			continue
		}
		if _, matchError := path.Match(trimmedPattern, ""); matchError != nil {
			service.logger.Warn(invalidExcludePatternMessageConstant, zap.String(logFieldPatternConstant, trimmedPattern), zap.Error(matchError))
			continue
		}
		validPatterns = append(validPatterns, trimmedPattern)
	}
	return validPatterns
}

func (service *Service) recordFailure(operation string) {
	if service.metrics != nil {
		service.metrics.OperationFailed(operation)
	}
}

func (kind Kind) plural() string {
	if kind == KindTag {
		return tagPluralLabelConstant
	}
	return branchPluralLabelConstant
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := path.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
