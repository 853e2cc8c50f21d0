package cleanup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/duplicates"
	"github.com/temirov/gitsweep/internal/execshell"
	"github.com/temirov/gitsweep/internal/githubapi"
	"github.com/temirov/gitsweep/internal/gitignore"
	"github.com/temirov/gitsweep/internal/largefiles"
	"github.com/temirov/gitsweep/internal/maintenance"
	"github.com/temirov/gitsweep/internal/metrics"
	"github.com/temirov/gitsweep/internal/refs"
	"github.com/temirov/gitsweep/internal/report"
)

const (
	stepBranchesConstant                 = "stale branches"
	stepTagsConstant                     = "stale tags"
	stepLargeFilesConstant               = "large files"
	stepDuplicatesConstant               = "duplicate files"
	stepLocalGitignoreConstant           = "local .gitignore"
	stepRemoteGitignoreConstant          = "remote .gitignore"
	stepArchiveConstant                  = "archive"
	stepErrorTemplateConstant            = "%s: %w"
	operationScanLargeFilesConstant      = "scan_large_files"
	operationFindDuplicatesConstant      = "find_duplicates"
	operationLocalGitignoreConstant      = "update_local_gitignore"
	operationRemoteGitignoreConstant     = "update_remote_gitignore"
	clientNotConfiguredMessageConstant   = "cleanup client not configured"
	sequenceStartedMessageConstant       = "Starting repository cleanup"
	sequenceCompletedMessageConstant     = "Repository cleanup completed"
	sequenceFailedMessageConstant        = "Repository cleanup completed with failures"
	stepFailedMessageConstant            = "Cleanup step failed; continuing"
	skippedNoLocalPathSummaryConstant    = "no local path given"
	skippedRemoteDisabledSummaryConstant = "remote update not requested"
	skippedArchiveSummaryConstant        = "archive not requested"
	duplicatesSectionTitleConstant       = "Duplicate files"
	largeFilesSectionTitleConstant       = "Large files"
	localGitignoreSectionTitleConstant   = "Ignore file (local)"
	remoteGitignoreSectionTitleConstant  = "Ignore file (remote)"
	archiveSectionTitleConstant          = "Archive repository"
	logFieldRepositoryConstant           = "repository"
	logFieldStepConstant                 = "step"
	logFieldDryRunConstant               = "dry_run"
	logFieldFailedStepsConstant          = "failed_steps"
)

// ErrClientNotConfigured indicates the runner was constructed without a GitHub client.
var ErrClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)

// Client is the GitHub API surface the cleanup sequence needs.
type Client interface {
	refs.ReferenceClient
	maintenance.RepositoryClient
	gitignore.RemoteClient
}

// Dependencies carries the collaborators of a Runner.
type Dependencies struct {
	Client      Client
	GitExecutor largefiles.GitExecutor
	Filesystem  afero.Fs
	Metrics     *metrics.Recorder
	Clock       refs.Clock
}

// Options configures one cleanup sequence.
type Options struct {
	Repository         githubapi.RepositoryReference
	CutoffDays         int
	ExcludePatterns    []string
	DryRun             bool
	LocalPath          string
	SizeThresholdBytes int64
	DeleteDuplicates   bool
	SkipDirectories    []string
	GitignorePatterns  []string
	RemoteGitignore    bool
	GitignoreBranch    string
	Archive            bool
}

// Report collects the section of every step in execution order.
type Report struct {
	Sections    []report.Section
	FailedSteps []string
}

// Runner performs the full hygiene sequence on one repository.
type Runner struct {
	logger        *zap.Logger
	metrics       *metrics.Recorder
	references    *refs.Service
	maintenance   *maintenance.Service
	scanner       *largefiles.Scanner
	finder        *duplicates.Finder
	localUpdater  *gitignore.LocalUpdater
	remoteUpdater *gitignore.RemoteUpdater
}

// NewRunner wires the step services. A nil filesystem uses the operating
// system filesystem and a nil git executor runs the git binary.
func NewRunner(logger *zap.Logger, dependencies Dependencies) (*Runner, error) {
	if dependencies.Client == nil {
		return nil, ErrClientNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	filesystem := dependencies.Filesystem
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}

	referenceService, referenceError := refs.NewService(logger, dependencies.Client, dependencies.Clock, dependencies.Metrics)
	if referenceError != nil {
		return nil, referenceError
	}
	maintenanceService, maintenanceError := maintenance.NewService(logger, dependencies.Client, dependencies.Metrics)
	if maintenanceError != nil {
		return nil, maintenanceError
	}
	gitExecutor := dependencies.GitExecutor
	if gitExecutor == nil {
		shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
		if executorError != nil {
			return nil, executorError
		}
		gitExecutor = shellExecutor
	}
	scanner, scannerError := largefiles.NewScanner(logger, gitExecutor)
	if scannerError != nil {
		return nil, scannerError
	}
	finder, finderError := duplicates.NewFinder(logger, filesystem)
	if finderError != nil {
		return nil, finderError
	}
	localUpdater, localError := gitignore.NewLocalUpdater(logger, filesystem)
	if localError != nil {
		return nil, localError
	}
	remoteUpdater, remoteError := gitignore.NewRemoteUpdater(logger, dependencies.Client)
	if remoteError != nil {
		return nil, remoteError
	}

	return &Runner{
		logger:        logger,
		metrics:       dependencies.Metrics,
		references:    referenceService,
		maintenance:   maintenanceService,
		scanner:       scanner,
		finder:        finder,
		localUpdater:  localUpdater,
		remoteUpdater: remoteUpdater,
	}, nil
}

// Run executes every step in order. A failing step is logged and collected,
// and the sequence continues; the combined error is returned with the report.
func (runner *Runner) Run(executionContext context.Context, options Options) (Report, error) {
	runner.logger.Info(sequenceStartedMessageConstant,
		zap.String(logFieldRepositoryConstant, options.Repository.String()),
		zap.Bool(logFieldDryRunConstant, options.DryRun),
	)

	var cleanupReport Report
	var combinedError error
	recordStep := func(stepName string, section report.Section, stepError error) {
		if stepError == nil {
			cleanupReport.Sections = append(cleanupReport.Sections, section)
			return
		}
		section.Status = report.StatusFailure
		cleanupReport.Sections = append(cleanupReport.Sections, section)
		runner.logger.Warn(stepFailedMessageConstant, zap.String(logFieldStepConstant, stepName), zap.Error(stepError))
		cleanupReport.FailedSteps = append(cleanupReport.FailedSteps, stepName)
		combinedError = multierr.Append(combinedError, fmt.Errorf(stepErrorTemplateConstant, stepName, stepError))
	}

	for _, kind := range []refs.Kind{refs.KindBranch, refs.KindTag} {
		stepName := stepBranchesConstant
		if kind == refs.KindTag {
			stepName = stepTagsConstant
		}
		referenceResult, referenceError := runner.references.Cleanup(executionContext, refs.Options{
			Repository:      options.Repository,
			Kind:            kind,
			CutoffDays:      options.CutoffDays,
			DryRun:          options.DryRun,
			ExcludePatterns: options.ExcludePatterns,
		})
		recordStep(stepName, referenceResult.Section(), referenceError)
	}

	if options.SizeThresholdBytes <= 0 {
		options.SizeThresholdBytes = largefiles.DefaultThresholdBytes
	}
	if len(options.GitignorePatterns) == 0 {
		options.GitignorePatterns = gitignore.DefaultPatterns
	}

	localPath := strings.TrimSpace(options.LocalPath)
	if len(localPath) == 0 {
		cleanupReport.Sections = append(cleanupReport.Sections,
			skippedSection(largeFilesSectionTitleConstant, skippedNoLocalPathSummaryConstant),
			skippedSection(duplicatesSectionTitleConstant, skippedNoLocalPathSummaryConstant),
			skippedSection(localGitignoreSectionTitleConstant, skippedNoLocalPathSummaryConstant),
		)
	} else {
		largeFilesSection, largeFilesError := runner.scanLargeFiles(executionContext, localPath, options.SizeThresholdBytes)
		recordStep(stepLargeFilesConstant, largeFilesSection, largeFilesError)

		duplicatesSection, duplicatesError := runner.findDuplicates(executionContext, localPath, options)
		recordStep(stepDuplicatesConstant, duplicatesSection, duplicatesError)

		localResult, localError := runner.localUpdater.Update(localPath, options.GitignorePatterns, options.DryRun)
		recordStep(stepLocalGitignoreConstant, runner.gitignoreSection(localResult, localError, operationLocalGitignoreConstant), localError)
	}

	if options.RemoteGitignore {
		remoteResult, remoteError := runner.remoteUpdater.Update(executionContext, options.Repository, options.GitignoreBranch, options.GitignorePatterns, options.DryRun)
		recordStep(stepRemoteGitignoreConstant, runner.gitignoreSection(remoteResult, remoteError, operationRemoteGitignoreConstant), remoteError)
	} else {
		cleanupReport.Sections = append(cleanupReport.Sections, skippedSection(remoteGitignoreSectionTitleConstant, skippedRemoteDisabledSummaryConstant))
	}

	if options.Archive {
		archiveResult, archiveError := runner.maintenance.Archive(executionContext, options.Repository, options.DryRun)
		recordStep(stepArchiveConstant, archiveResult.Section(), archiveError)
	} else {
		cleanupReport.Sections = append(cleanupReport.Sections, skippedSection(archiveSectionTitleConstant, skippedArchiveSummaryConstant))
	}

	if combinedError != nil {
		runner.logger.Warn(sequenceFailedMessageConstant,
			zap.String(logFieldRepositoryConstant, options.Repository.String()),
			zap.Strings(logFieldFailedStepsConstant, cleanupReport.FailedSteps),
		)
	} else {
		runner.logger.Info(sequenceCompletedMessageConstant, zap.String(logFieldRepositoryConstant, options.Repository.String()))
	}
	return cleanupReport, combinedError
}

func (runner *Runner) scanLargeFiles(executionContext context.Context, localPath string, thresholdBytes int64) (report.Section, error) {
	result := largefiles.Result{RepositoryPath: localPath, ThresholdBytes: thresholdBytes}
	largeFiles, scanError := runner.scanner.Scan(executionContext, largefiles.Options{RepositoryPath: localPath, ThresholdBytes: thresholdBytes})
	if scanError != nil {
		runner.metrics.OperationFailed(operationScanLargeFilesConstant)
		result.Error = scanError.Error()
		return result.Section(), scanError
	}
	result.Files = largeFiles
	runner.metrics.LargeFilesFound(len(largeFiles), result.TotalBytes())
	return result.Section(), nil
}

func (runner *Runner) findDuplicates(executionContext context.Context, localPath string, options Options) (report.Section, error) {
	result, findError := runner.finder.Find(executionContext, duplicates.Options{
		Root:            localPath,
		Delete:          options.DeleteDuplicates && !options.DryRun,
		SkipDirectories: options.SkipDirectories,
	})
	if findError != nil {
		runner.metrics.OperationFailed(operationFindDuplicatesConstant)
		return duplicates.FailedSection(localPath, findError), findError
	}
	runner.metrics.DuplicatesFound(len(result.Duplicates), result.DeletedCount())
	return result.Section(), nil
}

func (runner *Runner) gitignoreSection(result gitignore.Result, updateError error, operation string) report.Section {
	if updateError != nil {
		runner.metrics.OperationFailed(operation)
		result.Error = updateError.Error()
		return result.Section()
	}
	if !result.DryRun {
		runner.metrics.GitignorePatternsAdded(len(result.Added))
	}
	return result.Section()
}

func skippedSection(title string, reason string) report.Section {
	return report.Section{Title: title, Status: report.StatusSkipped, Summary: reason}
}
