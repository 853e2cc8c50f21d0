package refs

import (
	"fmt"
	"time"

	"github.com/temirov/gitsweep/internal/report"
)

const (
	branchSectionTitleConstant    = "Stale branches"
	tagSectionTitleConstant       = "Stale tags"
	summaryTemplateConstant       = "%d stale, %d deleted, %d retained, %d failed"
	dryRunSummaryTemplateConstant = "%d stale (dry run), %d retained, %d failed"
	columnNameConstant            = "name"
	columnCommitDateConstant      = "commit date"
	columnStateConstant           = "state"
	stateDeletedConstant          = "deleted"
	stateStaleConstant            = "stale"
	stateFailedConstant           = "failed"
	commitDateLayoutConstant      = time.DateOnly
)

// Section renders the result as a report section.
func (result Result) Section() report.Section {
	title := branchSectionTitleConstant
	if result.Kind == KindTag {
		title = tagSectionTitleConstant
	}

	summary := fmt.Sprintf(summaryTemplateConstant, len(result.Stale), len(result.Deleted), len(result.Retained), len(result.Failures))
	if result.DryRun {
		summary = fmt.Sprintf(dryRunSummaryTemplateConstant, len(result.Stale), len(result.Retained), len(result.Failures))
	}

	deletedNames := make(map[string]struct{}, len(result.Deleted))
	for _, deletedName := range result.Deleted {
		deletedNames[deletedName] = struct{}{}
	}
	failedNames := make(map[string]struct{}, len(result.Failures))
	for _, failure := range result.Failures {
		failedNames[failure.Name] = struct{}{}
	}

	rows := make([][]string, 0, len(result.Stale))
	for _, staleReference := range result.Stale {
		state := stateStaleConstant
		if _, deleted := deletedNames[staleReference.Name]; deleted {
			state = stateDeletedConstant
		} else if _, failed := failedNames[staleReference.Name]; failed {
			state = stateFailedConstant
		}
		rows = append(rows, []string{staleReference.Name, staleReference.CommitDate.Format(commitDateLayoutConstant), state})
	}

	return report.Section{
		Title:   title,
		Status:  result.Status(),
		Summary: summary,
		Columns: []string{columnNameConstant, columnCommitDateConstant, columnStateConstant},
		Rows:    rows,
		Data:    result,
	}
}

// Status reports a warning when any reference failed.
func (result Result) Status() report.Status {
	if len(result.Failures) > 0 {
		return report.StatusWarning
	}
	return report.StatusSuccess
}
