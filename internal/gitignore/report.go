package gitignore

import (
	"fmt"
	"strings"

	"github.com/temirov/gitsweep/internal/report"
)

const (
	localSectionTitleConstant       = "Ignore file (local)"
	remoteSectionTitleConstant      = "Ignore file (remote)"
	addedSummaryTemplateConstant    = "%d patterns added to %s"
	plannedSummaryTemplateConstant  = "%d patterns would be added to %s"
	createdSuffixConstant           = " (created)"
	upToDateSummaryTemplateConstant = "%s already up to date"
	failedSummaryTemplateConstant   = "update of %s failed: %s"
	columnPatternConstant           = "pattern"
)

// Section renders the result as a report section.
func (result Result) Section() report.Section {
	title := localSectionTitleConstant
	if result.Remote {
		title = remoteSectionTitleConstant
	}

	if len(result.Error) > 0 {
		return report.Section{
			Title:   title,
			Status:  report.StatusFailure,
			Summary: fmt.Sprintf(failedSummaryTemplateConstant, result.Location, result.Error),
			Data:    result,
		}
	}

	var summary string
	switch {
	case len(result.Added) == 0:
		summary = fmt.Sprintf(upToDateSummaryTemplateConstant, result.Location)
	case result.DryRun:
		summary = fmt.Sprintf(plannedSummaryTemplateConstant, len(result.Added), result.Location)
	default:
		summary = fmt.Sprintf(addedSummaryTemplateConstant, len(result.Added), result.Location)
	}
	if result.Created && len(result.Added) > 0 {
		summary += createdSuffixConstant
	}

	rows := make([][]string, 0, len(result.Added))
	for _, addedPattern := range result.Added {
		rows = append(rows, []string{addedPattern})
	}

	return report.Section{
		Title:   title,
		Status:  report.StatusSuccess,
		Summary: strings.TrimSpace(summary),
		Columns: []string{columnPatternConstant},
		Rows:    rows,
		Data:    result,
	}
}
