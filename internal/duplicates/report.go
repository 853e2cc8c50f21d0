package duplicates

import (
	"fmt"

	"github.com/docker/go-units"

	"github.com/temirov/gitsweep/internal/report"
)

const (
	sectionTitleConstant          = "Duplicate files"
	summaryTemplateConstant       = "%d duplicates (%s), %d deleted, %d unreadable, %d deletion failures"
	failedSummaryTemplateConstant = "scan failed: %v"
	columnPathConstant            = "path"
	columnOriginalConstant        = "original"
	columnSizeConstant            = "size"
	columnStateConstant           = "state"
	stateDeletedConstant          = "deleted"
	stateKeptConstant             = "kept"
)

// Section renders the result as a report section.
func (result Result) Section() report.Section {
	var duplicateBytes int64
	rows := make([][]string, 0, len(result.Duplicates))
	for _, duplicate := range result.Duplicates {
		duplicateBytes += duplicate.SizeBytes
		state := stateKeptConstant
		if duplicate.Deleted {
			state = stateDeletedConstant
		}
		rows = append(rows, []string{duplicate.Path, duplicate.OriginalPath, units.BytesSize(float64(duplicate.SizeBytes)), state})
	}

	return report.Section{
		Title:   sectionTitleConstant,
		Status:  result.Status(),
		Summary: fmt.Sprintf(summaryTemplateConstant, len(result.Duplicates), units.BytesSize(float64(duplicateBytes)), result.DeletedCount(), len(result.Unreadable), len(result.DeletionFailures)),
		Columns: []string{columnPathConstant, columnOriginalConstant, columnSizeConstant, columnStateConstant},
		Rows:    rows,
		Data:    result,
	}
}

// FailedSection reports a scan that could not start.
func FailedSection(root string, cause error) report.Section {
	return report.Section{
		Title:   sectionTitleConstant,
		Status:  report.StatusFailure,
		Summary: fmt.Sprintf(failedSummaryTemplateConstant, cause),
		Data:    Result{Root: root},
	}
}

// Status reports a warning when anything could not be processed or when
// duplicates remain on disk.
func (result Result) Status() report.Status {
	if len(result.Unreadable) > 0 || len(result.DeletionFailures) > 0 {
		return report.StatusWarning
	}
	if len(result.Duplicates) > result.DeletedCount() {
		return report.StatusWarning
	}
	return report.StatusSuccess
}
