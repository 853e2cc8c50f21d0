package maintenance

import (
	"fmt"

	"github.com/temirov/gitsweep/internal/report"
)

const (
	columnTargetConstant    = "target"
	columnOutcomeConstant   = "outcome"
	columnMessageConstant   = "message"
	summaryTemplateConstant = "%d processed, %d failed"
)

var sectionTitles = map[string]string{
	archiveOperationNameConstant:          "Archive repository",
	deleteFileOperationNameConstant:       "Delete remote files",
	closePullRequestOperationNameConstant: "Close pull requests",
}

// Section renders the result as a report section.
func (result Result) Section() report.Section {
	rows := make([][]string, 0, len(result.Items))
	for _, item := range result.Items {
		rows = append(rows, []string{item.Target, string(item.Outcome), item.Message})
	}

	status := report.StatusSuccess
	if result.Failed() > 0 {
		status = report.StatusWarning
		if result.Failed() == len(result.Items) {
			status = report.StatusFailure
		}
	}

	title, known := sectionTitles[result.Operation]
	if !known {
		title = result.Operation
	}

	return report.Section{
		Title:   title,
		Status:  status,
		Summary: fmt.Sprintf(summaryTemplateConstant, len(result.Items), result.Failed()),
		Columns: []string{columnTargetConstant, columnOutcomeConstant, columnMessageConstant},
		Rows:    rows,
		Data:    result,
	}
}
