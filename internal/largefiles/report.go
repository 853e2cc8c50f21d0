package largefiles

import (
	"fmt"
	"strconv"

	"github.com/docker/go-units"

	"github.com/temirov/gitsweep/internal/report"
)

const (
	sectionTitleConstant            = "Large files"
	summaryTemplateConstant         = "%d above %s, %s total"
	failedSummaryTemplateConstant   = "scan failed: %v"
	columnPathConstant              = "path"
	columnSizeConstant              = "size"
	columnBytesConstant             = "bytes"
	columnObjectConstant            = "object"
	abbreviatedObjectLengthConstant = 12
)

// Result captures the outcome of a scan for reporting.
type Result struct {
	RepositoryPath string      `yaml:"repository_path"`
	ThresholdBytes int64       `yaml:"threshold_bytes"`
	Files          []LargeFile `yaml:"files"`
	Error          string      `yaml:"error,omitempty"`
}

// TotalBytes sums the size of every reported file.
func (result Result) TotalBytes() int64 {
	var totalBytes int64
	for _, largeFile := range result.Files {
		totalBytes += largeFile.SizeBytes
	}
	return totalBytes
}

// Section renders the result as a report section.
func (result Result) Section() report.Section {
	if len(result.Error) > 0 {
		return report.Section{
			Title:   sectionTitleConstant,
			Status:  report.StatusFailure,
			Summary: fmt.Sprintf(failedSummaryTemplateConstant, result.Error),
			Data:    result,
		}
	}

	rows := make([][]string, 0, len(result.Files))
	for _, largeFile := range result.Files {
		objectID := largeFile.ObjectID
		if len(objectID) > abbreviatedObjectLengthConstant {
			objectID = objectID[:abbreviatedObjectLengthConstant]
		}
		rows = append(rows, []string{largeFile.Path, largeFile.HumanSize(), strconv.FormatInt(largeFile.SizeBytes, 10), objectID})
	}

	status := report.StatusSuccess
	if len(result.Files) > 0 {
		status = report.StatusWarning
	}

	return report.Section{
		Title:   sectionTitleConstant,
		Status:  status,
		Summary: fmt.Sprintf(summaryTemplateConstant, len(result.Files), units.BytesSize(float64(result.ThresholdBytes)), units.BytesSize(float64(result.TotalBytes()))),
		Columns: []string{columnPathConstant, columnSizeConstant, columnBytesConstant, columnObjectConstant},
		Rows:    rows,
		Data:    result,
	}
}
