package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

const (
	formatTableValueConstant                = "table"
	formatYAMLValueConstant                 = "yaml"
	unsupportedFormatTemplateConstant       = "unsupported output format %q (expected table or yaml)"
	sectionTitleTemplateConstant            = "== %s =="
	sectionTitleWithSummaryTemplateConstant = "== %s: %s =="
	tableColumnSeparatorConstant            = "\t"
	tableRowTerminatorConstant              = "\n"
	tableMinimumWidthConstant               = 0
	tableTabWidthConstant                   = 8
	tablePaddingConstant                    = 2
	tablePaddingCharacterConstant           = ' '
	yamlIndentConstant                      = 2
	renderWriteErrorTemplateConstant        = "unable to write report: %w"
	renderYAMLEncodeErrorTemplateConstant   = "unable to encode report: %w"
)

// Format selects how sections are rendered.
type Format string

// Supported report formats.
const (
	FormatTable Format = Format(formatTableValueConstant)
	FormatYAML  Format = Format(formatYAMLValueConstant)
)

// ParseFormat validates a user-supplied output format. Empty input selects the table format.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", formatTableValueConstant:
		return FormatTable, nil
	case formatYAMLValueConstant:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf(unsupportedFormatTemplateConstant, value)
	}
}

// Status classifies the outcome summarized by a section.
type Status string

// Section statuses.
const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusFailure Status = "failure"
	StatusSkipped Status = "skipped"
)

// Section is one titled block of a report. Columns and Rows feed the table
// format; Data is what the YAML format serializes.
type Section struct {
	Title   string
	Status  Status
	Summary string
	Columns []string
	Rows    [][]string
	Data    any
}

type yamlSection struct {
	Title   string `yaml:"title"`
	Status  Status `yaml:"status"`
	Summary string `yaml:"summary,omitempty"`
	Data    any    `yaml:"data,omitempty"`
}

// Renderer writes report sections to an output stream.
type Renderer struct {
	writer  io.Writer
	format  Format
	palette map[Status]*color.Color
}

// NewRenderer constructs a Renderer. Colors apply only to the table format
// and only when colorEnabled is true.
func NewRenderer(writer io.Writer, format Format, colorEnabled bool) *Renderer {
	palette := map[Status]*color.Color{
		StatusSuccess: color.New(color.FgGreen, color.Bold),
		StatusWarning: color.New(color.FgYellow, color.Bold),
		StatusFailure: color.New(color.FgRed, color.Bold),
		StatusSkipped: color.New(color.FgCyan),
	}
	for _, statusColor := range palette {
		if colorEnabled {
			statusColor.EnableColor()
		} else {
			statusColor.DisableColor()
		}
	}
	if len(format) == 0 {
		format = FormatTable
	}
	return &Renderer{writer: writer, format: format, palette: palette}
}

// Render writes every section in order.
func (renderer *Renderer) Render(sections ...Section) error {
	if renderer == nil || renderer.writer == nil || len(sections) == 0 {
		return nil
	}
	if renderer.format == FormatYAML {
		return renderer.renderYAML(sections)
	}
	for _, section := range sections {
		if renderError := renderer.renderTable(section); renderError != nil {
			return renderError
		}
	}
	return nil
}

func (renderer *Renderer) renderTable(section Section) error {
	title := fmt.Sprintf(sectionTitleTemplateConstant, section.Title)
	if trimmedSummary := strings.TrimSpace(section.Summary); len(trimmedSummary) > 0 {
		title = fmt.Sprintf(sectionTitleWithSummaryTemplateConstant, section.Title, trimmedSummary)
	}
	if statusColor, known := renderer.palette[section.Status]; known {
		title = statusColor.Sprint(title)
	}
	if _, writeError := fmt.Fprintln(renderer.writer, title); writeError != nil {
		return fmt.Errorf(renderWriteErrorTemplateConstant, writeError)
	}
	if len(section.Rows) == 0 {
		return nil
	}

	tableWriter := tabwriter.NewWriter(renderer.writer, tableMinimumWidthConstant, tableTabWidthConstant, tablePaddingConstant, tablePaddingCharacterConstant, 0)
	if len(section.Columns) > 0 {
		headerCells := make([]string, 0, len(section.Columns))
		for _, column := range section.Columns {
			headerCells = append(headerCells, strings.ToUpper(column))
		}
		if _, writeError := io.WriteString(tableWriter, strings.Join(headerCells, tableColumnSeparatorConstant)+tableRowTerminatorConstant); writeError != nil {
			return fmt.Errorf(renderWriteErrorTemplateConstant, writeError)
		}
	}
	for _, row := range section.Rows {
		if _, writeError := io.WriteString(tableWriter, strings.Join(row, tableColumnSeparatorConstant)+tableRowTerminatorConstant); writeError != nil {
			return fmt.Errorf(renderWriteErrorTemplateConstant, writeError)
		}
	}
	if flushError := tableWriter.Flush(); flushError != nil {
		return fmt.Errorf(renderWriteErrorTemplateConstant, flushError)
	}
	return nil
}

func (renderer *Renderer) renderYAML(sections []Section) error {
	documents := make([]yamlSection, 0, len(sections))
	for _, section := range sections {
		documents = append(documents, yamlSection{
			Title:   section.Title,
			Status:  section.Status,
			Summary: strings.TrimSpace(section.Summary),
			Data:    section.Data,
		})
	}

	encoder := yaml.NewEncoder(renderer.writer)
	encoder.SetIndent(yamlIndentConstant)
	if encodeError := encoder.Encode(documents); encodeError != nil {
		return fmt.Errorf(renderYAMLEncodeErrorTemplateConstant, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf(renderYAMLEncodeErrorTemplateConstant, closeError)
	}
	return nil
}
