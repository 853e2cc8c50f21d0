package gitignore

import "strings"

const (
	// FileName is the ignore file managed by the updaters.
	FileName = ".gitignore"
	// SectionHeader precedes every block of appended patterns.
	SectionHeader = "# Entries added by gitsweep"

	lineSeparatorConstant = "\n"
)

// DefaultPatterns lists the boilerplate entries for operating system files,
// editor state, Python and Node build output, logs and scratch files.
var DefaultPatterns = []string{
	".DS_Store",
	"*.DS_Store",
	"Thumbs.db",
	".vscode/",
	".idea/",
	"*.iml",
	"*.suo",
	"*.user",
	"*.sln.docstates",
	"*.py[cod]",
	"*.pyc",
	"*.pyo",
	"__pycache__/",
	"*.pyd",
	"*.pdb",
	"*.egg-info/",
	"node_modules/",
	"npm-debug.log*",
	"yarn-debug.log*",
	"yarn-error.log*",
	"*.log",
	"*.tmp",
	"*.bak",
	"*.swp",
	"*.swo",
}

// Merge appends the patterns missing from existing under SectionHeader.
// Lines are compared after trimming; patterns are added once each, in the
// order given. When nothing is missing existing is returned unchanged.
func Merge(existing string, patterns []string) (string, []string) {
	presentLines := map[string]struct{}{}
	for _, line := range strings.Split(existing, lineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) > 0 {
			presentLines[trimmedLine] = struct{}{}
		}
	}

	var addedPatterns []string
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if len(trimmedPattern) == 0 {
			continue
		}
		if _, present := presentLines[trimmedPattern]; present {
			continue
		}
		presentLines[trimmedPattern] = struct{}{}
		addedPatterns = append(addedPatterns, trimmedPattern)
	}
	if len(addedPatterns) == 0 {
		return existing, nil
	}

	var builder strings.Builder
	builder.WriteString(existing)
	if len(existing) > 0 {
		if !strings.HasSuffix(existing, lineSeparatorConstant) {
			builder.WriteString(lineSeparatorConstant)
		}
		builder.WriteString(lineSeparatorConstant)
	}
	builder.WriteString(SectionHeader)
	builder.WriteString(lineSeparatorConstant)
	for _, pattern := range addedPatterns {
		builder.WriteString(pattern)
		builder.WriteString(lineSeparatorConstant)
	}
	return builder.String(), addedPatterns
}
