package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/rohankatakam/semdiff/internal/changes"
	"github.com/rohankatakam/semdiff/internal/models"
)

// TextFormatter renders a human summary grouped by file
type TextFormatter struct {
	// ShowSkipped lists out-of-scope files as well
	ShowSkipped bool
}

func (f *TextFormatter) Format(report *models.Report, w io.Writer) error {
	var b strings.Builder

	b.WriteString("🔍 Semantic Diff\n")
	if report.Repository != nil && report.Repository.Branch != "" {
		fmt.Fprintf(&b, "Branch: %s\n", report.Repository.Branch)
	}
	if report.Base != "" {
		fmt.Fprintf(&b, "Range: %s..%s\n", report.Base, headName(report.Head))
	}

	if report.Bypassed {
		fmt.Fprintf(&b, "\nBypassed by label %q, no files analyzed.\n", report.BypassedBy)
		_, err := io.WriteString(w, b.String())
		return err
	}

	s := report.Summary
	fmt.Fprintf(&b, "Files: %d analyzed, %d skipped, %d failed\n\n", s.Analyzed, s.Skipped, s.Failed)

	for _, file := range report.Files {
		switch file.Status {
		case models.FileSkipped:
			if f.ShowSkipped {
				fmt.Fprintf(&b, "%s (skipped: %s)\n\n", file.Path, file.SkipReason)
			}
			continue
		case models.FileFailed:
			fmt.Fprintf(&b, "%s\n  ❌ %s\n\n", fileTitle(file), file.Error)
			continue
		}

		if len(file.Changes) == 0 && len(file.Warnings) == 0 {
			continue
		}

		b.WriteString(fileTitle(file) + "\n")
		for _, c := range sortedChanges(file) {
			fmt.Fprintf(&b, "  %s %4d:%-3d %-28s %s\n", severityEmoji(c.Severity), c.Line, c.Column, c.Kind, c.Detail)
		}
		for _, warning := range file.Warnings {
			fmt.Fprintf(&b, "  ⚠️  %s\n", warning)
		}
		b.WriteString("\n")
	}

	if s.Changes == 0 {
		b.WriteString("No semantic changes.\n")
	} else {
		fmt.Fprintf(&b, "%d changes (%d high, %d medium, %d low)\n",
			s.Changes,
			s.BySeverity[string(changes.SeverityHigh)],
			s.BySeverity[string(changes.SeverityMedium)],
			s.BySeverity[string(changes.SeverityLow)])
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func fileTitle(f models.FileReport) string {
	if f.OldPath != "" && f.OldPath != f.Path {
		return fmt.Sprintf("%s → %s", f.OldPath, f.Path)
	}
	return f.Path
}

func headName(head string) string {
	if head == "" {
		return "working tree"
	}
	return head
}

func severityEmoji(severity changes.Severity) string {
	switch severity {
	case changes.SeverityHigh:
		return "🔴"
	case changes.SeverityMedium:
		return "🟡"
	case changes.SeverityLow:
		return "🔵"
	default:
		return "•"
	}
}
