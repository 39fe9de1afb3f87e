package output

import (
	"fmt"
	"io"

	"github.com/rohankatakam/semdiff/internal/models"
)

// QuietFormatter outputs a one-line summary (for pre-commit hooks)
type QuietFormatter struct{}

func (f *QuietFormatter) Format(report *models.Report, w io.Writer) error {
	s := report.Summary

	if report.Bypassed {
		_, err := fmt.Fprintf(w, "⏭️  bypassed by label %s\n", report.BypassedBy)
		return err
	}

	if s.Changes == 0 && s.Failed == 0 {
		_, err := fmt.Fprintf(w, "✅ no semantic changes\n")
		return err
	}

	touched := 0
	for _, f := range report.Files {
		if len(f.Changes) > 0 {
			touched++
		}
	}

	line := fmt.Sprintf("⚠️  %s: %d changes in %d files", s.MaxSeverity, s.Changes, touched)
	if s.Changes == 0 {
		line = "⚠️  no semantic changes"
	}
	if s.Failed > 0 {
		line += fmt.Sprintf(" (%d failed)", s.Failed)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
