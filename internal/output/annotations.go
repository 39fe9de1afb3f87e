package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/rohankatakam/semdiff/internal/changes"
	"github.com/rohankatakam/semdiff/internal/models"
)

// AnnotationFormatter emits GitHub Actions workflow commands, one per change
type AnnotationFormatter struct{}

var annotationEscaper = strings.NewReplacer(
	"%", "%25",
	"::", "%3A%3A",
	"\r", "%0D",
	"\n", "%0A",
)

func escapeAnnotation(s string) string {
	return annotationEscaper.Replace(s)
}

// annotationLevel maps a severity to a workflow command
func annotationLevel(s changes.Severity) string {
	switch s {
	case changes.SeverityHigh:
		return "error"
	case changes.SeverityMedium:
		return "warning"
	default:
		return "notice"
	}
}

func (f *AnnotationFormatter) Format(report *models.Report, w io.Writer) error {
	if report.Bypassed {
		_, err := fmt.Fprintf(w, "::notice::%s\n", escapeAnnotation("semantic diff bypassed by label "+report.BypassedBy))
		return err
	}

	for _, file := range report.Files {
		if file.Status == models.FileFailed {
			if _, err := fmt.Fprintf(w, "::error file=%s::%s\n", file.Path, escapeAnnotation(file.Error)); err != nil {
				return err
			}
			continue
		}

		for _, c := range sortedChanges(file) {
			if _, err := fmt.Fprintln(w, annotation(file.Path, c)); err != nil {
				return err
			}
		}
		for _, warning := range file.Warnings {
			if _, err := fmt.Fprintf(w, "::warning file=%s::%s\n", file.Path, escapeAnnotation(warning)); err != nil {
				return err
			}
		}
	}
	return nil
}

func annotation(path string, c changes.Change) string {
	var b strings.Builder
	fmt.Fprintf(&b, "::%s file=%s,line=%d", annotationLevel(c.Severity), path, c.Line)
	if c.EndLine > c.Line {
		fmt.Fprintf(&b, ",endLine=%d", c.EndLine)
	}
	fmt.Fprintf(&b, ",title=%s::%s", escapeAnnotation(string(c.Kind)), escapeAnnotation(c.Detail))
	return b.String()
}
