package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/rohankatakam/semdiff/internal/changes"
	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/models"
)

// Formatter renders a finished report
type Formatter interface {
	Format(report *models.Report, w io.Writer) error
}

// Format names
const (
	FormatAnnotations = "annotations"
	FormatText        = "text"
	FormatQuiet       = "quiet"
	FormatJSON        = "json"
	FormatYAML        = "yaml"
)

// NewFormatter returns the formatter for name. An empty name picks the
// default for the detected run mode.
func NewFormatter(name string) (Formatter, error) {
	if name == "" {
		name = config.DetectMode().DefaultFormat()
	}

	switch name {
	case FormatAnnotations:
		return &AnnotationFormatter{}, nil
	case FormatText:
		return &TextFormatter{}, nil
	case FormatQuiet:
		return &QuietFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{Indent: true}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", name)
	}
}

// sortedChanges returns the file's changes ordered by position
func sortedChanges(f models.FileReport) []changes.Change {
	out := make([]changes.Change, len(f.Changes))
	copy(out, f.Changes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Column < out[j].Column
	})
	return out
}
