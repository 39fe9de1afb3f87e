package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/semdiff/internal/models"
)

// JSONFormatter writes the full report as JSON
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) Format(report *models.Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// YAMLFormatter writes the full report as YAML
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(report *models.Report, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}
