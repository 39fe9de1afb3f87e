package changes

import (
	"fmt"

	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/semantic"
)

// fileComplexityDelta is the file-wide change in cyclomatic estimate that is
// worth reporting
const fileComplexityDelta = 5

type complexityAnalyzer struct{}

func (complexityAnalyzer) Name() string { return "complexity" }

func (complexityAnalyzer) Analyze(base, head *semantic.Context, _ config.AnalyzerConfig) ([]Change, error) {
	delta := head.Complexity - base.Complexity
	if delta <= fileComplexityDelta && delta >= -fileComplexityDelta {
		return nil, nil
	}

	direction := "increased"
	if delta < 0 {
		direction = "decreased"
	}
	return []Change{declChange(KindComplexityChanged, SeverityMedium, 1, 1, "program", semantic.TopScope,
		fmt.Sprintf("File complexity %s from %d to %d", direction, base.Complexity, head.Complexity))}, nil
}
