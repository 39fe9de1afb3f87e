package changes

import (
	"fmt"

	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/errors"
	"github.com/rohankatakam/semdiff/internal/logging"
	"github.com/rohankatakam/semdiff/internal/semantic"
)

// AnalyzerError records an analyzer that failed on one file pair
type AnalyzerError struct {
	Analyzer string
	Err      error
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("analyzer %s: %v", e.Analyzer, e.Err)
}

func (e *AnalyzerError) Unwrap() error {
	return e.Err
}

// Detect runs every analyzer over base and head and concatenates their
// results in analyzer order. Failing analyzers are logged and contribute
// nothing. The result is never nil.
func Detect(base, head *semantic.Context, cfg config.AnalyzerConfig) []Change {
	out, failures := DetectAll(base, head, cfg)
	for _, f := range failures {
		logging.Warn("analyzer failed", "analyzer", f.Analyzer, "path", head.Path, "error", f.Err)
	}
	return out
}

// DetectAll is Detect that also returns per-analyzer failures
func DetectAll(base, head *semantic.Context, cfg config.AnalyzerConfig) ([]Change, []*AnalyzerError) {
	out := make([]Change, 0)
	var failures []*AnalyzerError

	for _, a := range Analyzers() {
		found, err := runAnalyzer(a, base, head, cfg)
		if err != nil {
			failures = append(failures, &AnalyzerError{Analyzer: a.Name(), Err: err})
			continue
		}
		out = append(out, found...)
	}
	return out, failures
}

func runAnalyzer(a Analyzer, base, head *semantic.Context, cfg config.AnalyzerConfig) (found []Change, err error) {
	defer func() {
		if r := recover(); r != nil {
			found = nil
			err = errors.InternalErrorf("panic: %v", r)
		}
	}()
	return a.Analyze(base, head, cfg)
}
