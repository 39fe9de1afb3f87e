package analysis

import (
	"path/filepath"

	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/glob"
	"github.com/rohankatakam/semdiff/internal/treesitter"
)

// Skip reasons
const (
	SkipUnsupported = "unsupported language"
	SkipNotIncluded = "not included"
	SkipExcluded    = "excluded"
	SkipTest        = "test file"
)

// ScopeResult explains whether a path is analyzed
type ScopeResult struct {
	InScope bool
	Reason  string // set when InScope is false
}

// Scope decides which changed paths are analyzed
type Scope struct {
	include glob.Set
	exclude glob.Set
	tests   glob.Set
}

// NewScope compiles the path globs of cfg
func NewScope(cfg config.AnalyzerConfig) (*Scope, error) {
	include, err := glob.CompileAll(cfg.Include, glob.ModePath)
	if err != nil {
		return nil, err
	}
	exclude, err := glob.CompileAll(cfg.Exclude, glob.ModePath)
	if err != nil {
		return nil, err
	}
	tests, err := glob.CompileAll(cfg.TestGlobs, glob.ModePath)
	if err != nil {
		return nil, err
	}
	return &Scope{include: include, exclude: exclude, tests: tests}, nil
}

// Check reports whether path is analyzed. A path is in scope when its
// language is supported, it matches an include glob (or none are set), and it
// matches no exclude or test glob.
func (s *Scope) Check(path string) ScopeResult {
	slashed := filepath.ToSlash(path)

	switch {
	case !treesitter.IsSupported(slashed):
		return ScopeResult{Reason: SkipUnsupported}
	case len(s.include) > 0 && !s.include.MatchAny(slashed):
		return ScopeResult{Reason: SkipNotIncluded}
	case s.exclude.MatchAny(slashed):
		return ScopeResult{Reason: SkipExcluded}
	case s.tests.MatchAny(slashed):
		return ScopeResult{Reason: SkipTest}
	}
	return ScopeResult{InScope: true}
}

// BypassLabel returns the first active label listed in the bypass labels
func BypassLabel(cfg config.AnalyzerConfig, active []string) (string, bool) {
	for _, label := range active {
		for _, bypass := range cfg.BypassLabels {
			if label == bypass {
				return label, true
			}
		}
	}
	return "", false
}
