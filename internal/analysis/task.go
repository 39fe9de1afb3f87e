// Package analysis runs the semantic change pipeline over file pairs: one
// task per file, isolated from every other task.
package analysis

import (
	"context"
	"fmt"

	"github.com/rohankatakam/semdiff/internal/changes"
	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/errors"
	"github.com/rohankatakam/semdiff/internal/semantic"
	"github.com/rohankatakam/semdiff/internal/treesitter"
)

// FilePair holds both versions of one file. A nil side stands for a file that
// does not exist in that version.
type FilePair struct {
	Path    string `json:"path"`
	OldPath string `json:"old_path,omitempty"`
	Base    []byte `json:"base,omitempty"`
	Head    []byte `json:"head,omitempty"`
}

// basePath is the path the base version is parsed as
func (p FilePair) basePath() string {
	if p.OldPath != "" && treesitter.IsSupported(p.OldPath) {
		return p.OldPath
	}
	return p.Path
}

// Outcome is the result of analyzing one file pair
type Outcome struct {
	Language string           `json:"language"`
	Changes  []changes.Change `json:"changes"`
	// Warnings name analyzers that failed; their categories are missing from Changes
	Warnings        []string `json:"warnings,omitempty"`
	FailedAnalyzers []string `json:"failed_analyzers,omitempty"`
}

// validate rejects outcomes that did not come from this build's analyzers,
// such as a stale cache entry or a mismatched worker binary
func (o *Outcome) validate() error {
	for _, c := range o.Changes {
		if !c.Kind.Known() {
			return fmt.Errorf("unknown change kind %q", c.Kind)
		}
	}
	return nil
}

// Analyze parses both versions, builds their contexts and detects changes.
// A version that fails to parse fails the whole pair.
func Analyze(ctx context.Context, pair FilePair, cfg config.AnalyzerConfig) (*Outcome, error) {
	if !treesitter.IsSupported(pair.Path) {
		return nil, errors.ValidationErrorf("unsupported file type: %s", pair.Path)
	}

	baseTree, err := treesitter.Parse(ctx, pair.basePath(), pair.Base)
	if err != nil {
		return nil, err
	}
	defer baseTree.Close()

	headTree, err := treesitter.Parse(ctx, pair.Path, pair.Head)
	if err != nil {
		return nil, err
	}
	defer headTree.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := semantic.Build(baseTree)
	head := semantic.Build(headTree)

	found, failures := changes.DetectAll(base, head, cfg)
	out := &Outcome{
		Language: headTree.Language,
		Changes:  found,
	}
	for _, f := range failures {
		out.Warnings = append(out.Warnings, f.Error())
		out.FailedAnalyzers = append(out.FailedAnalyzers, f.Analyzer)
	}
	return out, nil
}
