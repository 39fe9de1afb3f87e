package changes

import (
	"fmt"
	"strings"

	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/errors"
	"github.com/rohankatakam/semdiff/internal/glob"
	"github.com/rohankatakam/semdiff/internal/semantic"
)

// exportAnalyzer matches exports by name
type exportAnalyzer struct{}

func (exportAnalyzer) Name() string { return "exports" }

func (exportAnalyzer) Analyze(base, head *semantic.Context, cfg config.AnalyzerConfig) ([]Change, error) {
	sideEffects, err := glob.CompileAll(cfg.SideEffectCallees, glob.ModeName)
	if err != nil {
		return nil, errors.ValidationErrorf("side_effect_callees: %v", err)
	}

	byName := NewMultimap[semantic.Export]()
	for _, e := range base.Exports {
		byName.Add(e.Name, e)
	}

	var out []Change
	for _, h := range head.Exports {
		b, ok := byName.PopFront(h.Name)
		if !ok {
			if h.Callee != "" && sideEffects.MatchAny(h.Callee) {
				out = append(out, declChange(KindSideEffectExportAdded, SeverityHigh, h.Line, h.Column,
					"export", semantic.TopScope,
					fmt.Sprintf("Export `%s` runs `%s()` when the module loads", h.Name, h.Callee)))
				continue
			}
			out = append(out, declChange(KindExportAdded, SeverityMedium, h.Line, h.Column,
				"export", semantic.TopScope, fmt.Sprintf("New export `%s` (%s)", h.Name, describeExport(h))))
			continue
		}

		if b.Type != h.Type || b.IsDefault != h.IsDefault {
			out = append(out, declChange(KindExportSignatureChanged, SeverityHigh, h.Line, h.Column,
				"export", semantic.TopScope,
				fmt.Sprintf("Export `%s` changed from %s to %s", h.Name, describeExport(b), describeExport(h))))
			continue
		}

		if b.ValueType != "" && h.ValueType != "" && b.ValueType != h.ValueType {
			out = append(out, declChange(KindExportTypeChanged, SeverityMedium, h.Line, h.Column,
				"export", semantic.TopScope,
				fmt.Sprintf("Export `%s` now holds %s (was %s)", h.Name, h.ValueType, b.ValueType)))
		}
	}

	for _, b := range byName.Remaining() {
		out = append(out, declChange(KindExportRemoved, SeverityHigh, b.Line, b.Column,
			"export", semantic.TopScope, fmt.Sprintf("Export `%s` removed", b.Name)))
	}
	return out, nil
}

func describeExport(e semantic.Export) string {
	if e.IsDefault {
		return "default " + e.Type
	}
	return e.Type
}

type importGroup struct {
	first      semantic.Import
	specifiers []string
}

// groupImports merges every import of the same module, keeping the first
// import's position and the union of specifiers in source order
func groupImports(imports []semantic.Import) ([]string, map[string]*importGroup) {
	var order []string
	groups := make(map[string]*importGroup)
	for _, imp := range imports {
		g, ok := groups[imp.Module]
		if !ok {
			g = &importGroup{first: imp}
			groups[imp.Module] = g
			order = append(order, imp.Module)
		}
		for _, s := range imp.Specifiers {
			if !containsString(g.specifiers, s) {
				g.specifiers = append(g.specifiers, s)
			}
		}
	}
	return order, groups
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// importAnalyzer compares imports grouped by module specifier
type importAnalyzer struct{}

func (importAnalyzer) Name() string { return "imports" }

func (importAnalyzer) Analyze(base, head *semantic.Context, cfg config.AnalyzerConfig) ([]Change, error) {
	sideEffects, err := glob.CompileAll(cfg.SideEffectModules, glob.ModeName)
	if err != nil {
		return nil, errors.ValidationErrorf("side_effect_modules: %v", err)
	}

	baseOrder, baseGroups := groupImports(base.Imports)
	headOrder, headGroups := groupImports(head.Imports)

	var out []Change
	for _, module := range headOrder {
		h := headGroups[module]
		b, existed := baseGroups[module]
		if !existed {
			if sideEffects.MatchAny(module) {
				out = append(out, declChange(KindSideEffectImportAdded, SeverityHigh, h.first.Line, h.first.Column,
					"import", semantic.TopScope,
					fmt.Sprintf("Import of `%s` may run side effects when the module loads", module)))
				continue
			}
			out = append(out, declChange(KindImportAdded, SeverityLow, h.first.Line, h.first.Column,
				"import", semantic.TopScope, fmt.Sprintf("New import from `%s`", module)))
			continue
		}

		var added []string
		for _, s := range h.specifiers {
			if !containsString(b.specifiers, s) {
				added = append(added, s)
			}
		}
		if len(added) > 0 {
			out = append(out, declChange(KindImportSpecifiersAdded, SeverityLow, h.first.Line, h.first.Column,
				"import", semantic.TopScope,
				fmt.Sprintf("Now imports %s from `%s`", strings.Join(added, ", "), module)))
		}
	}

	for _, module := range baseOrder {
		if _, kept := headGroups[module]; kept {
			continue
		}
		b := baseGroups[module]
		out = append(out, declChange(KindImportRemoved, SeverityMedium, b.first.Line, b.first.Column,
			"import", semantic.TopScope, fmt.Sprintf("Import from `%s` removed", module)))
	}
	return out, nil
}

// sideEffectCallAnalyzer reports new module-load calls to configured callees
type sideEffectCallAnalyzer struct{}

func (sideEffectCallAnalyzer) Name() string { return "sideEffectCalls" }

func (sideEffectCallAnalyzer) Analyze(base, head *semantic.Context, cfg config.AnalyzerConfig) ([]Change, error) {
	if len(cfg.SideEffectCallees) == 0 {
		return nil, nil
	}
	callees, err := glob.CompileAll(cfg.SideEffectCallees, glob.ModeName)
	if err != nil {
		return nil, errors.ValidationErrorf("side_effect_callees: %v", err)
	}

	before := make(map[string]int)
	for _, c := range base.TopLevelCalls {
		before[c.Callee]++
	}

	var out []Change
	seen := make(map[string]int)
	for _, c := range head.TopLevelCalls {
		seen[c.Callee]++
		if seen[c.Callee] <= before[c.Callee] || !callees.MatchAny(c.Callee) {
			continue
		}
		out = append(out, declChange(KindSideEffectCallAdded, SeverityHigh, c.Line, c.Column,
			"call_expression", semantic.TopScope,
			fmt.Sprintf("New module-level call to `%s()`", c.Callee)))
	}
	return out, nil
}
