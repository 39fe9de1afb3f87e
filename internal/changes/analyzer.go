package changes

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/semantic"
	"github.com/rohankatakam/semdiff/internal/treesitter"
)

// Analyzer compares one syntactic category between two contexts of the same
// file. Analyzers are independent: each reads only its inputs and config.
type Analyzer interface {
	Name() string
	Analyze(base, head *semantic.Context, cfg config.AnalyzerConfig) ([]Change, error)
}

// Analyzers returns every category analyzer in aggregation order
func Analyzers() []Analyzer {
	return []Analyzer{
		conditionalAnalyzer{},
		loopAnalyzer{},
		tryCatchAnalyzer{},
		throwAnalyzer{},
		destructuringAnalyzer{},
		operatorAnalyzer{},
		functionAnalyzer{},
		classAnalyzer{},
		interfaceAnalyzer{},
		exportAnalyzer{},
		importAnalyzer{},
		stateHookAnalyzer{},
		uiElementAnalyzer{},
		sideEffectCallAnalyzer{},
		complexityAnalyzer{},
	}
}

// occurrence is one syntax node of an analyzed category
type occurrence struct {
	node  *sitter.Node
	scope string
}

// collect returns every node of the given types in source order
func collect(ctx *semantic.Context, types ...string) []occurrence {
	tree := ctx.Tree()
	if tree == nil {
		return nil
	}

	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	var out []occurrence
	treesitter.Walk(tree.Root(), func(n *sitter.Node) bool {
		if want[n.Type()] {
			out = append(out, occurrence{node: n, scope: semantic.ScopeName(n, tree.Source)})
		}
		return true
	})
	return out
}

// ordinalKeys keys each occurrence not yet paired by its ordinal among the
// unpaired occurrences of its scope
func ordinalKeys(occs []occurrence, paired func(int) bool) map[string]int {
	keys := make(map[string]int)
	counters := make(map[string]int)
	for i, o := range occs {
		if paired(i) {
			continue
		}
		keys[fmt.Sprintf("%s#%d", o.scope, counters[o.scope])] = i
		counters[o.scope]++
	}
	return keys
}

// newChange positions a change at node's start token
func newChange(kind Kind, sev Severity, node *sitter.Node, scope, detail string) Change {
	line, col := treesitter.Position(node)
	c := Change{
		Kind:     kind,
		Severity: sev,
		Line:     line,
		Column:   col,
		Detail:   detail,
		ASTNode:  node.Type(),
		Context:  scope,
	}
	if end := treesitter.EndLine(node); end > line {
		c.EndLine = end
	}
	return c
}

// declChange positions a change at a declaration's recorded location
func declChange(kind Kind, sev Severity, line, col int, astNode, scope, detail string) Change {
	return Change{
		Kind:     kind,
		Severity: sev,
		Line:     line,
		Column:   col,
		Detail:   detail,
		ASTNode:  astNode,
		Context:  scope,
	}
}

// text returns the normalized token text of a node in ctx
func text(ctx *semantic.Context, n *sitter.Node) string {
	return semantic.NodeText(n, ctx.Source())
}

// snippet shortens text for change details
func snippet(s string) string {
	const maxLen = 60
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func scopeSuffix(scope string) string {
	if scope == "" || scope == semantic.TopScope {
		return ""
	}
	return " in " + scope
}
