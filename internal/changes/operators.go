package changes

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/semantic"
	"github.com/rohankatakam/semdiff/internal/treesitter"
)

type operatorSite struct {
	op       string
	left     string
	right    string
	node     *sitter.Node
	scope    string
	category Kind
}

// operatorAnalyzer reports comparison and logical operators swapped in place.
// Sites are keyed by the position of the operator token; added or removed
// expressions are left to the other analyzers.
type operatorAnalyzer struct{}

func (operatorAnalyzer) Name() string { return "operators" }

func (operatorAnalyzer) Analyze(base, head *semantic.Context, _ config.AnalyzerConfig) ([]Change, error) {
	baseSites := operatorSites(base)

	var out []Change
	for _, h := range orderedSites(head) {
		b, ok := baseSites[h.pos]
		if !ok {
			continue
		}
		if b.op == h.op || b.category != h.category {
			continue
		}
		if b.left != h.left || b.right != h.right {
			continue
		}

		label := "Comparison"
		if h.category == KindLogicalOperatorChanged {
			label = "Logical"
		}
		out = append(out, newChange(h.category, SeverityMedium, h.node, h.scope,
			fmt.Sprintf("%s operator changed from `%s` to `%s` in `%s`",
				label, b.op, h.op, snippet(h.left+" "+h.op+" "+h.right))))
	}
	return out, nil
}

type position struct {
	line, col int
}

type positionedSite struct {
	pos position
	operatorSite
}

func orderedSites(ctx *semantic.Context) []positionedSite {
	var out []positionedSite
	for _, o := range collect(ctx, "binary_expression") {
		op := o.node.ChildByFieldName("operator")
		if op == nil {
			continue
		}

		var category Kind
		switch token := op.Type(); {
		case semantic.IsComparisonOperator(token):
			category = KindComparisonOperatorChanged
		case semantic.IsLogicalOperator(token):
			category = KindLogicalOperatorChanged
		default:
			continue
		}

		line, col := treesitter.Position(op)
		out = append(out, positionedSite{
			pos: position{line, col},
			operatorSite: operatorSite{
				op:       op.Type(),
				left:     text(ctx, o.node.ChildByFieldName("left")),
				right:    text(ctx, o.node.ChildByFieldName("right")),
				node:     o.node,
				scope:    o.scope,
				category: category,
			},
		})
	}
	return out
}

func operatorSites(ctx *semantic.Context) map[position]operatorSite {
	sites := make(map[position]operatorSite)
	for _, s := range orderedSites(ctx) {
		sites[s.pos] = s.operatorSite
	}
	return sites
}
