package semantic

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/rohankatakam/semdiff/internal/treesitter"
)

// IsDecisionPoint reports whether a node adds a branch to cyclomatic complexity
func IsDecisionPoint(n *sitter.Node) bool {
	switch n.Type() {
	case "if_statement", "for_statement", "for_in_statement", "while_statement",
		"do_statement", "switch_case", "catch_clause", "ternary_expression":
		return true
	case "binary_expression":
		return IsLogicalOperator(BinaryOperator(n))
	}
	return false
}

// Complexity returns 1 plus the number of decision points under node.
// Nested functions count towards their enclosing function.
func Complexity(node *sitter.Node) int {
	if node == nil {
		return 1
	}
	score := 1
	treesitter.Walk(node, func(n *sitter.Node) bool {
		if IsDecisionPoint(n) {
			score++
		}
		return true
	})
	return score
}

// BinaryOperator returns the operator token of a binary_expression
func BinaryOperator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	return ""
}

// IsLogicalOperator reports whether op is a short-circuit operator
func IsLogicalOperator(op string) bool {
	switch op {
	case "&&", "||", "??":
		return true
	}
	return false
}

// IsComparisonOperator reports whether op compares its operands
func IsComparisonOperator(op string) bool {
	switch op {
	case "==", "===", "!=", "!==", "<", "<=", ">", ">=":
		return true
	}
	return false
}
