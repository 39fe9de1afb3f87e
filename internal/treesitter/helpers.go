package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// NodeContent extracts text from a node using byte offsets
func NodeContent(node *sitter.Node, code []byte) string {
	if node == nil {
		return ""
	}
	start := int(node.StartByte())
	end := int(node.EndByte())
	if end > len(code) {
		end = len(code)
	}
	if start > end {
		return ""
	}
	return string(code[start:end])
}

// Position returns the 1-indexed (line, column) of a node's start token
func Position(node *sitter.Node) (int, int) {
	if node == nil {
		return 0, 0
	}
	p := node.StartPoint()
	return int(p.Row) + 1, int(p.Column) + 1
}

// EndLine returns the 1-indexed line of a node's last token
func EndLine(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.EndPoint().Row) + 1
}

// Walk visits node and its descendants in pre-order.
// Children are skipped when fn returns false.
func Walk(node *sitter.Node, fn func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		Walk(node.Child(i), fn)
	}
}

// Children returns the direct children of node in source order
func Children(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.ChildCount())
	for i := 0; i < int(node.ChildCount()); i++ {
		if c := node.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildren returns the direct named children of node in source order
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if c := node.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildOfType returns the first direct child whose type is one of types
func FirstChildOfType(node *sitter.Node, types ...string) *sitter.Node {
	for _, c := range Children(node) {
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

// HasChildOfType reports whether node has a direct (possibly anonymous) child of the given type
func HasChildOfType(node *sitter.Node, typ string) bool {
	return FirstChildOfType(node, typ) != nil
}

// FindAncestor traverses up to find the nearest ancestor whose type is one of types
func FindAncestor(node *sitter.Node, types ...string) *sitter.Node {
	if node == nil {
		return nil
	}
	current := node.Parent()
	for current != nil {
		for _, t := range types {
			if current.Type() == t {
				return current
			}
		}
		current = current.Parent()
	}
	return nil
}
