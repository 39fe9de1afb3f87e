package treesitter

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// Tree is the parsed representation of one file at one version.
// It is immutable after construction and owned by the caller until Close.
type Tree struct {
	Path     string
	Language string
	Source   []byte

	tree       *sitter.Tree
	root       *sitter.Node
	lineStarts []int
}

func newTree(path, lang string, src []byte, tsTree *sitter.Tree) *Tree {
	t := &Tree{
		Path:     path,
		Language: lang,
		Source:   src,
		tree:     tsTree,
		root:     tsTree.RootNode(),
	}

	t.lineStarts = append(t.lineStarts, 0)
	for i, b := range src {
		if b == '\n' {
			t.lineStarts = append(t.lineStarts, i+1)
		}
	}
	return t
}

// Root returns the root node of the tree
func (t *Tree) Root() *sitter.Node {
	return t.root
}

// LineCol resolves a byte offset to a 1-indexed (line, column) pair
func (t *Tree) LineCol(offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(t.Source) {
		offset = len(t.Source)
	}
	// index of the last line start <= offset
	idx := sort.SearchInts(t.lineStarts, offset+1) - 1
	return idx + 1, offset - t.lineStarts[idx] + 1
}

// Position returns the 1-indexed (line, column) of a node's start token
func (t *Tree) Position(n *sitter.Node) (int, int) {
	return Position(n)
}

// Close releases the underlying tree-sitter tree
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
		t.root = nil
	}
}

func (t *Tree) firstErrorPosition() (int, int) {
	line, col := 1, 1
	found := false
	Walk(t.root, func(n *sitter.Node) bool {
		if found {
			return false
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			line, col = Position(n)
			found = true
			return false
		}
		return n.HasError()
	})
	return line, col
}
