package semantic

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/rohankatakam/semdiff/internal/treesitter"
)

// Normalize collapses every run of whitespace (including newlines) to a single
// space and trims both ends. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// NodeText returns the normalized token text of a node: leaf tokens joined by a
// single space with comments dropped. Two nodes that differ only in layout or
// comments produce the same text. String and regex literals are kept verbatim.
func NodeText(node *sitter.Node, src []byte) string {
	return strings.Join(tokens(node, src), " ")
}

// tokens lists the leaf tokens under node in source order. Literal tokens are
// returned raw; every other token has its whitespace normalized.
func tokens(node *sitter.Node, src []byte) []string {
	if node == nil {
		return nil
	}

	var parts []string
	treesitter.Walk(node, func(n *sitter.Node) bool {
		switch n.Type() {
		case "comment":
			return false
		case "string", "regex":
			parts = append(parts, treesitter.NodeContent(n, src))
			return false
		case "template_string":
			parts = append(parts, templateText(n, src))
			return false
		}
		if n.ChildCount() == 0 {
			if text := Normalize(treesitter.NodeContent(n, src)); text != "" {
				parts = append(parts, text)
			}
			return false
		}
		return true
	})
	return parts
}

// templateText keeps the literal chunks of a template string raw and renders
// each ${...} substitution as normalized token text
func templateText(node *sitter.Node, src []byte) string {
	var b strings.Builder
	pos := int(node.StartByte())
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "template_substitution" {
			continue
		}
		b.WriteString(sourceRange(src, pos, int(child.StartByte())))
		b.WriteString(NodeText(child, src))
		pos = int(child.EndByte())
	}
	b.WriteString(sourceRange(src, pos, int(node.EndByte())))
	return b.String()
}

func sourceRange(src []byte, start, end int) string {
	if end > len(src) {
		end = len(src)
	}
	if start >= end {
		return ""
	}
	return string(src[start:end])
}

// typeText returns the text of a type annotation without its leading colon,
// written the way types are usually printed: Promise<User>, string[], Map<K, V>
func typeText(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "type_annotation", "opting_type_annotation", "omitting_type_annotation":
		if node.NamedChildCount() > 0 {
			return compactTypeText(tokens(node.NamedChild(0), src))
		}
	}
	return strings.TrimSpace(strings.TrimPrefix(compactTypeText(tokens(node, src)), ":"))
}

// compactTypeText joins type tokens, leaving out the space around brackets,
// member access and separators
func compactTypeText(parts []string) string {
	var b strings.Builder
	for i, part := range parts {
		if i > 0 && spaceBetween(parts[i-1], part) {
			b.WriteByte(' ')
		}
		b.WriteString(part)
	}
	return b.String()
}

func spaceBetween(prev, next string) bool {
	switch prev {
	case "<", "(", "[", ".", "...", "-":
		return false
	}
	switch next {
	case "<", ">", ")", "[", "]", ",", ":", ";", "?", ".", "!":
		return false
	case "(":
		// a group paren follows an operator; otherwise it belongs to the previous token
		return prev == "=>" || prev == "|" || prev == "&" || prev == "," || prev == ":" || prev == "=" || prev == "new"
	}
	return true
}

// unquote strips the quotes from a string literal
func unquote(s string) string {
	return strings.Trim(s, "\"'`")
}
