package semantic

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/rohankatakam/semdiff/internal/treesitter"
)

// TopScope names the file's top level
const TopScope = "<top>"

var classKinds = []string{"class_declaration", "abstract_class_declaration", "class"}

// ScopeName resolves the scope enclosing node by walking its ancestors until a
// named function, a method (qualified as Class.method), a named class or a
// variable-initializer binding is found. It returns TopScope otherwise.
func ScopeName(node *sitter.Node, src []byte) string {
	if node == nil {
		return TopScope
	}

	for current := node.Parent(); current != nil; current = current.Parent() {
		switch current.Type() {
		case "function_declaration", "generator_function_declaration",
			"function_expression", "function", "generator_function":
			if name := current.ChildByFieldName("name"); name != nil {
				return treesitter.NodeContent(name, src)
			}
		case "method_definition":
			if name := methodName(current, src); name != "" {
				return name
			}
		case "class_declaration", "abstract_class_declaration", "class":
			if name := className(current, src); name != "" {
				return name
			}
		case "variable_declarator":
			if name := current.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				return treesitter.NodeContent(name, src)
			}
		}
	}

	return TopScope
}

// className returns a class's declared name, or the variable it is bound to
// for anonymous class expressions
func className(class *sitter.Node, src []byte) string {
	if name := class.ChildByFieldName("name"); name != nil {
		return treesitter.NodeContent(name, src)
	}
	if parent := class.Parent(); parent != nil && parent.Type() == "variable_declarator" {
		if name := parent.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
			return treesitter.NodeContent(name, src)
		}
	}
	return ""
}

// methodName returns Class.method for class members, or the bare member name
// when the enclosing class is anonymous
func methodName(method *sitter.Node, src []byte) string {
	nameNode := method.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	name := treesitter.NodeContent(nameNode, src)

	body := method.Parent()
	if body == nil || body.Type() != "class_body" || body.Parent() == nil {
		return name
	}
	if cls := className(body.Parent(), src); cls != "" {
		return cls + "." + name
	}
	return name
}
