package semantic

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// InferType returns a coarse type for an initializer expression: the literal
// kind for literals, "call:<callee>" / "new:<ctor>" for calls, "ref:<name>" for
// identifiers and the node kind otherwise.
func InferType(value *sitter.Node, src []byte) string {
	if value == nil {
		return "undefined"
	}

	switch value.Type() {
	case "string", "template_string":
		return "string"
	case "number":
		return "number"
	case "true", "false":
		return "boolean"
	case "null":
		return "null"
	case "undefined":
		return "undefined"
	case "regex":
		return "regexp"
	case "arrow_function", "function_expression", "function", "generator_function":
		return "function"
	case "class":
		return "class"
	case "object":
		return "object"
	case "array":
		return "array"
	case "call_expression":
		return "call:" + NodeText(value.ChildByFieldName("function"), src)
	case "new_expression":
		return "new:" + NodeText(value.ChildByFieldName("constructor"), src)
	case "await_expression":
		if value.NamedChildCount() > 0 {
			return "await " + InferType(value.NamedChild(0), src)
		}
	case "identifier":
		return "ref:" + NodeText(value, src)
	case "parenthesized_expression":
		if value.NamedChildCount() > 0 {
			return InferType(value.NamedChild(0), src)
		}
	case "as_expression", "satisfies_expression":
		if n := value.NamedChildCount(); n > 1 {
			return NodeText(value.NamedChild(int(n)-1), src)
		}
	case "unary_expression":
		if arg := value.ChildByFieldName("argument"); arg != nil && arg.Type() == "number" {
			return "number"
		}
	}

	return value.Type()
}

// calleeOf returns the callee text when value is a call, looking through await
func calleeOf(value *sitter.Node, src []byte) string {
	if value == nil {
		return ""
	}
	switch value.Type() {
	case "call_expression":
		return NodeText(value.ChildByFieldName("function"), src)
	case "await_expression", "parenthesized_expression":
		if value.NamedChildCount() > 0 {
			return calleeOf(value.NamedChild(0), src)
		}
	}
	return ""
}
