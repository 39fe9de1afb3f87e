package semantic

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/rohankatakam/semdiff/internal/treesitter"
)

// builder accumulates one Context during a single traversal
type builder struct {
	src []byte
	ctx *Context

	// top-level declaration kinds, used to type local export clauses
	declared map[string]string
	// indexes of exports whose type is resolved after the traversal
	pending []int
}

// Build walks tree once and extracts its semantic context. Unsupported node
// kinds are ignored; Build never fails on a tree the parser accepted.
func Build(tree *treesitter.Tree) *Context {
	b := &builder{
		src: tree.Source,
		ctx: &Context{
			Path:     tree.Path,
			Language: tree.Language,
			tree:     tree,
		},
		declared: make(map[string]string),
	}

	complexity := 1
	treesitter.Walk(tree.Root(), func(n *sitter.Node) bool {
		if IsDecisionPoint(n) {
			complexity++
		}
		b.visit(n)
		return true
	})
	b.ctx.Complexity = complexity

	b.resolvePendingExports()
	return b.ctx
}

func (b *builder) visit(node *sitter.Node) {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		if name := node.ChildByFieldName("name"); name != nil {
			b.addFunction(b.text(name), node, node)
			if isTopLevel(node) {
				b.declared[b.text(name)] = ExportFunction
			}
		}

	case "arrow_function", "function_expression", "function", "generator_function":
		b.visitFunctionExpression(node)

	case "method_definition":
		if parent := node.Parent(); parent != nil && parent.Type() == "class_body" {
			b.addFunction(methodName(node, b.src), node, node)
		}

	case "class_declaration", "abstract_class_declaration", "class":
		b.addClass(node)

	case "interface_declaration":
		b.addInterface(node)
		if isTopLevel(node) {
			if name := node.ChildByFieldName("name"); name != nil {
				b.declared[b.text(name)] = ExportInterface
			}
		}

	case "type_alias_declaration", "enum_declaration":
		if isTopLevel(node) {
			if name := node.ChildByFieldName("name"); name != nil {
				kind := ExportType
				if node.Type() == "enum_declaration" {
					kind = ExportEnum
				}
				b.declared[b.text(name)] = kind
			}
		}

	case "export_statement":
		if node.Parent() != nil && node.Parent().Type() == "program" {
			b.addExport(node)
		}

	case "import_statement":
		b.addImport(node)

	case "lexical_declaration", "variable_declaration":
		if isTopLevel(node) {
			b.addVariables(node)
		}

	case "call_expression":
		b.visitCall(node)

	case "expression_statement":
		if node.Parent() != nil && node.Parent().Type() == "program" {
			b.addTopLevelCall(node)
		}

	case "jsx_element", "jsx_self_closing_element":
		b.addUIElement(node)
	}
}

// isTopLevel reports whether a declaration sits at module level, directly or
// under an export statement
func isTopLevel(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Type() == "export_statement" {
		parent = parent.Parent()
	}
	return parent != nil && parent.Type() == "program"
}

func (b *builder) text(node *sitter.Node) string {
	return treesitter.NodeContent(node, b.src)
}

// visitFunctionExpression names arrow functions and function expressions by
// the binding they are assigned to. Anonymous callbacks are not collected.
func (b *builder) visitFunctionExpression(node *sitter.Node) {
	parent := node.Parent()
	if parent == nil {
		return
	}

	switch parent.Type() {
	case "variable_declarator":
		name := parent.ChildByFieldName("name")
		if name != nil && name.Type() == "identifier" && sameNode(parent.ChildByFieldName("value"), node) {
			b.addFunction(b.text(name), node, parent)
		}
	case "assignment_expression":
		if left := parent.ChildByFieldName("left"); left != nil && sameNode(parent.ChildByFieldName("right"), node) {
			b.addFunction(NodeText(left, b.src), node, parent)
		}
	case "public_field_definition", "field_definition":
		name := parent.ChildByFieldName("name")
		if name == nil {
			name = parent.ChildByFieldName("property")
		}
		if name == nil {
			return
		}
		qualified := b.text(name)
		if class := treesitter.FindAncestor(parent, classKinds...); class != nil {
			if cls := className(class, b.src); cls != "" {
				qualified = cls + "." + qualified
			}
		}
		b.addFunction(qualified, node, parent)
	}
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// addFunction records fn under name; scopeNode is the node whose enclosing
// scope the function lives in (the declarator for bound arrow functions)
func (b *builder) addFunction(name string, fn, scopeNode *sitter.Node) {
	line, col := treesitter.Position(scopeNode)
	b.ctx.Functions = append(b.ctx.Functions, Function{
		Name:       name,
		Params:     b.params(fn),
		ReturnType: typeText(fn.ChildByFieldName("return_type"), b.src),
		IsAsync:    treesitter.HasChildOfType(fn, "async"),
		Complexity: Complexity(fn.ChildByFieldName("body")),
		Line:       line,
		Column:     col,
		Scope:      ScopeName(scopeNode, b.src),
	})
}

// params extracts the formal parameter list of a function-like node
func (b *builder) params(fn *sitter.Node) []Param {
	if single := fn.ChildByFieldName("parameter"); single != nil {
		return []Param{{Name: b.text(single)}}
	}

	list := fn.ChildByFieldName("parameters")
	if list == nil {
		return nil
	}

	var params []Param
	for _, p := range treesitter.NamedChildren(list) {
		switch p.Type() {
		case "required_parameter", "optional_parameter":
			param := Param{
				Type:     typeText(p.ChildByFieldName("type"), b.src),
				Optional: p.Type() == "optional_parameter" || p.ChildByFieldName("value") != nil,
			}
			pattern := p.ChildByFieldName("pattern")
			if pattern != nil && pattern.Type() == "rest_pattern" {
				param.Rest = true
				if pattern.NamedChildCount() > 0 {
					pattern = pattern.NamedChild(0)
				}
			}
			if pattern != nil {
				param.Name = NodeText(pattern, b.src)
				param.Pattern = isPattern(pattern)
			}
			params = append(params, param)

		case "identifier":
			params = append(params, Param{Name: b.text(p)})

		case "assignment_pattern":
			left := p.ChildByFieldName("left")
			params = append(params, Param{
				Name:     NodeText(left, b.src),
				Optional: true,
				Pattern:  left != nil && isPattern(left),
			})

		case "rest_pattern":
			param := Param{Rest: true}
			if p.NamedChildCount() > 0 {
				inner := p.NamedChild(0)
				param.Name = NodeText(inner, b.src)
				param.Pattern = isPattern(inner)
			}
			params = append(params, param)

		case "object_pattern", "array_pattern":
			params = append(params, Param{Name: NodeText(p, b.src), Pattern: true})
		}
	}
	return params
}

func isPattern(n *sitter.Node) bool {
	switch n.Type() {
	case "object_pattern", "array_pattern":
		return true
	}
	return false
}

func (b *builder) addClass(node *sitter.Node) {
	name := className(node, b.src)
	if name == "" {
		return
	}
	if isTopLevel(node) {
		b.declared[name] = ExportClass
	}

	line, col := treesitter.Position(node)
	class := Class{
		Name:    name,
		Extends: b.extendsClause(node),
		Line:    line,
		Column:  col,
	}

	body := node.ChildByFieldName("body")
	for _, member := range treesitter.NamedChildren(body) {
		switch member.Type() {
		case "method_definition", "abstract_method_signature", "method_signature":
			nameNode := member.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			mLine, mCol := treesitter.Position(member)
			class.Methods = append(class.Methods, Method{
				Name:       b.text(nameNode),
				Params:     b.params(member),
				ReturnType: typeText(member.ChildByFieldName("return_type"), b.src),
				IsAsync:    treesitter.HasChildOfType(member, "async"),
				IsStatic:   treesitter.HasChildOfType(member, "static"),
				Line:       mLine,
				Column:     mCol,
			})

		case "public_field_definition", "field_definition":
			nameNode := member.ChildByFieldName("name")
			if nameNode == nil {
				nameNode = member.ChildByFieldName("property")
			}
			if nameNode == nil {
				continue
			}
			pLine, pCol := treesitter.Position(member)
			typ := typeText(member.ChildByFieldName("type"), b.src)
			if typ == "" {
				if value := member.ChildByFieldName("value"); value != nil {
					typ = InferType(value, b.src)
				}
			}
			class.Properties = append(class.Properties, Property{
				Name:     b.text(nameNode),
				Type:     typ,
				Optional: treesitter.HasChildOfType(member, "?"),
				IsStatic: treesitter.HasChildOfType(member, "static"),
				Line:     pLine,
				Column:   pCol,
			})
		}
	}

	b.ctx.Classes = append(b.ctx.Classes, class)
}

// extendsClause returns the superclass expression of a class.
// TypeScript wraps it in an extends_clause; JavaScript puts it directly under class_heritage.
func (b *builder) extendsClause(class *sitter.Node) string {
	heritage := treesitter.FirstChildOfType(class, "class_heritage")
	if heritage == nil {
		return ""
	}
	if ext := treesitter.FirstChildOfType(heritage, "extends_clause"); ext != nil {
		if value := ext.ChildByFieldName("value"); value != nil {
			return NodeText(value, b.src)
		}
		if ext.NamedChildCount() > 0 {
			return NodeText(ext.NamedChild(0), b.src)
		}
		return ""
	}
	if treesitter.HasChildOfType(heritage, "extends") && heritage.NamedChildCount() > 0 {
		return NodeText(heritage.NamedChild(0), b.src)
	}
	return ""
}

func (b *builder) addInterface(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	line, col := treesitter.Position(node)
	iface := Interface{
		Name:   b.text(nameNode),
		Line:   line,
		Column: col,
	}

	for _, member := range treesitter.NamedChildren(node.ChildByFieldName("body")) {
		memberName := member.ChildByFieldName("name")
		if memberName == nil {
			continue
		}
		mLine, mCol := treesitter.Position(member)
		switch member.Type() {
		case "property_signature":
			iface.Properties = append(iface.Properties, Member{
				Name:     b.text(memberName),
				Type:     typeText(member.ChildByFieldName("type"), b.src),
				Optional: treesitter.HasChildOfType(member, "?"),
				Line:     mLine,
				Column:   mCol,
			})
		case "method_signature":
			iface.Methods = append(iface.Methods, Member{
				Name:     b.text(memberName),
				Type:     NodeText(member, b.src),
				Optional: treesitter.HasChildOfType(member, "?"),
				Line:     mLine,
				Column:   mCol,
			})
		}
	}

	b.ctx.Interfaces = append(b.ctx.Interfaces, iface)
}

func (b *builder) addExport(node *sitter.Node) {
	line, col := treesitter.Position(node)
	isDefault := treesitter.HasChildOfType(node, "default")
	source := unquote(b.text(node.ChildByFieldName("source")))

	add := func(e Export) {
		e.IsDefault = isDefault
		e.Line, e.Column = line, col
		b.ctx.Exports = append(b.ctx.Exports, e)
	}

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		name := b.text(decl.ChildByFieldName("name"))
		switch decl.Type() {
		case "function_declaration", "generator_function_declaration", "function_signature":
			add(Export{Name: nameOr(name, "default"), Type: ExportFunction})
		case "class_declaration", "abstract_class_declaration":
			add(Export{Name: nameOr(name, "default"), Type: ExportClass})
		case "interface_declaration":
			add(Export{Name: name, Type: ExportInterface})
		case "type_alias_declaration":
			add(Export{Name: name, Type: ExportType})
		case "enum_declaration":
			add(Export{Name: name, Type: ExportEnum})
		case "lexical_declaration", "variable_declaration":
			kind := declarationKind(decl)
			for _, d := range treesitter.NamedChildren(decl) {
				if d.Type() != "variable_declarator" {
					continue
				}
				value := d.ChildByFieldName("value")
				valueType := typeText(d.ChildByFieldName("type"), b.src)
				if valueType == "" {
					valueType = InferType(value, b.src)
				}
				add(Export{
					Name:      NodeText(d.ChildByFieldName("name"), b.src),
					Type:      kind,
					ValueType: valueType,
					Callee:    calleeOf(value, b.src),
				})
			}
		default:
			add(Export{Name: nameOr(name, decl.Type()), Type: decl.Type()})
		}
		return
	}

	if value := node.ChildByFieldName("value"); value != nil {
		e := Export{
			Name:      nameOr(b.text(value.ChildByFieldName("name")), "default"),
			Type:      ExportDefault,
			ValueType: InferType(value, b.src),
			Callee:    calleeOf(value, b.src),
		}
		switch value.Type() {
		case "arrow_function", "function_expression", "function", "generator_function":
			e.Type = ExportFunction
		case "class":
			e.Type = ExportClass
		}
		add(e)
		return
	}

	if clause := treesitter.FirstChildOfType(node, "export_clause"); clause != nil {
		for _, spec := range treesitter.NamedChildren(clause) {
			if spec.Type() != "export_specifier" {
				continue
			}
			local := b.text(spec.ChildByFieldName("name"))
			exported := local
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				exported = b.text(alias)
			}
			if source != "" {
				add(Export{Name: exported, Type: ExportReexport, Source: source})
				continue
			}
			b.pending = append(b.pending, len(b.ctx.Exports))
			// local name is carried in ValueType until resolution
			add(Export{Name: exported, Type: ExportNamed, ValueType: local})
		}
		return
	}

	if ns := treesitter.FirstChildOfType(node, "namespace_export"); ns != nil {
		name := "*"
		if ns.NamedChildCount() > 0 {
			name = b.text(ns.NamedChild(int(ns.NamedChildCount()) - 1))
		}
		add(Export{Name: name, Type: ExportReexport, Source: source})
		return
	}

	if treesitter.HasChildOfType(node, "*") {
		add(Export{Name: "* from " + source, Type: ExportReexport, Source: source})
	}
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// resolvePendingExports types `export { a, b as c }` clauses from the
// file's top-level declarations
func (b *builder) resolvePendingExports() {
	vars := make(map[string]Variable, len(b.ctx.Variables))
	for _, v := range b.ctx.Variables {
		vars[v.Name] = v
	}

	for _, idx := range b.pending {
		e := &b.ctx.Exports[idx]
		local := e.ValueType
		e.ValueType = ""
		if v, ok := vars[local]; ok {
			e.Type = v.Kind
			e.ValueType = v.Type
			continue
		}
		if kind, ok := b.declared[local]; ok {
			e.Type = kind
		}
	}
}

func declarationKind(decl *sitter.Node) string {
	if decl.Type() == "variable_declaration" {
		return ExportVar
	}
	if kind := decl.ChildByFieldName("kind"); kind != nil {
		return kind.Type()
	}
	if decl.ChildCount() > 0 {
		return decl.Child(0).Type()
	}
	return ExportConst
}

func (b *builder) addVariables(decl *sitter.Node) {
	kind := declarationKind(decl)
	exported := decl.Parent() != nil && decl.Parent().Type() == "export_statement"

	for _, d := range treesitter.NamedChildren(decl) {
		if d.Type() != "variable_declarator" {
			continue
		}
		value := d.ChildByFieldName("value")
		typ := typeText(d.ChildByFieldName("type"), b.src)
		if typ == "" {
			typ = InferType(value, b.src)
		}
		line, col := treesitter.Position(d)
		b.ctx.Variables = append(b.ctx.Variables, Variable{
			Name:        NodeText(d.ChildByFieldName("name"), b.src),
			Kind:        kind,
			Type:        typ,
			Initializer: NodeText(value, b.src),
			Exported:    exported,
			Line:        line,
			Column:      col,
		})
	}
}

func (b *builder) addImport(node *sitter.Node) {
	source := node.ChildByFieldName("source")
	if source == nil {
		return
	}

	line, col := treesitter.Position(node)
	imp := Import{
		Module:   unquote(b.text(source)),
		TypeOnly: treesitter.HasChildOfType(node, "type"),
		Line:     line,
		Column:   col,
	}

	if clause := treesitter.FirstChildOfType(node, "import_clause"); clause != nil {
		for _, c := range treesitter.NamedChildren(clause) {
			switch c.Type() {
			case "identifier":
				imp.Specifiers = append(imp.Specifiers, "default")
			case "namespace_import":
				imp.Specifiers = append(imp.Specifiers, "*")
			case "named_imports":
				for _, spec := range treesitter.NamedChildren(c) {
					if spec.Type() != "import_specifier" {
						continue
					}
					if name := spec.ChildByFieldName("name"); name != nil {
						imp.Specifiers = append(imp.Specifiers, b.text(name))
					}
				}
			}
		}
	}

	b.ctx.Imports = append(b.ctx.Imports, imp)
}

// visitCall records state-hook call sites and CommonJS require imports
func (b *builder) visitCall(call *sitter.Node) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return
	}

	name := b.text(fn)
	if fn.Type() == "member_expression" {
		if prop := fn.ChildByFieldName("property"); prop != nil {
			name = b.text(prop)
		}
	}

	if StateHooks[name] {
		line, col := treesitter.Position(call)
		b.ctx.StateHooks = append(b.ctx.StateHooks, StateHookCall{
			Type:   name,
			Scope:  ScopeName(call, b.src),
			Line:   line,
			Column: col,
		})
		return
	}

	if fn.Type() == "identifier" && name == "require" {
		b.addRequire(call)
	}
}

func (b *builder) addRequire(call *sitter.Node) {
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return
	}
	arg := args.NamedChild(0)
	if arg.Type() != "string" {
		return
	}

	line, col := treesitter.Position(call)
	imp := Import{
		Module:    unquote(b.text(arg)),
		IsRequire: true,
		Line:      line,
		Column:    col,
	}

	if parent := call.Parent(); parent != nil && parent.Type() == "variable_declarator" {
		switch target := parent.ChildByFieldName("name"); {
		case target == nil:
		case target.Type() == "object_pattern":
			for _, prop := range treesitter.NamedChildren(target) {
				switch prop.Type() {
				case "shorthand_property_identifier_pattern":
					imp.Specifiers = append(imp.Specifiers, b.text(prop))
				case "pair_pattern":
					imp.Specifiers = append(imp.Specifiers, b.text(prop.ChildByFieldName("key")))
				}
			}
		default:
			imp.Specifiers = append(imp.Specifiers, "default")
		}
	}

	b.ctx.Imports = append(b.ctx.Imports, imp)
}

func (b *builder) addTopLevelCall(stmt *sitter.Node) {
	if stmt.NamedChildCount() == 0 {
		return
	}
	callee := calleeOf(stmt.NamedChild(0), b.src)
	if callee == "" || callee == "require" {
		return
	}
	line, col := treesitter.Position(stmt)
	b.ctx.TopLevelCalls = append(b.ctx.TopLevelCalls, TopLevelCall{
		Callee: callee,
		Line:   line,
		Column: col,
	})
}

func (b *builder) addUIElement(node *sitter.Node) {
	tag := node
	if node.Type() == "jsx_element" {
		tag = node.ChildByFieldName("open_tag")
		if tag == nil {
			tag = treesitter.FirstChildOfType(node, "jsx_opening_element")
		}
		if tag == nil {
			return
		}
	}

	name := "#fragment"
	if n := tag.ChildByFieldName("name"); n != nil {
		name = NodeText(n, b.src)
	}

	var attrs []string
	for _, a := range treesitter.NamedChildren(tag) {
		switch a.Type() {
		case "jsx_attribute", "jsx_expression":
			attrs = append(attrs, NodeText(a, b.src))
		}
	}

	line, col := treesitter.Position(node)
	b.ctx.UIElements = append(b.ctx.UIElements, UIElement{
		Tag:        name,
		Attributes: strings.Join(attrs, " "),
		Scope:      ScopeName(node, b.src),
		Line:       line,
		Column:     col,
		EndLine:    treesitter.EndLine(node),
	})
}
