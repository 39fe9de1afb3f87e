package semantic

import (
	"strings"

	"github.com/rohankatakam/semdiff/internal/treesitter"
)

// Context is the immutable structural snapshot of one parsed file version.
// Every slice preserves source order. A Context is built once by Build and
// never mutated afterwards.
type Context struct {
	Path     string
	Language string

	Functions     []Function
	Classes       []Class
	Interfaces    []Interface
	Exports       []Export
	Imports       []Import
	Variables     []Variable
	StateHooks    []StateHookCall
	UIElements    []UIElement
	TopLevelCalls []TopLevelCall

	// Complexity is the file-wide cyclomatic estimate
	Complexity int

	tree *treesitter.Tree
}

// Tree returns the raw syntax tree the context was built from
func (c *Context) Tree() *treesitter.Tree {
	return c.tree
}

// Source returns the source text of the underlying tree
func (c *Context) Source() []byte {
	if c.tree == nil {
		return nil
	}
	return c.tree.Source
}

// Param is one formal parameter
type Param struct {
	Name     string
	Type     string
	Optional bool
	Rest     bool
	// Pattern is set when the parameter destructures its argument
	Pattern bool
}

// Function is a named function, arrow function bound to a variable, or method
type Function struct {
	Name       string
	Params     []Param
	ReturnType string
	IsAsync    bool
	Complexity int
	Line       int
	Column     int
	Scope      string
}

// Signature renders the function as name(params): returnType
func (f Function) Signature() string {
	var sb strings.Builder
	sb.WriteString(f.Name)
	sb.WriteString("(")
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p.Rest {
			sb.WriteString("...")
		}
		sb.WriteString(p.Name)
		if p.Optional {
			sb.WriteString("?")
		}
		if p.Type != "" {
			sb.WriteString(": ")
			sb.WriteString(p.Type)
		}
	}
	sb.WriteString(")")
	if f.ReturnType != "" {
		sb.WriteString(": ")
		sb.WriteString(f.ReturnType)
	}
	return sb.String()
}

// Shape renders the signature with parameter identifiers erased. Two functions
// with equal shapes differ at most by a systematic parameter rename.
// Destructuring patterns keep their text since the property names they read
// are part of the contract.
func (f Function) Shape() string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p.Rest {
			sb.WriteString("...")
		}
		if p.Pattern {
			sb.WriteString(p.Name)
		} else {
			sb.WriteString("_")
		}
		if p.Optional {
			sb.WriteString("?")
		}
		sb.WriteString(": ")
		sb.WriteString(p.Type)
	}
	sb.WriteString("): ")
	sb.WriteString(f.ReturnType)
	return sb.String()
}

// Class is a class declaration or a class expression bound to a variable
type Class struct {
	Name       string
	Extends    string
	Methods    []Method
	Properties []Property
	Line       int
	Column     int
}

type Method struct {
	Name       string
	Params     []Param
	ReturnType string
	IsAsync    bool
	IsStatic   bool
	Line       int
	Column     int
}

type Property struct {
	Name     string
	Type     string
	Optional bool
	IsStatic bool
	Line     int
	Column   int
}

// Interface is a TypeScript interface declaration
type Interface struct {
	Name       string
	Properties []Member
	Methods    []Member
	Line       int
	Column     int
}

// Member is an interface property or method signature. Type holds the
// property type, or the full signature text for methods.
type Member struct {
	Name     string
	Type     string
	Optional bool
	Line     int
	Column   int
}

// Export types
const (
	ExportFunction  = "function"
	ExportClass     = "class"
	ExportInterface = "interface"
	ExportType      = "type"
	ExportEnum      = "enum"
	ExportConst     = "const"
	ExportLet       = "let"
	ExportVar       = "var"
	ExportDefault   = "default"
	ExportReexport  = "reexport"
	ExportNamed     = "named"
)

// Export is one exported binding
type Export struct {
	Name      string
	Type      string
	IsDefault bool
	// ValueType is the inferred type of a variable or expression export
	ValueType string
	// Callee is set when the exported value is initialized by a call
	Callee string
	// Source is the module of a re-export
	Source string
	Line   int
	Column int
}

// Import is an ES import declaration or a CommonJS require call.
// Specifiers hold imported names, not local aliases: "default" for default
// imports and "*" for namespace imports.
type Import struct {
	Module     string
	Specifiers []string
	IsRequire  bool
	TypeOnly   bool
	Line       int
	Column     int
}

// SideEffectOnly reports whether the import binds nothing
func (i Import) SideEffectOnly() bool {
	return len(i.Specifiers) == 0
}

// Variable is a top-level variable binding
type Variable struct {
	Name        string
	Kind        string // const, let, var
	Type        string // annotation, or inferred from the initializer
	Initializer string
	Exported    bool
	Line        int
	Column      int
}

// StateHookCall is a call site of a recognized stateful-binding construct
type StateHookCall struct {
	Type   string
	Scope  string
	Line   int
	Column int
}

// UIElement is one node of a JSX element tree
type UIElement struct {
	Tag        string
	Attributes string
	Scope      string
	Line       int
	Column     int
	EndLine    int
}

// TopLevelCall is a call evaluated when the module loads
type TopLevelCall struct {
	Callee string
	Line   int
	Column int
}

// StateHooks lists the call names recognized as stateful bindings:
// React hooks plus the signal constructs of Solid, Vue, Preact and Svelte.
var StateHooks = map[string]bool{
	"useState":             true,
	"useReducer":           true,
	"useEffect":            true,
	"useLayoutEffect":      true,
	"useInsertionEffect":   true,
	"useMemo":              true,
	"useCallback":          true,
	"useRef":               true,
	"useContext":           true,
	"useSyncExternalStore": true,
	"useTransition":        true,
	"useDeferredValue":     true,
	"createSignal":         true,
	"createStore":          true,
	"createEffect":         true,
	"createMemo":           true,
	"ref":                  true,
	"reactive":             true,
	"computed":             true,
	"signal":               true,
	"writable":             true,
}
