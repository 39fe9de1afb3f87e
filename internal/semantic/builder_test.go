package semantic

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/semdiff/internal/treesitter"
)

func build(t *testing.T, path, src string) *Context {
	t.Helper()
	tree, err := treesitter.Parse(context.Background(), path, []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return Build(tree)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  a  ", "a"},
		{"a\n\t b", "a b"},
		{"if (x)\n{\n  y()\n}", "if (x) { y() }"},
	}
	for _, tt := range tests {
		got := Normalize(tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got, Normalize(got), "normalize must be idempotent")
	}
}

func TestNodeTextIgnoresLayoutAndComments(t *testing.T) {
	a := build(t, "a.ts", "if(x){y()}\n")
	b := build(t, "b.ts", "if (x) {\n  // call y\n  y()\n}\n")

	textA := NodeText(a.Tree().Root(), a.Source())
	textB := NodeText(b.Tree().Root(), b.Source())
	assert.Equal(t, textA, textB)
	assert.Equal(t, "if ( x ) { y ( ) }", textA)
}

func TestNodeTextLiterals(t *testing.T) {
	text := func(path, src string) string {
		ctx := build(t, path, src)
		return NodeText(ctx.Tree().Root(), ctx.Source())
	}

	// spacing and comments inside a substitution are layout
	assert.Equal(t,
		text("a.js", "log(`k=${k} at ${a+b}`)\n"),
		text("b.js", "log(`k=${ k } at ${ a /* sum */ + b }`)\n"))

	// literal content is not
	assert.NotEqual(t,
		text("a.js", "log(`k= ${k}`)\n"),
		text("b.js", "log(`k=  ${k}`)\n"))
	assert.NotEqual(t,
		text("a.js", "throw new Error('a b')\n"),
		text("b.js", "throw new Error('a  b')\n"))
	assert.Contains(t, text("a.js", "throw new Error('a  b')\n"), "'a  b'")
}

func TestTypeTextIsCompact(t *testing.T) {
	ctx := build(t, "types.ts", `
function f(a: Map<string, User[]>, b: { id: string; name?: string }, c: A | B, d: ns.Type): () => void {}
`)
	require.Len(t, ctx.Functions, 1)
	fn := ctx.Functions[0]
	require.Len(t, fn.Params, 4)
	assert.Equal(t, "Map<string, User[]>", fn.Params[0].Type)
	assert.Equal(t, "{ id: string; name?: string }", fn.Params[1].Type)
	assert.Equal(t, "A | B", fn.Params[2].Type)
	assert.Equal(t, "ns.Type", fn.Params[3].Type)
	assert.Equal(t, "() => void", fn.ReturnType)
}

func TestBuildFunctions(t *testing.T) {
	src := `
export async function load(id: string, opts?: Options): Promise<User> {
  if (!id) { throw new Error("id") }
  return fetchUser(id)
}

const add = (a: number, b = 2) => a + b

function sum(...nums: number[]) { return nums.reduce((x, y) => x + y, 0) }

class Service {
  run(input: string): void {}
  handle = (event: Event) => {}
}

[1, 2].map(n => n * 2)
`
	ctx := build(t, "fns.ts", src)

	names := make([]string, 0, len(ctx.Functions))
	for _, f := range ctx.Functions {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"load", "add", "sum", "Service.run", "Service.handle"}, names)

	load := ctx.Functions[0]
	assert.True(t, load.IsAsync)
	assert.Equal(t, "Promise<User>", load.ReturnType)
	require.Len(t, load.Params, 2)
	assert.Equal(t, Param{Name: "id", Type: "string"}, load.Params[0])
	assert.Equal(t, Param{Name: "opts", Type: "Options", Optional: true}, load.Params[1])
	assert.Equal(t, 2, load.Complexity)
	assert.Equal(t, TopScope, load.Scope)
	assert.Equal(t, "load(id: string, opts?: Options): Promise<User>", load.Signature())

	add := ctx.Functions[1]
	assert.False(t, add.IsAsync)
	require.Len(t, add.Params, 2)
	assert.True(t, add.Params[1].Optional)

	sum := ctx.Functions[2]
	require.Len(t, sum.Params, 1)
	assert.True(t, sum.Params[0].Rest)
	assert.Equal(t, "nums", sum.Params[0].Name)

	assert.Equal(t, "Service", ctx.Functions[3].Scope)
}

func TestFunctionShapeIgnoresParameterNames(t *testing.T) {
	a := build(t, "a.ts", "function f(a: number, b: string) {}\n")
	b := build(t, "b.ts", "function f(x: number, y: string) {}\n")
	c := build(t, "c.ts", "function f(x: number, y?: string) {}\n")

	fa, fb, fc := a.Functions[0], b.Functions[0], c.Functions[0]
	assert.NotEqual(t, fa.Signature(), fb.Signature())
	assert.Equal(t, fa.Shape(), fb.Shape())
	assert.NotEqual(t, fa.Shape(), fc.Shape())
}

func TestBuildClassesAndInterfaces(t *testing.T) {
	src := `
class Base {}
export class Repo extends Base implements Store {
  static instances: number = 0
  private cache?: Map<string, Item>
  async get(id: string): Promise<Item> { return this.cache.get(id) }
}

interface Item {
  id: string
  name?: string
  save(): Promise<void>
}
`
	ctx := build(t, "repo.ts", src)

	require.Len(t, ctx.Classes, 2)
	repo := ctx.Classes[1]
	assert.Equal(t, "Repo", repo.Name)
	assert.Equal(t, "Base", repo.Extends)
	require.Len(t, repo.Properties, 2)
	assert.Equal(t, "instances", repo.Properties[0].Name)
	assert.True(t, repo.Properties[0].IsStatic)
	assert.Equal(t, "cache", repo.Properties[1].Name)
	assert.True(t, repo.Properties[1].Optional)
	require.Len(t, repo.Methods, 1)
	assert.True(t, repo.Methods[0].IsAsync)

	require.Len(t, ctx.Interfaces, 1)
	item := ctx.Interfaces[0]
	assert.Equal(t, "Item", item.Name)
	require.Len(t, item.Properties, 2)
	assert.Equal(t, Member{Name: "id", Type: "string", Line: 10, Column: 3}, item.Properties[0])
	assert.True(t, item.Properties[1].Optional)
	require.Len(t, item.Methods, 1)
	assert.Equal(t, "save", item.Methods[0].Name)
}

func TestBuildJavaScriptClassExtends(t *testing.T) {
	ctx := build(t, "a.js", "class Button extends Component { render() {} }\n")
	require.Len(t, ctx.Classes, 1)
	assert.Equal(t, "Component", ctx.Classes[0].Extends)
	assert.Equal(t, "Button.render", ctx.Functions[0].Name)
}

func TestBuildImportsAndExports(t *testing.T) {
	src := `
import React, { useState, useEffect as effect } from "react"
import * as path from 'path'
import 'reflect-metadata'
import type { Config } from './config'
const fs = require('fs')
const { join, resolve } = require("path")

export const VERSION = "1.0"
export let client = createClient({ retries: 3 })
export default function App() {}
export interface Props { title: string }
export type Mode = "a" | "b"
export { helper as util } from './helpers'
export * from './types'

function helper() {}
export { helper }
`
	ctx := build(t, "mod.ts", src)

	require.Len(t, ctx.Imports, 6)
	assert.Equal(t, "react", ctx.Imports[0].Module)
	assert.Equal(t, []string{"default", "useState", "useEffect"}, ctx.Imports[0].Specifiers)
	assert.Equal(t, []string{"*"}, ctx.Imports[1].Specifiers)
	assert.True(t, ctx.Imports[2].SideEffectOnly())
	assert.True(t, ctx.Imports[3].TypeOnly)
	assert.True(t, ctx.Imports[4].IsRequire)
	assert.Equal(t, "fs", ctx.Imports[4].Module)
	assert.Equal(t, []string{"join", "resolve"}, ctx.Imports[5].Specifiers)

	byName := make(map[string]Export)
	for _, e := range ctx.Exports {
		byName[e.Name] = e
	}

	assert.Equal(t, ExportConst, byName["VERSION"].Type)
	assert.Equal(t, "string", byName["VERSION"].ValueType)
	assert.Equal(t, ExportLet, byName["client"].Type)
	assert.Equal(t, "createClient", byName["client"].Callee)
	assert.Equal(t, "call:createClient", byName["client"].ValueType)
	assert.True(t, byName["App"].IsDefault)
	assert.Equal(t, ExportFunction, byName["App"].Type)
	assert.Equal(t, ExportInterface, byName["Props"].Type)
	assert.Equal(t, ExportType, byName["Mode"].Type)
	assert.Equal(t, ExportReexport, byName["util"].Type)
	assert.Equal(t, "./helpers", byName["util"].Source)
	assert.Equal(t, ExportReexport, byName["* from ./types"].Type)
	assert.Equal(t, ExportFunction, byName["helper"].Type)
}

func TestBuildVariablesHooksAndUI(t *testing.T) {
	src := `
const LIMIT: number = 10
let items = []

function Counter() {
  const [count, setCount] = useState(0)
  const ref = React.useRef(null)
  useEffect(() => { document.title = String(count) }, [count])
  return <div className="counter"><button onClick={() => setCount(count + 1)}>+</button></div>
}

init()
`
	ctx := build(t, "counter.tsx", src)

	require.Len(t, ctx.Variables, 2)
	assert.Equal(t, Variable{Name: "LIMIT", Kind: "const", Type: "number", Initializer: "10", Line: 2, Column: 7}, ctx.Variables[0])
	assert.Equal(t, "array", ctx.Variables[1].Type)

	var hooks, scopes []string
	for _, h := range ctx.StateHooks {
		hooks = append(hooks, h.Type)
		scopes = append(scopes, h.Scope)
	}
	assert.Equal(t, []string{"useState", "useRef", "useEffect"}, hooks)
	// a hook bound to an identifier is scoped by that binding
	assert.Equal(t, []string{"Counter", "ref", "Counter"}, scopes)

	require.Len(t, ctx.UIElements, 2)
	assert.Equal(t, "div", ctx.UIElements[0].Tag)
	assert.Equal(t, `className = "counter"`, ctx.UIElements[0].Attributes)
	assert.Equal(t, "button", ctx.UIElements[1].Tag)
	assert.Equal(t, "Counter", ctx.UIElements[1].Scope)

	require.Len(t, ctx.TopLevelCalls, 1)
	assert.Equal(t, "init", ctx.TopLevelCalls[0].Callee)
}

func TestComplexityIsMonotonic(t *testing.T) {
	flat := build(t, "a.ts", "function f(a) { return a }\n")
	branchy := build(t, "b.ts", "function f(a) { if (a && b) { return 1 } for (;;) {} return a ? 1 : 2 }\n")

	assert.Equal(t, 1, flat.Complexity)
	// if, &&, for, ternary
	assert.Equal(t, 5, branchy.Complexity)
	assert.Equal(t, 5, branchy.Functions[0].Complexity)
}

func TestScopeName(t *testing.T) {
	src := `
if (top) {}
function outer() { if (a) {} }
class Widget { render() { if (b) {} } }
const handler = () => { if (c) {} }
`
	ctx := build(t, "scope.ts", src)

	var scopes []string
	treesitter.Walk(ctx.Tree().Root(), func(n *sitter.Node) bool {
		if n.Type() == "if_statement" {
			scopes = append(scopes, ScopeName(n, ctx.Source()))
		}
		return true
	})
	assert.Equal(t, []string{TopScope, "outer", "Widget.render", "handler"}, scopes)
}

func TestInferType(t *testing.T) {
	src := `
const a = "s"
const b = 1
const c = -1
const d = true
const e = null
const f = () => 1
const g = {}
const h = [1]
const i = fetch(url)
const j = new Map()
const k = other
`
	ctx := build(t, "infer.ts", src)

	var types []string
	for _, v := range ctx.Variables {
		types = append(types, v.Type)
	}
	assert.Equal(t, []string{
		"string", "number", "number", "boolean", "null", "function", "object", "array",
		"call:fetch", "new:Map", "ref:other",
	}, types)
}
