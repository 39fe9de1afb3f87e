package changes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/semantic"
	"github.com/rohankatakam/semdiff/internal/treesitter"
)

func build(t *testing.T, path, src string) *semantic.Context {
	t.Helper()
	tree, err := treesitter.Parse(context.Background(), path, []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return semantic.Build(tree)
}

func detect(t *testing.T, path, before, after string, cfg config.AnalyzerConfig) []Change {
	t.Helper()
	return Detect(build(t, path, before), build(t, path, after), cfg)
}

func ofKind(changes []Change, kind Kind) []Change {
	var out []Change
	for _, c := range changes {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func TestDetectIdenticalSourceIsEmpty(t *testing.T) {
	sources := map[string]string{
		"service.ts": `
import { db } from "./db"
export interface User { id: string; name?: string }
export class Repo extends Base {
  cache = new Map()
  async get(id: string): Promise<User> {
    if (!id || id === "") { throw new Error("id required") }
    try { return await db.find(id) } catch (e) { log(e) } finally { done() }
  }
}
export const VERSION = "1.0"
for (const k of keys) { register(k) }
`,
		"counter.jsx": `
import React, { useState } from "react"
export default function Counter({ start }) {
  const [count, setCount] = useState(start)
  const { a, b } = props
  while (count > 10) { setCount(count - 1) }
  return <div className="c"><span>{count}</span></div>
}
`,
	}

	for path, src := range sources {
		t.Run(path, func(t *testing.T) {
			got := detect(t, path, src, src, config.Default().Analyzer)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestDetectIgnoresFormattingAndComments(t *testing.T) {
	before := `function f(a) { for (let i=0;i<a;i++) { if (i>2) { throw new Error('x') } } try { g() } catch (e) { h() } const {x, y} = obj; while (x) { y() } }`
	after := `
function f(a) {
  // walk the range
  for (let i = 0; i < a; i++) {
    if (i > 2) {
      throw new Error('x')
    }
  }

  try {
    g()
  } catch (e) {
    /* recover */
    h()
  }

  const { x, y } = obj;
  while (x) {
    y()
  }
}
`
	got := detect(t, "f.js", before, after, config.Default().Analyzer)
	assert.Empty(t, got)

	// template literal substitutions
	before = "if (x) { throw new Error(`bad ${x}`) }\nfor (const k of ks) { log(`k=${k}`) }\n"
	after = "if (x) { throw new Error(`bad ${ x }`) }\nfor (const k of ks) { log(`k=${ /* key */ k }`) }\n"
	got = detect(t, "g.js", before, after, config.Default().Analyzer)
	assert.Empty(t, got)
}

func TestStringLiteralWhitespaceIsSignificant(t *testing.T) {
	got := detect(t, "a.js", "if (x) { throw new Error('a b') }\n", "if (x) { throw new Error('a  b') }\n", config.AnalyzerConfig{})
	require.Len(t, ofKind(got, KindThrowModified), 1)
}

func TestConditionalMatchingIsCountConservative(t *testing.T) {
	one := "if (x) { y() }\n"
	three := one + one + one

	removed := detect(t, "a.js", three, one, config.AnalyzerConfig{})
	assert.Len(t, ofKind(removed, KindConditionalRemoved), 2)
	assert.Empty(t, ofKind(removed, KindConditionalAdded))

	added := detect(t, "a.js", one, three, config.AnalyzerConfig{})
	assert.Len(t, ofKind(added, KindConditionalAdded), 2)
	assert.Empty(t, ofKind(added, KindConditionalRemoved))

	modified := detect(t, "a.js", "if (a) { y() }\n", "if (b) { y() }\n", config.AnalyzerConfig{})
	require.Len(t, modified, 1)
	assert.Equal(t, KindConditionalModified, modified[0].Kind)
	assert.Equal(t, SeverityHigh, modified[0].Severity)
	assert.Contains(t, modified[0].Detail, "`a`")
	assert.Contains(t, modified[0].Detail, "`b`")
}

func TestParameterRenameIsNotASignatureChange(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
	}{
		{"typed", "function f(a: number, b: string) { return a }\n", "function f(x: number, y: string) { return x }\n"},
		{"arrow", "const g = (req, res) => res.send(req.body)\n", "const g = (request, response) => response.send(request.body)\n"},
		{"rest", "function h(first: string, ...rest: number[]) {}\n", "function h(head: string, ...tail: number[]) {}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detect(t, "a.ts", tt.before, tt.after, config.AnalyzerConfig{})
			assert.Empty(t, ofKind(got, KindFunctionSignatureChanged))
		})
	}
}

func TestAddedParameterChangesSignature(t *testing.T) {
	got := detect(t, "a.ts", "function f(a: number) {}\n", "function f(a: number, b: number) {}\n", config.AnalyzerConfig{})

	require.Len(t, got, 1)
	assert.Equal(t, KindFunctionSignatureChanged, got[0].Kind)
	assert.Equal(t, SeverityHigh, got[0].Severity)
	assert.Equal(t, 1, got[0].Line)
	assert.Contains(t, got[0].Detail, "f(a: number, b: number)")
}

func TestMovedConditionalIsNotReported(t *testing.T) {
	before := "function g() {}\nif (ready) { start() }\n"
	after := "if (ready) { start() }\n\n\nfunction g() {}\n"

	got := detect(t, "a.js", before, after, config.AnalyzerConfig{})
	assert.Empty(t, ofKind(got, KindConditionalAdded))
	assert.Empty(t, ofKind(got, KindConditionalRemoved))
	assert.Empty(t, ofKind(got, KindConditionalModified))
}

func TestComparisonOperatorChange(t *testing.T) {
	got := detect(t, "a.js", "const same = a == b\n", "const same = a === b\n", config.AnalyzerConfig{})

	require.Len(t, got, 1)
	assert.Equal(t, KindComparisonOperatorChanged, got[0].Kind)
	assert.Equal(t, SeverityMedium, got[0].Severity)
	assert.Contains(t, got[0].Detail, "`==` to `===`")
}

func TestLogicalOperatorChange(t *testing.T) {
	got := detect(t, "a.js", "const v = a || b\n", "const v = a ?? b\n", config.AnalyzerConfig{})

	require.Len(t, got, 1)
	assert.Equal(t, KindLogicalOperatorChanged, got[0].Kind)
}

func TestImportChanges(t *testing.T) {
	cfg := config.AnalyzerConfig{SideEffectModules: []string{"*polyfill*"}}

	removed := detect(t, "a.ts", "import fs from \"fs\"\nimport path from \"path\"\n", "import path from \"path\"\n", cfg)
	require.Len(t, removed, 1)
	assert.Equal(t, KindImportRemoved, removed[0].Kind)
	assert.Equal(t, SeverityMedium, removed[0].Severity)
	assert.Equal(t, 1, removed[0].Line)

	sideEffect := detect(t, "a.ts", "import path from \"path\"\n", "import path from \"path\"\nimport \"./polyfill\"\n", cfg)
	require.Len(t, sideEffect, 1)
	assert.Equal(t, KindSideEffectImportAdded, sideEffect[0].Kind)
	assert.Equal(t, SeverityHigh, sideEffect[0].Severity)
	assert.Equal(t, 2, sideEffect[0].Line)

	plain := detect(t, "a.ts", "", "import { join } from \"path\"\n", cfg)
	require.Len(t, plain, 1)
	assert.Equal(t, KindImportAdded, plain[0].Kind)
	assert.Equal(t, SeverityLow, plain[0].Severity)

	specifiers := detect(t, "a.ts", "import { join } from \"path\"\n", "import { join, resolve } from \"path\"\n", cfg)
	require.Len(t, specifiers, 1)
	assert.Equal(t, KindImportSpecifiersAdded, specifiers[0].Kind)
	assert.Contains(t, specifiers[0].Detail, "resolve")
}

func TestMalformedGlobFailsOnlyItsAnalyzer(t *testing.T) {
	cfg := config.AnalyzerConfig{SideEffectModules: []string{"[abc"}}
	base := build(t, "a.ts", "import a from \"a\"\n")
	head := build(t, "a.ts", "import b from \"b\"\nfunction added() {}\n")

	got, failures := DetectAll(base, head, cfg)
	require.Len(t, failures, 1)
	assert.Equal(t, "imports", failures[0].Analyzer)
	assert.Error(t, failures[0])

	assert.Len(t, ofKind(got, KindFunctionAdded), 1)
	assert.Empty(t, ofKind(got, KindImportAdded))
	assert.Empty(t, ofKind(got, KindImportRemoved))

	// Detect swallows the failure
	assert.Len(t, Detect(base, head, cfg), len(got))
}

func TestControlFlowChanges(t *testing.T) {
	tests := []struct {
		name     string
		before   string
		after    string
		kind     Kind
		severity Severity
	}{
		{
			name:     "throw modified",
			before:   "function f() { throw new Error(\"a\") }\n",
			after:    "function f() { throw new TypeError(\"a\") }\n",
			kind:     KindThrowModified,
			severity: SeverityHigh,
		},
		{
			name:     "throw added",
			before:   "function f(x) { return x }\n",
			after:    "function f(x) { throw x }\n",
			kind:     KindThrowAdded,
			severity: SeverityHigh,
		},
		{
			name:     "loop modified",
			before:   "for (const a of items) { use(a) }\n",
			after:    "for (const a of items) { use(a, 1) }\n",
			kind:     KindLoopModified,
			severity: SeverityMedium,
		},
		{
			name:     "loop removed",
			before:   "while (busy) { wait() }\n",
			after:    "",
			kind:     KindLoopRemoved,
			severity: SeverityMedium,
		},
		{
			name:     "try added",
			before:   "",
			after:    "try { run() } catch (e) {}\n",
			kind:     KindTryCatchAdded,
			severity: SeverityMedium,
		},
		{
			name:     "catch changed",
			before:   "try { run() } catch (e) { log(e) }\n",
			after:    "try { run() } catch (e) { rethrow(e) }\n",
			kind:     KindTryCatchModified,
			severity: SeverityMedium,
		},
		{
			name:     "destructuring added",
			before:   "function f(o) {}\n",
			after:    "function f(o) { const { a } = o }\n",
			kind:     KindDestructuringAdded,
			severity: SeverityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ofKind(detect(t, "a.js", tt.before, tt.after, config.AnalyzerConfig{}), tt.kind)
			require.Len(t, got, 1)
			assert.Equal(t, tt.severity, got[0].Severity)
		})
	}
}

func TestInsertedStatementDoesNotShiftAlignment(t *testing.T) {
	before := "function f(x) {\n  if (x == 1) throw new A()\n  if (x == 2) throw new B()\n  for (const a of as) { use(a) }\n}\n"
	after := "function f(x) {\n  if (x == 0) throw new C()\n  if (x == 1) throw new A()\n  if (x == 2) throw new B()\n  while (busy) { wait() }\n  for (const a of as) { use(a) }\n}\n"

	got := detect(t, "a.js", before, after, config.AnalyzerConfig{})
	assert.Empty(t, ofKind(got, KindThrowModified))
	assert.Empty(t, ofKind(got, KindLoopModified))
	require.Len(t, ofKind(got, KindThrowAdded), 1)
	assert.Contains(t, ofKind(got, KindThrowAdded)[0].Detail, "new C ( )")
	require.Len(t, ofKind(got, KindLoopAdded), 1)
	assert.Contains(t, ofKind(got, KindLoopAdded)[0].Detail, "while")

	// an edited throw still pairs by position once identical ones are matched
	edited := "function f(x) {\n  if (x == 1) throw new A()\n  if (x == 2) throw new D()\n  for (const a of as) { use(a) }\n}\n"
	got = detect(t, "a.js", before, edited, config.AnalyzerConfig{})
	require.Len(t, ofKind(got, KindThrowModified), 1)
	assert.Contains(t, ofKind(got, KindThrowModified)[0].Detail, "new B ( )")
	assert.Empty(t, ofKind(got, KindThrowAdded))
	assert.Empty(t, ofKind(got, KindThrowRemoved))
}

func TestTryRemovalIsNotReported(t *testing.T) {
	got := detect(t, "a.js", "try { run() } catch (e) {}\n", "run()\n", config.AnalyzerConfig{})
	assert.Empty(t, ofKind(got, KindTryCatchAdded))
	assert.Empty(t, ofKind(got, KindTryCatchModified))
}

func TestDeclarationChanges(t *testing.T) {
	before := `
class Store extends Base { get() {} }
interface Item { id: string }
function load() {}
`
	after := `
class Store extends Other { get() {} put() {} }
interface Item { id: number; label: string; save(): void }
async function load() {}
function fresh() {}
`
	got := detect(t, "a.ts", before, after, config.AnalyzerConfig{})

	assert.Len(t, ofKind(got, KindClassExtendsChanged), 1)
	assert.Len(t, ofKind(got, KindClassMethodAdded), 1)
	assert.Len(t, ofKind(got, KindFunctionAsyncChanged), 1)

	changed := ofKind(got, KindInterfacePropertyChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, SeverityHigh, changed[0].Severity)
	assert.Len(t, ofKind(got, KindInterfacePropertyAdded), 1)
	assert.Len(t, ofKind(got, KindInterfaceMethodAdded), 1)

	var added []string
	for _, c := range ofKind(got, KindFunctionAdded) {
		added = append(added, c.Detail)
	}
	assert.ElementsMatch(t, []string{"New function `Store.put()`", "New function `fresh()`"}, added)

	removed := detect(t, "a.ts", before, "", config.AnalyzerConfig{})
	assert.Len(t, ofKind(removed, KindClassRemoved), 1)
	assert.Len(t, ofKind(removed, KindInterfaceRemoved), 1)
	assert.Len(t, ofKind(removed, KindFunctionRemoved), 2)
}

func TestExportChanges(t *testing.T) {
	cfg := config.AnalyzerConfig{SideEffectCallees: []string{"connect*"}}

	got := detect(t, "a.ts",
		"export const limit = 10\nexport function run() {}\nexport const gone = 1\n",
		"export const limit = \"10\"\nexport default function run() {}\nexport const db = connectDB()\nexport const fresh = 2\n",
		cfg)

	assert.Len(t, ofKind(got, KindExportTypeChanged), 1)
	assert.Len(t, ofKind(got, KindExportSignatureChanged), 1)
	assert.Len(t, ofKind(got, KindSideEffectExportAdded), 1)
	assert.Len(t, ofKind(got, KindExportAdded), 1)
	assert.Len(t, ofKind(got, KindExportRemoved), 1)
}

func TestSideEffectCalls(t *testing.T) {
	cfg := config.AnalyzerConfig{SideEffectCallees: []string{"register*"}}

	got := detect(t, "a.js", "registerPlugin(a)\n", "registerPlugin(a)\nregisterPlugin(b)\nconsole.log(1)\n", cfg)
	calls := ofKind(got, KindSideEffectCallAdded)
	require.Len(t, calls, 1)
	assert.Equal(t, 2, calls[0].Line)
	assert.Equal(t, SeverityHigh, calls[0].Severity)
}

func TestReactiveChanges(t *testing.T) {
	before := `
function App() {
  const [v, setV] = useState(0)
  return <button className="a" onClick={() => setV(v + 1)}>go</button>
}
`
	after := `
function App() {
  const [v, setV] = useState(0)
  useEffect(() => {}, [v])
  return <button className="b" onClick={() => setV(v + 1)}>go</button>
}
`
	got := detect(t, "app.jsx", before, after, config.AnalyzerConfig{})

	hooks := ofKind(got, KindStateHookUsageChanged)
	require.Len(t, hooks, 1)
	assert.Equal(t, SeverityHigh, hooks[0].Severity)
	assert.Contains(t, hooks[0].Detail, "useEffect")

	ui := ofKind(got, KindUIElementModified)
	require.Len(t, ui, 1)
	assert.Equal(t, SeverityLow, ui[0].Severity)
	assert.Equal(t, "App", ui[0].Context)
}

func TestFileComplexityChange(t *testing.T) {
	before := "function f(a) { return a }\n"
	after := "function f(a) { if (a) {} if (a) {} if (a) {} if (a) {} if (a && b) {} for (;;) {} return a }\n"

	got := detect(t, "a.js", before, after, config.AnalyzerConfig{})
	assert.Len(t, ofKind(got, KindComplexityChanged), 1)
	assert.Len(t, ofKind(got, KindFunctionComplexityChanged), 1)
}

func TestAnalyzerPanicIsIsolated(t *testing.T) {
	ctx := build(t, "a.js", "f()\n")
	_, err := runAnalyzer(panicAnalyzer{}, ctx, ctx, config.AnalyzerConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

type panicAnalyzer struct{}

func (panicAnalyzer) Name() string { return "panic" }

func (panicAnalyzer) Analyze(_, _ *semantic.Context, _ config.AnalyzerConfig) ([]Change, error) {
	panic("boom")
}

func TestSeverity(t *testing.T) {
	assert.True(t, SeverityHigh.AtLeast(SeverityMedium))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
	assert.False(t, SeverityHigh.AtLeast(""))

	sev, err := ParseSeverity(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, sev)
	_, err = ParseSeverity("critical")
	assert.Error(t, err)

	assert.Equal(t, SeverityHigh, MaxSeverity([]Change{{Severity: SeverityLow}, {Severity: SeverityHigh}}))
	assert.Equal(t, Severity(""), MaxSeverity(nil))
}

func TestKindTaxonomyIsClosed(t *testing.T) {
	seen := make(map[Kind]bool, len(AllKinds))
	for _, k := range AllKinds {
		assert.False(t, seen[k], "duplicate kind %s", k)
		seen[k] = true
		assert.True(t, k.Known())
	}
	assert.False(t, Kind("conditionalRenamed").Known())

	before := "import a from \"a\"\nfunction f(x) { if (x) { throw x } }\nclass C {}\n"
	after := "import b from \"b\"\nasync function f(x, y) { for (;;) {} }\nclass C extends D { m() {} }\n"
	for _, c := range detect(t, "a.ts", before, after, config.AnalyzerConfig{}) {
		assert.True(t, c.Kind.Known(), "kind %s", c.Kind)
	}
}
