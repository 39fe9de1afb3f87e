package changes

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/semantic"
)

// conditionalAnalyzer pairs if statements by the shape of their branches, so a
// conditional that only moved is matched with its original.
type conditionalAnalyzer struct{}

func (conditionalAnalyzer) Name() string { return "conditionals" }

func (conditionalAnalyzer) Analyze(base, head *semantic.Context, _ config.AnalyzerConfig) ([]Change, error) {
	fingerprint := func(ctx *semantic.Context, o occurrence) string {
		return o.scope + "::" + text(ctx, o.node.ChildByFieldName("consequence")) +
			"::" + text(ctx, o.node.ChildByFieldName("alternative"))
	}
	guard := func(ctx *semantic.Context, o occurrence) string {
		cond := o.node.ChildByFieldName("condition")
		if cond != nil && cond.Type() == "parenthesized_expression" && cond.NamedChildCount() == 1 {
			cond = cond.NamedChild(0)
		}
		return text(ctx, cond)
	}

	return bucketMatch(base, head, collect(base, "if_statement"), collect(head, "if_statement"), bucketRules{
		fingerprint: fingerprint,
		guard:       guard,
		modified: func(b, h occurrence) Change {
			return newChange(KindConditionalModified, SeverityHigh, h.node, h.scope,
				fmt.Sprintf("Condition changed from `%s` to `%s`%s",
					snippet(guard(base, b)), snippet(guard(head, h)), scopeSuffix(h.scope)))
		},
		added: func(h occurrence) Change {
			return newChange(KindConditionalAdded, SeverityHigh, h.node, h.scope,
				fmt.Sprintf("Conditional `if %s` added%s", snippet(guard(head, h)), scopeSuffix(h.scope)))
		},
		removed: func(b occurrence) Change {
			return newChange(KindConditionalRemoved, SeverityHigh, b.node, b.scope,
				fmt.Sprintf("Conditional `if %s` removed%s", snippet(guard(base, b)), scopeSuffix(b.scope)))
		},
	}), nil
}

// destructuringAnalyzer reports destructuring declarations that appear or disappear
type destructuringAnalyzer struct{}

func (destructuringAnalyzer) Name() string { return "destructuring" }

func (destructuringAnalyzer) Analyze(base, head *semantic.Context, _ config.AnalyzerConfig) ([]Change, error) {
	patterns := func(ctx *semantic.Context) []occurrence {
		var out []occurrence
		for _, o := range collect(ctx, "variable_declarator") {
			name := o.node.ChildByFieldName("name")
			if name == nil {
				continue
			}
			switch name.Type() {
			case "object_pattern", "array_pattern":
				out = append(out, o)
			}
		}
		return out
	}
	fingerprint := func(ctx *semantic.Context, o occurrence) string {
		pattern := o.node.ChildByFieldName("name")
		return o.scope + "::" + pattern.Type() + "::" + text(ctx, pattern) +
			"::" + text(ctx, o.node.ChildByFieldName("value"))
	}
	describe := func(ctx *semantic.Context, o occurrence) string {
		return snippet(text(ctx, o.node))
	}

	return bucketMatch(base, head, patterns(base), patterns(head), bucketRules{
		fingerprint: fingerprint,
		added: func(h occurrence) Change {
			return newChange(KindDestructuringAdded, SeverityMedium, h.node, h.scope,
				fmt.Sprintf("Destructuring `%s` added%s", describe(head, h), scopeSuffix(h.scope)))
		},
		removed: func(b occurrence) Change {
			return newChange(KindDestructuringRemoved, SeverityMedium, b.node, b.scope,
				fmt.Sprintf("Destructuring `%s` removed%s", describe(base, b), scopeSuffix(b.scope)))
		},
	}), nil
}

// bucketRules configures a fingerprint-bucketed match. guard and modified are
// optional; without them matched pairs are silent.
type bucketRules struct {
	fingerprint func(*semantic.Context, occurrence) string
	guard       func(*semantic.Context, occurrence) string
	modified    func(base, head occurrence) Change
	added       func(head occurrence) Change
	removed     func(base occurrence) Change
}

// bucketMatch groups base occurrences by fingerprint and lets each head
// occurrence consume one base occurrence of the same fingerprint in encounter
// order. Unmatched head occurrences are additions; leftovers are removals.
func bucketMatch(base, head *semantic.Context, baseOccs, headOccs []occurrence, rules bucketRules) []Change {
	buckets := NewMultimap[occurrence]()
	for _, o := range baseOccs {
		buckets.Add(rules.fingerprint(base, o), o)
	}

	var out []Change
	for _, h := range headOccs {
		b, ok := buckets.PopFront(rules.fingerprint(head, h))
		if !ok {
			out = append(out, rules.added(h))
			continue
		}
		if rules.guard != nil && rules.modified != nil && rules.guard(base, b) != rules.guard(head, h) {
			out = append(out, rules.modified(b, h))
		}
	}

	for _, b := range buckets.Remaining() {
		out = append(out, rules.removed(b))
	}
	return out
}

var loopKinds = []string{"for_statement", "for_in_statement", "while_statement", "do_statement"}

// loopAnalyzer compares loops aligned within each scope
type loopAnalyzer struct{}

func (loopAnalyzer) Name() string { return "loops" }

func (loopAnalyzer) Analyze(base, head *semantic.Context, _ config.AnalyzerConfig) ([]Change, error) {
	return alignedMatch(base, head, collect(base, loopKinds...), collect(head, loopKinds...), alignedRules{
		compare: func(b, h occurrence) []Change {
			if text(base, b.node) == text(head, h.node) {
				return nil
			}
			return []Change{newChange(KindLoopModified, SeverityMedium, h.node, h.scope,
				fmt.Sprintf("Loop changed: `%s`%s", snippet(loopHeader(head, h.node)), scopeSuffix(h.scope)))}
		},
		added: func(h occurrence) Change {
			return newChange(KindLoopAdded, SeverityMedium, h.node, h.scope,
				fmt.Sprintf("Loop `%s` added%s", snippet(loopHeader(head, h.node)), scopeSuffix(h.scope)))
		},
		removed: func(b occurrence) *Change {
			c := newChange(KindLoopRemoved, SeverityMedium, b.node, b.scope,
				fmt.Sprintf("Loop `%s` removed%s", snippet(loopHeader(base, b.node)), scopeSuffix(b.scope)))
			return &c
		},
	}), nil
}

// loopHeader renders a loop without its body
func loopHeader(ctx *semantic.Context, n *sitter.Node) string {
	full := text(ctx, n)
	if body := n.ChildByFieldName("body"); body != nil {
		if bodyText := text(ctx, body); bodyText != "" {
			full = strings.Replace(full, bodyText, "{...}", 1)
		}
	}
	return full
}

// tryCatchAnalyzer compares try statements block by block
type tryCatchAnalyzer struct{}

func (tryCatchAnalyzer) Name() string { return "tryCatch" }

func (tryCatchAnalyzer) Analyze(base, head *semantic.Context, _ config.AnalyzerConfig) ([]Change, error) {
	parts := []struct {
		field string
		label string
	}{
		{"body", "try block"},
		{"handler", "catch clause"},
		{"finalizer", "finally block"},
	}

	return alignedMatch(base, head, collect(base, "try_statement"), collect(head, "try_statement"), alignedRules{
		compare: func(b, h occurrence) []Change {
			var out []Change
			for _, p := range parts {
				before := text(base, b.node.ChildByFieldName(p.field))
				after := text(head, h.node.ChildByFieldName(p.field))
				if before == after {
					continue
				}
				detail := fmt.Sprintf("%s changed%s", capitalize(p.label), scopeSuffix(h.scope))
				switch {
				case before == "":
					detail = fmt.Sprintf("%s added%s", capitalize(p.label), scopeSuffix(h.scope))
				case after == "":
					detail = fmt.Sprintf("%s removed%s", capitalize(p.label), scopeSuffix(h.scope))
				}
				out = append(out, newChange(KindTryCatchModified, SeverityMedium, h.node, h.scope, detail))
			}
			return out
		},
		added: func(h occurrence) Change {
			return newChange(KindTryCatchAdded, SeverityMedium, h.node, h.scope,
				fmt.Sprintf("Try/catch block added%s", scopeSuffix(h.scope)))
		},
		// removal of error handling is not reported
		removed: func(occurrence) *Change { return nil },
	}), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// throwAnalyzer compares throw statements aligned within each scope
type throwAnalyzer struct{}

func (throwAnalyzer) Name() string { return "throws" }

func (throwAnalyzer) Analyze(base, head *semantic.Context, _ config.AnalyzerConfig) ([]Change, error) {
	thrown := func(ctx *semantic.Context, n *sitter.Node) string {
		if n.NamedChildCount() == 0 {
			return ""
		}
		return text(ctx, n.NamedChild(0))
	}

	return alignedMatch(base, head, collect(base, "throw_statement"), collect(head, "throw_statement"), alignedRules{
		compare: func(b, h occurrence) []Change {
			before, after := thrown(base, b.node), thrown(head, h.node)
			if before == after {
				return nil
			}
			return []Change{newChange(KindThrowModified, SeverityHigh, h.node, h.scope,
				fmt.Sprintf("Thrown value changed from `%s` to `%s`%s", snippet(before), snippet(after), scopeSuffix(h.scope)))}
		},
		added: func(h occurrence) Change {
			return newChange(KindThrowAdded, SeverityHigh, h.node, h.scope,
				fmt.Sprintf("New error thrown: `%s`%s", snippet(thrown(head, h.node)), scopeSuffix(h.scope)))
		},
		removed: func(b occurrence) *Change {
			c := newChange(KindThrowRemoved, SeverityHigh, b.node, b.scope,
				fmt.Sprintf("Throw of `%s` removed%s", snippet(thrown(base, b.node)), scopeSuffix(b.scope)))
			return &c
		},
	}), nil
}

// alignedRules configures an aligned match; removed may return nil to
// suppress removal records
type alignedRules struct {
	compare func(base, head occurrence) []Change
	added   func(head occurrence) Change
	removed func(base occurrence) *Change
}

// alignedMatch pairs occurrences in two passes. Occurrences with identical
// normalized text in the same scope pair first, in encounter order; the rest
// pair by their ordinal among the unpaired occurrences of their scope.
// Changes are emitted in head order, then removals in base order.
func alignedMatch(base, head *semantic.Context, baseOccs, headOccs []occurrence, rules alignedRules) []Change {
	const unpaired = -1
	pairOf := make([]int, len(headOccs))
	basePaired := make([]bool, len(baseOccs))

	exact := NewMultimap[int]()
	for i, o := range baseOccs {
		exact.Add(o.scope+"::"+text(base, o.node), i)
	}
	for j, h := range headOccs {
		pairOf[j] = unpaired
		if i, ok := exact.PopFront(h.scope + "::" + text(head, h.node)); ok {
			pairOf[j] = i
			basePaired[i] = true
		}
	}

	byOrdinal := ordinalKeys(baseOccs, func(i int) bool { return basePaired[i] })
	headKeys := ordinalKeys(headOccs, func(j int) bool { return pairOf[j] != unpaired })
	for key, j := range headKeys {
		if i, ok := byOrdinal[key]; ok {
			pairOf[j] = i
			basePaired[i] = true
		}
	}

	var out []Change
	for j, h := range headOccs {
		if pairOf[j] == unpaired {
			out = append(out, rules.added(h))
			continue
		}
		out = append(out, rules.compare(baseOccs[pairOf[j]], h)...)
	}

	for i, b := range baseOccs {
		if basePaired[i] {
			continue
		}
		if c := rules.removed(b); c != nil {
			out = append(out, *c)
		}
	}
	return out
}
