package changes

import (
	"fmt"
	"sort"

	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/semantic"
)

// stateHookAnalyzer compares how often each stateful-binding construct is called
type stateHookAnalyzer struct{}

func (stateHookAnalyzer) Name() string { return "stateHooks" }

func (stateHookAnalyzer) Analyze(base, head *semantic.Context, _ config.AnalyzerConfig) ([]Change, error) {
	before, firstBase := countHooks(base.StateHooks)
	after, firstHead := countHooks(head.StateHooks)

	types := make([]string, 0, len(before)+len(after))
	for t := range before {
		types = append(types, t)
	}
	for t := range after {
		if _, ok := before[t]; !ok {
			types = append(types, t)
		}
	}
	sort.Strings(types)

	var out []Change
	for _, t := range types {
		if before[t] == after[t] {
			continue
		}
		at, ok := firstHead[t]
		if !ok {
			at = firstBase[t]
		}
		out = append(out, declChange(KindStateHookUsageChanged, SeverityHigh, at.Line, at.Column,
			"call_expression", at.Scope,
			fmt.Sprintf("`%s` calls changed from %d to %d", t, before[t], after[t])))
	}
	return out, nil
}

func countHooks(hooks []semantic.StateHookCall) (map[string]int, map[string]semantic.StateHookCall) {
	counts := make(map[string]int)
	first := make(map[string]semantic.StateHookCall)
	for _, h := range hooks {
		if counts[h.Type] == 0 {
			first[h.Type] = h
		}
		counts[h.Type]++
	}
	return counts, first
}

// uiElementAnalyzer pairs JSX elements by scope and tag and compares attributes
type uiElementAnalyzer struct{}

func (uiElementAnalyzer) Name() string { return "uiElements" }

func (uiElementAnalyzer) Analyze(base, head *semantic.Context, _ config.AnalyzerConfig) ([]Change, error) {
	fingerprint := func(e semantic.UIElement) string {
		return e.Scope + "::" + e.Tag
	}

	buckets := NewMultimap[semantic.UIElement]()
	for _, e := range base.UIElements {
		buckets.Add(fingerprint(e), e)
	}

	var out []Change
	for _, h := range head.UIElements {
		b, ok := buckets.PopFront(fingerprint(h))
		if !ok {
			out = append(out, uiChange(KindUIElementAdded, h, fmt.Sprintf("New <%s> element%s", h.Tag, scopeSuffix(h.Scope))))
			continue
		}
		if b.Attributes != h.Attributes {
			out = append(out, uiChange(KindUIElementModified, h,
				fmt.Sprintf("Attributes of <%s> changed from `%s` to `%s`%s",
					h.Tag, snippet(b.Attributes), snippet(h.Attributes), scopeSuffix(h.Scope))))
		}
	}

	for _, b := range buckets.Remaining() {
		out = append(out, uiChange(KindUIElementRemoved, b, fmt.Sprintf("<%s> element removed%s", b.Tag, scopeSuffix(b.Scope))))
	}
	return out, nil
}

func uiChange(kind Kind, e semantic.UIElement, detail string) Change {
	c := declChange(kind, SeverityLow, e.Line, e.Column, "jsx_element", e.Scope, detail)
	if e.EndLine > e.Line {
		c.EndLine = e.EndLine
	}
	return c
}
