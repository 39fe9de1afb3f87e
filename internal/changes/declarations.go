package changes

import (
	"fmt"

	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/semantic"
)

// complexityDelta is the per-function change in cyclomatic estimate that is
// worth reporting
const complexityDelta = 3

// functionAnalyzer matches functions by name. Duplicate names pair in
// declaration order.
type functionAnalyzer struct{}

func (functionAnalyzer) Name() string { return "functions" }

func (functionAnalyzer) Analyze(base, head *semantic.Context, _ config.AnalyzerConfig) ([]Change, error) {
	byName := NewMultimap[semantic.Function]()
	for _, f := range base.Functions {
		byName.Add(f.Name, f)
	}

	var out []Change
	for _, h := range head.Functions {
		b, ok := byName.PopFront(h.Name)
		if !ok {
			out = append(out, declChange(KindFunctionAdded, SeverityMedium, h.Line, h.Column,
				"function", h.Scope, fmt.Sprintf("New function `%s`", h.Signature())))
			continue
		}

		if !equivalentSignatures(b, h) {
			out = append(out, declChange(KindFunctionSignatureChanged, SeverityHigh, h.Line, h.Column,
				"function", h.Scope,
				fmt.Sprintf("Signature changed from `%s` to `%s`", b.Signature(), h.Signature())))
		}

		if delta := h.Complexity - b.Complexity; delta > complexityDelta || delta < -complexityDelta {
			out = append(out, declChange(KindFunctionComplexityChanged, SeverityMedium, h.Line, h.Column,
				"function", h.Scope,
				fmt.Sprintf("Complexity of `%s` changed from %d to %d", h.Name, b.Complexity, h.Complexity)))
		}

		if b.IsAsync != h.IsAsync {
			detail := fmt.Sprintf("`%s` became async", h.Name)
			if !h.IsAsync {
				detail = fmt.Sprintf("`%s` is no longer async", h.Name)
			}
			out = append(out, declChange(KindFunctionAsyncChanged, SeverityMedium, h.Line, h.Column,
				"function", h.Scope, detail))
		}
	}

	for _, b := range byName.Remaining() {
		out = append(out, declChange(KindFunctionRemoved, SeverityHigh, b.Line, b.Column,
			"function", b.Scope, fmt.Sprintf("Function `%s` removed", b.Signature())))
	}
	return out, nil
}

// equivalentSignatures treats two signatures as equal when they match exactly
// or differ only by a systematic renaming of parameters
func equivalentSignatures(a, b semantic.Function) bool {
	return a.Signature() == b.Signature() || a.Shape() == b.Shape()
}

type classAnalyzer struct{}

func (classAnalyzer) Name() string { return "classes" }

func (classAnalyzer) Analyze(base, head *semantic.Context, _ config.AnalyzerConfig) ([]Change, error) {
	byName := NewMultimap[semantic.Class]()
	for _, c := range base.Classes {
		byName.Add(c.Name, c)
	}

	var out []Change
	for _, h := range head.Classes {
		b, ok := byName.PopFront(h.Name)
		if !ok {
			detail := fmt.Sprintf("New class `%s`", h.Name)
			if h.Extends != "" {
				detail += fmt.Sprintf(" extending `%s`", h.Extends)
			}
			out = append(out, declChange(KindClassAdded, SeverityHigh, h.Line, h.Column, "class", h.Name, detail))
			continue
		}

		if b.Extends != h.Extends {
			out = append(out, declChange(KindClassExtendsChanged, SeverityHigh, h.Line, h.Column, "class", h.Name,
				fmt.Sprintf("`%s` now extends %s (was %s)", h.Name, orNone(h.Extends), orNone(b.Extends))))
		}

		methods := make(map[string]bool, len(b.Methods))
		for _, m := range b.Methods {
			methods[m.Name] = true
		}
		for _, m := range h.Methods {
			if !methods[m.Name] {
				out = append(out, declChange(KindClassMethodAdded, SeverityMedium, m.Line, m.Column,
					"method", h.Name, fmt.Sprintf("New method `%s.%s`", h.Name, m.Name)))
			}
		}

		props := make(map[string]bool, len(b.Properties))
		for _, p := range b.Properties {
			props[p.Name] = true
		}
		for _, p := range h.Properties {
			if !props[p.Name] {
				out = append(out, declChange(KindClassPropertyAdded, SeverityMedium, p.Line, p.Column,
					"property", h.Name, fmt.Sprintf("New property `%s.%s`", h.Name, p.Name)))
			}
		}
	}

	for _, b := range byName.Remaining() {
		out = append(out, declChange(KindClassRemoved, SeverityHigh, b.Line, b.Column, "class", b.Name,
			fmt.Sprintf("Class `%s` removed", b.Name)))
	}
	return out, nil
}

func orNone(s string) string {
	if s == "" {
		return "nothing"
	}
	return "`" + s + "`"
}

type interfaceAnalyzer struct{}

func (interfaceAnalyzer) Name() string { return "interfaces" }

func (interfaceAnalyzer) Analyze(base, head *semantic.Context, _ config.AnalyzerConfig) ([]Change, error) {
	byName := NewMultimap[semantic.Interface]()
	for _, i := range base.Interfaces {
		byName.Add(i.Name, i)
	}

	var out []Change
	for _, h := range head.Interfaces {
		b, ok := byName.PopFront(h.Name)
		if !ok {
			out = append(out, declChange(KindInterfaceAdded, SeverityMedium, h.Line, h.Column, "interface", h.Name,
				fmt.Sprintf("New interface `%s`", h.Name)))
			continue
		}

		props := make(map[string]semantic.Member, len(b.Properties))
		for _, p := range b.Properties {
			props[p.Name] = p
		}
		for _, p := range h.Properties {
			old, existed := props[p.Name]
			switch {
			case !existed:
				out = append(out, declChange(KindInterfacePropertyAdded, SeverityMedium, p.Line, p.Column,
					"property", h.Name, fmt.Sprintf("New property `%s.%s%s`", h.Name, p.Name, memberType(p))))
			case old.Type != p.Type || old.Optional != p.Optional:
				out = append(out, declChange(KindInterfacePropertyChanged, SeverityHigh, p.Line, p.Column,
					"property", h.Name, fmt.Sprintf("Property `%s.%s` changed from `%s` to `%s`",
						h.Name, p.Name, p.Name+memberType(old), p.Name+memberType(p))))
			}
		}

		methods := make(map[string]bool, len(b.Methods))
		for _, m := range b.Methods {
			methods[m.Name] = true
		}
		for _, m := range h.Methods {
			if !methods[m.Name] {
				out = append(out, declChange(KindInterfaceMethodAdded, SeverityHigh, m.Line, m.Column,
					"method", h.Name, fmt.Sprintf("New method `%s.%s` must be implemented", h.Name, m.Name)))
			}
		}
	}

	for _, b := range byName.Remaining() {
		out = append(out, declChange(KindInterfaceRemoved, SeverityHigh, b.Line, b.Column, "interface", b.Name,
			fmt.Sprintf("Interface `%s` removed", b.Name)))
	}
	return out, nil
}

// memberType renders the "?: type" suffix of a property
func memberType(m semantic.Member) string {
	s := ""
	if m.Optional {
		s = "?"
	}
	if m.Type != "" {
		s += ": " + m.Type
	}
	return s
}
