// Package changes compares two semantic contexts of the same file and reports
// the semantically meaningful edits between them.
package changes

import (
	"fmt"
	"strings"
)

// Severity ranks how likely a change is to alter runtime behavior or break callers
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities: low < medium < high
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	}
	return 0
}

// AtLeast reports whether s is as severe as threshold
func (s Severity) AtLeast(threshold Severity) bool {
	return s.Rank() >= threshold.Rank() && threshold.Rank() > 0
}

// ParseSeverity converts "low", "medium" or "high" to a Severity
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(strings.ToLower(strings.TrimSpace(s))); sev {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return sev, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Kind identifies the category of a change
type Kind string

const (
	KindConditionalAdded    Kind = "conditionalAdded"
	KindConditionalRemoved  Kind = "conditionalRemoved"
	KindConditionalModified Kind = "conditionalModified"

	KindLoopAdded    Kind = "loopAdded"
	KindLoopRemoved  Kind = "loopRemoved"
	KindLoopModified Kind = "loopModified"

	KindTryCatchAdded    Kind = "tryCatchAdded"
	KindTryCatchModified Kind = "tryCatchModified"

	KindThrowAdded    Kind = "throwAdded"
	KindThrowRemoved  Kind = "throwRemoved"
	KindThrowModified Kind = "throwModified"

	KindDestructuringAdded   Kind = "destructuringAdded"
	KindDestructuringRemoved Kind = "destructuringRemoved"

	KindComparisonOperatorChanged Kind = "comparisonOperatorChanged"
	KindLogicalOperatorChanged    Kind = "logicalOperatorChanged"

	KindFunctionAdded             Kind = "functionAdded"
	KindFunctionRemoved           Kind = "functionRemoved"
	KindFunctionSignatureChanged  Kind = "functionSignatureChanged"
	KindFunctionComplexityChanged Kind = "functionComplexityChanged"
	KindFunctionAsyncChanged      Kind = "functionAsyncChanged"

	KindClassAdded          Kind = "classAdded"
	KindClassRemoved        Kind = "classRemoved"
	KindClassExtendsChanged Kind = "classExtendsChanged"
	KindClassMethodAdded    Kind = "classMethodAdded"
	KindClassPropertyAdded  Kind = "classPropertyAdded"

	KindInterfaceAdded           Kind = "interfaceAdded"
	KindInterfaceRemoved         Kind = "interfaceRemoved"
	KindInterfacePropertyAdded   Kind = "interfacePropertyAdded"
	KindInterfacePropertyChanged Kind = "interfacePropertyChanged"
	KindInterfaceMethodAdded     Kind = "interfaceMethodAdded"

	KindExportAdded            Kind = "exportAdded"
	KindExportRemoved          Kind = "exportRemoved"
	KindExportSignatureChanged Kind = "exportSignatureChanged"
	KindExportTypeChanged      Kind = "exportTypeChanged"
	KindSideEffectExportAdded  Kind = "sideEffectExportAdded"

	KindImportAdded           Kind = "importAdded"
	KindImportRemoved         Kind = "importRemoved"
	KindImportSpecifiersAdded Kind = "importSpecifiersAdded"
	KindSideEffectImportAdded Kind = "sideEffectImportAdded"
	KindSideEffectCallAdded   Kind = "sideEffectCallAdded"

	KindStateHookUsageChanged Kind = "stateHookUsageChanged"

	KindUIElementAdded    Kind = "uiElementAdded"
	KindUIElementRemoved  Kind = "uiElementRemoved"
	KindUIElementModified Kind = "uiElementModified"

	KindComplexityChanged Kind = "complexityChanged"
)

// AllKinds lists the closed change taxonomy
var AllKinds = []Kind{
	KindConditionalAdded, KindConditionalRemoved, KindConditionalModified,
	KindLoopAdded, KindLoopRemoved, KindLoopModified,
	KindTryCatchAdded, KindTryCatchModified,
	KindThrowAdded, KindThrowRemoved, KindThrowModified,
	KindDestructuringAdded, KindDestructuringRemoved,
	KindComparisonOperatorChanged, KindLogicalOperatorChanged,
	KindFunctionAdded, KindFunctionRemoved, KindFunctionSignatureChanged,
	KindFunctionComplexityChanged, KindFunctionAsyncChanged,
	KindClassAdded, KindClassRemoved, KindClassExtendsChanged,
	KindClassMethodAdded, KindClassPropertyAdded,
	KindInterfaceAdded, KindInterfaceRemoved, KindInterfacePropertyAdded,
	KindInterfacePropertyChanged, KindInterfaceMethodAdded,
	KindExportAdded, KindExportRemoved, KindExportSignatureChanged,
	KindExportTypeChanged, KindSideEffectExportAdded,
	KindImportAdded, KindImportRemoved, KindImportSpecifiersAdded,
	KindSideEffectImportAdded, KindSideEffectCallAdded,
	KindStateHookUsageChanged,
	KindUIElementAdded, KindUIElementRemoved, KindUIElementModified,
	KindComplexityChanged,
}

var knownKinds = func() map[Kind]bool {
	known := make(map[Kind]bool, len(AllKinds))
	for _, k := range AllKinds {
		known[k] = true
	}
	return known
}()

// Known reports whether k belongs to the change taxonomy
func (k Kind) Known() bool {
	return knownKinds[k]
}

// Change is one semantically meaningful edit. Changes are values; analyzers
// produce them and nothing mutates them afterwards.
type Change struct {
	Kind     Kind     `json:"kind" yaml:"kind"`
	Severity Severity `json:"severity" yaml:"severity"`
	Line     int      `json:"line" yaml:"line"`
	Column   int      `json:"column" yaml:"column"`
	EndLine  int      `json:"endLine,omitempty" yaml:"endLine,omitempty"`
	Detail   string   `json:"detail" yaml:"detail"`
	// ASTNode is the structural category of the affected construct
	ASTNode string `json:"astNode" yaml:"astNode"`
	// Context names the enclosing scope when one is known
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
}

// String renders a change as "line:col severity kind: detail"
func (c Change) String() string {
	return fmt.Sprintf("%d:%d %s %s: %s", c.Line, c.Column, c.Severity, c.Kind, c.Detail)
}

// MaxSeverity returns the highest severity among changes, or "" when empty
func MaxSeverity(changes []Change) Severity {
	var highest Severity
	for _, c := range changes {
		if c.Severity.Rank() > highest.Rank() {
			highest = c.Severity
		}
	}
	return highest
}

// CountByKind tallies changes per kind
func CountByKind(changes []Change) map[Kind]int {
	counts := make(map[Kind]int)
	for _, c := range changes {
		counts[c.Kind]++
	}
	return counts
}
