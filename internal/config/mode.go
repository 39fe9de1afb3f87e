package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// RunMode represents the context the CLI is running in
type RunMode string

const (
	// ModeCI represents CI/CD pipeline execution
	// - Reports are emitted as workflow annotations
	// - No interactive output
	ModeCI RunMode = "ci"

	// ModeInteractive represents a terminal session
	// - Human-readable text reports
	ModeInteractive RunMode = "interactive"

	// ModePipe represents output redirected to a file or another process
	// - Machine-readable JSON reports
	ModePipe RunMode = "pipe"
)

// DetectMode determines the run context based on environment
func DetectMode() RunMode {
	// Explicit mode override (highest priority)
	if mode := os.Getenv("SEMDIFF_MODE"); mode != "" {
		switch strings.ToLower(mode) {
		case "ci", "cicd":
			return ModeCI
		case "interactive", "tty":
			return ModeInteractive
		case "pipe", "json":
			return ModePipe
		}
	}

	if isCI() {
		return ModeCI
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return ModeInteractive
	}

	return ModePipe
}

// isCI detects if running in a CI/CD environment
func isCI() bool {
	return GetBool("GITHUB_ACTIONS", false) || GetBool("CI", false)
}

// String returns the string representation of the mode
func (m RunMode) String() string {
	return string(m)
}

// DefaultFormat returns the report format used when none is configured
func (m RunMode) DefaultFormat() string {
	switch m {
	case ModeCI:
		return "annotations"
	case ModeInteractive:
		return "text"
	default:
		return "json"
	}
}

// Description returns a human-readable description of the mode
func (m RunMode) Description() string {
	switch m {
	case ModeCI:
		return "CI/CD pipeline"
	case ModeInteractive:
		return "Interactive terminal"
	case ModePipe:
		return "Redirected output"
	default:
		return "Unknown mode"
	}
}
