package config

import (
	"fmt"
	"strings"

	"github.com/rohankatakam/semdiff/internal/errors"
	"github.com/rohankatakam/semdiff/internal/glob"
	"github.com/rohankatakam/semdiff/internal/logging"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn))
		}
	}

	return sb.String()
}

// Err returns the result as a validation error, or nil when valid
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}
	return errors.ValidationError(strings.TrimSpace(vr.Error()))
}

var (
	validFormats   = []string{"", "annotations", "text", "quiet", "json", "yaml"}
	validFailOn    = []string{"", "never", "low", "medium", "high"}
	validIsolation = []string{IsolationInProcess, IsolationSubprocess}
)

// Validate checks every field, collecting all problems instead of stopping at the first
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}

	c.Analyzer.validate(result)
	c.validateRun(result)
	c.validateLog(result)

	return result
}

// Validate checks only the analyzer settings
func (a AnalyzerConfig) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}
	a.validate(result)
	return result
}

func (a AnalyzerConfig) validate(result *ValidationResult) {
	checkGlobs(result, "include", a.Include, glob.ModePath)
	checkGlobs(result, "exclude", a.Exclude, glob.ModePath)
	checkGlobs(result, "test_globs", a.TestGlobs, glob.ModePath)
	checkGlobs(result, "side_effect_modules", a.SideEffectModules, glob.ModeName)
	checkGlobs(result, "side_effect_callees", a.SideEffectCallees, glob.ModeName)

	for _, label := range a.BypassLabels {
		if strings.TrimSpace(label) == "" {
			result.AddError("bypass_labels contains an empty label")
		}
	}
}

func checkGlobs(result *ValidationResult, field string, patterns []string, mode glob.Mode) {
	for _, p := range patterns {
		if _, err := glob.Compile(p, mode); err != nil {
			result.AddError("%s: %v", field, err)
		}
	}
}

func (c *Config) validateRun(result *ValidationResult) {
	if c.Run.MaxConcurrency < 1 {
		result.AddError("max_concurrency must be at least 1, got %d", c.Run.MaxConcurrency)
	}
	if c.Run.Timeout <= 0 {
		result.AddError("timeout must be positive, got %s", c.Run.Timeout)
	}
	if !contains(validIsolation, c.Run.Isolation) {
		result.AddError("isolation must be one of %v, got %q", validIsolation, c.Run.Isolation)
	}
	if !contains(validFormats, c.Run.Format) {
		result.AddError("format must be one of %v, got %q", validFormats[1:], c.Run.Format)
	}
	if !contains(validFailOn, c.Run.FailOn) {
		result.AddError("fail_on must be one of %v, got %q", validFailOn[1:], c.Run.FailOn)
	}
	if c.Run.CacheDir == "" {
		result.AddWarning("cache_dir is not set, results will not be cached")
	}
}

func (c *Config) validateLog(result *ValidationResult) {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		result.AddError("log level: %v", err)
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
