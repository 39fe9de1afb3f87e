package models

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rohankatakam/semdiff/internal/changes"
)

// FileStatus is the outcome of analyzing one file pair
type FileStatus string

const (
	FileAnalyzed FileStatus = "analyzed"
	FileSkipped  FileStatus = "skipped"
	FileFailed   FileStatus = "failed"
)

// Repository identifies the checkout a report was produced from
type Repository struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Commit string `json:"commit,omitempty" yaml:"commit,omitempty"`
}

// FileReport holds the changes found in one file, or why none could be computed
type FileReport struct {
	Path     string           `json:"path" yaml:"path"`
	OldPath  string           `json:"old_path,omitempty" yaml:"old_path,omitempty"`
	Language string           `json:"language,omitempty" yaml:"language,omitempty"`
	Status   FileStatus       `json:"status" yaml:"status"`
	Changes  []changes.Change `json:"changes" yaml:"changes"`
	// Warnings lists analyzers that failed on this file
	Warnings   []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error      string   `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorType  string   `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	SkipReason string   `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
	Cached     bool     `json:"cached,omitempty" yaml:"cached,omitempty"`
	DurationMS int64    `json:"duration_ms" yaml:"duration_ms"`
}

// MaxSeverity returns the highest severity among the file's changes
func (f FileReport) MaxSeverity() changes.Severity {
	return changes.MaxSeverity(f.Changes)
}

// Summary aggregates a report
type Summary struct {
	Files       int              `json:"files" yaml:"files"`
	Analyzed    int              `json:"analyzed" yaml:"analyzed"`
	Skipped     int              `json:"skipped" yaml:"skipped"`
	Failed      int              `json:"failed" yaml:"failed"`
	Changes     int              `json:"changes" yaml:"changes"`
	BySeverity  map[string]int   `json:"by_severity" yaml:"by_severity"`
	ByKind      map[string]int   `json:"by_kind" yaml:"by_kind"`
	MaxSeverity changes.Severity `json:"max_severity,omitempty" yaml:"max_severity,omitempty"`
}

// Report is the result of one run
type Report struct {
	ID         string       `json:"id" yaml:"id"`
	Base       string       `json:"base,omitempty" yaml:"base,omitempty"`
	Head       string       `json:"head,omitempty" yaml:"head,omitempty"`
	Repository *Repository  `json:"repository,omitempty" yaml:"repository,omitempty"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time    `json:"finished_at" yaml:"finished_at"`
	Bypassed   bool         `json:"bypassed,omitempty" yaml:"bypassed,omitempty"`
	BypassedBy string       `json:"bypassed_by,omitempty" yaml:"bypassed_by,omitempty"`
	Files      []FileReport `json:"files" yaml:"files"`
	Summary    Summary      `json:"summary" yaml:"summary"`
}

// NewReport starts a report with a fresh run ID
func NewReport(base, head string) *Report {
	return &Report{
		ID:        uuid.New().String(),
		Base:      base,
		Head:      head,
		StartedAt: time.Now(),
		Files:     []FileReport{},
	}
}

// Add appends a file report
func (r *Report) Add(files ...FileReport) {
	r.Files = append(r.Files, files...)
}

// Finalize sorts files by path and computes the summary
func (r *Report) Finalize() {
	r.FinishedAt = time.Now()
	sort.SliceStable(r.Files, func(i, j int) bool { return r.Files[i].Path < r.Files[j].Path })

	s := Summary{
		Files:      len(r.Files),
		BySeverity: make(map[string]int),
		ByKind:     make(map[string]int),
	}
	for _, f := range r.Files {
		switch f.Status {
		case FileAnalyzed:
			s.Analyzed++
		case FileSkipped:
			s.Skipped++
		case FileFailed:
			s.Failed++
		}
		for _, c := range f.Changes {
			s.Changes++
			s.BySeverity[string(c.Severity)]++
			s.ByKind[string(c.Kind)]++
		}
		if sev := f.MaxSeverity(); sev.Rank() > s.MaxSeverity.Rank() {
			s.MaxSeverity = sev
		}
	}
	r.Summary = s
}

// Exceeds reports whether any change reaches threshold
func (r *Report) Exceeds(threshold changes.Severity) bool {
	for _, f := range r.Files {
		if f.MaxSeverity().AtLeast(threshold) {
			return true
		}
	}
	return false
}
