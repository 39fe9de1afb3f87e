package analysis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rohankatakam/semdiff/internal/cache"
	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/errors"
	"github.com/rohankatakam/semdiff/internal/logging"
	"github.com/rohankatakam/semdiff/internal/metrics"
	"github.com/rohankatakam/semdiff/internal/models"
	"github.com/rohankatakam/semdiff/internal/pool"
	"github.com/rohankatakam/semdiff/internal/treesitter"
)

// cacheVersion invalidates cached outcomes when detection rules change
const cacheVersion = "semdiff-1"

// Runner analyzes a batch of file pairs on the worker pool
type Runner struct {
	cfg     *config.Config
	scope   *Scope
	worker  Worker
	cache   *cache.Client
	metrics *metrics.Collector
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithWorker overrides the worker chosen from the isolation setting
func WithWorker(w Worker) RunnerOption {
	return func(r *Runner) { r.worker = w }
}

// WithCache enables the result cache
func WithCache(c *cache.Client) RunnerOption {
	return func(r *Runner) { r.cache = c }
}

// WithMetrics records driver and change metrics
func WithMetrics(m *metrics.Collector) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a runner for cfg
func NewRunner(cfg *config.Config, opts ...RunnerOption) (*Runner, error) {
	scope, err := NewScope(cfg.Analyzer)
	if err != nil {
		return nil, errors.ValidationErrorf("invalid path globs: %v", err)
	}

	r := &Runner{cfg: cfg, scope: scope}
	switch cfg.Run.Isolation {
	case config.IsolationSubprocess:
		r.worker = SubprocessWorker{Config: cfg.Analyzer}
	default:
		r.worker = InProcessWorker{Config: cfg.Analyzer}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run analyzes every pair and returns exactly one file report per pair.
// Out-of-scope pairs are reported as skipped without being analyzed.
func (r *Runner) Run(ctx context.Context, pairs []FilePair) []models.FileReport {
	reports := make([]models.FileReport, 0, len(pairs))
	tasks := make([]pool.Task[FilePair], 0, len(pairs))
	keys := make(map[string]string)

	for _, pair := range pairs {
		if res := r.scope.Check(pair.Path); !res.InScope {
			logging.Debug("skipping file", "path", pair.Path, "reason", res.Reason)
			if r.metrics != nil {
				r.metrics.RecordSkipped(res.Reason)
			}
			reports = append(reports, models.FileReport{
				Path:       pair.Path,
				OldPath:    pair.OldPath,
				Status:     models.FileSkipped,
				SkipReason: res.Reason,
			})
			continue
		}

		if r.cache != nil {
			key := r.cacheKey(pair)
			var cached Outcome
			found, err := r.cache.Get(key, &cached)
			if err != nil {
				logging.Warn("cache read failed", "path", pair.Path, "error", err)
			}
			if found {
				if err := cached.validate(); err != nil {
					logging.Debug("ignoring cached result", "path", pair.Path, "error", err)
					found = false
				}
			}
			if r.metrics != nil {
				r.metrics.RecordCacheLookup(found)
			}
			if found {
				report := r.analyzedReport(pair, &cached, 0)
				report.Cached = true
				reports = append(reports, report)
				continue
			}
			keys[pair.Path] = key
		}

		tasks = append(tasks, pool.Task[FilePair]{Path: pair.Path, Input: pair})
	}

	opts := []pool.Option{
		pool.WithMaxConcurrency(r.cfg.Run.MaxConcurrency),
		pool.WithTimeout(r.cfg.Run.Timeout),
	}
	if r.metrics != nil {
		opts = append(opts, pool.WithObserver(r.metrics))
	}

	results := pool.RunAll(ctx, tasks, func(ctx context.Context, task pool.Task[FilePair]) (*Outcome, error) {
		return r.worker.Analyze(ctx, task.Input)
	}, opts...)

	byPath := make(map[string]FilePair, len(tasks))
	for _, t := range tasks {
		byPath[t.Path] = t.Input
	}

	for _, res := range results {
		pair := byPath[res.Path]
		if res.Err != nil {
			reports = append(reports, models.FileReport{
				Path:       pair.Path,
				OldPath:    pair.OldPath,
				Language:   treesitter.DetectLanguage(pair.Path),
				Status:     models.FileFailed,
				Error:      res.Err.Error(),
				ErrorType:  errors.TypeName(res.Err),
				DurationMS: res.Elapsed.Milliseconds(),
			})
			continue
		}

		reports = append(reports, r.analyzedReport(pair, res.Value, res.Elapsed))
		if r.metrics != nil {
			r.metrics.RecordChanges(res.Value.Changes)
			for _, name := range res.Value.FailedAnalyzers {
				r.metrics.RecordAnalyzerFailure(name)
			}
		}
		if key, ok := keys[pair.Path]; ok {
			if err := r.cache.Set(key, res.Value); err != nil {
				logging.Warn("cache write failed", "path", pair.Path, "error", err)
			}
		}
	}
	return reports
}

func (r *Runner) analyzedReport(pair FilePair, out *Outcome, elapsed time.Duration) models.FileReport {
	return models.FileReport{
		Path:       pair.Path,
		OldPath:    pair.OldPath,
		Language:   out.Language,
		Status:     models.FileAnalyzed,
		Changes:    out.Changes,
		Warnings:   out.Warnings,
		DurationMS: elapsed.Milliseconds(),
	}
}

func (r *Runner) cacheKey(pair FilePair) string {
	cfgJSON, _ := json.Marshal(r.cfg.Analyzer)
	return cache.Key([]byte(cacheVersion), []byte(pair.Path), []byte(pair.OldPath), pair.Base, pair.Head, cfgJSON)
}
