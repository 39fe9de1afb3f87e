package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/semdiff/internal/analysis"
	"github.com/rohankatakam/semdiff/internal/audit"
	"github.com/rohankatakam/semdiff/internal/cache"
	"github.com/rohankatakam/semdiff/internal/changes"
	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/git"
	"github.com/rohankatakam/semdiff/internal/metrics"
	"github.com/rohankatakam/semdiff/internal/models"
	"github.com/rohankatakam/semdiff/internal/output"
)

// exitCodeFailOn is returned when a change reaches the --fail-on severity
const exitCodeFailOn = 2

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report semantic changes between two git revisions",
	Long: `Diffs the base revision against the head revision (the working tree by
default, or the index with --staged) and reports the semantic changes found in
every changed JS/TS/JSX/TSX file.

Examples:
  # Changes in the working tree since HEAD
  semdiff check

  # Changes a pull request introduces
  semdiff check --base origin/main --head HEAD --format annotations

  # Pre-commit hook: staged changes only, fail on high severity
  semdiff check --staged --format quiet --fail-on high`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("base", "HEAD", "base revision")
	checkCmd.Flags().String("head", "", "head revision (default: working tree)")
	checkCmd.Flags().Bool("staged", false, "compare the base revision with the index")
	checkCmd.Flags().StringSlice("label", nil, "active labels; a configured bypass label skips the run")
	addRunFlags(checkCmd)

	checkCmd.MarkFlagsMutuallyExclusive("head", "staged")
}

// addRunFlags registers the flags shared by check and compare
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "", "output format: annotations, text, quiet, json, yaml (default: detected)")
	cmd.Flags().String("fail-on", "", "exit with status 2 when a change reaches this severity: low, medium, high")
	cmd.Flags().Int("workers", 0, "maximum concurrent file analyses (default: number of CPUs)")
	cmd.Flags().Duration("timeout", 0, "per-file analysis timeout (default: 2m)")
	cmd.Flags().String("isolation", "", "worker isolation: inprocess or subprocess")
	cmd.Flags().String("cache-dir", "", "directory for the result cache (disabled when empty)")
	cmd.Flags().String("metrics-file", "", "write Prometheus metrics to this textfile after the run")
}

// applyRunFlags overrides configuration with explicitly set flags and validates the result
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Run.Format, _ = flags.GetString("format")
	}
	if flags.Changed("fail-on") {
		cfg.Run.FailOn, _ = flags.GetString("fail-on")
	}
	if flags.Changed("workers") {
		cfg.Run.MaxConcurrency, _ = flags.GetInt("workers")
	}
	if flags.Changed("timeout") {
		cfg.Run.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("isolation") {
		cfg.Run.Isolation, _ = flags.GetString("isolation")
	}
	if flags.Changed("cache-dir") {
		cfg.Run.CacheDir, _ = flags.GetString("cache-dir")
	}
	if flags.Changed("metrics-file") {
		cfg.Run.MetricsFile, _ = flags.GetString("metrics-file")
	}
	if flags.Changed("label") {
		cfg.Run.Labels, _ = flags.GetStringSlice("label")
	}

	return cfg.Validate().Err()
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := git.DetectGitRepo(); err != nil {
		return err
	}

	opts := git.DiffOptions{}
	opts.Base, _ = cmd.Flags().GetString("base")
	opts.Head, _ = cmd.Flags().GetString("head")
	opts.Staged, _ = cmd.Flags().GetBool("staged")

	head := opts.Head
	if opts.Staged {
		head = "index"
	}
	report := models.NewReport(opts.Base, head)
	repo := git.Describe()
	report.Repository = &repo

	if label, ok := analysis.BypassLabel(cfg.Analyzer, cfg.Run.Labels); ok {
		logger.Infof("Bypassed by label %q", label)
		report.Bypassed = true
		report.BypassedBy = label
		report.Finalize()
		recordBypass(report, cfg.Run.Labels)
		return render(cmd, report)
	}

	files, err := git.ChangedFiles(ctx, opts)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Debug("No changed files")
		report.Finalize()
		return render(cmd, report)
	}

	pairs, err := loadPairs(ctx, opts, files, git.ShowFile)
	if err != nil {
		return err
	}

	logger.Infof("Analyzing %d changed files", len(pairs))
	if err := analyze(ctx, report, pairs); err != nil {
		return err
	}
	return finish(cmd, report)
}

// recordBypass appends the skipped run to the repository's bypass log
func recordBypass(report *models.Report, labels []string) {
	dir := audit.DefaultDir
	if root, err := git.FindGitRoot(); err == nil {
		dir = filepath.Join(root, audit.DefaultDir)
	}

	event := audit.BypassEvent{
		Timestamp: report.FinishedAt,
		RunID:     report.ID,
		Label:     report.BypassedBy,
		Labels:    labels,
		Base:      report.Base,
		Head:      report.Head,
	}
	if report.Repository != nil {
		event.Branch = report.Repository.Branch
		event.CommitSHA = report.Repository.Commit
	}
	if err := audit.LogBypass(dir, event); err != nil {
		logger.WithError(err).Warn("Failed to record bypass")
	}
}

// analyze runs every pair through the runner, wiring the optional cache and metrics
func analyze(ctx context.Context, report *models.Report, pairs []analysis.FilePair) error {
	var opts []analysis.RunnerOption

	var client *cache.Client
	if cfg.Run.CacheDir != "" {
		var err error
		client, err = cache.Open(cfg.Run.CacheDir, cache.DefaultTTL)
		if err != nil {
			logger.WithError(err).Warn("Result cache unavailable, continuing without it")
		} else {
			defer client.Close()
			opts = append(opts, analysis.WithCache(client))
		}
	}

	var collector *metrics.Collector
	if cfg.Run.MetricsFile != "" {
		collector = metrics.NewCollector()
		opts = append(opts, analysis.WithMetrics(collector))
	}

	runner, err := analysis.NewRunner(cfg, opts...)
	if err != nil {
		return err
	}

	start := time.Now()
	report.Add(runner.Run(ctx, pairs)...)
	logger.Debugf("Analysis finished in %s", time.Since(start).Round(time.Millisecond))

	if client != nil {
		if removed, err := client.Prune(); err != nil {
			logger.WithError(err).Warn("Failed to prune result cache")
		} else if removed > 0 {
			logger.Debugf("Pruned %d expired cache entries", removed)
		}
	}

	if collector != nil {
		if err := collector.WriteTextfile(cfg.Run.MetricsFile); err != nil {
			logger.WithError(err).Warn("Failed to write metrics")
		}
	}
	return nil
}

// finish renders the report and applies the fail-on threshold
func finish(cmd *cobra.Command, report *models.Report) error {
	report.Finalize()
	if err := render(cmd, report); err != nil {
		return err
	}

	if cfg.Run.FailOn == "" || cfg.Run.FailOn == "never" {
		return nil
	}
	threshold, err := changes.ParseSeverity(cfg.Run.FailOn)
	if err != nil {
		return err
	}
	if report.Exceeds(threshold) {
		return &exitError{
			code: exitCodeFailOn,
			msg:  fmt.Sprintf("semantic changes at or above %s severity found", threshold),
		}
	}
	return nil
}

func render(cmd *cobra.Command, report *models.Report) error {
	formatter, err := output.NewFormatter(cfg.Run.Format)
	if err != nil {
		return err
	}
	return formatter.Format(report, cmd.OutOrStdout())
}
