package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/semdiff/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage semdiff configuration",
	Long:  `View, validate and initialize semdiff configuration settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var forceInit bool

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	mode := config.DetectMode()

	fmt.Fprintln(w, "📋 semdiff Configuration")
	fmt.Fprintln(w, "════════════════════════")

	fmt.Fprintf(w, "\n🔎 Analyzer:\n")
	fmt.Fprintf(w, "  analyzer.include = %s\n", listValue(cfg.Analyzer.Include))
	fmt.Fprintf(w, "  analyzer.exclude = %s\n", listValue(cfg.Analyzer.Exclude))
	fmt.Fprintf(w, "  analyzer.test_globs = %s\n", listValue(cfg.Analyzer.TestGlobs))
	fmt.Fprintf(w, "  analyzer.side_effect_modules = %s\n", listValue(cfg.Analyzer.SideEffectModules))
	fmt.Fprintf(w, "  analyzer.side_effect_callees = %s\n", listValue(cfg.Analyzer.SideEffectCallees))
	fmt.Fprintf(w, "  analyzer.bypass_labels = %s\n", listValue(cfg.Analyzer.BypassLabels))

	fmt.Fprintf(w, "\n⚙️  Run:\n")
	fmt.Fprintf(w, "  run.max_concurrency = %d\n", cfg.Run.MaxConcurrency)
	fmt.Fprintf(w, "  run.timeout = %s\n", cfg.Run.Timeout)
	fmt.Fprintf(w, "  run.isolation = %s\n", cfg.Run.Isolation)
	if cfg.Run.Format == "" {
		fmt.Fprintf(w, "  run.format = %s (detected: %s)\n", mode.DefaultFormat(), mode.Description())
	} else {
		fmt.Fprintf(w, "  run.format = %s\n", cfg.Run.Format)
	}
	fmt.Fprintf(w, "  run.fail_on = %s\n", orUnset(cfg.Run.FailOn))
	fmt.Fprintf(w, "  run.cache_dir = %s\n", orUnset(cfg.Run.CacheDir))
	fmt.Fprintf(w, "  run.metrics_file = %s\n", orUnset(cfg.Run.MetricsFile))
	fmt.Fprintf(w, "  run.labels = %s\n", listValue(cfg.Run.Labels))

	fmt.Fprintf(w, "\n📝 Log:\n")
	fmt.Fprintf(w, "  log.level = %s\n", cfg.Log.Level)
	fmt.Fprintf(w, "  log.file = %s\n", orUnset(cfg.Log.File))
	fmt.Fprintf(w, "  log.json = %t\n", cfg.Log.JSON)

	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	result := cfg.Validate()
	if result.HasErrors() {
		return result.Err()
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✅ Configuration is valid")
	for _, warn := range result.Warnings {
		fmt.Fprintf(cmd.OutOrStdout(), "⚠️  %s\n", warn)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := ".semdiff.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %s\n", path)
	return nil
}

func listValue(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	return "[" + strings.Join(values, ", ") + "]"
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
