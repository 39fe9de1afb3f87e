package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/semdiff/internal/analysis"
	"github.com/rohankatakam/semdiff/internal/models"
)

// absentFile stands for a side that does not exist
const absentFile = "/dev/null"

var compareCmd = &cobra.Command{
	Use:   "compare <base-file> <head-file>",
	Short: "Report semantic changes between two files on disk",
	Long: `Compares two versions of one file. Pass /dev/null for a side that does not
exist to treat the file as added or deleted. Path scoping does not apply.

Examples:
  semdiff compare old/app.ts new/app.ts
  semdiff compare /dev/null src/new.tsx --path src/new.tsx --format json`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().String("path", "", "logical path used for language detection and reporting (default: head file)")
	addRunFlags(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	basePath, headPath := args[0], args[1]
	base, err := readSide(basePath)
	if err != nil {
		return err
	}
	head, err := readSide(headPath)
	if err != nil {
		return err
	}

	pair := analysis.FilePair{Path: headPath, Base: base, Head: head}
	if headPath == absentFile {
		pair.Path = basePath
	}
	if p, _ := cmd.Flags().GetString("path"); p != "" {
		pair.Path = p
	}

	// explicitly named files are always analyzed
	cfg.Analyzer.Include = nil
	cfg.Analyzer.Exclude = nil
	cfg.Analyzer.TestGlobs = nil

	report := models.NewReport(basePath, headPath)
	if err := analyze(ctx, report, []analysis.FilePair{pair}); err != nil {
		return err
	}
	return finish(cmd, report)
}

func readSide(path string) ([]byte, error) {
	if path == absentFile {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
