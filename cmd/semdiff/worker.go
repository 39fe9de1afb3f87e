package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/semdiff/internal/analysis"
)

// workerCmd serves one analysis request for subprocess isolation
var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Analyze one file pair read from stdin (internal)",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return analysis.ServeWorker(cmd.Context(), os.Stdin, os.Stdout)
	},
}
