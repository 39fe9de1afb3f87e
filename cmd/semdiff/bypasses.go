package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/semdiff/internal/audit"
	"github.com/rohankatakam/semdiff/internal/git"
)

var bypassesCmd = &cobra.Command{
	Use:   "bypasses",
	Short: "List runs skipped by a bypass label",
	Long: `Prints the bypass log recorded by check, newest first.

Examples:
  semdiff bypasses
  semdiff bypasses --limit 5`,
	Args: cobra.NoArgs,
	RunE: runBypasses,
}

var (
	bypassLimit int
	bypassDir   string
)

func init() {
	bypassesCmd.Flags().IntVar(&bypassLimit, "limit", 20, "maximum events to show (0 for all)")
	bypassesCmd.Flags().StringVar(&bypassDir, "dir", "", "directory holding the bypass log (default: .semdiff in the repository root)")
}

func runBypasses(cmd *cobra.Command, args []string) error {
	dir := bypassDir
	if dir == "" {
		dir = audit.DefaultDir
		if root, err := git.FindGitRoot(); err == nil {
			dir = filepath.Join(root, audit.DefaultDir)
		}
	}

	events, err := audit.ReadBypasses(dir)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(w, "No bypassed runs recorded")
		return nil
	}

	shown := 0
	for i := len(events) - 1; i >= 0; i-- {
		if bypassLimit > 0 && shown == bypassLimit {
			break
		}
		e := events[i]
		fmt.Fprintf(w, "%s  %-16s %s..%s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Label, e.Base, headOrWorktree(e.Head))
		if e.Branch != "" {
			fmt.Fprintf(w, "  (%s)", e.Branch)
		}
		fmt.Fprintln(w)
		shown++
	}
	if shown < len(events) {
		fmt.Fprintf(w, "... %d older events\n", len(events)-shown)
	}
	return nil
}

func headOrWorktree(head string) string {
	if head == "" {
		return "worktree"
	}
	return head
}
