package main

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/rohankatakam/semdiff/internal/audit"
	"github.com/rohankatakam/semdiff/internal/changes"
	"github.com/rohankatakam/semdiff/internal/git"
	"github.com/rohankatakam/semdiff/internal/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		for _, cmd := range []*cobra.Command{checkCmd, compareCmd, bypassesCmd} {
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				if f.Changed {
					_ = f.Value.Set(f.DefValue)
					f.Changed = false
				}
			})
		}
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "old.ts", "export function load(id: string) {\n  return fetch(id)\n}\n")
	head := writeFile(t, dir, "new.ts", "export function load(id: string, force: boolean) {\n  if (force) { return fetch(id) }\n  return fetch(id)\n}\n")

	out, err := execute(t, "compare", base, head, "--path", "src/load.ts", "--format", "json")
	require.NoError(t, err)

	var report models.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Files, 1)

	file := report.Files[0]
	assert.Equal(t, "src/load.ts", file.Path)
	assert.Equal(t, models.FileAnalyzed, file.Status)

	kinds := changes.CountByKind(file.Changes)
	assert.Equal(t, 1, kinds[changes.KindFunctionSignatureChanged])
	assert.Equal(t, 1, kinds[changes.KindConditionalAdded])
}

func TestCompareFailOn(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "a.js", "const same = a == b\n")
	head := writeFile(t, dir, "b.js", "const same = a === b\n")

	out, err := execute(t, "compare", base, head, "--format", "quiet", "--fail-on", "medium")
	require.Error(t, err)

	var exit *exitError
	require.True(t, stderrors.As(err, &exit))
	assert.Equal(t, exitCodeFailOn, exit.code)
	assert.Contains(t, out, "changes in 1 files")

	_, err = execute(t, "compare", base, head, "--format", "quiet", "--fail-on", "never")
	assert.NoError(t, err)
}

func TestCompareAddedFile(t *testing.T) {
	dir := t.TempDir()
	head := writeFile(t, dir, "new.js", "import \"./polyfill\"\n")
	t.Setenv("SEMDIFF_SIDE_EFFECT_MODULES", "./polyfill")

	out, err := execute(t, "compare", absentFile, head, "--format", "annotations")
	require.NoError(t, err)
	assert.Contains(t, out, "title=sideEffectImportAdded")
}

func TestCompareCacheDropsStaleEntries(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "a.js", "let x = a && b\n")
	head := writeFile(t, dir, "b.js", "let x = a || b\n")
	cacheDir := filepath.Join(dir, "cache")

	_, err := execute(t, "compare", base, head, "--format", "json", "--cache-dir", cacheDir)
	require.NoError(t, err)

	// an unreadable entry counts as expired
	dbPath := filepath.Join(cacheDir, "semdiff-cache.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte("results")).Put([]byte("stale"), []byte("not json"))
	}))
	require.NoError(t, db.Close())

	_, err = execute(t, "compare", base, head, "--format", "json", "--cache-dir", cacheDir)
	require.NoError(t, err)

	db, err = bolt.Open(dbPath, 0600, &bolt.Options{ReadOnly: true})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte("results"))
		assert.Nil(t, bucket.Get([]byte("stale")))
		assert.Equal(t, 1, bucket.Stats().KeyN)
		return nil
	}))
}

func TestCompareRejectsInvalidFlags(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "a.js", "let a = 1\n")

	_, err := execute(t, "compare", file, file, "--format", "sarif")
	assert.Error(t, err)
}

func TestLoadPairs(t *testing.T) {
	files := []git.ChangedFile{
		{Path: "src/a.ts", Status: git.StatusModified},
		{Path: "src/new.ts", Status: git.StatusAdded},
		{Path: "src/gone.js", Status: git.StatusDeleted},
		{Path: "src/moved.ts", OldPath: "src/orig.ts", Status: git.StatusRenamed},
		{Path: "README.md", Status: git.StatusModified},
	}

	read := func(_ context.Context, ref, path string) ([]byte, error) {
		return []byte(ref + ":" + path), nil
	}

	pairs, err := loadPairs(context.Background(), git.DiffOptions{Base: "main"}, files, read)
	require.NoError(t, err)
	require.Len(t, pairs, 5)

	assert.Equal(t, "main:src/a.ts", string(pairs[0].Base))
	assert.Equal(t, ":src/a.ts", string(pairs[0].Head))

	assert.Nil(t, pairs[1].Base)
	assert.Equal(t, ":src/new.ts", string(pairs[1].Head))

	assert.Equal(t, "main:src/gone.js", string(pairs[2].Base))
	assert.Nil(t, pairs[2].Head)

	assert.Equal(t, "src/orig.ts", pairs[3].OldPath)
	assert.Equal(t, "main:src/orig.ts", string(pairs[3].Base))

	assert.Nil(t, pairs[4].Base)
	assert.Nil(t, pairs[4].Head)
}

func TestLoadPairsPropagatesReadErrors(t *testing.T) {
	files := []git.ChangedFile{{Path: "src/a.ts", Status: git.StatusModified}}
	_, err := loadPairs(context.Background(), git.DiffOptions{Staged: true}, files, func(_ context.Context, ref, path string) ([]byte, error) {
		return nil, fmt.Errorf("bad revision")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad revision")
}

func TestBypassesCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "bypasses", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No bypassed runs recorded")

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, label := range []string{"hotfix", "revert", "skip-semdiff"} {
		require.NoError(t, audit.LogBypass(dir, audit.BypassEvent{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Label:     label,
			Base:      "main",
			Branch:    "feature",
		}))
	}

	out, err = execute(t, "bypasses", "--dir", dir, "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "skip-semdiff")
	assert.Contains(t, out, "revert")
	assert.NotContains(t, out, "hotfix")
	assert.Contains(t, out, "main..worktree  (feature)")
	assert.Contains(t, out, "1 older events")
	assert.Less(t, bytes.Index([]byte(out), []byte("skip-semdiff")), bytes.Index([]byte(out), []byte("revert")))
}
