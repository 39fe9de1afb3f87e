package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/semdiff/internal/analysis"
	"github.com/rohankatakam/semdiff/internal/git"
	"github.com/rohankatakam/semdiff/internal/treesitter"
)

// maxGitReaders bounds concurrent git show processes
const maxGitReaders = 8

// contentReader returns a file's content at a revision
type contentReader func(ctx context.Context, ref, path string) ([]byte, error)

// loadPairs reads both sides of every changed file. Files the analyzer cannot
// parse are passed through without content so the runner reports them as skipped.
func loadPairs(ctx context.Context, opts git.DiffOptions, files []git.ChangedFile, read contentReader) ([]analysis.FilePair, error) {
	base := opts.Base
	if base == "" {
		base = "HEAD"
	}
	head := opts.HeadRef()

	pairs := make([]analysis.FilePair, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxGitReaders)

	for i, f := range files {
		pair := analysis.FilePair{Path: f.Path}
		if f.Status == git.StatusRenamed {
			pair.OldPath = f.OldPath
		}
		pairs[i] = pair

		if !treesitter.IsSupported(f.Path) {
			continue
		}

		i, f := i, f
		g.Go(func() error {
			oldPath := f.OldPath
			if oldPath == "" {
				oldPath = f.Path
			}

			if f.Status != git.StatusAdded {
				data, err := read(ctx, base, oldPath)
				if err != nil {
					return fmt.Errorf("failed to read base version of %s: %w", oldPath, err)
				}
				pairs[i].Base = data
			}
			if f.Status != git.StatusDeleted {
				data, err := read(ctx, head, f.Path)
				if err != nil {
					return fmt.Errorf("failed to read head version of %s: %w", f.Path, err)
				}
				pairs[i].Head = data
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pairs, nil
}
