package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// FileStatus describes how a file changed between two revisions
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusModified FileStatus = "modified"
	StatusDeleted  FileStatus = "deleted"
	StatusRenamed  FileStatus = "renamed"
)

// ChangedFile is one entry of a diff between two revisions
type ChangedFile struct {
	Path string
	// OldPath is the base-side path; it differs from Path only for renames
	OldPath      string
	Status       FileStatus
	LinesAdded   int
	LinesDeleted int
}

// DiffOptions selects the revisions to compare.
// Head empty means the working tree; Staged compares Base with the index.
type DiffOptions struct {
	Base   string
	Head   string
	Staged bool
}

// HeadRef returns the revision ShowFile should read the head side from
func (o DiffOptions) HeadRef() string {
	if o.Staged {
		return IndexRef
	}
	return o.Head
}

// ChangedFiles runs git diff between the selected revisions and parses the result
func ChangedFiles(ctx context.Context, opts DiffOptions) ([]ChangedFile, error) {
	base := opts.Base
	if base == "" {
		base = "HEAD"
	}

	args := []string{"diff", "--no-color", "--no-ext-diff", "--find-renames"}
	if opts.Staged {
		args = append(args, "--cached")
	}
	args = append(args, base)
	if opts.Head != "" && !opts.Staged {
		args = append(args, opts.Head)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return ParseDiff(output)
}

// ParseDiff parses unified multi-file diff output
func ParseDiff(raw []byte) ([]ChangedFile, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	fileDiffs, err := diff.NewMultiFileDiffReader(bytes.NewReader(raw)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	files := make([]ChangedFile, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		f := ChangedFile{
			OldPath: stripPrefix(fd.OrigName),
			Path:    stripPrefix(fd.NewName),
			Status:  StatusModified,
		}

		for _, ext := range fd.Extended {
			switch {
			case strings.HasPrefix(ext, "new file mode"):
				f.Status = StatusAdded
			case strings.HasPrefix(ext, "deleted file mode"):
				f.Status = StatusDeleted
			case strings.HasPrefix(ext, "rename from "):
				f.Status = StatusRenamed
				f.OldPath = strings.TrimPrefix(ext, "rename from ")
			case strings.HasPrefix(ext, "rename to "):
				f.Status = StatusRenamed
				f.Path = strings.TrimPrefix(ext, "rename to ")
			}
		}

		switch {
		case fd.OrigName == "/dev/null":
			f.Status = StatusAdded
			f.OldPath = ""
		case fd.NewName == "/dev/null":
			f.Status = StatusDeleted
			f.Path = f.OldPath
		}
		if f.Path == "" {
			f.Path = f.OldPath
		}
		if f.OldPath == "" && f.Status != StatusAdded {
			f.OldPath = f.Path
		}

		for _, hunk := range fd.Hunks {
			added, deleted := CountDiffLines(string(hunk.Body))
			f.LinesAdded += added
			f.LinesDeleted += deleted
		}
		files = append(files, f)
	}
	return files, nil
}

func stripPrefix(name string) string {
	if name == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}

// CountDiffLines counts the added and deleted lines in a hunk body or diff
// Returns (linesAdded, linesDeleted)
func CountDiffLines(body string) (int, int) {
	if body == "" {
		return 0, 0
	}

	linesAdded := 0
	linesDeleted := 0
	for _, line := range strings.Split(body, "\n") {
		if len(line) == 0 {
			continue
		}

		switch line[0] {
		case '+':
			// Ignore +++ header lines
			if !strings.HasPrefix(line, "+++") {
				linesAdded++
			}
		case '-':
			// Ignore --- header lines
			if !strings.HasPrefix(line, "---") {
				linesDeleted++
			}
		}
	}

	return linesAdded, linesDeleted
}
