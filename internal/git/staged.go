package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// IndexRef reads a file from the staging area
const IndexRef = ":"

// ShowFile returns the content of path at ref. An empty ref reads the working
// tree; IndexRef reads the staged version.
func ShowFile(ctx context.Context, ref, path string) ([]byte, error) {
	if ref == "" {
		root, err := FindGitRoot()
		if err != nil {
			root = "."
		}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return data, nil
	}

	spec := ref + ":" + path
	if ref == IndexRef {
		spec = ":" + path
	}

	cmd := exec.CommandContext(ctx, "git", "show", spec)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git show %s failed: %w: %s", spec, err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// FindGitRoot returns the root directory of the git repository
// Uses git rev-parse --show-toplevel to find repo root
func FindGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(output)), nil
}
