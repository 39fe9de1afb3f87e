package git

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/rohankatakam/semdiff/internal/models"
)

// DetectGitRepo checks if current directory is a git repository
func DetectGitRepo() error {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("not a git repository: %w", err)
	}
	return nil
}

// remotePatterns capture owner and name from https, ssh and git:// remotes
var remotePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://[^/]+/([^/]+)/([^/]+)$`),
	regexp.MustCompile(`^git@[^:]+:([^/]+)/([^/]+)$`),
	regexp.MustCompile(`^git://[^/]+/([^/]+)/([^/]+)$`),
}

// repositoryName turns a remote URL into "owner/name"
func repositoryName(remote string) (string, bool) {
	remote = strings.TrimSuffix(strings.TrimSpace(remote), ".git")
	for _, re := range remotePatterns {
		if m := re.FindStringSubmatch(remote); m != nil {
			return m[1] + "/" + m[2], true
		}
	}
	return "", false
}

// gitValue runs a read-only git query; failures yield ""
func gitValue(args ...string) string {
	output, err := exec.Command("git", args...).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// Describe records which repository, branch and commit a report was run
// against. Pieces git cannot answer (no remote, no commits yet) stay empty.
func Describe() models.Repository {
	info := models.Repository{
		Branch: gitValue("rev-parse", "--abbrev-ref", "HEAD"),
		Commit: gitValue("rev-parse", "HEAD"),
	}
	if name, ok := repositoryName(gitValue("config", "--get", "remote.origin.url")); ok {
		info.Name = name
	}
	return info
}
