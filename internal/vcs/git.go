// Package vcs answers the two questions conversation identity depends on:
// which directory is the project, and which branch is checked out there.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultBranch is used for directories that are not git repositories, or
// where the branch cannot be determined. All non-repo work in a project
// shares one conversation under this name.
const DefaultBranch = "default"

// RepoRoot returns the top-level directory of the repository containing
// path.
func RepoRoot(ctx context.Context, path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	out, err := runGit(ctx, absPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// IsRepo reports whether path is inside a git repository.
func IsRepo(ctx context.Context, path string) bool {
	_, err := RepoRoot(ctx, path)
	return err == nil
}

// CurrentBranch returns the branch checked out in the repository containing
// path. Detached HEADs report as "HEAD"; that is still a stable identity for
// the duration of the checkout.
func CurrentBranch(ctx context.Context, path string) (string, error) {
	out, err := runGit(ctx, path, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("get current branch: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// BranchOrDefault resolves the branch for path, falling back to
// DefaultBranch for non-repos and fresh repositories without commits.
func BranchOrDefault(ctx context.Context, path string) string {
	branch, err := CurrentBranch(ctx, path)
	if err != nil || branch == "" {
		return DefaultBranch
	}
	return branch
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		return "", fmt.Errorf("%s", errMsg)
	}
	return stdout.String(), nil
}
