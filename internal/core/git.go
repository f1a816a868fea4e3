// Package core assembles the review context: it collects the diff and
// commit metadata from the local repository, parses changed files,
// prioritizes them, and bundles project knowledge for the analyzers.
package core

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/sanix-darker/quorum/internal/review"
)

// DiffForBranch returns the diff between baseBranch and targetBranch using
// merge-base semantics (triple-dot).
func DiffForBranch(repoPath, baseBranch, targetBranch string) (string, error) {
	return runGit(repoPath, "diff", fmt.Sprintf("%s...%s", baseBranch, targetBranch))
}

// DiffForCommit returns the diff introduced by a single commit.
func DiffForCommit(repoPath, commitHash string) (string, error) {
	return runGit(repoPath, "show", "--format=", commitHash)
}

// DiffForWorktree returns the uncommitted changes against HEAD.
func DiffForWorktree(repoPath string) (string, error) {
	return runGit(repoPath, "diff", "HEAD")
}

// CommitList returns the commits on targetBranch that are not on baseBranch.
func CommitList(repoPath, baseBranch, targetBranch string) ([]review.Commit, error) {
	out, err := runGit(repoPath, "log", "--format=%H|%s",
		fmt.Sprintf("%s..%s", baseBranch, targetBranch))
	if err != nil {
		return nil, err
	}

	var commits []review.Commit
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		if len(parts) == 2 {
			commits = append(commits, review.Commit{Hash: parts[0], Subject: parts[1]})
		}
	}
	return commits, nil
}

// BaseBranch determines the repository's base branch, falling back to main.
func BaseBranch(repoPath string) string {
	out, err := runGit(repoPath, "symbolic-ref", "refs/remotes/origin/HEAD", "--short")
	if err != nil {
		return "main"
	}
	// e.g. "origin/main" -> "main"
	if parts := strings.SplitN(out, "/", 2); len(parts) == 2 {
		return parts[1]
	}
	return out
}

func runGit(repoPath string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", repoPath}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s failed: %s", args[0], string(exitErr.Stderr))
		}
		return "", fmt.Errorf("git %s failed: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}
