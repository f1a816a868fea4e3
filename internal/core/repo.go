package core

import (
	"fmt"
	"strings"

	git "gopkg.in/src-d/go-git.v4"
)

// RepoInfo is the local repository metadata used for PR defaults and
// project naming.
type RepoInfo struct {
	// Name is the "owner/repo" slug derived from the origin remote, or the
	// empty string when no remote is configured.
	Name string

	// Branch is the short name of the checked-out branch.
	Branch string

	// HeadSHA is the current HEAD commit hash.
	HeadSHA string
}

// Inspect reads repository metadata from the working tree at path. The
// .git directory is discovered upward from path like git itself does.
func Inspect(path string) (RepoInfo, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return RepoInfo{}, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}

	var info RepoInfo

	head, err := r.Head()
	if err != nil {
		return RepoInfo{}, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	info.Branch = head.Name().Short()
	info.HeadSHA = head.Hash().String()

	if remote, err := r.Remote("origin"); err == nil {
		urls := remote.Config().URLs
		if len(urls) > 0 {
			info.Name = slugFromRemote(urls[0])
		}
	}

	return info, nil
}

// slugFromRemote extracts "owner/repo" from https and ssh remote URLs.
func slugFromRemote(url string) string {
	url = strings.TrimSuffix(url, ".git")

	// ssh form: git@host:owner/repo
	if at := strings.Index(url, "@"); at >= 0 && !strings.Contains(url, "://") {
		if colon := strings.Index(url, ":"); colon > at {
			return url[colon+1:]
		}
	}

	// https form: scheme://host/owner/repo
	if idx := strings.Index(url, "://"); idx >= 0 {
		url = url[idx+3:]
	}
	parts := strings.Split(url, "/")
	if len(parts) >= 3 {
		return strings.Join(parts[len(parts)-2:], "/")
	}
	if len(parts) == 2 {
		return strings.Join(parts, "/")
	}
	return url
}
