package core

import (
	"fmt"

	"github.com/sanix-darker/quorum/internal/config"
	"github.com/sanix-darker/quorum/internal/diffparse"
	"github.com/sanix-darker/quorum/internal/guidelines"
	"github.com/sanix-darker/quorum/internal/priority"
	"github.com/sanix-darker/quorum/internal/review"
)

// BuildOptions selects what to review and carries optional PR metadata
// fetched from the hosting platform.
type BuildOptions struct {
	RepoPath     string
	BaseBranch   string
	TargetBranch string
	Commit       string

	// PR overrides the locally-derived pull request metadata when the
	// caller fetched it from the platform.
	PR *review.PullRequest

	// Files, when non-empty, is the platform-fetched changed-file list and
	// replaces the local diff. PR branches need not exist locally then.
	Files []review.ChangedFile
}

// BuildContext assembles the immutable review context: it resolves the
// diff, parses and prioritizes the changed files, and gathers project
// knowledge. Exactly one of Commit or branch review is used; with neither,
// the uncommitted worktree changes are reviewed.
func BuildContext(cfg config.Config, opts BuildOptions) (*review.Context, error) {
	repo := opts.RepoPath
	if repo == "" {
		repo = "."
	}

	info, err := Inspect(repo)
	if err != nil {
		return nil, err
	}

	files := opts.Files
	if len(files) == 0 {
		raw, err := resolveDiff(repo, opts)
		if err != nil {
			return nil, err
		}
		files, err = diffparse.Parse(raw)
		if err != nil {
			return nil, err
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no reviewable changes found")
	}

	project := review.ProjectContext{
		Name:          cfg.ProjectName,
		Language:      diffparse.DominantLanguage(files),
		CriticalPaths: cfg.CriticalPaths,
		Guidelines:    guidelines.Load(repo),
	}
	if project.Name == "" {
		project.Name = info.Name
	}

	prioritized := priority.New(project).Prioritize(files)

	pr := localPR(info, opts)
	if opts.PR != nil {
		pr = *opts.PR
	}

	return &review.Context{
		PR:       pr,
		Files:    prioritized,
		Commits:  commitList(repo, opts),
		Project:  project,
		Settings: cfg.Settings(),
	}, nil
}

// commitList collects the commits of a branch review for the analyzer
// prompts. Best effort: a branch missing locally (platform-file reviews)
// simply yields no commit list.
func commitList(repo string, opts BuildOptions) []review.Commit {
	if opts.TargetBranch == "" {
		return nil
	}
	base := opts.BaseBranch
	if base == "" {
		base = BaseBranch(repo)
	}
	commits, err := CommitList(repo, base, opts.TargetBranch)
	if err != nil {
		return nil
	}
	return commits
}

func resolveDiff(repo string, opts BuildOptions) (string, error) {
	switch {
	case opts.Commit != "":
		return DiffForCommit(repo, opts.Commit)
	case opts.TargetBranch != "":
		base := opts.BaseBranch
		if base == "" {
			base = BaseBranch(repo)
		}
		return DiffForBranch(repo, base, opts.TargetBranch)
	default:
		return DiffForWorktree(repo)
	}
}

// localPR synthesizes pull-request metadata from the local repository when
// no platform metadata is available.
func localPR(info RepoInfo, opts BuildOptions) review.PullRequest {
	source := opts.TargetBranch
	if source == "" {
		source = info.Branch
	}
	target := opts.BaseBranch
	if target == "" {
		target = "main"
	}
	title := "Local changes"
	if opts.Commit != "" {
		title = "Commit " + opts.Commit
	}
	return review.PullRequest{
		Title:        title,
		SourceBranch: source,
		TargetBranch: target,
		HeadSHA:      info.HeadSHA,
	}
}
