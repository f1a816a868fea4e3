/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>

The main review command: builds the review context from a branch, a
commit, a pull request, or the uncommitted worktree, fans the active
analyzers out over it, and prints (or posts) the synthesized review.
*/

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/sanix-darker/quorum/internal/common"
	"github.com/sanix-darker/quorum/internal/config"
	"github.com/sanix-darker/quorum/internal/core"
	"github.com/sanix-darker/quorum/internal/lint"
	"github.com/sanix-darker/quorum/internal/orchestrator"
	"github.com/sanix-darker/quorum/internal/printers"
	"github.com/sanix-darker/quorum/internal/provider"
	_ "github.com/sanix-darker/quorum/internal/provider/init"
	"github.com/sanix-darker/quorum/internal/renders"
	"github.com/sanix-darker/quorum/internal/review"
	"github.com/sanix-darker/quorum/internal/synthesis"
	"github.com/sanix-darker/quorum/internal/vcs"
	_ "github.com/sanix-darker/quorum/internal/vcs/init"
)

type reviewOptions struct {
	repoPath string
	base     string
	branch   string
	commit   string
	pr       int64
	post     bool
	copyOut  bool
}

func init() {
	rootCmd.AddCommand(newReviewCmd())
}

func newReviewCmd() *cobra.Command {
	var (
		opts       reviewOptions
		strictness string
		noCoaching bool
		lintCmd    string
	)

	reviewCmd := &cobra.Command{
		Use:   "review [--branch <name>] [--commit <hash>] [--pr <number>]",
		Short: "Review a change set with the active analyzer panel.",
		Example: `quorum review
quorum review --branch f/hot-fix --repo /path/to/git/project
quorum review --commit 867abbeef
quorum review --pr 42 --post`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyGlobalFlags(cmd.Flags(), &cfg)
			if strictness != "" {
				cfg.Strictness = review.Strictness(strictness)
			}
			if noCoaching {
				cfg.CoachingEnabled = false
			}
			if lintCmd != "" {
				cfg.LintCommand = lintCmd
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runReview(cmd.Context(), cfg, opts)
		},
	}

	reviewCmd.Flags().StringVar(&opts.repoPath, "repo", ".", "Path to the git repository")
	reviewCmd.Flags().StringVar(&opts.base, "base", "", "Base branch to diff against (default: origin HEAD)")
	reviewCmd.Flags().StringVar(&opts.branch, "branch", "", "Branch to review against the base branch")
	reviewCmd.Flags().StringVar(&opts.commit, "commit", "", "Single commit to review")
	reviewCmd.Flags().Int64Var(&opts.pr, "pr", 0, "Pull/merge request number to review")
	reviewCmd.Flags().BoolVar(&opts.post, "post", false, "Post the review to the pull request")
	reviewCmd.Flags().BoolVar(&opts.copyOut, "copy", false, "Copy the review markdown to the clipboard")
	reviewCmd.Flags().StringVar(&strictness, "strictness", "", "Strictness level: coaching, standard, strict, blocking")
	reviewCmd.Flags().BoolVar(&noCoaching, "no-coaching", false, "Disable coaching tips")
	reviewCmd.Flags().StringVar(&lintCmd, "lint", "", "Lint command to run alongside the review")

	return reviewCmd
}

func runReview(ctx context.Context, cfg config.Config, opts reviewOptions) error {
	p, err := provider.Get(cfg.Provider, cfg.ProviderStore())
	if err != nil {
		return err
	}

	orch := orchestrator.New(cfg, p)
	if err := orch.ValidateAvailability(); err != nil {
		return err
	}

	buildOpts := core.BuildOptions{
		RepoPath:     opts.repoPath,
		BaseBranch:   opts.base,
		TargetBranch: opts.branch,
		Commit:       opts.commit,
	}

	var reporter vcs.Reporter
	if opts.pr > 0 {
		reporter, err = vcs.Get(cfg.VCSPlatform, cfg.VCSToken, cfg.VCSBaseURL)
		if err != nil {
			return err
		}
		pr, err := reporter.FetchPR(ctx, cfg.VCSRepo, opts.pr)
		if err != nil {
			return err
		}
		buildOpts.PR = pr
		buildOpts.TargetBranch = pr.SourceBranch
		if buildOpts.BaseBranch == "" {
			buildOpts.BaseBranch = pr.TargetBranch
		}

		// The platform's file list is the source of truth for PR reviews;
		// the source branch may not exist in the local clone at all.
		files, err := reporter.FetchPRFiles(ctx, cfg.VCSRepo, opts.pr)
		if err != nil {
			common.LogError(cfg.ErrWriter, "falling back to local diff: %v", err)
		} else {
			buildOpts.Files = files
		}
	}

	rc, err := core.BuildContext(cfg, buildOpts)
	if err != nil {
		return err
	}
	common.LogDebug(cfg.ErrWriter, cfg.Debug, "reviewing %d file(s) with %d analyzer(s)",
		len(rc.Files), len(orch.Active()))

	lintRes, err := lint.Run(ctx, cfg.LintCommand, opts.repoPath)
	if err != nil {
		// A broken lint setup should not abort the review itself.
		common.LogError(cfg.ErrWriter, "lint skipped: %v", err)
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cfg.ErrWriter))
	sp.Suffix = " analyzing changes..."
	sp.Start()

	start := time.Now()
	results, err := orch.ExecuteReview(ctx, rc)
	elapsed := time.Since(start)
	sp.Stop()
	if err != nil {
		return err
	}

	fr := synthesis.New().Synthesize(results, lintRes, rc, elapsed)
	output := renders.Markdown(&fr)
	fmt.Fprint(cfg.OutWriter, renders.RenderMarkdown(output))

	if opts.copyOut {
		if err := common.SetClipboardValue(output); err != nil {
			common.LogError(cfg.ErrWriter, "clipboard: %v", err)
		}
	}

	if opts.post && reporter != nil {
		if printers.Confirm("Post this review to the pull request?") {
			if err := reporter.PostSummary(ctx, cfg.VCSRepo, opts.pr, output); err != nil {
				return err
			}
			fmt.Fprintln(cfg.OutWriter, "Review posted.")
		}
	}

	if cfg.LearningMode {
		applyLearning(cfg, orch, results)
	}

	if n := len(fr.BlockingIssues); n > 0 {
		return fmt.Errorf("%d blocking issue(s) found", n)
	}
	return nil
}

// applyLearning feeds per-category performance back into the weight map
// and persists it, after the whole batch has settled.
func applyLearning(cfg config.Config, orch *orchestrator.Orchestrator, results []review.AnalysisResult) {
	byAgent := make(map[string]float64, len(results))
	for _, res := range results {
		byAgent[res.Agent] = res.Confidence
	}

	performance := make(map[string]float64)
	for _, desc := range orch.Active() {
		if score, ok := byAgent[desc.ID]; ok {
			performance[desc.Category] = score
		}
	}

	adjusted := orchestrator.AdjustWeights(cfg.Weights, performance)
	common.LogDebug(cfg.ErrWriter, cfg.Debug, "adjusted weights: %v", adjusted)

	if cfg.Viper != nil {
		cfg.Viper.Set("weights", adjusted)
		if err := cfg.Viper.WriteConfig(); err != nil {
			common.LogError(cfg.ErrWriter, "could not persist adjusted weights: %v", err)
		}
	}
}
