// Package synthesis turns the orchestrator's per-analyzer results into the
// final review artifact: it flattens and deduplicates findings, splits them
// into blocking issues and recommendations per the configured strictness
// policy, collects capped coaching tips, and computes run metrics. The
// lint summary is passed through untouched.
package synthesis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sanix-darker/quorum/internal/review"
)

// ---------------------------------------------------------------------------
// Strictness policy
// ---------------------------------------------------------------------------

// policy maps a strictness level to its blocking behavior.
type policy struct {
	blockOnIssues bool
	threshold     review.Severity
}

var policies = map[review.Strictness]policy{
	review.StrictnessCoaching: {blockOnIssues: false, threshold: review.SeverityInfo},
	review.StrictnessStandard: {blockOnIssues: false, threshold: review.SeverityWarning},
	review.StrictnessStrict:   {blockOnIssues: true, threshold: review.SeverityWarning},
	review.StrictnessBlocking: {blockOnIssues: true, threshold: review.SeverityError},
}

// maxCoachingTips caps the coaching list so the educational payload stays
// digestible.
const maxCoachingTips = 5

// ---------------------------------------------------------------------------
// Engine
// ---------------------------------------------------------------------------

// Engine synthesizes analyzer results into a FinalReview. The zero value is
// ready to use.
type Engine struct{}

// New returns a synthesis engine.
func New() *Engine { return &Engine{} }

// Synthesize assembles the final review from settled analyzer results.
// A non-positive total falls back to the sum of per-result execution times.
// The lint result, when present, is carried through without interpretation.
func (e *Engine) Synthesize(results []review.AnalysisResult, lint *review.LintResult, rc *review.Context, total time.Duration) review.FinalReview {
	scored := aggregate(results)
	deduped := deduplicate(scored)
	blocking, recommendations := categorize(deduped, rc.Settings.Strictness)

	var coaching []review.CoachingTip
	if rc.Settings.CoachingEnabled {
		coaching = collectCoaching(deduped)
	}

	return review.FinalReview{
		BlockingIssues:  blocking,
		Recommendations: recommendations,
		Coaching:        coaching,
		Lint:            lint,
		Summary:         buildSummary(results, rc, deduped, blocking, recommendations),
		Metrics:         buildMetrics(results, deduped, total),
	}
}

// ---------------------------------------------------------------------------
// Aggregation and deduplication
// ---------------------------------------------------------------------------

// aggregate flattens every issue from every result, tagging each with its
// source agent and that agent's weighted confidence.
func aggregate(results []review.AnalysisResult) []review.ScoredIssue {
	var out []review.ScoredIssue
	for _, res := range results {
		for _, issue := range res.Issues {
			out = append(out, review.ScoredIssue{
				Issue:      issue,
				Agent:      res.Agent,
				Confidence: res.Confidence,
			})
		}
	}
	return out
}

// dedupKey is the identity of a finding for deduplication purposes.
type dedupKey struct {
	file     string
	line     int
	category string
}

// deduplicate keeps at most one issue per (file, line, category) key. A
// challenger replaces the retained issue only on strictly higher severity
// rank, or on equal rank with strictly higher confidence. Comparing against
// the currently retained issue (not the most recently seen) makes the
// winner independent of input ordering. Output order follows the first
// appearance of each key.
func deduplicate(issues []review.ScoredIssue) []review.ScoredIssue {
	kept := make([]review.ScoredIssue, 0, len(issues))
	index := make(map[dedupKey]int, len(issues))

	for _, issue := range issues {
		key := dedupKey{file: issue.File, line: issue.Line, category: issue.Category}
		at, seen := index[key]
		if !seen {
			index[key] = len(kept)
			kept = append(kept, issue)
			continue
		}
		if wins(issue, kept[at]) {
			kept[at] = issue
		}
	}
	return kept
}

// wins reports whether the challenger should replace the retained issue.
func wins(challenger, retained review.ScoredIssue) bool {
	cr, rr := challenger.Severity.Rank(), retained.Severity.Rank()
	if cr != rr {
		return cr > rr
	}
	return challenger.Confidence > retained.Confidence
}

// ---------------------------------------------------------------------------
// Categorization
// ---------------------------------------------------------------------------

// categorize splits deduplicated issues by the strictness policy: an issue
// blocks iff the policy blocks at all and its severity reaches the
// threshold; everything else is a recommendation. Both lists come back
// sorted by severity descending, stable within equal severities.
func categorize(issues []review.ScoredIssue, level review.Strictness) (blocking, recommendations []review.ScoredIssue) {
	pol, ok := policies[level]
	if !ok {
		pol = policies[review.StrictnessStandard]
	}

	blocking = make([]review.ScoredIssue, 0)
	recommendations = make([]review.ScoredIssue, 0)
	for _, issue := range issues {
		if pol.blockOnIssues && issue.Severity.Rank() >= pol.threshold.Rank() {
			blocking = append(blocking, issue)
		} else {
			recommendations = append(recommendations, issue)
		}
	}

	bySeverityDesc(blocking)
	bySeverityDesc(recommendations)
	return blocking, recommendations
}

func bySeverityDesc(issues []review.ScoredIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Severity.Rank() > issues[j].Severity.Rank()
	})
}

// ---------------------------------------------------------------------------
// Coaching
// ---------------------------------------------------------------------------

// collectCoaching gathers the first-seen tip per distinct best-practice key
// across the deduplicated issues, capped at maxCoachingTips.
func collectCoaching(issues []review.ScoredIssue) []review.CoachingTip {
	tips := make([]review.CoachingTip, 0, maxCoachingTips)
	seen := make(map[string]bool)

	for _, issue := range issues {
		if issue.Coaching == nil || seen[issue.Coaching.BestPractice] {
			continue
		}
		seen[issue.Coaching.BestPractice] = true
		tips = append(tips, *issue.Coaching)
		if len(tips) == maxCoachingTips {
			break
		}
	}
	return tips
}

// ---------------------------------------------------------------------------
// Summary and metrics
// ---------------------------------------------------------------------------

func buildSummary(results []review.AnalysisResult, rc *review.Context, deduped, blocking, recommendations []review.ScoredIssue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reviewed %d changed file(s) with %d analyzer(s).", len(rc.Files), len(results))

	if len(deduped) == 0 {
		b.WriteString(" No issues found.")
		return b.String()
	}

	if len(blocking) > 0 {
		fmt.Fprintf(&b, " %d blocking issue(s) and %d recommendation(s).", len(blocking), len(recommendations))
	} else {
		fmt.Fprintf(&b, " %d recommendation(s).", len(recommendations))
	}

	var parts []string
	for _, res := range results {
		if len(res.Issues) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d issue(s) at confidence %.2f", res.Agent, len(res.Issues), res.Confidence))
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, " Contributions: %s.", strings.Join(parts, ", "))
	}
	return b.String()
}

// buildMetrics derives run metrics: filesReviewed counts distinct file
// paths across the deduplicated issues, issuesFound is the deduplicated
// count, and per-agent numbers come straight from each agent's own result.
func buildMetrics(results []review.AnalysisResult, deduped []review.ScoredIssue, total time.Duration) review.Metrics {
	files := make(map[string]bool, len(deduped))
	for _, issue := range deduped {
		files[issue.File] = true
	}

	perAgent := make(map[string]review.AgentPerformance, len(results))
	var summed time.Duration
	for _, res := range results {
		summed += res.ExecutionTime
		perAgent[res.Agent] = review.AgentPerformance{
			IssuesFound:       len(res.Issues),
			ExecutionTime:     res.ExecutionTime,
			AverageConfidence: res.Confidence,
		}
	}

	if total <= 0 {
		total = summed
	}

	return review.Metrics{
		FilesReviewed:    len(files),
		IssuesFound:      len(deduped),
		ExecutionTime:    total,
		AgentPerformance: perAgent,
	}
}
