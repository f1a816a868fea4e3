// Package priority assigns a review priority to every changed file from a
// weighted-signal score. It is a pure leaf component: no I/O, no randomness,
// no hidden state, so the same input always produces the same ordering.
package priority

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sanix-darker/quorum/internal/review"
)

// Score thresholds mapping an additive signal score to a priority.
const (
	criticalThreshold = 15
	highThreshold     = 10
	mediumThreshold   = 5
)

// Points contributed by each signal when it matches.
const (
	securityPoints     = 10
	businessPoints     = 8
	apiPoints          = 7
	architecturePoints = 6
	databasePoints     = 6
	configPoints       = 5
	addedPoints        = 3
	churnPoints        = 2
	criticalAreaPoints = 4
)

// churnLimit is the changed-line count above which a file earns churn points.
const churnLimit = 100

// rule is one filename signal: a set of glob patterns compiled once to
// case-insensitive regular expressions, and the points a match is worth.
type rule struct {
	name     string
	points   int
	patterns []*regexp.Regexp
}

var signalRules = []rule{
	{"security", securityPoints, compileGlobs(
		"**/auth/**", "**/security/**", "**/*auth*", "**/*security*",
		"**/*login*", "**/*password*", "**/*token*", "**/*crypt*",
		"**/*secret*", "**/*permission*",
	)},
	{"business-logic", businessPoints, compileGlobs(
		"**/*service*", "**/*business*", "**/*logic*", "**/*domain*",
		"**/*workflow*", "**/*billing*", "**/*payment*",
	)},
	{"api-endpoint", apiPoints, compileGlobs(
		"**/*controller*", "**/*endpoint*", "**/*route*", "**/*handler*",
		"**/api/**", "**/*resolver*",
	)},
	{"architecture", architecturePoints, compileGlobs(
		"**/*middleware*", "**/*factory*", "**/*registry*", "**/*engine*",
		"**/*orchestrat*", "**/core/**",
	)},
	{"database", databasePoints, compileGlobs(
		"**/*repository*", "**/*migration*", "**/*schema*", "**/*query*",
		"**/*database*", "**/*.sql",
	)},
	{"configuration", configPoints, compileGlobs(
		"**/*.env*", "**/config.*", "**/*.yml", "**/*.yaml", "**/*.toml",
		"**/*.ini", "**/Dockerfile", "**/docker-compose.*",
	)},
}

// Prioritizer scores changed files. Construct one per review so the
// project's critical-path globs are compiled exactly once.
type Prioritizer struct {
	criticalAreas []*regexp.Regexp
}

// New builds a Prioritizer for the given project context.
func New(project review.ProjectContext) *Prioritizer {
	return &Prioritizer{
		criticalAreas: compileGlobs(project.CriticalPaths...),
	}
}

// Score computes the additive signal score for one changed file.
func (p *Prioritizer) Score(f review.ChangedFile) int {
	score := 0
	for _, r := range signalRules {
		if matchAny(r.patterns, f.Path) {
			score += r.points
		}
	}
	if f.Status == review.FileAdded {
		score += addedPoints
	}
	if f.Additions+f.Deletions > churnLimit {
		score += churnPoints
	}
	if matchAny(p.criticalAreas, f.Path) {
		score += criticalAreaPoints
	}
	return score
}

// Prioritize assigns a priority to every file and returns a new slice
// sorted by priority descending. The sort is stable: files with equal
// priority keep their relative input order.
func (p *Prioritizer) Prioritize(files []review.ChangedFile) []review.ChangedFile {
	out := make([]review.ChangedFile, len(files))
	copy(out, files)
	for i := range out {
		out[i].Priority = priorityFor(p.Score(out[i]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() > out[j].Priority.Rank()
	})
	return out
}

func priorityFor(score int) review.Priority {
	switch {
	case score >= criticalThreshold:
		return review.PriorityCritical
	case score >= highThreshold:
		return review.PriorityHigh
	case score >= mediumThreshold:
		return review.PriorityMedium
	default:
		return review.PriorityLow
	}
}

func matchAny(patterns []*regexp.Regexp, path string) bool {
	for _, re := range patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// compileGlobs translates glob-like patterns (`**`, `*`, `?`) into anchored
// case-insensitive regular expressions. Invalid patterns are skipped rather
// than aborting prioritization.
func compileGlobs(globs ...string) []*regexp.Regexp {
	var res []*regexp.Regexp
	for _, g := range globs {
		if g == "" {
			continue
		}
		re, err := regexp.Compile("(?i)^" + globToRegexp(g) + "$")
		if err != nil {
			continue
		}
		res = append(res, re)
	}
	return res
}

func globToRegexp(glob string) string {
	var sb strings.Builder
	i := 0
	for i < len(glob) {
		switch {
		case strings.HasPrefix(glob[i:], "**/"):
			// Matches any number of leading directories, including none.
			sb.WriteString(`(?:[^/]+/)*`)
			i += 3
		case strings.HasPrefix(glob[i:], "**"):
			sb.WriteString(`.*`)
			i += 2
		case glob[i] == '*':
			sb.WriteString(`[^/]*`)
			i++
		case glob[i] == '?':
			sb.WriteString(`[^/]`)
			i++
		default:
			sb.WriteString(regexp.QuoteMeta(string(glob[i])))
			i++
		}
	}
	return sb.String()
}
