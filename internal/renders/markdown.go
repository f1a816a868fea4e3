// Package renders formats the final review for humans: a markdown report
// for posting to the hosting platform, and an ANSI rendition for
// terminals.
package renders

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sanix-darker/quorum/internal/review"
)

var severityLabels = map[review.Severity]string{
	review.SeverityCritical: "🔴 CRITICAL",
	review.SeverityError:    "🟠 ERROR",
	review.SeverityWarning:  "🟡 WARNING",
	review.SeverityInfo:     "🔵 INFO",
}

// Markdown formats a final review as a markdown report suitable both for
// posting as a PR comment and for terminal rendering.
func Markdown(fr *review.FinalReview) string {
	var sb strings.Builder

	sb.WriteString("# Code Review\n\n")
	sb.WriteString(fr.Summary)
	sb.WriteString("\n\n")

	if fr.Lint != nil {
		sb.WriteString("## Linting\n\n")
		if fr.Lint.Passed {
			sb.WriteString(fmt.Sprintf("✅ `%s` passed.\n\n", fr.Lint.Tool))
		} else {
			sb.WriteString(fmt.Sprintf("❌ `%s` failed (exit %d).\n\n", fr.Lint.Tool, fr.Lint.ExitCode))
			if fr.Lint.Output != "" {
				sb.WriteString("```\n")
				sb.WriteString(fr.Lint.Output)
				sb.WriteString("\n```\n\n")
			}
		}
	}

	if len(fr.BlockingIssues) > 0 {
		sb.WriteString("## Blocking Issues\n\n")
		writeIssues(&sb, fr.BlockingIssues)
	}

	if len(fr.Recommendations) > 0 {
		sb.WriteString("## Recommendations\n\n")
		writeIssues(&sb, fr.Recommendations)
	}

	if len(fr.Coaching) > 0 {
		sb.WriteString("## Coaching\n\n")
		for _, tip := range fr.Coaching {
			sb.WriteString(fmt.Sprintf("- **%s** — %s\n", tip.BestPractice, tip.Explanation))
			if tip.Example != "" {
				sb.WriteString("\n  ```\n  " + strings.ReplaceAll(tip.Example, "\n", "\n  ") + "\n  ```\n")
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Metrics\n\n")
	m := fr.Metrics
	sb.WriteString(fmt.Sprintf("- Files with findings: %d\n", m.FilesReviewed))
	sb.WriteString(fmt.Sprintf("- Issues found: %d\n", m.IssuesFound))
	sb.WriteString(fmt.Sprintf("- Total execution time: %s\n", m.ExecutionTime))

	if len(m.AgentPerformance) > 0 {
		sb.WriteString("\n| Agent | Issues | Confidence | Time |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, agent := range sortedAgents(m.AgentPerformance) {
			perf := m.AgentPerformance[agent]
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %s |\n",
				agent, perf.IssuesFound, perf.AverageConfidence, perf.ExecutionTime))
		}
	}

	return sb.String()
}

func writeIssues(sb *strings.Builder, issues []review.ScoredIssue) {
	for _, issue := range issues {
		location := issue.File
		if issue.Line > 0 {
			location = fmt.Sprintf("%s:%d", issue.File, issue.Line)
		}

		sb.WriteString(fmt.Sprintf("### %s %s\n\n", severityLabels[issue.Severity], issue.Title))
		sb.WriteString(fmt.Sprintf("`%s` · %s · reported by %s (confidence %.2f)\n\n",
			location, issue.Category, issue.Agent, issue.Confidence))
		sb.WriteString(issue.Description)
		sb.WriteString("\n\n")
		if issue.Suggestion != "" {
			sb.WriteString("**Suggestion:** ")
			sb.WriteString(issue.Suggestion)
			sb.WriteString("\n\n")
		}
	}
}

func sortedAgents(perf map[string]review.AgentPerformance) []string {
	agents := make([]string, 0, len(perf))
	for a := range perf {
		agents = append(agents, a)
	}
	sort.Strings(agents)
	return agents
}
