package analyzer

import (
	"fmt"
	"strings"

	"github.com/sanix-darker/quorum/internal/review"
)

const (
	// maxPromptFiles caps how many changed files are included in a prompt;
	// files are already sorted by priority so the tail is the least urgent.
	maxPromptFiles = 20

	// maxPatchLines caps the diff excerpt per file.
	maxPatchLines = 400
)

// systemPrompt builds the per-kind system prompt. The response contract is
// strict JSON so parsing stays deterministic.
func systemPrompt(prof profile) string {
	return fmt.Sprintf(`You are %s, one reviewer in a multi-agent code review panel.

%s

Respond with ONLY a JSON object, no markdown fencing, of this shape:
{
  "summary": "one short paragraph of your overall assessment",
  "confidence": 0.0-1.0,
  "issues": [
    {
      "severity": "info|warning|error|critical",
      "category": "%s",
      "title": "short title",
      "description": "what is wrong and why it matters",
      "file": "path/from/repo/root",
      "line": 0,
      "end_line": 0,
      "suggestion": "optional concrete fix",
      "coaching": {"best_practice": "named practice", "explanation": "teachable takeaway"}
    }
  ]
}

Rules:
- Report only findings in your focus area; leave the rest to the other agents.
- Every issue needs severity, category, title, description, and file.
- Use line 0 when the finding is file-wide.
- The coaching field is optional; include it only when there is a genuinely
  reusable lesson.
- An empty issues array is a perfectly good answer.`, prof.agentID, prof.focus, prof.category)
}

// userPrompt renders the review context: PR metadata, project guidelines,
// then the prioritized files with their diff excerpts.
func userPrompt(rc *review.Context) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Pull request #%d: %s\n", rc.PR.Number, rc.PR.Title)
	fmt.Fprintf(&sb, "Branch: %s -> %s\n", rc.PR.SourceBranch, rc.PR.TargetBranch)
	if rc.PR.Description != "" {
		fmt.Fprintf(&sb, "\nDescription:\n%s\n", rc.PR.Description)
	}
	if rc.Project.Guidelines != "" {
		fmt.Fprintf(&sb, "\nProject guidelines:\n%s\n", rc.Project.Guidelines)
	}
	if len(rc.Commits) > 0 {
		fmt.Fprintf(&sb, "\nCommits (%d):\n", len(rc.Commits))
		for _, c := range rc.Commits {
			fmt.Fprintf(&sb, "- %s %s\n", shortHash(c.Hash), c.Subject)
		}
	}

	files := rc.Files
	if len(files) > maxPromptFiles {
		files = files[:maxPromptFiles]
	}

	fmt.Fprintf(&sb, "\nChanged files (%d shown, priority order):\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&sb, "\n--- %s [%s, %s priority, +%d/-%d]\n",
			f.Path, f.Status, f.Priority, f.Additions, f.Deletions)
		if f.Patch != "" {
			sb.WriteString(truncateLines(f.Patch, maxPatchLines))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func truncateLines(s string, max int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s
	}
	kept := lines[:max]
	return strings.Join(kept, "\n") + fmt.Sprintf("\n... (%d lines truncated)", len(lines)-max)
}
