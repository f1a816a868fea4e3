package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sanix-darker/quorum/internal/review"
)

// rawResponse is the JSON structure the model is asked to return.
type rawResponse struct {
	Summary    string     `json:"summary"`
	Confidence float64    `json:"confidence"`
	Issues     []rawIssue `json:"issues"`
}

type rawIssue struct {
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	File        string `json:"file"`
	Line        int    `json:"line"`
	EndLine     int    `json:"end_line"`
	Suggestion  string `json:"suggestion"`
	Coaching    *struct {
		BestPractice string `json:"best_practice"`
		Explanation  string `json:"explanation"`
		Example      string `json:"example"`
	} `json:"coaching"`
}

// parseResponse turns a model reply into summary, confidence, and issues.
// Models occasionally wrap JSON in markdown fences despite instructions, so
// fences are stripped before decoding. Malformed JSON is an error: it feeds
// the orchestrator's retry path instead of being patched up here.
func parseResponse(content string) (string, float64, []review.Issue, error) {
	payload := stripFences(content)

	var raw rawResponse
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return "", 0, nil, fmt.Errorf("response is not the expected JSON object: %w", err)
	}

	issues := make([]review.Issue, 0, len(raw.Issues))
	for _, r := range raw.Issues {
		issue := review.Issue{
			Severity:    review.Severity(strings.ToLower(r.Severity)),
			Category:    r.Category,
			Title:       r.Title,
			Description: r.Description,
			File:        r.File,
			Line:        r.Line,
			EndLine:     r.EndLine,
			Suggestion:  r.Suggestion,
		}
		if r.Coaching != nil && r.Coaching.BestPractice != "" {
			issue.Coaching = &review.CoachingTip{
				BestPractice: r.Coaching.BestPractice,
				Explanation:  r.Coaching.Explanation,
				Example:      r.Coaching.Example,
			}
		}
		issues = append(issues, issue)
	}

	return strings.TrimSpace(raw.Summary), raw.Confidence, issues, nil
}

// stripFences removes a surrounding markdown code fence when present.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}
