// Package review defines the shared data model that flows between the
// prioritizer, the orchestrator, and the synthesis engine: changed files,
// issues, per-agent analysis results, and the final synthesized review.
//
// Everything here is a plain value type. Analyzers receive a *Context but
// must never mutate it; each produces exactly one AnalysisResult and all
// aggregation happens after every analyzer has settled.
package review

import (
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Severity
// ---------------------------------------------------------------------------

// Severity classifies how serious an issue is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Rank returns a numeric rank for comparison (higher = more severe).
// Unknown severities rank below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// ---------------------------------------------------------------------------
// Issues
// ---------------------------------------------------------------------------

// CoachingTip is an optional educational payload attached to an issue.
// Tips are collected per distinct BestPractice key during synthesis.
type CoachingTip struct {
	BestPractice string `json:"best_practice"`
	Explanation  string `json:"explanation"`
	Example      string `json:"example,omitempty"`
}

// Issue is a single finding reported by an analyzer.
type Issue struct {
	Severity    Severity     `json:"severity"`
	Category    string       `json:"category"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	File        string       `json:"file"`
	Line        int          `json:"line,omitempty"`
	EndLine     int          `json:"end_line,omitempty"`
	Suggestion  string       `json:"suggestion,omitempty"`
	Coaching    *CoachingTip `json:"coaching,omitempty"`
}

// Validate returns an error when a required field is missing or the severity
// is unknown. An invalid issue fails the whole analyzer result, which feeds
// the orchestrator's retry path rather than being silently coerced.
func (i Issue) Validate() error {
	if !i.Severity.Valid() {
		return fmt.Errorf("issue has invalid severity %q", i.Severity)
	}
	if i.Category == "" {
		return fmt.Errorf("issue %q is missing a category", i.Title)
	}
	if i.Title == "" {
		return fmt.Errorf("issue is missing a title")
	}
	if i.Description == "" {
		return fmt.Errorf("issue %q is missing a description", i.Title)
	}
	if i.File == "" {
		return fmt.Errorf("issue %q is missing a file path", i.Title)
	}
	return nil
}

// ScoredIssue is an Issue tagged with its source agent and that agent's
// weighted confidence. Synthesis works on scored issues so the origin of a
// finding survives deduplication.
type ScoredIssue struct {
	Issue
	Agent      string  `json:"agent"`
	Confidence float64 `json:"confidence"`
}

// ---------------------------------------------------------------------------
// Analysis results
// ---------------------------------------------------------------------------

// AnalysisResult is the output of one analyzer for one run. It is created
// once, never mutated afterwards, and never persisted across runs.
//
// Confidence is post-weighting and capped to [0,1]. A degraded result
// (analyzer exhausted its retries) has Confidence 0, no issues, and a
// summary explaining the failure.
type AnalysisResult struct {
	Agent         string        `json:"agent"`
	Confidence    float64       `json:"confidence"`
	Issues        []Issue       `json:"issues"`
	Summary       string        `json:"summary"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// ---------------------------------------------------------------------------
// Review context
// ---------------------------------------------------------------------------

// FileStatus describes what happened to a file in the change set.
type FileStatus string

const (
	FileAdded    FileStatus = "added"
	FileModified FileStatus = "modified"
	FileDeleted  FileStatus = "deleted"
	FileRenamed  FileStatus = "renamed"
)

// Priority is the review priority assigned to a changed file.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank returns a numeric rank for sorting (higher = more urgent).
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ChangedFile is one file in the change set under review.
type ChangedFile struct {
	Path      string     `json:"path"`
	Status    FileStatus `json:"status"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
	Patch     string     `json:"patch,omitempty"`
	Priority  Priority   `json:"priority,omitempty"`
}

// Commit is one commit of the reviewed change set, hash plus subject line.
type Commit struct {
	Hash    string `json:"hash"`
	Subject string `json:"subject"`
}

// PullRequest holds platform-agnostic pull/merge request metadata.
type PullRequest struct {
	Number       int64  `json:"number"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Author       string `json:"author"`
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
	HeadSHA      string `json:"head_sha,omitempty"`
	BaseSHA      string `json:"base_sha,omitempty"`
}

// ProjectContext carries repository-level knowledge that informs file
// prioritization and prompt building. CriticalPaths are glob patterns
// (`**`, `*`, `?`) for areas the project considers sensitive.
type ProjectContext struct {
	Name          string   `json:"name"`
	Language      string   `json:"language,omitempty"`
	CriticalPaths []string `json:"critical_paths,omitempty"`
	Guidelines    string   `json:"guidelines,omitempty"`
}

// Strictness selects the policy used to split findings into blocking
// issues and recommendations.
type Strictness string

const (
	StrictnessCoaching Strictness = "coaching"
	StrictnessStandard Strictness = "standard"
	StrictnessStrict   Strictness = "strict"
	StrictnessBlocking Strictness = "blocking"
)

// Valid reports whether s names a known strictness level.
func (s Strictness) Valid() bool {
	switch s {
	case StrictnessCoaching, StrictnessStandard, StrictnessStrict, StrictnessBlocking:
		return true
	}
	return false
}

// Settings is the slice of configuration the review pipeline consumes.
// It is copied into the Context so analyzers see a stable snapshot.
type Settings struct {
	Strictness      Strictness `json:"strictness"`
	CoachingEnabled bool       `json:"coaching_enabled"`
}

// Context is the immutable bundle handed to every analyzer: PR metadata,
// the prioritized changed-file list, project context, and the settings
// snapshot. Owned by the caller; analyzers must not mutate it.
type Context struct {
	PR       PullRequest    `json:"pr"`
	Files    []ChangedFile  `json:"files"`
	Commits  []Commit       `json:"commits,omitempty"`
	Project  ProjectContext `json:"project"`
	Settings Settings       `json:"settings"`
}

// ---------------------------------------------------------------------------
// Lint pass-through
// ---------------------------------------------------------------------------

// LintResult is the opaque output of the external linting coordinator.
// Synthesis passes it through to the final review untouched.
type LintResult struct {
	Tool     string `json:"tool"`
	Passed   bool   `json:"passed"`
	Output   string `json:"output,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ---------------------------------------------------------------------------
// Final review
// ---------------------------------------------------------------------------

// AgentPerformance summarizes one agent's contribution to a run.
type AgentPerformance struct {
	IssuesFound       int           `json:"issues_found"`
	ExecutionTime     time.Duration `json:"execution_time"`
	AverageConfidence float64       `json:"average_confidence"`
}

// Metrics holds run-level numbers computed during synthesis.
type Metrics struct {
	FilesReviewed    int                         `json:"files_reviewed"`
	IssuesFound      int                         `json:"issues_found"`
	ExecutionTime    time.Duration               `json:"execution_time"`
	AgentPerformance map[string]AgentPerformance `json:"agent_performance"`
}

// FinalReview is the synthesized decision artifact for one run: the
// deduplicated findings split into blocking issues and recommendations,
// capped coaching tips, the untouched lint summary, and metrics.
type FinalReview struct {
	BlockingIssues  []ScoredIssue `json:"blocking_issues"`
	Recommendations []ScoredIssue `json:"recommendations"`
	Coaching        []CoachingTip `json:"coaching,omitempty"`
	Lint            *LintResult   `json:"lint,omitempty"`
	Summary         string        `json:"summary"`
	Metrics         Metrics       `json:"metrics"`
}
