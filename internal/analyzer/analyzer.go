// Package analyzer defines the closed set of review analyzers and the
// contract the orchestrator consumes. Every analyzer inspects a shared
// review context and returns one AnalysisResult with a confidence score;
// the domain knowledge (what to look for, how to prompt the model) lives
// here, while scheduling, retry, and weighting live in the orchestrator.
package analyzer

import (
	"context"
	"fmt"

	"github.com/sanix-darker/quorum/internal/config"
	"github.com/sanix-darker/quorum/internal/provider"
	"github.com/sanix-darker/quorum/internal/review"
)

// ---------------------------------------------------------------------------
// Kinds
// ---------------------------------------------------------------------------

// Kind identifies one analyzer variant. The set is closed: configuration
// can enable or weight kinds but cannot invent new ones.
type Kind string

const (
	KindSecurity     Kind = "security"
	KindQuality      Kind = "quality"
	KindPerformance  Kind = "performance"
	KindArchitecture Kind = "architecture"
	KindTesting      Kind = "testing"
)

// Kinds returns every known analyzer kind in registration order. The order
// is fixed so orchestrator output stays deterministic.
func Kinds() []Kind {
	return []Kind{KindSecurity, KindQuality, KindPerformance, KindArchitecture, KindTesting}
}

// profile carries the per-kind domain knowledge used for prompting and
// descriptor metadata.
type profile struct {
	agentID      string
	capabilities []string
	category     string
	focus        string
}

var profiles = map[Kind]profile{
	KindSecurity: {
		agentID:      "security-agent",
		capabilities: []string{"vulnerabilities", "injection", "secrets", "authentication"},
		category:     "security",
		focus: "Focus exclusively on security: injection risks, secrets or " +
			"credentials in code, broken authentication or authorization, unsafe " +
			"deserialization, path traversal, and unvalidated input reaching " +
			"sensitive sinks.",
	},
	KindQuality: {
		agentID:      "quality-agent",
		capabilities: []string{"correctness", "error-handling", "edge-cases"},
		category:     "quality",
		focus: "Focus exclusively on correctness and business logic: wrong or " +
			"missing error handling, off-by-one and boundary mistakes, broken " +
			"invariants, dead or unreachable branches, and logic that contradicts " +
			"the change description.",
	},
	KindPerformance: {
		agentID:      "performance-agent",
		capabilities: []string{"complexity", "allocations", "io"},
		category:     "performance",
		focus: "Focus exclusively on performance: accidental quadratic loops, " +
			"repeated work inside hot paths, unbounded memory growth, missing " +
			"pagination, and blocking I/O on latency-sensitive paths.",
	},
	KindArchitecture: {
		agentID:      "architecture-agent",
		capabilities: []string{"layering", "coupling", "api-design"},
		category:     "architecture",
		focus: "Focus exclusively on structure: layering violations, tight " +
			"coupling across package boundaries, leaky abstractions, and public " +
			"API shapes that will be hard to evolve.",
	},
	KindTesting: {
		agentID:      "testing-agent",
		capabilities: []string{"coverage", "test-quality", "regressions"},
		category:     "testing",
		focus: "Focus exclusively on tests: changed behavior without test " +
			"updates, missing edge-case coverage, assertions that cannot fail, " +
			"and tests coupled to implementation details.",
	},
}

// ---------------------------------------------------------------------------
// Descriptor and contract
// ---------------------------------------------------------------------------

// Descriptor identifies one analyzer: its agent id, the focus-area category
// it belongs to, human capability tags, and its configured weight in [0,2].
type Descriptor struct {
	ID           string
	Kind         Kind
	Category     string
	Capabilities []string
	Weight       float64
}

// Analyzer is the contract the orchestrator consumes. Execute may suspend
// on I/O, must not mutate the context, and the returned result's Agent
// field must equal the analyzer's own ID.
type Analyzer interface {
	ID() string
	Descriptor() Descriptor
	Execute(ctx context.Context, rc *review.Context) (*review.AnalysisResult, error)
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// New builds the analyzer for a kind, backed by the given AI provider.
// Unknown kinds are a programming error, not a configuration error.
func New(kind Kind, weight float64, p provider.AIProvider) (Analyzer, error) {
	prof, ok := profiles[kind]
	if !ok {
		return nil, fmt.Errorf("analyzer: unknown kind %q", kind)
	}
	return &llmAnalyzer{
		descriptor: Descriptor{
			ID:           prof.agentID,
			Kind:         kind,
			Category:     prof.category,
			Capabilities: prof.capabilities,
			Weight:       weight,
		},
		profile:  prof,
		provider: p,
	}, nil
}

// Describe returns the descriptor a kind would get under the given config,
// without constructing the analyzer. Used by the CLI listing.
func Describe(kind Kind, cfg config.Config) Descriptor {
	prof := profiles[kind]
	return Descriptor{
		ID:           prof.agentID,
		Kind:         kind,
		Category:     prof.category,
		Capabilities: prof.capabilities,
		Weight:       cfg.Weight(prof.category),
	}
}
