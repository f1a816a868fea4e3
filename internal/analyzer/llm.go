package analyzer

import (
	"context"
	"fmt"

	"github.com/sanix-darker/quorum/internal/provider"
	"github.com/sanix-darker/quorum/internal/review"
)

// llmAnalyzer is the single implementation behind every Kind: the variants
// differ only in their profile (prompt focus, category, agent id).
type llmAnalyzer struct {
	descriptor Descriptor
	profile    profile
	provider   provider.AIProvider
}

func (a *llmAnalyzer) ID() string {
	return a.descriptor.ID
}

func (a *llmAnalyzer) Descriptor() Descriptor {
	return a.descriptor
}

// Execute prompts the model with the review context and parses the reply
// into an AnalysisResult. The confidence returned here is the model's raw
// self-assessment; weighting and capping happen in the orchestrator, and
// the orchestrator also stamps the final execution time.
func (a *llmAnalyzer) Execute(ctx context.Context, rc *review.Context) (*review.AnalysisResult, error) {
	req := provider.CompletionRequest{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: systemPrompt(a.profile)},
			{Role: provider.RoleUser, Content: userPrompt(rc)},
		},
	}

	resp, err := a.provider.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: completion failed: %w", a.descriptor.ID, err)
	}

	summary, confidence, issues, err := parseResponse(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.descriptor.ID, err)
	}

	return &review.AnalysisResult{
		Agent:      a.descriptor.ID,
		Confidence: confidence,
		Issues:     issues,
		Summary:    summary,
	}, nil
}
