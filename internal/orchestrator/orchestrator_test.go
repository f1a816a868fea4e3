package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanix-darker/quorum/internal/config"
	"github.com/sanix-darker/quorum/internal/provider"
	"github.com/sanix-darker/quorum/internal/review"
	"github.com/sanix-darker/quorum/internal/synthesis"
)

// ---------------------------------------------------------------------------
// Test fixtures
// ---------------------------------------------------------------------------

// stubProvider scripts Complete calls. The dispatch function receives the
// per-provider call number (1-based) and the request it was given.
type stubProvider struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, req provider.CompletionRequest) (*provider.CompletionResponse, error)
}

func (s *stubProvider) Info() provider.ProviderInfo {
	return provider.ProviderInfo{Name: "stub", DisplayName: "Stub", DefaultModel: "stub-1"}
}

func (s *stubProvider) Validate(ctx context.Context) error { return nil }

func (s *stubProvider) Complete(ctx context.Context, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()
	return s.fn(n, req)
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func analysisJSON(confidence float64) *provider.CompletionResponse {
	return &provider.CompletionResponse{
		Content: fmt.Sprintf(`{"summary": "looks fine", "confidence": %g, "issues": []}`, confidence),
	}
}

func testConfig(areas ...string) config.Config {
	return config.Config{
		Strictness:  review.StrictnessStandard,
		FocusAreas:  areas,
		Weights:     map[string]float64{},
		Concurrency: 3,
		MaxRetries:  2,
		ErrWriter:   io.Discard,
	}
}

func noBackoff(int) time.Duration { return 0 }

// ---------------------------------------------------------------------------
// Active set
// ---------------------------------------------------------------------------

func TestNewBuildsActiveSetInRegistrationOrder(t *testing.T) {
	p := &stubProvider{fn: func(int, provider.CompletionRequest) (*provider.CompletionResponse, error) {
		return analysisJSON(0.5), nil
	}}
	o := New(testConfig("quality", "security"), p)

	active := o.Active()
	require.Len(t, active, 2)
	// Registration order, not configuration order.
	assert.Equal(t, "security-agent", active[0].ID)
	assert.Equal(t, "quality-agent", active[1].ID)
}

func TestNewExcludesZeroWeightAnalyzers(t *testing.T) {
	cfg := testConfig("security", "quality")
	cfg.Weights["security"] = 0

	o := New(cfg, &stubProvider{})
	active := o.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "quality-agent", active[0].ID)

	// Zero weight removes the analyzer from the required set too.
	assert.NoError(t, o.ValidateAvailability())
}

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

func TestExecuteReviewOneResultPerAnalyzer(t *testing.T) {
	p := &stubProvider{fn: func(int, provider.CompletionRequest) (*provider.CompletionResponse, error) {
		return analysisJSON(0.6), nil
	}}
	o := New(testConfig("security", "quality", "performance"), p, WithBackoff(noBackoff))

	results, err := o.ExecuteReview(context.Background(), &review.Context{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "security-agent", results[0].Agent)
	assert.Equal(t, "quality-agent", results[1].Agent)
	assert.Equal(t, "performance-agent", results[2].Agent)
	for _, r := range results {
		assert.InDelta(t, 0.6, r.Confidence, 1e-9)
		assert.NotNil(t, r.Issues)
	}
}

func TestExecuteReviewRetriesThenSucceeds(t *testing.T) {
	p := &stubProvider{fn: func(call int, _ provider.CompletionRequest) (*provider.CompletionResponse, error) {
		if call <= 2 {
			return nil, errors.New("transient failure")
		}
		return analysisJSON(0.8), nil
	}}
	o := New(testConfig("security"), p, WithBackoff(noBackoff))

	results, err := o.ExecuteReview(context.Background(), &review.Context{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 3, p.callCount())
	assert.InDelta(t, 0.8, results[0].Confidence, 1e-9)
	assert.Equal(t, "looks fine", results[0].Summary)
}

func TestExecuteReviewDegradesAfterExhaustion(t *testing.T) {
	p := &stubProvider{fn: func(int, provider.CompletionRequest) (*provider.CompletionResponse, error) {
		return nil, errors.New("model unreachable")
	}}
	cfg := testConfig("security")
	cfg.MaxRetries = 2
	o := New(cfg, p, WithBackoff(noBackoff))

	results, err := o.ExecuteReview(context.Background(), &review.Context{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	// maxRetries+1 attempts in total.
	assert.Equal(t, 3, p.callCount())

	r := results[0]
	assert.Equal(t, "security-agent", r.Agent)
	assert.Zero(t, r.Confidence)
	assert.Empty(t, r.Issues)
	assert.NotNil(t, r.Issues)
	assert.True(t, strings.HasPrefix(r.Summary, "Agent failed:"), "summary %q", r.Summary)
	assert.Contains(t, r.Summary, "model unreachable")
}

func TestExecuteReviewIsolatesFailures(t *testing.T) {
	// The security analyzer always fails; its siblings must still succeed.
	p := &stubProvider{fn: func(_ int, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
		if strings.Contains(req.Messages[0].Content, "exclusively on security") {
			return nil, errors.New("boom")
		}
		return analysisJSON(0.7), nil
	}}
	o := New(testConfig("security", "quality", "testing"), p, WithBackoff(noBackoff))

	results, err := o.ExecuteReview(context.Background(), &review.Context{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Zero(t, results[0].Confidence)
	assert.Contains(t, results[0].Summary, "Agent failed:")
	assert.InDelta(t, 0.7, results[1].Confidence, 1e-9)
	assert.InDelta(t, 0.7, results[2].Confidence, 1e-9)
}

func TestExecuteReviewAppliesWeights(t *testing.T) {
	p := &stubProvider{fn: func(int, provider.CompletionRequest) (*provider.CompletionResponse, error) {
		return analysisJSON(0.9), nil
	}}
	cfg := testConfig("security", "quality", "performance")
	cfg.Weights["quality"] = 0.8
	cfg.Weights["performance"] = 2.0

	o := New(cfg, p, WithBackoff(noBackoff))
	results, err := o.ExecuteReview(context.Background(), &review.Context{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.InDelta(t, 0.9, results[0].Confidence, 1e-9)  // weight 1.0
	assert.InDelta(t, 0.72, results[1].Confidence, 1e-9) // weight 0.8
	assert.InDelta(t, 1.0, results[2].Confidence, 1e-9)  // weight 2.0, capped
}

func TestExecuteReviewConcurrencyOne(t *testing.T) {
	// A pool of one still produces every result, in order.
	var inFlight, maxInFlight int
	var mu sync.Mutex
	p := &stubProvider{fn: func(int, provider.CompletionRequest) (*provider.CompletionResponse, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return analysisJSON(0.5), nil
	}}
	cfg := testConfig("security", "quality", "performance")
	cfg.Concurrency = 1

	o := New(cfg, p, WithBackoff(noBackoff))
	results, err := o.ExecuteReview(context.Background(), &review.Context{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxInFlight)
}

func TestExecuteReviewCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &stubProvider{fn: func(int, provider.CompletionRequest) (*provider.CompletionResponse, error) {
		cancel()
		return nil, errors.New("transient")
	}}
	o := New(testConfig("security"), p,
		WithBackoff(func(int) time.Duration { return time.Minute }))

	start := time.Now()
	results, err := o.ExecuteReview(ctx, &review.Context{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Contains(t, results[0].Summary, "Agent failed:")
	assert.Contains(t, results[0].Summary, context.Canceled.Error())
}

// ---------------------------------------------------------------------------
// Result validation
// ---------------------------------------------------------------------------

func TestValidateResult(t *testing.T) {
	valid := func() *review.AnalysisResult {
		return &review.AnalysisResult{
			Agent:      "security-agent",
			Confidence: 0.5,
			Issues: []review.Issue{{
				Severity:    review.SeverityWarning,
				Category:    "security",
				Title:       "hardcoded secret",
				Description: "an API key is committed in plain text",
				File:        "config/prod.yml",
			}},
			Summary: "one finding",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*review.AnalysisResult) *review.AnalysisResult
		wantErr string
	}{
		{"valid", func(r *review.AnalysisResult) *review.AnalysisResult { return r }, ""},
		{"nil result", func(*review.AnalysisResult) *review.AnalysisResult { return nil }, "nil result"},
		{"agent mismatch", func(r *review.AnalysisResult) *review.AnalysisResult {
			r.Agent = "quality-agent"
			return r
		}, "does not match"},
		{"confidence NaN", func(r *review.AnalysisResult) *review.AnalysisResult {
			r.Confidence = math.NaN()
			return r
		}, "outside [0,1]"},
		{"confidence negative", func(r *review.AnalysisResult) *review.AnalysisResult {
			r.Confidence = -0.1
			return r
		}, "outside [0,1]"},
		{"confidence above one", func(r *review.AnalysisResult) *review.AnalysisResult {
			r.Confidence = 1.1
			return r
		}, "outside [0,1]"},
		{"nil issues", func(r *review.AnalysisResult) *review.AnalysisResult {
			r.Issues = nil
			return r
		}, "no issue list"},
		{"issue missing file", func(r *review.AnalysisResult) *review.AnalysisResult {
			r.Issues[0].File = ""
			return r
		}, "invalid issue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResult(tt.mutate(valid()), "security-agent")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidationFailureFeedsRetry(t *testing.T) {
	// A parseable response with out-of-range confidence counts as a failed
	// attempt, exactly like a transport error.
	p := &stubProvider{fn: func(call int, _ provider.CompletionRequest) (*provider.CompletionResponse, error) {
		if call == 1 {
			return analysisJSON(1.5), nil
		}
		return analysisJSON(0.4), nil
	}}
	o := New(testConfig("security"), p, WithBackoff(noBackoff))

	results, err := o.ExecuteReview(context.Background(), &review.Context{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 2, p.callCount())
	assert.InDelta(t, 0.4, results[0].Confidence, 1e-9)
}

// ---------------------------------------------------------------------------
// Backoff schedule
// ---------------------------------------------------------------------------

func TestDefaultBackoffDoubles(t *testing.T) {
	assert.Equal(t, time.Second, defaultBackoff(1))
	assert.Equal(t, 2*time.Second, defaultBackoff(2))
	assert.Equal(t, 4*time.Second, defaultBackoff(3))
}

// ---------------------------------------------------------------------------
// Weight adjustment
// ---------------------------------------------------------------------------

func TestAdjustWeights(t *testing.T) {
	weights := map[string]float64{
		"security":    1.0,
		"quality":     1.0,
		"performance": 1.0,
		"testing":     1.95,
		"docs":        0.05,
	}
	perf := map[string]float64{
		"security":    0.9, // high, +0.1
		"quality":     0.3, // low, -0.1
		"performance": 0.5, // neutral
		"testing":     0.95,
		"docs":        0.1,
		"unknown":     0.99, // no matching weight, ignored
	}

	got := AdjustWeights(weights, perf)

	assert.InDelta(t, 1.1, got["security"], 1e-9)
	assert.InDelta(t, 0.9, got["quality"], 1e-9)
	assert.InDelta(t, 1.0, got["performance"], 1e-9)
	assert.InDelta(t, 2.0, got["testing"], 1e-9) // clamped at ceiling
	assert.InDelta(t, 0.0, got["docs"], 1e-9)    // clamped at floor
	assert.NotContains(t, got, "unknown")

	// The input map is untouched.
	assert.InDelta(t, 1.0, weights["security"], 1e-9)
	assert.InDelta(t, 1.0, weights["quality"], 1e-9)
}

func TestAdjustWeightsBoundaryScores(t *testing.T) {
	weights := map[string]float64{"security": 1.0, "quality": 1.0}
	perf := map[string]float64{"security": 0.8, "quality": 0.4}

	// Thresholds are strict inequalities.
	got := AdjustWeights(weights, perf)
	assert.InDelta(t, 1.0, got["security"], 1e-9)
	assert.InDelta(t, 1.0, got["quality"], 1e-9)
}

// ---------------------------------------------------------------------------
// End to end
// ---------------------------------------------------------------------------

// One full pipeline run with mixed outcomes: security recovers after two
// failures, quality succeeds with a down-weighted confidence, performance
// exhausts its retries and degrades, and synthesis folds all three into
// the final review.
func TestReviewPipelineMixedOutcomes(t *testing.T) {
	issueJSON := func(confidence float64, category, title, file string, line int) *provider.CompletionResponse {
		return &provider.CompletionResponse{
			Content: fmt.Sprintf(`{"summary": "reviewed", "confidence": %g, "issues": [{"severity": "warning", "category": %q, "title": %q, "description": "needs attention", "file": %q, "line": %d}]}`,
				confidence, category, title, file, line),
		}
	}

	var mu sync.Mutex
	perAgent := map[string]int{}
	p := &stubProvider{fn: func(_ int, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
		system := req.Messages[0].Content
		var agent string
		switch {
		case strings.Contains(system, "exclusively on security"):
			agent = "security"
		case strings.Contains(system, "correctness and business logic"):
			agent = "quality"
		default:
			agent = "performance"
		}
		mu.Lock()
		perAgent[agent]++
		n := perAgent[agent]
		mu.Unlock()

		switch agent {
		case "security":
			if n <= 2 {
				return nil, errors.New("model unreachable")
			}
			return issueJSON(0.8, "security", "Token written to logs", "auth.go", 10), nil
		case "quality":
			return issueJSON(0.9, "quality", "Nil dereference on empty user", "auth.go", 20), nil
		default:
			return nil, errors.New("model unreachable")
		}
	}}

	cfg := testConfig("security", "quality", "performance")
	cfg.Weights["quality"] = 0.8
	o := New(cfg, p, WithBackoff(noBackoff))

	rc := &review.Context{Settings: review.Settings{
		Strictness:      review.StrictnessStandard,
		CoachingEnabled: true,
	}}
	results, err := o.ExecuteReview(context.Background(), rc)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.InDelta(t, 0.8, results[0].Confidence, 1e-9)
	assert.InDelta(t, 0.72, results[1].Confidence, 1e-9)
	assert.Zero(t, results[2].Confidence)
	assert.Contains(t, results[2].Summary, "Agent failed:")

	fr := synthesis.New().Synthesize(results, nil, rc, 250*time.Millisecond)

	// Standard strictness never blocks; both surviving findings land in
	// the recommendations, and the degraded agent still shows up in the
	// metrics at zero confidence.
	assert.Empty(t, fr.BlockingIssues)
	require.Len(t, fr.Recommendations, 2)
	assert.Equal(t, 2, fr.Metrics.IssuesFound)
	require.Len(t, fr.Metrics.AgentPerformance, 3)
	assert.Zero(t, fr.Metrics.AgentPerformance["performance-agent"].AverageConfidence)
	assert.Equal(t, 1, fr.Metrics.AgentPerformance["security-agent"].IssuesFound)
}
