// Package orchestrator schedules the active analyzers over a shared review
// context under bounded concurrency, applies per-analyzer retry with
// exponential backoff, validates and weights their results, and guarantees
// non-throwing degradation: one AnalysisResult per active analyzer comes
// back no matter what, in registration order.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sanix-darker/quorum/internal/analyzer"
	"github.com/sanix-darker/quorum/internal/config"
	"github.com/sanix-darker/quorum/internal/provider"
	"github.com/sanix-darker/quorum/internal/review"
)

// BackoffFn computes the delay before retry attempt n (1-based). Injectable
// so tests run without wall-clock sleeps.
type BackoffFn func(attempt int) time.Duration

// defaultBackoff is 1s, 2s, 4s, ... (1000ms * 2^(attempt-1)).
func defaultBackoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * time.Second
}

// Orchestrator owns the active analyzer set for one configuration.
type Orchestrator struct {
	active      []analyzer.Analyzer
	cfg         config.Config
	concurrency int
	maxRetries  int
	backoff     BackoffFn
	errW        io.Writer
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithBackoff replaces the exponential backoff schedule.
func WithBackoff(fn BackoffFn) Option {
	return func(o *Orchestrator) { o.backoff = fn }
}

// New constructs the active analyzer set: every kind whose focus-area
// category is enabled AND whose weight is positive. An analyzer that fails
// to construct is logged and excluded; by itself that is not fatal,
// ValidateAvailability decides whether the remaining set is acceptable.
func New(cfg config.Config, p provider.AIProvider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:         cfg,
		concurrency: cfg.Concurrency,
		maxRetries:  cfg.MaxRetries,
		backoff:     defaultBackoff,
		errW:        cfg.ErrWriter,
	}
	if o.concurrency < 1 {
		o.concurrency = config.DefaultConcurrency
	}
	if o.errW == nil {
		o.errW = io.Discard
	}
	for _, opt := range opts {
		opt(o)
	}

	for _, kind := range analyzer.Kinds() {
		desc := analyzer.Describe(kind, cfg)
		if !cfg.FocusEnabled(desc.Category) || desc.Weight <= 0 {
			continue
		}
		a, err := analyzer.New(kind, desc.Weight, p)
		if err != nil {
			fmt.Fprintf(o.errW, "analyzer %s failed to construct, excluding: %v\n", kind, err)
			continue
		}
		o.active = append(o.active, a)
	}

	return o
}

// Active returns the descriptors of the active set in registration order.
func (o *Orchestrator) Active() []analyzer.Descriptor {
	out := make([]analyzer.Descriptor, 0, len(o.active))
	for _, a := range o.active {
		out = append(out, a.Descriptor())
	}
	return out
}

// ValidateAvailability compares the active set against the required set:
// every enabled focus area with a positive weight must have its analyzer.
// A missing required analyzer is the only orchestrator-level fatal error.
func (o *Orchestrator) ValidateAvailability() error {
	activeByKind := make(map[analyzer.Kind]bool, len(o.active))
	for _, a := range o.active {
		activeByKind[a.Descriptor().Kind] = true
	}

	for _, kind := range analyzer.Kinds() {
		desc := analyzer.Describe(kind, o.cfg)
		required := o.cfg.FocusEnabled(desc.Category) && desc.Weight > 0
		if required && !activeByKind[kind] {
			return &config.ConfigurationError{
				Field:  "focus_areas",
				Reason: fmt.Sprintf("required analyzer %q is not available", desc.ID),
			}
		}
	}
	return nil
}

// ExecuteReview runs every active analyzer as an independent task on a
// bounded pool. All tasks run to completion, either success or post-retry
// degradation, and one analyzer's failure never cancels or blocks its
// siblings. The returned slice has exactly one result per active analyzer,
// in registration order regardless of completion order.
func (o *Orchestrator) ExecuteReview(ctx context.Context, rc *review.Context) ([]review.AnalysisResult, error) {
	if err := o.ValidateAvailability(); err != nil {
		return nil, err
	}

	results := make([]review.AnalysisResult, len(o.active))

	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for i := range o.active {
		i := i
		a := o.active[i]
		g.Go(func() error {
			// Tasks never return an error: failure is expressed as a
			// degraded result, so siblings keep running.
			results[i] = o.executeWithRetry(ctx, a, rc)
			return nil
		})
	}

	// Join barrier: every task has settled once Wait returns.
	_ = g.Wait()

	return results, nil
}

// executeWithRetry drives one analyzer through the attempt sequence
// 1..maxRetries+1 with exponential backoff between failures. Exhaustion
// produces a degraded result, never an error.
func (o *Orchestrator) executeWithRetry(ctx context.Context, a analyzer.Analyzer, rc *review.Context) review.AnalysisResult {
	start := time.Now()
	attempts := o.maxRetries + 1
	weight := a.Descriptor().Weight

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := a.Execute(ctx, rc)
		if err == nil {
			err = validateResult(res, a.ID())
		}
		if err == nil {
			return review.AnalysisResult{
				Agent:         res.Agent,
				Confidence:    weightConfidence(res.Confidence, weight),
				Issues:        res.Issues,
				Summary:       res.Summary,
				ExecutionTime: time.Since(start),
			}
		}
		lastErr = err

		if attempt < attempts {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				return degradedResult(a.ID(), lastErr, time.Since(start))
			case <-time.After(o.backoff(attempt)):
			}
		}
	}

	return degradedResult(a.ID(), lastErr, time.Since(start))
}

// weightConfidence applies the configured weight then caps at 1.0
// (weight-then-cap is the contract; the result is always in [0,1]).
func weightConfidence(raw, weight float64) float64 {
	return math.Min(1.0, raw*weight)
}

// degradedResult is the placeholder substituted when an analyzer exhausts
// its retries: zero confidence, no issues, an explanatory summary. It shows
// up in the final review's metrics rather than being silently dropped.
func degradedResult(agentID string, cause error, elapsed time.Duration) review.AnalysisResult {
	return review.AnalysisResult{
		Agent:         agentID,
		Confidence:    0,
		Issues:        []review.Issue{},
		Summary:       fmt.Sprintf("Agent failed: %v", cause),
		ExecutionTime: elapsed,
	}
}

// validateResult treats a malformed result exactly like an execution
// failure so it feeds the retry path: nil result, wrong agent id,
// confidence outside [0,1], a missing issue list, or any invalid issue.
func validateResult(res *review.AnalysisResult, expectedID string) error {
	if res == nil {
		return fmt.Errorf("analyzer returned a nil result")
	}
	if res.Agent != expectedID {
		return fmt.Errorf("result agent %q does not match analyzer %q", res.Agent, expectedID)
	}
	if math.IsNaN(res.Confidence) || res.Confidence < 0 || res.Confidence > 1 {
		return fmt.Errorf("confidence %v is outside [0,1]", res.Confidence)
	}
	if res.Issues == nil {
		return fmt.Errorf("result has no issue list")
	}
	for _, issue := range res.Issues {
		if err := issue.Validate(); err != nil {
			return fmt.Errorf("invalid issue: %w", err)
		}
	}
	return nil
}
