// Package vcs abstracts the hosting platform behind a narrow reporting
// contract: fetch pull-request metadata and changed files, and publish the
// review summary. Implementations self-register through the registry so
// the platform is selected purely by configuration.
package vcs

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sanix-darker/quorum/internal/review"
)

// ReporterInfo describes a registered platform.
type ReporterInfo struct {
	Name    string
	BaseURL string
}

// Reporter is the platform contract the review pipeline consumes.
type Reporter interface {
	Info() ReporterInfo

	// FetchPR retrieves pull-request metadata. repo is the "owner/repo"
	// slug (or project path on GitLab).
	FetchPR(ctx context.Context, repo string, number int64) (*review.PullRequest, error)

	// FetchPRFiles retrieves the changed files of a pull request, with
	// patches. Priorities are left unset.
	FetchPRFiles(ctx context.Context, repo string, number int64) ([]review.ChangedFile, error)

	// PostSummary publishes the rendered review as a top-level PR comment.
	PostSummary(ctx context.Context, repo string, number int64, body string) error

	// Validate checks the reporter is usable (token present, etc.).
	Validate() error
}

// Factory creates a Reporter from a token and base URL. An empty base URL
// selects the platform's public endpoint.
type Factory func(token, baseURL string) (Reporter, error)

// Registry is a thread-safe store of reporter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a reporter factory under the given name. It panics if the
// name is already registered.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("vcs: factory already registered for %q", name))
	}
	r.factories[name] = f
}

// Get creates a reporter instance by name.
func (r *Registry) Get(name, token, baseURL string) (Reporter, error) {
	r.mu.RLock()
	f, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("vcs: unknown platform %q (registered: %v)", name, r.Names())
	}
	return f(token, baseURL)
}

// Names returns the sorted registered platform names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Register adds a reporter factory to the global registry.
func Register(name string, f Factory) {
	globalRegistry.Register(name, f)
}

// Get resolves a reporter by name from the global registry.
func Get(name, token, baseURL string) (Reporter, error) {
	return globalRegistry.Get(name, token, baseURL)
}

// Names returns all registered platform names from the global registry.
func Names() []string {
	return globalRegistry.Names()
}
