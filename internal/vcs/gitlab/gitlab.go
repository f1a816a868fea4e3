// Package gitlab implements the vcs.Reporter contract against the GitLab
// REST API (gitlab.com or self-hosted).
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sanix-darker/quorum/internal/review"
	"github.com/sanix-darker/quorum/internal/vcs"
)

func init() {
	vcs.Register("gitlab", NewReporter)
}

// Reporter talks to the GitLab REST API.
type Reporter struct {
	client  *resty.Client
	baseURL string
	token   string
}

// NewReporter is the factory registered with the vcs registry.
func NewReporter(token, baseURL string) (vcs.Reporter, error) {
	if token == "" {
		return nil, fmt.Errorf("gitlab: token is required")
	}
	if baseURL == "" {
		baseURL = "https://gitlab.com/api/v4"
	}

	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("PRIVATE-TOKEN", token)

	return &Reporter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}, nil
}

func (r *Reporter) Info() vcs.ReporterInfo {
	return vcs.ReporterInfo{Name: "gitlab", BaseURL: r.baseURL}
}

func (r *Reporter) Validate() error {
	if r.token == "" {
		return fmt.Errorf("gitlab: token is required")
	}
	return nil
}

type apiMR struct {
	IID         int64  `json:"iid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      struct {
		Username string `json:"username"`
	} `json:"author"`
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
	DiffRefs     struct {
		BaseSHA string `json:"base_sha"`
		HeadSHA string `json:"head_sha"`
	} `json:"diff_refs"`
}

// FetchPR retrieves merge-request metadata. repo is the project path,
// URL-encoded per the GitLab API convention.
func (r *Reporter) FetchPR(ctx context.Context, repo string, number int64) (*review.PullRequest, error) {
	var mr apiMR
	endpoint := fmt.Sprintf("/projects/%s/merge_requests/%d", url.PathEscape(repo), number)
	if err := r.getJSON(ctx, endpoint, &mr); err != nil {
		return nil, fmt.Errorf("gitlab: failed to fetch MR !%d: %w", number, err)
	}

	return &review.PullRequest{
		Number:       mr.IID,
		Title:        mr.Title,
		Description:  mr.Description,
		Author:       mr.Author.Username,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		HeadSHA:      mr.DiffRefs.HeadSHA,
		BaseSHA:      mr.DiffRefs.BaseSHA,
	}, nil
}

type apiChange struct {
	OldPath     string `json:"old_path"`
	NewPath     string `json:"new_path"`
	Diff        string `json:"diff"`
	NewFile     bool   `json:"new_file"`
	RenamedFile bool   `json:"renamed_file"`
	DeletedFile bool   `json:"deleted_file"`
}

// FetchPRFiles retrieves the changed files of a merge request.
func (r *Reporter) FetchPRFiles(ctx context.Context, repo string, number int64) ([]review.ChangedFile, error) {
	var payload struct {
		Changes []apiChange `json:"changes"`
	}
	endpoint := fmt.Sprintf("/projects/%s/merge_requests/%d/changes", url.PathEscape(repo), number)
	if err := r.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("gitlab: failed to fetch MR changes: %w", err)
	}

	files := make([]review.ChangedFile, 0, len(payload.Changes))
	for _, c := range payload.Changes {
		cf := review.ChangedFile{
			Path:   c.NewPath,
			Status: review.FileModified,
			Patch:  c.Diff,
		}
		switch {
		case c.NewFile:
			cf.Status = review.FileAdded
		case c.DeletedFile:
			cf.Status = review.FileDeleted
			cf.Path = c.OldPath
		case c.RenamedFile:
			cf.Status = review.FileRenamed
		}
		cf.Additions, cf.Deletions = countDiff(c.Diff)
		files = append(files, cf)
	}
	return files, nil
}

// PostSummary publishes the review as a top-level MR note.
func (r *Reporter) PostSummary(ctx context.Context, repo string, number int64, body string) error {
	endpoint := fmt.Sprintf("%s/projects/%s/merge_requests/%d/notes",
		r.baseURL, url.PathEscape(repo), number)
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"body": body}).
		Post(endpoint)
	if err != nil {
		return fmt.Errorf("gitlab: failed to post summary: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return fmt.Errorf("gitlab: posting summary returned status %d: %s",
			resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}
	return nil
}

func (r *Reporter) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	resp, err := r.client.R().
		SetContext(ctx).
		Get(r.baseURL + endpoint)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}
	return json.Unmarshal(resp.Body(), out)
}

func countDiff(diff string) (adds, dels int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			adds++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			dels++
		}
	}
	return adds, dels
}
