// Package github implements the vcs.Reporter contract against the GitHub
// REST API (github.com or GitHub Enterprise).
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sanix-darker/quorum/internal/review"
	"github.com/sanix-darker/quorum/internal/vcs"
)

func init() {
	vcs.Register("github", NewReporter)
}

// Reporter talks to the GitHub REST API.
type Reporter struct {
	client  *resty.Client
	baseURL string
	token   string
}

// NewReporter is the factory registered with the vcs registry.
func NewReporter(token, baseURL string) (vcs.Reporter, error) {
	if token == "" {
		return nil, fmt.Errorf("github: token is required")
	}
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}

	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/vnd.github+json").
		SetAuthToken(token)

	return &Reporter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}, nil
}

func (r *Reporter) Info() vcs.ReporterInfo {
	return vcs.ReporterInfo{Name: "github", BaseURL: r.baseURL}
}

func (r *Reporter) Validate() error {
	if r.token == "" {
		return fmt.Errorf("github: token is required")
	}
	return nil
}

type apiPR struct {
	Number int64  `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	User   struct {
		Login string `json:"login"`
	} `json:"user"`
	Head struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	} `json:"head"`
	Base struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	} `json:"base"`
}

// FetchPR retrieves pull-request metadata.
func (r *Reporter) FetchPR(ctx context.Context, repo string, number int64) (*review.PullRequest, error) {
	var pr apiPR
	if err := r.getJSON(ctx, fmt.Sprintf("/repos/%s/pulls/%d", repo, number), &pr); err != nil {
		return nil, fmt.Errorf("github: failed to fetch PR #%d: %w", number, err)
	}

	return &review.PullRequest{
		Number:       pr.Number,
		Title:        pr.Title,
		Description:  pr.Body,
		Author:       pr.User.Login,
		SourceBranch: pr.Head.Ref,
		TargetBranch: pr.Base.Ref,
		HeadSHA:      pr.Head.SHA,
		BaseSHA:      pr.Base.SHA,
	}, nil
}

type apiFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

// FetchPRFiles retrieves the changed files of a pull request, paging
// through the file list.
func (r *Reporter) FetchPRFiles(ctx context.Context, repo string, number int64) ([]review.ChangedFile, error) {
	var all []review.ChangedFile
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("/repos/%s/pulls/%d/files?per_page=100&page=%d", repo, number, page)
		var files []apiFile
		if err := r.getJSON(ctx, endpoint, &files); err != nil {
			return nil, fmt.Errorf("github: failed to fetch PR files: %w", err)
		}

		for _, f := range files {
			all = append(all, review.ChangedFile{
				Path:      f.Filename,
				Status:    fileStatus(f.Status),
				Additions: f.Additions,
				Deletions: f.Deletions,
				Patch:     f.Patch,
			})
		}
		if len(files) < 100 {
			return all, nil
		}
	}
}

// PostSummary publishes the review as a top-level issue comment.
func (r *Reporter) PostSummary(ctx context.Context, repo string, number int64, body string) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"body": body}).
		Post(fmt.Sprintf("%s/repos/%s/issues/%d/comments", r.baseURL, repo, number))
	if err != nil {
		return fmt.Errorf("github: failed to post summary: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return fmt.Errorf("github: posting summary returned status %d: %s",
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

func fileStatus(s string) review.FileStatus {
	switch s {
	case "added":
		return review.FileAdded
	case "removed":
		return review.FileDeleted
	case "renamed":
		return review.FileRenamed
	default:
		return review.FileModified
	}
}
