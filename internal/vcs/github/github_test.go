package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanix-darker/quorum/internal/review"
)

func newTestReporter(t *testing.T, handler http.HandlerFunc) *Reporter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rp, err := NewReporter("test-token", srv.URL)
	require.NoError(t, err)
	return rp.(*Reporter)
}

func TestNewReporterRequiresToken(t *testing.T) {
	_, err := NewReporter("", "")
	assert.Error(t, err)
}

func TestFetchPR(t *testing.T) {
	r := newTestReporter(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/repos/acme/widget/pulls/7", req.URL.Path)
		assert.Equal(t, "Bearer test-token", req.Header.Get("Authorization"))
		fmt.Fprint(w, `{
			"number": 7,
			"title": "Harden login",
			"body": "Adds validation",
			"user": {"login": "dev"},
			"head": {"ref": "feature", "sha": "abc"},
			"base": {"ref": "main", "sha": "def"}
		}`)
	})

	pr, err := r.FetchPR(context.Background(), "acme/widget", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pr.Number)
	assert.Equal(t, "Harden login", pr.Title)
	assert.Equal(t, "dev", pr.Author)
	assert.Equal(t, "feature", pr.SourceBranch)
	assert.Equal(t, "main", pr.TargetBranch)
	assert.Equal(t, "abc", pr.HeadSHA)
}

func TestFetchPRFiles(t *testing.T) {
	r := newTestReporter(t, func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"filename": "auth.go", "status": "added", "additions": 20, "deletions": 0, "patch": "@@ +1,20 @@"},
			{"filename": "old.go", "status": "removed", "additions": 0, "deletions": 5},
			{"filename": "util.go", "status": "modified", "additions": 2, "deletions": 2},
		})
	})

	files, err := r.FetchPRFiles(context.Background(), "acme/widget", 7)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, review.FileAdded, files[0].Status)
	assert.Equal(t, 20, files[0].Additions)
	assert.Equal(t, review.FileDeleted, files[1].Status)
	assert.Equal(t, review.FileModified, files[2].Status)
}

func TestPostSummary(t *testing.T) {
	var posted string
	r := newTestReporter(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/repos/acme/widget/issues/7/comments", req.URL.Path)
		var body struct {
			Body string `json:"body"`
		}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		posted = body.Body
		w.WriteHeader(http.StatusCreated)
	})

	err := r.PostSummary(context.Background(), "acme/widget", 7, "## Review\nAll clear.")
	require.NoError(t, err)
	assert.Equal(t, "## Review\nAll clear.", posted)
}

func TestPostSummarySurfacesAPIErrors(t *testing.T) {
	r := newTestReporter(t, func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	})

	err := r.PostSummary(context.Background(), "acme/widget", 7, "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
