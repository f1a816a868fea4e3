package priority

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sanix-darker/quorum/internal/review"
)

func TestScoreSecurityFile(t *testing.T) {
	p := New(review.ProjectContext{})

	f := review.ChangedFile{Path: "src/auth/login.ts", Status: review.FileModified}
	score := p.Score(f)

	assert.GreaterOrEqual(t, score, 10)

	got := p.Prioritize([]review.ChangedFile{f})
	assert.Contains(t, []review.Priority{review.PriorityHigh, review.PriorityCritical}, got[0].Priority)
}

func TestScorePlainHelperIsLow(t *testing.T) {
	p := New(review.ProjectContext{})

	f := review.ChangedFile{
		Path:      "src/misc/helper.ts",
		Status:    review.FileModified,
		Additions: 40,
		Deletions: 30,
	}
	assert.Equal(t, 0, p.Score(f))

	got := p.Prioritize([]review.ChangedFile{f})
	assert.Equal(t, review.PriorityLow, got[0].Priority)
}

func TestScoreSignals(t *testing.T) {
	p := New(review.ProjectContext{CriticalPaths: []string{"internal/billing/**"}})

	tests := []struct {
		name string
		file review.ChangedFile
		want int
	}{
		{
			"added config file",
			review.ChangedFile{Path: "deploy/config.yml", Status: review.FileAdded},
			// configuration(5) via both config.* and *.yml counts once each rule,
			// added(3)
			5 + 3,
		},
		{
			"large database migration",
			review.ChangedFile{Path: "db/migrations/0042_users.sql", Status: review.FileModified, Additions: 90, Deletions: 20},
			6 + 2,
		},
		{
			"api handler",
			review.ChangedFile{Path: "internal/api/users.go", Status: review.FileModified},
			7,
		},
		{
			"critical area with business logic",
			review.ChangedFile{Path: "internal/billing/invoice_service.go", Status: review.FileModified},
			8 + 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Score(tt.file))
		})
	}
}

func TestPrioritizeStableOrder(t *testing.T) {
	p := New(review.ProjectContext{})

	files := []review.ChangedFile{
		{Path: "docs/readme.md", Status: review.FileModified},       // low
		{Path: "src/a_helper.go", Status: review.FileModified},      // low
		{Path: "src/auth/session.go", Status: review.FileModified},  // high+
		{Path: "src/b_helper.go", Status: review.FileModified},      // low
		{Path: "src/login_token.go", Status: review.FileModified},   // high+
	}

	got := p.Prioritize(files)

	// High-priority files first, in their original relative order.
	assert.Equal(t, "src/auth/session.go", got[0].Path)
	assert.Equal(t, "src/login_token.go", got[1].Path)

	// Equal-priority files keep input order.
	assert.Equal(t, "docs/readme.md", got[2].Path)
	assert.Equal(t, "src/a_helper.go", got[3].Path)
	assert.Equal(t, "src/b_helper.go", got[4].Path)

	// Input slice is untouched.
	assert.Equal(t, "docs/readme.md", files[0].Path)
	assert.Empty(t, files[0].Priority)
}

func TestPriorityThresholds(t *testing.T) {
	assert.Equal(t, review.PriorityCritical, priorityFor(15))
	assert.Equal(t, review.PriorityHigh, priorityFor(14))
	assert.Equal(t, review.PriorityHigh, priorityFor(10))
	assert.Equal(t, review.PriorityMedium, priorityFor(9))
	assert.Equal(t, review.PriorityMedium, priorityFor(5))
	assert.Equal(t, review.PriorityLow, priorityFor(4))
	assert.Equal(t, review.PriorityLow, priorityFor(0))
}

func TestGlobToRegexp(t *testing.T) {
	tests := []struct {
		glob    string
		path    string
		matches bool
	}{
		{"**/*auth*", "internal/pkg/oauth.go", true},
		{"**/*auth*", "author/notes.txt", false}, // "author" is a directory
		{"**/auth/**", "src/auth/login.ts", true},
		{"**/config.*", "config.yaml", true},
		{"**/*.sql", "db/schema.sql", true},
		{"**/*.sql", "db/schema.sqlite", false},
		{"src/?.go", "src/a.go", true},
		{"src/?.go", "src/ab.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.glob+" vs "+tt.path, func(t *testing.T) {
			res := compileGlobs(tt.glob)
			assert.Len(t, res, 1)
			assert.Equal(t, tt.matches, res[0].MatchString(tt.path))
		})
	}
}
