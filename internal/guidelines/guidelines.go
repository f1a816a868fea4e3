// Package guidelines discovers repository-local review guideline files and
// folds them into the project context handed to the analyzers.
package guidelines

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	maxFiles        = 8
	maxBytesPerFile = 2000
	maxBytesTotal   = 6000
)

var candidates = []string{
	".quorum/guidelines.md",
	"CONTRIBUTING.md",
	"AGENTS.md",
	"docs/REVIEW.md",
	".github/copilot-instructions.md",
}

// Load discovers guideline files under root and concatenates them into one
// prompt-ready section. Empty string means none were found.
func Load(root string) string {
	root = strings.TrimSpace(root)
	if root == "" {
		return ""
	}

	var (
		sb    strings.Builder
		total int
		used  int
	)

	for _, rel := range discover(root) {
		if used >= maxFiles || total >= maxBytesTotal {
			break
		}

		b, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			continue
		}
		content := strings.TrimSpace(string(b))
		if content == "" {
			continue
		}

		if len(content) > maxBytesPerFile {
			content = strings.TrimSpace(content[:maxBytesPerFile]) + "\n...[truncated]"
		}
		if remaining := maxBytesTotal - total; len(content) > remaining {
			content = strings.TrimSpace(content[:remaining]) + "\n...[truncated]"
		}

		sb.WriteString("### " + rel + "\n")
		sb.WriteString(content)
		sb.WriteString("\n\n")
		total += len(content)
		used++
	}

	return strings.TrimSpace(sb.String())
}

func discover(root string) []string {
	seen := map[string]struct{}{}
	var out []string

	add := func(rel string) {
		if _, ok := seen[rel]; ok {
			return
		}
		info, err := os.Stat(filepath.Join(root, rel))
		if err != nil || info.IsDir() {
			return
		}
		seen[rel] = struct{}{}
		out = append(out, rel)
	}

	for _, rel := range candidates {
		add(rel)
	}
	for _, rel := range markdownIn(root, ".quorum") {
		add(rel)
	}

	sort.Strings(out)
	return out
}

func markdownIn(root, relDir string) []string {
	dir := filepath.Join(root, relDir)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}

	var files []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		files = append(files, filepath.ToSlash(filepath.Join(relDir, e.Name())))
	}
	sort.Strings(files)
	return files
}
