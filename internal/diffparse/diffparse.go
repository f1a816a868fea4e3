// Package diffparse converts raw unified diffs into the changed-file list
// the review pipeline consumes. Binary files are dropped; everything else
// carries its rendered patch text for prompting.
package diffparse

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/sanix-darker/quorum/internal/review"
)

// Parse converts raw `git diff` output into changed files. Priorities are
// left unset; the prioritizer assigns them later.
func Parse(raw string) ([]review.ChangedFile, error) {
	fileDiffs, err := diff.ParseMultiFileDiff([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	var files []review.ChangedFile
	for _, fd := range fileDiffs {
		oldName := cleanPath(fd.OrigName)
		newName := cleanPath(fd.NewName)

		cf := review.ChangedFile{
			Path:   newName,
			Status: review.FileModified,
		}
		switch {
		case fd.OrigName == "/dev/null":
			cf.Status = review.FileAdded
		case fd.NewName == "/dev/null":
			cf.Status = review.FileDeleted
			cf.Path = oldName
		case oldName != newName:
			cf.Status = review.FileRenamed
		}

		if isBinary(fd, cf.Path) {
			continue
		}

		var patch strings.Builder
		for _, h := range fd.Hunks {
			adds, dels := countHunk(h)
			cf.Additions += adds
			cf.Deletions += dels
			fmt.Fprintf(&patch, "@@ -%d,%d +%d,%d @@\n",
				h.OrigStartLine, h.OrigLines, h.NewStartLine, h.NewLines)
			patch.Write(h.Body)
			if len(h.Body) > 0 && h.Body[len(h.Body)-1] != '\n' {
				patch.WriteByte('\n')
			}
		}
		cf.Patch = patch.String()

		files = append(files, cf)
	}

	return files, nil
}

func countHunk(h *diff.Hunk) (adds, dels int) {
	for _, line := range strings.Split(string(h.Body), "\n") {
		if len(line) == 0 {
			continue
		}
		switch line[0] {
		case '+':
			adds++
		case '-':
			dels++
		}
	}
	return adds, dels
}

func isBinary(fd *diff.FileDiff, path string) bool {
	for _, ext := range fd.Extended {
		if strings.Contains(ext, "Binary files") || strings.Contains(ext, "GIT binary patch") {
			return true
		}
	}
	return binaryExt(path)
}

func binaryExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(path)))
	switch ext {
	case ".pdf", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".ico",
		".zip", ".tar", ".gz", ".bz2", ".xz", ".7z",
		".jar", ".so", ".dll", ".dylib", ".a", ".o", ".exe", ".bin",
		".woff", ".woff2", ".ttf", ".otf",
		".mp3", ".mp4", ".mov", ".wav":
		return true
	default:
		return false
	}
}

func cleanPath(p string) string {
	p = strings.TrimPrefix(p, "a/")
	p = strings.TrimPrefix(p, "b/")
	return p
}

var languageMap = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".jsx":   "javascript",
	".rb":    "ruby",
	".rs":    "rust",
	".java":  "java",
	".c":     "c",
	".cpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".sh":    "bash",
	".sql":   "sql",
}

// DominantLanguage guesses the project language from the changed files by
// extension frequency. Empty when nothing matches.
func DominantLanguage(files []review.ChangedFile) string {
	counts := make(map[string]int)
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Path))
		if lang, ok := languageMap[ext]; ok {
			counts[lang]++
		}
	}
	best, bestCount := "", 0
	for lang, n := range counts {
		if n > bestCount || (n == bestCount && lang < best) {
			best, bestCount = lang, n
		}
	}
	return best
}
