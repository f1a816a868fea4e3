package renders

import (
	"os"

	markdown "github.com/MichaelMure/go-term-markdown"
	"golang.org/x/term"
)

const (
	defaultWidth = 100
	leftPad      = 2
)

// RenderMarkdown converts markdown to an ANSI rendition sized to the
// terminal. Falls back to a fixed width when stdout is not a terminal.
func RenderMarkdown(content string) string {
	if content == "" {
		return ""
	}

	width := defaultWidth
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
			width = w
		}
	}

	return string(markdown.Render(content, width, leftPad))
}
