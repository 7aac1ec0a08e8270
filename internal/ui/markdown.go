package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders a Markdown document for the terminal. Outside a TTY
// the notty style keeps the output free of escape sequences.
func RenderMarkdown(md string) (string, error) {
	style := glamour.WithAutoStyle()
	if !IsTTY {
		style = glamour.WithStandardStyle("notty")
	}

	r, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(min(TerminalWidth(), 100)-4),
	)
	if err != nil {
		return "", err
	}

	out, err := r.Render(md)
	if err != nil {
		return "", err
	}
	// glamour pads with blank lines; callers handle spacing
	return strings.Trim(out, "\n") + "\n", nil
}
