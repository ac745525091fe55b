package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(72),
	)
	if err != nil {
		return func(s string) (string, error) { return s, nil }
	}
	return r.Render
}

// NewReplyRenderer renders an SMS reply as a quoted block so it stands apart
// from the sender's input in the chat simulator. Line breaks are preserved.
func NewReplyRenderer() func(string) (string, error) {
	render := NewRenderer()
	return func(reply string) (string, error) {
		lines := strings.Split(strings.TrimRight(reply, "\n"), "\n")
		for i, l := range lines {
			lines[i] = "> " + l + "  "
		}
		return render(strings.Join(lines, "\n"))
	}
}
