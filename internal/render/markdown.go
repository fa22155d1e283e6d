package render

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders raw with glamour. style is one of the built-in
// glamour styles, "auto", or a path to a JSON style file.
func RenderMarkdown(raw string, width int, style string) (string, error) {
	opts := []glamour.TermRendererOption{
		glamour.WithWordWrap(width),
	}

	switch strings.ToLower(strings.TrimSpace(style)) {
	case "", "auto":
		opts = append(opts, glamour.WithAutoStyle())
	case "dark", "light", "notty", "dracula", "pink", "ascii":
		opts = append(opts, glamour.WithStylePath(style))
	default:
		// A JSON style file if it exists, else fall back to auto.
		if _, err := os.Stat(style); err == nil {
			opts = append(opts, glamour.WithStylesFromJSONFile(style))
		} else {
			opts = append(opts, glamour.WithAutoStyle())
		}
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return r.Render(raw)
}
