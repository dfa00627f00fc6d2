package console

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

type theme struct {
	title     lipgloss.Style
	bot       lipgloss.Style
	user      lipgloss.Style
	subject   lipgloss.Style
	errorText lipgloss.Style
	helpText  lipgloss.Style
}

// newTheme builds styles against the output writer so that plain writers
// (files, pipes, test buffers) get unstyled text.
func newTheme(out io.Writer) theme {
	r := lipgloss.NewRenderer(out)

	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	pink := lipgloss.Color("#ff71ce")
	muted := lipgloss.Color("#9ca3d8")

	return theme{
		title:     r.NewStyle().Foreground(mint).Bold(true),
		bot:       r.NewStyle().Foreground(blue).Bold(true),
		user:      r.NewStyle().Foreground(mint).Bold(true),
		subject:   r.NewStyle().Foreground(pink),
		errorText: r.NewStyle().Foreground(pink).Bold(true),
		helpText:  r.NewStyle().Foreground(muted),
	}
}
