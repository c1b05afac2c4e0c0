package output

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/marcus/optsync/internal/registry"
	"github.com/marcus/optsync/internal/settings"
	"golang.org/x/term"
)

const (
	defaultMarkdownWidth = 80
	minMarkdownWidth     = 20
)

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalWidth returns the current terminal width or a fallback when unavailable.
func TerminalWidth(fallback int) int {
	if fallback <= 0 {
		fallback = defaultMarkdownWidth
	}

	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if parsed, err := strconv.Atoi(cols); err == nil && parsed > 0 {
			return parsed
		}
	}

	return fallback
}

// OptionMarkdown describes an option and its current value as markdown.
func OptionMarkdown(def registry.Definition, current settings.Value, pending *settings.Value) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", def.Title())
	fmt.Fprintf(&sb, "- **Name:** `%s`\n", def.Name)
	fmt.Fprintf(&sb, "- **Kind:** %s (%s)\n", def.Kind, def.Control())
	fmt.Fprintf(&sb, "- **Default:** `%s`\n", def.Default.String())
	fmt.Fprintf(&sb, "- **Current:** `%s`\n", current.String())
	if pending != nil {
		fmt.Fprintf(&sb, "- **Pending:** `%s`\n", pending.String())
	}
	if len(def.Choices) > 0 {
		fmt.Fprintf(&sb, "- **Choices:** %s\n", strings.Join(def.Choices, ", "))
	}
	if d := strings.TrimSpace(def.Description); d != "" {
		sb.WriteString("\n")
		sb.WriteString(d)
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderMarkdown renders markdown using Glamour with terminal-aware wrapping.
func RenderMarkdown(text string) (string, error) {
	return RenderMarkdownWithWidth(text, TerminalWidth(defaultMarkdownWidth))
}

// RenderMarkdownWithWidth renders markdown using Glamour with explicit wrapping.
func RenderMarkdownWithWidth(text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	width = max(width, minMarkdownWidth)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(text)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(rendered, "\n"), nil
}
