// Package output provides styled terminal output helpers (success, error,
// warning, option formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/optsync/internal/notice"
	"github.com/marcus/optsync/internal/registry"
	"github.com/marcus/optsync/internal/settings"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	stringStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	noticeStyles = map[notice.Status]lipgloss.Style{
		notice.StatusInfo:    subtleStyle,
		notice.StatusSuccess: successStyle,
		notice.StatusError:   errorStyle,
	}
)

// Success prints a success message
func Success(format string, args ...any) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...any) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...any) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// JSON outputs data as JSON
func JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeUnknownOption = "unknown_option"
	ErrCodeServerError   = "server_error"
	ErrCodeNotLoggedIn   = "not_logged_in"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	data, _ := json.Marshal(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
	fmt.Println(string(data))
}

// FormatValue renders a value with kind-specific styling. Strings are quoted
// so empty values stay visible.
func FormatValue(v settings.Value) string {
	if b, ok := v.Bool(); ok {
		if b {
			return successStyle.Render("true")
		}
		return subtleStyle.Render("false")
	}
	return stringStyle.Render(fmt.Sprintf("%q", v.String()))
}

// OptionRow is one line of an option listing.
type OptionRow struct {
	Definition registry.Definition
	Value      settings.Value
	Pending    bool
}

// FormatOptionRows lays rows out as aligned columns truncated to width.
// Pending rows are marked with "*".
func FormatOptionRows(rows []OptionRow, width int) string {
	nameWidth := 0
	for _, r := range rows {
		nameWidth = max(nameWidth, len(r.Definition.Name))
	}

	var sb strings.Builder
	for _, r := range rows {
		mark := " "
		if r.Pending {
			mark = pendingStyle.Render("*")
		}
		line := fmt.Sprintf("%s %-*s  %s", mark, nameWidth, r.Definition.Name, FormatValue(r.Value))
		if r.Definition.Label != "" {
			line += "  " + subtleStyle.Render(r.Definition.Label)
		}
		if width > 0 {
			line = ansi.Truncate(line, width, "…")
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// DiffLine formats a pending change: "name: old → new".
func DiffLine(name string, old settings.Value, hasOld bool, updated settings.Value) string {
	from := subtleStyle.Render("(unset)")
	if hasOld {
		from = FormatValue(old)
	}
	return fmt.Sprintf("%s: %s → %s", titleStyle.Render(name), from, FormatValue(updated))
}

// NoticePrinter is a notice.Sink that prints each notice as a styled line.
type NoticePrinter struct {
	W io.Writer
}

// Create prints n.
func (p NoticePrinter) Create(n notice.Notice) {
	style, ok := noticeStyles[n.Status]
	if !ok {
		style = lipgloss.NewStyle()
	}
	fmt.Fprintln(p.W, style.Render(n.Text))
}

// Remove does nothing; printed lines stay printed.
func (p NoticePrinter) Remove(string) {}

// NoticeLine renders a notice without a trailing newline.
func NoticeLine(n notice.Notice) string {
	style, ok := noticeStyles[n.Status]
	if !ok {
		return n.Text
	}
	return style.Render(n.Text)
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nPENDING:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// IndentString indents each line in a string by the specified number of spaces
func IndentString(s string, spaces int) string {
	if s == "" {
		return ""
	}
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
