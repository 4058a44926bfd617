// Package ui renders pipeline progress and the end-of-run summary on the
// operator's terminal.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"github.com/mattn/go-isatty"
)

// Theme colors (Catppuccin Mocha inspired).
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"} // Blue
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"} // Green
	ColorWarning = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"} // Yellow
	ColorError   = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"} // Red
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"} // Overlay0
)

// Styles are the lipgloss styles used for terminal output.
type Styles struct {
	Counter  lipgloss.Style
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Applied  lipgloss.Style
	Current  lipgloss.Style
	Skipped  lipgloss.Style
	Declined lipgloss.Style
	Failed   lipgloss.Style
	Notice   lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Counter:  lipgloss.NewStyle().Foreground(ColorMuted),
		Title:    lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
		Muted:    lipgloss.NewStyle().Foreground(ColorMuted),
		Applied:  lipgloss.NewStyle().Foreground(ColorSuccess),
		Current:  lipgloss.NewStyle().Foreground(ColorSuccess).Faint(true),
		Skipped:  lipgloss.NewStyle().Foreground(ColorMuted),
		Declined: lipgloss.NewStyle().Foreground(ColorWarning),
		Failed:   lipgloss.NewStyle().Bold(true).Foreground(ColorError),
		Notice:   lipgloss.NewStyle().Foreground(ColorWarning),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Counter:  plain,
		Title:    plain,
		Muted:    plain,
		Applied:  plain,
		Current:  plain,
		Skipped:  plain,
		Declined: plain,
		Failed:   plain,
		Notice:   plain,
	}
}

// ForStatus returns the style for a step status.
func (s Styles) ForStatus(status provision.StepStatus) lipgloss.Style {
	switch status {
	case provision.StatusApplied:
		return s.Applied
	case provision.StatusSatisfied:
		return s.Current
	case provision.StatusDeclined:
		return s.Declined
	case provision.StatusFailed:
		return s.Failed
	default:
		return s.Skipped
	}
}

// IsTerminal reports whether w is a terminal. Only *os.File can be one.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// StylesFor returns DefaultStyles for a terminal and PlainStyles otherwise.
func StylesFor(w io.Writer) Styles {
	if IsTerminal(w) {
		return DefaultStyles()
	}
	return PlainStyles()
}
