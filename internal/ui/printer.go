package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/archstrap/internal/domain/execution"
	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Printer writes one line when a step starts and one when it finishes.
// It implements execution.Reporter.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
	plain  bool
	title  cases.Caser
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithPlain forces uncolored output.
func WithPlain(plain bool) PrinterOption {
	return func(p *Printer) {
		p.plain = plain
	}
}

// WithStyles overrides the styles.
func WithStyles(s Styles) PrinterOption {
	return func(p *Printer) {
		p.styles = s
	}
}

// NewPrinter creates a Printer on out. Color is used only when out is a
// terminal.
func NewPrinter(out io.Writer, opts ...PrinterOption) *Printer {
	p := &Printer{
		out:    out,
		styles: DefaultStyles(),
		plain:  !IsTerminal(out),
		title:  cases.Title(language.English),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if p.plain {
		return s
	}
	return style.Render(s)
}

// StepStarted prints "[i/N] description".
func (p *Printer) StepStarted(index, total int, entry execution.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	counter := p.render(p.styles.Counter, fmt.Sprintf("[%d/%d]", index, total))
	fmt.Fprintf(p.out, "%s %s\n", counter, entry.Description())
}

// StepFinished prints the outcome, its duration and any notes.
func (p *Printer) StepFinished(_, _ int, _ execution.Entry, result execution.StepResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := result.Status()
	line := "      " + p.render(p.styles.ForStatus(status), statusLabel(status))
	if status == provision.StatusApplied {
		line += p.render(p.styles.Muted, " ("+formatDuration(result.Duration())+")")
	}
	fmt.Fprintln(p.out, line)

	if err := result.Error(); err != nil {
		fmt.Fprintf(p.out, "      %s\n", p.render(p.styles.Failed, err.Error()))
	}
	for _, note := range result.Notes() {
		fmt.Fprintf(p.out, "      %s %s\n", p.render(p.styles.Notice, "!"), note)
	}
}

func statusLabel(status provision.StepStatus) string {
	switch status {
	case provision.StatusApplied:
		return "✓ applied"
	case provision.StatusSatisfied:
		return "✓ already done"
	case provision.StatusDeclined:
		return "- declined"
	case provision.StatusFailed:
		return "✗ failed"
	default:
		return "- " + status.String()
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Truncate(time.Second).String()
	}
}

// Ensure Printer implements execution.Reporter.
var _ execution.Reporter = (*Printer)(nil)

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
