package ui

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/execution"
	"github.com/felixgeelhaar/archstrap/internal/domain/provision"
)

// summaryOrder is the order statuses are listed in the summary.
var summaryOrder = []provision.StepStatus{
	provision.StatusApplied,
	provision.StatusSatisfied,
	provision.StatusSkipped,
	provision.StatusDeclined,
	provision.StatusFailed,
}

// SummaryInfo is run metadata shown below the step counts.
type SummaryInfo struct {
	RunID          string
	TranscriptPath string
	DryRun         bool
	Commands       []string
	FileOperations []string
}

// Summary prints the end-of-run summary: counts per status, failures with
// their retry hint, notices, and for a dry run everything that would have
// been executed.
func (p *Printer) Summary(report execution.Report, info SummaryInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	heading := "Summary"
	if info.DryRun {
		heading = "Dry run summary"
	}
	fmt.Fprintf(p.out, "\n%s\n", p.render(p.styles.Title, heading))

	counts := report.Counts()
	for _, status := range summaryOrder {
		n := counts[status]
		if n == 0 {
			continue
		}
		label := p.title.String(status.String())
		fmt.Fprintf(p.out, "  %-10s %s\n", label+":", p.render(p.styles.ForStatus(status), fmt.Sprint(n)))
	}

	if failures := report.Failures(); len(failures) > 0 {
		fmt.Fprintf(p.out, "\n%s\n", p.render(p.styles.Failed, "Failed steps"))
		for _, f := range failures {
			fmt.Fprintf(p.out, "  %s: %v\n", f.StepID(), f.Error())
			var stepErr *execution.StepError
			if errors.As(f.Error(), &stepErr) {
				fmt.Fprintf(p.out, "    %s\n", p.render(p.styles.Muted, stepErr.Suggestion()))
			}
		}
	}

	if report.Interrupted {
		last := report.LastCompleted.String()
		if last == "" {
			last = "none"
		}
		fmt.Fprintf(p.out, "\n%s (last completed step: %s)\n", p.render(p.styles.Failed, "Interrupted"), last)
	}

	if notices := report.Notices(); len(notices) > 0 {
		fmt.Fprintf(p.out, "\n%s\n", p.render(p.styles.Notice, "Notices"))
		for _, n := range notices {
			fmt.Fprintf(p.out, "  ! %s\n", n)
		}
	}

	if info.DryRun {
		p.list("Commands that would run", info.Commands)
		p.list("File changes that would be made", info.FileOperations)
	}

	if info.TranscriptPath != "" {
		fmt.Fprintf(p.out, "\n%s %s\n", p.render(p.styles.Muted, "Transcript:"), info.TranscriptPath)
	}
	if info.RunID != "" {
		fmt.Fprintf(p.out, "%s %s\n", p.render(p.styles.Muted, "Run ID:"), info.RunID)
	}
}

func (p *Printer) list(heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(p.out, "\n%s\n", p.render(p.styles.Title, heading))
	for _, item := range items {
		fmt.Fprintln(p.out, indent(item))
	}
}
