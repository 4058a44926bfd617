// Package confirm implements the yes/no gate that decides whether a step runs.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Gate asks the operator to approve an action.
type Gate interface {
	Confirm(prompt string) bool
}

// IsAffirmative reports whether answer is affirmative. The accepted pattern
// is ^(y|yes)$ matched case-insensitively after trimming surrounding
// whitespace, so "Y", "yes" and "YES\r\n" all count. Any other answer,
// including an empty line or a prefix such as "ye", is no.
func IsAffirmative(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "y" || a == "yes"
}

// LineGate reads one line of operator input per prompt.
type LineGate struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewLineGate creates a gate that prompts on out and reads answers from in.
func NewLineGate(in io.Reader, out io.Writer) *LineGate {
	return &LineGate{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Confirm prints prompt and waits for a single line.
// A read error without any input counts as no.
func (g *LineGate) Confirm(prompt string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, _ = fmt.Fprintf(g.out, "%s [y/N]: ", prompt)
	line, err := g.in.ReadString('\n')
	if err != nil && line == "" {
		_, _ = fmt.Fprintln(g.out)
		return false
	}
	return IsAffirmative(line)
}

// AlwaysYes approves every prompt. It backs unattended runs.
type AlwaysYes struct{}

// Confirm returns true without reading input.
func (AlwaysYes) Confirm(string) bool {
	return true
}

// ForMode returns AlwaysYes when unattended is set, otherwise a LineGate.
func ForMode(unattended bool, in io.Reader, out io.Writer) Gate {
	if unattended {
		return AlwaysYes{}
	}
	return NewLineGate(in, out)
}

var (
	_ Gate = (*LineGate)(nil)
	_ Gate = AlwaysYes{}
)
