package provision

import (
	"context"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// TargetUser is the unprivileged account user-scoped configuration is done for.
type TargetUser struct {
	Name string
	Home string
	UID  int
	GID  int
}

// IsZero returns true if no user has been resolved.
func (u TargetUser) IsZero() bool {
	return u.Name == ""
}

// ExecutionContext is resolved once at startup and never mutated afterwards.
type ExecutionContext struct {
	Elevated   bool
	Target     TargetUser
	DryRun     bool
	Unattended bool
}

// Notes collects operator-facing notices raised while a step runs.
type Notes struct {
	mu    sync.Mutex
	items []string
}

// Add appends a notice.
func (n *Notes) Add(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, msg)
}

// Items returns a copy of the collected notices.
func (n *Notes) Items() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.items))
	copy(out, n.items)
	return out
}

// RunContext provides context for step execution (Check, Apply).
type RunContext struct {
	ctx    context.Context
	exec   ExecutionContext
	logger ports.Logger
	notes  *Notes
}

// NewRunContext creates a new RunContext for the given execution context.
func NewRunContext(ctx context.Context, exec ExecutionContext) RunContext {
	return RunContext{
		ctx:  ctx,
		exec: exec,
	}
}

// Context returns the underlying context.Context.
func (r RunContext) Context() context.Context {
	return r.ctx
}

// Execution returns the execution context.
func (r RunContext) Execution() ExecutionContext {
	return r.exec
}

// Target returns the target user.
func (r RunContext) Target() TargetUser {
	return r.exec.Target
}

// DryRun returns whether this is a simulate-only execution.
func (r RunContext) DryRun() bool {
	return r.exec.DryRun
}

// Logger returns the step logger, falling back to the context logger.
// It never returns nil.
func (r RunContext) Logger() ports.Logger {
	if r.logger != nil {
		return r.logger
	}
	if l := ports.LoggerFromContext(r.ctx); l != nil {
		return l
	}
	return discard{}
}

// WithLogger returns a new RunContext that logs to logger.
func (r RunContext) WithLogger(logger ports.Logger) RunContext {
	r.logger = logger
	return r
}

// WithNotes returns a new RunContext that records notices into notes.
func (r RunContext) WithNotes(notes *Notes) RunContext {
	r.notes = notes
	return r
}

// Notify records an operator-facing notice for the current step.
func (r RunContext) Notify(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if r.notes != nil {
		r.notes.Add(msg)
	}
	r.Logger().Info(r.ctx, msg)
}

type discard struct{}

func (discard) Debug(context.Context, string, ...ports.Field) {}
func (discard) Info(context.Context, string, ...ports.Field)  {}
func (discard) Warn(context.Context, string, ...ports.Field)  {}
func (discard) Error(context.Context, string, ...ports.Field) {}
func (d discard) With(...ports.Field) ports.Logger            { return d }
func (discard) Level() ports.Level                            { return ports.LevelError }
func (discard) SetLevel(ports.Level)                          {}
