// Package keepalive keeps the target user's sudo credentials fresh while
// long package builds run, so helper tools that call sudo do not stall.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/statekit"
)

// DefaultInterval is how often the grant is refreshed.
// sudo's default timestamp timeout is five minutes.
const DefaultInterval = 50 * time.Second

// State represents the keepalive lifecycle state.
type State string

const (
	// StateIdle indicates Start has not been called.
	StateIdle State = "idle"
	// StateAuthenticating indicates the initial explicit authentication is running.
	StateAuthenticating State = "authenticating"
	// StateRunning indicates the refresh loop is active.
	StateRunning State = "running"
	// StateStopping indicates the loop has been asked to stop.
	StateStopping State = "stopping"
	// StateStopped indicates the loop has exited.
	StateStopped State = "stopped"
	// StateError indicates the initial authentication failed.
	StateError State = "error"
)

// Event types for the keepalive state machine.
const (
	EventAuthenticate  = "AUTHENTICATE"
	EventAuthenticated = "AUTHENTICATED"
	EventFailed        = "FAILED"
	EventStop          = "STOP"
	EventStopped       = "STOPPED"
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("keepalive already started")

// Context is the statekit context for the keepalive machine.
type Context struct {
	User      string
	StartedAt time.Time
}

// Option configures a Keepalive.
type Option func(*Keepalive)

// WithInterval sets the refresh interval.
func WithInterval(d time.Duration) Option {
	return func(k *Keepalive) {
		if d > 0 {
			k.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l ports.Logger) Option {
	return func(k *Keepalive) {
		k.logger = l
	}
}

// WithNonInteractive makes the initial authentication fail instead of
// prompting for a password.
func WithNonInteractive(enabled bool) Option {
	return func(k *Keepalive) {
		k.nonInteractive = enabled
	}
}

// Keepalive periodically re-validates a user's sudo grant.
type Keepalive struct {
	runner         ports.CommandRunner
	user           string
	interval       time.Duration
	logger         ports.Logger
	nonInteractive bool

	interp    *statekit.Interpreter[Context]
	refreshes atomic.Int64
	failures  atomic.Int64

	stopCh    chan struct{}
	stoppedCh chan struct{}
	started   bool
	mu        sync.RWMutex
}

// New creates a Keepalive for user.
func New(runner ports.CommandRunner, user string, opts ...Option) (*Keepalive, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if user == "" {
		return nil, fmt.Errorf("user is required")
	}

	k := &Keepalive{
		runner:    runner,
		user:      user,
		interval:  DefaultInterval,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(k)
	}

	interp, err := buildMachine(Context{User: user})
	if err != nil {
		return nil, fmt.Errorf("failed to build state machine: %w", err)
	}
	k.interp = interp
	k.interp.Start()
	return k, nil
}

func buildMachine(initial Context) (*statekit.Interpreter[Context], error) {
	machine, err := statekit.NewMachine[Context]("archstrap-keepalive").
		WithInitial("idle").
		WithContext(initial).
		WithAction("recordStart", func(c *Context, _ statekit.Event) {
			c.StartedAt = time.Now()
		}).
		State("idle").
		On(EventAuthenticate).Target("authenticating").
		On(EventStop).Target("stopped").Done().
		State("authenticating").
		On(EventAuthenticated).Target("running").
		On(EventFailed).Target("error").Done().
		State("running").
		OnEntry("recordStart").
		On(EventStop).Target("stopping").Done().
		State("stopping").
		On(EventStopped).Target("stopped").Done().
		State("error").
		On(EventStop).Target("stopped").Done().
		State("stopped").Done().
		Build()
	if err != nil {
		return nil, err
	}
	return statekit.NewInterpreter(machine), nil
}

// Start performs the explicit authentication and, only if it succeeds,
// starts the refresh loop. The loop ends when ctx is cancelled or Stop is called.
func (k *Keepalive) Start(ctx context.Context) error {
	k.mu.Lock()
	if k.started {
		k.mu.Unlock()
		return ErrAlreadyStarted
	}
	k.started = true
	k.mu.Unlock()

	k.send(EventAuthenticate)

	args := []string{"-v"}
	if k.nonInteractive {
		args = []string{"-n", "-v"}
	}
	result, err := k.runner.Exec(ctx, ports.NewInvocation("sudo", args...).AsUser(k.user))
	if err == nil && !result.Success() {
		err = fmt.Errorf("sudo -v exited %d: %s", result.ExitCode, result.Stderr)
	}
	if err != nil {
		k.send(EventFailed)
		close(k.stoppedCh)
		return fmt.Errorf("authenticate %s: %w", k.user, err)
	}

	k.send(EventAuthenticated)
	go k.loop(ctx)
	return nil
}

// Stop signals the loop to exit, waits for it and shuts the state machine
// down. Calling Stop again is a no-op.
func (k *Keepalive) Stop(ctx context.Context) error {
	k.mu.Lock()
	select {
	case <-k.stopCh:
	default:
		close(k.stopCh)
	}
	if !k.started {
		k.started = true
		close(k.stoppedCh)
		k.mu.Unlock()
		k.send(EventStop)
		k.shutdown()
		return nil
	}
	k.mu.Unlock()

	if k.State() == StateRunning {
		k.send(EventStop)
	}

	select {
	case <-k.stoppedCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	switch k.State() {
	case StateStopping:
		k.send(EventStopped)
	case StateError:
		k.send(EventStop)
	}
	k.shutdown()
	return nil
}

// send delivers an event unless the machine has been shut down.
func (k *Keepalive) send(eventType string) {
	k.mu.RLock()
	interp := k.interp
	k.mu.RUnlock()
	if interp != nil {
		interp.Send(statekit.Event{Type: eventType})
	}
}

func (k *Keepalive) shutdown() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.interp != nil {
		k.interp.Stop()
		k.interp = nil
	}
}

// Done is closed once the refresh loop has exited (or never started).
func (k *Keepalive) Done() <-chan struct{} {
	return k.stoppedCh
}

// State returns the current lifecycle state.
func (k *Keepalive) State() State {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.interp == nil {
		return StateStopped
	}
	return State(k.interp.State().Value)
}

// Refreshes returns the number of successful refreshes.
func (k *Keepalive) Refreshes() int64 {
	return k.refreshes.Load()
}

// Failures returns the number of failed refreshes.
func (k *Keepalive) Failures() int64 {
	return k.failures.Load()
}

func (k *Keepalive) loop(ctx context.Context) {
	defer close(k.stoppedCh)

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			k.send(EventStop)
			return
		case <-k.stopCh:
			return
		case <-ticker.C:
			k.refresh(ctx)
		}
	}
}

// refresh never prompts; a lost grant only surfaces when a later
// privileged command fails.
func (k *Keepalive) refresh(ctx context.Context) {
	result, err := k.runner.Exec(ctx, ports.NewInvocation("sudo", "-n", "-v").AsUser(k.user))
	if err == nil && result.Success() {
		k.refreshes.Add(1)
		return
	}

	k.failures.Add(1)
	if k.logger == nil {
		return
	}
	fields := []ports.Field{ports.F("user", k.user)}
	if err != nil {
		fields = append(fields, ports.F("error", err))
	} else {
		fields = append(fields, ports.F("exit_code", result.ExitCode))
	}
	k.logger.Warn(ctx, "sudo keepalive refresh failed", fields...)
}
