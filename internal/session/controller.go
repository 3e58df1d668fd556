package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"mirage/internal/logging"
	"mirage/internal/oracle"
	"mirage/internal/prompt"
	"mirage/internal/protocol"
	"mirage/internal/transcript"
)

// ClientFactory builds an oracle client for a credential candidate. Injected
// so tests can substitute a fake oracle.
type ClientFactory func(ctx context.Context, opts oracle.Options) (oracle.Client, error)

// Options configures a controller.
type Options struct {
	Provider            string
	Model               string
	BaseURL             string
	Timeout             time.Duration
	TranscriptWindow    int
	CredentialMinLength int

	// NewClient defaults to oracle.NewClient.
	NewClient ClientFactory
}

// Controller orchestrates the command/response cycle of one terminal
// session: compose, call the oracle, parse, reconcile, emit a display entry.
// It owns the credential lifecycle and the single in-flight gate.
type Controller struct {
	mu   sync.Mutex
	gate *semaphore.Weighted

	opts  Options
	state State

	newClient  ClientFactory
	client     oracle.Client
	credential string

	composer *prompt.Composer
	session  *sessionState
}

// NewController creates a controller in the Uninitialized state.
func NewController(opts Options) *Controller {
	if opts.CredentialMinLength <= 0 {
		opts.CredentialMinLength = 16
	}
	factory := opts.NewClient
	if factory == nil {
		factory = oracle.NewClient
	}
	return &Controller{
		gate:      semaphore.NewWeighted(1),
		opts:      opts,
		state:     StateUninitialized,
		newClient: factory,
		composer:  prompt.NewComposer(opts.TranscriptWindow),
		session:   newSessionState(opts.TranscriptWindow),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentPath returns the current working directory as a display string.
func (c *Controller) CurrentPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.currentPath.String()
}

// Transcript returns a copy of the retained transcript entries.
func (c *Controller) Transcript() []transcript.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.log.Entries()
}

// Submit routes one line of user input through the state machine. Before a
// credential is accepted, input is treated as a credential candidate; after
// that it is a command for the oracle. Every completed submission yields a
// display entry, error paths included. Only gate rejections (ErrBusy,
// ErrClosed) return without one.
func (c *Controller) Submit(ctx context.Context, input string) (DisplayEntry, error) {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	switch state {
	case StateClosed:
		return DisplayEntry{}, ErrClosed
	case StateUninitialized, StateAwaitingCredential:
		return c.submitCredential(ctx, input)
	default:
		return c.submitCommand(ctx, input)
	}
}

// submitCredential handles a credential candidate. The secret is never
// logged and never echoed; the display entry masks it unconditionally.
func (c *Controller) submitCredential(ctx context.Context, candidate string) (DisplayEntry, error) {
	if !c.gate.TryAcquire(1) {
		return DisplayEntry{}, ErrBusy
	}
	defer c.gate.Release(1)

	c.setState(StateAwaitingCredential)

	if len(candidate) < c.opts.CredentialMinLength {
		err := &CredentialFormatError{MinLength: c.opts.CredentialMinLength}
		logging.Session("credential candidate failed local format check")
		return c.errorEntry(CredentialMask, err.Error()), err
	}

	client, err := c.newClient(ctx, oracle.Options{
		Provider: c.opts.Provider,
		APIKey:   candidate,
		Model:    c.opts.Model,
		BaseURL:  c.opts.BaseURL,
		Timeout:  c.opts.Timeout,
	})
	if err != nil {
		rejected := &CredentialRejectedError{Err: err}
		return c.errorEntry(CredentialMask, rejected.Error()), rejected
	}

	if err := client.Validate(ctx); err != nil {
		rejected := &CredentialRejectedError{Err: err}
		logging.Session("credential validation failed")
		return c.errorEntry(CredentialMask, rejected.Error()), rejected
	}

	c.mu.Lock()
	c.client = client
	c.credential = candidate
	c.state = StateReady
	dir := c.session.currentPath.Clone()
	c.mu.Unlock()

	logging.Session("credential accepted, session ready")
	return newDisplayEntry(CredentialMask, CredentialAcceptedMsg, dir, false), nil
}

// submitCommand runs one command exchange. The gate is the mutual-exclusion
// lock over the whole SessionState: local state is only touched after the
// oracle call resolves, and the gate is released on every exit path.
func (c *Controller) submitCommand(ctx context.Context, command string) (DisplayEntry, error) {
	if !c.gate.TryAcquire(1) {
		return DisplayEntry{}, ErrBusy
	}
	defer c.gate.Release(1)
	defer c.setState(StateReady)

	c.setState(StateProcessing)

	reqID := uuid.NewString()
	timer := logging.StartTimer(logging.CategoryOracle, fmt.Sprintf("exchange %s", reqID))
	defer timer.Stop()

	c.mu.Lock()
	// Close may have landed between Submit's state routing and here; the
	// client is gone in that case and the session must refuse, not panic.
	if c.state == StateClosed || c.client == nil {
		c.mu.Unlock()
		return DisplayEntry{}, ErrClosed
	}
	client := c.client
	st := c.session
	current := st.currentPath.Clone()
	entries := st.log.Entries()
	c.mu.Unlock()

	req, err := c.composer.Compose(st.mirror, current, entries, command)
	if err != nil {
		return c.errorEntry(command, fmt.Sprintf("mirage: %v", err)), err
	}
	logging.Oracle("[req:%s] composed request: %d transcript entries, %d system bytes", reqID, len(entries), len(req.System))

	raw, err := client.CompleteWithSystem(ctx, req.System, req.User)
	if err != nil {
		logging.Get(logging.CategoryOracle).Error("[req:%s] call failed: %v", reqID, err)
		c.recordFailure(command, err)
		return c.errorEntry(command, fmt.Sprintf("mirage: oracle unavailable: %v", err)), err
	}

	reply, err := protocol.Parse(raw)
	if err != nil {
		logging.Protocol("[req:%s] format error: %v", reqID, err)
		c.recordFailure(command, err)
		return c.errorEntry(command, invalidReplyMsg), err
	}
	if reply.ActionErr != nil {
		// Non-fatal per the batch rules: output is honored, actions skipped.
		logging.Protocol("[req:%s] action batch dropped: %v", reqID, reply.ActionErr)
	}

	c.mu.Lock()
	reconcile(st, command, reply.Output, reply.Actions)
	dir := st.currentPath.Clone()
	c.mu.Unlock()

	logging.Session("[req:%s] exchange complete in %s", reqID, dir)
	return newDisplayEntry(command, reply.Output, dir, false), nil
}

// Close tears the session down: the credential is discarded and further
// submissions are rejected.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = ""
	c.client = nil
	c.state = StateClosed
	logging.Session("session closed")
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	// Closed is terminal; a deferred transition back to Ready must not
	// resurrect a session closed mid-flight.
	if c.state != StateClosed {
		c.state = s
	}
	c.mu.Unlock()
}

func (c *Controller) errorEntry(command, message string) DisplayEntry {
	c.mu.Lock()
	dir := c.session.currentPath.Clone()
	c.mu.Unlock()
	return newDisplayEntry(command, message, dir, true)
}

// recordFailure appends the error-output transcript entry for a failed
// exchange. The mirror is left untouched.
func (c *Controller) recordFailure(command string, exchangeErr error) {
	c.mu.Lock()
	appendErrorEntry(c.session, command, exchangeErr)
	c.mu.Unlock()
}

// IsTransportError reports whether err came from a call that did not
// complete, as opposed to an oracle-level rejection.
func IsTransportError(err error) bool {
	var te *oracle.TransportError
	return errors.As(err, &te)
}
