// Package oracle talks to the remote text-completion service that stands in
// for a real operating system. The oracle is opaque: one call per command
// exchange, no retries, no cancellation beyond the caller's context. The
// credential travels only as a bearer secret on the call itself; it is never
// embedded in prompt text, never logged, and never persisted.
package oracle

import (
	"context"
	"fmt"
	"time"
)

// Client is the interface all oracle providers implement.
type Client interface {
	// Complete sends a bare user prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteWithSystem sends a system instruction plus a user prompt and
	// returns the raw reply text.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Validate performs the minimal bootstrap exchange that confirms the
	// configured credential is usable. It returns a *TransportError when the
	// call did not complete and a plain error when the oracle rejected the
	// credential.
	Validate(ctx context.Context) error
}

// TransportError reports a call that did not complete: connection failures,
// timeouts, non-2xx statuses, unreadable bodies.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("oracle transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// validationProbe is the minimal probe message sent by Validate. It asks for
// a single token so a usable credential is confirmed as cheaply as possible.
const validationProbe = "Reply with the single word OK."

// defaults shared by the HTTP providers.
const (
	defaultTimeout     = 120 * time.Second
	defaultMaxTokens   = 4096
	defaultTemperature = 0.1
)
