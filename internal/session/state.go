// Package session owns the terminal session: the controller state machine,
// the per-exchange request cycle (compose, call, parse, reconcile), and the
// reconciler that applies validated action batches to the mirror.
//
// SessionState is process-local and single-owner. Nothing outside this
// package mutates the mirror or the transcript; the UI sees only display
// entries and the controller's public surface.
package session

import (
	"errors"
	"fmt"
	"time"

	"mirage/internal/transcript"
	"mirage/internal/vfs"
)

// State is the controller lifecycle state.
type State string

const (
	StateUninitialized      State = "uninitialized"
	StateAwaitingCredential State = "awaiting_credential"
	StateReady              State = "ready"
	StateProcessing         State = "processing"
	StateClosed             State = "closed"
)

// Display-surface constants. The credential itself is never echoed: the
// command cell is masked and acceptance is a fixed confirmation string.
const (
	CredentialMask        = "••••••••"
	CredentialAcceptedMsg = "credential accepted"

	// invalidReplyMsg is the generic message shown when the oracle reply
	// lacks the required delimiter structure.
	invalidReplyMsg = "mirage: invalid reply from oracle"
)

// ErrBusy rejects a submission while an exchange is in flight. The UI is
// expected to block input during Processing; this is the guard behind it,
// not a queue.
var ErrBusy = errors.New("a command is already in flight")

// ErrClosed rejects submissions after teardown.
var ErrClosed = errors.New("session is closed")

// CredentialFormatError is the local pre-network check failure: the
// candidate was empty or shorter than the configured minimum.
type CredentialFormatError struct {
	MinLength int
}

func (e *CredentialFormatError) Error() string {
	return fmt.Sprintf("credential must be at least %d characters", e.MinLength)
}

// CredentialRejectedError means the oracle refused the candidate during the
// validation probe.
type CredentialRejectedError struct {
	Err error
}

func (e *CredentialRejectedError) Error() string {
	return fmt.Sprintf("credential rejected: %v", e.Err)
}

func (e *CredentialRejectedError) Unwrap() error { return e.Err }

// DisplayEntry is the record emitted to the UI for each completed exchange.
type DisplayEntry struct {
	Command              string `json:"command"`
	Output               string `json:"output"`
	DirectoryAtExecution string `json:"directory"`
	Timestamp            string `json:"timestamp"` // ISO 8601
	IsError              bool   `json:"isError,omitempty"`
}

func newDisplayEntry(command, output string, dir vfs.Path, isErr bool) DisplayEntry {
	return DisplayEntry{
		Command:              command,
		Output:               output,
		DirectoryAtExecution: dir.String(),
		Timestamp:            time.Now().UTC().Format(time.RFC3339),
		IsError:              isErr,
	}
}

// sessionState bundles the mutable per-session data from the data model:
// current and previous path, the mirror, and the transcript. It exists so
// the reconciler can mutate one coherent value under the controller's lock.
type sessionState struct {
	currentPath  vfs.Path
	previousPath vfs.Path // nil until the first directory change
	mirror       *vfs.Tree
	log          *transcript.Log
}

func newSessionState(window int) *sessionState {
	return &sessionState{
		currentPath: vfs.HomePath.Clone(),
		mirror:      vfs.NewSeededTree(),
		log:         transcript.NewLog(window),
	}
}
