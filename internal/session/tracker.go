// Package session implements the init-gated session state machine.
//
// A session starts uninitialized. Calling a configured init tool moves
// it to initialized; the first non-init tool call after that moves it to
// working. Tools listed in RequiresInit are refused while the session is
// uninitialized; init tools always pass.
package session

import (
	"fmt"
	"strings"
	"time"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// State is the coarse session lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitialized   State = "initialized"
	StateReady         State = "ready"
	StateWorking       State = "working"
)

// Config describes the tracker's gating and transition rules.
type Config struct {
	// InitTools are always allowed, regardless of state.
	InitTools []string

	// RequiresInit lists tools refused while uninitialized.
	RequiresInit []string

	// Transitions maps a triggering tool name to the state it enters.
	Transitions map[string]State
}

// Transition is the outcome of recording a tool call.
type Transition struct {
	Previous     State  `json:"previous_state"`
	New          State  `json:"new_state"`
	Transitioned bool   `json:"transitioned"`
	// Guidance is set only on the very first transition into
	// initialized.
	Guidance string `json:"guidance,omitempty"`
}

// Tracker owns the state machine for one session. Construct one per
// session; there is no process-wide default instance.
type Tracker struct {
	cfg Config

	state         State
	sessionID     string
	requestID     string
	initializedAt time.Time
	guidanceGiven bool
}

// NewTracker creates a tracker in the uninitialized state.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg, state: StateUninitialized}
}

// State returns the current state.
func (t *Tracker) State() State {
	return t.state
}

// SessionID returns the identifier bound by BindSession, if any.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// BindSession associates the tracker with a session identifier.
func (t *Tracker) BindSession(sessionID string) {
	t.sessionID = sessionID
}

// CheckToolAllowed reports whether the named tool may run now. An empty
// return means allowed; a non-empty return is the refusal message. This
// is an expected condition, not an error.
func (t *Tracker) CheckToolAllowed(toolName, requestID string) string {
	if t.isInitTool(toolName) {
		return ""
	}
	if t.state == StateUninitialized && contains(t.cfg.RequiresInit, toolName) {
		return fmt.Sprintf(
			"tool %q requires an initialized session: call %s first",
			toolName, strings.Join(t.cfg.InitTools, " or "),
		)
	}
	return ""
}

// RecordToolCall applies state transitions for a tool call. A tool with
// a configured transition moves the session to that state; otherwise the
// first non-init tool seen while initialized (or ready) advances to
// working.
func (t *Tracker) RecordToolCall(toolName, requestID string) Transition {
	t.requestID = requestID
	previous := t.state

	if target, ok := t.cfg.Transitions[toolName]; ok {
		t.state = target
		result := Transition{
			Previous:     previous,
			New:          t.state,
			Transitioned: t.state != previous,
		}
		if t.state == StateInitialized && !t.guidanceGiven {
			t.guidanceGiven = true
			t.initializedAt = timeNow()
			result.Guidance = "Session initialized. Complete any pending blocking hooks before calling gated tools."
		}
		return result
	}

	if (t.state == StateInitialized || t.state == StateReady) && !t.isInitTool(toolName) {
		t.state = StateWorking
		return Transition{Previous: previous, New: t.state, Transitioned: true}
	}

	return Transition{Previous: previous, New: t.state}
}

// Reset returns the tracker to uninitialized and clears the session and
// request identifiers and the init timestamp.
func (t *Tracker) Reset() {
	t.state = StateUninitialized
	t.sessionID = ""
	t.requestID = ""
	t.initializedAt = time.Time{}
	t.guidanceGiven = false
}

func (t *Tracker) isInitTool(toolName string) bool {
	return contains(t.cfg.InitTools, toolName)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
