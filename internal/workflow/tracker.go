// Package workflow gates tool execution on the completion of blocking
// hooks.
//
// A blocking hook declares, by tool-name prefix, which tools may not run
// until the hook has been marked completed. The tracker is a plain
// in-memory structure owned by one session; persistence of completions
// belongs to the caller (internal/store).
package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// BlockingHookDef declares a gate: tools whose name starts with
// ToolPrefix are blocked until the hook identified by HookID completes.
type BlockingHookDef struct {
	HookID       string `json:"hook_id" yaml:"hook_id"`
	ToolPrefix   string `json:"tool_prefix" yaml:"tool_prefix"`
	Name         string `json:"name" yaml:"name"`
	BlockMessage string `json:"block_message" yaml:"block_message"`
}

// CompletionStatus records that a blocking hook finished. Lives for one
// session and is cleared by Reset.
type CompletionStatus struct {
	HookID      string         `json:"hook_id"`
	CompletedAt time.Time      `json:"completed_at"`
	Data        map[string]any `json:"data,omitempty"`
}

// CheckResult is the outcome of a gate check. Not an error: a blocked
// tool is an expected condition the host renders into its own failure
// envelope.
type CheckResult struct {
	Allowed   bool   `json:"allowed"`
	BlockedBy string `json:"blocked_by,omitempty"`
	Message   string `json:"message,omitempty"`
	Hint      string `json:"hint,omitempty"`
}

// Tracker records blocking-hook completion for one session.
type Tracker struct {
	completions map[string]CompletionStatus
	defs        map[string]BlockingHookDef
	// order preserves def registration order; the first matching unmet
	// block wins a check.
	order []string
}

// NewTracker creates an empty workflow tracker.
func NewTracker() *Tracker {
	return &Tracker{
		completions: make(map[string]CompletionStatus),
		defs:        make(map[string]BlockingHookDef),
	}
}

// RegisterBlockingHook adds a gate definition. No duplicate check: the
// last registration for a hook ID wins, keeping its original position in
// the iteration order.
func (t *Tracker) RegisterBlockingHook(def BlockingHookDef) {
	if _, exists := t.defs[def.HookID]; !exists {
		t.order = append(t.order, def.HookID)
	}
	t.defs[def.HookID] = def
}

// RegisterBlockingHooks adds gate definitions in order.
func (t *Tracker) RegisterBlockingHooks(defs []BlockingHookDef) {
	for _, def := range defs {
		t.RegisterBlockingHook(def)
	}
}

// MarkHookCompleted records completion. Idempotent: re-marking refreshes
// the timestamp and replaces the data.
func (t *Tracker) MarkHookCompleted(hookID string, data map[string]any) {
	t.completions[hookID] = CompletionStatus{
		HookID:      hookID,
		CompletedAt: timeNow(),
		Data:        data,
	}
}

// IsCompleted reports whether the hook has been marked completed.
func (t *Tracker) IsCompleted(hookID string) bool {
	_, ok := t.completions[hookID]
	return ok
}

// Completions returns all completion records in no particular order.
func (t *Tracker) Completions() []CompletionStatus {
	out := make([]CompletionStatus, 0, len(t.completions))
	for _, c := range t.completions {
		out = append(out, c)
	}
	return out
}

// Pending returns the registered gates whose hooks are not yet
// completed, in registration order.
func (t *Tracker) Pending() []BlockingHookDef {
	var out []BlockingHookDef
	for _, id := range t.order {
		if !t.IsCompleted(id) {
			out = append(out, t.defs[id])
		}
	}
	return out
}

// CheckToolAllowed decides whether the named tool may run. It returns
// the first unmet gate whose ToolPrefix is a literal prefix of toolName,
// in registration order; it does not collect all of them.
func (t *Tracker) CheckToolAllowed(toolName string) CheckResult {
	for _, id := range t.order {
		def := t.defs[id]
		// An empty prefix would gate every tool; treat it as no match.
		if def.ToolPrefix == "" || !strings.HasPrefix(toolName, def.ToolPrefix) {
			continue
		}
		if t.IsCompleted(def.HookID) {
			continue
		}
		message := def.BlockMessage
		if message == "" {
			message = fmt.Sprintf("tool %q is blocked until %q completes", toolName, def.HookID)
		}
		return CheckResult{
			Allowed:   false,
			BlockedBy: def.HookID,
			Message:   message,
			Hint:      fmt.Sprintf("Complete hook %q (for example via farrier_complete_hook) and retry.", def.HookID),
		}
	}
	return CheckResult{Allowed: true}
}

// CreateBlockingResponse renders a blocked check into the MCP tool-call
// failure envelope: an error result whose text is a structured JSON
// payload the client can parse.
func (t *Tracker) CreateBlockingResponse(result CheckResult) *mcp.CallToolResult {
	payload := map[string]any{
		"workflowViolation": true,
		"blockedBy":         result.BlockedBy,
		"message":           result.Message,
		"hint":              result.Hint,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		// Marshaling a map of strings cannot fail in practice; fall back
		// to the plain message.
		return mcp.NewToolResultError(result.Message)
	}
	return mcp.NewToolResultError(string(data))
}

// Reset clears completion records only. Gate definitions survive; use
// ClearBlockingHooks for those. A full reset requires both calls.
func (t *Tracker) Reset() {
	t.completions = make(map[string]CompletionStatus)
}

// ClearBlockingHooks clears gate definitions only.
func (t *Tracker) ClearBlockingHooks() {
	t.defs = make(map[string]BlockingHookDef)
	t.order = nil
}
