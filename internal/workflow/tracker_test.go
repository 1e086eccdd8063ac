package workflow

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestCheckToolAllowedBlocksUntilComplete(t *testing.T) {
	tr := NewTracker()
	tr.RegisterBlockingHook(BlockingHookDef{
		HookID:     "cfg",
		ToolPrefix: "app:",
		Name:       "Configure",
	})

	result := tr.CheckToolAllowed("app:anything")
	if result.Allowed {
		t.Fatal("expected app:anything to be blocked before completion")
	}
	if result.BlockedBy != "cfg" {
		t.Errorf("BlockedBy = %q, want cfg", result.BlockedBy)
	}
	if result.Message == "" || result.Hint == "" {
		t.Error("blocked result missing message or hint")
	}

	tr.MarkHookCompleted("cfg", nil)

	result = tr.CheckToolAllowed("app:anything")
	if !result.Allowed {
		t.Errorf("expected app:anything allowed after completion, got %+v", result)
	}
}

func TestCheckToolAllowedPrefixSemantics(t *testing.T) {
	tr := NewTracker()
	tr.RegisterBlockingHook(BlockingHookDef{HookID: "gate", ToolPrefix: "farrier_guid"})

	tests := []struct {
		name    string
		tool    string
		allowed bool
	}{
		{"literal prefix match blocked", "farrier_guidance", false},
		{"exact prefix blocked", "farrier_guid", false},
		{"different prefix allowed", "farrier_status", true},
		{"prefix not at start allowed", "x_farrier_guidance", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.CheckToolAllowed(tt.tool); got.Allowed != tt.allowed {
				t.Errorf("CheckToolAllowed(%q).Allowed = %v, want %v", tt.tool, got.Allowed, tt.allowed)
			}
		})
	}
}

func TestCheckToolAllowedEmptyPrefixNeverMatches(t *testing.T) {
	tr := NewTracker()
	tr.RegisterBlockingHook(BlockingHookDef{HookID: "broad", ToolPrefix: ""})

	if got := tr.CheckToolAllowed("anything"); !got.Allowed {
		t.Errorf("empty prefix must not gate tools, got %+v", got)
	}
}

func TestCheckToolAllowedFirstMatchWins(t *testing.T) {
	// Two unmet gates both match; the first registered wins.
	tr := NewTracker()
	tr.RegisterBlockingHooks([]BlockingHookDef{
		{HookID: "first", ToolPrefix: "tool_"},
		{HookID: "second", ToolPrefix: "tool_"},
	})

	result := tr.CheckToolAllowed("tool_x")
	if result.BlockedBy != "first" {
		t.Errorf("BlockedBy = %q, want first (registration order)", result.BlockedBy)
	}

	tr.MarkHookCompleted("first", nil)
	result = tr.CheckToolAllowed("tool_x")
	if result.BlockedBy != "second" {
		t.Errorf("BlockedBy = %q, want second after first completes", result.BlockedBy)
	}
}

func TestRegisterBlockingHookLastWins(t *testing.T) {
	tr := NewTracker()
	tr.RegisterBlockingHook(BlockingHookDef{HookID: "dup", ToolPrefix: "a_", BlockMessage: "old"})
	tr.RegisterBlockingHook(BlockingHookDef{HookID: "dup", ToolPrefix: "b_", BlockMessage: "new"})

	if got := tr.CheckToolAllowed("a_tool"); !got.Allowed {
		t.Error("old prefix still gating after re-registration")
	}
	got := tr.CheckToolAllowed("b_tool")
	if got.Allowed || got.Message != "new" {
		t.Errorf("re-registered def not in effect: %+v", got)
	}
}

func TestMarkHookCompletedIdempotent(t *testing.T) {
	tr := NewTracker()
	tr.RegisterBlockingHook(BlockingHookDef{HookID: "h", ToolPrefix: "t_"})

	first := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	orig := timeNow
	defer func() { timeNow = orig }()

	timeNow = func() time.Time { return first }
	tr.MarkHookCompleted("h", map[string]any{"attempt": 1})

	timeNow = func() time.Time { return second }
	tr.MarkHookCompleted("h", map[string]any{"attempt": 2})

	completions := tr.Completions()
	if len(completions) != 1 {
		t.Fatalf("Completions = %d records, want 1", len(completions))
	}
	if !completions[0].CompletedAt.Equal(second) {
		t.Errorf("CompletedAt = %v, want refreshed %v", completions[0].CompletedAt, second)
	}
	if completions[0].Data["attempt"] != 2 {
		t.Errorf("Data = %v, want replaced", completions[0].Data)
	}
}

func TestPending(t *testing.T) {
	tr := NewTracker()
	tr.RegisterBlockingHooks([]BlockingHookDef{
		{HookID: "a", ToolPrefix: "x_"},
		{HookID: "b", ToolPrefix: "y_"},
	})
	tr.MarkHookCompleted("a", nil)

	pending := tr.Pending()
	if len(pending) != 1 || pending[0].HookID != "b" {
		t.Errorf("Pending = %+v, want just b", pending)
	}
}

func TestResetAndClearAreIndependent(t *testing.T) {
	tr := NewTracker()
	tr.RegisterBlockingHook(BlockingHookDef{HookID: "h", ToolPrefix: "t_"})
	tr.MarkHookCompleted("h", nil)

	// Reset clears completions only: the gate re-arms.
	tr.Reset()
	if tr.IsCompleted("h") {
		t.Error("completion survived Reset")
	}
	if got := tr.CheckToolAllowed("t_x"); got.Allowed {
		t.Error("gate gone after Reset; definitions must survive")
	}

	// ClearBlockingHooks clears definitions only.
	tr.MarkHookCompleted("h", nil)
	tr.ClearBlockingHooks()
	if got := tr.CheckToolAllowed("t_x"); !got.Allowed {
		t.Error("gate still active after ClearBlockingHooks")
	}
	if !tr.IsCompleted("h") {
		t.Error("completion lost by ClearBlockingHooks")
	}
}

func TestCreateBlockingResponse(t *testing.T) {
	tr := NewTracker()
	result := tr.CreateBlockingResponse(CheckResult{
		Allowed:   false,
		BlockedBy: "cfg",
		Message:   "blocked",
		Hint:      "complete cfg",
	})

	if !result.IsError {
		t.Error("blocking response must set IsError")
	}
	if len(result.Content) != 1 {
		t.Fatalf("Content = %d entries, want 1", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want mcp.TextContent", result.Content[0])
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload["workflowViolation"] != true {
		t.Error("payload missing workflowViolation flag")
	}
	if payload["blockedBy"] != "cfg" || payload["hint"] != "complete cfg" {
		t.Errorf("payload = %v", payload)
	}
}
