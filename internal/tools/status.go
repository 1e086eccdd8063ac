package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/farrier/internal/hooks"
	"github.com/HendryAvila/farrier/internal/session"
	"github.com/HendryAvila/farrier/internal/workflow"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatusTool handles the farrier_status MCP tool: a JSON snapshot of the
// session state, pending blocking hooks, and registry size.
type StatusTool struct {
	registry *hooks.Registry
	workflow *workflow.Tracker
	session  *session.Tracker
}

// NewStatusTool creates a StatusTool with its dependencies.
func NewStatusTool(registry *hooks.Registry, wf *workflow.Tracker, st *session.Tracker) *StatusTool {
	return &StatusTool{registry: registry, workflow: wf, session: st}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("farrier_status",
		mcp.WithDescription(
			"Report the current session state, pending blocking hooks, and "+
				"the number of registered guidance hooks.",
		),
	)
}

// statusReport is the JSON shape returned by farrier_status.
type statusReport struct {
	SessionID       string                      `json:"session_id,omitempty"`
	State           session.State               `json:"state"`
	RegisteredHooks int                         `json:"registered_hooks"`
	PendingBlocking []workflow.BlockingHookDef  `json:"pending_blocking,omitempty"`
	Completions     []workflow.CompletionStatus `json:"completions,omitempty"`
}

// Handle processes the farrier_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report := statusReport{
		SessionID:       t.session.SessionID(),
		State:           t.session.State(),
		RegisteredHooks: t.registry.Size(),
		PendingBlocking: t.workflow.Pending(),
		Completions:     t.workflow.Completions(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
