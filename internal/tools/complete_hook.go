package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HendryAvila/farrier/internal/session"
	"github.com/HendryAvila/farrier/internal/store"
	"github.com/HendryAvila/farrier/internal/workflow"
	"github.com/mark3labs/mcp-go/mcp"
)

// CompleteHookTool handles the farrier_complete_hook MCP tool: marking a
// blocking hook as completed so that tools it gates may run.
type CompleteHookTool struct {
	workflow *workflow.Tracker
	session  *session.Tracker
	journal  *store.Store
}

// NewCompleteHookTool creates a CompleteHookTool. journal may be nil
// when persistence is disabled.
func NewCompleteHookTool(wf *workflow.Tracker, st *session.Tracker, journal *store.Store) *CompleteHookTool {
	return &CompleteHookTool{workflow: wf, session: st, journal: journal}
}

// Definition returns the MCP tool definition for registration.
func (t *CompleteHookTool) Definition() mcp.Tool {
	return mcp.NewTool("farrier_complete_hook",
		mcp.WithDescription(
			"Mark a blocking hook as completed. Tools gated on the hook become "+
				"callable. Completing an already-completed hook refreshes its "+
				"timestamp.",
		),
		mcp.WithString("hook_id",
			mcp.Required(),
			mcp.Description("ID of the blocking hook, e.g. farrier:session:start:configure"),
		),
		mcp.WithString("data",
			mcp.Description("Optional JSON object recorded with the completion"),
		),
	)
}

// Handle processes the farrier_complete_hook tool call.
func (t *CompleteHookTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hookID := req.GetString("hook_id", "")
	if hookID == "" {
		return mcp.NewToolResultError("'hook_id' is required"), nil
	}

	var data map[string]any
	if raw := req.GetString("data", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'data' must be a JSON object: %v", err)), nil
		}
	}

	t.workflow.MarkHookCompleted(hookID, data)

	if t.journal != nil && t.session.SessionID() != "" {
		if err := t.journal.RecordCompletion(t.session.SessionID(), hookID, data, time.Now()); err != nil {
			return nil, fmt.Errorf("journaling completion: %w", err)
		}
	}

	pending := t.workflow.Pending()
	if len(pending) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Hook `%s` completed. No blocking hooks remain; all gated tools are available.", hookID,
		)), nil
	}

	msg := fmt.Sprintf("Hook `%s` completed. Still pending:\n", hookID)
	for _, def := range pending {
		msg += fmt.Sprintf("- `%s` (gates `%s*`)\n", def.HookID, def.ToolPrefix)
	}
	return mcp.NewToolResultText(msg), nil
}
