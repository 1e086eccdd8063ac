package tools

import (
	"context"
	"strings"

	"github.com/HendryAvila/farrier/internal/compose"
	"github.com/HendryAvila/farrier/internal/config"
	"github.com/HendryAvila/farrier/internal/hooks"
	"github.com/HendryAvila/farrier/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// GuidanceTool handles the farrier_guidance MCP tool: on-demand
// composition of the guidance document for a given hook type and
// lifecycle phase under the current runtime conditions.
type GuidanceTool struct {
	cfg      *config.Config
	registry *hooks.Registry
	resolver *hooks.Resolver
	composer *compose.Composer
	session  *session.Tracker
}

// NewGuidanceTool creates a GuidanceTool with its dependencies.
func NewGuidanceTool(
	cfg *config.Config,
	registry *hooks.Registry,
	resolver *hooks.Resolver,
	composer *compose.Composer,
	st *session.Tracker,
) *GuidanceTool {
	return &GuidanceTool{
		cfg:      cfg,
		registry: registry,
		resolver: resolver,
		composer: composer,
		session:  st,
	}
}

// Definition returns the MCP tool definition for registration.
func (t *GuidanceTool) Definition() mcp.Tool {
	return mcp.NewTool("farrier_guidance",
		mcp.WithDescription(
			"Compose the guidance document for a lifecycle point. Hooks are "+
				"filtered by the server's runtime conditions, ordered by "+
				"requirement level, dependencies, and priority, and merged "+
				"into one document.",
		),
		mcp.WithString("type",
			mcp.Description("Hook type: session, action, storage, or config. Defaults to action."),
			mcp.DefaultString("action"),
			mcp.Enum("session", "action", "storage", "config"),
		),
		mcp.WithString("lifecycle",
			mcp.Required(),
			mcp.Description("Lifecycle phase: start, running, progress, cancel, or end"),
			mcp.Enum("start", "running", "progress", "cancel", "end"),
		),
	)
}

// Handle processes the farrier_guidance tool call.
func (t *GuidanceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hookType := hooks.HookType(req.GetString("type", "action"))
	lifecycle := hooks.Lifecycle(req.GetString("lifecycle", ""))

	if err := hooks.ValidateType(hookType); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := hooks.ValidateLifecycle(lifecycle); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := ComposeGuidance(
		t.registry, t.resolver, t.composer,
		hookType, lifecycle,
		t.cfg, t.session.SessionID(), "",
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.Content == "" && len(result.Notices) == 0 {
		return mcp.NewToolResultText("No guidance hooks matched this lifecycle point."), nil
	}

	var b strings.Builder
	b.WriteString(result.Content)
	appendNotices(&b, result.Notices)
	return mcp.NewToolResultText(b.String()), nil
}
