package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/farrier/internal/hooks"
	"github.com/HendryAvila/farrier/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterHookTool handles the farrier_register_hook MCP tool: dynamic
// registration of a hook with inline content, scoped to the current
// session by default so it disappears from other sessions' queries.
type RegisterHookTool struct {
	registry *hooks.Registry
	resolver *hooks.Resolver
	session  *session.Tracker
}

// NewRegisterHookTool creates a RegisterHookTool with its dependencies.
func NewRegisterHookTool(registry *hooks.Registry, resolver *hooks.Resolver, st *session.Tracker) *RegisterHookTool {
	return &RegisterHookTool{registry: registry, resolver: resolver, session: st}
}

// Definition returns the MCP tool definition for registration.
func (t *RegisterHookTool) Definition() mcp.Tool {
	return mcp.NewTool("farrier_register_hook",
		mcp.WithDescription(
			"Register a guidance hook dynamically with inline content. The hook "+
				"participates in composition for its lifecycle point like any "+
				"file-backed hook. Scoped to the current session unless 'global' "+
				"is true.",
		),
		mcp.WithString("tag",
			mcp.Required(),
			mcp.Description("Kebab-case identifier, e.g. 'review-checklist'"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Human-readable hook name"),
		),
		mcp.WithString("type",
			mcp.Description("Hook type. Defaults to action."),
			mcp.DefaultString("action"),
			mcp.Enum("session", "action", "storage", "config"),
		),
		mcp.WithString("lifecycle",
			mcp.Required(),
			mcp.Description("Lifecycle phase the hook fires at"),
			mcp.Enum("start", "running", "progress", "cancel", "end"),
		),
		mcp.WithString("requirement_level",
			mcp.Description("RFC 2119 level. Defaults to SHOULD."),
			mcp.DefaultString("SHOULD"),
			mcp.Enum("MUST", "MUST NOT", "SHOULD", "SHOULD NOT", "MAY"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Guidance text (markdown)"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Larger runs earlier within its requirement-level group. Defaults to 50."),
		),
		mcp.WithBoolean("blocking",
			mcp.Description("Whether the hook is a workflow gate"),
		),
		mcp.WithBoolean("global",
			mcp.Description("Register without session scoping"),
		),
	)
}

// Handle processes the farrier_register_hook tool call.
func (t *RegisterHookTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	def := hooks.HookDefinition{
		Tag:       req.GetString("tag", ""),
		Name:      req.GetString("name", ""),
		Type:      hooks.HookType(req.GetString("type", "action")),
		Lifecycle: hooks.Lifecycle(req.GetString("lifecycle", "")),
		Level:     hooks.RequirementLevel(req.GetString("requirement_level", "SHOULD")),
		Priority:  req.GetInt("priority", 0),
		Blocking:  req.GetBool("blocking", false),
	}
	if !req.GetBool("global", false) {
		def.SessionID = t.session.SessionID()
	}

	content := req.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	stored, err := t.registry.Register(def)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t.resolver.SetInline(stored.ID, content)

	return mcp.NewToolResultText(fmt.Sprintf(
		"Registered hook `%s` (%s, %s/%s, priority %d).",
		stored.ID, stored.Level, stored.Type, stored.Lifecycle, stored.Priority,
	)), nil
}
