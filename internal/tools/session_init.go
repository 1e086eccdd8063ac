// Package tools implements the MCP tool handlers for Farrier.
//
// Each tool is a struct with injected dependencies, a Definition method
// for registration, and a Handle method. Tools depend on abstractions
// from the hooks, compose, workflow, and session packages; no business
// logic lives in the handlers beyond argument parsing and response
// formatting.
package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/farrier/internal/compose"
	"github.com/HendryAvila/farrier/internal/config"
	"github.com/HendryAvila/farrier/internal/hooks"
	"github.com/HendryAvila/farrier/internal/session"
	"github.com/HendryAvila/farrier/internal/store"
	"github.com/HendryAvila/farrier/internal/workflow"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// SessionInitTool handles the farrier_session_init MCP tool. It starts a
// session, composes the session-start guidance document, and reports the
// blocking hooks that gate further work.
type SessionInitTool struct {
	cfg      *config.Config
	registry *hooks.Registry
	resolver *hooks.Resolver
	composer *compose.Composer
	workflow *workflow.Tracker
	session  *session.Tracker
	journal  *store.Store
}

// NewSessionInitTool creates a SessionInitTool with its dependencies.
// journal may be nil when persistence is disabled.
func NewSessionInitTool(
	cfg *config.Config,
	registry *hooks.Registry,
	resolver *hooks.Resolver,
	composer *compose.Composer,
	wf *workflow.Tracker,
	st *session.Tracker,
	journal *store.Store,
) *SessionInitTool {
	return &SessionInitTool{
		cfg:      cfg,
		registry: registry,
		resolver: resolver,
		composer: composer,
		workflow: wf,
		session:  st,
		journal:  journal,
	}
}

// Definition returns the MCP tool definition for registration.
func (t *SessionInitTool) Definition() mcp.Tool {
	return mcp.NewTool("farrier_session_init",
		mcp.WithDescription(
			"Initialize a Farrier session. Composes the session-start guidance "+
				"document and lists the blocking hooks that must be completed "+
				"before gated tools may run. Always the first call in a session.",
		),
	)
}

// Handle processes the farrier_session_init tool call.
func (t *SessionInitTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := uuid.NewString()
	t.session.BindSession(sessionID)

	if t.journal != nil {
		if err := t.journal.CreateSession(sessionID, time.Now()); err != nil {
			return nil, fmt.Errorf("journaling session: %w", err)
		}
	}

	result, err := ComposeGuidance(
		t.registry, t.resolver, t.composer,
		hooks.TypeSession, hooks.PhaseStart,
		t.cfg, sessionID, "",
	)
	if err != nil {
		// A dependency cycle is a hook-set configuration bug, not a
		// transient condition; surface it to the client as-is.
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Session Initialized\n\n**Session:** `%s`\n\n", sessionID)

	if len(result.BlockingHooks) > 0 {
		b.WriteString("## Blocking hooks\n\nComplete these with `farrier_complete_hook` before calling gated tools:\n\n")
		for _, id := range result.BlockingHooks {
			fmt.Fprintf(&b, "- `%s`\n", id)
		}
		b.WriteString("\n")
	}

	if result.Content != "" {
		b.WriteString("## Guidance\n\n")
		b.WriteString(result.Content)
	}

	appendNotices(&b, result.Notices)
	return mcp.NewToolResultText(b.String()), nil
}
