// Package resources implements MCP resource handlers for Farrier.
//
// Resources provide read-only data the client can pull for context.
// They use URI-based addressing (farrier://...) following MCP
// conventions: a JSON session-status resource and one composed guidance
// document per lifecycle phase.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/farrier/internal/compose"
	"github.com/HendryAvila/farrier/internal/config"
	"github.com/HendryAvila/farrier/internal/hooks"
	"github.com/HendryAvila/farrier/internal/session"
	"github.com/HendryAvila/farrier/internal/workflow"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages Farrier resource endpoints.
type Handler struct {
	cfg      *config.Config
	registry *hooks.Registry
	resolver *hooks.Resolver
	composer *compose.Composer
	workflow *workflow.Tracker
	session  *session.Tracker
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(
	cfg *config.Config,
	registry *hooks.Registry,
	resolver *hooks.Resolver,
	composer *compose.Composer,
	wf *workflow.Tracker,
	st *session.Tracker,
) *Handler {
	return &Handler{
		cfg:      cfg,
		registry: registry,
		resolver: resolver,
		composer: composer,
		workflow: wf,
		session:  st,
	}
}

// StatusResource returns the MCP resource definition for session status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"farrier://session/status",
		"Farrier Session Status",
		mcp.WithResourceDescription("Current session state, pending blocking hooks, and registry size"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current session status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status := map[string]any{
		"session_id":       h.session.SessionID(),
		"state":            h.session.State(),
		"registered_hooks": h.registry.Size(),
		"pending_blocking": h.workflow.Pending(),
	}
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// GuidanceResource returns the resource definition for one lifecycle
// phase's composed guidance document.
func (h *Handler) GuidanceResource(lifecycle hooks.Lifecycle) mcp.Resource {
	return mcp.NewResource(
		fmt.Sprintf("farrier://guidance/%s", lifecycle),
		fmt.Sprintf("Guidance: %s", lifecycle),
		mcp.WithResourceDescription(fmt.Sprintf("Composed guidance document for the %s lifecycle phase", lifecycle)),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleGuidance composes and returns the guidance document for the
// given lifecycle phase. Hook type is not constrained here: a pulled
// resource spans all hook types for the phase.
func (h *Handler) HandleGuidance(lifecycle hooks.Lifecycle) func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		opts := hooks.QueryOptions{
			Lifecycle: lifecycle,
			Storage:   h.cfg.Storage,
			Feature:   h.cfg.Feature,
			Config:    h.cfg.Conditions,
			SessionID: h.session.SessionID(),
		}
		matched := h.registry.Query(opts)
		skipped := h.registry.QuerySkipped(opts)
		resolved, failed := h.resolver.LoadAll(matched)

		result, err := h.composer.ComposeWithTransparency(resolved, skipped, failed)
		if err != nil {
			return errorResource(req.Params.URI, err.Error()), nil
		}

		text := result.Content
		if text == "" {
			text = "No guidance hooks matched this lifecycle point.\n"
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/markdown",
				Text:     text,
			},
		}, nil
	}
}

// errorResource returns a resource carrying an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
