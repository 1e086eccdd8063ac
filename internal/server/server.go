// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here, only wiring and the
// gate middleware that runs the two tracker checks before every tool
// call.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/HendryAvila/farrier/internal/compose"
	"github.com/HendryAvila/farrier/internal/config"
	"github.com/HendryAvila/farrier/internal/hooks"
	"github.com/HendryAvila/farrier/internal/prompts"
	"github.com/HendryAvila/farrier/internal/resources"
	"github.com/HendryAvila/farrier/internal/session"
	"github.com/HendryAvila/farrier/internal/store"
	"github.com/HendryAvila/farrier/internal/tools"
	"github.com/HendryAvila/farrier/internal/workflow"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered, loading configuration from configPath
// (empty means the default farrier.yaml, falling back to built-in
// defaults when absent).
//
// The returned cleanup function closes the session journal and must be
// called on shutdown (typically via defer). It is always non-nil and
// safe to call even when the journal is disabled.
func New(configPath string) (*server.MCPServer, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, noop, err
	}

	// --- Create shared dependencies ---

	registry := hooks.NewRegistry()
	resolver := hooks.NewResolver(cfg.HooksDir)
	composer := compose.New()
	workflowTracker := workflow.NewTracker()
	sessionTracker := session.NewTracker(cfg.Session.TrackerConfig())

	defs, err := hooks.LoadDefinitions(cfg.HooksDir)
	if err != nil {
		return nil, noop, fmt.Errorf("loading hook definitions: %w", err)
	}
	if _, err := registry.RegisterAll(defs); err != nil {
		return nil, noop, fmt.Errorf("registering hooks from %s: %w", cfg.HooksDir, err)
	}

	workflowTracker.RegisterBlockingHooks(cfg.BlockingHooks)

	var journal *store.Store
	cleanup := noop
	if cfg.StorePath != "" {
		journal, err = store.Open(cfg.StorePath)
		if err != nil {
			// The journal is host-side convenience, not a core
			// dependency; run memory-only rather than refusing to start.
			log.Printf("session journal unavailable, continuing without persistence: %v", err)
			journal = nil
		} else {
			cleanup = func() {
				if err := journal.Close(); err != nil {
					log.Printf("closing session journal: %v", err)
				}
			}
			if err := resume(journal, workflowTracker, sessionTracker); err != nil {
				log.Printf("resuming previous session: %v", err)
			}
		}
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"farrier",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
		server.WithToolHandlerMiddleware(gateMiddleware(workflowTracker, sessionTracker, journal)),
	)

	// --- Register tools ---

	initTool := tools.NewSessionInitTool(cfg, registry, resolver, composer, workflowTracker, sessionTracker, journal)
	s.AddTool(initTool.Definition(), initTool.Handle)

	guidanceTool := tools.NewGuidanceTool(cfg, registry, resolver, composer, sessionTracker)
	s.AddTool(guidanceTool.Definition(), guidanceTool.Handle)

	completeTool := tools.NewCompleteHookTool(workflowTracker, sessionTracker, journal)
	s.AddTool(completeTool.Definition(), completeTool.Handle)

	registerTool := tools.NewRegisterHookTool(registry, resolver, sessionTracker)
	s.AddTool(registerTool.Definition(), registerTool.Handle)

	statusTool := tools.NewStatusTool(registry, workflowTracker, sessionTracker)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(cfg, registry, resolver, composer, workflowTracker, sessionTracker)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)
	for _, phase := range []hooks.Lifecycle{
		hooks.PhaseStart, hooks.PhaseRunning, hooks.PhaseProgress, hooks.PhaseCancel, hooks.PhaseEnd,
	} {
		s.AddResource(resourceHandler.GuidanceResource(phase), resourceHandler.HandleGuidance(phase))
	}

	return s, cleanup, nil
}

// gateMiddleware consults the session tracker and then the workflow
// tracker before every tool call, and records the call afterwards. A
// blocked call short-circuits with the structured failure envelope and
// never reaches the handler.
func gateMiddleware(wf *workflow.Tracker, st *session.Tracker, journal *store.Store) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			toolName := req.Params.Name

			if msg := st.CheckToolAllowed(toolName, ""); msg != "" {
				return mcp.NewToolResultError(msg), nil
			}
			if check := wf.CheckToolAllowed(toolName); !check.Allowed {
				return wf.CreateBlockingResponse(check), nil
			}

			result, err := next(ctx, req)
			if err != nil {
				return result, err
			}

			transition := st.RecordToolCall(toolName, "")
			if transition.Transitioned {
				log.Printf("session state: %s -> %s", transition.Previous, transition.New)
			}
			if journal != nil && st.SessionID() != "" {
				if jerr := journal.RecordToolCall(st.SessionID(), toolName, "", time.Now()); jerr != nil {
					log.Printf("journaling tool call %q: %v", toolName, jerr)
				}
			}
			return result, nil
		}
	}
}

// resume rehydrates the trackers from an unfinished session in the
// journal, if one exists. Completions are replayed into the workflow
// tracker; tool calls are replayed into the session tracker so it lands
// back in the state the previous process reached.
func resume(journal *store.Store, wf *workflow.Tracker, st *session.Tracker) error {
	open, err := journal.OpenSession()
	if err != nil || open == nil {
		return err
	}

	st.BindSession(open.ID)

	completions, err := journal.Completions(open.ID)
	if err != nil {
		return err
	}
	for _, c := range completions {
		wf.MarkHookCompleted(c.HookID, nil)
	}

	calls, err := journal.ToolCalls(open.ID)
	if err != nil {
		return err
	}
	for _, c := range calls {
		st.RecordToolCall(c.Tool, c.RequestID)
	}

	log.Printf("resumed session %s (%d completions, %d tool calls)", open.ID, len(completions), len(calls))
	return nil
}

// serverInstructions returns the instructions string advertised to MCP
// clients at initialization.
func serverInstructions() string {
	return "Farrier composes normative guidance for your session and gates " +
		"tools on workflow preconditions. Call farrier_session_init first; " +
		"it returns the session-start guidance document and the blocking " +
		"hooks you must complete (farrier_complete_hook) before gated tools " +
		"run. Guidance sections are ordered by RFC 2119 strength: treat " +
		"MUST/MUST NOT sections as hard requirements."
}

// noop is the cleanup function returned when there is nothing to clean up.
func noop() {}
