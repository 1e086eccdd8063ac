// Package prompts implements MCP prompt handlers for Farrier.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the farrier-start MCP prompt. It guides the AI
// through the session workflow: initialize, satisfy blocking hooks,
// then work.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("farrier-start",
		mcp.WithPromptDescription(
			"Start a guided Farrier session: initialize, read the composed "+
				"session-start guidance, complete any blocking hooks, and "+
				"begin work.",
		),
	)
}

// Handle processes the farrier-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	text := "Begin a Farrier session:\n\n" +
		"1. Call `farrier_session_init`. Read the composed guidance it returns; " +
		"the MUST sections are mandatory.\n" +
		"2. If the response lists blocking hooks, satisfy each one and mark it done " +
		"with `farrier_complete_hook`. Tools gated on those hooks will refuse to run " +
		"until then.\n" +
		"3. Use `farrier_guidance` at later lifecycle points (running, cancel, end) " +
		"for phase-specific guidance.\n" +
		"4. Check `farrier_status` whenever you are unsure what is still pending.\n"

	return &mcp.GetPromptResult{
		Description: "Farrier session workflow",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(text),
			},
		},
	}, nil
}
