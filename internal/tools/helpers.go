package tools

import (
	"strings"

	"github.com/HendryAvila/farrier/internal/compose"
	"github.com/HendryAvila/farrier/internal/config"
	"github.com/HendryAvila/farrier/internal/hooks"
)

// ComposeGuidance runs the query, load, and compose sequence for one
// lifecycle point under the server's runtime conditions. Skipped hooks
// (conditions not met) and failed content loads go into the result's
// transparency lists; only a dependency cycle errors.
func ComposeGuidance(
	registry *hooks.Registry,
	resolver *hooks.Resolver,
	composer *compose.Composer,
	hookType hooks.HookType,
	lifecycle hooks.Lifecycle,
	cfg *config.Config,
	sessionID, requestID string,
) (*compose.Result, error) {
	opts := hooks.QueryOptions{
		Type:      hookType,
		Lifecycle: lifecycle,
		Storage:   cfg.Storage,
		Feature:   cfg.Feature,
		Config:    cfg.Conditions,
		SessionID: sessionID,
		RequestID: requestID,
	}

	matched := registry.Query(opts)
	skipped := registry.QuerySkipped(opts)
	resolved, failed := resolver.LoadAll(matched)

	return composer.ComposeWithTransparency(resolved, skipped, failed)
}

// appendNotices writes the composer's transparency notices, if any, as a
// trailing section.
func appendNotices(b *strings.Builder, notices []string) {
	if len(notices) == 0 {
		return
	}
	b.WriteString("\n\n## Notices\n\n")
	for _, n := range notices {
		b.WriteString("- " + n + "\n")
	}
}
