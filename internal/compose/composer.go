// Package compose merges resolved hooks into one ordered guidance
// document.
//
// The algorithm: group hooks by RFC 2119 requirement level in the fixed
// order MUST, MUST NOT, SHOULD, SHOULD NOT, MAY; within each group, sort
// by priority descending (stable, so equal priorities keep input order)
// and then emit in dependency order via depth-first traversal. A
// dependency outside the group or absent from the composed set is
// ignored. A dependency cycle fails the whole composition.
package compose

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/HendryAvila/farrier/internal/hooks"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// CircularDependencyError is the only failure Compose can raise. The
// hook set is misconfigured; retrying with the same input cannot
// succeed.
type CircularDependencyError struct {
	// Cycle lists the hook IDs on the dependency cycle, ending where it
	// started.
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular hook dependency: %s", strings.Join(e.Cycle, " -> "))
}

// Result is the output of one composition. Recomputed fresh every time,
// never cached.
type Result struct {
	Content string `json:"content"`

	// Included lists the composed hooks in final output order.
	Included []hooks.HookSummary `json:"included_hooks"`

	// Skipped and Failed are passed through verbatim from the
	// transparency variant; they never alter ordering or content.
	Skipped []hooks.LoadFailure `json:"skipped_hooks,omitempty"`
	Failed  []hooks.LoadFailure `json:"failed_hooks,omitempty"`

	// Notices are human-readable transparency summaries.
	Notices []string `json:"notices,omitempty"`

	// BlockingHooks lists the IDs of included hooks marked blocking, for
	// the caller to feed into the workflow tracker.
	BlockingHooks []string `json:"blocking_hooks,omitempty"`

	ComposedAt time.Time `json:"composed_at"`
}

// Composer merges resolved hooks. It is pure computation over its input
// and holds no state between calls.
type Composer struct{}

// New creates a Composer.
func New() *Composer {
	return &Composer{}
}

// Compose merges the given hooks into one document. An empty input
// yields an empty result, never an error.
func (c *Composer) Compose(resolved []hooks.ResolvedHook) (*Result, error) {
	return c.ComposeWithTransparency(resolved, nil, nil)
}

// ComposeWithTransparency is Compose plus pass-through reporting of
// hooks that were skipped (condition not met) and failed (content load
// error). The extra lists feed notices and the result's Skipped/Failed
// fields only; they never change ordering or content.
func (c *Composer) ComposeWithTransparency(resolved []hooks.ResolvedHook, skipped, failed []hooks.LoadFailure) (*Result, error) {
	ordered, err := orderHooks(resolved)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Content:    render(ordered),
		Included:   make([]hooks.HookSummary, 0, len(ordered)),
		Skipped:    skipped,
		Failed:     failed,
		ComposedAt: timeNow(),
	}
	for _, h := range ordered {
		result.Included = append(result.Included, h.Summary())
		if h.Blocking {
			result.BlockingHooks = append(result.BlockingHooks, h.ID)
		}
	}
	result.Notices = notices(result)
	return result, nil
}

// orderHooks produces the final emission order: level groups in
// hooks.LevelOrder, each group dependency-ordered.
func orderHooks(resolved []hooks.ResolvedHook) ([]hooks.ResolvedHook, error) {
	groups := make(map[hooks.RequirementLevel][]hooks.ResolvedHook)
	for _, h := range resolved {
		groups[h.Level] = append(groups[h.Level], h)
	}

	var ordered []hooks.ResolvedHook
	for _, level := range hooks.LevelOrder {
		group := groups[level]
		if len(group) == 0 {
			continue
		}
		emitted, err := orderGroup(group)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, emitted...)
	}
	return ordered, nil
}

// orderGroup sorts one requirement-level group by priority descending
// (stable) and emits it depth-first so that every dependency present in
// the group precedes its dependents.
//
// Cycle detection uses an explicit in-progress set alongside the done
// set; a hook revisited while still in progress is on the active path.
func orderGroup(group []hooks.ResolvedHook) ([]hooks.ResolvedHook, error) {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].Priority > group[j].Priority
	})

	byID := make(map[string]hooks.ResolvedHook, len(group))
	for _, h := range group {
		byID[h.ID] = h
	}

	emitted := make([]hooks.ResolvedHook, 0, len(group))
	done := make(map[string]bool, len(group))
	inProgress := make(map[string]bool)
	var path []string

	var visit func(h hooks.ResolvedHook) error
	visit = func(h hooks.ResolvedHook) error {
		if done[h.ID] {
			return nil
		}
		if inProgress[h.ID] {
			return cycleError(path, h.ID)
		}
		inProgress[h.ID] = true
		path = append(path, h.ID)

		for _, depID := range h.Dependencies {
			dep, ok := byID[depID]
			if !ok {
				// Dependency outside the group or not in the composed
				// set: ordering constraint only, ignore.
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		delete(inProgress, h.ID)
		path = path[:len(path)-1]
		done[h.ID] = true
		emitted = append(emitted, h)
		return nil
	}

	for _, h := range group {
		if err := visit(h); err != nil {
			return nil, err
		}
	}
	return emitted, nil
}

// cycleError trims the active path to the cycle itself and closes it.
func cycleError(path []string, repeated string) *CircularDependencyError {
	start := 0
	for i, id := range path {
		if id == repeated {
			start = i
			break
		}
	}
	cycle := append([]string{}, path[start:]...)
	cycle = append(cycle, repeated)
	return &CircularDependencyError{Cycle: cycle}
}

// notices builds the human-readable transparency summary.
func notices(r *Result) []string {
	var out []string
	if len(r.Skipped) > 0 {
		names := make([]string, 0, len(r.Skipped))
		for _, s := range r.Skipped {
			names = append(names, s.Hook.Name)
		}
		out = append(out, fmt.Sprintf("%d hook(s) skipped (conditions not met): %s",
			len(r.Skipped), strings.Join(names, ", ")))
	}
	if len(r.Failed) > 0 {
		for _, f := range r.Failed {
			out = append(out, fmt.Sprintf("hook %q failed to load: %s", f.Hook.Name, f.Reason))
		}
	}
	if len(r.BlockingHooks) > 0 {
		out = append(out, fmt.Sprintf("%d blocking hook(s) must be completed before gated tools run: %s",
			len(r.BlockingHooks), strings.Join(r.BlockingHooks, ", ")))
	}
	return out
}
