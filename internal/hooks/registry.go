package hooks

import (
	"fmt"
	"sort"
)

// DuplicateHookError is returned by Register when the derived ID is
// already present. The registry is left unchanged.
type DuplicateHookError struct {
	ID string
}

func (e *DuplicateHookError) Error() string {
	return fmt.Sprintf("hook %q is already registered", e.ID)
}

// Registry is an in-memory hook catalog. It is a plain data structure:
// callers serving concurrent sessions must not interleave Register,
// Unregister, or Clear with running queries without external
// synchronization.
type Registry struct {
	hooks map[string]HookDefinition
	// order preserves registration order; it is the tie-break for equal
	// priorities in Query results.
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string]HookDefinition)}
}

// Register validates the definition, derives its ID, and stores it.
// Returns the stored definition (with ID and defaults applied).
func (r *Registry) Register(def HookDefinition) (HookDefinition, error) {
	def.normalize()
	if err := def.validate(); err != nil {
		return HookDefinition{}, err
	}
	if _, exists := r.hooks[def.ID]; exists {
		return HookDefinition{}, &DuplicateHookError{ID: def.ID}
	}
	r.hooks[def.ID] = def
	r.order = append(r.order, def.ID)
	return def, nil
}

// RegisterAll registers definitions in order. Registration is NOT atomic:
// a failure at item k leaves items 1..k-1 registered and returns them
// alongside the error. Callers wanting all-or-nothing must Clear and
// retry with a corrected batch.
func (r *Registry) RegisterAll(defs []HookDefinition) ([]HookDefinition, error) {
	registered := make([]HookDefinition, 0, len(defs))
	for i, def := range defs {
		stored, err := r.Register(def)
		if err != nil {
			return registered, fmt.Errorf("registering hook %d of %d: %w", i+1, len(defs), err)
		}
		registered = append(registered, stored)
	}
	return registered, nil
}

// Unregister removes a hook by ID. Returns false if the ID was not present.
func (r *Registry) Unregister(id string) bool {
	if _, exists := r.hooks[id]; !exists {
		return false
	}
	delete(r.hooks, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// QueryOptions filters a registry query. Zero-valued fields impose no
// constraint; present fields are applied conjunctively.
type QueryOptions struct {
	Type      HookType
	Lifecycle Lifecycle

	// Tags matches hooks carrying ANY of the given tags.
	Tags []string

	// Storage, Feature, and Config are the runtime context evaluated
	// against each hook's Conditions.
	Storage string
	Feature string
	Config  map[string]string

	// SessionID and RequestID match hooks whose own scoping field is
	// empty or equal to the supplied value.
	SessionID string
	RequestID string
}

// Query returns matching hooks ordered by priority descending. Equal
// priorities keep registration order (stable sort). The composer
// re-derives requirement-level grouping; this ordering is the
// pre-grouping tie-break only.
func (r *Registry) Query(opts QueryOptions) []HookDefinition {
	var matched []HookDefinition
	for _, id := range r.order {
		def := r.hooks[id]
		if r.matches(&def, opts) {
			matched = append(matched, def)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority > matched[j].Priority
	})
	return matched
}

// QuerySkipped returns hooks that match the structural filters (type,
// lifecycle, tags, scoping) but were excluded by condition evaluation,
// each with a human-readable reason. Used to feed the composer's
// transparency output.
func (r *Registry) QuerySkipped(opts QueryOptions) []LoadFailure {
	var skipped []LoadFailure
	for _, id := range r.order {
		def := r.hooks[id]
		if !r.matchesStructural(&def, opts) {
			continue
		}
		if def.Conditions.Match(opts.Storage, opts.Feature, opts.Config) {
			continue
		}
		skipped = append(skipped, LoadFailure{
			Hook:   def.Summary(),
			Reason: "conditions not met",
		})
	}
	return skipped
}

// matches applies every filter conjunctively, including full condition
// evaluation against the supplied runtime context.
func (r *Registry) matches(def *HookDefinition, opts QueryOptions) bool {
	if !r.matchesStructural(def, opts) {
		return false
	}
	return def.Conditions.Match(opts.Storage, opts.Feature, opts.Config)
}

// matchesStructural applies the filters that do not depend on condition
// evaluation: type, lifecycle, tags, and session/request scoping.
func (r *Registry) matchesStructural(def *HookDefinition, opts QueryOptions) bool {
	if opts.Type != "" && def.Type != opts.Type {
		return false
	}
	if opts.Lifecycle != "" && def.Lifecycle != opts.Lifecycle {
		return false
	}
	if len(opts.Tags) > 0 && !anyTagMatch(def.Tags, opts.Tags) {
		return false
	}
	if def.SessionID != "" && opts.SessionID != "" && def.SessionID != opts.SessionID {
		return false
	}
	if def.RequestID != "" && opts.RequestID != "" && def.RequestID != opts.RequestID {
		return false
	}
	return true
}

func anyTagMatch(hookTags, queryTags []string) bool {
	for _, qt := range queryTags {
		if contains(hookTags, qt) {
			return true
		}
	}
	return false
}

// All returns every registered hook in registration order.
func (r *Registry) All() []HookDefinition {
	out := make([]HookDefinition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.hooks[id])
	}
	return out
}

// Size returns the number of registered hooks.
func (r *Registry) Size() int {
	return len(r.hooks)
}

// Clear removes all hooks.
func (r *Registry) Clear() {
	r.hooks = make(map[string]HookDefinition)
	r.order = nil
}

// Has reports whether a hook with the given ID is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.hooks[id]
	return ok
}

// Get returns the hook with the given ID, if registered.
func (r *Registry) Get(id string) (HookDefinition, bool) {
	def, ok := r.hooks[id]
	return def, ok
}
