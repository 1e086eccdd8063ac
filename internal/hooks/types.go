// Package hooks implements the hook model, registry, and content resolver.
//
// A hook is a unit of normative guidance text tied to a lifecycle phase and
// an RFC 2119 requirement level. Hooks are registered once, queried per
// lifecycle event under runtime conditions, resolved to their content, and
// handed to the composer (internal/compose) to be merged into one document.
//
// This package follows the same design principles as the rest of Farrier:
// - SRP: types, registry, and resolver in separate files
// - Enums are string types with explicit validation maps
// - Query/lookup never errors for expected misses; only Register validates
package hooks

import (
	"fmt"
	"regexp"
	"time"
)

// DefaultApp is the owning namespace used when a definition leaves App empty.
const DefaultApp = "farrier"

// DefaultPriority is assigned when a definition leaves Priority at zero.
// Larger priority means earlier within a requirement-level group.
const DefaultPriority = 50

// --- Hook type enum ---

// HookType categorizes why a hook fires.
type HookType string

const (
	TypeSession HookType = "session"
	TypeAction  HookType = "action"
	TypeStorage HookType = "storage"
	TypeConfig  HookType = "config"
)

// validTypes is the set of allowed hook types.
var validTypes = map[HookType]bool{
	TypeSession: true,
	TypeAction:  true,
	TypeStorage: true,
	TypeConfig:  true,
}

// ValidateType returns an error if the hook type is not recognized.
func ValidateType(t HookType) error {
	if !validTypes[t] {
		return fmt.Errorf("invalid hook type %q: must be one of: session, action, storage, config", t)
	}
	return nil
}

// --- Lifecycle enum ---

// Lifecycle identifies when a hook fires within a session or operation.
type Lifecycle string

const (
	PhaseStart    Lifecycle = "start"
	PhaseRunning  Lifecycle = "running"
	PhaseProgress Lifecycle = "progress"
	PhaseCancel   Lifecycle = "cancel"
	PhaseEnd      Lifecycle = "end"
)

// validLifecycles is the set of allowed lifecycle phases.
var validLifecycles = map[Lifecycle]bool{
	PhaseStart:    true,
	PhaseRunning:  true,
	PhaseProgress: true,
	PhaseCancel:   true,
	PhaseEnd:      true,
}

// ValidateLifecycle returns an error if the phase is not recognized.
func ValidateLifecycle(l Lifecycle) error {
	if !validLifecycles[l] {
		return fmt.Errorf("invalid lifecycle %q: must be one of: start, running, progress, cancel, end", l)
	}
	return nil
}

// --- Requirement level enum ---

// RequirementLevel is the RFC 2119 normative strength of a hook. It decides
// which section of the composed document the hook lands in.
type RequirementLevel string

const (
	LevelMust      RequirementLevel = "MUST"
	LevelMustNot   RequirementLevel = "MUST NOT"
	LevelShould    RequirementLevel = "SHOULD"
	LevelShouldNot RequirementLevel = "SHOULD NOT"
	LevelMay       RequirementLevel = "MAY"
)

// LevelOrder is the fixed section order in composed output, strongest first.
var LevelOrder = []RequirementLevel{
	LevelMust,
	LevelMustNot,
	LevelShould,
	LevelShouldNot,
	LevelMay,
}

// validLevels is the set of allowed requirement levels.
var validLevels = map[RequirementLevel]bool{
	LevelMust:      true,
	LevelMustNot:   true,
	LevelShould:    true,
	LevelShouldNot: true,
	LevelMay:       true,
}

// ValidateLevel returns an error if the level is not a valid RFC 2119 keyword.
func ValidateLevel(l RequirementLevel) error {
	if !validLevels[l] {
		return fmt.Errorf("invalid requirement level %q: must be one of: MUST, MUST NOT, SHOULD, SHOULD NOT, MAY", l)
	}
	return nil
}

// --- Conditions ---

// Conditions describes when a hook is eligible for a query. All present
// fields must hold (conjunction); an absent field imposes no constraint.
type Conditions struct {
	// Storage lists acceptable backing-store kinds. The supplied storage
	// must be one of them.
	Storage []string `json:"storage,omitempty" yaml:"storage,omitempty"`

	// Features lists acceptable feature names. The supplied feature must
	// be one of them.
	Features []string `json:"features,omitempty" yaml:"features,omitempty"`

	// Config requires every key to equal the supplied context map's value.
	Config map[string]string `json:"config,omitempty" yaml:"config,omitempty"`
}

// Match evaluates the conditions against the supplied runtime context.
// A nil Conditions matches everything.
func (c *Conditions) Match(storage, feature string, config map[string]string) bool {
	if c == nil {
		return true
	}
	if len(c.Storage) > 0 && !contains(c.Storage, storage) {
		return false
	}
	if len(c.Features) > 0 && !contains(c.Features, feature) {
		return false
	}
	for key, want := range c.Config {
		if config[key] != want {
			return false
		}
	}
	return true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// --- Hook definition ---

// tagPattern enforces kebab-case tags: lowercase alphanumeric runs
// separated by single hyphens.
var tagPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// HookDefinition is the registered form of a hook. It is immutable once
// registered: the registry stores it by value and hands out copies.
//
// ID is never set by callers; it is derived as "app:type:lifecycle:tag"
// during registration, and that derivation is the registry key.
type HookDefinition struct {
	ID  string `json:"id" yaml:"-"`
	App string `json:"app,omitempty" yaml:"app,omitempty"`
	Tag string `json:"tag" yaml:"tag"`

	Type      HookType  `json:"type" yaml:"type"`
	Lifecycle Lifecycle `json:"lifecycle" yaml:"lifecycle"`

	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Level    RequirementLevel `json:"requirement_level" yaml:"requirement_level"`
	Priority int              `json:"priority,omitempty" yaml:"priority,omitempty"`

	// ContentFile is an explicit content path. When empty, the resolver
	// falls back to the convention-based sibling file "<tag>.md".
	ContentFile string `json:"content_file,omitempty" yaml:"content_file,omitempty"`

	// Dependencies lists hook IDs that must be emitted before this hook
	// in composed output. Ordering constraint only: IDs absent from the
	// composed set are ignored, never an error.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`

	// Blocking declares that this hook is a gate operations can depend on
	// being satisfied. Consumed by the workflow tracker; the composer only
	// surfaces the ID.
	Blocking bool `json:"blocking,omitempty" yaml:"blocking,omitempty"`

	Conditions *Conditions `json:"conditions,omitempty" yaml:"conditions,omitempty"`

	// SessionID and RequestID scope the hook to one running session or
	// one in-flight request. The hook matches a query only when the
	// query leaves the field unset or supplies the exact value.
	SessionID string `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	RequestID string `json:"request_id,omitempty" yaml:"request_id,omitempty"`

	// Tags are free-form labels for secondary filtering.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ComputeID derives the registry key for a definition.
func ComputeID(app string, t HookType, l Lifecycle, tag string) string {
	return fmt.Sprintf("%s:%s:%s:%s", app, t, l, tag)
}

// normalize applies defaults in place. Called before validation so the
// validated form is exactly what gets stored.
func (d *HookDefinition) normalize() {
	if d.App == "" {
		d.App = DefaultApp
	}
	if d.Priority == 0 {
		d.Priority = DefaultPriority
	}
	d.ID = ComputeID(d.App, d.Type, d.Lifecycle, d.Tag)
}

// validate checks the definition's invariants. Registration is the only
// caller; malformed definitions never reach query or compose time.
func (d *HookDefinition) validate() error {
	if d.Tag == "" {
		return fmt.Errorf("hook tag is required")
	}
	if !tagPattern.MatchString(d.Tag) {
		return fmt.Errorf("invalid hook tag %q: must be kebab-case (lowercase letters, digits, single hyphens)", d.Tag)
	}
	if d.Name == "" {
		return fmt.Errorf("hook %q: name is required", d.Tag)
	}
	if err := ValidateType(d.Type); err != nil {
		return fmt.Errorf("hook %q: %w", d.Tag, err)
	}
	if err := ValidateLifecycle(d.Lifecycle); err != nil {
		return fmt.Errorf("hook %q: %w", d.Tag, err)
	}
	if err := ValidateLevel(d.Level); err != nil {
		return fmt.Errorf("hook %q: %w", d.Tag, err)
	}
	return nil
}

// Summary returns the lightweight form used in composed results.
func (d *HookDefinition) Summary() HookSummary {
	return HookSummary{
		ID:       d.ID,
		Name:     d.Name,
		Level:    d.Level,
		Priority: d.Priority,
	}
}

// --- Resolved hook ---

// ResolvedHook is a definition plus its loaded guidance text. Created by
// the Resolver at query time, never mutated, discarded after one
// composition.
type ResolvedHook struct {
	HookDefinition

	Content     string    `json:"content"`
	ContentPath string    `json:"content_path,omitempty"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// HookSummary identifies a hook inside a composed result.
type HookSummary struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Level    RequirementLevel `json:"requirement_level"`
	Priority int              `json:"priority"`
}

// LoadFailure records a per-hook content-resolution failure. Batch loads
// collect these instead of aborting.
type LoadFailure struct {
	Hook   HookSummary `json:"hook"`
	Reason string      `json:"reason"`
}
