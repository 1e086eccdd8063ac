package hooks

import (
	"errors"
	"testing"
)

// def is a shorthand constructor for registry tests.
func def(tag string, t HookType, l Lifecycle, level RequirementLevel) HookDefinition {
	return HookDefinition{
		Tag:       tag,
		Name:      "Hook " + tag,
		Type:      t,
		Lifecycle: l,
		Level:     level,
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register(def("one", TypeSession, PhaseStart, LevelMust)); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, err := r.Register(def("one", TypeSession, PhaseStart, LevelMay))
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	var dup *DuplicateHookError
	if !errors.As(err, &dup) {
		t.Fatalf("error type = %T, want *DuplicateHookError", err)
	}
	if dup.ID != "farrier:session:start:one" {
		t.Errorf("duplicate ID = %q", dup.ID)
	}
	if r.Size() != 1 {
		t.Errorf("Size = %d after duplicate, want 1", r.Size())
	}
}

func TestRegisterAllPartialFailure(t *testing.T) {
	// RegisterAll is documented as non-atomic: a failure at item k
	// leaves items 1..k-1 registered.
	r := NewRegistry()
	registered, err := r.RegisterAll([]HookDefinition{
		def("first", TypeSession, PhaseStart, LevelMust),
		def("second", TypeSession, PhaseStart, LevelMust),
		{Tag: "BAD TAG", Name: "Broken", Type: TypeSession, Lifecycle: PhaseStart, Level: LevelMust},
		def("never", TypeSession, PhaseStart, LevelMust),
	})
	if err == nil {
		t.Fatal("expected error from invalid third definition")
	}
	if len(registered) != 2 {
		t.Fatalf("registered = %d hooks, want 2", len(registered))
	}
	if !r.Has("farrier:session:start:first") || !r.Has("farrier:session:start:second") {
		t.Error("items before the failure should remain registered")
	}
	if r.Has("farrier:session:start:never") {
		t.Error("items after the failure must not be registered")
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	stored, _ := r.Register(def("gone", TypeConfig, PhaseEnd, LevelMay))

	if !r.Unregister(stored.ID) {
		t.Error("Unregister existing = false, want true")
	}
	if r.Unregister(stored.ID) {
		t.Error("Unregister twice = true, want false")
	}
	if r.Has(stored.ID) {
		t.Error("hook still present after Unregister")
	}
}

func TestQueryFilters(t *testing.T) {
	r := NewRegistry()
	mustRegister := func(d HookDefinition) HookDefinition {
		t.Helper()
		stored, err := r.Register(d)
		if err != nil {
			t.Fatalf("Register(%q): %v", d.Tag, err)
		}
		return stored
	}

	mustRegister(def("session-start", TypeSession, PhaseStart, LevelMust))
	mustRegister(def("action-running", TypeAction, PhaseRunning, LevelShould))

	tagged := def("tagged", TypeAction, PhaseRunning, LevelMay)
	tagged.Tags = []string{"review", "safety"}
	mustRegister(tagged)

	scoped := def("scoped", TypeAction, PhaseRunning, LevelMust)
	scoped.SessionID = "sess-1"
	mustRegister(scoped)

	conditional := def("conditional", TypeAction, PhaseRunning, LevelMust)
	conditional.Conditions = &Conditions{Storage: []string{"memory"}, Features: []string{"sampling"}}
	mustRegister(conditional)

	tests := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{
			name: "by type and lifecycle",
			opts: QueryOptions{Type: TypeSession, Lifecycle: PhaseStart},
			want: []string{"farrier:session:start:session-start"},
		},
		{
			name: "any-of tags",
			opts: QueryOptions{Tags: []string{"safety", "unrelated"}},
			want: []string{"farrier:action:running:tagged"},
		},
		{
			name: "session scoping excludes other sessions",
			opts: QueryOptions{Type: TypeAction, Lifecycle: PhaseRunning, SessionID: "sess-2"},
			want: []string{"farrier:action:running:action-running", "farrier:action:running:tagged"},
		},
		{
			name: "session scoping matches own session",
			opts: QueryOptions{Type: TypeAction, Lifecycle: PhaseRunning, SessionID: "sess-1"},
			want: []string{
				"farrier:action:running:action-running",
				"farrier:action:running:tagged",
				"farrier:action:running:scoped",
			},
		},
		{
			name: "conditions met includes conditional hook",
			opts: QueryOptions{
				Type: TypeAction, Lifecycle: PhaseRunning,
				Storage: "memory", Feature: "sampling",
			},
			want: []string{
				"farrier:action:running:action-running",
				"farrier:action:running:tagged",
				"farrier:action:running:scoped",
				"farrier:action:running:conditional",
			},
		},
		{
			name: "changing storage alone excludes conditional hook",
			opts: QueryOptions{
				Type: TypeAction, Lifecycle: PhaseRunning,
				Storage: "sqlite", Feature: "sampling",
			},
			want: []string{
				"farrier:action:running:action-running",
				"farrier:action:running:tagged",
				"farrier:action:running:scoped",
			},
		},
		{
			name: "changing feature alone excludes conditional hook",
			opts: QueryOptions{
				Type: TypeAction, Lifecycle: PhaseRunning,
				Storage: "memory", Feature: "elicitation",
			},
			want: []string{
				"farrier:action:running:action-running",
				"farrier:action:running:tagged",
				"farrier:action:running:scoped",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Query(tt.opts)
			ids := make(map[string]bool, len(got))
			for _, d := range got {
				ids[d.ID] = true
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Query returned %d hooks, want %d: %v", len(got), len(tt.want), ids)
			}
			for _, id := range tt.want {
				if !ids[id] {
					t.Errorf("missing expected hook %q", id)
				}
			}
		})
	}
}

func TestQueryPriorityOrdering(t *testing.T) {
	r := NewRegistry()

	low := def("low", TypeAction, PhaseRunning, LevelMust)
	low.Priority = 10
	high := def("high", TypeAction, PhaseRunning, LevelMust)
	high.Priority = 90
	tieA := def("tie-a", TypeAction, PhaseRunning, LevelMust)
	tieA.Priority = 40
	tieB := def("tie-b", TypeAction, PhaseRunning, LevelMust)
	tieB.Priority = 40

	for _, d := range []HookDefinition{low, high, tieA, tieB} {
		if _, err := r.Register(d); err != nil {
			t.Fatalf("Register(%q): %v", d.Tag, err)
		}
	}

	got := r.Query(QueryOptions{Type: TypeAction, Lifecycle: PhaseRunning})
	want := []string{"high", "tie-a", "tie-b", "low"}
	if len(got) != len(want) {
		t.Fatalf("Query returned %d hooks, want %d", len(got), len(want))
	}
	for i, tag := range want {
		if got[i].Tag != tag {
			t.Errorf("position %d = %q, want %q (priority descending, ties keep registration order)", i, got[i].Tag, tag)
		}
	}
}

func TestQuerySkipped(t *testing.T) {
	r := NewRegistry()

	plain := def("plain", TypeSession, PhaseStart, LevelMust)
	guarded := def("guarded", TypeSession, PhaseStart, LevelMust)
	guarded.Conditions = &Conditions{Storage: []string{"memory"}}
	otherPhase := def("other", TypeSession, PhaseEnd, LevelMust)
	otherPhase.Conditions = &Conditions{Storage: []string{"memory"}}

	for _, d := range []HookDefinition{plain, guarded, otherPhase} {
		if _, err := r.Register(d); err != nil {
			t.Fatalf("Register(%q): %v", d.Tag, err)
		}
	}

	skipped := r.QuerySkipped(QueryOptions{Type: TypeSession, Lifecycle: PhaseStart, Storage: "sqlite"})
	if len(skipped) != 1 {
		t.Fatalf("QuerySkipped returned %d, want 1", len(skipped))
	}
	if skipped[0].Hook.ID != "farrier:session:start:guarded" {
		t.Errorf("skipped hook = %q", skipped[0].Hook.ID)
	}
	if skipped[0].Reason != "conditions not met" {
		t.Errorf("skipped reason = %q", skipped[0].Reason)
	}
}

func TestClearAndAll(t *testing.T) {
	r := NewRegistry()
	r.Register(def("a", TypeSession, PhaseStart, LevelMust))
	r.Register(def("b", TypeSession, PhaseStart, LevelMay))

	all := r.All()
	if len(all) != 2 || all[0].Tag != "a" || all[1].Tag != "b" {
		t.Errorf("All = %v, want registration order a, b", all)
	}

	r.Clear()
	if r.Size() != 0 {
		t.Errorf("Size after Clear = %d, want 0", r.Size())
	}
	if got := r.Query(QueryOptions{}); len(got) != 0 {
		t.Errorf("Query after Clear returned %d hooks", len(got))
	}
}

func TestGet(t *testing.T) {
	r := NewRegistry()
	stored, _ := r.Register(def("lookup", TypeStorage, PhaseProgress, LevelShouldNot))

	got, ok := r.Get(stored.ID)
	if !ok {
		t.Fatal("Get existing = false")
	}
	if got.Name != "Hook lookup" {
		t.Errorf("Name = %q", got.Name)
	}
	if _, ok := r.Get("farrier:storage:progress:missing"); ok {
		t.Error("Get missing = true, want false")
	}
}
