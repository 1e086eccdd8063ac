// Package config loads the Farrier server configuration.
//
// Configuration lives in a single YAML file (farrier.yaml by default).
// It declares where hook definitions and content live, the runtime
// context used for hook condition evaluation (storage kind, enabled
// features, arbitrary key/value pairs), the session gating rules, and
// the blocking-hook gates.
package config

import (
	"fmt"
	"os"

	"github.com/HendryAvila/farrier/internal/session"
	"github.com/HendryAvila/farrier/internal/workflow"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "farrier.yaml"

// Config is the root configuration document.
type Config struct {
	// HooksDir holds hooks.yaml plus the content files it references.
	HooksDir string `yaml:"hooks_dir"`

	// StorePath is the SQLite session journal location. Empty disables
	// persistence.
	StorePath string `yaml:"store_path"`

	// Storage, Feature, and Conditions are the runtime context fed into
	// hook condition evaluation on every query.
	Storage    string            `yaml:"storage"`
	Feature    string            `yaml:"feature"`
	Conditions map[string]string `yaml:"conditions"`

	Session SessionConfig `yaml:"session"`

	// BlockingHooks are the workflow gates registered at startup.
	BlockingHooks []workflow.BlockingHookDef `yaml:"blocking_hooks"`
}

// SessionConfig configures the session state machine.
type SessionConfig struct {
	InitTools    []string          `yaml:"init_tools"`
	RequiresInit []string          `yaml:"requires_init"`
	Transitions  map[string]string `yaml:"transitions"`
}

// TrackerConfig converts the YAML shape into the session package's
// config, parsing transition target states.
func (s SessionConfig) TrackerConfig() session.Config {
	transitions := make(map[string]session.State, len(s.Transitions))
	for tool, state := range s.Transitions {
		transitions[tool] = session.State(state)
	}
	return session.Config{
		InitTools:    s.InitTools,
		RequiresInit: s.RequiresInit,
		Transitions:  transitions,
	}
}

// Default returns the configuration used when no file exists: hooks in
// ./hooks, journal in ./farrier.db, memory storage, and the built-in
// tool names wired for init gating.
func Default() *Config {
	return &Config{
		HooksDir:  "hooks",
		StorePath: "farrier.db",
		Storage:   "memory",
		Session: SessionConfig{
			InitTools: []string{
				"farrier_session_init",
				"farrier_status",
				"farrier_complete_hook",
				"farrier_register_hook",
			},
			RequiresInit: []string{"farrier_guidance"},
			Transitions: map[string]string{
				"farrier_session_init": string(session.StateInitialized),
			},
		},
	}
}

// Load reads configuration from path. A missing file is not an error:
// the defaults are returned so the server can start unconfigured.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
