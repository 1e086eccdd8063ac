package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// loadConcurrency bounds the number of in-flight content reads in LoadAll.
const loadConcurrency = 8

// ContentNotFoundError is returned when a hook's resolved content path
// cannot be read. Batch loads collect it per item instead of raising.
type ContentNotFoundError struct {
	HookID string
	Path   string
	Err    error
}

func (e *ContentNotFoundError) Error() string {
	return fmt.Sprintf("content for hook %q not found at %s: %v", e.HookID, e.Path, e.Err)
}

func (e *ContentNotFoundError) Unwrap() error {
	return e.Err
}

// Resolver turns hook definitions into resolved hooks by loading their
// guidance text from a base directory, with a path-keyed cache.
type Resolver struct {
	baseDir string

	mu      sync.Mutex
	cache   map[string]string
	inline  map[string]string
	caching bool
}

// NewResolver creates a resolver rooted at baseDir with caching enabled.
func NewResolver(baseDir string) *Resolver {
	return &Resolver{
		baseDir: baseDir,
		cache:   make(map[string]string),
		inline:  make(map[string]string),
		caching: true,
	}
}

// SetInline registers content for a hook ID so that Load serves it
// without touching storage. Used for dynamically registered hooks.
func (r *Resolver) SetInline(hookID, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inline[hookID] = content
}

// ContentPath returns the path the resolver would read for a definition:
// the explicit ContentFile when set (joined to the base directory unless
// absolute), otherwise the convention-based sibling file "<tag>.md".
func (r *Resolver) ContentPath(def *HookDefinition) string {
	if def.ContentFile != "" {
		if filepath.IsAbs(def.ContentFile) {
			return def.ContentFile
		}
		return filepath.Join(r.baseDir, def.ContentFile)
	}
	return filepath.Join(r.baseDir, def.Tag+".md")
}

// Load resolves one hook, consulting the cache first. Returns a
// ContentNotFoundError when the resolved path cannot be read.
func (r *Resolver) Load(def HookDefinition) (ResolvedHook, error) {
	r.mu.Lock()
	inline, hasInline := r.inline[def.ID]
	r.mu.Unlock()
	if hasInline {
		return r.resolved(def, inline, ""), nil
	}

	path := r.ContentPath(&def)

	if content, ok := r.cached(path); ok {
		return r.resolved(def, content, path), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ResolvedHook{}, &ContentNotFoundError{HookID: def.ID, Path: path, Err: err}
	}

	content := string(data)
	r.store(path, content)
	return r.resolved(def, content, path), nil
}

// LoadAll resolves a batch concurrently. A per-item failure does not
// abort the batch; it is recorded in the returned failures with the
// originating hook summary. Resolved hooks keep the input order, which
// the composer relies on for stable tie-breaking.
func (r *Resolver) LoadAll(defs []HookDefinition) ([]ResolvedHook, []LoadFailure) {
	results := make([]*ResolvedHook, len(defs))
	failures := make([]*LoadFailure, len(defs))

	var g errgroup.Group
	g.SetLimit(loadConcurrency)
	for i, def := range defs {
		g.Go(func() error {
			resolved, err := r.Load(def)
			if err != nil {
				failures[i] = &LoadFailure{Hook: def.Summary(), Reason: err.Error()}
				return nil
			}
			results[i] = &resolved
			return nil
		})
	}
	// Workers never return errors; Wait is only a join point.
	_ = g.Wait()

	resolved := make([]ResolvedHook, 0, len(defs))
	var failed []LoadFailure
	for i := range defs {
		if results[i] != nil {
			resolved = append(resolved, *results[i])
		}
		if failures[i] != nil {
			failed = append(failed, *failures[i])
		}
	}
	return resolved, failed
}

// LoadInline resolves a hook from a caller-supplied string, bypassing
// storage entirely. Used for dynamically generated and test content.
func (r *Resolver) LoadInline(def HookDefinition, content string) ResolvedHook {
	return r.resolved(def, content, "")
}

// ClearCache drops all cached content. The cache is never invalidated
// any other way.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]string)
}

// CacheSize returns the number of cached content entries.
func (r *Resolver) CacheSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func (r *Resolver) resolved(def HookDefinition, content, path string) ResolvedHook {
	return ResolvedHook{
		HookDefinition: def,
		Content:        content,
		ContentPath:    path,
		ResolvedAt:     timeNow(),
	}
}

func (r *Resolver) cached(path string) (string, bool) {
	if !r.caching {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	content, ok := r.cache[path]
	return content, ok
}

func (r *Resolver) store(path, content string) {
	if !r.caching {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[path] = content
}
