package procedure

import (
	"sort"
	"sync"
)

// Registry tracks the artifact paths that have a run in progress.
// At most one run per path is admitted at a time.
//
// A Registry is shared by every Orchestrator that must coordinate; the
// zero value is not usable, use NewRegistry.
type Registry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]struct{})}
}

// TryAcquire admits a run on path. It returns ok=false without blocking
// if a run on path is already active. The returned release removes the
// entry; calling it more than once has no further effect.
func (r *Registry) TryAcquire(path string) (release func(), ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.active[path]; busy {
		return nil, false
	}
	r.active[path] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.active, path)
			r.mu.Unlock()
		})
	}, true
}

// Active reports whether a run on path is in progress.
func (r *Registry) Active(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[path]
	return ok
}

// Paths returns the active paths, sorted.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, 0, len(r.active))
	for p := range r.active {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
