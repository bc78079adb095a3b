package strategy

import (
	"fmt"
	"sync"

	"github.com/andybalholm/cascadia"
)

// Registry maps resort IDs to their site strategy. Resorts without an entry
// use the generic rules only.
type Registry struct {
	mu    sync.RWMutex
	sites map[string]Site
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sites: make(map[string]Site)}
}

// Builtin returns a registry holding the strategies known for the default
// resort list.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register("getokogen", LabeledCell{Labels{Snow: "積雪", Status: "営業状況", Courses: "滑走可能コース"}})
	r.Register("tazawako", DefinitionList{Labels{Snow: "積雪", Status: "営業状況"}})
	r.Register("opas", Scoped{Selector: "#info, .info, .news"})
	return r
}

// Register sets the strategy for a resort, replacing any previous entry.
func (r *Registry) Register(resortID string, site Site) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sites[resortID] = site
}

// Resolve returns the strategy registered for a resort.
func (r *Registry) Resolve(resortID string) (Site, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	site, ok := r.sites[resortID]
	return site, ok
}

// Len returns the number of registered strategies.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sites)
}

func compileSelector(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return sel, nil
}
