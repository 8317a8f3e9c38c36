package tools

import (
	"sync"

	"github.com/aescanero/agor/pkg/ports"
)

// Registry is a name-keyed tool collection implementing ToolSource.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ports.Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ports.Tool)}
}

// Register adds a tool, replacing any existing tool of the same name.
func (r *Registry) Register(tool ports.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get resolves a tool by name.
func (r *Registry) Get(name string) (ports.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Descriptors returns descriptors for the named tools, skipping names
// that do not resolve.
func (r *Registry) Descriptors(names []string) []ports.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ports.ToolDescriptor, 0, len(names))
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			continue
		}
		out = append(out, ports.ToolDescriptor{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return out
}
