// Package registry holds the named root schemas the CLI can build. Schema
// packages register their models from init; the CLI looks them up by the
// -schema flag.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/specialistvlad/baf"
)

// Registry maps schema names to their root models for one application
// instance.
type Registry struct {
	mu      sync.Mutex
	schemas map[string]baf.Model
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{schemas: make(map[string]baf.Model)}
}

// Default is the process-wide registry that schema packages register into.
var Default = New()

// Register adds a named root schema. Registering the same name twice is a
// wiring bug and panics.
func (r *Registry) Register(name string, model baf.Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[name]; exists {
		panic(fmt.Sprintf("schema with name %q already registered", name))
	}
	slog.Debug("Registering schema.", "name", name, "root", model.TypeName())
	r.schemas[name] = model
}

// Lookup returns the model registered under name.
func (r *Registry) Lookup(name string) (baf.Model, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.schemas[name]
	return m, ok
}

// Names returns the registered schema names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
