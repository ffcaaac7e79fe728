package task

import (
	"fmt"
	"sort"
	"sync"

	caterrors "github.com/maxkimambo/cgaprov/internal/errors"
)

// Factory builds a task of one kind from name/value bindings
type Factory struct {
	Kind        string
	Description string
	// Params lists the accepted parameter names in declaration order
	Params []string
	New    func(bindings map[string]string) (Task, error)
}

// Registry maps task kinds to their factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Registering a kind twice is an error.
func (r *Registry) Register(f Factory) error {
	if f.Kind == "" {
		return fmt.Errorf("factory kind cannot be empty")
	}
	if f.New == nil {
		return fmt.Errorf("factory %s has no constructor", f.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[f.Kind]; exists {
		return fmt.Errorf("task kind %s already registered", f.Kind)
	}
	r.factories[f.Kind] = f
	return nil
}

// Kinds returns the registered kinds sorted by name
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Factory returns the factory for kind
func (r *Registry) Factory(kind string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[kind]
	return f, ok
}

// Build constructs a task of the given kind. Unknown kinds and unknown
// parameter names are configuration errors.
func (r *Registry) Build(kind string, bindings map[string]string) (Task, error) {
	f, ok := r.Factory(kind)
	if !ok {
		return nil, caterrors.NewUnknownKindError(kind, r.Kinds())
	}

	accepted := make(map[string]bool, len(f.Params))
	for _, name := range f.Params {
		accepted[name] = true
	}
	for name := range bindings {
		if !accepted[name] {
			return nil, caterrors.NewConfigurationError(caterrors.CodeParamUnresolved,
				fmt.Sprintf("Task kind %s has no parameter '%s'", kind, name),
				"Task construction").
				WithContext("kind", kind).
				WithContext("parameter", name).
				WithTroubleshooting(fmt.Sprintf("Accepted parameters: %v", f.Params))
		}
	}

	return f.New(bindings)
}
