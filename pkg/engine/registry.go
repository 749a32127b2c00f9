// pkg/engine/registry.go - task type registration and late-bound dispatch.

package engine

import (
	"context"
	"fmt"

	"github.com/windowsadmins/winforge/pkg/catalog"
)

// Status is a task's state relative to its desired end state. It is derived,
// transient, and recomputed from live system inspection on every render.
type Status int

const (
	StatusPending Status = iota
	StatusApplied
	StatusAppliedNotRevertible
	StatusError
	StatusEngineError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusApplied:
		return "Applied"
	case StatusAppliedNotRevertible:
		return "Applied (not revertible)"
	case StatusError:
		return "Error"
	case StatusEngineError:
		return "Engine error"
	default:
		return "Unknown"
	}
}

// VerifyFunc computes a task's current status. Verify implementations must
// be read-only and treat expected absence of the target as StatusPending.
type VerifyFunc func(ctx context.Context, env *Env, t catalog.Task) (Status, error)

// ApplyFunc performs (or undoes) the task's change.
type ApplyFunc func(ctx context.Context, env *Env, t catalog.Task) error

// Handlers is the Verify/Apply/Revert triple registered for a task type.
// A nil Revert marks the type as not revertible through the engine.
type Handlers struct {
	Verify VerifyFunc
	Apply  ApplyFunc
	Revert ApplyFunc
}

// Registry maps catalog type names to their handler triples. It is populated
// once at startup; new task types are added by registering, not by editing
// the dispatch loop.
type Registry struct {
	handlers map[string]Handlers
}

// NewRegistry returns an empty type registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handlers)}
}

// Register installs the handler triple for a type name. Registering the same
// name twice is a programming error.
func (r *Registry) Register(typeName string, h Handlers) {
	if _, exists := r.handlers[typeName]; exists {
		panic(fmt.Sprintf("engine: task type %q registered twice", typeName))
	}
	if h.Verify == nil || h.Apply == nil {
		panic(fmt.Sprintf("engine: task type %q needs Verify and Apply handlers", typeName))
	}
	r.handlers[typeName] = h
}

// Alias registers a type that reuses another type's handlers, optionally
// transformed. This keeps composed variants (shell restart around a registry
// write) as delegation instead of copies.
func (r *Registry) Alias(alias, base string, wrap func(Handlers) Handlers) {
	h, ok := r.handlers[base]
	if !ok {
		panic(fmt.Sprintf("engine: alias %q refers to unregistered type %q", alias, base))
	}
	if wrap != nil {
		h = wrap(h)
	}
	r.Register(alias, h)
}

// Lookup resolves a type name to its handlers.
func (r *Registry) Lookup(typeName string) (Handlers, bool) {
	h, ok := r.handlers[typeName]
	return h, ok
}

// Types returns the registered type names (for diagnostics).
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
