package actions

import (
	"fmt"
	"strings"

	"audiosketch/internal/project"
	"audiosketch/internal/services"
)

// Registry maps action names to implementations in registration order.
type Registry struct {
	order   []string
	actions map[string]Action
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds an action. Names must be unique, markers must be "--name",
// and a declared predecessor must already be registered.
func (r *Registry) Register(a Action) error {
	if a == nil {
		return services.Wrap(services.ErrValidation, "actions", "register", "action is nil", nil)
	}
	name := strings.TrimSpace(a.Name())
	if name == "" {
		return services.Wrap(services.ErrValidation, "actions", "register", "action name is empty", nil)
	}
	if !validMarker(a.Marker()) {
		return services.Wrap(services.ErrValidation, "actions", "register",
			fmt.Sprintf("action %q has invalid marker %q (want %q followed by a name)", name, a.Marker(), MarkerDelimiter), nil)
	}
	if _, exists := r.actions[name]; exists {
		return services.Wrap(services.ErrValidation, "actions", "register", fmt.Sprintf("action %q already registered", name), nil)
	}
	if req := a.Requires(); req != "" {
		if req == name {
			return services.Wrap(services.ErrValidation, "actions", "register", fmt.Sprintf("action %q requires itself", name), nil)
		}
		if _, ok := r.actions[req]; !ok {
			return services.Wrap(services.ErrValidation, "actions", "register", fmt.Sprintf("action %q requires unknown action %q", name, req), nil)
		}
	}
	r.actions[name] = a
	r.order = append(r.order, name)
	return nil
}

// Names lists registered actions in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the named action or ErrUnknownAction.
func (r *Registry) Lookup(name string) (Action, error) {
	a, ok := r.actions[name]
	if !ok {
		return nil, services.Wrap(services.ErrUnknownAction, "actions", "lookup", fmt.Sprintf("no action named %q", name), nil)
	}
	return a, nil
}

// Pending lists the registered actions not yet completed on proj.
func (r *Registry) Pending(proj project.Project) []string {
	var pending []string
	for _, name := range r.order {
		if !proj.ActionCompleted(name) {
			pending = append(pending, name)
		}
	}
	return pending
}
