// Package notify delivers finalized Secret Santa assignments to givers.
//
// Delivery is best-effort: a failed notification is reported to the caller
// but never undoes the assignment it describes.
package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/alienxp03/santa/internal/core"
)

// Notifier tells a giver who they are gifting.
type Notifier interface {
	// Name returns the notifier's identifier (e.g., "log", "emailjs").
	Name() string

	// Notify delivers one assignment. It is called once per committed pair.
	Notify(ctx context.Context, giver, receiver core.Participant) error
}

// Registry manages a collection of named notifiers.
type Registry struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
}

// NewRegistry creates a new notifier registry.
func NewRegistry() *Registry {
	return &Registry{
		notifiers: make(map[string]Notifier),
	}
}

// Register adds a notifier to the registry.
// If a notifier with the same name already exists, it will be replaced.
func (r *Registry) Register(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers[n.Name()] = n
}

// Get retrieves a notifier by name.
func (r *Registry) Get(name string) (Notifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notifiers[name]
	if !ok {
		return nil, fmt.Errorf("notifier not found: %s", name)
	}
	return n, nil
}

// Names returns the sorted names of all registered notifiers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.notifiers))
	for name := range r.notifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select builds a notifier that fans out to the named notifiers.
func (r *Registry) Select(names ...string) (Notifier, error) {
	selected := make([]Notifier, 0, len(names))
	for _, name := range names {
		n, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, n)
	}
	if len(selected) == 1 {
		return selected[0], nil
	}
	return Multi(selected...), nil
}

// Func adapts a function to the Notifier interface.
type Func struct {
	ID string
	Fn func(ctx context.Context, giver, receiver core.Participant) error
}

// Name implements Notifier.
func (f Func) Name() string { return f.ID }

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, giver, receiver core.Participant) error {
	return f.Fn(ctx, giver, receiver)
}
