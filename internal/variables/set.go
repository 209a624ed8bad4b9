package variables

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"dashgrid/internal/scene"
)

var (
	ErrUnknownVariable = errors.New("unknown variable")
	ErrNotSelectable   = errors.New("variable does not accept a selection")
)

// Change is published when an update of one or more variables completed.
type Change struct {
	Names []string
}

// Has reports whether name is part of the change.
func (c Change) Has(name string) bool {
	return slices.Contains(c.Names, name)
}

type listener struct {
	fn     func(Change)
	active bool
}

// Set is one variable scope. Lookups fall through to the parent scope, so a
// repeated instance can shadow a single variable and inherit the rest.
type Set struct {
	mu        sync.RWMutex
	parent    *Set
	vars      []Variable
	listeners []*listener
}

// NewSet creates a scope below parent (nil for the dashboard root).
func NewSet(parent *Set, vars ...Variable) *Set {
	return &Set{parent: parent, vars: slices.Clone(vars)}
}

// Parent returns the enclosing scope.
func (s *Set) Parent() *Set {
	if s == nil {
		return nil
	}
	return s.parent
}

// Add registers v in this scope, replacing a variable of the same name.
func (s *Set) Add(v Variable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.vars {
		if existing.Name() == v.Name() {
			s.vars[i] = v
			return
		}
	}
	s.vars = append(s.vars, v)
}

// Variables returns the variables declared in this scope only.
func (s *Set) Variables() []Variable {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.vars)
}

// Lookup finds name in this scope only.
func (s *Set) Lookup(name string) (Variable, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.vars {
		if v.Name() == name {
			return v, true
		}
	}
	return nil, false
}

// Resolve finds name in scope or the nearest enclosing scope declaring it.
func Resolve(name string, scope *Set) (Variable, bool) {
	for s := scope; s != nil; s = s.parent {
		if v, ok := s.Lookup(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Subscribe calls fn whenever an update completes in this scope or an
// enclosing one. Updates to names shadowed by a closer scope are filtered out.
func (s *Set) Subscribe(fn func(Change)) scene.Unbind {
	var unbinds []scene.Unbind
	var shadowed []string
	for scope := s; scope != nil; scope = scope.parent {
		hidden := slices.Clone(shadowed)
		unbinds = append(unbinds, scope.listen(func(c Change) {
			names := make([]string, 0, len(c.Names))
			for _, n := range c.Names {
				if !slices.Contains(hidden, n) {
					names = append(names, n)
				}
			}
			if len(names) > 0 {
				fn(Change{Names: names})
			}
		}))
		for _, v := range scope.Variables() {
			shadowed = append(shadowed, v.Name())
		}
	}
	return func() {
		for _, u := range unbinds {
			u()
		}
	}
}

func (s *Set) listen(fn func(Change)) scene.Unbind {
	l := &listener{fn: fn, active: true}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		l.active = false
		s.mu.Unlock()
	}
}

// Notify publishes an "update completed" change for names.
func (s *Set) Notify(names ...string) {
	if len(names) == 0 {
		return
	}

	s.mu.Lock()
	active := s.listeners[:0]
	for _, l := range s.listeners {
		if l.active {
			active = append(active, l)
		}
	}
	s.listeners = active
	targets := slices.Clone(active)
	s.mu.Unlock()

	change := Change{Names: slices.Clone(names)}
	for _, l := range targets {
		// A listener released by an earlier callback must not fire.
		s.mu.RLock()
		active := l.active
		s.mu.RUnlock()
		if active {
			l.fn(change)
		}
	}
}

func (s *Set) custom(name string) (*Custom, error) {
	v, ok := Resolve(name, s)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	c, ok := v.(*Custom)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotSelectable, name)
	}
	return c, nil
}

// Select changes the selection of a custom variable and, unless the variable
// is loading, publishes the completed update.
func (s *Set) Select(name string, values ...string) error {
	c, err := s.custom(name)
	if err != nil {
		return err
	}
	c.SetCurrent(values...)
	if !c.IsLoading() {
		s.owner(name).Notify(name)
	}
	return nil
}

// SetOptions replaces the options of a custom variable and publishes the update.
func (s *Set) SetOptions(name string, options []Option) error {
	c, err := s.custom(name)
	if err != nil {
		return err
	}
	c.SetOptions(options)
	if !c.IsLoading() {
		s.owner(name).Notify(name)
	}
	return nil
}

// SetLoading marks a custom variable as loading. Clearing the flag publishes
// the completed update.
func (s *Set) SetLoading(name string, loading bool) error {
	c, err := s.custom(name)
	if err != nil {
		return err
	}
	c.SetLoading(loading)
	if !loading {
		s.owner(name).Notify(name)
	}
	return nil
}

// owner returns the scope declaring name, starting from s.
func (s *Set) owner(name string) *Set {
	for scope := s; scope != nil; scope = scope.parent {
		if _, ok := scope.Lookup(name); ok {
			return scope
		}
	}
	return s
}
