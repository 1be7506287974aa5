package variable

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Scope is an ordered collection of uniquely named variables with an
// optional parent. A graph's blackboard is a scope; hosts chain blackboards
// under a shared scope to let graphs exchange state.
type Scope struct {
	name   string
	mu     sync.RWMutex
	parent *Scope
	vars   map[string]Variable
	order  []string
}

// NewScope returns an empty scope. parent may be nil.
func NewScope(name string, parent *Scope) *Scope {
	return &Scope{name: name, parent: parent, vars: make(map[string]Variable)}
}

func (s *Scope) Name() string { return s.name }

func (s *Scope) Parent() *Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parent
}

// Add inserts v. Names are unique within a scope.
func (s *Scope) Add(v Variable) error {
	if v == nil {
		return errors.New("cannot add a nil variable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.vars[v.Name()]; exists {
		return fmt.Errorf("variable %q already declared in scope %q", v.Name(), s.name)
	}
	s.vars[v.Name()] = v
	s.order = append(s.order, v.Name())
	return nil
}

// Get returns the variable declared directly in s.
func (s *Scope) Get(name string) (Variable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v, ok
}

// Lookup searches s and then its ancestors.
func (s *Scope) Lookup(name string) (Variable, bool) {
	for cur := s; cur != nil; cur = cur.Parent() {
		if v, ok := cur.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Variables returns the variables of s in declaration order.
func (s *Scope) Variables() []Variable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Variable, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.vars[name])
	}
	return out
}

func (s *Scope) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// BindParent attaches s under parent and binds its shared and global
// variables to their ancestors. A shared variable binds to the nearest
// ancestor variable of the same name, a global variable to the root-most
// one. Variables with no matching ancestor stay local.
func (s *Scope) BindParent(parent *Scope) error {
	for cur := parent; cur != nil; cur = cur.Parent() {
		if cur == s {
			return fmt.Errorf("scope %q cannot be its own ancestor", s.name)
		}
	}

	s.mu.Lock()
	s.parent = parent
	s.mu.Unlock()

	var errs []error
	for _, v := range s.Variables() {
		var target Variable
		switch {
		case v.Flags().Has(Global):
			target = rootMost(parent, v.Name())
		case v.Flags().Has(Shared):
			target, _ = lookupOrNil(parent, v.Name())
		default:
			continue
		}
		if target == nil {
			continue
		}
		if err := v.BindAny(target); err != nil {
			errs = append(errs, fmt.Errorf("bind %q to scope %q: %w", v.Name(), parent.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func lookupOrNil(s *Scope, name string) (Variable, bool) {
	if s == nil {
		return nil, false
	}
	return s.Lookup(name)
}

func rootMost(s *Scope, name string) Variable {
	var found Variable
	for cur := s; cur != nil; cur = cur.Parent() {
		if v, ok := cur.Get(name); ok {
			found = v
		}
	}
	return found
}

// Dispose clears the redirection of every variable in s and detaches it
// from its parent.
func (s *Scope) Dispose() {
	for _, v := range s.Variables() {
		v.Dispose()
	}
	s.mu.Lock()
	s.parent = nil
	s.mu.Unlock()
}

// Get returns the variable called name in s or its ancestors, typed as T.
func Get[T any](s *Scope, name string) (*Var[T], error) {
	v, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("variable %q not found in scope %q", name, s.Name())
	}
	typed, ok := v.(*Var[T])
	if !ok {
		return nil, &TypeMismatchError{Name: name, Want: v.ValueType(), Got: reflect.TypeFor[T]()}
	}
	return typed, nil
}
