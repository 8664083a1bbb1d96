package namedscope

import (
	"sync"

	"github.com/juju/errors"

	"github.com/medion-go/di"
	"github.com/medion-go/di/errorx"
)

// ScopeName holds the name a scope was created with. Every scope has its own
// holder; scopes created without CreateNamedScope keep it unnamed.
type ScopeName struct {
	mu    sync.Mutex
	name  string
	named bool
}

func newScopeName() *ScopeName {
	return &ScopeName{}
}

// Name returns the scope name and whether one was set.
func (s *ScopeName) Name() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name, s.named
}

func (s *ScopeName) assign(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.named {
		return &errorx.ScopeNameAssignedError{Name: s.name}
	}
	s.name, s.named = name, true
	return nil
}

// NameOf returns the name of the scope c resolves from.
func NameOf(c di.Container) (string, bool) {
	holder, err := di.TryGet[*ScopeName](c)
	if err != nil || holder == nil {
		return "", false
	}
	return holder.Name()
}

// CreateNamedScope creates a scope from sf and names it before anything is
// resolved in it.
func CreateNamedScope(sf di.ScopeFactory, name string) (di.Scope, error) {
	if name == "" {
		return nil, errorx.NewArgumentError("the scope name is empty")
	}

	scope := sf.CreateScope()
	holder, err := di.TryGet[*ScopeName](scope.Container())
	if err != nil {
		scope.Dispose()
		return nil, errors.Annotatef(err, "create named scope %q", name)
	}
	if err := holder.assign(name); err != nil {
		scope.Dispose()
		return nil, errors.Trace(err)
	}
	return scope, nil
}

// CreateNamedScopeFrom creates a named scope with the ScopeFactory of c.
func CreateNamedScopeFrom(c di.Container, name string) (di.Scope, error) {
	sf, err := di.TryGet[di.ScopeFactory](c)
	if err != nil {
		return nil, errors.Annotatef(err, "create named scope %q", name)
	}
	return CreateNamedScope(sf, name)
}
