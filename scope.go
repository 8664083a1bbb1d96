package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/medion-go/di/errorx"
	"github.com/medion-go/di/reflectx"
)

type scopeEntry struct {
	sync.Mutex
	done  bool
	value any
}

type ContainerEngineScope struct {
	ID               uuid.UUID
	RootContainer    *container
	IsRootScope      bool
	ResolvedServices map[ServiceCacheKey]*scopeEntry
	Locker           *sync.Mutex
	disposed         bool
	disposables      []Disposable
}

func (s *ContainerEngineScope) Get(serviceType reflect.Type) (any, error) {
	return s.get(context.Background(), Identity{Type: serviceType})
}

func (s *ContainerEngineScope) GetKeyed(serviceType reflect.Type, key any) (any, error) {
	return s.get(context.Background(), Identity{Type: serviceType, Key: key})
}

func (s *ContainerEngineScope) get(ctx context.Context, identity Identity) (any, error) {
	if s.isDisposed() {
		return nil, &errorx.ObjectDisposedError{Message: reflectx.TypeOf[Container]().String()}
	}

	return s.RootContainer.GetWithScope(ctx, identity, s)
}

func (s *ContainerEngineScope) Context() context.Context {
	return context.Background()
}

func (s *ContainerEngineScope) WithContext(ctx context.Context) Container {
	if ctx == nil {
		return s
	}
	return &scopeView{scope: s, ctx: ctx}
}

func (s *ContainerEngineScope) Container() Container {
	return s
}

func (s *ContainerEngineScope) CreateScope() Scope {
	return s.RootContainer.CreateScope()
}

func (s *ContainerEngineScope) Dispose() {
	disposables := s.BeginDispose()
	for i := len(disposables) - 1; i >= 0; i-- {
		disposables[i].Dispose()
	}
}

func (s *ContainerEngineScope) Disposables() []Disposable {
	return s.disposables
}

func (s *ContainerEngineScope) BeginDispose() []Disposable {
	s.Locker.Lock()
	if s.disposed {
		s.Locker.Unlock()
		return nil
	}
	s.disposed = true
	s.Locker.Unlock()

	if s.IsRootScope && !s.RootContainer.IsDisposed() {
		s.RootContainer.Dispose()
	}

	return s.disposables
}

func (s *ContainerEngineScope) isDisposed() bool {
	s.Locker.Lock()
	defer s.Locker.Unlock()
	return s.disposed
}

func (s *ContainerEngineScope) resolvedEntry(key ServiceCacheKey) *scopeEntry {
	s.Locker.Lock()
	defer s.Locker.Unlock()

	entry, ok := s.ResolvedServices[key]
	if !ok {
		entry = &scopeEntry{}
		s.ResolvedServices[key] = entry
	}
	return entry
}

func (s *ContainerEngineScope) CaptureDisposable(service any) (Disposable, error) {
	d, ok := service.(Disposable)
	if service == s || !ok {
		return d, nil
	}

	disposed := false
	s.Locker.Lock()
	if s.disposed {
		disposed = true
	} else {
		s.disposables = append(s.disposables, d)
	}
	s.Locker.Unlock()

	if disposed {
		d.Dispose()
		return d, fmt.Errorf("capture disposable service '%v', scope disposed", reflect.TypeOf(service))
	}

	return d, nil

}

func newEngineScope(c *container, isRootScope bool) *ContainerEngineScope {
	return &ContainerEngineScope{
		ID:               uuid.New(),
		RootContainer:    c,
		IsRootScope:      isRootScope,
		ResolvedServices: make(map[ServiceCacheKey]*scopeEntry),
		Locker:           new(sync.Mutex),
		disposables:      make([]Disposable, 0),
	}
}

// scopeView resolves from a scope with a caller supplied context.
type scopeView struct {
	scope *ContainerEngineScope
	ctx   context.Context
}

func (v *scopeView) Get(serviceType reflect.Type) (any, error) {
	return v.scope.get(v.ctx, Identity{Type: serviceType})
}

func (v *scopeView) GetKeyed(serviceType reflect.Type, key any) (any, error) {
	return v.scope.get(v.ctx, Identity{Type: serviceType, Key: key})
}

func (v *scopeView) Context() context.Context {
	return v.ctx
}

func (v *scopeView) WithContext(ctx context.Context) Container {
	return v.scope.WithContext(ctx)
}

func (v *scopeView) CreateScope() Scope {
	return v.scope.CreateScope()
}

// ScopeID returns the identifier of the engine scope behind c, if any.
func ScopeID(c Container) (uuid.UUID, bool) {
	switch s := c.(type) {
	case *ContainerEngineScope:
		return s.ID, true
	case *scopeView:
		return s.scope.ID, true
	case *container:
		return s.Root.ID, true
	default:
		return uuid.Nil, false
	}
}
