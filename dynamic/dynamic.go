// Package dynamic provides a container that can be rebuilt from its registry
// until the first scope is created from it.
package dynamic

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medion-go/di"
)

type State int32

const (
	// Buildable containers accept TryRebuild.
	Buildable State = iota
	// Frozen containers have created a scope; the state is never left.
	Frozen
)

func (s State) String() string {
	switch s {
	case Buildable:
		return "Buildable"
	case Frozen:
		return "Frozen"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Container wraps the container built from a registry. It resolves through
// the container of the last successful build and is its own ScopeFactory.
type Container struct {
	mu      sync.RWMutex
	builder di.ContainerBuilder
	inner   di.Container
	state   atomic.Int32
	logger  *zap.Logger
}

var (
	_ di.Container    = (*Container)(nil)
	_ di.ScopeFactory = (*Container)(nil)
	_ di.Disposable   = (*Container)(nil)
)

// New builds b and wraps the result. The container keeps b and applies every
// rebuild to it.
func New(b di.ContainerBuilder) *Container {
	c := &Container{builder: b, logger: b.Options().Log()}
	b.ConfigureOptions(func(o *di.Options) {
		next := o.ScopeCreated
		o.ScopeCreated = func(id uuid.UUID) {
			c.freeze(id)
			if next != nil {
				next(id)
			}
		}
	})
	c.inner = b.Build()
	return c
}

func (c *Container) current() di.Container {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inner
}

func (c *Container) freeze(id uuid.UUID) {
	if c.state.CompareAndSwap(int32(Buildable), int32(Frozen)) {
		c.logger.Debug("container frozen", zap.Stringer("scope", id))
	}
}

func (c *Container) State() State {
	return State(c.state.Load())
}

func (c *Container) Get(serviceType reflect.Type) (any, error) {
	if serviceType == di.ScopeFactoryType {
		return c, nil
	}
	return c.current().Get(serviceType)
}

func (c *Container) GetKeyed(serviceType reflect.Type, key any) (any, error) {
	if key == nil {
		return c.Get(serviceType)
	}
	return c.current().GetKeyed(serviceType, key)
}

func (c *Container) Context() context.Context {
	return context.Background()
}

func (c *Container) WithContext(ctx context.Context) di.Container {
	if ctx == nil {
		return c
	}
	return &view{owner: c, ctx: ctx}
}

// CreateScope creates a scope of the current container and freezes c.
func (c *Container) CreateScope() di.Scope {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return di.Get[di.ScopeFactory](c.inner).CreateScope()
}

// TryRebuild applies configure to the registry and replaces the current
// container with a new build of it. It returns false, leaving the registry
// untouched, once a scope was created. It also returns false when the build
// fails; the registry then keeps the changes of configure.
func (c *Container) TryRebuild(configure func(di.ContainerBuilder)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() == Frozen {
		c.logger.Debug("container rebuild rejected", zap.Stringer("state", Frozen))
		return false
	}

	configure(c.builder)

	built, err := build(c.builder)
	if err != nil {
		c.logger.Error("container rebuild failed", zap.Error(err))
		return false
	}

	c.inner = built
	c.logger.Debug("container rebuilt", zap.Int("descriptors", c.builder.Len()))
	return true
}

// Dispose disposes the current container.
func (c *Container) Dispose() {
	if d, ok := c.current().(di.Disposable); ok {
		d.Dispose()
	}
}

func build(b di.ContainerBuilder) (c di.Container, err error) {
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", p)
			}
		}
	}()
	return b.Build(), nil
}

// TryRebuild rebuilds c when it is a rebuildable container. It returns false
// for any other container.
func TryRebuild(c di.Container, configure func(di.ContainerBuilder)) bool {
	switch d := c.(type) {
	case *Container:
		return d.TryRebuild(configure)
	case *view:
		return d.owner.TryRebuild(configure)
	default:
		return false
	}
}

// view resolves from the owner with a caller supplied context.
type view struct {
	owner *Container
	ctx   context.Context
}

func (v *view) Get(serviceType reflect.Type) (any, error) {
	if serviceType == di.ScopeFactoryType {
		return v.owner, nil
	}
	return v.owner.current().WithContext(v.ctx).Get(serviceType)
}

func (v *view) GetKeyed(serviceType reflect.Type, key any) (any, error) {
	if key == nil {
		return v.Get(serviceType)
	}
	return v.owner.current().WithContext(v.ctx).GetKeyed(serviceType, key)
}

func (v *view) Context() context.Context {
	return v.ctx
}

func (v *view) WithContext(ctx context.Context) di.Container {
	return v.owner.WithContext(ctx)
}
