package di

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medion-go/di/reflectx"
	"github.com/medion-go/di/syncx"
)

var ContainerType = reflectx.TypeOf[Container]()
var ContainerImplType = reflectx.TypeOf[container]()
var ScopeFactoryType = reflectx.TypeOf[ScopeFactory]()
var IsServiceType = reflectx.TypeOf[IsService]()

// Container options.
type Options struct {
	ValidateScopes  bool
	ValidateOnBuild bool
	// Logger receives build and registry diagnostics. Nil means no logging.
	Logger *zap.Logger
	// ScopeCreated is called with the id of every scope the container creates.
	ScopeCreated func(id uuid.UUID)
}

// Get default container options.
func DefaultOptions() Options {
	return Options{Logger: zap.NewNop()}
}

// Log returns the configured logger, or a no-op logger when none is set.
func (o Options) Log() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Container implementation
type container struct {
	Root              *ContainerEngineScope
	CallSiteFactory   *CallSiteFactory
	engine            ContainerEngine
	realizedServices  *syncx.Map[Identity, ServiceAccessor]
	disposed          bool
	callSiteValidator *CallSiteValidator
	logger            *zap.Logger
	scopeCreated      func(uuid.UUID)
}

func (c *container) Get(serviceType reflect.Type) (any, error) {
	return c.GetWithScope(context.Background(), Identity{Type: serviceType}, c.Root)
}

func (c *container) GetKeyed(serviceType reflect.Type, key any) (any, error) {
	return c.GetWithScope(context.Background(), Identity{Type: serviceType, Key: key}, c.Root)
}

func (c *container) Context() context.Context {
	return context.Background()
}

func (c *container) WithContext(ctx context.Context) Container {
	return c.Root.WithContext(ctx)
}

func (c *container) CreateScope() Scope {
	if c.disposed {
		panic(fmt.Errorf("%v disposed", reflect.TypeOf(c).Elem()))
	}

	scope := newEngineScope(c, false)
	c.logger.Debug("scope created", zap.Stringer("scope", scope.ID))
	if c.scopeCreated != nil {
		c.scopeCreated(scope.ID)
	}
	return scope
}

func (c *container) GetWithScope(ctx context.Context, identity Identity, scope *ContainerEngineScope) (result any, err error) {
	if c.disposed {
		err = fmt.Errorf("%v disposed", reflect.TypeOf(c).Elem())
		return
	}

	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", p)
			}
		}
	}()

	if err = identity.validate(); err != nil {
		return
	}

	accessor, ok := c.realizedServices.Load(identity)
	if !ok {
		accessor, err = c.createServiceAccessor(ctx, identity)
		if err != nil {
			return
		} else {
			accessor, _ = c.realizedServices.LoadOrStore(identity, accessor)
		}

	}

	if c.callSiteValidator != nil {
		err := c.callSiteValidator.ValidateResolution(identity, scope, c.Root)
		if err != nil {
			return nil, err
		}
	}

	return accessor(scope, ctx)
}

func (c *container) validateService(d *Descriptor) error {
	callSite, err := c.CallSiteFactory.GetCallSiteByDescriptor(d, newCallSiteChain())
	if err != nil {
		return err
	}
	if c.callSiteValidator != nil {
		return c.callSiteValidator.ValidateCallSite(callSite)
	}
	return nil
}

func (c *container) Dispose() {
	c.disposed = true
	c.Root.Dispose()
}

func (c *container) IsDisposed() bool {
	return c.disposed
}

func (c *container) createEngine() ContainerEngine {
	return newContainerEngine(c)
}

func (c *container) createServiceAccessor(ctx context.Context, identity Identity) (ServiceAccessor, error) {
	callSite, err := c.CallSiteFactory.GetCallSite(identity, newCallSiteChain())
	if err != nil {
		return nil, err
	}

	if c.callSiteValidator != nil {
		if err := c.callSiteValidator.ValidateCallSite(callSite); err != nil {
			return nil, err
		}
	}

	if callSite.Cache().Location == CacheLocation_Root {
		value, err := CallSiteResolverInstance.Resolve(callSite, c.Root, ctx)
		if err != nil {
			return nil, err
		}
		return func(scope *ContainerEngineScope, ctx context.Context) (any, error) { return value, nil }, nil
	}

	return c.engine.RealizeService(callSite)
}

func (c *container) ReplaceServiceAccessor(callSite CallSite, accessor ServiceAccessor) {
	c.realizedServices.Store(callSite.Identity(), accessor)
}
