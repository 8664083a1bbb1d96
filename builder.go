package di

import (
	"go.uber.org/zap"

	"github.com/medion-go/di/errorx"
	"github.com/medion-go/di/reflectx"
	"github.com/medion-go/di/syncx"
)

// ContainerBuilder is the ordered registry of descriptors a container is built from.
type ContainerBuilder interface {
	Add(...*Descriptor)
	// TryAdd appends d unless a descriptor with the same identity is registered.
	TryAdd(d *Descriptor) bool
	// Len returns the number of registered descriptors.
	Len() int
	// At returns the descriptor at index i.
	At(i int) *Descriptor
	// Set replaces the descriptor at index i.
	Set(i int, d *Descriptor)
	// Descriptors returns the registered descriptors in registration order.
	Descriptors() []*Descriptor
	// IndicesOf returns the indices of every descriptor registered under identity.
	IndicesOf(identity Identity) []int
	Contains(identity Identity) bool
	// Remove removes every descriptor registered under identity.
	Remove(identity Identity)
	Build() Container
	ConfigureOptions(func(*Options))
	// Options returns the options the configurators produce.
	Options() Options
}

type containerBuilder struct {
	descriptors          []*Descriptor
	optionsConfigurators []func(*Options)
}

func (b *containerBuilder) ConfigureOptions(f func(*Options)) {
	b.optionsConfigurators = append(b.optionsConfigurators, f)
}

func (b *containerBuilder) Add(d ...*Descriptor) {
	b.descriptors = append(b.descriptors, d...)
}

func (b *containerBuilder) TryAdd(d *Descriptor) bool {
	if b.Contains(d.Identity()) {
		return false
	}
	b.descriptors = append(b.descriptors, d)
	return true
}

func (b *containerBuilder) Len() int {
	return len(b.descriptors)
}

func (b *containerBuilder) At(i int) *Descriptor {
	return b.descriptors[i]
}

func (b *containerBuilder) Set(i int, d *Descriptor) {
	b.descriptors[i] = d
}

func (b *containerBuilder) Descriptors() []*Descriptor {
	d := make([]*Descriptor, len(b.descriptors))
	copy(d, b.descriptors)
	return d
}

func (b *containerBuilder) IndicesOf(identity Identity) []int {
	var indices []int
	for i, d := range b.descriptors {
		if d.Identity() == identity {
			indices = append(indices, i)
		}
	}
	return indices
}

func (b *containerBuilder) Contains(identity Identity) bool {
	for _, d := range b.descriptors {
		if d.Identity() == identity {
			return true
		}
	}
	return false
}

func (b *containerBuilder) Remove(identity Identity) {
	kept := b.descriptors[:0]
	for _, d := range b.descriptors {
		if d.Identity() != identity {
			kept = append(kept, d)
		}
	}
	for i := len(kept); i < len(b.descriptors); i++ {
		b.descriptors[i] = nil
	}
	b.descriptors = kept
}

func (b *containerBuilder) builtInServices(c *container) {
	csf := c.CallSiteFactory

	csf.Add(Identity{Type: ContainerType}, &ContainerCallSite{})
	csf.Add(Identity{Type: ScopeFactoryType}, newConstantCallSite(Identity{Type: ScopeFactoryType}, c.Root))
	csf.Add(Identity{Type: IsServiceType}, newConstantCallSite(Identity{Type: IsServiceType}, csf))
}

func (b *containerBuilder) Options() Options {
	options := DefaultOptions()
	for _, f := range b.optionsConfigurators {
		f(&options)
	}
	return options
}

func (b *containerBuilder) Build() Container {
	options := b.Options()
	logger := options.Log()

	c := &container{
		CallSiteFactory:  newCallSiteFactory(b.descriptors),
		realizedServices: syncx.NewMap[Identity, ServiceAccessor](),
		logger:           logger,
		scopeCreated:     options.ScopeCreated,
	}

	c.Root = newEngineScope(c, true)
	c.engine = c.createEngine()

	b.builtInServices(c)

	if options.ValidateScopes {
		c.callSiteValidator = newCallSiteValidator()
	}

	if options.ValidateOnBuild {
		errs := make([]error, 0)
		for _, d := range b.descriptors {
			if e := c.validateService(d); e != nil {
				errs = append(errs, e)
			}
		}

		if len(errs) > 0 {
			logger.Error("container validation failed", zap.Int("errors", len(errs)))
			panic(&errorx.AggregateError{Errors: errs})
		}
	}

	logger.Debug("container built",
		zap.Int("descriptors", len(b.descriptors)),
		zap.Bool("validateScopes", options.ValidateScopes),
		zap.Stringer("root", c.Root.ID))

	return c
}

// Create a ContainerBuilder
func Builder() ContainerBuilder {
	return &containerBuilder{}
}

// New a descriptor with instance
func Instance[T any](instance any) *Descriptor {
	return NewInstanceDescriptor(reflectx.TypeOf[T](), instance)
}

// New a transient constructor descriptor
func Transient[T any](ctor any) *Descriptor {
	return NewConstructorDescriptor(reflectx.TypeOf[T](), Lifetime_Transient, ctor)
}

// New a scoped constructor descriptor
func Scoped[T any](ctor any) *Descriptor {
	return NewConstructorDescriptor(reflectx.TypeOf[T](), Lifetime_Scoped, ctor)
}

// New a singleton constructor descriptor
func Singleton[T any](ctor any) *Descriptor {
	return NewConstructorDescriptor(reflectx.TypeOf[T](), Lifetime_Singleton, ctor)
}

// Add a transient service descriptor to the ContainerBuilder.
// T is the service type,
// cb is the ContainerBuilder,
// ctor is the constructor of the service T.
func AddTransient[T any](cb ContainerBuilder, ctor any) {
	cb.Add(Transient[T](ctor))
}

// Add a scoped service descriptor to the ContainerBuilder.
// T is the service type,
// cb is the ContainerBuilder,
// ctor is the constructor of the service T.
func AddScoped[T any](cb ContainerBuilder, ctor any) {
	cb.Add(Scoped[T](ctor))
}

// Add a singleton service descriptor to the ContainerBuilder.
// T is the service type,
// cb is the ContainerBuilder,
// ctor is the constructor of the service T.
func AddSingleton[T any](cb ContainerBuilder, ctor any) {
	cb.Add(Singleton[T](ctor))
}

// Add an instance service descriptor to the ContainerBuilder.
// T is the service type,
// cb is the ContainerBuilder,
// the instance must be assignable to the service T.
func AddInstance[T any](cb ContainerBuilder, instance any) {
	cb.Add(Instance[T](instance))
}

// AddScopedInstance registers instance as the scoped service T.
// Every scope resolves the same instance; only the lifetime bookkeeping differs.
func AddScopedInstance[T any](cb ContainerBuilder, instance T) {
	cb.Add(ScopedFactory[T](func(Container) (any, error) { return instance, nil }))
}

// AddTransientInstance registers instance as the transient service T.
func AddTransientInstance[T any](cb ContainerBuilder, instance T) {
	cb.Add(TransientFactory[T](func(Container) (any, error) { return instance, nil }))
}

// New a transient factory descriptor
func TransientFactory[T any](factory Factory) *Descriptor {
	return NewFactoryDescriptor(reflectx.TypeOf[T](), Lifetime_Transient, factory)
}

// New a scoped factory descriptor
func ScopedFactory[T any](factory Factory) *Descriptor {
	return NewFactoryDescriptor(reflectx.TypeOf[T](), Lifetime_Scoped, factory)
}

// New a singleton factory descriptor
func SingletonFactory[T any](factory Factory) *Descriptor {
	return NewFactoryDescriptor(reflectx.TypeOf[T](), Lifetime_Singleton, factory)
}

func AddTransientFactory[T any](cb ContainerBuilder, factory Factory) {
	cb.Add(TransientFactory[T](factory))
}

func AddScopedFactory[T any](cb ContainerBuilder, factory Factory) {
	cb.Add(ScopedFactory[T](factory))
}

func AddSingletonFactory[T any](cb ContainerBuilder, factory Factory) {
	cb.Add(SingletonFactory[T](factory))
}

// keyed registrations

func AddKeyedTransient[T any](cb ContainerBuilder, key any, ctor any) {
	cb.Add(NewKeyedConstructorDescriptor(reflectx.TypeOf[T](), key, Lifetime_Transient, ctor))
}

func AddKeyedScoped[T any](cb ContainerBuilder, key any, ctor any) {
	cb.Add(NewKeyedConstructorDescriptor(reflectx.TypeOf[T](), key, Lifetime_Scoped, ctor))
}

func AddKeyedSingleton[T any](cb ContainerBuilder, key any, ctor any) {
	cb.Add(NewKeyedConstructorDescriptor(reflectx.TypeOf[T](), key, Lifetime_Singleton, ctor))
}

func AddKeyedInstance[T any](cb ContainerBuilder, key any, instance any) {
	cb.Add(MustCreate(Lifetime_Singleton, KeyedIdentityOf[T](key), Strategy{Instance: instance}))
}

func AddKeyedScopedInstance[T any](cb ContainerBuilder, key any, instance T) {
	cb.Add(NewKeyedFactoryDescriptor(reflectx.TypeOf[T](), key, Lifetime_Scoped,
		func(Container, any) (any, error) { return instance, nil }))
}

func AddKeyedTransientInstance[T any](cb ContainerBuilder, key any, instance T) {
	cb.Add(NewKeyedFactoryDescriptor(reflectx.TypeOf[T](), key, Lifetime_Transient,
		func(Container, any) (any, error) { return instance, nil }))
}

func AddKeyedTransientFactory[T any](cb ContainerBuilder, key any, factory KeyedFactory) {
	cb.Add(NewKeyedFactoryDescriptor(reflectx.TypeOf[T](), key, Lifetime_Transient, factory))
}

func AddKeyedScopedFactory[T any](cb ContainerBuilder, key any, factory KeyedFactory) {
	cb.Add(NewKeyedFactoryDescriptor(reflectx.TypeOf[T](), key, Lifetime_Scoped, factory))
}

func AddKeyedSingletonFactory[T any](cb ContainerBuilder, key any, factory KeyedFactory) {
	cb.Add(NewKeyedFactoryDescriptor(reflectx.TypeOf[T](), key, Lifetime_Singleton, factory))
}
