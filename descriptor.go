package di

import (
	"fmt"
	"reflect"

	"github.com/medion-go/di/errorx"
	"github.com/medion-go/di/reflectx"
)

type Lifetime byte

const (
	Lifetime_Singleton Lifetime = iota
	Lifetime_Scoped
	Lifetime_Transient
)

func (l Lifetime) String() string {
	switch l {
	case Lifetime_Singleton:
		return "Singleton"
	case Lifetime_Scoped:
		return "Scoped"
	case Lifetime_Transient:
		return "Transient"
	default:
		return fmt.Sprintf("Lifetime(%d)", byte(l))
	}
}

// Factory creates a service from the container it is resolved in.
type Factory func(Container) (any, error)

// KeyedFactory creates a keyed service; it receives the key of the binding.
type KeyedFactory func(Container, any) (any, error)

type ConstructorInfo struct {
	FuncType  reflect.Type
	FuncValue reflect.Value
	// input parameter types
	In []reflect.Type
	// service keys of the input parameters, nil entries are resolved unkeyed
	InKeys []any
	// output parameter types
	Out []reflect.Type
}

func (c *ConstructorInfo) Call(params []reflect.Value) []reflect.Value {
	return c.FuncValue.Call(params)
}

// ParamKey returns the service key the i-th parameter is resolved with.
func (c *ConstructorInfo) ParamKey(i int) any {
	if i < len(c.InKeys) {
		return c.InKeys[i]
	}
	return nil
}

func newConstructorInfo(ctor any) (*ConstructorInfo, error) {
	if ci, ok := ctor.(*ConstructorInfo); ok {
		return ci, nil
	}

	ft := reflect.TypeOf(ctor)
	if ft == nil || ft.Kind() != reflect.Func {
		return nil, &errorx.FuncSignatureError{Message: fmt.Sprintf("the constructor '%v' is not a function", ft)}
	}

	return &ConstructorInfo{
		FuncValue: reflect.ValueOf(ctor),
		FuncType:  ft,
		In:        reflectx.GetInParameters(ft),
		InKeys:    make([]any, ft.NumIn()),
		Out:       reflectx.GetOutParameters(ft),
	}, nil
}

// WithKeys describes ctor so that its i-th parameter is resolved under keys[i].
// A nil key leaves the parameter unkeyed. It panics if ctor is not a function,
// if there are more keys than parameters or if a key is not comparable.
func WithKeys(ctor any, keys ...any) *ConstructorInfo {
	ci, err := newConstructorInfo(ctor)
	if err != nil {
		panic(err)
	}
	if len(keys) > len(ci.In) {
		panic(&errorx.FuncSignatureError{
			Message: fmt.Sprintf("%d keys given for a constructor with %d parameters", len(keys), len(ci.In)),
		})
	}

	inKeys := make([]any, len(ci.In))
	copy(inKeys, ci.InKeys)
	for i, k := range keys {
		if k == nil {
			continue
		}
		if err := NewIdentity(ci.In[i], k).validate(); err != nil {
			panic(err)
		}
		inKeys[i] = k
	}

	return &ConstructorInfo{
		FuncValue: ci.FuncValue,
		FuncType:  ci.FuncType,
		In:        ci.In,
		InKeys:    inKeys,
		Out:       ci.Out,
	}
}

// Strategy is the tagged set of implementation strategies given to Create.
// When more than one field is set the first one wins, in the order
// Ctor, Instance, Factory, KeyedFactory.
type Strategy struct {
	// a constructor function or a *ConstructorInfo
	Ctor         any
	Instance     any
	Factory      Factory
	KeyedFactory KeyedFactory
}

func (s Strategy) IsZero() bool {
	return s.Ctor == nil && s.Instance == nil && s.Factory == nil && s.KeyedFactory == nil
}

// service descriptor
//
// Descriptors are not modified once built. Use CopyWith to derive a changed copy.
// Exactly one of Ctor, Instance and the factory slot is populated: unkeyed
// descriptors store their factory in Factory, keyed ones in KeyedFactory.
type Descriptor struct {
	ServiceType  reflect.Type
	Key          any
	Lifetime     Lifetime
	Ctor         *ConstructorInfo
	Instance     any
	Factory      Factory
	KeyedFactory KeyedFactory
	// Origin is an opaque marker set by registry rewriters; CopyWith does not carry it.
	Origin any
	// Forwards marks a factory that returns a service owned by another binding.
	// Its results are never captured for disposal.
	Forwards bool
}

func (d *Descriptor) Identity() Identity {
	return Identity{Type: d.ServiceType, Key: d.Key}
}

func (d *Descriptor) IsKeyed() bool {
	return d.Key != nil
}

// Strategy returns the implementation strategy from the slot the descriptor occupies.
func (d *Descriptor) Strategy() Strategy {
	switch {
	case d.Ctor != nil:
		return Strategy{Ctor: d.Ctor}
	case d.Instance != nil:
		return Strategy{Instance: d.Instance}
	case d.IsKeyed():
		return Strategy{KeyedFactory: d.KeyedFactory}
	default:
		return Strategy{Factory: d.Factory}
	}
}

func (d *Descriptor) String() string {
	s := fmt.Sprintf("ServiceType: %v Lifetime: %v ", d.ServiceType, d.Lifetime)
	if d.Key != nil {
		s += fmt.Sprintf("Key: %v ", d.Key)
	}

	switch {
	case d.Ctor != nil:
		s += fmt.Sprintf("Constructor: %v", d.Ctor.FuncType)
	case d.Instance != nil:
		s += fmt.Sprintf("Instance: %v", d.Instance)
	default:
		s += "Factory"
	}

	return s
}

// Create builds a descriptor for identity from the first populated strategy.
// Instance descriptors are always singletons. A keyed identity turns a plain
// factory into a keyed factory ignoring its key; an unkeyed identity turns a
// keyed factory into a plain factory called with a nil key.
func Create(lifetime Lifetime, identity Identity, strategy Strategy) (*Descriptor, error) {
	if err := identity.validate(); err != nil {
		return nil, err
	}

	d := &Descriptor{
		ServiceType: identity.Type,
		Key:         identity.Key,
		Lifetime:    lifetime,
	}

	switch {
	case strategy.Ctor != nil:
		ci, err := newConstructorInfo(strategy.Ctor)
		if err != nil {
			return nil, err
		}
		if err = checkConstructor(ci, identity.Type); err != nil {
			return nil, err
		}
		d.Ctor = ci

	case strategy.Instance != nil:
		if err := instanceAssignable(strategy.Instance, identity.Type); err != nil {
			return nil, err
		}
		d.Lifetime = Lifetime_Singleton
		d.Instance = strategy.Instance

	case strategy.Factory != nil:
		if identity.IsKeyed() {
			factory := strategy.Factory
			d.KeyedFactory = func(c Container, _ any) (any, error) { return factory(c) }
		} else {
			d.Factory = strategy.Factory
		}

	case strategy.KeyedFactory != nil:
		if identity.IsKeyed() {
			d.KeyedFactory = strategy.KeyedFactory
		} else {
			keyed := strategy.KeyedFactory
			d.Factory = func(c Container) (any, error) { return keyed(c, nil) }
		}

	default:
		return nil, &errorx.InvalidConfigurationError{
			Message: fmt.Sprintf("at least one implementation must be specified for '%v'", identity),
		}
	}

	return d, nil
}

// MustCreate is like Create but panics on error.
func MustCreate(lifetime Lifetime, identity Identity, strategy Strategy) *Descriptor {
	d, err := Create(lifetime, identity, strategy)
	if err != nil {
		panic(err)
	}
	return d
}

type copyOptions struct {
	lifetime    *Lifetime
	serviceType reflect.Type
	key         any
	hasKey      bool
	removeKey   bool
	strategy    Strategy
	origin      any
}

// CopyOption overrides one field in CopyWith.
type CopyOption func(*copyOptions)

func WithLifetime(lifetime Lifetime) CopyOption {
	return func(o *copyOptions) { o.lifetime = &lifetime }
}

func WithServiceType(serviceType reflect.Type) CopyOption {
	return func(o *copyOptions) { o.serviceType = serviceType }
}

// WithKey replaces the key; a nil key keeps the source key, use RemoveKey to drop it.
func WithKey(key any) CopyOption {
	return func(o *copyOptions) {
		if key != nil {
			o.key, o.hasKey = key, true
		}
	}
}

// RemoveKey makes the copy unkeyed, regardless of any WithKey option.
func RemoveKey() CopyOption {
	return func(o *copyOptions) { o.removeKey = true }
}

func WithCtor(ctor any) CopyOption {
	return func(o *copyOptions) { o.strategy.Ctor = ctor }
}

func WithInstance(instance any) CopyOption {
	return func(o *copyOptions) { o.strategy.Instance = instance }
}

func WithFactory(factory Factory) CopyOption {
	return func(o *copyOptions) { o.strategy.Factory = factory }
}

func WithKeyedFactory(factory KeyedFactory) CopyOption {
	return func(o *copyOptions) { o.strategy.KeyedFactory = factory }
}

func WithOrigin(origin any) CopyOption {
	return func(o *copyOptions) { o.origin = origin }
}

// CopyWith derives a new descriptor from d. Fields without an override are
// carried over from d; d itself is never modified.
func CopyWith(d *Descriptor, overrides ...CopyOption) (*Descriptor, error) {
	var o copyOptions
	for _, f := range overrides {
		f(&o)
	}

	lifetime := d.Lifetime
	if o.lifetime != nil {
		lifetime = *o.lifetime
	}

	identity := d.Identity()
	if o.serviceType != nil {
		identity.Type = o.serviceType
	}
	if o.hasKey {
		identity.Key = o.key
	}
	if o.removeKey {
		identity.Key = nil
	}

	strategy := o.strategy
	if strategy.IsZero() {
		strategy = d.Strategy()
	}

	copied, err := Create(lifetime, identity, strategy)
	if err != nil {
		return nil, err
	}
	copied.Origin = o.origin
	copied.Forwards = d.Forwards && o.strategy.IsZero()
	return copied, nil
}

func NewInstanceDescriptor(serviceType reflect.Type, instance any) *Descriptor {
	return MustCreate(Lifetime_Singleton, NewIdentity(serviceType, nil), Strategy{Instance: instance})
}

func NewConstructorDescriptor(serviceType reflect.Type, lifetime Lifetime, ctor any) *Descriptor {
	return MustCreate(lifetime, NewIdentity(serviceType, nil), Strategy{Ctor: ctor})
}

func NewFactoryDescriptor(serviceType reflect.Type, lifetime Lifetime, factory Factory) *Descriptor {
	return MustCreate(lifetime, NewIdentity(serviceType, nil), Strategy{Factory: factory})
}

func NewKeyedConstructorDescriptor(serviceType reflect.Type, key any, lifetime Lifetime, ctor any) *Descriptor {
	return MustCreate(lifetime, NewIdentity(serviceType, key), Strategy{Ctor: ctor})
}

func NewKeyedFactoryDescriptor(serviceType reflect.Type, key any, lifetime Lifetime, factory KeyedFactory) *Descriptor {
	return MustCreate(lifetime, NewIdentity(serviceType, key), Strategy{KeyedFactory: factory})
}

func checkConstructor(ctor *ConstructorInfo, serviceType reflect.Type) (err error) {
	if ctor.FuncType.Kind() != reflect.Func {
		return &errorx.FuncSignatureError{Message: fmt.Sprintf("the constructor of the service '%v' is not a function", serviceType)}
	}

	out := ctor.Out
	numOut := len(out)
	if (numOut == 0 || numOut > 2) ||
		!out[0].AssignableTo(serviceType) ||
		(numOut == 2 && !reflectx.IsErrorType(out[1])) {
		return &errorx.FuncSignatureError{Message: fmt.Sprintf("the constructor must returns a '%v' and an optional error", serviceType)}
	}

	return
}

func instanceAssignable(instance any, to reflect.Type) (err error) {
	if t := reflect.TypeOf(instance); !t.AssignableTo(to) {
		err = &errorx.InvalidConfigurationError{
			Message: fmt.Sprintf("the instance of type '%v' can not assignable to type '%v'", t, to),
		}
	}
	return
}
