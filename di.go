package di

import (
	"context"
	"errors"
	"reflect"

	"github.com/medion-go/di/errorx"
	"github.com/medion-go/di/reflectx"
)

type Container interface {
	Get(reflect.Type) (any, error)
	GetKeyed(reflect.Type, any) (any, error)
	// Context returns the context the container resolves with.
	Context() context.Context
	// WithContext returns a view of the container that resolves with ctx.
	// Factories resolved through the view receive a container carrying ctx.
	WithContext(context.Context) Container
}

type Scope interface {
	Container() Container
	Dispose()
}

type ScopeFactory interface {
	CreateScope() Scope
}

// Optional service used to determine if the specified type is available from the Container.
type IsService interface {
	IsService(serviceType reflect.Type) bool
	IsKeyedService(serviceType reflect.Type, key any) bool
}

type Disposable interface {
	Dispose()
}

// Get service of the type T from the container c
func Get[T any](c Container) T {
	result, err := TryGet[T](c)
	if err != nil {
		panic(err)
	}
	return result
}

func TryGet[T any](c Container) (result T, err error) {
	t := reflectx.TypeOf[T]()
	v, err := c.Get(t)
	if err != nil {
		return
	}

	return cast[T](t, v)
}

// GetKeyed gets the service of the type T registered under key.
func GetKeyed[T any](c Container, key any) T {
	result, err := TryGetKeyed[T](c, key)
	if err != nil {
		panic(err)
	}
	return result
}

func TryGetKeyed[T any](c Container, key any) (result T, err error) {
	t := reflectx.TypeOf[T]()
	v, err := c.GetKeyed(t, key)
	if err != nil {
		return
	}

	return cast[T](t, v)
}

func cast[T any](t reflect.Type, v any) (result T, err error) {
	if v == nil {
		return
	}

	result, ok := v.(T)
	if !ok {
		err = &errorx.TypeIncompatibilityError{To: t, From: reflect.TypeOf(v)}
	}
	return
}

// Invoke the function fn.
// the input paramenters of the fn function will be resolved from the Container c.
func Invoke(c Container, fn any) (fnReturn []any, err error) {
	vfn := reflect.ValueOf(fn)
	if vfn.Kind() != reflect.Func {
		err = errors.New("fn is not a function")
		return
	}

	inputTypes := reflectx.GetInParameters(vfn.Type())

	inputs := make([]reflect.Value, len(inputTypes))
	for i, t := range inputTypes {
		v, e := c.Get(t)
		if e != nil {
			err = e
			return
		}

		inputs[i] = valueOf(v, t)
	}

	ouputs := vfn.Call(inputs)
	numOutputs := len(ouputs)
	if numOutputs > 0 {
		fnReturn = make([]any, numOutputs)
		for i, v := range ouputs {
			fnReturn[i] = v.Interface()
		}
	}

	return
}

// valueOf converts a resolved value into an argument of type t; nil becomes the zero value.
func valueOf(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(v)
}
