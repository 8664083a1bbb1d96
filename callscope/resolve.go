package callscope

import (
	"context"
	"reflect"
	"sync"

	"github.com/juju/errors"

	"github.com/medion-go/di"
	"github.com/medion-go/di/errorx"
	"github.com/medion-go/di/reflectx"
)

type frameKey struct{}

// frame holds the values supplied to one ResolveWithArgs call. Frames of
// nested calls link to the frame of the enclosing call.
type frame struct {
	parent *frame
	mu     sync.Mutex
	values map[reflect.Type]any
}

func frameFrom(ctx context.Context) *frame {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(frameKey{}).(*frame)
	return f
}

func (f *frame) lookup(t reflect.Type) (any, bool) {
	for fr := f; fr != nil; fr = fr.parent {
		fr.mu.Lock()
		v, ok := fr.values[t]
		fr.mu.Unlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

func (f *frame) clear() {
	f.mu.Lock()
	f.values = nil
	f.mu.Unlock()
}

// Arg is an argument with an explicit type.
type Arg struct {
	typ   reflect.Type
	value any
}

// As supplies v as a value of type T, which is required when T is an interface.
// A nil v is rejected by ResolveWithArgs.
func As[T any](v T) Arg {
	return Arg{typ: reflectx.TypeOf[T](), value: v}
}

func argOf(a any) (reflect.Type, any, error) {
	switch a := a.(type) {
	case Arg:
		if isNil(a.value) {
			return nil, nil, errorx.NewArgumentNilError("args")
		}
		return a.typ, a.value, nil
	default:
		if isNil(a) {
			return nil, nil, errorx.NewArgumentNilError("args")
		}
		return reflect.TypeOf(a), a, nil
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// ResolveWithArgs resolves T from c with args pending for the call-scoped
// parameters of the resolved graph. An argument's type is its dynamic type
// unless it is given with As. The values are visible only to this resolution
// and are cleared before ResolveWithArgs returns, whether it fails or not.
//
// Supplying a type that an enclosing ResolveWithArgs of the same call chain
// already supplies fails with NestedArgumentError.
func ResolveWithArgs[T any](c di.Container, args ...any) (result T, err error) {
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	parent := frameFrom(ctx)
	f := &frame{parent: parent, values: make(map[reflect.Type]any, len(args))}

	var cells []*Cell
	defer func() {
		f.clear()
		for _, cell := range cells {
			cell.active.Add(-1)
		}
	}()

	var m *Manifest
	if len(args) > 0 {
		m, err = di.TryGet[*Manifest](c)
		var notFound *errorx.ServiceNotFound
		if err != nil && !errors.As(err, &notFound) {
			return result, errors.Annotate(err, "resolve call-scoped manifest")
		}
		err = nil
	}

	for _, a := range args {
		t, v, e := argOf(a)
		if e != nil {
			return result, e
		}

		cell, ok := m.Cell(t)
		if !ok {
			return result, &errorx.UnknownArgumentError{ArgType: t}
		}
		if _, dup := f.values[t]; dup {
			return result, errorx.NewArgumentError("more than one argument of type '" + t.String() + "'")
		}
		if _, nested := parent.lookup(t); nested {
			return result, &errorx.NestedArgumentError{ArgType: t}
		}

		f.values[t] = v
		cell.active.Add(1)
		cells = append(cells, cell)
	}

	result, err = di.TryGet[T](c.WithContext(context.WithValue(ctx, frameKey{}, f)))
	return result, errors.Trace(err)
}

// ResolveWithArg resolves T with a single argument of type A.
func ResolveWithArg[T any, A any](c di.Container, arg A) (T, error) {
	return ResolveWithArgs[T](c, As[A](arg))
}

// Pending returns the value of type A pending for the call c resolves in.
// Factories use it to read call-scoped values without a constructor.
func Pending[A any](c di.Container) (A, error) {
	return di.TryGetKeyed[A](c, ArgKey)
}

func pendingValue(t reflect.Type) di.KeyedFactory {
	return func(c di.Container, _ any) (any, error) {
		if v, ok := frameFrom(c.Context()).lookup(t); ok {
			return v, nil
		}
		return nil, &errorx.NoPendingArgumentError{ArgType: t}
	}
}
