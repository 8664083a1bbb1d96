// Package callscope injects caller supplied values into the dependency graph
// of a single resolution.
//
// A constructor declares which parameters take call-scoped values with Ctor.
// Every such parameter type is collected into the Manifest of the registry by
// Register or RegisterAll before the container is built. ResolveWithArgs then
// attaches the values to the context of one resolution; concurrent and
// unrelated resolutions never observe them.
package callscope

import (
	"fmt"
	"reflect"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/medion-go/di"
	"github.com/medion-go/di/errorx"
	"github.com/medion-go/di/reflectx"
	"github.com/medion-go/di/upsert"
)

type argKey struct{}

// ArgKey is the service key of call-scoped parameter bindings.
var ArgKey any = argKey{}

// Cell is the process wide slot of one argument type. Values are never stored
// in the cell itself; it only tracks how many call chains currently hold one.
type Cell struct {
	typ    reflect.Type
	active atomic.Int64
}

func (c *Cell) Type() reflect.Type {
	return c.typ
}

// Pending returns the number of calls in flight that supplied a value of the cell's type.
func (c *Cell) Pending() int {
	return int(c.active.Load())
}

// Manifest is the set of argument types registered for call-scoped injection.
// It is registered as a singleton and replaced, never mutated, when a type is added.
type Manifest struct {
	cells map[reflect.Type]*Cell
}

var manifestIdentity = di.IdentityOf[*Manifest]()

// Cell returns the cell of t.
func (m *Manifest) Cell(t reflect.Type) (*Cell, bool) {
	if m == nil {
		return nil, false
	}
	c, ok := m.cells[t]
	return c, ok
}

// Types returns the registered argument types ordered by name.
func (m *Manifest) Types() []reflect.Type {
	if m == nil {
		return nil
	}
	types := make([]reflect.Type, 0, len(m.cells))
	for t := range m.cells {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].String() < types[j].String() })
	return types
}

func (m *Manifest) with(t reflect.Type) *Manifest {
	cells := make(map[reflect.Type]*Cell, len(m.Types())+1)
	if m != nil {
		for k, v := range m.cells {
			cells[k] = v
		}
	}
	cells[t] = &Cell{typ: t}
	return &Manifest{cells: cells}
}

// ManifestOf returns the manifest registered in b, or nil.
func ManifestOf(b di.ContainerBuilder) *Manifest {
	indices := b.IndicesOf(manifestIdentity)
	if len(indices) == 0 {
		return nil
	}
	m, _ := b.At(indices[len(indices)-1]).Instance.(*Manifest)
	return m
}

// Register makes T available for call-scoped injection: it adds T to the
// manifest and binds (T, ArgKey) to a transient that reads the pending value
// of the current call. Registering a type twice has no effect.
func Register[T any](b di.ContainerBuilder) error {
	return register(b, reflectx.TypeOf[T]())
}

// RegisterAll registers every parameter type declared call-scoped by a
// constructor of b. It must run after the last such constructor is added.
func RegisterAll(b di.ContainerBuilder) error {
	for _, d := range b.Descriptors() {
		if d.Ctor == nil {
			continue
		}
		for i, t := range d.Ctor.In {
			if d.Ctor.ParamKey(i) != ArgKey {
				continue
			}
			if err := register(b, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func register(b di.ContainerBuilder, t reflect.Type) error {
	m := ManifestOf(b)
	if _, ok := m.Cell(t); ok {
		return nil
	}

	if _, err := upsert.UpsertInstance(b, m.with(t)); err != nil {
		return err
	}
	b.TryAdd(di.NewKeyedFactoryDescriptor(t, ArgKey, di.Lifetime_Transient, pendingValue(t)))

	b.Options().Log().Debug("call-scoped argument registered", zap.Stringer("type", t))
	return nil
}

// Ctor declares the parameters of ctor at positions as call-scoped.
// It panics if ctor is not a function or a position is out of range.
func Ctor(ctor any, positions ...int) *di.ConstructorInfo {
	ci := di.WithKeys(ctor)
	keys := make([]any, len(ci.In))
	for _, p := range positions {
		if p < 0 || p >= len(keys) {
			panic(&errorx.FuncSignatureError{
				Message: fmt.Sprintf("parameter %d is out of range for '%v'", p, ci.FuncType),
			})
		}
		keys[p] = ArgKey
	}
	return di.WithKeys(ci, keys...)
}
