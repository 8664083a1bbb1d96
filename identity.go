package di

import (
	"fmt"
	"reflect"

	"github.com/medion-go/di/errorx"
	"github.com/medion-go/di/reflectx"
)

// Identity identifies a service binding: the service type and an optional key.
// A nil Key means the binding is not keyed; any non-nil key, including an
// empty value such as "" or struct{}{}, is a distinct keyed identity.
type Identity struct {
	Type reflect.Type
	Key  any
}

func NewIdentity(serviceType reflect.Type, key any) Identity {
	return Identity{Type: serviceType, Key: key}
}

// IdentityOf returns the unkeyed identity of T.
func IdentityOf[T any]() Identity {
	return Identity{Type: reflectx.TypeOf[T]()}
}

// KeyedIdentityOf returns the identity of T under key.
func KeyedIdentityOf[T any](key any) Identity {
	return Identity{Type: reflectx.TypeOf[T](), Key: key}
}

func (id Identity) IsKeyed() bool {
	return id.Key != nil
}

// Equal reports whether both the type and the key are equal.
func (id Identity) Equal(other Identity) bool {
	return id == other
}

func (id Identity) String() string {
	if id.Key == nil {
		return fmt.Sprintf("%v", id.Type)
	}
	return fmt.Sprintf("%v[%v]", id.Type, id.Key)
}

func (id Identity) validate() error {
	if id.Type == nil {
		return &errorx.InvalidConfigurationError{Message: "service type is nil"}
	}
	if id.Key != nil && !reflect.TypeOf(id.Key).Comparable() {
		return &errorx.InvalidConfigurationError{
			Message: fmt.Sprintf("the key of type '%T' for service '%v' is not comparable", id.Key, id.Type),
		}
	}
	return nil
}
