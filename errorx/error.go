package errorx

import (
	"fmt"
	"reflect"
	"strings"
)

type ArgumentNilError struct {
	Name string
}

func (e *ArgumentNilError) Error() string {
	return fmt.Sprintf("ArgumentNilError: %v", e.Name)
}

func NewArgumentNilError(name string) *ArgumentNilError {
	return &ArgumentNilError{name}
}

type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("ArgumentError: %v", e.Message)
}

func NewArgumentError(message string) *ArgumentError {
	return &ArgumentError{message}
}

type CircularDependencyError struct {
	Message string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("CircularDependencyError: %v", e.Message)
}

type FuncSignatureError struct {
	Message string
}

func (e *FuncSignatureError) Error() string {
	return fmt.Sprintf("FuncSignatureError: %v", e.Message)
}

type ServiceNotFound struct {
	ServiceType reflect.Type
	Key         any
}

func (e *ServiceNotFound) Error() string {
	if e.Key != nil {
		return fmt.Sprintf("ServiceNotFound '%v' with key '%v'", e.ServiceType, e.Key)
	}
	return fmt.Sprintf("ServiceNotFound '%v'", e.ServiceType)
}

type InvalidDescriptor struct {
	ServiceType reflect.Type
}

func (e *InvalidDescriptor) Error() string {
	return fmt.Sprintf("InvalidDescriptor '%v'", e.ServiceType)
}

// InvalidConfigurationError is returned when a descriptor is given no usable implementation.
type InvalidConfigurationError struct {
	Message string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("InvalidConfigurationError: %v", e.Message)
}

// NoPendingArgumentError is returned when a call-scoped parameter is resolved
// outside of a call that supplied a value of its type.
type NoPendingArgumentError struct {
	ArgType reflect.Type
}

func (e *NoPendingArgumentError) Error() string {
	return fmt.Sprintf("NoPendingArgumentError: no argument of type '%v' pending for the current call", e.ArgType)
}

// NestedArgumentError is returned when a call-scoped resolution supplies an
// argument type that an enclosing call of the same chain already supplies.
type NestedArgumentError struct {
	ArgType reflect.Type
}

func (e *NestedArgumentError) Error() string {
	return fmt.Sprintf("NestedArgumentError: an argument of type '%v' is already pending in this call chain", e.ArgType)
}

// UnknownArgumentError is returned when an argument is supplied for a type
// that was never registered for call-scoped injection.
type UnknownArgumentError struct {
	ArgType reflect.Type
}

func (e *UnknownArgumentError) Error() string {
	return fmt.Sprintf("UnknownArgumentError: type '%v' is not registered for call-scoped injection", e.ArgType)
}

// NoActiveNamedScopeError is returned when a named-scope binding is resolved
// from a scope that was created without a name.
type NoActiveNamedScopeError struct {
	ServiceType reflect.Type
	Key         any
}

func (e *NoActiveNamedScopeError) Error() string {
	if e.Key != nil {
		return fmt.Sprintf("NoActiveNamedScopeError: '%v' with key '%v' requires a named scope", e.ServiceType, e.Key)
	}
	return fmt.Sprintf("NoActiveNamedScopeError: '%v' requires a named scope", e.ServiceType)
}

// ScopeNameAssignedError is returned when a scope is named twice.
type ScopeNameAssignedError struct {
	Name string
}

func (e *ScopeNameAssignedError) Error() string {
	return fmt.Sprintf("ScopeNameAssignedError: the scope is already named '%v'", e.Name)
}

type TypeIncompatibilityError struct {
	To   reflect.Type
	From reflect.Type
}

func (e *TypeIncompatibilityError) Error() string {
	return fmt.Sprintf("the value of type '%v' can not assignable to type '%v'", e.From, e.To)
}

type ObjectDisposedError struct {
	Message string
}

func (e *ObjectDisposedError) Error() string {
	return fmt.Sprintf("ObjectDisposedError: %v", e.Message)
}

type ScopedServiceFromRootError struct {
	Message string
}

func (e *ScopedServiceFromRootError) Error() string {
	return fmt.Sprintf("ScopedServiceFromRootError: %v", e.Message)
}

type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Add(err error) {
	e.Errors = append(e.Errors, err)
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	b.WriteString("AggregateError: \n")
	for _, e := range e.Errors {
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return b.String()
}
