package compose

import (
	"reflect"

	"github.com/google/uuid"
)

// Descriptor describes one registration with the provider.
type Descriptor struct {
	// ID identifies the registration in logs.
	ID string

	// Type is the service type this descriptor produces.
	Type reflect.Type

	// Constructor is the signature of the constructor or factory; nil for
	// instances.
	Constructor reflect.Type

	// IsInstance indicates the descriptor holds a ready-made instance.
	IsInstance bool

	// Instance is the value when IsInstance is true.
	Instance any

	// IsFactory indicates the service is built by a factory receiving a
	// ServiceResolver instead of typed parameters.
	IsFactory bool

	// provide is the function handed to dig.
	provide reflect.Value
}

func newDescriptor(serviceType reflect.Type, provide reflect.Value) *Descriptor {
	return &Descriptor{
		ID:      uuid.NewString(),
		Type:    serviceType,
		provide: provide,
	}
}

// newInstanceDescriptor wraps instance in a function returning it as
// serviceType.
func newInstanceDescriptor(serviceType reflect.Type, instance any) *Descriptor {
	fnType := reflect.FuncOf(nil, []reflect.Type{serviceType}, false)
	value := valueAs(serviceType, instance)

	d := newDescriptor(serviceType, reflect.MakeFunc(fnType, func([]reflect.Value) []reflect.Value {
		return []reflect.Value{value}
	}))
	d.IsInstance = true
	d.Instance = instance

	return d
}

// Implements reports whether the service type can be used as iface.
func (d *Descriptor) Implements(iface reflect.Type) bool {
	return d.Type.AssignableTo(iface)
}
