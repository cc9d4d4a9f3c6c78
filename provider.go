package compose

import (
	"reflect"

	"github.com/pkg/errors"
	"go.uber.org/dig"
)

// ProviderOptions configures how the provider is built.
type ProviderOptions struct {
	// ValidateOnBuild checks, before anything is constructed, that every
	// registration's dependencies can be satisfied.
	ValidateOnBuild bool
}

// DefaultProviderOptions returns the options used by Build.
func DefaultProviderOptions() *ProviderOptions {
	return &ProviderOptions{
		ValidateOnBuild: true,
	}
}

// ServiceResolver resolves services from the built provider.
type ServiceResolver interface {
	GetServiceType(serviceType reflect.Type) (any, error)
}

// GetService resolves T from r.
func GetService[T any](r ServiceResolver) (T, error) {
	var zero T

	instance, err := r.GetServiceType(TypeOf[T]())
	if err != nil {
		return zero, err
	}

	if instance == nil {
		return zero, nil
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, TypeMismatchError{
			Expected: TypeOf[T](),
			Actual:   reflect.TypeOf(instance),
			Context:  "get service",
		}
	}

	return typed, nil
}

// MustGetService is like GetService but panics on error.
func MustGetService[T any](r ServiceResolver) T {
	instance, err := GetService[T](r)
	if err != nil {
		panic(err)
	}
	return instance
}

// validateGraph replays the registrations into a dry-run container and
// invokes each service type. Constructors are never called.
func validateGraph(descriptors []*Descriptor) error {
	dry := dig.New(dig.DryRun(true))

	for _, d := range descriptors {
		if err := dry.Provide(d.provide.Interface()); err != nil {
			return GraphValidationError{ServiceType: d.Type, Cause: err}
		}
	}

	for _, d := range descriptors {
		if err := dry.Invoke(probe(d.Type, nil)); err != nil {
			return GraphValidationError{ServiceType: d.Type, Cause: err}
		}
	}

	return nil
}

// buildContainer registers every descriptor with a new dig container.
func buildContainer(descriptors []*Descriptor) (*dig.Container, error) {
	c := dig.New()

	for _, d := range descriptors {
		if err := c.Provide(d.provide.Interface()); err != nil {
			return nil, BuildError{
				Phase:   "provide",
				Details: formatType(d.Type),
				Cause:   errors.Wrapf(err, "registration %s", d.ID),
			}
		}
	}

	return c, nil
}

// resolveFrom asks c for one value of serviceType.
func resolveFrom(c *dig.Container, serviceType reflect.Type) (any, error) {
	var instance any
	if err := c.Invoke(probe(serviceType, func(v reflect.Value) { instance = v.Interface() })); err != nil {
		return nil, errors.Wrapf(err, "invoking provider for %s", formatType(serviceType))
	}
	return instance, nil
}

// probe builds a func(serviceType) that dig can invoke.
func probe(serviceType reflect.Type, receive func(reflect.Value)) any {
	fnType := reflect.FuncOf([]reflect.Type{serviceType}, nil, false)
	return reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		if receive != nil {
			receive(args[0])
		}
		return nil
	}).Interface()
}
