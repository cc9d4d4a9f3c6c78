package compose

import (
	"reflect"

	"go.uber.org/zap"
)

// HostServiceTag marks the fields a Host populates.
const HostServiceTag = "service"

// Host is the surrounding application that owns ready-made services. Inject
// fills every field of target tagged `service:""` with the host's instance
// of the field's type.
type Host interface {
	Inject(target any) error
}

// HostFunc adapts a function to Host.
type HostFunc func(target any) error

// Inject calls f(target).
func (f HostFunc) Inject(target any) error {
	return f(target)
}

// hostService is the wrapper a Host populates.
type hostService[T any] struct {
	Service T `service:""`
}

// AddHostService asks host for its T, registers it with the provider and
// binds it in the Container. The host itself is registered under the Host
// key the first time.
func AddHostService[T any](m *Manager, host Host) error {
	_, err := addHostService[T](m, host)
	return err
}

// InitializeHostService is AddHostService returning the service.
func InitializeHostService[T any](m *Manager, host Host) (T, error) {
	return addHostService[T](m, host)
}

func addHostService[T any](m *Manager, host Host) (T, error) {
	var zero T
	serviceType := TypeOf[T]()

	if isNil(host) {
		return zero, HostServiceError{ServiceType: serviceType, Cause: ErrHostNil}
	}

	wrapper := &hostService[T]{}
	if err := host.Inject(wrapper); err != nil {
		return zero, HostServiceError{ServiceType: serviceType, Cause: err}
	}

	if isNil(wrapper.Service) {
		return zero, HostServiceError{ServiceType: serviceType, Cause: ErrHostServiceMissing}
	}

	if err := AddExistingService(m, wrapper.Service); err != nil {
		return zero, err
	}

	if hostType := TypeOf[Host](); !m.Contains(hostType) {
		if err := m.register(newInstanceDescriptor(hostType, host)); err != nil {
			return zero, err
		}
	}

	m.logger.Debug("added host service", zap.Stringer("type", serviceType))

	return wrapper.Service, nil
}

// StaticHost is a Host serving a fixed set of instances, keyed by type.
type StaticHost struct {
	services map[reflect.Type]any
}

// NewStaticHost creates an empty StaticHost.
func NewStaticHost() *StaticHost {
	return &StaticHost{services: make(map[reflect.Type]any)}
}

// Offer makes instance available from h under the key of T.
func Offer[T any](h *StaticHost, instance T) *StaticHost {
	h.services[TypeOf[T]()] = instance
	return h
}

// Inject fills the tagged fields of target, which must be a pointer to a
// struct. Fields whose type the host does not offer are left untouched.
func (h *StaticHost) Inject(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ValidationError{ServiceType: reflect.TypeOf(target), Cause: ErrNotInjectable}
	}

	elem := v.Elem()
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Type().Field(i)
		if _, ok := field.Tag.Lookup(HostServiceTag); !ok {
			continue
		}

		if !field.IsExported() {
			return ReadonlyInjectionError{ServiceType: elem.Type(), Member: field.Name}
		}

		instance, ok := h.services[field.Type]
		if !ok {
			continue
		}

		elem.Field(i).Set(valueAs(field.Type, instance))
	}

	return nil
}
