package compose

import (
	"reflect"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// Manager composes the local Container with an external dependency injection
// provider (dig).
//
// Registrations made through AddSingleton, AddSingletonFactory and
// AddServices live only in the provider and resolve their dependencies from
// the provider's graph. Existing and host-supplied services are registered
// with the provider and mirrored into the Container, so types bound there
// can depend on them too. The two graphs are independent: a dependency
// shared by both must be made available to both by the caller.
//
// Manager is NOT safe for concurrent use.
//
// Example:
//
//	m := compose.NewManager()
//	defer m.Close()
//
//	compose.AddExistingService(m, cfg)
//	compose.AddSingleton[*Cache](m, compose.WithConstructor(NewCache))
//	m.AddServices(catalog...)
//
//	if err := m.EnsureRequiredServices(); err != nil {
//	    log.Fatal(err)
//	}
type Manager struct {
	id        string
	logger    *zap.Logger
	container *Container
	options   *ProviderOptions

	descriptors []*Descriptor
	registered  map[reflect.Type]*Descriptor
	tracker     *lifecycleManager

	provider *dig.Container
	closed   bool
}

// NewManager creates a Manager. The Manager and its Container are registered
// with the provider so services can depend on them.
func NewManager(opts ...ManagerOption) *Manager {
	options := &managerOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyManagerOption(options)
		}
	}

	logger := loggerOrNop(options.logger)

	container := options.container
	if container == nil {
		container = NewContainer(WithLogger(logger))
	}

	providerOptions := options.provider
	if providerOptions == nil {
		providerOptions = DefaultProviderOptions()
	}

	m := &Manager{
		id:         uuid.NewString(),
		container:  container,
		options:    providerOptions,
		registered: make(map[reflect.Type]*Descriptor),
		tracker:    newLifecycleManager(),
	}
	m.logger = logger.With(zap.String("manager", m.id))

	m.register(newInstanceDescriptor(TypeOf[*Manager](), m))
	m.register(newInstanceDescriptor(TypeOf[*Container](), container))

	return m
}

// ID returns the unique ID of this manager.
func (m *Manager) ID() string {
	return m.id
}

// Container returns the local Container.
func (m *Manager) Container() *Container {
	return m.container
}

// IsBuilt reports whether the provider has been built.
func (m *Manager) IsBuilt() bool {
	return m.provider != nil
}

// Descriptors returns a copy of the registrations in registration order.
func (m *Manager) Descriptors() []*Descriptor {
	out := make([]*Descriptor, len(m.descriptors))
	copy(out, m.descriptors)
	return out
}

// Contains reports whether serviceType is registered with the provider.
func (m *Manager) Contains(serviceType reflect.Type) bool {
	_, ok := m.registered[serviceType]
	return ok
}

// AddSingleton registers T with the provider. Its constructor is chosen the
// same way Bind chooses one, but parameters are resolved from the provider.
func AddSingleton[T any](m *Manager, opts ...BindOption) error {
	return m.AddSingletonType(TypeOf[T](), opts...)
}

// AddSingletonType is the untyped form of AddSingleton.
func (m *Manager) AddSingletonType(serviceType reflect.Type, opts ...BindOption) error {
	if err := m.checkRegistrable(serviceType); err != nil {
		return err
	}

	options := newBindOptions(opts)

	ctor, err := selectConstructor(m.container.analyzer, serviceType, options.constructors)
	if err != nil {
		return RegistrationError{ServiceType: serviceType, Operation: "register", Cause: err}
	}

	d := newDescriptor(serviceType, ctor.providerFunc(func(instance any) {
		m.tracker.track(serviceType, instance)
		m.logger.Debug("constructed", zap.Stringer("type", serviceType))
	}))
	d.Constructor = ctor.signature()

	return m.register(d)
}

// AddSingletonFactory registers T with the provider, built by factory. The
// factory receives the Manager to resolve whatever it needs.
func AddSingletonFactory[T any](m *Manager, factory func(ServiceResolver) (T, error)) error {
	serviceType := TypeOf[T]()

	if err := m.checkRegistrable(serviceType); err != nil {
		return err
	}

	if factory == nil {
		return RegistrationError{ServiceType: serviceType, Operation: "register", Cause: ErrServiceTypeNil}
	}

	provide := func() (T, error) {
		instance, err := factory(m)
		if err != nil {
			return instance, err
		}
		if isNil(instance) {
			return instance, NullBindingError{ServiceType: serviceType}
		}

		m.tracker.track(serviceType, instance)
		m.logger.Debug("constructed by factory", zap.Stringer("type", serviceType))
		return instance, nil
	}

	d := newDescriptor(serviceType, reflect.ValueOf(provide))
	d.Constructor = reflect.TypeOf(factory)
	d.IsFactory = true

	return m.register(d)
}

// AddExistingService registers instance with the provider and binds it in the
// Container under the key of T.
func AddExistingService[T any](m *Manager, instance T) error {
	return m.AddExistingServiceOf(TypeOf[T](), instance)
}

// AddExistingServiceOf is the untyped form of AddExistingService.
func (m *Manager) AddExistingServiceOf(serviceType reflect.Type, instance any) error {
	if err := m.checkRegistrable(serviceType); err != nil {
		return err
	}

	if existing, ok := m.registered[serviceType]; ok {
		return duplicateRegistration(existing)
	}

	if _, err := m.container.BindInstanceOf(serviceType, instance); err != nil {
		return RegistrationError{ServiceType: serviceType, Operation: "register", Cause: err}
	}

	return m.register(newInstanceDescriptor(serviceType, instance))
}

// AddServices registers every concrete candidate implementing Service.
func (m *Manager) AddServices(candidates ...TypeInfo) (int, error) {
	return m.ScanForCapability(serviceType, candidates...)
}

// AddServicesFrom registers every concrete type from source implementing
// Service.
func (m *Manager) AddServicesFrom(source TypeSource) (int, error) {
	return m.AddServices(source.Types()...)
}

// ScanForCapability registers, as singletons, the concrete candidates
// assignable to marker that are not yet registered. It returns the number of
// new registrations.
func (m *Manager) ScanForCapability(marker reflect.Type, candidates ...TypeInfo) (int, error) {
	if marker == nil || marker.Kind() != reflect.Interface {
		return 0, ValidationError{ServiceType: marker, Cause: ErrMarkerNotIface}
	}

	added := 0
	for _, info := range candidates {
		if !info.IsConcrete() || !info.Type.Implements(marker) {
			continue
		}

		if m.Contains(info.Type) {
			continue
		}

		if err := m.AddSingletonType(info.Type, WithConstructor(info.Constructors...)); err != nil {
			return added, err
		}
		added++
	}

	m.logger.Debug("scanned for capability",
		zap.Stringer("marker", marker),
		zap.Int("candidates", len(candidates)),
		zap.Int("registered", added),
	)

	return added, nil
}

// Build builds the provider with the Manager's provider options.
func (m *Manager) Build() error {
	return m.BuildWithOptions(m.options)
}

// BuildWithOptions builds the provider. It is a no-op once built. When
// validation is enabled a registration with unsatisfiable dependencies fails
// the build with GraphValidationError and nothing is constructed.
func (m *Manager) BuildWithOptions(options *ProviderOptions) error {
	if m.closed {
		return ErrProviderClosed
	}

	if m.provider != nil {
		return nil
	}

	if options == nil {
		options = DefaultProviderOptions()
	}

	if options.ValidateOnBuild {
		if err := validateGraph(m.descriptors); err != nil {
			m.logger.Debug("validation failed", zap.Error(err))
			return err
		}
	}

	provider, err := buildContainer(m.descriptors)
	if err != nil {
		return err
	}

	m.provider = provider
	m.logger.Debug("provider built", zap.Int("registrations", len(m.descriptors)))

	return nil
}

// EnsureRequiredServices builds the provider if needed, then resolves every
// registration implementing RequiredService.
func (m *Manager) EnsureRequiredServices() error {
	if err := m.Build(); err != nil {
		return err
	}

	for _, d := range m.descriptors {
		if !d.Type.Implements(requiredServiceType) {
			continue
		}

		if _, err := m.GetServiceType(d.Type); err != nil {
			return err
		}
		m.logger.Debug("realized required service", zap.Stringer("type", d.Type))
	}

	return nil
}

// GetServiceType resolves serviceType from the built provider.
func (m *Manager) GetServiceType(serviceType reflect.Type) (any, error) {
	if m.closed {
		return nil, ResolutionError{ServiceType: serviceType, Cause: ErrProviderClosed}
	}

	if m.provider == nil {
		return nil, ResolutionError{ServiceType: serviceType, Cause: ErrProviderNotBuilt}
	}

	if !m.Contains(serviceType) {
		return nil, ResolutionError{
			ServiceType: serviceType,
			Cause:       ErrServiceNotFound,
			Available:   m.serviceTypes(),
		}
	}

	instance, err := resolveFrom(m.provider, serviceType)
	if err != nil {
		return nil, ResolutionError{ServiceType: serviceType, Cause: err}
	}

	return instance, nil
}

// ServicesImplementing returns every registration assignable to T, resolved
// in registration order. It returns nothing until the provider is built.
func ServicesImplementing[T any](m *Manager) ([]T, error) {
	if m.provider == nil || m.closed {
		return nil, nil
	}

	target := TypeOf[T]()

	var services []T
	for _, d := range m.descriptors {
		if !d.Implements(target) {
			continue
		}

		instance, err := m.GetServiceType(d.Type)
		if err != nil {
			return nil, err
		}

		typed, ok := instance.(T)
		if !ok {
			return nil, TypeMismatchError{Expected: target, Actual: reflect.TypeOf(instance), Context: "services implementing"}
		}
		services = append(services, typed)
	}

	return services, nil
}

// Close disposes provider-created Disposable services, most recent first,
// then disposes the Container. Calls after the first are no-ops.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error

	if err := m.tracker.dispose(); err != nil {
		errs = append(errs, err)
	}
	m.provider = nil

	if err := m.container.Dispose(); err != nil {
		errs = append(errs, err)
	}

	m.logger.Debug("closed", zap.Int("errors", len(errs)))

	if len(errs) > 0 {
		return DisposalError{Context: "manager", Errors: errs}
	}

	return nil
}

func (m *Manager) checkRegistrable(serviceType reflect.Type) error {
	if m.closed {
		return ErrProviderClosed
	}

	if serviceType == nil {
		return ValidationError{Cause: ErrServiceTypeNil}
	}

	if m.provider != nil {
		return RegistrationError{ServiceType: serviceType, Operation: "register", Cause: ErrProviderBuilt}
	}

	return nil
}

func (m *Manager) register(d *Descriptor) error {
	if existing, ok := m.registered[d.Type]; ok {
		return duplicateRegistration(existing)
	}

	m.descriptors = append(m.descriptors, d)
	m.registered[d.Type] = d

	m.logger.Debug("registered",
		zap.Stringer("type", d.Type),
		zap.String("id", d.ID),
		zap.Bool("instance", d.IsInstance),
	)

	return nil
}

func duplicateRegistration(existing *Descriptor) error {
	return RegistrationError{
		ServiceType: existing.Type,
		Operation:   "register",
		Cause:       errors.Wrapf(ErrAlreadyRegistered, "registration %s", existing.ID),
	}
}

func (m *Manager) serviceTypes() []reflect.Type {
	types := make([]reflect.Type, len(m.descriptors))
	for i, d := range m.descriptors {
		types[i] = d.Type
	}
	return types
}
