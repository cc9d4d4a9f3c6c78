package compose

import "go.uber.org/zap"

// ModuleOption represents a registration action within a module.
type ModuleOption func(*Manager) error

// NewModule creates a new module with the given name and builders.
// Modules are a way to group related registrations together.
//
// Example:
//
//	var StorageModule = compose.NewModule("storage",
//	    compose.Singleton[*Database](compose.WithConstructor(NewDatabase)),
//	    compose.Singleton[*UserRepository](compose.WithConstructor(NewUserRepository)),
//	)
//
//	var AppModule = compose.NewModule("app",
//	    StorageModule,
//	    compose.HostService[*Config](host),
//	    compose.Services(catalog...),
//	)
//
//	m.AddModules(AppModule)
func NewModule(name string, builders ...ModuleOption) ModuleOption {
	return func(m *Manager) error {
		for _, builder := range builders {
			if builder == nil {
				continue
			}

			if err := builder(m); err != nil {
				return ModuleError{Module: name, Cause: err}
			}
		}

		m.logger.Debug("applied module", zap.String("module", name), zap.Int("builders", len(builders)))

		return nil
	}
}

// AddModules applies modules in order, stopping at the first error.
// Registrations made before the failure are kept.
func (m *Manager) AddModules(modules ...ModuleOption) error {
	for _, module := range modules {
		if module == nil {
			continue
		}

		if err := module(m); err != nil {
			return err
		}
	}

	return nil
}

// Singleton creates a ModuleOption that registers T with the provider.
func Singleton[T any](opts ...BindOption) ModuleOption {
	return func(m *Manager) error {
		return AddSingleton[T](m, opts...)
	}
}

// Factory creates a ModuleOption that registers T built by factory.
func Factory[T any](factory func(ServiceResolver) (T, error)) ModuleOption {
	return func(m *Manager) error {
		return AddSingletonFactory(m, factory)
	}
}

// Existing creates a ModuleOption that registers a ready-made instance.
func Existing[T any](instance T) ModuleOption {
	return func(m *Manager) error {
		return AddExistingService(m, instance)
	}
}

// HostService creates a ModuleOption that registers the host's T.
func HostService[T any](host Host) ModuleOption {
	return func(m *Manager) error {
		return AddHostService[T](m, host)
	}
}

// Services creates a ModuleOption that registers the Service candidates.
func Services(candidates ...TypeInfo) ModuleOption {
	return func(m *Manager) error {
		_, err := m.AddServices(candidates...)
		return err
	}
}

// Component creates a ModuleOption that binds T in the Manager's Container.
func Component[T any](opts ...BindOption) ModuleOption {
	return func(m *Manager) error {
		return Bind[T](m.container, opts...)
	}
}
