package compose

import (
	"fmt"
	"reflect"
)

// Initializable is implemented by components that need a setup step once
// construction and member injection have finished. Initialize runs exactly
// once, synchronously, before Bind returns; an error aborts the bind.
type Initializable interface {
	Initialize() error
}

// Releasable is implemented by components that need a teardown step.
// Release runs exactly once when the owning Container is disposed.
type Releasable interface {
	Release() error
}

// RequiredService marks a registration that must be constructed eagerly by
// Manager.EnsureRequiredServices, whether or not anything resolves it.
type RequiredService interface {
	RequiredService()
}

// Service marks a type for discovery by Manager.AddServices.
type Service interface {
	Service()
}

var (
	requiredServiceType = TypeOf[RequiredService]()
	serviceType         = TypeOf[Service]()
)

// State is the lifecycle state of an instance slot.
type State int

const (
	// Registered is a raw instance that has not been built by the container.
	Registered State = iota

	// Constructed means the constructor returned successfully.
	Constructed

	// MembersInjected means marked members have been written.
	MembersInjected

	// Initialized means the instance is ready for use. Directly bound
	// instances enter here.
	Initialized

	// Released means the release hook has run during disposal.
	Released
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case Registered:
		return "Registered"
	case Constructed:
		return "Constructed"
	case MembersInjected:
		return "MembersInjected"
	case Initialized:
		return "Initialized"
	case Released:
		return "Released"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// lifecycleManager tracks provider-created instances for disposal.
type lifecycleManager struct {
	disposables []trackedDisposable
}

type trackedDisposable struct {
	serviceType reflect.Type
	disposable  Disposable
}

func newLifecycleManager() *lifecycleManager {
	return &lifecycleManager{}
}

// track records instance if it implements Disposable.
func (m *lifecycleManager) track(serviceType reflect.Type, instance any) {
	if d, ok := instance.(Disposable); ok {
		m.disposables = append(m.disposables, trackedDisposable{serviceType: serviceType, disposable: d})
	}
}

// count returns the number of tracked disposables.
func (m *lifecycleManager) count() int {
	return len(m.disposables)
}

// dispose closes all tracked instances in reverse order (LIFO). Every
// instance is closed even when an earlier one fails.
func (m *lifecycleManager) dispose() error {
	disposables := m.disposables
	m.disposables = nil

	var errs []error
	for i := len(disposables) - 1; i >= 0; i-- {
		tracked := disposables[i]
		if err := tracked.disposable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", formatType(tracked.serviceType), err))
		}
	}

	if len(errs) > 0 {
		return DisposalError{Context: "provider", Errors: errs}
	}

	return nil
}
