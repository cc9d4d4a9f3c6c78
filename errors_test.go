package compose

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	errTestLogger  struct{}
	errTestService interface{ Do() }
)

func TestSentinelErrors(t *testing.T) {
	sentinelErrors := []struct {
		err     error
		message string
	}{
		{ErrServiceNotFound, "service not found"},
		{ErrServiceTypeNil, "service type cannot be nil"},
		{ErrContainerDisposed, "container has been disposed"},
		{ErrNotInjectable, "member injection requires a pointer to a struct"},
		{ErrProviderBuilt, "provider has already been built"},
		{ErrProviderNotBuilt, "provider has not been built"},
		{ErrProviderClosed, "provider has been closed"},
		{ErrAlreadyRegistered, "service already registered"},
		{ErrMarkerNotIface, "capability marker must be an interface type"},
		{ErrHostNil, "host cannot be nil"},
		{ErrHostServiceMissing, "host did not supply the service"},
	}

	for _, tt := range sentinelErrors {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestMissingDependencyError(t *testing.T) {
	loggerType := reflect.TypeOf(&errTestLogger{})
	serviceType := TypeOf[errTestService]()

	t.Run("constructor parameter", func(t *testing.T) {
		err := MissingDependencyError{Requester: serviceType, Dependency: loggerType}
		assert.Equal(t, "missing dependency for errTestService: *errTestLogger", err.Error())
	})

	t.Run("member", func(t *testing.T) {
		err := MissingDependencyError{Requester: serviceType, Member: "Logger", Dependency: loggerType}
		assert.Equal(t, "missing dependency for errTestService.Logger: *errTestLogger", err.Error())
	})

	t.Run("suggestions", func(t *testing.T) {
		err := MissingDependencyError{
			Requester:  serviceType,
			Dependency: loggerType,
			Available:  []reflect.Type{reflect.TypeOf(errTestLogger{}), reflect.TypeOf(0)},
		}

		msg := err.Error()
		assert.Contains(t, msg, "Did you mean one of these?")
		assert.Contains(t, msg, "errTestLogger")
		assert.NotContains(t, msg, "int")
	})
}

func TestInjectionErrors(t *testing.T) {
	owner := reflect.TypeOf(errTestLogger{})

	readonly := ReadonlyInjectionError{ServiceType: owner, Member: "clock"}
	assert.Equal(t, "errTestLogger.clock is readonly, can't inject (export it or add setter=<Method> to the tag)", readonly.Error())

	noSetter := NoSetterInjectionError{ServiceType: owner, Member: "clock", Setter: "SetClock"}
	assert.Equal(t, "errTestLogger.clock has no setter SetClock, can't inject", noSetter.Error())
}

func TestNotBoundError(t *testing.T) {
	err := NotBoundError{ServiceType: reflect.TypeOf(&errTestLogger{})}

	assert.Equal(t, "*errTestLogger is not bound", err.Error())
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestNoConstructorError(t *testing.T) {
	err := NoConstructorError{ServiceType: TypeOf[errTestService]()}

	msg := err.Error()
	assert.Contains(t, msg, "no constructor found for errTestService")
	assert.Contains(t, msg, "WithConstructor")
}

func TestWrappingErrors(t *testing.T) {
	cause := errors.New("underlying")
	serviceType := reflect.TypeOf(&errTestLogger{})

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"invalid constructor", InvalidConstructorError{ServiceType: serviceType, Constructor: reflect.TypeOf(func() {}), Cause: cause}, "invalid constructor func()"},
		{"resolution", ResolutionError{ServiceType: serviceType, Cause: cause}, "failed to resolve *errTestLogger: underlying"},
		{"registration", RegistrationError{ServiceType: serviceType, Operation: "register", Cause: cause}, "failed to register *errTestLogger"},
		{"validation", ValidationError{ServiceType: serviceType, Cause: cause}, "*errTestLogger: underlying"},
		{"invocation", ConstructorInvocationError{Constructor: reflect.TypeOf(func(int) {}), Parameters: []reflect.Type{reflect.TypeOf(0)}, Cause: cause}, "with parameters [int]"},
		{"initialization", InitializationError{ServiceType: serviceType, Cause: cause}, "failed to initialize *errTestLogger"},
		{"host", HostServiceError{ServiceType: serviceType, Cause: cause}, "host service *errTestLogger"},
		{"build", BuildError{Phase: "provide", Details: "*errTestLogger", Cause: cause}, "build failed during provide phase"},
		{"graph", GraphValidationError{ServiceType: serviceType, Cause: cause}, "graph validation failed for *errTestLogger: underlying"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.err.Error(), tt.contains)
			assert.ErrorIs(t, tt.err, cause)
		})
	}
}

func TestValidationError_NoServiceType(t *testing.T) {
	err := ValidationError{Cause: ErrServiceTypeNil}
	assert.Equal(t, ErrServiceTypeNil.Error(), err.Error())
}

func TestConstructorPanicError(t *testing.T) {
	err := ConstructorPanicError{
		Constructor: reflect.TypeOf(func() *errTestLogger { return nil }),
		Panic:       "boom",
		Stack:       []byte("goroutine 1"),
	}

	msg := err.Error()
	assert.Contains(t, msg, "panicked: boom")
	assert.Contains(t, msg, "Stack trace:\ngoroutine 1")
}

func TestHookPanicError(t *testing.T) {
	err := HookPanicError{
		ServiceType: reflect.TypeOf(&errTestLogger{}),
		Hook:        "Release",
		Panic:       "boom",
		Stack:       []byte("goroutine 1"),
	}

	msg := err.Error()
	assert.Contains(t, msg, "*errTestLogger.Release panicked: boom")
	assert.Contains(t, msg, "Stack trace:\ngoroutine 1")
}

func TestDisposalError(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	t.Run("single", func(t *testing.T) {
		err := DisposalError{Context: "container", Errors: []error{first}}
		assert.Equal(t, "container disposal failed: first", err.Error())
	})

	t.Run("multiple", func(t *testing.T) {
		err := DisposalError{Context: "manager", Errors: []error{first, second}}

		assert.Equal(t, "manager disposal failed with 2 errors:\n  1. first\n  2. second", err.Error())
		assert.ErrorIs(t, err, first)
		assert.ErrorIs(t, err, second)
	})

	t.Run("wrapped", func(t *testing.T) {
		var target DisposalError
		wrapped := fmt.Errorf("shutdown: %w", DisposalError{Context: "provider", Errors: []error{first}})

		require.True(t, errors.As(wrapped, &target))
		assert.Equal(t, "provider", target.Context)
	})
}

func TestFormatType(t *testing.T) {
	tests := []struct {
		typ      reflect.Type
		expected string
	}{
		{nil, "<nil>"},
		{reflect.TypeOf(0), "int"},
		{reflect.TypeOf(errTestLogger{}), "errTestLogger"},
		{reflect.TypeOf(&errTestLogger{}), "*errTestLogger"},
		{reflect.TypeOf([]errTestLogger{}), "[]errTestLogger"},
		{reflect.TypeOf((*int)(nil)), "*int"},
		{TypeOf[errTestService](), "errTestService"},
		{reflect.TypeOf(func(int) error { return nil }), "func(int) error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatType(tt.typ))
		})
	}
}

func TestFindSimilarTypes(t *testing.T) {
	target := reflect.TypeOf(&errTestLogger{})

	assert.Nil(t, findSimilarTypes(nil, []reflect.Type{target}))
	assert.Nil(t, findSimilarTypes(target, nil))

	similar := findSimilarTypes(target, []reflect.Type{
		target,
		reflect.TypeOf(errTestLogger{}),
		reflect.TypeOf(""),
	})
	assert.Equal(t, []reflect.Type{reflect.TypeOf(errTestLogger{})}, similar)
}
