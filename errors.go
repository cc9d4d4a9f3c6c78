package compose

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/dig"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that should be wrapped in typed errors when returned.

var (
	// Registry errors.
	ErrServiceNotFound   = errors.New("service not found")
	ErrServiceTypeNil    = errors.New("service type cannot be nil")
	ErrContainerDisposed = errors.New("container has been disposed")
	ErrNotInjectable     = errors.New("member injection requires a pointer to a struct")

	// Provider errors.
	ErrProviderBuilt     = errors.New("provider has already been built")
	ErrProviderNotBuilt  = errors.New("provider has not been built")
	ErrProviderClosed    = errors.New("provider has been closed")
	ErrAlreadyRegistered = errors.New("service already registered")
	ErrMarkerNotIface    = errors.New("capability marker must be an interface type")

	// Host errors.
	ErrHostNil            = errors.New("host cannot be nil")
	ErrHostServiceMissing = errors.New("host did not supply the service")
)

var (
	_ error = NullBindingError{}
	_ error = NoConstructorError{}
	_ error = InvalidConstructorError{}
	_ error = MissingDependencyError{}
	_ error = ReadonlyInjectionError{}
	_ error = NoSetterInjectionError{}
	_ error = NotBoundError{}
	_ error = GraphValidationError{}
	_ error = ResolutionError{}
	_ error = RegistrationError{}
	_ error = ValidationError{}
	_ error = TypeMismatchError{}
	_ error = ConstructorInvocationError{}
	_ error = ConstructorPanicError{}
	_ error = InitializationError{}
	_ error = HookPanicError{}
	_ error = HostServiceError{}
	_ error = ModuleError{}
	_ error = BuildError{}
	_ error = DisposalError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// NullBindingError indicates an attempt to bind a nil instance.
type NullBindingError struct {
	ServiceType reflect.Type
}

func (e NullBindingError) Error() string {
	return fmt.Sprintf("cannot bind nil instance to %s", formatType(e.ServiceType))
}

// NoConstructorError indicates a type has no constructor that can build it.
type NoConstructorError struct {
	ServiceType reflect.Type
}

func (e NoConstructorError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("no constructor found for %s\n\n", formatType(e.ServiceType)))
	b.WriteString("Only pointer-to-struct and struct types can be built without a constructor.\n")
	b.WriteString("To resolve this:\n")
	b.WriteString(fmt.Sprintf("  • Supply one with WithConstructor(func(...) %s)\n", formatType(e.ServiceType)))
	b.WriteString(fmt.Sprintf("  • Bind an existing instance with BindInstance[%s]\n", formatType(e.ServiceType)))
	return b.String()
}

// InvalidConstructorError indicates a supplied constructor cannot build the type.
type InvalidConstructorError struct {
	ServiceType reflect.Type
	Constructor reflect.Type
	Cause       error
}

func (e InvalidConstructorError) Error() string {
	return fmt.Sprintf("invalid constructor %s for %s: %v", formatType(e.Constructor), formatType(e.ServiceType), e.Cause)
}

func (e InvalidConstructorError) Unwrap() error {
	return e.Cause
}

// MissingDependencyError indicates a constructor parameter or injected member
// whose type has not been bound yet.
type MissingDependencyError struct {
	// Requester is the type being built.
	Requester reflect.Type

	// Member is the injected member name; empty for constructor parameters.
	Member string

	// Dependency is the unbound type.
	Dependency reflect.Type

	// Available are the keys that are bound (optional, for suggestions).
	Available []reflect.Type
}

func (e MissingDependencyError) Error() string {
	var b strings.Builder

	target := formatType(e.Requester)
	if e.Member != "" {
		target += "." + e.Member
	}

	b.WriteString(fmt.Sprintf("missing dependency for %s: %s", target, formatType(e.Dependency)))

	if similar := findSimilarTypes(e.Dependency, e.Available); len(similar) > 0 {
		b.WriteString("\n\nDid you mean one of these?\n")
		for _, t := range similar {
			b.WriteString(fmt.Sprintf("  • %s\n", formatType(t)))
		}
	}

	return b.String()
}

// ReadonlyInjectionError indicates a marked field that cannot be written.
type ReadonlyInjectionError struct {
	ServiceType reflect.Type
	Member      string
}

func (e ReadonlyInjectionError) Error() string {
	return fmt.Sprintf("%s.%s is readonly, can't inject (export it or add setter=<Method> to the tag)",
		formatType(e.ServiceType), e.Member)
}

// NoSetterInjectionError indicates a marked member whose setter is missing or
// does not accept the member type.
type NoSetterInjectionError struct {
	ServiceType reflect.Type
	Member      string
	Setter      string
}

func (e NoSetterInjectionError) Error() string {
	return fmt.Sprintf("%s.%s has no setter %s, can't inject", formatType(e.ServiceType), e.Member, e.Setter)
}

// NotBoundError indicates a resolve of an unregistered key.
type NotBoundError struct {
	ServiceType reflect.Type
	Available   []reflect.Type
}

func (e NotBoundError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s is not bound", formatType(e.ServiceType)))

	if similar := findSimilarTypes(e.ServiceType, e.Available); len(similar) > 0 {
		b.WriteString("\n\nDid you mean one of these?\n")
		for _, t := range similar {
			b.WriteString(fmt.Sprintf("  • %s\n", formatType(t)))
		}
	}

	return b.String()
}

func (e NotBoundError) Unwrap() error {
	return ErrServiceNotFound
}

// GraphValidationError indicates the provider's build-time validation found a
// registration whose dependencies cannot be satisfied.
type GraphValidationError struct {
	ServiceType reflect.Type
	Cause       error
}

func (e GraphValidationError) Error() string {
	return fmt.Sprintf("graph validation failed for %s: %v", formatType(e.ServiceType), dig.RootCause(e.Cause))
}

func (e GraphValidationError) Unwrap() error {
	return e.Cause
}

// IsCycle reports whether the failure was caused by a dependency cycle.
func (e GraphValidationError) IsCycle() bool {
	return dig.IsCycleDetected(e.Cause)
}

// ResolutionError wraps errors that occur during provider resolution.
type ResolutionError struct {
	ServiceType reflect.Type
	Cause       error
	Available   []reflect.Type
}

func (e ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("failed to resolve %s", formatType(e.ServiceType)))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if similar := findSimilarTypes(e.ServiceType, e.Available); len(similar) > 0 {
		b.WriteString("\n\nDid you mean one of these?\n")
		for _, t := range similar {
			b.WriteString(fmt.Sprintf("  • %s\n", formatType(t)))
		}
	}

	return b.String()
}

func (e ResolutionError) Unwrap() error {
	return e.Cause
}

// RegistrationError wraps errors during provider registration.
type RegistrationError struct {
	ServiceType reflect.Type
	Operation   string // "register", "scan", "host"
	Cause       error
}

func (e RegistrationError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, formatType(e.ServiceType), e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// ValidationError indicates a validation failure.
type ValidationError struct {
	ServiceType reflect.Type
	Cause       error
}

func (e ValidationError) Error() string {
	if e.ServiceType != nil {
		return fmt.Sprintf("%s: %v", formatType(e.ServiceType), e.Cause)
	}
	return e.Cause.Error()
}

func (e ValidationError) Unwrap() error {
	return e.Cause
}

// TypeMismatchError indicates an instance that does not fit its key.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
	Context  string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, formatType(e.Expected), formatType(e.Actual))
}

// ConstructorInvocationError wraps an error returned by a constructor.
type ConstructorInvocationError struct {
	Constructor reflect.Type
	Parameters  []reflect.Type
	Cause       error
}

func (e ConstructorInvocationError) Error() string {
	paramStrs := make([]string, len(e.Parameters))
	for i, p := range e.Parameters {
		paramStrs[i] = formatType(p)
	}
	return fmt.Sprintf("failed to invoke %s with parameters [%s]: %v",
		formatType(e.Constructor), strings.Join(paramStrs, ", "), e.Cause)
}

func (e ConstructorInvocationError) Unwrap() error {
	return e.Cause
}

// ConstructorPanicError indicates a constructor panicked during invocation.
// It captures the panic value and stack trace for debugging.
type ConstructorPanicError struct {
	Constructor reflect.Type
	Panic       any
	Stack       []byte
}

func (e ConstructorPanicError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("constructor %s panicked: %v\n", formatType(e.Constructor), e.Panic))

	b.WriteString("\nConstructors should be pure dependency wiring - avoid operations that can panic.\n")
	b.WriteString("Move fallible startup work into Initialize().\n")

	if len(e.Stack) > 0 {
		b.WriteString("\nStack trace:\n")
		b.Write(e.Stack)
	}

	return b.String()
}

// InitializationError wraps an error returned by Initialize.
type InitializationError struct {
	ServiceType reflect.Type
	Cause       error
}

func (e InitializationError) Error() string {
	return fmt.Sprintf("failed to initialize %s: %v", formatType(e.ServiceType), e.Cause)
}

func (e InitializationError) Unwrap() error {
	return e.Cause
}

// HookPanicError indicates a lifecycle hook panicked. It captures the panic
// value and stack trace.
type HookPanicError struct {
	ServiceType reflect.Type
	Hook        string // "Initialize", "Release"
	Panic       any
	Stack       []byte
}

func (e HookPanicError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s.%s panicked: %v\n", formatType(e.ServiceType), e.Hook, e.Panic))

	if len(e.Stack) > 0 {
		b.WriteString("\nStack trace:\n")
		b.Write(e.Stack)
	}

	return b.String()
}

// HostServiceError indicates the host could not supply a requested service.
type HostServiceError struct {
	ServiceType reflect.Type
	Cause       error
}

func (e HostServiceError) Error() string {
	return fmt.Sprintf("host service %s: %v", formatType(e.ServiceType), e.Cause)
}

func (e HostServiceError) Unwrap() error {
	return e.Cause
}

// ModuleError wraps errors from module registration.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

// BuildError wraps errors that occur while building the provider.
type BuildError struct {
	Phase   string // "validation", "provide"
	Details string
	Cause   error
}

func (e BuildError) Error() string {
	return fmt.Sprintf("build failed during %s phase: %s: %v", e.Phase, e.Details, e.Cause)
}

func (e BuildError) Unwrap() error {
	return e.Cause
}

// DisposalError aggregates disposal errors.
type DisposalError struct {
	Context string // "container", "provider", "manager"
	Errors  []error
}

func (e DisposalError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s disposal failed: %v", e.Context, e.Errors[0])
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s disposal failed with %d errors:", e.Context, len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
	}
	return sb.String()
}

func (e DisposalError) Unwrap() []error {
	return e.Errors
}

// findSimilarTypes finds types with similar names using a simple substring/prefix match
func findSimilarTypes(target reflect.Type, available []reflect.Type) []reflect.Type {
	if target == nil || len(available) == 0 {
		return nil
	}

	targetName := target.String()
	targetShortName := shortName(target)

	var similar []reflect.Type
	for _, t := range available {
		if t == nil || t == target {
			continue
		}

		typeName := t.String()
		typeShortName := shortName(t)

		// Same short name (different packages or pointer-ness), or one contains the other
		if targetShortName == typeShortName ||
			strings.Contains(strings.ToLower(typeName), strings.ToLower(targetShortName)) ||
			strings.Contains(strings.ToLower(targetName), strings.ToLower(typeShortName)) {
			similar = append(similar, t)
		}

		if len(similar) >= 5 {
			break
		}
	}

	return similar
}

func shortName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		// Format pointers as *Type instead of *package.Type
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Func:
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
