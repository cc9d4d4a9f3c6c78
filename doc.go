// Package compose provides a small singleton component container and a
// composition layer that bridges it to go.uber.org/dig.
//
// # Overview
//
// The Container binds type keys to singleton instances:
//   - Direct binding of ready-made instances
//   - Construction from a constructor function whose parameters are looked up by type
//   - Member injection into struct fields marked with the `inject` tag
//   - Initialize hook after construction, Release hook on disposal
//
// The Manager sits on top of it. It owns a dig container for registrations the
// Container does not manage, mirrors host-supplied and existing services into
// the Container, discovers services from a list of candidate types, and
// eagerly realizes required services at startup.
//
// # Basic Usage
//
// Dependencies must be bound before the types that need them:
//
//	c := compose.NewContainer()
//	defer c.Dispose()
//
//	if err := compose.Bind[*Logger](c); err != nil {
//	    log.Fatal(err)
//	}
//	if err := compose.Bind[*Repository](c, compose.WithConstructor(NewRepository)); err != nil {
//	    log.Fatal(err)
//	}
//
//	repo, err := compose.Resolve[*Repository](c)
//
// Binding a type that is already bound does nothing. Resolve never binds.
//
// # Constructors
//
// A constructor is a function func(deps...) T or func(deps...) (T, error).
// Several candidates may be supplied; the one with the most parameters wins.
// Without a candidate, struct and pointer-to-struct types are built from
// their zero value:
//
//	compose.Bind[*Repository](c, compose.WithConstructor(
//	    NewRepository,            // func(*Logger) *Repository
//	    NewRepositoryWithCache,   // func(*Logger, Cache) (*Repository, error) - selected
//	))
//
// # Member Injection
//
// A struct embedding compose.InjectFields (or bound with WithMemberInjection)
// has its `inject`-tagged fields written after construction:
//
//	type Handler struct {
//	    compose.InjectFields
//
//	    Repo  *Repository `inject:""`
//	    clock Clock       `inject:"setter=SetClock"`
//	}
//
// Unexported fields need a setter. Initialize runs after injection, so it may
// use injected members.
//
// # Lifecycle
//
//   - Initializable: Initialize() error runs once after a type is built by Bind
//   - Releasable: Release() error runs once when the Container is disposed
//   - Disposable: Close() error runs once for provider-built services when the Manager closes
//   - RequiredService: realized by Manager.EnsureRequiredServices
//   - Service: discovered by Manager.AddServices
//
// # Composition
//
//	m := compose.NewManager(compose.WithLogger(logger))
//	defer m.Close()
//
//	compose.AddHostService[*Config](m, host)
//	compose.AddSingleton[*Cache](m, compose.WithConstructor(NewCache))
//	m.AddServices(compose.Describe[*Metrics](NewMetrics))
//
//	if err := m.EnsureRequiredServices(); err != nil {
//	    log.Fatal(err)
//	}
//
//	workers, err := compose.ServicesImplementing[Worker](m)
//
// # Thread Safety
//
// Container and Manager are not safe for concurrent use. Compose the
// application from one goroutine, then treat the result as read-only.
//
// # Error Handling
//
// Every failure is returned synchronously and leaves the registry as it was:
//   - NullBindingError: nil instance bound
//   - NoConstructorError: type cannot be built
//   - MissingDependencyError: parameter or member type not bound yet
//   - ReadonlyInjectionError / NoSetterInjectionError: marked member cannot be written
//   - NotBoundError: resolve of an unbound key
//   - GraphValidationError: provider registrations cannot be satisfied
package compose
