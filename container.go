package compose

import (
	"fmt"
	"reflect"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/junioryono/compose/internal/reflection"
)

// Container is a type-keyed registry of singleton instances.
//
// Instances are bound either directly (BindInstance) or by letting the
// container construct them (Bind). Constructor parameters are looked up in
// the registry by their declared type, so dependencies must be bound before
// the types that need them. Nothing is ever bound implicitly by Resolve.
//
// Container is NOT safe for concurrent use. Bind everything during a
// single-goroutine startup phase; callers needing concurrent access must add
// their own synchronization.
//
// Example:
//
//	c := compose.NewContainer()
//	defer c.Dispose()
//
//	compose.Bind[*Logger](c, compose.WithConstructor(NewLogger))
//	compose.Bind[*Repository](c, compose.WithConstructor(NewRepository))
//
//	repo, err := compose.Resolve[*Repository](c)
type Container struct {
	analyzer *reflection.Analyzer
	logger   *zap.Logger

	slots    map[reflect.Type]*slot
	order    []reflect.Type
	disposed bool
}

// slot holds one bound instance and its lifecycle state.
type slot struct {
	key      reflect.Type
	instance any
	state    State
}

// NewContainer creates an empty Container.
func NewContainer(opts ...ContainerOption) *Container {
	options := &containerOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyContainerOption(options)
		}
	}

	return &Container{
		analyzer: reflection.New(),
		logger:   loggerOrNop(options.logger),
		slots:    make(map[reflect.Type]*slot),
	}
}

// BindInstance binds instance to the key of T, replacing any previous
// binding. The instance is assumed fully formed: no injection or
// initialization runs. It returns the stored instance.
func BindInstance[T any](c *Container, instance T) (T, error) {
	if _, err := c.BindInstanceOf(TypeOf[T](), instance); err != nil {
		var zero T
		return zero, err
	}
	return instance, nil
}

// Bind constructs T and binds it, unless T is already bound, in which case it
// does nothing.
func Bind[T any](c *Container, opts ...BindOption) error {
	return c.BindType(TypeOf[T](), opts...)
}

// Resolve returns the instance bound to the key of T.
func Resolve[T any](c *Container) (T, error) {
	var zero T

	instance, err := c.ResolveType(TypeOf[T]())
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, TypeMismatchError{
			Expected: TypeOf[T](),
			Actual:   reflect.TypeOf(instance),
			Context:  "resolve",
		}
	}

	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](c *Container) T {
	instance, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return instance
}

// BindInstanceOf binds instance to key, replacing any previous binding.
func (c *Container) BindInstanceOf(key reflect.Type, instance any) (any, error) {
	if err := c.checkBindable(key); err != nil {
		return nil, err
	}

	if isNil(instance) {
		return nil, NullBindingError{ServiceType: key}
	}

	if actual := reflect.TypeOf(instance); !actual.AssignableTo(key) {
		return nil, TypeMismatchError{Expected: key, Actual: actual, Context: "bind instance"}
	}

	c.store(key, instance, Initialized)
	c.logger.Debug("bound instance", zap.Stringer("type", key))

	return instance, nil
}

// BindType constructs and binds key. It is a no-op when key is already
// bound. On any error the registry is left exactly as it was.
func (c *Container) BindType(key reflect.Type, opts ...BindOption) error {
	if err := c.checkBindable(key); err != nil {
		return err
	}

	if _, ok := c.slots[key]; ok {
		c.logger.Debug("bind skipped, already bound", zap.Stringer("type", key))
		return nil
	}

	options := newBindOptions(opts)

	ctor, err := selectConstructor(c.analyzer, key, options.constructors)
	if err != nil {
		return err
	}

	args, err := c.resolveArguments(key, ctor)
	if err != nil {
		return err
	}

	instance, err := ctor.invoke(args)
	if err != nil {
		return err
	}
	state := Constructed

	if options.injectMembers || reflection.HasInjectFields(reflect.TypeOf(instance)) {
		if err := c.injectMembers(key, instance); err != nil {
			return err
		}
		state = MembersInjected
	}

	s := c.store(key, instance, state)

	if initializable, ok := instance.(Initializable); ok {
		if err := runHook(key, "Initialize", initializable.Initialize); err != nil {
			c.remove(key)
			return InitializationError{ServiceType: key, Cause: err}
		}
	}

	s.state = Initialized
	c.logger.Debug("bound",
		zap.Stringer("type", key),
		zap.Int("dependencies", len(args)),
	)

	return nil
}

// ResolveType returns the instance bound to key.
func (c *Container) ResolveType(key reflect.Type) (any, error) {
	if key == nil {
		return nil, ValidationError{Cause: ErrServiceTypeNil}
	}

	s, ok := c.slots[key]
	if !ok {
		return nil, NotBoundError{ServiceType: key, Available: c.Keys()}
	}

	return s.instance, nil
}

// Contains reports whether key is bound.
func (c *Container) Contains(key reflect.Type) bool {
	_, ok := c.slots[key]
	return ok
}

// Len returns the number of bound keys.
func (c *Container) Len() int {
	return len(c.slots)
}

// Keys returns the bound keys in bind order.
func (c *Container) Keys() []reflect.Type {
	keys := make([]reflect.Type, len(c.order))
	copy(keys, c.order)
	return keys
}

// StateOf returns the lifecycle state of key.
func (c *Container) StateOf(key reflect.Type) (State, bool) {
	s, ok := c.slots[key]
	if !ok {
		return Registered, false
	}
	return s.state, true
}

// IsDisposed reports whether Dispose has been called.
func (c *Container) IsDisposed() bool {
	return c.disposed
}

// Dispose calls Release on every bound Releasable, most recently bound first,
// then clears the registry. An instance bound under several keys is released
// once. Every hook runs even if an earlier one fails; failures are returned
// as a DisposalError. Calls after the first are no-ops.
func (c *Container) Dispose() error {
	if c.disposed {
		return nil
	}
	c.disposed = true

	released := make(map[any]struct{})
	var errs []error

	for i := len(c.order) - 1; i >= 0; i-- {
		s := c.slots[c.order[i]]

		if releasable, ok := s.instance.(Releasable); ok && !seen(released, s.instance) {
			if err := runHook(s.key, "Release", releasable.Release); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", formatType(s.key), err))
			}
			c.logger.Debug("released", zap.Stringer("type", s.key))
		}

		s.state = Released
	}

	clear(c.slots)
	c.order = nil

	if len(errs) > 0 {
		return DisposalError{Context: "container", Errors: errs}
	}

	return nil
}

// runHook calls a lifecycle hook, recovering a panic into HookPanicError.
func runHook(key reflect.Type, hook string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = HookPanicError{ServiceType: key, Hook: hook, Panic: r, Stack: debug.Stack()}
		}
	}()

	return fn()
}

// seen records instance in set and reports whether it was already there.
// Instances whose dynamic value is not comparable are never deduplicated.
func seen(set map[any]struct{}, instance any) bool {
	if !reflect.ValueOf(instance).Comparable() {
		return false
	}

	if _, ok := set[instance]; ok {
		return true
	}

	set[instance] = struct{}{}
	return false
}

func (c *Container) checkBindable(key reflect.Type) error {
	if c.disposed {
		return ErrContainerDisposed
	}

	if key == nil {
		return ValidationError{Cause: ErrServiceTypeNil}
	}

	return nil
}

// resolveArguments looks up every constructor parameter by its declared type.
func (c *Container) resolveArguments(key reflect.Type, ctor *constructor) ([]reflect.Value, error) {
	params := ctor.parameters()
	args := make([]reflect.Value, len(params))

	for i, param := range params {
		s, ok := c.slots[param]
		if !ok {
			return nil, MissingDependencyError{
				Requester:  key,
				Dependency: param,
				Available:  c.Keys(),
			}
		}
		args[i] = valueAs(param, s.instance)
	}

	return args, nil
}

func (c *Container) store(key reflect.Type, instance any, state State) *slot {
	if s, ok := c.slots[key]; ok {
		s.instance = instance
		s.state = state
		return s
	}

	s := &slot{key: key, instance: instance, state: state}
	c.slots[key] = s
	c.order = append(c.order, key)
	return s
}

func (c *Container) remove(key reflect.Type) {
	delete(c.slots, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
