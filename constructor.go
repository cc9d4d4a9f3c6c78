package compose

import (
	"reflect"
	"runtime/debug"

	"github.com/junioryono/compose/internal/reflection"
)

// constructor is the function chosen to build a key. An implicit constructor
// (fn invalid) builds the zero value of a struct, or a new zero struct for a
// pointer-to-struct key.
type constructor struct {
	key  reflect.Type
	fn   reflect.Value
	info *reflection.ConstructorInfo
}

// selectConstructor picks the candidate with the most parameters; ties go to
// the first one supplied. Every candidate must produce a value assignable to
// key.
func selectConstructor(analyzer *reflection.Analyzer, key reflect.Type, candidates []any) (*constructor, error) {
	if len(candidates) == 0 {
		return implicitConstructor(key)
	}

	var selected *constructor
	for _, candidate := range candidates {
		info, err := analyzer.Analyze(candidate)
		if err != nil {
			return nil, InvalidConstructorError{
				ServiceType: key,
				Constructor: reflect.TypeOf(candidate),
				Cause:       err,
			}
		}

		if !info.Result.AssignableTo(key) {
			return nil, InvalidConstructorError{
				ServiceType: key,
				Constructor: info.Type,
				Cause: TypeMismatchError{
					Expected: key,
					Actual:   info.Result,
					Context:  "constructor result",
				},
			}
		}

		if selected == nil || info.Arity() > selected.info.Arity() {
			selected = &constructor{key: key, fn: reflect.ValueOf(candidate), info: info}
		}
	}

	return selected, nil
}

func implicitConstructor(key reflect.Type) (*constructor, error) {
	switch {
	case key.Kind() == reflect.Struct:
	case key.Kind() == reflect.Pointer && key.Elem().Kind() == reflect.Struct:
	default:
		return nil, NoConstructorError{ServiceType: key}
	}

	return &constructor{key: key}, nil
}

// parameters returns the dependency types in declaration order.
func (k *constructor) parameters() []reflect.Type {
	if k.info == nil {
		return nil
	}
	return k.info.ParameterTypes()
}

// signature returns the function type used in error messages.
func (k *constructor) signature() reflect.Type {
	if k.info == nil {
		return reflect.FuncOf(nil, []reflect.Type{k.key}, false)
	}
	return k.info.Type
}

// invoke calls the constructor. Panics are recovered into
// ConstructorPanicError; a returned error or nil instance is reported
// without producing a value.
func (k *constructor) invoke(args []reflect.Value) (instance any, err error) {
	if k.info == nil {
		if k.key.Kind() == reflect.Pointer {
			return reflect.New(k.key.Elem()).Interface(), nil
		}
		return reflect.Zero(k.key).Interface(), nil
	}

	defer func() {
		if r := recover(); r != nil {
			instance = nil
			err = ConstructorPanicError{
				Constructor: k.info.Type,
				Panic:       r,
				Stack:       debug.Stack(),
			}
		}
	}()

	out := k.fn.Call(args)

	if k.info.HasErrorReturn && !out[1].IsNil() {
		return nil, ConstructorInvocationError{
			Constructor: k.info.Type,
			Parameters:  k.info.ParameterTypes(),
			Cause:       out[1].Interface().(error),
		}
	}

	instance = out[0].Interface()
	if isNil(instance) {
		return nil, NullBindingError{ServiceType: k.key}
	}

	return instance, nil
}

// providerFunc adapts the constructor into a function dig can register:
// same parameters, results (key, error). onCreate observes every instance
// the provider builds.
func (k *constructor) providerFunc(onCreate func(any)) reflect.Value {
	fnType := reflect.FuncOf(k.parameters(), []reflect.Type{k.key, errType}, false)

	return reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		instance, err := k.invoke(args)
		if err != nil {
			return []reflect.Value{reflect.Zero(k.key), valueAs(errType, err)}
		}

		if onCreate != nil {
			onCreate(instance)
		}

		return []reflect.Value{valueAs(k.key, instance), reflect.Zero(errType)}
	})
}

var errType = TypeOf[error]()
