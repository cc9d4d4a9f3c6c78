package compose

import "reflect"

// TypeOf returns the key under which values of type T are bound. It works for
// interface types as well as concrete ones.
//
//	compose.TypeOf[Logger]()     // interface key
//	compose.TypeOf[*Database]()  // pointer key
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// isNil reports whether v is nil or a typed nil of a nillable kind.
func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// valueAs converts instance into a reflect.Value of exactly type t, which
// matters when t is an interface type.
func valueAs(t reflect.Type, instance any) reflect.Value {
	v := reflect.New(t).Elem()
	if instance != nil {
		v.Set(reflect.ValueOf(instance))
	}
	return v
}
