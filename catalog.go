package compose

import "reflect"

// TypeInfo describes a candidate type for capability scanning.
type TypeInfo struct {
	// Type is the concrete type, usually a pointer to a struct.
	Type reflect.Type

	// Constructors are the candidate constructors; empty means the zero
	// value is used.
	Constructors []any

	// Abstract excludes the type from scanning even if it is concrete.
	Abstract bool
}

// Describe returns the TypeInfo for T.
func Describe[T any](constructors ...any) TypeInfo {
	return TypeInfo{
		Type:         TypeOf[T](),
		Constructors: constructors,
	}
}

// IsConcrete reports whether the type can be instantiated.
func (info TypeInfo) IsConcrete() bool {
	return info.Type != nil && info.Type.Kind() != reflect.Interface && !info.Abstract
}

// TypeSource supplies candidate types, e.g. a package's exported services.
type TypeSource interface {
	Types() []TypeInfo
}

// TypeList is a TypeSource backed by a slice.
type TypeList []TypeInfo

// Types returns the list itself.
func (l TypeList) Types() []TypeInfo {
	return l
}
