package reflection

import (
	"errors"
	"reflect"
	"strings"
	"sync"
)

// InjectFields marks a struct as eligible for member injection when it is
// embedded anonymously.
type InjectFields struct{}

// InjectTag is the struct tag selecting members for injection.
const InjectTag = "inject"

var (
	injectFieldsType = reflect.TypeOf((*InjectFields)(nil)).Elem()
	errType          = reflect.TypeOf((*error)(nil)).Elem()
)

var (
	ErrNilConstructor   = errors.New("constructor cannot be nil")
	ErrNotFunction      = errors.New("constructor must be a function")
	ErrVariadic         = errors.New("variadic constructors are not supported")
	ErrNoResult         = errors.New("constructor must return a value")
	ErrTooManyResults   = errors.New("constructor must return a value and an optional error")
	ErrSecondNotError   = errors.New("second constructor result must be an error")
	ErrResultIsError    = errors.New("constructor result cannot be an error")
	ErrNotStruct        = errors.New("injection target must be a struct")
	ErrMalformedSetter  = errors.New("setter option requires a method name")
	ErrUnknownTagOption = errors.New("unknown inject tag option")
)

// Analyzer performs reflection-based analysis of constructors and injection
// targets. Results are cached per constructor function and per struct type.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[uintptr]*ConstructorInfo
	plans map[reflect.Type]*InjectionPlan
}

// ConstructorInfo contains analyzed information about a constructor function.
// Closures created from the same function literal share one entry, so the
// info never carries the function value itself.
type ConstructorInfo struct {
	Type           reflect.Type
	Parameters     []ParameterInfo
	Result         reflect.Type
	HasErrorReturn bool
}

// ParameterInfo describes a constructor parameter.
type ParameterInfo struct {
	Type  reflect.Type
	Index int
}

// Arity returns the number of constructor parameters.
func (info *ConstructorInfo) Arity() int {
	return len(info.Parameters)
}

// ParameterTypes returns the declared parameter types in order.
func (info *ConstructorInfo) ParameterTypes() []reflect.Type {
	types := make([]reflect.Type, len(info.Parameters))
	for i, p := range info.Parameters {
		types[i] = p.Type
	}
	return types
}

// InjectionPlan lists the members of a struct selected for injection.
type InjectionPlan struct {
	Type    reflect.Type
	Marked  bool
	Members []Member
}

// Member describes a struct field carrying the inject tag.
type Member struct {
	Name     string
	Type     reflect.Type
	Index    int
	Exported bool

	// Setter names the method used to write the member. Empty means the
	// field is written directly.
	Setter string
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		cache: make(map[uintptr]*ConstructorInfo),
		plans: make(map[reflect.Type]*InjectionPlan),
	}
}

// Analyze analyzes a constructor function and extracts its parameter list
// and result type.
func (a *Analyzer) Analyze(constructor any) (*ConstructorInfo, error) {
	if constructor == nil {
		return nil, ErrNilConstructor
	}

	val := reflect.ValueOf(constructor)
	if val.Kind() != reflect.Func {
		return nil, ErrNotFunction
	}

	if val.IsNil() {
		return nil, ErrNilConstructor
	}

	// Different functions with the same signature are cached separately
	cacheKey := val.Pointer()

	a.mu.RLock()
	if cached, ok := a.cache[cacheKey]; ok && cached.Type == val.Type() {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	typ := val.Type()
	if typ.IsVariadic() {
		return nil, ErrVariadic
	}

	info := &ConstructorInfo{Type: typ}

	if err := analyzeReturns(info); err != nil {
		return nil, err
	}

	info.Parameters = make([]ParameterInfo, typ.NumIn())
	for i := 0; i < typ.NumIn(); i++ {
		info.Parameters[i] = ParameterInfo{Type: typ.In(i), Index: i}
	}

	a.mu.Lock()
	a.cache[cacheKey] = info
	a.mu.Unlock()

	return info, nil
}

// analyzeReturns accepts T or (T, error).
func analyzeReturns(info *ConstructorInfo) error {
	typ := info.Type

	switch typ.NumOut() {
	case 0:
		return ErrNoResult
	case 1:
	case 2:
		if typ.Out(1) != errType {
			return ErrSecondNotError
		}
		info.HasErrorReturn = true
	default:
		return ErrTooManyResults
	}

	if typ.Out(0) == errType {
		return ErrResultIsError
	}

	info.Result = typ.Out(0)
	return nil
}

// Plan builds the injection plan for a struct type. Both exported and
// unexported fields are considered; only fields carrying the inject tag
// become members.
func (a *Analyzer) Plan(structType reflect.Type) (*InjectionPlan, error) {
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	if structType.Kind() != reflect.Struct {
		return nil, ErrNotStruct
	}

	a.mu.RLock()
	if cached, ok := a.plans[structType]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	plan := &InjectionPlan{
		Type:   structType,
		Marked: HasInjectFields(structType),
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Anonymous && field.Type == injectFieldsType {
			continue
		}

		tag, ok := field.Tag.Lookup(InjectTag)
		if !ok {
			continue
		}

		opts, err := parseInjectTag(tag)
		if err != nil {
			return nil, &TagError{Struct: structType, Field: field.Name, Tag: tag, Cause: err}
		}

		if opts.skip {
			continue
		}

		plan.Members = append(plan.Members, Member{
			Name:     field.Name,
			Type:     field.Type,
			Index:    i,
			Exported: field.IsExported(),
			Setter:   opts.setter,
		})
	}

	a.mu.Lock()
	a.plans[structType] = plan
	a.mu.Unlock()

	return plan, nil
}

// TagError reports a malformed inject tag.
type TagError struct {
	Struct reflect.Type
	Field  string
	Tag    string
	Cause  error
}

func (e *TagError) Error() string {
	return e.Struct.Name() + "." + e.Field + ": invalid inject tag " + `"` + e.Tag + `": ` + e.Cause.Error()
}

func (e *TagError) Unwrap() error {
	return e.Cause
}

type tagOptions struct {
	skip   bool
	setter string
}

// parseInjectTag parses the inject tag value.
// Supported formats:
//   - `inject:""` - write the field directly
//   - `inject:"-"` - ignore the field
//   - `inject:"setter=SetLogger"` - write through the named method
func parseInjectTag(tag string) (tagOptions, error) {
	opts := tagOptions{}

	tag = strings.TrimSpace(tag)
	if tag == "" {
		return opts, nil
	}

	if tag == "-" {
		opts.skip = true
		return opts, nil
	}

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.HasPrefix(part, "setter="):
			opts.setter = strings.TrimSpace(strings.TrimPrefix(part, "setter="))
			if opts.setter == "" {
				return opts, ErrMalformedSetter
			}
		default:
			return opts, ErrUnknownTagOption
		}
	}

	return opts, nil
}

// HasInjectFields reports whether t (or the struct t points to) embeds
// InjectFields anonymously.
func HasInjectFields(t reflect.Type) bool {
	return hasEmbeddedType(t, injectFieldsType)
}

// Clear clears both caches.
func (a *Analyzer) Clear() {
	a.mu.Lock()
	a.cache = make(map[uintptr]*ConstructorInfo)
	a.plans = make(map[reflect.Type]*InjectionPlan)
	a.mu.Unlock()
}

// CacheSize returns the number of cached constructor analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cache)
}

// hasEmbeddedType checks if a type has an embedded field of the given type.
func hasEmbeddedType(t, embedded reflect.Type) bool {
	if t == nil {
		return false
	}

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type == embedded {
			return true
		}
	}

	return false
}
