package compose

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/compose/internal/reflection"
)

// Test types for descriptor tests
type descriptorService struct {
	Value string
}

func (*descriptorService) Service() {}

type descriptorDependency struct{}

func newDescriptorService() *descriptorService {
	return &descriptorService{Value: "test"}
}

func newDescriptorServiceWithDependency(*descriptorDependency) *descriptorService {
	return &descriptorService{Value: "with-dep"}
}

func TestNewInstanceDescriptor(t *testing.T) {
	instance := &descriptorService{Value: "instance"}

	d := newInstanceDescriptor(TypeOf[Service](), instance)

	assert.NotEmpty(t, d.ID)
	assert.True(t, d.IsInstance)
	assert.False(t, d.IsFactory)
	assert.Same(t, instance, d.Instance)
	assert.Equal(t, TypeOf[Service](), d.Type)

	out := d.provide.Call(nil)
	require.Len(t, out, 1)
	assert.Equal(t, TypeOf[Service](), out[0].Type())
	assert.Same(t, instance, out[0].Interface())
}

func TestDescriptor_Implements(t *testing.T) {
	d := newInstanceDescriptor(TypeOf[*descriptorService](), &descriptorService{})

	assert.True(t, d.Implements(TypeOf[Service]()))
	assert.False(t, d.Implements(TypeOf[RequiredService]()))
	assert.False(t, d.Implements(TypeOf[*descriptorDependency]()))
}

func TestDescriptor_UniqueIDs(t *testing.T) {
	a := newInstanceDescriptor(TypeOf[*descriptorService](), &descriptorService{})
	b := newInstanceDescriptor(TypeOf[*descriptorService](), &descriptorService{})

	assert.NotEqual(t, a.ID, b.ID)
}

func TestSelectConstructor(t *testing.T) {
	analyzer := reflection.New()
	key := TypeOf[*descriptorService]()

	t.Run("most parameters", func(t *testing.T) {
		ctor, err := selectConstructor(analyzer, key, []any{newDescriptorService, newDescriptorServiceWithDependency})
		require.NoError(t, err)

		assert.Equal(t, []reflect.Type{TypeOf[*descriptorDependency]()}, ctor.parameters())
		assert.Equal(t, reflect.TypeOf(newDescriptorServiceWithDependency), ctor.signature())
	})

	t.Run("implicit", func(t *testing.T) {
		ctor, err := selectConstructor(analyzer, key, nil)
		require.NoError(t, err)

		assert.Empty(t, ctor.parameters())
		assert.Equal(t, "func() *compose.descriptorService", ctor.signature().String())

		instance, err := ctor.invoke(nil)
		require.NoError(t, err)
		assert.IsType(t, &descriptorService{}, instance)
	})

	t.Run("implicit struct value", func(t *testing.T) {
		ctor, err := selectConstructor(analyzer, TypeOf[descriptorService](), nil)
		require.NoError(t, err)

		instance, err := ctor.invoke(nil)
		require.NoError(t, err)
		assert.Equal(t, descriptorService{}, instance)
	})

	t.Run("no constructor", func(t *testing.T) {
		_, err := selectConstructor(analyzer, TypeOf[int](), nil)

		var noCtor NoConstructorError
		assert.ErrorAs(t, err, &noCtor)
	})

	t.Run("invalid candidate", func(t *testing.T) {
		_, err := selectConstructor(analyzer, key, []any{nil})

		var invalid InvalidConstructorError
		require.ErrorAs(t, err, &invalid)
		assert.ErrorIs(t, err, reflection.ErrNilConstructor)
	})
}

func TestConstructor_ProviderFunc(t *testing.T) {
	analyzer := reflection.New()
	errBroken := errors.New("broken")

	t.Run("reports created instances", func(t *testing.T) {
		ctor, err := selectConstructor(analyzer, TypeOf[Service](), []any{newDescriptorService})
		require.NoError(t, err)

		var created []any
		fn := ctor.providerFunc(func(instance any) { created = append(created, instance) })

		assert.Equal(t, reflect.FuncOf(nil, []reflect.Type{TypeOf[Service](), errType}, false), fn.Type())

		out := fn.Call(nil)
		require.Len(t, out, 2)
		assert.True(t, out[1].IsNil())
		require.Len(t, created, 1)
		assert.Same(t, created[0], out[0].Interface())
	})

	t.Run("returns errors", func(t *testing.T) {
		ctor, err := selectConstructor(analyzer, TypeOf[*descriptorService](), []any{
			func() (*descriptorService, error) { return nil, errBroken },
		})
		require.NoError(t, err)

		called := false
		out := ctor.providerFunc(func(any) { called = true }).Call(nil)

		require.False(t, out[1].IsNil())
		assert.ErrorIs(t, out[1].Interface().(error), errBroken)
		assert.True(t, out[0].IsNil())
		assert.False(t, called)
	})
}

func TestTypeInfo(t *testing.T) {
	assert.True(t, Describe[*descriptorService]().IsConcrete())
	assert.False(t, Describe[Service]().IsConcrete())
	assert.False(t, TypeInfo{}.IsConcrete())
	assert.False(t, TypeInfo{Type: TypeOf[*descriptorService](), Abstract: true}.IsConcrete())

	info := Describe[*descriptorService](newDescriptorService)
	assert.Len(t, info.Constructors, 1)

	list := TypeList{info}
	assert.Equal(t, []TypeInfo{info}, list.Types())
}
