package reflection_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/junioryono/compose/internal/reflection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test types
type Database struct {
	ConnectionString string
}

type Logger interface {
	Log(msg string)
}

type UserService struct {
	DB     *Database
	Logger Logger
}

func NewDatabase() *Database {
	return &Database{ConnectionString: "memory"}
}

func NewUserService(db *Database, logger Logger) *UserService {
	return &UserService{DB: db, Logger: logger}
}

func NewUserServiceWithError(db *Database) (*UserService, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	return &UserService{DB: db}, nil
}

type injected struct {
	reflection.InjectFields

	DB     *Database `inject:""`
	logger Logger    `inject:"setter=SetLogger"`
	cache  *Database `inject:"-"`
	plain  string
}

type unmarked struct {
	DB *Database `inject:""`
}

func TestAnalyzer_Analyze(t *testing.T) {
	t.Run("no parameters", func(t *testing.T) {
		a := reflection.New()

		info, err := a.Analyze(NewDatabase)
		require.NoError(t, err)

		assert.Equal(t, 0, info.Arity())
		assert.Equal(t, reflect.TypeOf(&Database{}), info.Result)
		assert.False(t, info.HasErrorReturn)
	})

	t.Run("parameters in declaration order", func(t *testing.T) {
		a := reflection.New()

		info, err := a.Analyze(NewUserService)
		require.NoError(t, err)

		require.Equal(t, 2, info.Arity())
		assert.Equal(t, []reflect.Type{
			reflect.TypeOf(&Database{}),
			reflect.TypeOf((*Logger)(nil)).Elem(),
		}, info.ParameterTypes())
		assert.Equal(t, 1, info.Parameters[1].Index)
	})

	t.Run("error return", func(t *testing.T) {
		a := reflection.New()

		info, err := a.Analyze(NewUserServiceWithError)
		require.NoError(t, err)

		assert.True(t, info.HasErrorReturn)
		assert.Equal(t, reflect.TypeOf(&UserService{}), info.Result)
	})

	t.Run("caches by function", func(t *testing.T) {
		a := reflection.New()

		first, err := a.Analyze(NewUserService)
		require.NoError(t, err)
		second, err := a.Analyze(NewUserService)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, a.CacheSize())

		a.Clear()
		assert.Equal(t, 0, a.CacheSize())
	})

	t.Run("invalid constructors", func(t *testing.T) {
		var nilFunc func() *Database

		tests := []struct {
			name        string
			constructor any
			expected    error
		}{
			{"nil", nil, reflection.ErrNilConstructor},
			{"typed nil", nilFunc, reflection.ErrNilConstructor},
			{"not a function", &Database{}, reflection.ErrNotFunction},
			{"variadic", func(...string) *Database { return nil }, reflection.ErrVariadic},
			{"no result", func() {}, reflection.ErrNoResult},
			{"three results", func() (*Database, *Database, error) { return nil, nil, nil }, reflection.ErrTooManyResults},
			{"second not error", func() (*Database, string) { return nil, "" }, reflection.ErrSecondNotError},
			{"only error", func() error { return nil }, reflection.ErrResultIsError},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := reflection.New().Analyze(tt.constructor)
				assert.ErrorIs(t, err, tt.expected)
			})
		}
	})
}

func TestAnalyzer_Plan(t *testing.T) {
	t.Run("collects tagged members", func(t *testing.T) {
		a := reflection.New()

		plan, err := a.Plan(reflect.TypeOf(&injected{}))
		require.NoError(t, err)

		assert.True(t, plan.Marked)
		assert.Equal(t, reflect.TypeOf(injected{}), plan.Type)
		require.Len(t, plan.Members, 2)

		assert.Equal(t, "DB", plan.Members[0].Name)
		assert.True(t, plan.Members[0].Exported)
		assert.Empty(t, plan.Members[0].Setter)

		assert.Equal(t, "logger", plan.Members[1].Name)
		assert.False(t, plan.Members[1].Exported)
		assert.Equal(t, "SetLogger", plan.Members[1].Setter)
		assert.Equal(t, reflect.TypeOf((*Logger)(nil)).Elem(), plan.Members[1].Type)
	})

	t.Run("unmarked struct", func(t *testing.T) {
		plan, err := reflection.New().Plan(reflect.TypeOf(unmarked{}))
		require.NoError(t, err)

		assert.False(t, plan.Marked)
		assert.Len(t, plan.Members, 1)
	})

	t.Run("cached", func(t *testing.T) {
		a := reflection.New()

		first, err := a.Plan(reflect.TypeOf(&injected{}))
		require.NoError(t, err)
		second, err := a.Plan(reflect.TypeOf(injected{}))
		require.NoError(t, err)

		assert.Same(t, first, second)
	})

	t.Run("not a struct", func(t *testing.T) {
		_, err := reflection.New().Plan(reflect.TypeOf(42))
		assert.ErrorIs(t, err, reflection.ErrNotStruct)
	})

	t.Run("malformed tags", func(t *testing.T) {
		type emptySetter struct {
			DB *Database `inject:"setter="`
		}
		type unknownOption struct {
			DB *Database `inject:"optional"`
		}

		_, err := reflection.New().Plan(reflect.TypeOf(emptySetter{}))
		assert.ErrorIs(t, err, reflection.ErrMalformedSetter)

		var tagErr *reflection.TagError
		_, err = reflection.New().Plan(reflect.TypeOf(unknownOption{}))
		require.ErrorAs(t, err, &tagErr)
		assert.Equal(t, "DB", tagErr.Field)
		assert.ErrorIs(t, err, reflection.ErrUnknownTagOption)
	})
}

func TestHasInjectFields(t *testing.T) {
	type named struct {
		Marker reflection.InjectFields
	}

	assert.True(t, reflection.HasInjectFields(reflect.TypeOf(injected{})))
	assert.True(t, reflection.HasInjectFields(reflect.TypeOf(&injected{})))
	assert.False(t, reflection.HasInjectFields(reflect.TypeOf(unmarked{})))
	assert.False(t, reflection.HasInjectFields(reflect.TypeOf(named{})))
	assert.False(t, reflection.HasInjectFields(reflect.TypeOf("")))
	assert.False(t, reflection.HasInjectFields(nil))
}
