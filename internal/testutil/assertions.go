package testutil

import (
	"errors"
	"reflect"
	"testing"

	"github.com/junioryono/compose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RequireResolvable resolves T from c and fails the test if that is not possible.
func RequireResolvable[T any](t *testing.T, c *compose.Container) T {
	t.Helper()
	instance, err := compose.Resolve[T](c)
	require.NoError(t, err, "failed to resolve %s", compose.TypeOf[T]())
	require.NotNil(t, instance, "resolved instance is nil")
	return instance
}

// AssertNotBound checks that T is not bound in c.
func AssertNotBound[T any](t *testing.T, c *compose.Container) {
	t.Helper()
	_, err := compose.Resolve[T](c)
	var notBound compose.NotBoundError
	assert.ErrorAs(t, err, &notBound, "expected %s to be unbound", compose.TypeOf[T]())
}

// RequireService resolves T from the manager's provider.
func RequireService[T any](t *testing.T, m *compose.Manager) T {
	t.Helper()
	instance, err := compose.GetService[T](m)
	require.NoError(t, err, "failed to get service %s", compose.TypeOf[T]())
	require.NotNil(t, instance, "service is nil")
	return instance
}

// RequireErrorAs asserts err matches the error type E and returns it.
func RequireErrorAs[E error](t *testing.T, err error) E {
	t.Helper()
	var target E
	require.Error(t, err)
	require.True(t, errors.As(err, &target), "expected %s, got %T: %v", reflect.TypeOf(target), err, err)
	return target
}

// RequireState asserts the lifecycle state of T in c.
func RequireState[T any](t *testing.T, c *compose.Container, expected compose.State) {
	t.Helper()
	state, ok := c.StateOf(compose.TypeOf[T]())
	require.True(t, ok, "%s is not bound", compose.TypeOf[T]())
	require.Equal(t, expected, state)
}
