package testutil

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/junioryono/compose"
)

// Common test errors
var (
	ErrTest        = errors.New("test error")
	ErrConstructor = errors.New("constructor error")
	ErrDisposal    = errors.New("disposal error")
)

// Logger is a dependency-free component.
type Logger struct {
	Prefix string
	lines  []string
}

func NewLogger() *Logger {
	return &Logger{Prefix: "[test] "}
}

func (l *Logger) Log(msg string) {
	l.lines = append(l.lines, l.Prefix+msg)
}

func (l *Logger) Lines() []string {
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Repository depends on Logger through its constructor.
type Repository struct {
	Logger *Logger
}

func NewRepository(logger *Logger) *Repository {
	return &Repository{Logger: logger}
}

// Store is an interface key implemented by *MemoryStore.
type Store interface {
	Get(key string) (string, bool)
}

// MemoryStore implements Store.
type MemoryStore struct {
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{"greeting": "hello"}}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Recorder collects lifecycle events in order across components.
type Recorder struct {
	Events []string
}

func (r *Recorder) Record(format string, args ...any) {
	r.Events = append(r.Events, fmt.Sprintf(format, args...))
}

// Component counts its lifecycle hooks and can be told to fail them.
type Component struct {
	Name        string
	Recorder    *Recorder
	InitErr     error
	ReleaseErr  error
	initialized atomic.Int32
	released    atomic.Int32
}

var (
	_ compose.Initializable = (*Component)(nil)
	_ compose.Releasable    = (*Component)(nil)
)

func (c *Component) Initialize() error {
	c.initialized.Add(1)
	if c.Recorder != nil {
		c.Recorder.Record("initialize %s", c.Name)
	}
	return c.InitErr
}

func (c *Component) Release() error {
	c.released.Add(1)
	if c.Recorder != nil {
		c.Recorder.Record("release %s", c.Name)
	}
	return c.ReleaseErr
}

func (c *Component) Initialized() int {
	return int(c.initialized.Load())
}

func (c *Component) Released() int {
	return int(c.released.Load())
}

// Closer is a provider-owned resource.
type Closer struct {
	Name     string
	Recorder *Recorder
	CloseErr error
	closed   atomic.Int32
}

var _ compose.Disposable = (*Closer)(nil)

func (c *Closer) Close() error {
	c.closed.Add(1)
	if c.Recorder != nil {
		c.Recorder.Record("close %s", c.Name)
	}
	return c.CloseErr
}

func (c *Closer) Closed() int {
	return int(c.closed.Load())
}
