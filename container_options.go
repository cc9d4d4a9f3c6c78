package compose

import (
	"go.uber.org/zap"
)

// ContainerOption configures a Container.
type ContainerOption interface {
	applyContainerOption(*containerOptions)
}

// ManagerOption configures a Manager.
type ManagerOption interface {
	applyManagerOption(*managerOptions)
}

// Option configures both a Container and a Manager.
type Option interface {
	ContainerOption
	ManagerOption
}

// BindOption configures a single Bind or AddSingleton call.
type BindOption interface {
	applyBindOption(*bindOptions)
}

// containerOptions holds container configuration.
type containerOptions struct {
	logger *zap.Logger
}

// managerOptions holds manager configuration.
type managerOptions struct {
	logger    *zap.Logger
	container *Container
	provider  *ProviderOptions
}

// bindOptions holds per-binding configuration.
type bindOptions struct {
	constructors  []any
	injectMembers bool
}

func newBindOptions(opts []BindOption) *bindOptions {
	options := &bindOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyBindOption(options)
		}
	}
	return options
}

type loggerOption struct {
	logger *zap.Logger
}

func (o loggerOption) applyContainerOption(opts *containerOptions) {
	opts.logger = o.logger
}

func (o loggerOption) applyManagerOption(opts *managerOptions) {
	opts.logger = o.logger
}

// WithLogger sets the structured logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return loggerOption{logger: logger}
}

// managerOptionFunc adapts a function to ManagerOption.
type managerOptionFunc func(*managerOptions)

func (f managerOptionFunc) applyManagerOption(opts *managerOptions) {
	f(opts)
}

// WithContainer makes the Manager mirror services into an existing Container
// instead of creating its own. The Manager takes ownership and disposes it
// on Close.
func WithContainer(c *Container) ManagerOption {
	return managerOptionFunc(func(opts *managerOptions) {
		opts.container = c
	})
}

// WithProviderOptions sets the options used when the provider is built
// implicitly by EnsureRequiredServices.
func WithProviderOptions(options *ProviderOptions) ManagerOption {
	return managerOptionFunc(func(opts *managerOptions) {
		opts.provider = options
	})
}

// bindOptionFunc adapts a function to BindOption.
type bindOptionFunc func(*bindOptions)

func (f bindOptionFunc) applyBindOption(opts *bindOptions) {
	f(opts)
}

// WithConstructor supplies constructor functions for a type. Each must have
// the form func(deps...) T or func(deps...) (T, error). When several are
// given, the one with the most parameters is used; ties go to the first.
func WithConstructor(constructors ...any) BindOption {
	return bindOptionFunc(func(opts *bindOptions) {
		opts.constructors = append(opts.constructors, constructors...)
	})
}

// WithMemberInjection enables member injection for a type that does not embed
// InjectFields.
func WithMemberInjection() BindOption {
	return bindOptionFunc(func(opts *bindOptions) {
		opts.injectMembers = true
	})
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
