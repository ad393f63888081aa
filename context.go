package jsonapi

import (
	"go.uber.org/zap"
)

// Context holds the per-call state of a single top-level document
// serialization: the ordered included-resources collection, the schema
// registry, and a logger. Contexts must not be shared across unrelated
// document serializations.
type Context struct {
	registry *Registry
	logger   *zap.Logger
	included []map[string]any
}

// ContextOpt is an option for configuring a serialization context
type ContextOpt func(c *Context)

// WithRegistry sets the schema registry symbolic schema references are
// resolved against
func WithRegistry(registry *Registry) ContextOpt {
	return func(c *Context) {
		c.registry = registry
	}
}

// WithLogger sets the contexts logger. The default logger is a no-op.
func WithLogger(logger *zap.Logger) ContextOpt {
	return func(c *Context) {
		c.logger = logger
	}
}

// NewContext creates a new serialization context from the given options
func NewContext(opts ...ContextOpt) *Context {
	c := &Context{
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Registry returns the contexts schema registry (nil if unset)
func (c *Context) Registry() *Registry {
	return c.registry
}

// Include appends a fully serialized resource to the contexts included
// collection, preserving encounter order.
func (c *Context) Include(resource map[string]any) {
	c.included = append(c.included, resource)
	c.logger.Debug("included related resource",
		zap.Any("type", resource["type"]),
		zap.Any("id", resource["id"]),
	)
}

// Included returns the included resources collected so far, in the order
// they were appended
func (c *Context) Included() []map[string]any {
	return c.included
}
