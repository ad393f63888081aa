package jsonapi

import (
	"sync"

	"github.com/autom8ter/jsonapi/errors"
)

// SchemaFactory lazily constructs a schema
type SchemaFactory func() Schema

// Registry is an explicit name -> schema factory mapping used to resolve
// schemas referenced symbolically. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]SchemaFactory
}

// NewRegistry creates an empty schema registry
func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]SchemaFactory{},
	}
}

// Register registers a schema factory under the given name, overwriting any
// previous registration
func (r *Registry) Register(name string, factory SchemaFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Resolve resolves the named schema by invoking its registered factory
func (r *Registry) Resolve(name string) (Schema, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.NotFound, "schema not registered: %s", name)
	}
	return factory(), nil
}

// SchemaRef is a reference to a schema supplied as a live instance, a factory,
// or a symbolic name resolved against a registry at first use. Resolution
// happens once per reference and is memoized.
type SchemaRef struct {
	instance Schema
	factory  SchemaFactory
	name     string

	once     sync.Once
	resolved Schema
	err      error
}

// SchemaInstance references a live schema instance
func SchemaInstance(s Schema) *SchemaRef {
	return &SchemaRef{instance: s}
}

// SchemaFrom references a schema constructed lazily by the given factory
func SchemaFrom(factory SchemaFactory) *SchemaRef {
	return &SchemaRef{factory: factory}
}

// SchemaByName references a schema resolved by name against the serialization
// context's registry
func SchemaByName(name string) *SchemaRef {
	return &SchemaRef{name: name}
}

// Resolve resolves the reference against the given registry. The result is
// cached - an identical reference never re-resolves.
func (s *SchemaRef) Resolve(registry *Registry) (Schema, error) {
	s.once.Do(func() {
		switch {
		case s.instance != nil:
			s.resolved = s.instance
		case s.factory != nil:
			s.resolved = s.factory()
		case s.name != "":
			if registry == nil {
				s.err = errors.New(errors.Validation, "no registry to resolve schema: %s", s.name)
				return
			}
			s.resolved, s.err = registry.Resolve(s.name)
		default:
			s.err = errors.New(errors.Validation, "empty schema reference")
		}
	})
	return s.resolved, s.err
}
