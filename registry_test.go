package jsonapi_test

import (
	"testing"

	"github.com/autom8ter/jsonapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("register and resolve", func(t *testing.T) {
		registry := jsonapi.NewRegistry()
		registry.Register("people", func() jsonapi.Schema {
			return newPeopleSchema(t)
		})
		schema, err := registry.Resolve("people")
		require.Nil(t, err)
		assert.Equal(t, "people", schema.ResourceType())
	})
	t.Run("unregistered name", func(t *testing.T) {
		registry := jsonapi.NewRegistry()
		_, err := registry.Resolve("missing")
		assert.NotNil(t, err)
	})
}

func TestSchemaRef(t *testing.T) {
	t.Run("instance", func(t *testing.T) {
		schema := newPeopleSchema(t)
		resolved, err := jsonapi.SchemaInstance(schema).Resolve(nil)
		require.Nil(t, err)
		assert.Same(t, schema, resolved)
	})
	t.Run("factory", func(t *testing.T) {
		schema := newPeopleSchema(t)
		resolved, err := jsonapi.SchemaFrom(func() jsonapi.Schema { return schema }).Resolve(nil)
		require.Nil(t, err)
		assert.Same(t, schema, resolved)
	})
	t.Run("name", func(t *testing.T) {
		registry := jsonapi.NewRegistry()
		registry.Register("people", func() jsonapi.Schema {
			return newPeopleSchema(t)
		})
		resolved, err := jsonapi.SchemaByName("people").Resolve(registry)
		require.Nil(t, err)
		assert.Equal(t, "people", resolved.ResourceType())
	})
	t.Run("name without registry", func(t *testing.T) {
		_, err := jsonapi.SchemaByName("people").Resolve(nil)
		assert.NotNil(t, err)
	})
	t.Run("resolution is memoized", func(t *testing.T) {
		calls := 0
		ref := jsonapi.SchemaFrom(func() jsonapi.Schema {
			calls++
			return newPeopleSchema(t)
		})
		first, err := ref.Resolve(nil)
		require.Nil(t, err)
		second, err := ref.Resolve(nil)
		require.Nil(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, 1, calls)
	})
	t.Run("named resolution never re-resolves", func(t *testing.T) {
		registry := jsonapi.NewRegistry()
		registry.Register("people", func() jsonapi.Schema {
			return newPeopleSchema(t)
		})
		ref := jsonapi.SchemaByName("people")
		first, err := ref.Resolve(registry)
		require.Nil(t, err)
		// a second resolve needs no registry at all
		second, err := ref.Resolve(nil)
		require.Nil(t, err)
		assert.Same(t, first, second)
	})
}
