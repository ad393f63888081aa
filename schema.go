package jsonapi

import (
	"github.com/autom8ter/jsonapi/errors"
	"github.com/autom8ter/jsonapi/util"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/xeipuuv/gojsonschema"
)

// Schema serializes documents of a single resource type into JSON:API
// resource objects
type Schema interface {
	// ResourceType returns the resource type discriminator the schema serializes
	ResourceType() string
	// Dump serializes the document into a resource object, side-loading any
	// included related resources into the given context
	Dump(doc *Document, ctx *Context) (map[string]any, error)
}

// ResourceSchema is a declarative Schema implementation: a resource type, an
// id field, and a set of declared attribute and relationship fields.
type ResourceSchema struct {
	resourceType string
	idField      string
	fields       []Field
	validator    *gojsonschema.Schema
}

// SchemaOpt is an option for configuring a resource schema
type SchemaOpt func(s *ResourceSchema)

// WithFields declares the schemas fields. Relationship fields are rendered
// under the resource objects relationships member, everything else under
// attributes.
func WithFields(fields ...Field) SchemaOpt {
	return func(s *ResourceSchema) {
		s.fields = append(s.fields, fields...)
	}
}

// WithPrimaryKey sets the document field the resource id is pulled from
// (default "id")
func WithPrimaryKey(field string) SchemaOpt {
	return func(s *ResourceSchema) {
		s.idField = field
	}
}

// NewResourceSchema creates a resource schema for the given resource type
func NewResourceSchema(resourceType string, opts ...SchemaOpt) (*ResourceSchema, error) {
	if resourceType == "" {
		return nil, errors.New(errors.Validation, "resource schema requires a resource type")
	}
	s := &ResourceSchema{
		resourceType: resourceType,
		idField:      "id",
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// WithValidation validates documents against the given json schema before
// they are dumped - https://json-schema.org/
func WithValidation(schemaContent []byte) (SchemaOpt, error) {
	validator, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaContent))
	if err != nil {
		return nil, errors.Wrap(err, errors.Validation, "failed to compile json schema")
	}
	return func(s *ResourceSchema) {
		s.validator = validator
	}, nil
}

// ResourceType returns the schemas resource type
func (s *ResourceSchema) ResourceType() string {
	return s.resourceType
}

// Fields returns the schemas declared fields
func (s *ResourceSchema) Fields() []Field {
	return s.fields
}

// Relationships returns the schemas declared relationship fields
func (s *ResourceSchema) Relationships() []*Relationship {
	relationships := lo.Filter(s.fields, func(f Field, _ int) bool {
		return IsRelationship(f)
	})
	return lo.Map(relationships, func(f Field, _ int) *Relationship {
		return f.(*Relationship)
	})
}

// Dump serializes the document into a JSON:API resource object, branching
// each declared field on IsRelationship. Related resources side-load into the
// given context as they are encountered.
func (s *ResourceSchema) Dump(doc *Document, ctx *Context) (map[string]any, error) {
	if ctx == nil {
		ctx = NewContext()
	}
	if err := s.validate(doc); err != nil {
		return nil, err
	}
	resource := map[string]any{
		"type": s.resourceType,
	}
	if id := doc.Get(s.idField); id != nil {
		resource["id"] = cast.ToString(id)
	}
	attributes := map[string]any{}
	relationships := map[string]any{}
	for _, f := range s.fields {
		if IsRelationship(f) {
			rel := f.(*Relationship)
			obj, err := rel.Serialize(doc.Get(rel.Name()), doc, ctx)
			if err != nil {
				return nil, err
			}
			relationships[rel.Name()] = obj
			continue
		}
		if attr, ok := f.(*Attribute); ok && doc.Exists(attr.Path()) {
			attributes[attr.Name()] = doc.Get(attr.Path())
		}
	}
	if len(attributes) > 0 {
		resource["attributes"] = attributes
	}
	if len(relationships) > 0 {
		resource["relationships"] = relationships
	}
	return resource, nil
}

func (s *ResourceSchema) validate(doc *Document) error {
	if s.validator == nil {
		return nil
	}
	result, err := s.validator.Validate(gojsonschema.NewBytesLoader(doc.Bytes()))
	if err != nil {
		return errors.Wrap(err, errors.Validation, "failed to validate document")
	}
	if !result.Valid() {
		messages := lo.Map(result.Errors(), func(e gojsonschema.ResultError, _ int) string {
			return e.String()
		})
		return &errors.Error{Code: errors.Validation, Messages: messages}
	}
	return nil
}

// SchemaConfig is a declarative resource schema definition decodable from
// JSON or YAML content
type SchemaConfig struct {
	Type          string               `json:"type" validate:"required"`
	IDField       string               `json:"id_field"`
	Attributes    []string             `json:"attributes"`
	Relationships []RelationshipConfig `json:"relationships"`
	Validation    map[string]any       `json:"validation"`
}

// RelationshipConfig is a declarative relationship definition within a
// SchemaConfig. Schemas referenced by config are always symbolic names
// resolved against the contexts registry.
type RelationshipConfig struct {
	Name             string            `json:"name" validate:"required"`
	ResourceType     string            `json:"resource_type"`
	RelatedURL       string            `json:"related_url"`
	RelatedURLParams map[string]string `json:"related_url_params"`
	SelfURL          string            `json:"self_url"`
	SelfURLParams    map[string]string `json:"self_url_params"`
	ResourceLinkage  bool              `json:"resource_linkage"`
	IncludedData     bool              `json:"included_data"`
	Schema           string            `json:"schema"`
	Many             bool              `json:"many"`
	IDField          string            `json:"id_field"`
}

func (c RelationshipConfig) opts() []RelationshipOpt {
	var opts []RelationshipOpt
	if c.RelatedURL != "" {
		opts = append(opts, WithRelatedURL(c.RelatedURL, c.RelatedURLParams))
	}
	if c.SelfURL != "" {
		opts = append(opts, WithSelfURL(c.SelfURL, c.SelfURLParams))
	}
	if c.ResourceLinkage {
		opts = append(opts, WithResourceLinkage())
	}
	if c.IncludedData {
		opts = append(opts, WithIncludedData(SchemaByName(c.Schema)))
	}
	if c.Many {
		opts = append(opts, WithMany())
	}
	if c.IDField != "" {
		opts = append(opts, WithIDField(c.IDField))
	}
	return opts
}

// NewSchemaFromConfig builds a resource schema from a declarative definition
func NewSchemaFromConfig(config SchemaConfig) (*ResourceSchema, error) {
	if err := util.ValidateStruct(&config); err != nil {
		return nil, err
	}
	var opts []SchemaOpt
	if config.IDField != "" {
		opts = append(opts, WithPrimaryKey(config.IDField))
	}
	var fields []Field
	for _, name := range config.Attributes {
		fields = append(fields, NewAttribute(name))
	}
	for _, rc := range config.Relationships {
		rel, err := NewRelationship(rc.Name, rc.ResourceType, rc.opts()...)
		if err != nil {
			return nil, err
		}
		fields = append(fields, rel)
	}
	if len(fields) > 0 {
		opts = append(opts, WithFields(fields...))
	}
	if config.Validation != nil {
		validation, err := WithValidation([]byte(util.JSONString(config.Validation)))
		if err != nil {
			return nil, err
		}
		opts = append(opts, validation)
	}
	return NewResourceSchema(config.Type, opts...)
}

// NewSchemaFromBytes builds a resource schema from a JSON or YAML definition
func NewSchemaFromBytes(content []byte) (*ResourceSchema, error) {
	jsonContent, err := util.YAMLToJSON(content)
	if err != nil {
		return nil, errors.Wrap(err, errors.Validation, "failed to decode schema definition")
	}
	doc, err := NewDocumentFromBytes(jsonContent)
	if err != nil {
		return nil, err
	}
	var config SchemaConfig
	if err := util.Decode(doc.Value(), &config); err != nil {
		return nil, errors.Wrap(err, errors.Validation, "failed to decode schema definition")
	}
	return NewSchemaFromConfig(config)
}
