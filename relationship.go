package jsonapi

import (
	"strings"

	"github.com/autom8ter/jsonapi/errors"
	"github.com/autom8ter/jsonapi/util"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// ResourceIdentifier is a resource linkage object pointing at a related
// resource by type and id without inlining its attributes.
// See: https://jsonapi.org/format/#document-resource-object-linkage
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   any    `json:"id"`
}

// Relationship is a bidirectional field which serializes to a JSON:API
// relationship object and deserializes a relationship payload back into the
// related resource id(s).
// See: https://jsonapi.org/format/#document-resource-object-relationships
//
// A relationship is constructed once when its containing schema is defined
// and reused across serialize/deserialize calls - it is stateless across
// calls except for the memoized related schema reference.
type Relationship struct {
	name             string
	resourceType     string
	relatedURL       string
	relatedURLParams map[string]string
	selfURL          string
	selfURLParams    map[string]string
	includeLinkage   bool
	includeData      bool
	schema           *SchemaRef
	many             bool
	idField          string
}

// RelationshipOpt is an option for configuring a relationship
type RelationshipOpt func(r *Relationship)

// WithRelatedURL sets the format string for the related resource link.
// Param values enclosed in angle brackets are dotted attribute paths pulled
// from the source object (ex: {"author_id": "<author.id>"}).
func WithRelatedURL(template string, params map[string]string) RelationshipOpt {
	return func(r *Relationship) {
		r.relatedURL = template
		r.relatedURLParams = params
	}
}

// WithSelfURL sets the format string for the relationships self link.
// Params behave the same as WithRelatedURL.
func WithSelfURL(template string, params map[string]string) RelationshipOpt {
	return func(r *Relationship) {
		r.selfURL = template
		r.selfURLParams = params
	}
}

// WithResourceLinkage emits a data member containing type/id resource
// linkage when the relationship is serialized
func WithResourceLinkage() RelationshipOpt {
	return func(r *Relationship) {
		r.includeLinkage = true
	}
}

// WithIncludedData additionally serializes the full related resource(s) with
// the referenced schema and side-loads them into the serialization contexts
// included collection. Implies resource linkage.
func WithIncludedData(schema *SchemaRef) RelationshipOpt {
	return func(r *Relationship) {
		r.includeData = true
		r.schema = schema
	}
}

// WithMany marks the relationship as to-many: linkage and deserialization
// operate on an ordered sequence instead of a single value
func WithMany() RelationshipOpt {
	return func(r *Relationship) {
		r.many = true
	}
}

// WithIDField sets the attribute name ids are pulled from on each related
// object (default "id")
func WithIDField(field string) RelationshipOpt {
	return func(r *Relationship) {
		r.idField = field
	}
}

// NewRelationship creates a relationship serialized under the given name.
// The resource type is required whenever resource linkage or included data is
// requested; included data additionally requires a related schema reference.
// Invalid combinations fail here, not on first use.
func NewRelationship(name string, resourceType string, opts ...RelationshipOpt) (*Relationship, error) {
	r := &Relationship{
		name:         name,
		resourceType: resourceType,
		idField:      "id",
	}
	for _, o := range opts {
		o(r)
	}
	if r.includeData {
		r.includeLinkage = true
	}
	if r.includeLinkage && r.resourceType == "" {
		return nil, errors.New(errors.Validation, "relationship %s: resource linkage requires a resource type", name)
	}
	if r.includeData && r.schema == nil {
		return nil, errors.New(errors.Validation, "relationship %s: included data requires a related schema", name)
	}
	return r, nil
}

// Name returns the relationships name
func (r *Relationship) Name() string {
	return r.name
}

// ResourceType returns the related resource type
func (r *Relationship) ResourceType() string {
	return r.resourceType
}

// Many returns whether the relationship is to-many
func (r *Relationship) Many() bool {
	return r.many
}

// resolveURL substitutes the param spec into the url template. Param values
// wrapped in angle brackets are resolved as attribute paths against the
// source document; everything else passes through literally. An empty
// template resolves to an empty string (the link is omitted).
func resolveURL(template string, params map[string]string, src *Document) (string, error) {
	if template == "" {
		return "", nil
	}
	resolved := template
	for name, value := range params {
		if strings.HasPrefix(value, "<") && strings.HasSuffix(value, ">") {
			path := strings.TrimSuffix(strings.TrimPrefix(value, "<"), ">")
			if src == nil || !src.Exists(path) {
				return "", errors.New(errors.Validation, "url param %s: unresolvable attribute path %s", name, value)
			}
			value = src.GetString(path)
		}
		resolved = strings.ReplaceAll(resolved, "{"+name+"}", value)
	}
	if strings.ContainsAny(resolved, "{}") {
		return "", errors.New(errors.Validation, "unresolved placeholder in url template: %s", resolved)
	}
	return resolved, nil
}

func stringify(value any) any {
	if value == nil {
		return nil
	}
	return cast.ToString(value)
}

// extractID pulls the configured id field from a related element, falling
// back to the element itself when the attribute is absent. The fall-back
// supports relationships stored as bare identifiers.
func (r *Relationship) extractID(element any) any {
	switch el := element.(type) {
	case *Document:
		if el.Exists(r.idField) {
			return el.Get(r.idField)
		}
	case map[string]any:
		result := gjson.Get(util.JSONString(el), r.idField)
		if result.Exists() {
			return result.Value()
		}
	}
	return element
}

func (r *Relationship) identifier(element any) ResourceIdentifier {
	return ResourceIdentifier{
		Type: r.resourceType,
		ID:   stringify(r.extractID(element)),
	}
}

// resourceLinkage builds the data member: a single resource identifier for
// to-one relationships, an order-preserving slice for to-many.
func (r *Relationship) resourceLinkage(value any) any {
	if r.many {
		return lo.Map(asSlice(value), func(element any, _ int) ResourceIdentifier {
			return r.identifier(element)
		})
	}
	return r.identifier(value)
}

// Serialize assembles the relationship object for the given raw related
// value pulled from the source document. When included data is configured it
// additionally dumps each related resource with the related schema and
// appends the result to the contexts included collection - that append is the
// only side effect in the component.
func (r *Relationship) Serialize(value any, src *Document, ctx *Context) (map[string]any, error) {
	if ctx == nil {
		ctx = NewContext()
	}
	selfURL, err := resolveURL(r.selfURL, r.selfURLParams, src)
	if err != nil {
		return nil, err
	}
	relatedURL, err := resolveURL(r.relatedURL, r.relatedURLParams, src)
	if err != nil {
		return nil, err
	}
	ret := map[string]any{}
	if selfURL != "" || relatedURL != "" {
		links := map[string]any{}
		if selfURL != "" {
			links["self"] = selfURL
		}
		if relatedURL != "" {
			links["related"] = relatedURL
		}
		ret["links"] = links
	}
	if r.includeLinkage {
		if isNil(value) {
			if r.many {
				ret["data"] = []ResourceIdentifier{}
			} else {
				ret["data"] = nil
			}
		} else {
			ret["data"] = r.resourceLinkage(value)
		}
	}
	if r.includeData && !isNil(value) {
		if err := r.includeRelated(value, ctx); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (r *Relationship) includeRelated(value any, ctx *Context) error {
	// the resolve error is memoized alongside the schema - return it as-is
	// rather than wrapping the shared value
	schema, err := r.schema.Resolve(ctx.Registry())
	if err != nil {
		return err
	}
	elements := []any{value}
	if r.many {
		elements = asSlice(value)
	}
	for _, element := range elements {
		doc, err := asDocument(element)
		if err != nil {
			return errors.Wrap(err, errors.Validation, "relationship %s: invalid related resource", r.name)
		}
		resource, err := schema.Dump(doc, ctx)
		if err != nil {
			return errors.Wrap(err, errors.Validation, "relationship %s: failed to serialize related resource", r.name)
		}
		ctx.Include(resource)
	}
	return nil
}

// Deserialize validates a JSON:API shaped relationship payload and extracts
// the related resource id (to-one) or ids in input order (to-many).
func (r *Relationship) Deserialize(raw any) (any, error) {
	mapping, ok := asMapping(raw)
	if !ok {
		return nil, errors.New(errors.Validation, "must include a `data` key")
	}
	data, present := mapping["data"]
	if !present {
		return nil, errors.New(errors.Validation, "must include a `data` key")
	}
	if r.many {
		items, ok := asCollection(data)
		if !ok {
			return nil, errors.New(errors.Validation, "relationship is list-like")
		}
		ids := make([]any, 0, len(items))
		for _, item := range items {
			id, err := r.extractValue(item)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, nil
	}
	if _, ok := asCollection(data); ok {
		return nil, errors.New(errors.Validation, "relationship is not list-like")
	}
	return r.extractValue(data)
}

// extractValue validates a single resource identifier and returns its id
// unchanged. All of an items violations are accumulated and raised together.
func (r *Relationship) extractValue(item any) (any, error) {
	mapping, ok := asMapping(item)
	if !ok {
		mapping = map[string]any{}
	}
	var messages []string
	if _, ok := mapping["id"]; !ok {
		messages = append(messages, "must have an `id` field")
	}
	if typ, ok := mapping["type"]; !ok {
		messages = append(messages, "must have a `type` field")
	} else if cast.ToString(typ) != r.resourceType {
		messages = append(messages, "invalid `type` specified")
	}
	if len(messages) > 0 {
		return nil, &errors.Error{Code: errors.Validation, Messages: messages}
	}
	return mapping["id"], nil
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case *Document:
		return v == nil
	case map[string]any:
		return v == nil
	case []any:
		return v == nil
	}
	return false
}

func asSlice(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []*Document:
		return lo.Map(v, func(d *Document, _ int) any { return d })
	case []map[string]any:
		return lo.Map(v, func(m map[string]any, _ int) any { return m })
	default:
		return cast.ToSlice(value)
	}
}

func asMapping(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case *Document:
		if v == nil {
			return nil, false
		}
		return v.Value(), true
	default:
		return nil, false
	}
}

func asCollection(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []map[string]any:
		return asSlice(v), true
	default:
		return nil, false
	}
}

func asDocument(value any) (*Document, error) {
	switch v := value.(type) {
	case *Document:
		return v, nil
	default:
		return NewDocumentFrom(v)
	}
}
