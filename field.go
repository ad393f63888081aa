package jsonapi

// Field is a declared member of a resource schema.
type Field interface {
	// Name returns the key the field is serialized under
	Name() string
}

// IsRelationship returns whether the declared field renders as a relationship
// object rather than a plain attribute. Schemas use it to decide which branch
// of the resource object a field belongs to.
func IsRelationship(f Field) bool {
	_, ok := f.(*Relationship)
	return ok
}

// Attribute is a plain resource attribute pulled from a document path.
type Attribute struct {
	name string
	path string
}

// NewAttribute creates an attribute serialized under the given name. An
// optional path overrides the document path the value is pulled from -
// it defaults to the name and supports dot notation.
func NewAttribute(name string, path ...string) *Attribute {
	a := &Attribute{name: name, path: name}
	if len(path) > 0 {
		a.path = path[0]
	}
	return a
}

// Name returns the attributes name
func (a *Attribute) Name() string {
	return a.name
}

// Path returns the document path the attributes value is pulled from
func (a *Attribute) Path() string {
	return a.path
}
