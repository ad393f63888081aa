package jsonapi

import (
	"encoding/json"

	"github.com/autom8ter/jsonapi/errors"
)

// Marshal renders a complete JSON:API document for a single resource: a data
// member holding the dumped resource and, when any relationship side-loaded
// related resources, an included member in encounter order.
func Marshal(schema Schema, doc *Document, ctx *Context) ([]byte, error) {
	if ctx == nil {
		ctx = NewContext()
	}
	resource, err := schema.Dump(doc, ctx)
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"data": resource,
	}
	if included := ctx.Included(); len(included) > 0 {
		out["included"] = included
	}
	bits, err := json.Marshal(out)
	if err != nil {
		return nil, errors.Wrap(err, errors.Internal, "failed to encode document")
	}
	return bits, nil
}
