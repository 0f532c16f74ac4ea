package geom

import "github.com/invopop/jsonschema"

// JSONSchema describes Direction by its text form.
func (Direction) JSONSchema() *jsonschema.Schema {
	enum := make([]interface{}, len(directionNames))
	for i, n := range directionNames {
		enum[i] = n
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}
