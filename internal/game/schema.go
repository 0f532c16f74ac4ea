package game

import (
	"github.com/invopop/jsonschema"
)

// Text-encoded enums describe themselves as string enums in the world
// data schema.

func (Biome) JSONSchema() *jsonschema.Schema      { return enumSchema(biomeNames[:]) }
func (LockType) JSONSchema() *jsonschema.Schema   { return enumSchema(lockNames[:]) }
func (EntityKind) JSONSchema() *jsonschema.Schema { return enumSchema(kindNames[:]) }
func (Movement) JSONSchema() *jsonschema.Schema   { return enumSchema(movementNames[:]) }
func (UpdateKind) JSONSchema() *jsonschema.Schema { return enumSchema(updateKindNames[:]) }

func enumSchema(names []string) *jsonschema.Schema {
	enum := make([]interface{}, len(names))
	for i, n := range names {
		enum[i] = n
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}

// WorldSchema describes the world data files LoadWorld accepts.
func WorldSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(new(WorldData))
	schema.Title = "Bitscape World"
	schema.Description = "Hand-made map: terrain rows plus the entities placed on load."
	return schema
}
