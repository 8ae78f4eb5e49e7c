package models

// PropertyType enumerates the declared types a schema property can carry.
// The set is closed: every type has a defined search-field projection.
type PropertyType string

const (
	TypeString  PropertyType = "string"
	TypeInteger PropertyType = "integer"
	TypeNumber  PropertyType = "number"
	TypeBoolean PropertyType = "boolean"
	TypeArray   PropertyType = "array"
	TypeObject  PropertyType = "object"
	TypeFile    PropertyType = "file"
)

// SchemaProperty describes one declared property of a registry schema.
type SchemaProperty struct {
	Name   string          `json:"name"`
	Type   PropertyType    `json:"type"`
	Format string          `json:"format,omitempty"`
	Items  *SchemaProperty `json:"items,omitempty"`
}

// Schema is the declared shape of objects in a register. Properties absent
// from the schema are not projected into typed search fields.
type Schema struct {
	ID         int64                      `json:"id"`
	UUID       string                     `json:"uuid"`
	Title      string                     `json:"title"`
	Properties map[string]*SchemaProperty `json:"properties"`
}
