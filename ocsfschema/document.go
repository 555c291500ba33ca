package ocsfschema

// JSONSchemaDialect is the $schema value of every generated document.
const JSONSchemaDialect = "https://json-schema.org/draft/2020-12/schema"

// Document is a generated JSON Schema document for one class or object.
// Map-valued fields marshal with sorted keys, so output is deterministic.
type Document struct {
	Dialect              string               `json:"$schema,omitempty"`
	ID                   string               `json:"$id,omitempty"`
	Title                string               `json:"title,omitempty"`
	Type                 string               `json:"type"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	AdditionalProperties bool                 `json:"additionalProperties"`
	Required             []string             `json:"required,omitempty"`
	AnyOf                []Requirement        `json:"anyOf,omitempty"`
	OneOf                []Requirement        `json:"oneOf,omitempty"`
	Defs                 map[string]*Document `json:"$defs,omitempty"`
}

// Requirement is a single required-field clause used inside anyOf/oneOf
// when expressing OCSF class constraints.
type Requirement struct {
	Required []string `json:"required"`
}

// Property is the schema of one attribute. Type is a string for ordinary
// attributes and a []string for json_t, which admits every instance type.
type Property struct {
	Title      string    `json:"title,omitempty"`
	Type       any       `json:"type,omitempty"`
	Format     string    `json:"format,omitempty"`
	Pattern    string    `json:"pattern,omitempty"`
	Minimum    *float64  `json:"minimum,omitempty"`
	Maximum    *float64  `json:"maximum,omitempty"`
	MaxLength  *int      `json:"maxLength,omitempty"`
	Enum       []any     `json:"enum,omitempty"`
	Const      any       `json:"const,omitempty"`
	Ref        string    `json:"$ref,omitempty"`
	Items      *Property `json:"items,omitempty"`
	Deprecated bool      `json:"deprecated,omitempty"`
}

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }
