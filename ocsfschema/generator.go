package ocsfschema

import (
	"fmt"
	"sort"
	"strings"
)

// Generator produces one JSON Schema document per OCSF class or object.
// Object-typed attributes are emitted as absolute $ref URIs; see Embedded
// for self-contained documents.
type Generator struct {
	schema *Schema
}

// NewGenerator creates a generator over a parsed OCSF export.
func NewGenerator(s *Schema) *Generator {
	return &Generator{schema: s}
}

// Schema returns the underlying OCSF export.
func (g *Generator) Schema() *Schema { return g.schema }

// Version returns the OCSF export version.
func (g *Generator) Version() string { return g.schema.Version }

// SchemaFromURI generates the schema a full schema URI addresses. The URI
// version must match the loaded export.
func (g *Generator) SchemaFromURI(uri string) (*Document, error) {
	u, err := ParseSchemaURI(uri)
	if err != nil {
		return nil, err
	}
	if u.Version != g.schema.Version {
		return nil, fmt.Errorf("invalid schema URI %q: expected schema version %s", uri, g.schema.Version)
	}

	if u.Collection == CollectionClasses {
		return g.ClassSchema(u.Name, u.Profiles)
	}
	return g.ObjectSchema(u.Name, u.Profiles)
}

// ClassSchema generates the JSON Schema for an event class, including only
// attributes belonging to the selected profiles.
func (g *Generator) ClassSchema(name string, profiles []string) (*Document, error) {
	name = strings.ToLower(name)
	cls, err := g.schema.Class(name)
	if err != nil {
		return nil, err
	}

	id := SchemaURI{Version: g.schema.Version, Collection: CollectionClasses, Name: name, Profiles: profiles}
	return g.generate(id, cls.Caption, cls.Attributes, cls.Constraints)
}

// ObjectSchema generates the JSON Schema for an object definition.
func (g *Generator) ObjectSchema(name string, profiles []string) (*Document, error) {
	name = strings.ToLower(name)
	obj, err := g.schema.Object(name)
	if err != nil {
		return nil, err
	}

	id := SchemaURI{Version: g.schema.Version, Collection: CollectionObjects, Name: name, Profiles: profiles}
	return g.generate(id, obj.Caption, obj.Attributes, obj.Constraints)
}

func (g *Generator) generate(id SchemaURI, caption string, attributes map[string]*Attribute, constraints map[string][]string) (*Document, error) {
	// All object references inherit the requested profile selection, so
	// that embedding resolves every level with the same view.
	query := profileQuery(id.Profiles)
	refFormat := SchemaPrefix + "/schema/" + g.schema.Version + "/objects/%s" + query

	doc := &Document{
		Dialect: JSONSchemaDialect,
		ID:      id.String(),
		Title:   caption,
		Type:    "object",
	}

	properties, required, err := g.extractAttributes(attributes, id.Profiles, refFormat)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", strings.TrimSuffix(id.Collection, "s"), id.Name, err)
	}
	doc.Properties = properties
	doc.Required = required

	// Only an entity with no declared attributes (the bare "object"
	// object) admits arbitrary properties.
	doc.AdditionalProperties = len(properties) == 0

	for kind, fields := range constraints {
		clauses := make([]Requirement, 0, len(fields))
		for _, field := range fields {
			clauses = append(clauses, Requirement{Required: []string{field}})
		}

		switch kind {
		case "at_least_one":
			doc.AnyOf = clauses
		case "just_one":
			doc.OneOf = clauses
		default:
			return nil, fmt.Errorf("constraint not implemented yet: %s", kind)
		}
	}

	return doc, nil
}

// extractAttributes builds the properties map, filtering by profile, and
// collects the names of required attributes.
func (g *Generator) extractAttributes(attributes map[string]*Attribute, profiles []string, refFormat string) (map[string]*Property, []string, error) {
	properties := make(map[string]*Property, len(attributes))
	var required []string

	selected := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		selected[strings.ToLower(p)] = struct{}{}
	}

	for name, attr := range attributes {
		// A null profile value means the attribute belongs to no
		// profile and is always included.
		if attr.Profile != nil {
			if _, ok := selected[strings.ToLower(*attr.Profile)]; !ok {
				continue
			}
		}

		prop, err := g.generateAttribute(attr, refFormat)
		if err != nil {
			return nil, nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		properties[name] = prop

		if attr.Requirement == "required" {
			required = append(required, name)
		}
	}

	sort.Strings(required)
	return properties, required, nil
}

func (g *Generator) generateAttribute(attr *Attribute, refFormat string) (*Property, error) {
	prop := &Property{Title: attr.Caption}

	var jsonType string
	switch attr.Type {
	case "object_t":
		if attr.ObjectType == "" {
			return nil, fmt.Errorf("object type is not defined")
		}
		prop.Ref = fmt.Sprintf(refFormat, attr.ObjectType)

	case "json_t":
		prop.Type = jsonTypeAny

	default:
		resolved, def, err := g.resolveScalar(attr.Type)
		if err != nil {
			return nil, err
		}
		jsonType = resolved
		prop.Type = jsonType
		if err := g.applyTypeRefinements(prop, attr.Type, def); err != nil {
			return nil, err
		}
	}

	if len(attr.Enum) > 0 {
		values, err := enumValues(attr.Enum, jsonType)
		if err != nil {
			return nil, err
		}
		if len(values) == 1 {
			prop.Const = values[0]
		} else {
			prop.Enum = values
		}
	}

	if attr.IsArray {
		items := *prop
		items.Title = ""
		prop = &Property{
			Title: attr.Caption,
			Type:  "array",
			Items: &items,
		}
	}

	if attr.Deprecated != nil {
		prop.Deprecated = true
	}

	return prop, nil
}
