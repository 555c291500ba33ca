package ocsfschema

import "fmt"

// Embedded wraps a Generator and produces self-contained documents: every
// referenced object, transitively, is inlined under $defs and all object
// $refs are rewritten to local JSON Pointers.
type Embedded struct {
	gen *Generator
}

// NewEmbedded creates an embedding generator over a parsed OCSF export.
func NewEmbedded(s *Schema) *Embedded {
	return &Embedded{gen: NewGenerator(s)}
}

// NewEmbeddedFromGenerator wraps an existing flat generator.
func NewEmbeddedFromGenerator(g *Generator) *Embedded {
	return &Embedded{gen: g}
}

// Generator returns the wrapped flat generator.
func (e *Embedded) Generator() *Generator { return e.gen }

// SchemaFromURI generates a self-contained schema from a full schema URI.
func (e *Embedded) SchemaFromURI(uri string) (*Document, error) {
	doc, err := e.gen.SchemaFromURI(uri)
	if err != nil {
		return nil, err
	}
	return e.embedObjects(doc)
}

// ClassSchema generates a self-contained schema for an event class.
func (e *Embedded) ClassSchema(name string, profiles []string) (*Document, error) {
	doc, err := e.gen.ClassSchema(name, profiles)
	if err != nil {
		return nil, err
	}
	return e.embedObjects(doc)
}

// ObjectSchema generates a self-contained schema for an object definition.
func (e *Embedded) ObjectSchema(name string, profiles []string) (*Document, error) {
	doc, err := e.gen.ObjectSchema(name, profiles)
	if err != nil {
		return nil, err
	}
	return e.embedObjects(doc)
}

// embedObjects resolves every referenced object into doc's $defs section.
// Referenced objects are generated with the same profile selection as the
// root document, carried in its $id query string.
func (e *Embedded) embedObjects(doc *Document) (*Document, error) {
	seen := rewriteReferences(doc.Properties)
	if len(seen) == 0 {
		return doc, nil
	}

	profiles := ProfilesFromURI(doc.ID)
	doc.Defs = make(map[string]*Document)
	added := make(map[string]struct{})

	// Embedding one object can reference further objects; loop until the
	// worklist drains.
	for len(seen) > 0 {
		var pending []string
		for name := range seen {
			if _, ok := added[name]; !ok {
				pending = append(pending, name)
			}
		}
		seen = make(map[string]struct{})

		for _, name := range pending {
			obj, err := e.gen.ObjectSchema(name, profiles)
			if err != nil {
				return nil, fmt.Errorf("embed object %s: %w", name, err)
			}

			// Embedded definitions must not carry their own $id;
			// local $refs resolve against the root document.
			obj.Dialect = ""
			obj.ID = ""

			for nested := range rewriteReferences(obj.Properties) {
				if _, ok := added[nested]; !ok {
					seen[nested] = struct{}{}
				}
			}

			doc.Defs[DefsSlug(name)] = obj
			added[name] = struct{}{}
		}
	}

	return doc, nil
}

// rewriteReferences rewrites absolute object $refs (directly or under
// items) to #/$defs pointers and returns the referenced object names.
func rewriteReferences(properties map[string]*Property) map[string]struct{} {
	seen := make(map[string]struct{})

	rewrite := func(p *Property) {
		if p == nil || p.Ref == "" {
			return
		}
		name := EntityNameFromURI(p.Ref)
		if name == "" {
			return
		}
		seen[name] = struct{}{}
		p.Ref = "#/$defs/" + DefsSlug(name)
	}

	for _, prop := range properties {
		rewrite(prop)
		rewrite(prop.Items)
	}

	return seen
}
