// Package validate checks OCSF events against generated JSON Schemas.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ocsf-tools/ocsf-json-schema/ocsfschema"
)

// Validator compiles embedded class/object schemas and validates event
// instances against them. Compiled schemas are cached by $id.
type Validator struct {
	embedded *ocsfschema.Embedded

	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

// Violation is one schema violation found in an event.
type Violation struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// Result is the outcome of validating one event.
type Result struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
}

// New creates a validator over a parsed OCSF export.
func New(schema *ocsfschema.Schema) *Validator {
	return &Validator{
		embedded: ocsfschema.NewEmbedded(schema),
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// ClassEvent validates a JSON event against the embedded schema of the
// named class.
func (v *Validator) ClassEvent(className string, profiles []string, event []byte) (*Result, error) {
	doc, err := v.embedded.ClassSchema(className, profiles)
	if err != nil {
		return nil, err
	}
	return v.validate(doc, event)
}

// ClassEventByUID validates an event against the class identified by its
// class_uid value.
func (v *Validator) ClassEventByUID(uid int, profiles []string, event []byte) (*Result, error) {
	name, err := v.embedded.Generator().Schema().ClassNameForUID(uid)
	if err != nil {
		return nil, err
	}
	return v.ClassEvent(name, profiles, event)
}

// ObjectInstance validates a JSON value against the embedded schema of the
// named object.
func (v *Validator) ObjectInstance(objectName string, profiles []string, instance []byte) (*Result, error) {
	doc, err := v.embedded.ObjectSchema(objectName, profiles)
	if err != nil {
		return nil, err
	}
	return v.validate(doc, instance)
}

func (v *Validator) validate(doc *ocsfschema.Document, event []byte) (*Result, error) {
	sch, err := v.compile(doc)
	if err != nil {
		return nil, err
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(event))
	if err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}

	err = sch.Validate(instance)
	if err == nil {
		return &Result{Valid: true}, nil
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	return &Result{Violations: flatten(ve)}, nil
}

func (v *Validator) compile(doc *ocsfschema.Document) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if sch, ok := v.compiled[doc.ID]; ok {
		return sch, nil
	}

	sch, err := Compile(doc)
	if err != nil {
		return nil, err
	}
	v.compiled[doc.ID] = sch
	return sch, nil
}

// Compile compiles a generated document into an executable schema. The
// document must be self-contained (produced by the embedded generator),
// as no remote resources are resolvable.
func Compile(doc *ocsfschema.Document) (*jsonschema.Schema, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", doc.ID, err)
	}

	raw, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reload schema %s: %w", doc.ID, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(doc.ID, raw); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", doc.ID, err)
	}

	sch, err := compiler.Compile(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", doc.ID, err)
	}
	return sch, nil
}

// flatten walks the validation error tree and keeps the leaf causes.
func flatten(ve *jsonschema.ValidationError) []Violation {
	if len(ve.Causes) == 0 {
		return []Violation{{
			Location: "/" + strings.Join(ve.InstanceLocation, "/"),
			Message:  ve.Error(),
		}}
	}

	var violations []Violation
	for _, cause := range ve.Causes {
		violations = append(violations, flatten(cause)...)
	}
	return violations
}
