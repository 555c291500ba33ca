// Package ocsfschema generates JSON Schema draft 2020-12 documents from an
// OCSF schema export, one document per event class or object.
package ocsfschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Sentinel errors returned by schema lookups.
var (
	ErrClassNotFound  = errors.New("class is not defined")
	ErrObjectNotFound = errors.New("object is not defined")
	ErrUnknownType    = errors.New("unknown type")
)

// Schema is a parsed OCSF schema export, the JSON document served by
// https://schema.ocsf.io/export/schema.
type Schema struct {
	Version string                 `json:"version"`
	Classes map[string]*Class      `json:"classes"`
	Objects map[string]*Object     `json:"objects"`
	Types   map[string]*ScalarType `json:"types"`

	uidOnce sync.Once
	uidMap  map[int]string
}

// Class is an OCSF event class definition.
type Class struct {
	UID         int                   `json:"uid"`
	Name        string                `json:"name"`
	Caption     string                `json:"caption"`
	Description string                `json:"description"`
	Profiles    []string              `json:"profiles"`
	Attributes  map[string]*Attribute `json:"attributes"`
	Constraints map[string][]string   `json:"constraints"`
}

// Object is an OCSF object definition.
type Object struct {
	Name        string                `json:"name"`
	Caption     string                `json:"caption"`
	Description string                `json:"description"`
	Profiles    []string              `json:"profiles"`
	Attributes  map[string]*Attribute `json:"attributes"`
	Constraints map[string][]string   `json:"constraints"`
}

// Attribute is a single attribute of a class or object.
type Attribute struct {
	Caption     string                `json:"caption"`
	Description string                `json:"description"`
	Type        string                `json:"type"`
	Requirement string                `json:"requirement"`
	ObjectType  string                `json:"object_type"`
	IsArray     bool                  `json:"is_array"`
	Enum        map[string]EnumMember `json:"enum"`
	Deprecated  *Deprecation          `json:"@deprecated"`

	// Profile distinguishes null from absent: some exports carry
	// "profile": null, and those attributes are always included.
	Profile *string `json:"profile"`
}

// EnumMember is one allowed value of an enum attribute. The value itself is
// the key in Attribute.Enum; the member carries only display metadata.
type EnumMember struct {
	Caption     string `json:"caption"`
	Description string `json:"description"`
}

// Deprecation records why and when an attribute was deprecated.
type Deprecation struct {
	Message string `json:"message"`
	Since   string `json:"since"`
}

// ScalarType is an entry in the export's "types" dictionary. User-defined
// scalars resolve through it to a base type plus value constraints.
type ScalarType struct {
	Caption string    `json:"caption"`
	Type    string    `json:"type"`
	Regex   string    `json:"regex"`
	MaxLen  int       `json:"max_len"`
	Range   []float64 `json:"range"`
}

// Parse decodes an OCSF schema export.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse OCSF schema export: %w", err)
	}
	if s.Version == "" {
		return nil, errors.New("parse OCSF schema export: missing version")
	}
	return &s, nil
}

// ParseReader decodes an OCSF schema export from r.
func ParseReader(r io.Reader) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read OCSF schema export: %w", err)
	}
	return Parse(data)
}

// Class returns the class definition for name (case-insensitive).
func (s *Schema) Class(name string) (*Class, error) {
	name = strings.ToLower(name)
	cls, ok := s.Classes[name]
	if !ok {
		return nil, fmt.Errorf("class %q: %w", name, ErrClassNotFound)
	}
	return cls, nil
}

// Object returns the object definition for name (case-insensitive).
func (s *Schema) Object(name string) (*Object, error) {
	name = strings.ToLower(name)
	obj, ok := s.Objects[name]
	if !ok {
		return nil, fmt.Errorf("object %q: %w", name, ErrObjectNotFound)
	}
	return obj, nil
}

// ClassNameForUID maps a class_uid value back to the class name. The index
// is built lazily on first use.
func (s *Schema) ClassNameForUID(uid int) (string, error) {
	s.uidOnce.Do(func() {
		s.uidMap = make(map[int]string, len(s.Classes))
		for _, cls := range s.Classes {
			s.uidMap[cls.UID] = cls.Name
		}
	})

	name, ok := s.uidMap[uid]
	if !ok {
		return "", fmt.Errorf("no class found for uid %d", uid)
	}
	return name, nil
}

// ClassNames returns all class names, unsorted.
func (s *Schema) ClassNames() []string {
	names := make([]string, 0, len(s.Classes))
	for name := range s.Classes {
		names = append(names, name)
	}
	return names
}

// ObjectNames returns all object names, unsorted.
func (s *Schema) ObjectNames() []string {
	names := make([]string, 0, len(s.Objects))
	for name := range s.Objects {
		names = append(names, name)
	}
	return names
}

// ProfileNames returns every profile name referenced by a class declaration
// or an attribute, sorted.
func (s *Schema) ProfileNames() []string {
	seen := make(map[string]struct{})
	collect := func(attributes map[string]*Attribute) {
		for _, attr := range attributes {
			if attr.Profile != nil && *attr.Profile != "" {
				seen[*attr.Profile] = struct{}{}
			}
		}
	}
	for _, cls := range s.Classes {
		for _, p := range cls.Profiles {
			seen[p] = struct{}{}
		}
		collect(cls.Attributes)
	}
	for _, obj := range s.Objects {
		for _, p := range obj.Profiles {
			seen[p] = struct{}{}
		}
		collect(obj.Attributes)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
