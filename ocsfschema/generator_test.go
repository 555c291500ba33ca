package ocsfschema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testExport is a miniature OCSF export exercising classes, objects,
// profiles, enums, arrays, constraints and custom scalar types.
const testExport = `{
  "version": "1.3.0",
  "classes": {
    "authentication": {
      "uid": 3002,
      "name": "authentication",
      "caption": "Authentication",
      "attributes": {
        "activity_id": {
          "caption": "Activity ID",
          "type": "integer_t",
          "requirement": "required",
          "enum": {"1": {"caption": "Logon"}, "2": {"caption": "Logoff"}}
        },
        "category_uid": {
          "caption": "Category UID",
          "type": "integer_t",
          "enum": {"3": {"caption": "Identity & Access Management"}}
        },
        "user": {
          "caption": "User",
          "type": "object_t",
          "object_type": "user",
          "requirement": "required"
        },
        "success": {"caption": "Success", "type": "boolean_t"},
        "time": {"caption": "Time", "type": "timestamp_t"},
        "src_ip": {"caption": "Source IP", "type": "ip_t", "profile": "network"},
        "severity": {"caption": "Severity", "type": "string_t", "profile": null},
        "tags": {"caption": "Tags", "type": "string_t", "is_array": true},
        "legacy_name": {
          "caption": "Legacy Name",
          "type": "string_t",
          "@deprecated": {"message": "use user.name instead", "since": "1.1.0"}
        }
      },
      "constraints": {"at_least_one": ["user", "legacy_name"]}
    },
    "process_activity": {
      "uid": 1007,
      "name": "process_activity",
      "caption": "Process Activity",
      "attributes": {
        "exit_code": {"caption": "Exit Code", "type": "integer_t"},
        "cmd_line": {"caption": "Command Line", "type": "string_t"}
      },
      "constraints": {"just_one": ["exit_code", "cmd_line"]}
    }
  },
  "objects": {
    "user": {
      "caption": "User",
      "attributes": {
        "name": {"caption": "Name", "type": "string_t", "requirement": "required"},
        "uid": {"caption": "Unique ID", "type": "string_t"},
        "email_addr": {"caption": "Email Address", "type": "email_t", "profile": "network"},
        "groups": {
          "caption": "Groups",
          "type": "object_t",
          "object_type": "group",
          "is_array": true
        }
      }
    },
    "group": {
      "caption": "Group",
      "attributes": {
        "name": {"caption": "Name", "type": "string_t"},
        "data": {"caption": "Data", "type": "object_t", "object_type": "object"}
      }
    },
    "object": {"caption": "Object", "attributes": {}}
  },
  "types": {
    "string_t": {"caption": "String", "type": "string_t"},
    "file_hash_t": {"caption": "Hash", "type": "string_t", "regex": "^[a-fA-F0-9]+$"},
    "username_t": {"caption": "Username", "type": "string_t", "max_len": 64},
    "percent_t": {"caption": "Percent", "type": "integer_t", "range": [0, 100]}
  }
}`

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := Parse([]byte(testExport))
	require.NoError(t, err)
	return s
}

func TestParse(t *testing.T) {
	s := testSchema(t)
	assert.Equal(t, "1.3.0", s.Version)
	assert.Len(t, s.Classes, 2)
	assert.Len(t, s.Objects, 3)

	_, err := Parse([]byte(`{"classes": {}}`))
	assert.ErrorContains(t, err, "missing version")

	_, err = Parse([]byte(`not json`))
	assert.ErrorContains(t, err, "parse OCSF schema export")
}

func TestProfileNames(t *testing.T) {
	s := testSchema(t)
	assert.Equal(t, []string{"network"}, s.ProfileNames())
}

func TestClassNameForUID(t *testing.T) {
	s := testSchema(t)

	name, err := s.ClassNameForUID(3002)
	require.NoError(t, err)
	assert.Equal(t, "authentication", name)

	_, err = s.ClassNameForUID(999)
	assert.ErrorContains(t, err, "no class found for uid 999")
}

func TestClassSchema(t *testing.T) {
	g := NewGenerator(testSchema(t))

	doc, err := g.ClassSchema("authentication", nil)
	require.NoError(t, err)

	assert.Equal(t, JSONSchemaDialect, doc.Dialect)
	assert.Equal(t, "https://schema.ocsf.io/schema/1.3.0/classes/authentication", doc.ID)
	assert.Equal(t, "Authentication", doc.Title)
	assert.Equal(t, "object", doc.Type)
	assert.False(t, doc.AdditionalProperties)
	assert.Equal(t, []string{"activity_id", "user"}, doc.Required)

	assert.Equal(t, "integer", doc.Properties["activity_id"].Type)
	assert.Equal(t, "boolean", doc.Properties["success"].Type)
	assert.Equal(t, "https://schema.ocsf.io/schema/1.3.0/objects/user", doc.Properties["user"].Ref)
}

func TestClassSchema_NotFound(t *testing.T) {
	g := NewGenerator(testSchema(t))

	_, err := g.ClassSchema("nonexistent", nil)
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestClassSchema_CaseInsensitive(t *testing.T) {
	g := NewGenerator(testSchema(t))

	doc, err := g.ClassSchema("Authentication", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://schema.ocsf.io/schema/1.3.0/classes/authentication", doc.ID)
}

func TestObjectSchema(t *testing.T) {
	g := NewGenerator(testSchema(t))

	doc, err := g.ObjectSchema("user", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://schema.ocsf.io/schema/1.3.0/objects/user", doc.ID)
	assert.Equal(t, "User", doc.Title)
	assert.Equal(t, []string{"name"}, doc.Required)
	assert.False(t, doc.AdditionalProperties)

	_, err = g.ObjectSchema("nonexistent", nil)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestObjectSchema_EmptyObjectAllowsAdditionalProperties(t *testing.T) {
	g := NewGenerator(testSchema(t))

	doc, err := g.ObjectSchema("object", nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Properties)
	assert.True(t, doc.AdditionalProperties)
}

func TestProfileFiltering(t *testing.T) {
	g := NewGenerator(testSchema(t))

	doc, err := g.ClassSchema("authentication", nil)
	require.NoError(t, err)
	assert.NotContains(t, doc.Properties, "src_ip")
	// A null profile value means the attribute is always included.
	assert.Contains(t, doc.Properties, "severity")

	doc, err = g.ClassSchema("authentication", []string{"network"})
	require.NoError(t, err)
	assert.Contains(t, doc.Properties, "src_ip")
	assert.Equal(t, "https://schema.ocsf.io/schema/1.3.0/classes/authentication?profiles=network", doc.ID)
	// Object references carry the profile selection.
	assert.Equal(t, "https://schema.ocsf.io/schema/1.3.0/objects/user?profiles=network", doc.Properties["user"].Ref)
}

func TestProfileQueryCanonicalization(t *testing.T) {
	g := NewGenerator(testSchema(t))

	doc, err := g.ClassSchema("authentication", []string{"Network", "host", "network"})
	require.NoError(t, err)
	assert.Equal(t, "https://schema.ocsf.io/schema/1.3.0/classes/authentication?profiles=host,network", doc.ID)
}

func TestEnums(t *testing.T) {
	g := NewGenerator(testSchema(t))

	doc, err := g.ClassSchema("authentication", nil)
	require.NoError(t, err)

	assert.Equal(t, []any{int64(1), int64(2)}, doc.Properties["activity_id"].Enum)
	// A single-valued enum collapses to const.
	assert.Nil(t, doc.Properties["category_uid"].Enum)
	assert.Equal(t, int64(3), doc.Properties["category_uid"].Const)
}

func TestArrays(t *testing.T) {
	g := NewGenerator(testSchema(t))

	doc, err := g.ClassSchema("authentication", nil)
	require.NoError(t, err)

	tags := doc.Properties["tags"]
	assert.Equal(t, "array", tags.Type)
	assert.Equal(t, "Tags", tags.Title)
	require.NotNil(t, tags.Items)
	assert.Equal(t, "string", tags.Items.Type)
	assert.Empty(t, tags.Items.Title)

	user, err := g.ObjectSchema("user", nil)
	require.NoError(t, err)

	groups := user.Properties["groups"]
	assert.Equal(t, "array", groups.Type)
	require.NotNil(t, groups.Items)
	assert.Equal(t, "https://schema.ocsf.io/schema/1.3.0/objects/group", groups.Items.Ref)
}

func TestDeprecatedAttribute(t *testing.T) {
	g := NewGenerator(testSchema(t))

	doc, err := g.ClassSchema("authentication", nil)
	require.NoError(t, err)
	assert.True(t, doc.Properties["legacy_name"].Deprecated)
	assert.False(t, doc.Properties["success"].Deprecated)
}

func TestConstraints(t *testing.T) {
	g := NewGenerator(testSchema(t))

	doc, err := g.ClassSchema("authentication", nil)
	require.NoError(t, err)
	assert.Equal(t, []Requirement{
		{Required: []string{"user"}},
		{Required: []string{"legacy_name"}},
	}, doc.AnyOf)

	doc, err = g.ClassSchema("process_activity", nil)
	require.NoError(t, err)
	assert.Equal(t, []Requirement{
		{Required: []string{"exit_code"}},
		{Required: []string{"cmd_line"}},
	}, doc.OneOf)
}

func TestConstraints_Unknown(t *testing.T) {
	s := testSchema(t)
	s.Classes["authentication"].Constraints = map[string][]string{"exactly_two": {"a", "b"}}

	_, err := NewGenerator(s).ClassSchema("authentication", nil)
	assert.ErrorContains(t, err, "constraint not implemented yet: exactly_two")
}

func TestSchemaFromURI(t *testing.T) {
	g := NewGenerator(testSchema(t))

	doc, err := g.SchemaFromURI("https://schema.ocsf.io/schema/1.3.0/classes/authentication")
	require.NoError(t, err)
	assert.Equal(t, "https://schema.ocsf.io/schema/1.3.0/classes/authentication", doc.ID)

	doc, err = g.SchemaFromURI("https://schema.ocsf.io/schema/1.3.0/objects/user?profiles=network")
	require.NoError(t, err)
	assert.Equal(t, "https://schema.ocsf.io/schema/1.3.0/objects/user?profiles=network", doc.ID)
	assert.Contains(t, doc.Properties, "email_addr")
}

func TestSchemaFromURI_Errors(t *testing.T) {
	g := NewGenerator(testSchema(t))

	tests := []struct {
		name    string
		uri     string
		wantErr string
	}{
		{"incomplete path", "https://schema.ocsf.io/invalid", "invalid schema URI"},
		{"missing name", "https://schema.ocsf.io/schema/1.3.0/classes/", "invalid schema URI"},
		{"wrong collection", "https://schema.ocsf.io/schema/1.3.0/profiles/authentication", "expects lookup for classes or objects"},
		{"wrong version", "https://schema.ocsf.io/schema/9.9.9/classes/authentication", "expected schema version 1.3.0"},
		{"unknown class", "https://schema.ocsf.io/schema/1.3.0/classes/nonexistent", "class"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.SchemaFromURI(tt.uri)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestObjectAttributeWithoutObjectType(t *testing.T) {
	s := testSchema(t)
	s.Objects["user"].Attributes["broken"] = &Attribute{Caption: "Broken", Type: "object_t"}

	_, err := NewGenerator(s).ObjectSchema("user", nil)
	assert.ErrorContains(t, err, "object type is not defined")
}

func TestDocumentMarshaling(t *testing.T) {
	g := NewGenerator(testSchema(t))

	doc, err := g.ClassSchema("authentication", nil)
	require.NoError(t, err)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	raw := string(data)
	assert.Contains(t, raw, `"$schema":"https://json-schema.org/draft/2020-12/schema"`)
	assert.Contains(t, raw, `"additionalProperties":false`)
	assert.Contains(t, raw, `"type":"object"`)

	// Deterministic output: marshaling twice yields identical bytes.
	again, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, data, again)

	empty, err := g.ObjectSchema("object", nil)
	require.NoError(t, err)
	data, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"additionalProperties":true`)
	assert.False(t, strings.Contains(string(data), `"properties"`))
}
