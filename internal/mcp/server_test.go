package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocsf-tools/ocsf-json-schema/ocsfschema"
)

const testExport = `{
  "version": "1.3.0",
  "classes": {
    "authentication": {
      "uid": 3002,
      "name": "authentication",
      "caption": "Authentication",
      "attributes": {
        "activity_id": {"caption": "Activity ID", "type": "integer_t", "requirement": "required"},
        "user": {"caption": "User", "type": "object_t", "object_type": "user"},
        "src_ip": {"caption": "Source IP", "type": "string_t", "profile": "network"}
      }
    }
  },
  "objects": {
    "user": {
      "caption": "User",
      "attributes": {
        "name": {"caption": "Name", "type": "string_t", "requirement": "required"}
      }
    }
  },
  "types": {}
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := ocsfschema.Parse([]byte(testExport))
	require.NoError(t, err)
	return NewServer(s)
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// resultJSON parses the text result as JSON into the provided target.
func resultJSON(t *testing.T, result *mcpgo.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	err := json.Unmarshal([]byte(text), target)
	require.NoError(t, err, "failed to parse result JSON: %s", text)
}

func TestListClassesTool(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleListClasses(context.Background(), callToolReq("ocsf_list_classes", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var classes []struct {
		Name    string `json:"name"`
		UID     int    `json:"uid"`
		Caption string `json:"caption"`
	}
	resultJSON(t, result, &classes)
	require.Len(t, classes, 1)
	assert.Equal(t, "authentication", classes[0].Name)
	assert.Equal(t, 3002, classes[0].UID)
}

func TestListObjectsTool(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleListObjects(context.Background(), callToolReq("ocsf_list_objects", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var objects []struct {
		Name string `json:"name"`
	}
	resultJSON(t, result, &objects)
	require.Len(t, objects, 1)
	assert.Equal(t, "user", objects[0].Name)
}

func TestClassSchemaTool(t *testing.T) {
	srv := newTestServer(t)

	req := callToolReq("ocsf_class_schema", map[string]any{"class": "authentication"})
	result, err := srv.handleClassSchema(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var doc ocsfschema.Document
	resultJSON(t, result, &doc)
	assert.Equal(t, "https://schema.ocsf.io/schema/1.3.0/classes/authentication", doc.ID)
	// Embedded by default.
	assert.Equal(t, "#/$defs/user", doc.Properties["user"].Ref)
	assert.Contains(t, doc.Defs, "user")
}

func TestClassSchemaTool_FlatWithProfiles(t *testing.T) {
	srv := newTestServer(t)

	req := callToolReq("ocsf_class_schema", map[string]any{
		"class":    "authentication",
		"profiles": "network",
		"embed":    false,
	})
	result, err := srv.handleClassSchema(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var doc ocsfschema.Document
	resultJSON(t, result, &doc)
	assert.Contains(t, doc.Properties, "src_ip")
	assert.Equal(t, "https://schema.ocsf.io/schema/1.3.0/objects/user?profiles=network", doc.Properties["user"].Ref)
	assert.Nil(t, doc.Defs)
}

func TestClassSchemaTool_Errors(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleClassSchema(context.Background(), callToolReq("ocsf_class_schema", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	req := callToolReq("ocsf_class_schema", map[string]any{"class": "nonexistent"})
	result, err = srv.handleClassSchema(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not defined")
}

func TestObjectSchemaTool(t *testing.T) {
	srv := newTestServer(t)

	req := callToolReq("ocsf_object_schema", map[string]any{"object": "user"})
	result, err := srv.handleObjectSchema(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var doc ocsfschema.Document
	resultJSON(t, result, &doc)
	assert.Equal(t, "User", doc.Title)
	assert.Equal(t, []string{"name"}, doc.Required)
}

func TestValidateEventTool(t *testing.T) {
	srv := newTestServer(t)

	req := callToolReq("ocsf_validate_event", map[string]any{
		"class": "authentication",
		"event": `{"activity_id": 1, "user": {"name": "alice"}}`,
	})
	result, err := srv.handleValidateEvent(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out struct {
		Valid bool `json:"valid"`
	}
	resultJSON(t, result, &out)
	assert.True(t, out.Valid)
}

func TestValidateEventTool_Violations(t *testing.T) {
	srv := newTestServer(t)

	req := callToolReq("ocsf_validate_event", map[string]any{
		"class": "authentication",
		"event": `{"user": {"name": "alice"}}`,
	})
	result, err := srv.handleValidateEvent(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out struct {
		Valid      bool `json:"valid"`
		Violations []struct {
			Message string `json:"message"`
		} `json:"violations"`
	}
	resultJSON(t, result, &out)
	assert.False(t, out.Valid)
	assert.NotEmpty(t, out.Violations)
}

func TestValidateEventTool_MissingParams(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleValidateEvent(context.Background(),
		callToolReq("ocsf_validate_event", map[string]any{"class": "authentication"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPServerRegistersTools(t *testing.T) {
	srv := newTestServer(t)
	assert.NotNil(t, srv.MCPServer())
}
