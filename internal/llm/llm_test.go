package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocsf-tools/ocsf-json-schema/internal/validate"
	"github.com/ocsf-tools/ocsf-json-schema/ocsfschema"
)

func sampleDoc() *ocsfschema.Document {
	return &ocsfschema.Document{
		Dialect: ocsfschema.JSONSchemaDialect,
		ID:      "https://schema.ocsf.io/schema/1.3.0/classes/authentication",
		Title:   "Authentication",
		Type:    "object",
		Properties: map[string]*ocsfschema.Property{
			"activity_id": {Title: "Activity ID", Type: "integer"},
			"message":     {Title: "Message", Type: "string"},
		},
		Required: []string{"activity_id"},
	}
}

func TestBuildDescribePrompt(t *testing.T) {
	t.Run("with name", func(t *testing.T) {
		system, user, err := buildDescribePrompt("class", "authentication", sampleDoc())
		require.NoError(t, err)

		assert.Contains(t, system, "OCSF")
		assert.Contains(t, system, "required fields")
		assert.Contains(t, system, "markdown only")

		assert.Contains(t, user, "class schema (authentication)")
		assert.Contains(t, user, `"activity_id"`)
		assert.Contains(t, user, "https://schema.ocsf.io/schema/1.3.0/classes/authentication")
	})

	t.Run("without name", func(t *testing.T) {
		_, user, err := buildDescribePrompt("object", "", sampleDoc())
		require.NoError(t, err)
		assert.Contains(t, user, "object schema:")
		assert.NotContains(t, user, "()")
	})
}

func TestBuildExplainPrompt(t *testing.T) {
	result := &validate.Result{
		Valid: false,
		Violations: []validate.Violation{
			{Location: "/activity_id", Message: "got string, want integer"},
		},
	}
	event := []byte(`{"activity_id": "one"}`)

	system, user, err := buildExplainPrompt("authentication", result, event)
	require.NoError(t, err)

	assert.Contains(t, system, "violation")
	assert.Contains(t, system, "markdown only")

	assert.Contains(t, user, "Class: authentication")
	assert.Contains(t, user, `"activity_id": "one"`)
	assert.Contains(t, user, "got string, want integer")
}

func TestExplainViolations_ValidResult(t *testing.T) {
	c := NewClient("", "claude-sonnet-4-5")
	_, err := c.ExplainViolations(t.Context(), "authentication", &validate.Result{Valid: true}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to explain")
}

func TestStripFencing(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fencing", "plain text", "plain text"},
		{"fenced", "```markdown\n# Title\nbody\n```", "# Title\nbody"},
		{"fenced no language", "```\ncontent\n```", "content"},
		{"leading whitespace", "  \n```\ncontent\n```\n", "content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFencing(tt.in))
		})
	}
}
