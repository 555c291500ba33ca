package ocsfschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchemaURI(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want SchemaURI
	}{
		{
			"class",
			"https://schema.ocsf.io/schema/1.3.0/classes/authentication",
			SchemaURI{Version: "1.3.0", Collection: "classes", Name: "authentication"},
		},
		{
			"object with profiles",
			"https://schema.ocsf.io/schema/1.3.0/objects/user?profiles=host,network",
			SchemaURI{Version: "1.3.0", Collection: "objects", Name: "user", Profiles: []string{"host", "network"}},
		},
		{
			"extension name",
			"https://schema.ocsf.io/schema/1.3.0/classes/win/win_service",
			SchemaURI{Version: "1.3.0", Collection: "classes", Name: "win/win_service"},
		},
		{
			"uppercase input",
			"https://schema.ocsf.io/schema/1.3.0/Classes/Authentication",
			SchemaURI{Version: "1.3.0", Collection: "classes", Name: "authentication"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchemaURI(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSchemaURI_Invalid(t *testing.T) {
	uris := []string{
		"https://schema.ocsf.io/invalid",
		"https://schema.ocsf.io/schema/1.3.0/",
		"https://schema.ocsf.io/schema/1.3.0/classes/",
		"https://schema.ocsf.io/export/1.3.0/classes/authentication",
	}
	for _, uri := range uris {
		_, err := ParseSchemaURI(uri)
		assert.ErrorContains(t, err, "invalid schema URI", "uri: %s", uri)
	}

	_, err := ParseSchemaURI("https://schema.ocsf.io/schema/1.3.0/profiles/authentication")
	assert.ErrorContains(t, err, "expects lookup for classes or objects")
}

func TestSchemaURI_String(t *testing.T) {
	u := SchemaURI{Version: "1.3.0", Collection: "classes", Name: "authentication"}
	assert.Equal(t, "https://schema.ocsf.io/schema/1.3.0/classes/authentication", u.String())

	// Profiles are deduplicated, lowercased and sorted.
	u.Profiles = []string{"Network", "host", "network"}
	assert.Equal(t, "https://schema.ocsf.io/schema/1.3.0/classes/authentication?profiles=host,network", u.String())
}

func TestEntityNameFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"https://schema.ocsf.io/schema/1.3.0/objects/user", "user"},
		{"https://schema.ocsf.io/schema/1.3.0/objects/win/win_service?profiles=a", "win/win_service"},
		{"https://schema.ocsf.io/schema/1.3.0/classes/authentication", "authentication"},
		{"https://schema.ocsf.io/schema/1.3.0/objects/", ""},
		{"#/$defs/user", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EntityNameFromURI(tt.uri), "uri: %s", tt.uri)
	}
}

func TestDefsSlug(t *testing.T) {
	assert.Equal(t, "user", DefsSlug("user"))
	assert.Equal(t, "win_win_service", DefsSlug("win/win_service"))
}

func TestProfilesFromURI(t *testing.T) {
	assert.Equal(t, []string{"admin"},
		ProfilesFromURI("https://schema.ocsf.io/schema/1.3.0/classes/event?profiles=admin"))
	assert.Equal(t, []string{"read", "write"},
		ProfilesFromURI("https://schema.ocsf.io/schema/1.3.0/classes/event?profiles=read,write"))
	assert.Nil(t, ProfilesFromURI("https://schema.ocsf.io/schema/1.3.0/classes/event"))
}
