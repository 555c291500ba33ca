package ocsfschema

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// SchemaPrefix is the base URI under which OCSF schemas are published.
const SchemaPrefix = "https://schema.ocsf.io"

// Collections addressable by a schema URI.
const (
	CollectionClasses = "classes"
	CollectionObjects = "objects"
)

// SchemaURI identifies one generated schema:
// https://schema.ocsf.io/schema/<version>/<classes|objects>/<name>?profiles=<p1,p2>.
// Extension entities keep their slash-separated names (e.g. "win/win_service").
type SchemaURI struct {
	Version    string
	Collection string
	Name       string
	Profiles   []string
}

// ParseSchemaURI parses a schema URI. Input is lowercased first; OCSF names
// are all lowercase and URIs are treated case-insensitively.
func ParseSchemaURI(uri string) (SchemaURI, error) {
	uri = strings.ToLower(uri)

	u, err := url.Parse(uri)
	if err != nil {
		return SchemaURI{}, fmt.Errorf("invalid schema URI %q: %w", uri, err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[0] != "schema" || parts[1] == "" || parts[3] == "" {
		return SchemaURI{}, fmt.Errorf(
			"invalid schema URI %q: expected format is %s/schema/<version>/<classes|objects>/<name>?profiles=<profiles>",
			uri, SchemaPrefix)
	}

	collection := parts[2]
	if collection != CollectionClasses && collection != CollectionObjects {
		return SchemaURI{}, fmt.Errorf("invalid schema URI %q: expects lookup for classes or objects", uri)
	}

	return SchemaURI{
		Version:    parts[1],
		Collection: collection,
		// Extension entities are named <extension>/<name>, so the name
		// spans every remaining path segment.
		Name:     strings.Join(parts[3:], "/"),
		Profiles: profilesFromQuery(u.Query()),
	}, nil
}

// String renders the canonical URI form, with profiles deduplicated,
// lowercased and sorted.
func (u SchemaURI) String() string {
	return SchemaPrefix + "/schema/" + u.Version + "/" + u.Collection + "/" + u.Name + profileQuery(u.Profiles)
}

// profileQuery renders the canonical ?profiles= suffix, or "" for none.
func profileQuery(profiles []string) string {
	if len(profiles) == 0 {
		return ""
	}

	seen := make(map[string]struct{}, len(profiles))
	canonical := make([]string, 0, len(profiles))
	for _, p := range profiles {
		p = strings.ToLower(p)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		canonical = append(canonical, p)
	}
	sort.Strings(canonical)

	return "?profiles=" + strings.Join(canonical, ",")
}

func profilesFromQuery(q url.Values) []string {
	raw := q.Get("profiles")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// ProfilesFromURI extracts the profiles listed in a URI's query string.
func ProfilesFromURI(uri string) []string {
	u, err := url.Parse(uri)
	if err != nil {
		return nil
	}
	return profilesFromQuery(u.Query())
}

// EntityNameFromURI returns the entity name portion of a schema URI: the
// path after the classes/objects segment, preserving extension slashes.
func EntityNameFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		if (part == CollectionClasses || part == CollectionObjects) && i+1 < len(parts) {
			return strings.Join(parts[i+1:], "/")
		}
	}
	return ""
}

// DefsSlug converts an entity name into a $defs key. Extension names
// contain slashes, which are not usable in a JSON Pointer segment.
func DefsSlug(name string) string {
	return strings.ReplaceAll(name, "/", "_")
}
