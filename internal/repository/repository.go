// Package repository loads OCSF schema exports from local files, a SQLite
// cache, or the OCSF schema server.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ocsf-tools/ocsf-json-schema/ocsfschema"
)

// ErrNotCached is returned by Cache.Get for versions never fetched.
var ErrNotCached = errors.New("export not cached")

// DefaultBaseURL is the public OCSF schema server.
const DefaultBaseURL = "https://schema.ocsf.io"

// Repository resolves OCSF exports by version, consulting the cache before
// the network. A nil cache disables caching; an empty version means the
// server's current release.
type Repository struct {
	cache   *Cache
	client  *http.Client
	baseURL string
}

// Option configures a Repository.
type Option func(*Repository)

// WithCache attaches a SQLite export cache.
func WithCache(c *Cache) Option {
	return func(r *Repository) { r.cache = c }
}

// WithBaseURL overrides the schema server base URL.
func WithBaseURL(u string) Option {
	return func(r *Repository) { r.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Repository) { r.client = c }
}

// New creates a repository against the public OCSF schema server.
func New(opts ...Option) *Repository {
	r := &Repository{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadFile parses an OCSF export from a local file.
func LoadFile(path string) (*ocsfschema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	s, err := ocsfschema.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema file %s: %w", path, err)
	}
	return s, nil
}

// Load returns the parsed export for a version, preferring the cache.
// Freshly fetched exports are cached under their reported version, which
// for an empty requested version is the server's current release.
func (r *Repository) Load(ctx context.Context, version string) (*ocsfschema.Schema, error) {
	if r.cache != nil && version != "" {
		body, err := r.cache.Get(ctx, version)
		if err == nil {
			return ocsfschema.Parse(body)
		}
		if !errors.Is(err, ErrNotCached) {
			return nil, err
		}
	}

	body, err := r.Fetch(ctx, version)
	if err != nil {
		return nil, err
	}

	schema, err := ocsfschema.Parse(body)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Put(ctx, schema.Version, body); err != nil {
			return nil, err
		}
	}
	return schema, nil
}

// Fetch downloads the raw export body for a version from the schema
// server, bypassing the cache.
func (r *Repository) Fetch(ctx context.Context, version string) ([]byte, error) {
	url := r.baseURL + "/export/schema"
	if version != "" {
		url = r.baseURL + "/" + version + "/export/schema"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build export request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch schema export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch schema export: %s returned %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read schema export: %w", err)
	}
	return body, nil
}

// VersionInfo is one entry of the server's version listing.
type VersionInfo struct {
	Version string `json:"version"`
	URL     string `json:"url"`
}

// VersionListing is the response of the schema server's /api/versions.
type VersionListing struct {
	Default  VersionInfo   `json:"default"`
	Versions []VersionInfo `json:"versions"`
}

// ListVersions queries the schema server for available versions.
func (r *Repository) ListVersions(ctx context.Context) (*VersionListing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/versions", nil)
	if err != nil {
		return nil, fmt.Errorf("build versions request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch versions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch versions: server returned %s", resp.Status)
	}

	var listing VersionListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode versions response: %w", err)
	}
	return &listing, nil
}

// CachedVersions lists locally cached exports, or nil when no cache is
// attached.
func (r *Repository) CachedVersions(ctx context.Context) ([]CachedExport, error) {
	if r.cache == nil {
		return nil, nil
	}
	return r.cache.Versions(ctx)
}

// DeleteCached removes one export from the local cache.
func (r *Repository) DeleteCached(ctx context.Context, version string) error {
	if r.cache == nil {
		return ErrNotCached
	}
	return r.cache.Delete(ctx, version)
}
