// Package api serves generated JSON Schemas over HTTP, mirroring the URI
// layout of the public OCSF schema server.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/ocsf-tools/ocsf-json-schema/internal/validate"
	"github.com/ocsf-tools/ocsf-json-schema/ocsfschema"
)

// Server provides the HTTP handlers over one loaded OCSF export.
type Server struct {
	schema    *ocsfschema.Schema
	gen       *ocsfschema.Generator
	embedded  *ocsfschema.Embedded
	validator *validate.Validator
	logger    *slog.Logger
}

// NewServer creates an API server for a parsed OCSF export.
func NewServer(schema *ocsfschema.Schema, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gen := ocsfschema.NewGenerator(schema)
	return &Server{
		schema:    schema,
		gen:       gen,
		embedded:  ocsfschema.NewEmbeddedFromGenerator(gen),
		validator: validate.New(schema),
		logger:    logger,
	}
}

// Router returns an http.Handler for all routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Schema documents, addressed the way the OCSF server addresses them.
	// The trailing wildcard admits extension names like win/win_service.
	mux.HandleFunc("GET /schema/{version}/classes/{name...}", s.classSchema)
	mux.HandleFunc("GET /schema/{version}/objects/{name...}", s.objectSchema)

	mux.HandleFunc("GET /api/v1/classes", s.listClasses)
	mux.HandleFunc("GET /api/v1/objects", s.listObjects)
	mux.HandleFunc("GET /api/v1/version", s.version)
	mux.HandleFunc("POST /api/v1/validate", s.validateEvent)

	mux.HandleFunc("GET /healthz", s.healthz)

	return corsMiddleware(requestLogger(s.logger, mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Schema documents
// ---------------------------------------------------------------------------

func (s *Server) classSchema(w http.ResponseWriter, r *http.Request) {
	s.serveSchema(w, r, ocsfschema.CollectionClasses)
}

func (s *Server) objectSchema(w http.ResponseWriter, r *http.Request) {
	s.serveSchema(w, r, ocsfschema.CollectionObjects)
}

func (s *Server) serveSchema(w http.ResponseWriter, r *http.Request, collection string) {
	version := r.PathValue("version")
	if version != s.schema.Version {
		writeError(w, http.StatusNotFound, "version "+version+" not served; loaded export is "+s.schema.Version)
		return
	}

	name := r.PathValue("name")
	profiles := profilesParam(r)

	var (
		doc *ocsfschema.Document
		err error
	)
	embed := r.URL.Query().Get("embed") == "true"

	switch {
	case collection == ocsfschema.CollectionClasses && embed:
		doc, err = s.embedded.ClassSchema(name, profiles)
	case collection == ocsfschema.CollectionClasses:
		doc, err = s.gen.ClassSchema(name, profiles)
	case embed:
		doc, err = s.embedded.ObjectSchema(name, profiles)
	default:
		doc, err = s.gen.ObjectSchema(name, profiles)
	}

	if errors.Is(err, ocsfschema.ErrClassNotFound) || errors.Is(err, ocsfschema.ErrObjectNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// ---------------------------------------------------------------------------
// Listings
// ---------------------------------------------------------------------------

type classEntry struct {
	Name    string `json:"name"`
	UID     int    `json:"uid"`
	Caption string `json:"caption"`
}

func (s *Server) listClasses(w http.ResponseWriter, _ *http.Request) {
	entries := make([]classEntry, 0, len(s.schema.Classes))
	for name, cls := range s.schema.Classes {
		entries = append(entries, classEntry{Name: name, UID: cls.UID, Caption: cls.Caption})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	writeJSON(w, http.StatusOK, entries)
}

type objectEntry struct {
	Name    string `json:"name"`
	Caption string `json:"caption"`
}

func (s *Server) listObjects(w http.ResponseWriter, _ *http.Request) {
	entries := make([]objectEntry, 0, len(s.schema.Objects))
	for name, obj := range s.schema.Objects {
		entries = append(entries, objectEntry{Name: name, Caption: obj.Caption})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.schema.Version})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

type validateRequest struct {
	Class    string          `json:"class"`
	ClassUID int             `json:"class_uid"`
	Profiles []string        `json:"profiles"`
	Event    json.RawMessage `json:"event"`
}

func (s *Server) validateEvent(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Event) == 0 {
		writeError(w, http.StatusBadRequest, "event is required")
		return
	}

	var (
		result *validate.Result
		err    error
	)
	switch {
	case req.Class != "":
		result, err = s.validator.ClassEvent(req.Class, req.Profiles, req.Event)
	case req.ClassUID != 0:
		result, err = s.validator.ClassEventByUID(req.ClassUID, req.Profiles, req.Event)
	default:
		writeError(w, http.StatusBadRequest, "class or class_uid is required")
		return
	}

	if errors.Is(err, ocsfschema.ErrClassNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func profilesParam(r *http.Request) []string {
	raw := r.URL.Query().Get("profiles")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
