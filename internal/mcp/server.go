// Package mcp exposes the schema generator as MCP tools, so agents can
// look up and validate OCSF event shapes.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ocsf-tools/ocsf-json-schema/internal/validate"
	"github.com/ocsf-tools/ocsf-json-schema/ocsfschema"
)

// Server wraps one loaded OCSF export and exposes it as MCP tools.
type Server struct {
	schema    *ocsfschema.Schema
	gen       *ocsfschema.Generator
	embedded  *ocsfschema.Embedded
	validator *validate.Validator
}

// NewServer creates the MCP server wrapper for a parsed export.
func NewServer(schema *ocsfschema.Schema) *Server {
	gen := ocsfschema.NewGenerator(schema)
	return &Server{
		schema:    schema,
		gen:       gen,
		embedded:  ocsfschema.NewEmbeddedFromGenerator(gen),
		validator: validate.New(schema),
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("ocsf-schema", s.schema.Version, server.WithToolCapabilities(true))

	srv.AddTool(s.listClassesTool())
	srv.AddTool(s.listObjectsTool())
	srv.AddTool(s.classSchemaTool())
	srv.AddTool(s.objectSchemaTool())
	srv.AddTool(s.validateEventTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// ocsf_list_classes
func (s *Server) listClassesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ocsf_list_classes",
		mcp.WithDescription("List all OCSF event classes in the loaded schema. Returns a JSON array with name, uid, and caption."),
	)
	return tool, s.handleListClasses
}

func (s *Server) handleListClasses(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type classOut struct {
		Name    string `json:"name"`
		UID     int    `json:"uid"`
		Caption string `json:"caption"`
	}

	out := make([]classOut, 0, len(s.schema.Classes))
	for name, cls := range s.schema.Classes {
		out = append(out, classOut{Name: name, UID: cls.UID, Caption: cls.Caption})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return jsonResult(out)
}

// ocsf_list_objects
func (s *Server) listObjectsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ocsf_list_objects",
		mcp.WithDescription("List all OCSF objects in the loaded schema. Returns a JSON array with name and caption."),
	)
	return tool, s.handleListObjects
}

func (s *Server) handleListObjects(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type objectOut struct {
		Name    string `json:"name"`
		Caption string `json:"caption"`
	}

	out := make([]objectOut, 0, len(s.schema.Objects))
	for name, obj := range s.schema.Objects {
		out = append(out, objectOut{Name: name, Caption: obj.Caption})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return jsonResult(out)
}

// ocsf_class_schema
func (s *Server) classSchemaTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ocsf_class_schema",
		mcp.WithDescription("Generate the JSON Schema for an OCSF event class. Self-contained by default; pass embed=false for absolute object references."),
		mcp.WithString("class", mcp.Required(), mcp.Description("Class name, e.g. 'authentication'")),
		mcp.WithString("profiles", mcp.Description("Comma-separated profile names to include")),
		mcp.WithBoolean("embed", mcp.Description("Inline referenced objects under $defs (default true)")),
	)
	return tool, s.handleClassSchema
}

func (s *Server) handleClassSchema(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("class")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: class"), nil
	}

	profiles := splitProfiles(request.GetString("profiles", ""))

	var doc *ocsfschema.Document
	if request.GetBool("embed", true) {
		doc, err = s.embedded.ClassSchema(name, profiles)
	} else {
		doc, err = s.gen.ClassSchema(name, profiles)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to generate class schema: %v", err)), nil
	}

	return jsonResult(doc)
}

// ocsf_object_schema
func (s *Server) objectSchemaTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ocsf_object_schema",
		mcp.WithDescription("Generate the JSON Schema for an OCSF object. Self-contained by default; pass embed=false for absolute object references."),
		mcp.WithString("object", mcp.Required(), mcp.Description("Object name, e.g. 'user'")),
		mcp.WithString("profiles", mcp.Description("Comma-separated profile names to include")),
		mcp.WithBoolean("embed", mcp.Description("Inline referenced objects under $defs (default true)")),
	)
	return tool, s.handleObjectSchema
}

func (s *Server) handleObjectSchema(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("object")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: object"), nil
	}

	profiles := splitProfiles(request.GetString("profiles", ""))

	var doc *ocsfschema.Document
	if request.GetBool("embed", true) {
		doc, err = s.embedded.ObjectSchema(name, profiles)
	} else {
		doc, err = s.gen.ObjectSchema(name, profiles)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to generate object schema: %v", err)), nil
	}

	return jsonResult(doc)
}

// ocsf_validate_event
func (s *Server) validateEventTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ocsf_validate_event",
		mcp.WithDescription("Validate a JSON event against an OCSF class schema. Returns valid=true or the list of violations."),
		mcp.WithString("class", mcp.Required(), mcp.Description("Class name to validate against")),
		mcp.WithString("event", mcp.Required(), mcp.Description("The event as a JSON string")),
		mcp.WithString("profiles", mcp.Description("Comma-separated profile names to include")),
	)
	return tool, s.handleValidateEvent
}

func (s *Server) handleValidateEvent(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	className, err := request.RequireString("class")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: class"), nil
	}
	event, err := request.RequireString("event")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: event"), nil
	}

	profiles := splitProfiles(request.GetString("profiles", ""))

	result, err := s.validator.ClassEvent(className, profiles, []byte(event))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to validate event: %v", err)), nil
	}

	return jsonResult(result)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func splitProfiles(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
