// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Folio content tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/listing"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
)

const schemaURI = "folio://content-schema"

// Server wraps the MCP server with Folio tools.
type Server struct {
	mcp     *server.MCPServer
	svc     *content.Service
	uploads storage.Provider
}

// New creates a new MCP server with all Folio tools registered.
func New(svc *content.Service, uploads storage.Provider, version string) *Server {
	s := &Server{svc: svc, uploads: uploads}

	s.mcp = server.NewMCPServer(
		"Folio",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_content",
		mcp.WithDescription("List portfolio records of one kind with optional search and sort."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Content kind"), mcp.Enum(models.Kinds...)),
		mcp.WithString("q", mcp.Description("Free-text search")),
		mcp.WithString("sort", mcp.Description("Sort field; prefix with - for descending")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of records (max 100)")),
	), s.listContent)

	s.mcp.AddTool(mcp.NewTool("get_content",
		mcp.WithDescription("Read one portfolio record."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Content kind"), mcp.Enum(models.Kinds...)),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	), s.getContent)

	s.mcp.AddTool(mcp.NewTool("get_portfolio",
		mcp.WithDescription("Public portfolio snapshot: default profile, ordered sections, "+
			"skills grouped by category and published projects only."),
	), s.getPortfolio)

	s.mcp.AddTool(mcp.NewTool("toggle_project_publish",
		mcp.WithDescription("Flip the published state of a project."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Project id")),
	), s.toggleProjectPublish)

	s.mcp.AddTool(mcp.NewTool("get_content_schema",
		mcp.WithDescription("Returns the field rules of every content kind. "+
			"Call this before proposing edits to portfolio content."),
	), s.getContentSchema)

	s.mcp.AddTool(mcp.NewTool("attach_cv",
		mcp.WithDescription("Store a CV file and link it from a profile. "+
			"Accepts a base64 data URI or an http(s) URL of a pdf, doc or docx file."),
		mcp.WithString("profile_id", mcp.Required(), mcp.Description("Profile id")),
		mcp.WithString("url", mcp.Required(), mcp.Description("data: URI or http(s) URL")),
		mcp.WithString("filename", mcp.Description("File name shown on the profile")),
	), s.attachCV)

	s.mcp.AddResource(
		mcp.NewResource(schemaURI, "Content Schema",
			mcp.WithResourceDescription("Field rules of every portfolio content kind."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSchemaResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	params := url.Values{}
	if q := req.GetString("q", ""); q != "" {
		params.Set("q", q)
	}
	if sort := req.GetString("sort", ""); sort != "" {
		params.Set("sort", sort)
	}
	if limit := req.GetInt("limit", 0); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}

	items, total, err := s.svc.ListKind(ctx, kind, listing.ParseQuery(params))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]any{"items": items, "total": total})
}

func (s *Server) getContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, err := s.svc.GetKind(ctx, kind, id)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(item)
}

func (s *Server) getPortfolio(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.svc.Portfolio(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(p)
}

func (s *Server) toggleProjectPublish(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.Projects.TogglePublish(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(p)
}

func (s *Server) getContentSchema(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ContentSchema), nil
}

func (s *Server) readSchemaResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      schemaURI,
			MIMEType: "text/markdown",
			Text:     ContentSchema,
		},
	}, nil
}
