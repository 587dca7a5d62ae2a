// Package mcp exposes the search engine and archive reader as Model Context
// Protocol tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/greaper/internal/archive"
	"github.com/standardbeagle/greaper/internal/config"
	greaperdebug "github.com/standardbeagle/greaper/internal/debug"
	"github.com/standardbeagle/greaper/internal/search"
	"github.com/standardbeagle/greaper/internal/version"
)

const serverName = "greaper-mcp-server"

// Server owns the engine and the MCP tool registrations
type Server struct {
	cfg    *config.Config
	engine *search.Engine
	reader *archive.Reader
	server *mcp.Server
}

// NewServer creates a tool server rooted at cfg.Project.Root
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mcp: nil config")
	}

	reader := archive.NewReader()
	reader.MaxDepth = cfg.Archive.MaxDepth
	if cfg.Archive.MaxMemberSize > 0 {
		reader.MaxMemberSize = cfg.Archive.MaxMemberSize
	}

	s := &Server{
		cfg:    cfg,
		engine: search.NewEngine(),
		reader: reader,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: version.Info(),
		}, nil),
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name: "search",
		Description: "Search file contents under the project root, including members of zip/tar/7z/rar and compressed archives. " +
			"Modes: exact (literal), regex, fuzzy (edit-distance similarity per line). " +
			"Matches name their source as archive::member::member.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"pattern"},
			Properties: map[string]*jsonschema.Schema{
				"pattern": {
					Type:        "string",
					Description: "Text, regular expression, or fuzzy query depending on mode",
				},
				"path": {
					Type:        "string",
					Description: "Directory or file to search, relative to the project root (default: the root)",
				},
				"mode": {
					Type:        "string",
					Enum:        []any{"exact", "regex", "fuzzy"},
					Description: "Matching mode (default: exact)",
				},
				"ignore_case": {Type: "boolean", Description: "Case-insensitive matching"},
				"whole_word":  {Type: "boolean", Description: "Only match whole words (exact and regex modes)"},
				"fuzzy_threshold": {
					Type:        "number",
					Description: "Minimum similarity ratio 0-1 for fuzzy mode (default 0.7)",
				},
				"syntax_mode": {
					Type:        "string",
					Enum:        []any{"all", "comment", "string", "code", "mixed"},
					Description: "Only report lines of this syntactic kind",
				},
				"include": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Glob patterns a file must match, e.g. *.py or src/**/*.go",
				},
				"exclude": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Glob patterns to skip, added to the configured exclusions",
				},
				"context_lines":   {Type: "integer", Description: "Lines of context before and after each match"},
				"max_results":     {Type: "integer", Description: "Hard cap on returned matches (default 1000)"},
				"search_archives": {Type: "boolean", Description: "Expand archives into their members (default true)"},
			},
		},
	}, s.handleSearch)

	s.server.AddTool(&mcp.Tool{
		Name:        "extract",
		Description: "Return the text of a file or archive member addressed by a virtual path such as lib.zip::inner.tar.gz::src/a.py",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"path"},
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "Virtual path; the first segment is relative to the project root",
				},
			},
		},
	}, s.handleExtract)

	s.server.AddTool(&mcp.Tool{
		Name:        "list_archive",
		Description: "List every member of an archive, expanding nested archives up to max_depth",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"path"},
			Properties: map[string]*jsonschema.Schema{
				"path":      {Type: "string", Description: "Archive file, relative to the project root"},
				"max_depth": {Type: "integer", Description: "Nesting limit (default from configuration)"},
			},
		},
	}, s.handleListArchive)
}

// recoverFromPanic turns a handler panic into an error result
func (s *Server) recoverFromPanic(operation string, handler func() (*mcp.CallToolResult, error)) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			greaperdebug.LogMCP("PANIC in %s: %v\n%s\n", operation, r, debug.Stack())
			result, err = createErrorResponse(operation, fmt.Errorf("internal error: %v", r))
		}
	}()
	return handler()
}

// Start serves the tools over stdio until ctx is cancelled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	greaperdebug.LogMCP("Starting MCP server for %s\n", s.cfg.Project.Root)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
