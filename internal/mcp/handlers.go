package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/greaper/internal/archive"
	"github.com/standardbeagle/greaper/internal/debug"
	"github.com/standardbeagle/greaper/internal/filetype"
	"github.com/standardbeagle/greaper/internal/search"
	"github.com/standardbeagle/greaper/pkg/pathutil"
)

// SearchResponse is the JSON body of a search tool result
type SearchResponse struct {
	Matches      []search.MatchRecord `json:"matches"`
	Count        int                  `json:"count"`
	Backend      string               `json:"backend,omitempty"`
	UnitsScanned int                  `json:"units_scanned"`
	UnitsSkipped int                  `json:"units_skipped"`
	Truncated    bool                 `json:"truncated"`
	Warnings     []string             `json:"warnings,omitempty"`
}

// ListArchiveResponse is the JSON body of a list_archive tool result
type ListArchiveResponse struct {
	Archive string          `json:"archive"`
	Entries []archive.Entry `json:"entries"`
	Count   int             `json:"count"`
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("search", func() (*mcp.CallToolResult, error) {
		var params SearchParams
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return createErrorResponse("search", fmt.Errorf("invalid parameters: %w", err))
		}

		root, err := resolvePath(s.cfg.Project.Root, params.Path)
		if err != nil {
			return createErrorResponse("search", err)
		}
		sc := params.searchConfig(s.cfg)
		debug.LogMCP("search %q in %s (mode %s)\n", sc.Pattern, root, sc.Mode)

		result, err := s.engine.Search(ctx, root, sc)
		if err != nil {
			return createErrorResponse("search", err)
		}

		matches := pathutil.ToRelativeMatches(result.Matches, s.cfg.Project.Root)
		if matches == nil {
			matches = []search.MatchRecord{}
		}
		return createJSONResponse(SearchResponse{
			Matches:      matches,
			Count:        len(matches),
			Backend:      result.Backend,
			UnitsScanned: result.UnitsScanned,
			UnitsSkipped: result.UnitsSkipped,
			Truncated:    result.Truncated,
			Warnings:     params.Warnings,
		})
	})
}

func (s *Server) handleExtract(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("extract", func() (*mcp.CallToolResult, error) {
		var params ExtractParams
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return createErrorResponse("extract", fmt.Errorf("invalid parameters: %w", err))
		}
		if strings.TrimSpace(params.Path) == "" {
			return createErrorResponse("extract", errors.New("path is required"))
		}

		vp, err := s.resolveVirtualPath(params.Path)
		if err != nil {
			return createErrorResponse("extract", err)
		}
		data, err := s.reader.ReadMember(vp)
		if err != nil {
			return createErrorResponse("extract", err)
		}
		if !filetype.NewDetector().IsTextContent(vp.Name(), data) {
			return createErrorResponse("extract", fmt.Errorf("%s is binary content (%d bytes)", params.Path, len(data)))
		}
		return createTextResponse(strings.ToValidUTF8(string(data), "�")), nil
	})
}

func (s *Server) handleListArchive(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("list_archive", func() (*mcp.CallToolResult, error) {
		var params ListArchiveParams
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return createErrorResponse("list_archive", fmt.Errorf("invalid parameters: %w", err))
		}
		if strings.TrimSpace(params.Path) == "" {
			return createErrorResponse("list_archive", errors.New("path is required"))
		}
		if !archive.IsArchive(params.Path) {
			return createErrorResponse("list_archive", fmt.Errorf("%s is not a recognized archive", params.Path))
		}

		reader := *s.reader
		if params.MaxDepth != nil {
			if *params.MaxDepth < 0 {
				return createErrorResponse("list_archive", fmt.Errorf("max_depth must not be negative, got %d", *params.MaxDepth))
			}
			reader.MaxDepth = *params.MaxDepth
		}

		path, err := resolvePath(s.cfg.Project.Root, params.Path)
		if err != nil {
			return createErrorResponse("list_archive", err)
		}
		entries, err := reader.List(path)
		if err != nil {
			return createErrorResponse("list_archive", err)
		}

		entries = pathutil.ToRelativeEntries(entries, s.cfg.Project.Root)
		if entries == nil {
			entries = []archive.Entry{}
		}
		return createJSONResponse(ListArchiveResponse{
			Archive: params.Path,
			Entries: entries,
			Count:   len(entries),
		})
	})
}

// resolveVirtualPath anchors the outer file of a virtual path at the project root
func (s *Server) resolveVirtualPath(raw string) (archive.VirtualPath, error) {
	vp := archive.ParseVirtualPath(raw)
	outer, err := resolvePath(s.cfg.Project.Root, vp.Archive)
	if err != nil {
		return archive.VirtualPath{}, err
	}
	return archive.NewVirtualPath(outer, vp.Members()...), nil
}
