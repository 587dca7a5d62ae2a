package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	greaperrors "github.com/standardbeagle/greaper/internal/errors"
)

// createJSONResponse creates a standardized JSON response for MCP tools
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createTextResponse returns raw text, used for extracted file content
func createTextResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// createErrorResponse reports a tool failure inside the result with IsError
// set, so the client model can see it and correct the call
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	errorData := map[string]interface{}{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	}

	if ce, ok := asConfigError(err); ok {
		errorData["field"] = ce.Field
		if hint := fieldHint(ce.Field); hint != "" {
			errorData["hint"] = hint
		}
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}
	response.IsError = true
	return response, nil
}

func asConfigError(err error) (*greaperrors.ConfigError, bool) {
	var ce *greaperrors.ConfigError
	ok := errors.As(err, &ce)
	return ce, ok
}

func fieldHint(field string) string {
	switch field {
	case "pattern":
		return `the pattern is not a valid regular expression; drop "mode": "regex" to search for it literally`
	case "mode":
		return `mode must be one of "exact", "regex", "fuzzy"`
	case "syntax_mode":
		return `syntax_mode must be one of "all", "comment", "string", "code", "mixed"`
	case "fuzzy_threshold":
		return "fuzzy_threshold is a similarity ratio between 0 and 1"
	case "globs":
		return "include/exclude entries are doublestar globs such as *.py or src/**/*.go"
	}
	return ""
}
