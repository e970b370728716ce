package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// authErrorMarkers are substrings that identify auth-related tool errors.
var authErrorMarkers = []string{
	ReauthHint,
	"invalid_grant",
	"token has been expired or revoked",
}

// AuthEnhancerMiddleware returns MCP SDK middleware that detects auth-related
// tool errors and appends the onboarding URL so the user can mint a new API
// key without an extra round-trip.
func AuthEnhancerMiddleware(baseURL string) mcp.Middleware {
	authURL := strings.TrimRight(baseURL, "/") + "/"
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			result, err := next(ctx, method, req)

			// Only enhance tools/call responses.
			if method != "tools/call" {
				return result, err
			}

			toolResult, ok := result.(*mcp.CallToolResult)
			if !ok || !toolResult.IsError || len(toolResult.Content) == 0 {
				return result, err
			}

			textContent, ok := toolResult.Content[0].(*mcp.TextContent)
			if !ok || !isAuthRelatedError(textContent.Text) {
				return result, err
			}

			textContent.Text = fmt.Sprintf(
				"%s\n\nAsk the user to authorize again by visiting:\n%s",
				textContent.Text, authURL,
			)
			return result, err
		}
	}
}

// isAuthRelatedError returns true if the text contains any auth-error marker.
func isAuthRelatedError(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range authErrorMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// toolName reads the tool name from a tools/call request.
func toolName(req mcp.Request) string {
	if req == nil {
		return ""
	}
	params, ok := req.GetParams().(*mcp.CallToolParamsRaw)
	if !ok || params == nil {
		return ""
	}
	return params.Name
}
