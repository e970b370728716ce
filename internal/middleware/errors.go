package middleware

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"golang.org/x/oauth2"
)

// ReauthHint is the marker text carried by errors that require the user to
// authorize again. AuthEnhancerMiddleware keys off it.
const ReauthHint = "authentication expired"

// HandleGoogleAPIError translates Google API errors into agent-actionable messages.
// These messages tell the AI what to do next, not the end user.
func HandleGoogleAPIError(err error) error {
	if err == nil {
		return nil
	}

	// A refresh that Google rejects means the grant was revoked or expired.
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf(
			"%s for this API key: Google rejected the token refresh (%s). The user must authorize again to get a new API key",
			ReauthHint, retrieveErr.ErrorCode)
	}

	var googleErr *googleapi.Error
	if errors.As(err, &googleErr) {
		switch googleErr.Code {
		case 400:
			return fmt.Errorf(
				"bad request: check that all required parameters are provided and valid. Detail: %s",
				googleErr.Message)
		case 401:
			return fmt.Errorf(
				"%s for this API key: the Google token is no longer valid. The user must authorize again to get a new API key",
				ReauthHint)
		case 403:
			if isScopeError(googleErr) {
				return fmt.Errorf(
					"permission denied: the API key was not granted the scope this tool needs. "+
						"Ask the user to authorize the required product again. Detail: %s", googleErr.Message)
			}
			return fmt.Errorf(
				"permission denied: this app can only open files it created or that the user selected for it. "+
					"Ask the user to authorize the file, or create a new one with this app. Detail: %s", googleErr.Message)
		case 404:
			return fmt.Errorf(
				"resource not found: verify the ID is correct and that the file was created by or authorized for this app")
		case 409:
			return fmt.Errorf(
				"conflict: the resource was modified by another process. Retry with the latest version. Detail: %s",
				googleErr.Message)
		case 429:
			return fmt.Errorf(
				"rate limit exceeded for this Google API: wait 30-60 seconds before retrying this tool call")
		case 500, 502, 503:
			return fmt.Errorf(
				"Google API server error (%d): this is a transient issue, retry after a few seconds. Detail: %s",
				googleErr.Code, googleErr.Message)
		default:
			return fmt.Errorf("Google API error (%d): %s", googleErr.Code, googleErr.Message)
		}
	}

	return err
}

func isScopeError(e *googleapi.Error) bool {
	if strings.Contains(strings.ToLower(e.Message), "insufficient") {
		return true
	}
	for _, item := range e.Errors {
		if item.Reason == "insufficientPermissions" || item.Reason == "ACCESS_TOKEN_SCOPE_INSUFFICIENT" {
			return true
		}
	}
	return false
}
