package failure

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AuthorizationSignature is the message inference services return when the
// project behind an API key has no billing or access. It says nothing about
// the page content.
const AuthorizationSignature = "Requested entity was not found"

// IsAuthorizationSignature reports whether err came from a service rejecting
// the caller's credentials or project rather than the request content: the
// "entity not found" message, or an unauthenticated or forbidden status.
// Other not-found errors, such as an unknown model, are not included.
func IsAuthorizationSignature(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuthorizationRequired) {
		return true
	}
	if strings.Contains(err.Error(), AuthorizationSignature) {
		return true
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return true
		}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return true
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return true
		}
	}
	return false
}
