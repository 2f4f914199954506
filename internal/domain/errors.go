package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoProjectName marks a pipeline whose configuration carries no project
// name; it affects that pipeline only, never the whole feed group.
var ErrNoProjectName = errors.New("no project name in CCTray pipeline")

// MissingCredentialError reports that the secret store holds an auth type for
// an origin but not the secret it requires. Fatal to the refresh attempt.
type MissingCredentialError struct {
	Origin   string
	AuthType AuthType
}

func (e *MissingCredentialError) Error() string {
	if e.AuthType == AuthBearer {
		return fmt.Sprintf("no token stored for %s", e.Origin)
	}
	return fmt.Sprintf("no password stored for %s", e.Origin)
}

// HTTPError is a non-2xx feed response.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	text := http.StatusText(e.StatusCode)
	if text == "" {
		text = "HTTP error"
	}
	return fmt.Sprintf("%s (%d)", text, e.StatusCode)
}

// ParseError is a malformed feed document. The whole document fails; there is
// no partial parse.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "cannot parse feed: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }
