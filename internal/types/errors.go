package types

import "errors"

var (
	// ErrValidation indicates a required input was blank or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a tab, bookmark or session id no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable indicates the remote API could not serve the request.
	ErrUnavailable = errors.New("collaborator unavailable")
	// ErrRenderFailure indicates the surface could not display a URL.
	ErrRenderFailure = errors.New("render failed")
	// ErrInvalidURL indicates a URL is not absolute.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrNoHistory indicates there is no back or forward entry to move to.
	ErrNoHistory = errors.New("no history entry")
)
