package imagepkg

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidTemplate is the only failure a render reports to callers.
	ErrInvalidTemplate = errors.New("invalid template")
	// ErrInvalidURL rejects base image URLs that are not http(s).
	ErrInvalidURL = errors.New("invalid url")
	// ErrCanvasTooLarge is wrapped into ErrInvalidTemplate when a template
	// would produce a canvas past the configured limit.
	ErrCanvasTooLarge = errors.New("canvas too large")
)

// RenderError is returned when a layer fails to draw. Error() only exposes
// the generic message; Cause keeps the underlying error for logs.
type RenderError struct {
	Layer string
	Cause error
}

func (e *RenderError) Error() string { return ErrInvalidTemplate.Error() }

// Unwrap makes errors.Is(err, ErrInvalidTemplate) hold.
func (e *RenderError) Unwrap() error { return ErrInvalidTemplate }

// Kind is a stable identifier for API responses.
func (e *RenderError) Kind() string { return "invalid_template" }

// Status is the HTTP status the failure maps to.
func (e *RenderError) Status() int { return http.StatusBadRequest }

// Detail describes the cause for internal logging.
func (e *RenderError) Detail() string {
	return fmt.Sprintf("%s: %v", e.Layer, e.Cause)
}
