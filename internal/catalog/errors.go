package catalog

import (
	"errors"
	"fmt"
	"time"

	"cinematch/internal/services"
)

// CatalogError reports a failed TMDB request. StatusCode is zero when the
// request never produced a response.
type CatalogError struct {
	StatusCode int
	Endpoint   string
	Latency    time.Duration
	Err        error
}

func (e *CatalogError) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("tmdb %s failed (latency=%v): %v", e.Endpoint, e.Latency, e.Err)
	}
	return fmt.Sprintf("tmdb %s returned %d (latency=%v)", e.Endpoint, e.StatusCode, e.Latency)
}

func (e *CatalogError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, services.ErrExternalTool) match catalog failures.
func (e *CatalogError) Is(target error) bool {
	return target == services.ErrExternalTool
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var catalogErr *CatalogError
	if errors.As(err, &catalogErr) {
		return catalogErr.StatusCode
	}
	return 0
}
