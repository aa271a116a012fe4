package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAdapter marks a source listing that could not be fetched or parsed.
	ErrAdapter = errors.New("source adapter failure")
	// ErrContentFetch marks a notification page that could not be retrieved.
	ErrContentFetch = errors.New("content fetch failure")
	// ErrExtraction marks a failed AI normalization.
	ErrExtraction = errors.New("extraction failure")
	// ErrTextTooShort is an ErrExtraction for input below the minimum length.
	ErrTextTooShort = fmt.Errorf("%w: notification text too short", ErrExtraction)
	// ErrNoJSON is an ErrExtraction for a model response without a JSON object.
	ErrNoJSON = fmt.Errorf("%w: no JSON object in model response", ErrExtraction)
	// ErrQuotaExceeded is returned when the video index rejects a request for quota.
	ErrQuotaExceeded = errors.New("video index quota exceeded")
	// ErrDuplicate is returned by a store when the natural key already exists.
	ErrDuplicate = errors.New("record with same title and organization already exists")
	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrRunInProgress is returned when a run is requested while another is executing.
	ErrRunInProgress = errors.New("scrape run already in progress")
	// ErrUnknownSource is returned when a source name is not configured.
	ErrUnknownSource = errors.New("unknown source")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
