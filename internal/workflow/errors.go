package workflow

import "errors"

var (
	// ErrInvalidTransition is returned for a trigger the current mode does not accept.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrBusy is returned while an analysis is in flight under PolicyReject.
	ErrBusy = errors.New("analysis already in progress")
	// ErrInvalidQuery is returned for a blank or malformed dish name.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidUpload is returned for an unreadable or unsupported upload.
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("workflow closed")
)

// User-facing messages for failures that are not AnalysisFailures.
const (
	msgCaptureFailed   = "Failed to capture photo. Please try again."
	msgAnalysisTimeout = "Analysis took too long. Please try again."
)
