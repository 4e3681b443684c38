// Package capture owns the camera device and turns a live stream into a
// single encoded still image.
package capture

import "context"

// Facing selects which camera to open.
type Facing string

const (
	// FacingEnvironment is the rear, scene-facing camera.
	FacingEnvironment Facing = "environment"
	// FacingUser is the front, user-facing camera.
	FacingUser Facing = "user"
)

// Frame is one decoded video frame in packed RGB (3 bytes per pixel).
type Frame struct {
	Width  int
	Height int
	Data   []byte
}

// Device opens camera streams.
//
// Implementations must return an error wrapping ErrPermissionDenied or
// ErrNoDevice when those conditions apply so callers can report them.
type Device interface {
	Open(ctx context.Context, facing Facing) (Stream, error)
}

// Stream is an open camera stream. Close releases every track of the
// stream and is idempotent.
type Stream interface {
	// Frame returns the most recent frame at the stream's native resolution.
	Frame(ctx context.Context) (Frame, error)
	Close() error
}
