package capture

import "errors"

var (
	ErrNoActiveStream   = errors.New("no active camera stream")
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrNoDevice         = errors.New("no camera device")
	ErrInvalidFrame     = errors.New("invalid frame")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrUploadTooLarge   = errors.New("upload too large")
)

// DeviceError reports that the camera could not be started.
// Message is safe to show to the user.
type DeviceError struct {
	Message string
	Err     error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DeviceError) Unwrap() error { return e.Err }

func newDeviceError(err error) *DeviceError {
	msg := "Unable to access the camera. Please check permissions."
	switch {
	case errors.Is(err, ErrPermissionDenied):
		msg = "Camera access was denied. Allow camera access and try again."
	case errors.Is(err, ErrNoDevice):
		msg = "No camera was found on this device."
	}
	return &DeviceError{Message: msg, Err: err}
}
