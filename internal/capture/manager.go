package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Manager owns at most one open camera stream.
type Manager struct {
	device  Device
	facing  Facing
	quality int

	mu     sync.Mutex
	stream Stream
}

// NewManager returns a Manager for device. quality is the JPEG quality
// (1-100); out-of-range values use DefaultJPEGQuality.
func NewManager(device Device, quality int) *Manager {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Manager{
		device:  device,
		facing:  FacingEnvironment,
		quality: quality,
	}
}

// Start opens an environment-facing stream. A stream that is already
// open is stopped first so device handles never leak. Failures are
// returned as *DeviceError.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	stream, err := m.device.Open(ctx, m.facing)
	if err != nil {
		derr := newDeviceError(err)
		slog.Warn("camera start failed",
			"component", "capture",
			"action", "start_failed",
			"error", err,
		)
		return derr
	}

	m.stream = stream
	slog.Debug("camera started", "component", "capture", "facing", m.facing)
	return nil
}

// Stop releases the active stream. It is a no-op when no stream is open.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked()
}

func (m *Manager) stopLocked() error {
	if m.stream == nil {
		return nil
	}
	err := m.stream.Close()
	m.stream = nil
	if err != nil {
		slog.Warn("camera stop failed", "component", "capture", "error", err)
		return fmt.Errorf("close stream: %w", err)
	}
	slog.Debug("camera stopped", "component", "capture")
	return nil
}

// Capture grabs the current frame, encodes it as JPEG and returns a data
// URI. The stream is always stopped afterwards; capture is one-shot.
func (m *Manager) Capture(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return "", ErrNoActiveStream
	}
	defer m.stopLocked()

	frame, err := m.stream.Frame(ctx)
	if err != nil {
		return "", fmt.Errorf("read frame: %w", err)
	}

	uri, err := EncodeFrame(frame, m.quality)
	if err != nil {
		return "", err
	}

	slog.Debug("frame captured",
		"component", "capture",
		"width", frame.Width,
		"height", frame.Height,
	)
	return uri, nil
}

// Active reports whether a stream is open.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream != nil
}
