package capture

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/hyperengineering/foodlens/internal/datauri"
)

// Compile-time interface checks
var (
	_ Device = (*SyntheticDevice)(nil)
	_ Device = FileDevice{}
)

type failingFrameStream struct {
	closed int
}

func (s *failingFrameStream) Frame(ctx context.Context) (Frame, error) {
	return Frame{}, errors.New("sensor glitch")
}

func (s *failingFrameStream) Close() error {
	s.closed++
	return nil
}

type fixedDevice struct {
	stream Stream
}

func (d *fixedDevice) Open(ctx context.Context, facing Facing) (Stream, error) {
	return d.stream, nil
}

func TestStart_OpensStream(t *testing.T) {
	dev := NewSyntheticDevice(8, 6)
	m := NewManager(dev, 80)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !m.Active() {
		t.Error("Active() = false after Start")
	}
	if dev.Live() != 1 {
		t.Errorf("Live() = %d, want 1", dev.Live())
	}
}

func TestStart_TwiceNeverLeaksStreams(t *testing.T) {
	dev := NewSyntheticDevice(8, 6)
	m := NewManager(dev, 80)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := m.Start(ctx); err != nil {
			t.Fatalf("Start #%d failed: %v", i, err)
		}
		if dev.Live() != 1 {
			t.Fatalf("after Start #%d Live() = %d, want 1", i, dev.Live())
		}
	}
	if dev.Opened() != 5 {
		t.Errorf("Opened() = %d, want 5", dev.Opened())
	}
}

func TestStart_DeviceErrors(t *testing.T) {
	tests := []struct {
		name    string
		openErr error
		wantMsg string
	}{
		{"permission", ErrPermissionDenied, "denied"},
		{"no_device", ErrNoDevice, "No camera"},
		{"other", errors.New("busy"), "Unable to access the camera"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := NewSyntheticDevice(8, 6)
			dev.OpenErr = tt.openErr
			m := NewManager(dev, 80)

			err := m.Start(context.Background())
			var derr *DeviceError
			if !errors.As(err, &derr) {
				t.Fatalf("Start() = %v, want *DeviceError", err)
			}
			if !strings.Contains(derr.Message, tt.wantMsg) {
				t.Errorf("Message = %q, want to contain %q", derr.Message, tt.wantMsg)
			}
			if !errors.Is(err, tt.openErr) {
				t.Errorf("DeviceError does not unwrap to %v", tt.openErr)
			}
			if m.Active() {
				t.Error("Active() = true after failed Start")
			}
		})
	}
}

func TestStop_Idempotent(t *testing.T) {
	dev := NewSyntheticDevice(8, 6)
	m := NewManager(dev, 80)

	if err := m.Stop(); err != nil {
		t.Errorf("Stop without stream = %v, want nil", err)
	}
	m.Start(context.Background())
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Errorf("second Stop = %v, want nil", err)
	}
	if dev.Live() != 0 {
		t.Errorf("Live() = %d, want 0", dev.Live())
	}
}

func TestCapture_EncodesJPEGAtNativeResolutionAndStops(t *testing.T) {
	dev := NewSyntheticDevice(32, 24)
	m := NewManager(dev, 80)
	m.Start(context.Background())

	uri, err := m.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	mime, data, err := datauri.Decode(uri)
	if err != nil {
		t.Fatalf("Capture returned invalid data URI: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("mime = %q, want image/jpeg", mime)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("payload is not a JPEG: %v", err)
	}
	if cfg.Width != 32 || cfg.Height != 24 {
		t.Errorf("encoded size = %dx%d, want 32x24", cfg.Width, cfg.Height)
	}

	if m.Active() || dev.Live() != 0 {
		t.Error("stream still active after Capture")
	}
}

func TestCapture_WithoutStream(t *testing.T) {
	m := NewManager(NewSyntheticDevice(8, 6), 80)

	if _, err := m.Capture(context.Background()); !errors.Is(err, ErrNoActiveStream) {
		t.Errorf("Capture() = %v, want ErrNoActiveStream", err)
	}
}

func TestCapture_FrameErrorStillStops(t *testing.T) {
	s := &failingFrameStream{}
	m := NewManager(&fixedDevice{stream: s}, 80)
	m.Start(context.Background())

	if _, err := m.Capture(context.Background()); err == nil {
		t.Fatal("Capture() = nil error, want frame error")
	}
	if s.closed != 1 || m.Active() {
		t.Errorf("stream closed %d times, active=%v; want closed once and inactive", s.closed, m.Active())
	}
}

func TestEncodeFrame_RejectsMismatchedBuffer(t *testing.T) {
	_, err := EncodeFrame(Frame{Width: 4, Height: 4, Data: make([]byte, 10)}, 80)
	if !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("EncodeFrame() = %v, want ErrInvalidFrame", err)
	}
}

func TestNewManager_ClampsQuality(t *testing.T) {
	if m := NewManager(NewSyntheticDevice(1, 1), 0); m.quality != DefaultJPEGQuality {
		t.Errorf("quality = %d, want %d", m.quality, DefaultJPEGQuality)
	}
	if m := NewManager(NewSyntheticDevice(1, 1), 101); m.quality != DefaultJPEGQuality {
		t.Errorf("quality = %d, want %d", m.quality, DefaultJPEGQuality)
	}
}
