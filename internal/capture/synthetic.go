package capture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// SyntheticDevice generates gradient frames. It backs the demo camera
// and tests; OpenErr simulates a denied or missing camera.
type SyntheticDevice struct {
	Width   int
	Height  int
	OpenErr error

	live   atomic.Int32
	opened atomic.Int32
}

// NewSyntheticDevice returns a device producing width x height frames.
func NewSyntheticDevice(width, height int) *SyntheticDevice {
	return &SyntheticDevice{Width: width, Height: height}
}

// Open starts a synthetic stream.
func (d *SyntheticDevice) Open(ctx context.Context, facing Facing) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	if d.Width <= 0 || d.Height <= 0 {
		return nil, fmt.Errorf("%w: bad synthetic resolution %dx%d", ErrNoDevice, d.Width, d.Height)
	}
	d.live.Add(1)
	d.opened.Add(1)
	return &syntheticStream{dev: d}, nil
}

// Live returns the number of streams currently open.
func (d *SyntheticDevice) Live() int { return int(d.live.Load()) }

// Opened returns the number of streams ever opened.
func (d *SyntheticDevice) Opened() int { return int(d.opened.Load()) }

type syntheticStream struct {
	dev *SyntheticDevice

	mu     sync.Mutex
	seq    uint8
	closed bool
}

func (s *syntheticStream) Frame(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Frame{}, ErrNoActiveStream
	}
	s.seq++

	w, h := s.dev.Width, s.dev.Height
	data := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			data[i] = uint8(x * 255 / max(w-1, 1))
			data[i+1] = uint8(y * 255 / max(h-1, 1))
			data[i+2] = s.seq
		}
	}
	return Frame{Width: w, Height: h, Data: data}, nil
}

func (s *syntheticStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.dev.live.Add(-1)
	return nil
}
