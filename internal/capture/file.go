package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"sync"
)

// FileDevice serves a still image file as a camera whose only frame is
// that image. Used by the CLI to run the camera path against a photo.
type FileDevice struct {
	Path string
}

// Open decodes the image file. A missing file is reported as ErrNoDevice.
func (d FileDevice) Open(ctx context.Context, facing Facing) (Stream, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrNoDevice, d.Path)
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, d.Path)
		}
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", d.Path, err)
	}
	return &stillStream{frame: imageToFrame(img)}, nil
}

type stillStream struct {
	mu     sync.Mutex
	frame  Frame
	closed bool
}

func (s *stillStream) Frame(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Frame{}, ErrNoActiveStream
	}
	return s.frame, nil
}

func (s *stillStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
