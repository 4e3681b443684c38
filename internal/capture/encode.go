package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/hyperengineering/foodlens/internal/datauri"
)

// DefaultJPEGQuality matches a 0.8 browser canvas quality.
const DefaultJPEGQuality = 80

// frameToImage copies packed RGB into an off-screen RGBA raster of the
// frame's native size.
func frameToImage(f Frame) (*image.RGBA, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if want := f.Width * f.Height * 3; len(f.Data) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d for %dx%d RGB",
			ErrInvalidFrame, len(f.Data), want, f.Width, f.Height)
	}

	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			i := (y*f.Width + x) * 3
			img.SetRGBA(x, y, color.RGBA{R: f.Data[i], G: f.Data[i+1], B: f.Data[i+2], A: 255})
		}
	}
	return img, nil
}

// imageToFrame flattens any image into packed RGB.
func imageToFrame(img image.Image) Frame {
	b := img.Bounds()
	f := Frame{Width: b.Dx(), Height: b.Dy(), Data: make([]byte, 0, b.Dx()*b.Dy()*3)}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			f.Data = append(f.Data, c.R, c.G, c.B)
		}
	}
	return f
}

// EncodeFrame encodes a frame as JPEG and returns it as a data URI.
func EncodeFrame(f Frame, quality int) (string, error) {
	img, err := frameToImage(f)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return datauri.Encode("image/jpeg", buf.Bytes()), nil
}
