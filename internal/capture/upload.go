package capture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"

	_ "golang.org/x/image/webp"

	"github.com/hyperengineering/foodlens/internal/datauri"
)

// DefaultMaxUploadBytes bounds uploaded images.
const DefaultMaxUploadBytes int64 = 10 << 20

var uploadTypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// EncodeUpload reads an uploaded image file and returns it as a data URI.
// When contentType is empty the type is sniffed from the content. The
// payload must decode as the declared image format.
func EncodeUpload(r io.Reader, contentType string, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, maxBytes)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnsupportedImage)
	}

	mediaType := http.DetectContentType(data)
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = mt
		}
	}

	format, ok := uploadTypes[mediaType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mediaType)
	}

	_, decoded, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if decoded != format {
		return "", fmt.Errorf("%w: declared %s but content is %s", ErrUnsupportedImage, mediaType, decoded)
	}

	return datauri.Encode(mediaType, data), nil
}
