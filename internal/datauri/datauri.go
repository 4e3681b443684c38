// Package datauri encodes and decodes base64 data URIs
// (data:<mime>;base64,<payload>) used to carry images inline.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid indicates a string is not a base64 data URI.
var ErrInvalid = errors.New("invalid data URI")

// Encode returns data as a base64 data URI of the given MIME type.
func Encode(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode splits a base64 data URI into its MIME type and payload.
func Decode(uri string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrInvalid)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload separator", ErrInvalid)
	}
	mime, ok = strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalid)
	}
	if mime == "" {
		return "", nil, fmt.Errorf("%w: missing media type", ErrInvalid)
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return mime, data, nil
}

// IsImage reports whether uri is a well-formed base64 data URI with an image/* type.
func IsImage(uri string) bool {
	mime, _, err := Decode(uri)
	return err == nil && strings.HasPrefix(mime, "image/")
}
