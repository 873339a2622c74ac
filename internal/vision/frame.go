package vision

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MaxFrameBytes bounds the decoded size of a single frame (10MB).
const MaxFrameBytes = 10 << 20

// ErrInvalidFrame is returned for missing, oversized or undecodable frames.
var ErrInvalidFrame = errors.New("invalid frame")

// Frame is a decoded camera frame together with its encoded bytes.
type Frame struct {
	Image  image.Image
	Raw    []byte
	Format string // jpeg, png, gif, webp or bmp
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int {
	return f.Image.Bounds().Dx()
}

// Height returns the frame height in pixels.
func (f *Frame) Height() int {
	return f.Image.Bounds().Dy()
}

// MIMEType returns the content type of the encoded frame.
func (f *Frame) MIMEType() string {
	if f.Format == "" {
		return "application/octet-stream"
	}
	return "image/" + f.Format
}

// DecodeFrame decodes an encoded image.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidFrame)
	}
	if len(data) > MaxFrameBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit", ErrInvalidFrame, len(data))
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	return &Frame{Image: img, Raw: data, Format: format}, nil
}

// DecodeBase64Frame decodes a base64 image as sent by browsers, with or
// without a "data:image/...;base64," prefix.
func DecodeBase64Frame(encoded string) (*Frame, error) {
	if idx := strings.IndexByte(encoded, ','); idx >= 0 {
		encoded = encoded[idx+1:]
	}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: no image data", ErrInvalidFrame)
	}
	if base64.StdEncoding.DecodedLen(len(encoded)) > MaxFrameBytes {
		return nil, fmt.Errorf("%w: payload exceeds limit", ErrInvalidFrame)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Some canvases drop the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: bad base64: %v", ErrInvalidFrame, err)
		}
	}
	return DecodeFrame(data)
}
