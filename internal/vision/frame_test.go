package vision

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
)

// testImage returns a solid grey image of the given size.
func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func testFrame(t *testing.T, w, h int) *Frame {
	t.Helper()
	frame, err := DecodeFrame(encodePNG(t, w, h))
	if err != nil {
		t.Fatalf("decoding test frame: %v", err)
	}
	return frame
}

func TestDecodeBase64Frame(t *testing.T) {
	pngData := encodePNG(t, 4, 3)

	var bmpBuf bytes.Buffer
	if err := bmp.Encode(&bmpBuf, testImage(2, 2)); err != nil {
		t.Fatalf("encoding bmp: %v", err)
	}

	tests := []struct {
		name       string
		input      string
		wantFormat string
		wantWidth  int
		wantErr    bool
	}{
		{
			name:       "plain base64 png",
			input:      base64.StdEncoding.EncodeToString(pngData),
			wantFormat: "png",
			wantWidth:  4,
		},
		{
			name:       "data URL prefix",
			input:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData),
			wantFormat: "png",
			wantWidth:  4,
		},
		{
			name:       "unpadded base64",
			input:      base64.RawStdEncoding.EncodeToString(pngData),
			wantFormat: "png",
			wantWidth:  4,
		},
		{
			name:       "bmp frame",
			input:      base64.StdEncoding.EncodeToString(bmpBuf.Bytes()),
			wantFormat: "bmp",
			wantWidth:  2,
		},
		{
			name:    "empty payload",
			input:   "data:image/png;base64,",
			wantErr: true,
		},
		{
			name:    "not base64",
			input:   "%%%not-base64%%%",
			wantErr: true,
		},
		{
			name:    "base64 of non-image bytes",
			input:   base64.StdEncoding.EncodeToString([]byte("hello, this is not an image")),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := DecodeBase64Frame(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFrame) {
					t.Fatalf("expected ErrInvalidFrame, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if frame.Format != tt.wantFormat {
				t.Errorf("expected format %q, got %q", tt.wantFormat, frame.Format)
			}
			if frame.Width() != tt.wantWidth {
				t.Errorf("expected width %d, got %d", tt.wantWidth, frame.Width())
			}
		})
	}
}

func TestDecodeFrame_Oversized(t *testing.T) {
	_, err := DecodeFrame(make([]byte, MaxFrameBytes+1))
	if !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("expected ErrInvalidFrame, got %v", err)
	}
}

func TestFrameMIMEType(t *testing.T) {
	if got := (&Frame{Format: "jpeg"}).MIMEType(); got != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", got)
	}
	if got := (&Frame{}).MIMEType(); got != "application/octet-stream" {
		t.Errorf("expected octet-stream fallback, got %s", got)
	}
}
