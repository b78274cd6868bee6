package capture

import (
	"encoding/base64"
	"testing"

	"github.com/likekeeper/likekeeper/internal/models"
)

var (
	pngBytes  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	webpBytes = append(append([]byte("RIFF"), 0x24, 0x00, 0x00, 0x00), []byte("WEBPVP8 ")...)
)

func TestDecodeScreenshot(t *testing.T) {
	tests := []struct {
		name       string
		encoded    string
		wantFormat string
		wantErr    bool
	}{
		{
			name:       "png",
			encoded:    base64.StdEncoding.EncodeToString(pngBytes),
			wantFormat: models.ImageFormatPNG,
		},
		{
			name:       "jpeg",
			encoded:    base64.StdEncoding.EncodeToString(jpegBytes),
			wantFormat: models.ImageFormatJPG,
		},
		{
			name:       "webp",
			encoded:    base64.StdEncoding.EncodeToString(webpBytes),
			wantFormat: models.ImageFormatWebP,
		},
		{
			name:    "malformed base64",
			encoded: "!!!not-base64!!!",
			wantErr: true,
		},
		{
			name:    "empty payload",
			encoded: "",
			wantErr: true,
		},
		{
			name:    "unknown format",
			encoded: base64.StdEncoding.EncodeToString([]byte("plain text, not an image")),
			wantErr: true,
		},
		{
			name:    "riff but not webp",
			encoded: base64.StdEncoding.EncodeToString(append([]byte("RIFF"), []byte("1234WAVE")...)),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, format, err := decodeScreenshot(tt.encoded)
			if tt.wantErr {
				if err == nil {
					t.Fatal("decodeScreenshot() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeScreenshot() error: %v", err)
			}
			if format != tt.wantFormat {
				t.Errorf("format = %q, want %q", format, tt.wantFormat)
			}
			if len(data) == 0 {
				t.Error("decoded data should not be empty")
			}
		})
	}
}
