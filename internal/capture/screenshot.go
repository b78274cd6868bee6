package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/likekeeper/likekeeper/internal/models"
)

// decodeScreenshot decodes a base64 screenshot payload and identifies the
// image format from its magic bytes. Failure here is always soft: the
// caller records screenshot_saved=false and continues the capture.
func decodeScreenshot(encoded string) ([]byte, string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("malformed base64 screenshot: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty screenshot payload")
	}

	format, err := sniffImageFormat(data)
	if err != nil {
		return nil, "", err
	}
	return data, format, nil
}

var (
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	riffMagic = []byte("RIFF")
	webpMagic = []byte("WEBP")
)

// sniffImageFormat identifies png, jpg or webp content by magic bytes
func sniffImageFormat(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return models.ImageFormatPNG, nil
	case bytes.HasPrefix(data, jpegMagic):
		return models.ImageFormatJPG, nil
	case len(data) >= 12 && bytes.HasPrefix(data, riffMagic) && bytes.Equal(data[8:12], webpMagic):
		return models.ImageFormatWebP, nil
	}
	return "", fmt.Errorf("unrecognized image format")
}
