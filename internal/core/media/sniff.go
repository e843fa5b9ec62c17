// Package media detects image formats from magic bytes.
package media

import "bytes"

// Image MIME types recognised by DetectImageMIME.
const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEGIF  = "image/gif"
	MIMEWEBP = "image/webp"
)

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	gifMagic  = []byte("GIF8")
)

// DetectImageMIME returns the MIME type of an image by its header.
// Unknown or empty input is reported as PNG.
func DetectImageMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return MIMEPNG
	case bytes.HasPrefix(data, jpegMagic):
		return MIMEJPEG
	case bytes.HasPrefix(data, gifMagic):
		return MIMEGIF
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return MIMEWEBP
	default:
		return MIMEPNG
	}
}

// Extension returns the file extension (with dot) for an image MIME type.
func Extension(mime string) string {
	switch mime {
	case MIMEJPEG:
		return ".jpg"
	case MIMEGIF:
		return ".gif"
	case MIMEWEBP:
		return ".webp"
	default:
		return ".png"
	}
}
