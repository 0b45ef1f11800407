// Package vision holds the image plumbing shared by the depth and embedding
// tools: decoding from files, byte buffers and base64 payloads, the
// recognized-extension filter for batch runs, and grayscale PNG output.
package vision

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/gen2brain/avif"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tiff": true,
}

// RecognizedImage reports whether name has one of the batch-mode image
// extensions, case-insensitively.
func RecognizedImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Errorf(KindInput, "could not load image: %s", path)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, Errorf(KindDecode, "could not decode image %s: %v", path, err)
	}
	return img, nil
}

func DecodeBytes(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, Errorf(KindDecode, "could not decode image data: %v", err)
	}
	return img, nil
}

// DecodeInput accepts the three input encodings of the embedding tool: a
// data-URL base64 payload, a filesystem path, or a raw base64 payload.
func DecodeInput(input string) (image.Image, error) {
	switch {
	case strings.HasPrefix(input, "data:image"):
		_, encoded, ok := strings.Cut(input, ",")
		if !ok {
			return nil, Errorf(KindDecode, "malformed data url: missing payload")
		}
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, Errorf(KindDecode, "invalid base64 payload: %v", err)
		}
		return DecodeBytes(raw)
	case strings.HasPrefix(input, "/") || strings.HasPrefix(input, "./") || strings.HasPrefix(input, "../"):
		return DecodeFile(input)
	default:
		raw, err := base64.StdEncoding.DecodeString(input)
		if err != nil {
			return nil, Errorf(KindDecode, "invalid base64 payload: %v", err)
		}
		return DecodeBytes(raw)
	}
}

// ToNRGBA converts any decoded image into a three-channel-plus-alpha raster
// with a known layout.
func ToNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// WritePNG writes img to path, creating parent directories as needed.
func WritePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Errorf(KindWrite, "could not create output directory %s: %v", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return Errorf(KindWrite, "could not create output file %s: %v", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return Errorf(KindWrite, "could not encode PNG %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		return Errorf(KindWrite, "could not write output file %s: %v", path, err)
	}
	return nil
}
