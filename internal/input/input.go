// Package input normalizes the two image input modes of the server, a
// filesystem path or a base64 payload with a format tag, into raw bytes with
// a MIME type.
package input

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/raine/stable-fast-3d-mcp/internal/stability"
)

// Image is the uniform in-memory payload the API client consumes.
type Image struct {
	Data     []byte
	MIME     string
	Filename string
}

var mimeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// FromFile reads an image from disk. The extension must be one of
// .jpg/.jpeg/.png/.webp; the MIME type is inferred from it.
func FromFile(path string) (*Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mime, ok := mimeByExt[ext]
	if !ok {
		return nil, &stability.Error{
			Kind:    stability.KindInvalidInput,
			Message: fmt.Sprintf("unsupported image format %q, supported formats: JPEG, PNG, WebP", ext),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &stability.Error{
				Kind:    stability.KindNotFound,
				Message: "input image file not found: " + path,
				Cause:   err,
			}
		}
		return nil, &stability.Error{
			Kind:    stability.KindInvalidInput,
			Message: "cannot read image file: " + err.Error(),
			Cause:   err,
		}
	}
	if len(data) == 0 {
		return nil, &stability.Error{
			Kind:    stability.KindInvalidInput,
			Message: "image file is empty: " + path,
		}
	}

	return &Image{Data: data, MIME: mime, Filename: filepath.Base(path)}, nil
}

// FromBase64 decodes a base64 image payload. The format tag must be jpeg,
// jpg, png or webp; jpg is normalized to jpeg. Both padded and unpadded
// encodings are accepted.
func FromBase64(encoded, format string) (*Image, error) {
	fmtTag := strings.ToLower(strings.TrimSpace(format))
	if fmtTag == "jpg" {
		fmtTag = "jpeg"
	}
	if fmtTag != "jpeg" && fmtTag != "png" && fmtTag != "webp" {
		return nil, &stability.Error{
			Kind:    stability.KindInvalidInput,
			Message: fmt.Sprintf("image_format must be 'jpeg', 'png', or 'webp', got %q", format),
		}
	}

	encoded = strings.TrimSpace(encoded)
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
	}
	if err != nil {
		return nil, &stability.Error{
			Kind:    stability.KindInvalidInput,
			Message: "cannot decode base64 image data: " + err.Error(),
			Cause:   err,
		}
	}
	if len(data) == 0 {
		return nil, &stability.Error{
			Kind:    stability.KindInvalidInput,
			Message: "decoded image data is empty",
		}
	}

	return &Image{Data: data, MIME: "image/" + fmtTag, Filename: "image." + fmtTag}, nil
}

// DeriveOutputPath replaces the extension of imagePath with .glb. Used when
// the caller gives no explicit output path in file mode.
func DeriveOutputPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + ".glb"
}
