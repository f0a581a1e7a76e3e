package domain

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"

	_ "golang.org/x/image/bmp"
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
)

// Image is an encoded image plus its decoded form once validated. Backends return it with raw
// bytes only; the worker decodes it before emitting it as a result, so a successfully delivered
// image is always displayable and saveable.
type Image struct {
	Data     []byte
	MIMEType string
	bitmap   image.Image
}

func NewImage(data []byte, mimeType string) *Image {
	return &Image{
		Data:     data,
		MIMEType: mimeType,
	}
}

// LoadImage reads the file fully into memory. The MIME type is inferred from the file extension
// (jpeg for .jpg/.jpeg, png otherwise); the bytes are not decoded because remote recognition
// only needs the encoded payload.
func LoadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewImage(data, MIMETypeForPath(path)), nil
}

// MIMETypeForPath infers the MIME type from the file extension, case-insensitively.
// Anything which is not a JPEG is reported as PNG.
func MIMETypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return MIMETypeJPEG
	default:
		return MIMETypePNG
	}
}

// Decode validates the encoded bytes and remembers the decoded bitmap. Safe to call more than once.
func (i *Image) Decode() error {
	if i.bitmap != nil {
		return nil
	}
	bitmap, _, err := image.Decode(bytes.NewReader(i.Data))
	if err != nil {
		return err
	}
	i.bitmap = bitmap
	return nil
}

// Bitmap returns the decoded image, or nil if Decode hasn't been called (or failed).
func (i *Image) Bitmap() image.Image {
	return i.bitmap
}

// SaveTo encodes the image to the given path. The target format is chosen by the extension:
// .jpg/.jpeg produces a JPEG, everything else a PNG.
func (i *Image) SaveTo(path string) error {
	if err := i.Decode(); err != nil {
		return fmt.Errorf("failed to decode the image: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(file, i.bitmap, &jpeg.Options{Quality: 95})
	default:
		return png.Encode(file, i.bitmap)
	}
}

// PNGBytes returns the image re-encoded as PNG. If the image is already a PNG, the original
// bytes are returned as is.
func (i *Image) PNGBytes() ([]byte, error) {
	if i.MIMEType == MIMETypePNG {
		return i.Data, nil
	}
	if err := i.Decode(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err := png.Encode(&buf, i.bitmap)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
