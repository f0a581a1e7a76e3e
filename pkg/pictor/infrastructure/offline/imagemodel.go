package offline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"pictorlab.dev/pictor/pkg/pictor/domain"
)

var errRecognitionUnsupported = errors.New("image recognition requires a remote backend")

const (
	placeholderSize = 400
	maxPromptLength = 80
	maxLineLength   = 48
)

// ImageModel renders deterministic local placeholder images so the rest of the application can be
// exercised without network access or a credential. Recognition is not supported offline.
type ImageModel struct{}

func NewImageModel() *ImageModel {
	return &ImageModel{}
}

func (m *ImageModel) Name() string {
	return "offline"
}

func (m *ImageModel) RequiresAPIKey() bool {
	return false
}

func (m *ImageModel) GenerateImage(ctx context.Context, request *domain.Request) (*domain.Image, error) {
	lightBlue := color.RGBA{R: 0xAD, G: 0xD8, B: 0xE6, A: 0xFF}
	darkBlue := color.RGBA{R: 0x00, G: 0x00, B: 0x8B, A: 0xFF}
	bitmap := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	draw.Draw(bitmap, bitmap.Bounds(), image.NewUniform(lightBlue), image.Point{}, draw.Src)
	drawer := &font.Drawer{
		Dst:  bitmap,
		Src:  image.NewUniform(darkBlue),
		Face: basicfont.Face7x13,
	}
	lines := append([]string{"Placeholder", ""}, wrapPrompt(request.Prompt)...)
	for index, line := range lines {
		drawer.Dot = fixed.P(15, 40+index*25)
		drawer.DrawString(line)
	}
	var buf bytes.Buffer
	err := png.Encode(&buf, bitmap)
	if err != nil {
		return nil, err
	}
	return domain.NewImage(buf.Bytes(), domain.MIMETypePNG), nil
}

func (m *ImageModel) DescribeImage(ctx context.Context, request *domain.Request, image *domain.Image) (string, error) {
	return "", errRecognitionUnsupported
}

// wrapPrompt truncates the prompt and splits it into short lines which fit the placeholder.
func wrapPrompt(prompt string) []string {
	runes := []rune(prompt)
	if len(runes) > maxPromptLength {
		prompt = string(runes[:maxPromptLength]) + "..."
	}
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(prompt) {
		if current.Len() > 0 && current.Len()+1+len(word) > maxLineLength {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
