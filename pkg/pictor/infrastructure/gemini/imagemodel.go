package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"pictorlab.dev/pictor/pkg/pictor/domain"
)

var (
	errNoImageInResponse = errors.New("no image found in API response")
	errNoTextInResponse  = errors.New("no text found in API response")
)

// ImageModel talks to the Gemini API. Generation asks for TEXT+IMAGE response modalities and
// takes the first inline binary payload among the returned content parts; recognition sends the
// image bytes inline together with the instruction text and concatenates the returned text parts.
type ImageModel struct{}

func NewImageModel() *ImageModel {
	return &ImageModel{}
}

func (m *ImageModel) Name() string {
	return "gemini"
}

func (m *ImageModel) RequiresAPIKey() bool {
	return true
}

func (m *ImageModel) GenerateImage(ctx context.Context, request *domain.Request) (*domain.Image, error) {
	client, err := m.newClient(ctx, request.APIKey)
	if err != nil {
		return nil, err
	}
	model := request.Model
	if model == "" {
		model = domain.DefaultModelOption().Identifier
	}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	response, err := client.Models.GenerateContent(ctx, model, genai.Text(request.Prompt), config)
	if err != nil {
		return nil, fmt.Errorf("API error: %w", err)
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return nil, errNoImageInResponse
	}
	for _, part := range response.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = domain.MIMETypePNG
			}
			return domain.NewImage(part.InlineData.Data, mimeType), nil
		}
	}
	return nil, errNoImageInResponse
}

func (m *ImageModel) DescribeImage(ctx context.Context, request *domain.Request, image *domain.Image) (string, error) {
	client, err := m.newClient(ctx, request.APIKey)
	if err != nil {
		return "", err
	}
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: image.MIMEType, Data: image.Data}},
		genai.NewPartFromText(request.Instruction),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	response, err := client.Models.GenerateContent(ctx, domain.RecognitionModelIdentifier, contents, nil)
	if err != nil {
		return "", fmt.Errorf("API error: %w", err)
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", errNoTextInResponse
	}
	var buf strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			buf.WriteString(part.Text)
		}
	}
	description := strings.TrimSpace(buf.String())
	if description == "" {
		return "", errNoTextInResponse
	}
	return description, nil
}

// newClient builds a fresh SDK client per call so that a key changed between requests
// takes effect immediately.
func (m *ImageModel) newClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create the API client: %w", err)
	}
	return client, nil
}
