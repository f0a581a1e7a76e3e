package domain

import (
	"time"

	"github.com/google/uuid"
)

type Operation int

const (
	// OperationGenerate produces an image from a text prompt.
	OperationGenerate = Operation(iota)
	// OperationRecognize produces a textual description of an existing image.
	OperationRecognize
)

// Request is one generate-or-recognize operation submitted to a Worker. A request is immutable
// once dispatched: the dispatcher builds it from the current user state and never touches it again.
type Request struct {
	ID          string
	Operation   Operation
	Prompt      string    // Generate only
	Model       string    // Generate only: the backend model identifier
	ImagePath   string    // Recognize only: path to a local image file
	Instruction string    // Recognize only: what to ask about the image
	APIKey      string
	CreatedAt   time.Time
}

func NewGenerateRequest(prompt, model, apiKey string) *Request {
	return &Request{
		ID:        uuid.NewString(),
		Operation: OperationGenerate,
		Prompt:    prompt,
		Model:     model,
		APIKey:    apiKey,
		CreatedAt: time.Now(),
	}
}

func NewRecognizeRequest(imagePath, instruction, apiKey string) *Request {
	return &Request{
		ID:          uuid.NewString(),
		Operation:   OperationRecognize,
		ImagePath:   imagePath,
		Instruction: instruction,
		APIKey:      apiKey,
		CreatedAt:   time.Now(),
	}
}
