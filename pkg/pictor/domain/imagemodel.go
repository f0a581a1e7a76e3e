package domain

import "context"

// ImageModel is a generic interface for an image generation/recognition backend.
// Implementations are selected by configuration (see ConfigKeyBackend), never by probing
// for what happens to be available at runtime.
type ImageModel interface {
	// Name the name of the backend. Useful for debugging.
	Name() string
	// RequiresAPIKey reports whether requests must carry a non-empty credential.
	// Validation uses it to fail fast before anything is dispatched.
	RequiresAPIKey() bool
	// GenerateImage produces an image for the request's prompt using the request's model.
	// The returned image carries encoded bytes only; decoding is the caller's job.
	GenerateImage(ctx context.Context, request *Request) (*Image, error)
	// DescribeImage produces a natural-language description of the image, guided by the
	// request's instruction text.
	DescribeImage(ctx context.Context, request *Request, image *Image) (string, error)
}
