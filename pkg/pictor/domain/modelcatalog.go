package domain

// ModelOption maps a user-facing model name to the backend identifier actually sent over the wire.
type ModelOption struct {
	DisplayName string
	Identifier  string
}

// The first entry is the default.
var modelOptions = []ModelOption{
	{DisplayName: "Gemini 2.0 Flash", Identifier: "gemini-2.0-flash-preview-image-generation"},
	{DisplayName: "Gemini 2.5 Flash Image", Identifier: "gemini-2.5-flash-image-preview"},
}

// RecognitionModelIdentifier the model used for image recognition. Recognition always uses
// the same model regardless of which generation model is selected.
const RecognitionModelIdentifier = "gemini-2.5-flash"

func DefaultModelOption() ModelOption {
	return modelOptions[0]
}

func ModelOptions() []ModelOption {
	result := make([]ModelOption, len(modelOptions))
	copy(result, modelOptions)
	return result
}

// FindModelOption looks up a model by its display name.
func FindModelOption(displayName string) (ModelOption, bool) {
	for _, option := range modelOptions {
		if option.DisplayName == displayName {
			return option, true
		}
	}
	return ModelOption{}, false
}
