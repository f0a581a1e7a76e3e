package filesystem

import (
	"encoding/json"
	"fmt"
	"os"

	"pictorlab.dev/pictor/pkg/common"
	"pictorlab.dev/pictor/pkg/pictor/domain"
)

// PreferencesRepository persists user preferences as one flat JSON object. The file is read once
// at startup and overwritten wholesale on every change.
type PreferencesRepository struct {
	path string
}

func NewPreferencesRepository(config *common.Config) *PreferencesRepository {
	return &PreferencesRepository{
		path: config.GetStringOrDefault(domain.ConfigKeyPreferencesPath, "preferences.json"),
	}
}

// Pointer fields tell an absent key apart from a zero value, so that e.g. a missing
// "dark_theme" falls back to the default (true) instead of false.
type preferencesRecord struct {
	APIKey            *string `json:"api_key"`
	DarkTheme         *bool   `json:"dark_theme"`
	RecognitionPrompt *string `json:"recognition_prompt"`
	SelectedModel     *string `json:"selected_model"`
}

// Load reads the persisted preferences. A missing file yields defaults silently; a corrupt file
// yields defaults plus an error, so that startup can proceed while the user is still told.
func (p *PreferencesRepository) Load() (domain.Preferences, error) {
	preferences := domain.DefaultPreferences()
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return preferences, nil
		}
		return preferences, err
	}
	var record preferencesRecord
	err = json.Unmarshal(data, &record)
	if err != nil {
		return preferences, fmt.Errorf("failed to parse \"%s\": %w", p.path, err)
	}
	if record.APIKey != nil {
		preferences.APIKey = *record.APIKey
	}
	if record.DarkTheme != nil {
		preferences.DarkTheme = *record.DarkTheme
	}
	if record.RecognitionPrompt != nil {
		preferences.RecognitionPrompt = *record.RecognitionPrompt
	}
	if record.SelectedModel != nil {
		preferences.SelectedModel = *record.SelectedModel
	}
	return preferences, nil
}

func (p *PreferencesRepository) Save(preferences domain.Preferences) error {
	data, err := json.Marshal(preferences)
	if err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0600)
}
