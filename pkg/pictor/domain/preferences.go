package domain

import (
	"errors"
	"strings"
	"sync"

	"pictorlab.dev/pictor/pkg/common"
)

var ErrUnknownModel = errors.New("unknown model")

// DefaultRecognitionInstruction is used when the user hasn't configured an instruction of their own.
const DefaultRecognitionInstruction = "Describe this image in detail for AI image generation purposes. " +
	"Focus on visual elements, style, composition, colors, and mood."

// Preferences is the user state persisted across process runs. It's loaded once at startup
// and overwritten wholesale on every change.
type Preferences struct {
	APIKey            string `json:"api_key"`
	DarkTheme         bool   `json:"dark_theme"`
	RecognitionPrompt string `json:"recognition_prompt"`
	SelectedModel     string `json:"selected_model"` // a display name, see ModelOptions
}

func DefaultPreferences() Preferences {
	return Preferences{
		APIKey:            "",
		DarkTheme:         true,
		RecognitionPrompt: DefaultRecognitionInstruction,
		SelectedModel:     DefaultModelOption().DisplayName,
	}
}

type PreferencesRepository interface {
	// Load reads the persisted preferences. A missing or corrupt file yields defaults;
	// only the corrupt case additionally reports an error.
	Load() (Preferences, error)
	// Save overwrites the persisted preferences with the given value.
	Save(preferences Preferences) error
}

// PreferencesService owns the current Preferences value. Every setter persists the whole record
// through the background job queue: persistence is best-effort, save errors are logged by the
// queue and never surface to the user.
type PreferencesService struct {
	mutex      sync.Mutex
	repository PreferencesRepository
	jobQueue   *common.JobQueue
	logger     common.Logger
	current    Preferences
	loadErr    error
}

func NewPreferencesService(repository PreferencesRepository, jobQueue *common.JobQueue, logger common.Logger) *PreferencesService {
	current, err := repository.Load()
	if err != nil {
		logger.Log("failed to load preferences, falling back to defaults: " + err.Error() + "\n")
	}
	return &PreferencesService{
		repository: repository,
		jobQueue:   jobQueue,
		logger:     logger,
		current:    current,
		loadErr:    err,
	}
}

// LoadError returns the error encountered while loading the preferences at startup, if any.
// Frontends surface it once; startup proceeds with defaults regardless.
func (p *PreferencesService) LoadError() error {
	return p.loadErr
}

// Preferences returns a snapshot of the current value.
func (p *PreferencesService) Preferences() Preferences {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.current
}

func (p *PreferencesService) APIKey() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.current.APIKey
}

func (p *PreferencesService) RecognitionPrompt() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.current.RecognitionPrompt
}

func (p *PreferencesService) SelectedModel() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.current.SelectedModel
}

func (p *PreferencesService) SetAPIKey(apiKey string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.current.APIKey = strings.TrimSpace(apiKey)
	p.persist()
}

// ToggleDarkTheme flips the theme flag and returns the new value.
func (p *PreferencesService) ToggleDarkTheme() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.current.DarkTheme = !p.current.DarkTheme
	p.persist()
	return p.current.DarkTheme
}

// SetRecognitionPrompt stores the instruction text. An empty value means "use the default
// instruction"; the fallback is applied at dispatch time, not here, so the user's explicit
// choice to clear the field survives a restart.
func (p *PreferencesService) SetRecognitionPrompt(instruction string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.current.RecognitionPrompt = instruction
	p.persist()
}

// SelectModel stores the model choice. The display name is validated against the catalog.
func (p *PreferencesService) SelectModel(displayName string) error {
	_, ok := FindModelOption(displayName)
	if !ok {
		return ErrUnknownModel
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.current.SelectedModel = displayName
	p.persist()
	return nil
}

// persist must be called under the mutex.
func (p *PreferencesService) persist() {
	snapshot := p.current
	p.jobQueue.Enqueue("save preferences", func() error {
		return p.repository.Save(snapshot)
	})
}
