package api

import (
	"time"

	"pictorlab.dev/pictor/pkg/common"
	"pictorlab.dev/pictor/pkg/pictor/domain"
	"pictorlab.dev/pictor/pkg/pictor/infrastructure/filesystem"
	"pictorlab.dev/pictor/pkg/pictor/infrastructure/gemini"
	"pictorlab.dev/pictor/pkg/pictor/infrastructure/offline"
	infrarss "pictorlab.dev/pictor/pkg/pictor/infrastructure/rss"
	infraweb "pictorlab.dev/pictor/pkg/pictor/infrastructure/web"
	infrawiki "pictorlab.dev/pictor/pkg/pictor/infrastructure/wiki"
)

// See domain/config.go
const (
	ConfigKeyBackend         = domain.ConfigKeyBackend
	ConfigKeyLogPath         = domain.ConfigKeyLogPath
	ConfigKeyPreferencesPath = domain.ConfigKeyPreferencesPath
	ConfigKeyFeedURL         = domain.ConfigKeyFeedURL
)

// API is the entrypoint to Pictor. It shouldn't contain any logic of its own; it glues all the
// components together and provides a public interface to the dispatcher and its helpers.
// This API can be used in various contexts: a console client, an IRC bot, an HTTP server etc.
type API interface {
	// Generate submits a text prompt for image generation. The returned handle carries advisory
	// progress and exactly one terminal result.
	Generate(prompt string) (*domain.RequestHandle, error)
	// Regenerate resubmits the last successfully validated prompt.
	Regenerate() (*domain.RequestHandle, error)
	// Describe submits an image for recognition. `pathOrURL` may be a local file path, a direct
	// image URL, or an HTML page URL whose main image is picked automatically.
	Describe(pathOrURL string) (*domain.RequestHandle, error)
	// UseContext composes the given prompt with the stored description. Pure string composition.
	UseContext(prompt string) (string, error)
	// SetDescription stores the description text directly, bypassing recognition.
	SetDescription(text string)
	// SaveImage writes the current image to the given path (PNG or JPEG by extension).
	SaveImage(path string) error
	// Reset clears the current image, the last prompt and the description, and purges the
	// scratch directory.
	Reset()
	// State returns a snapshot of the user-facing state and the available actions.
	State() domain.State
	// TopicSummary fetches a short summary of the subject and stores it as the description,
	// so UseContext composes it into the prompt exactly like a recognition result.
	TopicSummary(subject string) (string, error)
	// InspirePrompt returns a prompt seed built from a current headline.
	InspirePrompt() (string, error)
	// Preferences returns a snapshot of the persisted user preferences.
	Preferences() domain.Preferences
	SetAPIKey(apiKey string)
	ToggleDarkTheme() bool
	SetRecognitionPrompt(instruction string)
	SelectModel(displayName string) error
	ModelOptions() []domain.ModelOption
	// LoadError reports the preference-load failure encountered at startup, if any.
	// Startup proceeds with defaults regardless; frontends surface it once.
	LoadError() error
	// Stop flushes background jobs and removes the scratch directory. Call it on process exit.
	Stop()
}

type api struct {
	dispatcher         *domain.Dispatcher
	contextService     *domain.ContextService
	preferencesService *domain.PreferencesService
	scratch            domain.ScratchStorage
	jobQueue           *common.JobQueue
}

func NewAPI(config *common.Config) API {
	logger := common.NewFileLogger(config.GetStringOrDefault(ConfigKeyLogPath, "log.txt"))
	jobQueue := common.NewJobQueue(logger)
	scratch := filesystem.NewScratchDirectory(config)
	preferencesService := domain.NewPreferencesService(filesystem.NewPreferencesRepository(config), jobQueue, logger)
	var imageModel domain.ImageModel
	switch config.GetStringOrDefault(ConfigKeyBackend, "gemini") {
	case "offline":
		imageModel = offline.NewImageModel()
	default:
		imageModel = gemini.NewImageModel()
	}
	dispatcher := domain.NewDispatcher(imageModel, preferencesService, scratch, jobQueue, logger)
	downloadTimeout := config.GetDurationOrDefault(domain.ConfigKeyDownloadTimeout, time.Second*30)
	headlineProvider := infrarss.NewHeadlineProvider(
		config.GetStringOrDefault(ConfigKeyFeedURL, "http://www.independent.co.uk/rss"),
		downloadTimeout,
	)
	contextService := domain.NewContextService(
		infraweb.NewURLFinder(),
		infraweb.NewPageImageExtractor(config),
		infrawiki.NewTopicProvider(),
		headlineProvider,
		scratch,
		config,
		logger,
	)
	return &api{
		dispatcher:         dispatcher,
		contextService:     contextService,
		preferencesService: preferencesService,
		scratch:            scratch,
		jobQueue:           jobQueue,
	}
}

func (a *api) Generate(prompt string) (*domain.RequestHandle, error) {
	return a.dispatcher.SubmitGenerate(prompt)
}

func (a *api) Regenerate() (*domain.RequestHandle, error) {
	return a.dispatcher.SubmitRegenerate()
}

func (a *api) Describe(pathOrURL string) (*domain.RequestHandle, error) {
	imagePath, err := a.contextService.ResolveImagePath(pathOrURL)
	if err != nil {
		return nil, err
	}
	return a.dispatcher.SubmitRecognize(imagePath)
}

func (a *api) UseContext(prompt string) (string, error) {
	return a.dispatcher.UseContext(prompt)
}

func (a *api) SetDescription(text string) {
	a.dispatcher.SetDescription(text)
}

func (a *api) SaveImage(path string) error {
	return a.dispatcher.SaveImage(path)
}

func (a *api) Reset() {
	a.dispatcher.Reset()
}

func (a *api) State() domain.State {
	return a.dispatcher.State()
}

func (a *api) TopicSummary(subject string) (string, error) {
	summary, err := a.contextService.TopicSummary(subject)
	if err != nil {
		return "", err
	}
	a.dispatcher.SetDescription(summary)
	return summary, nil
}

func (a *api) InspirePrompt() (string, error) {
	return a.contextService.InspirePrompt()
}

func (a *api) Preferences() domain.Preferences {
	return a.preferencesService.Preferences()
}

func (a *api) SetAPIKey(apiKey string) {
	a.preferencesService.SetAPIKey(apiKey)
}

func (a *api) ToggleDarkTheme() bool {
	return a.preferencesService.ToggleDarkTheme()
}

func (a *api) SetRecognitionPrompt(instruction string) {
	a.preferencesService.SetRecognitionPrompt(instruction)
}

func (a *api) SelectModel(displayName string) error {
	return a.preferencesService.SelectModel(displayName)
}

func (a *api) ModelOptions() []domain.ModelOption {
	return domain.ModelOptions()
}

func (a *api) LoadError() error {
	return a.preferencesService.LoadError()
}

func (a *api) Stop() {
	a.jobQueue.Stop()
	_ = a.scratch.Purge()
}
