package domain

import (
	"errors"
	"strings"
	"sync"

	"pictorlab.dev/pictor/pkg/common"
)

// User-facing validation errors. They are reported before any request is created, so a failed
// validation never reaches the worker or the network.
var (
	ErrAPIKeyNotSet      = errors.New("API key is not set")
	ErrPromptEmpty       = errors.New("prompt is empty")
	ErrNoPreviousPrompt  = errors.New("no previous prompt")
	ErrRequestInProgress = errors.New("another request is already in progress")
	ErrNoImage           = errors.New("no image to save")
	ErrNoDescription     = errors.New("no description to use")
)

// UseContextSeparator joins the current prompt with the stored description in UseContext.
const UseContextSeparator = "\n\nBased on: "

// State is a snapshot of the dispatcher's user-facing state, including which actions are
// currently available. Frontends render it however they like (enabled buttons, a status line).
type State struct {
	Busy          bool
	LastPrompt    string
	Description   string
	HasImage      bool
	CanGenerate   bool
	CanRegenerate bool
	CanSave       bool
	CanUseContext bool
}

// Dispatcher gates user actions behind validation, hands validated requests to fresh workers and
// owns all user-facing state: the last prompt, the current image and the description text. State is
// mutated only under the dispatcher's own mutex when a terminal worker event arrives, so the worker
// never touches shared state directly.
//
// At most one request is outstanding at a time: overlapping submissions are rejected with
// ErrRequestInProgress rather than queued or raced.
type Dispatcher struct {
	mutex              sync.Mutex
	model              ImageModel
	preferencesService *PreferencesService
	scratch            ScratchStorage
	jobQueue           *common.JobQueue
	logger             common.Logger
	busy               bool
	epoch              uint64
	lastPrompt         string
	description        string
	currentImage       *Image
}

func NewDispatcher(
	model ImageModel,
	preferencesService *PreferencesService,
	scratch ScratchStorage,
	jobQueue *common.JobQueue,
	logger common.Logger,
) *Dispatcher {
	return &Dispatcher{
		model:              model,
		preferencesService: preferencesService,
		scratch:            scratch,
		jobQueue:           jobQueue,
		logger:             logger,
	}
}

// SubmitGenerate validates the prompt and dispatches a Generate request on a fresh worker.
// On success the prompt is remembered for SubmitRegenerate.
func (d *Dispatcher) SubmitGenerate(prompt string) (*RequestHandle, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	prompt = strings.TrimSpace(prompt)
	err := d.validateAPIKey()
	if err != nil {
		return nil, err
	}
	if prompt == "" {
		return nil, ErrPromptEmpty
	}
	if d.busy {
		return nil, ErrRequestInProgress
	}
	d.lastPrompt = prompt
	return d.dispatch(NewGenerateRequest(prompt, d.selectedModelIdentifier(), d.preferencesService.APIKey())), nil
}

// SubmitRegenerate dispatches a Generate request reusing the last successfully validated prompt.
// The prompt-existence check runs before the API key check: without a previous prompt there is
// nothing to regenerate no matter how the backend is configured.
func (d *Dispatcher) SubmitRegenerate() (*RequestHandle, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.lastPrompt == "" {
		return nil, ErrNoPreviousPrompt
	}
	err := d.validateAPIKey()
	if err != nil {
		return nil, err
	}
	if d.busy {
		return nil, ErrRequestInProgress
	}
	return d.dispatch(NewGenerateRequest(d.lastPrompt, d.selectedModelIdentifier(), d.preferencesService.APIKey())), nil
}

// SubmitRecognize dispatches a Recognize request for a local image file. No prompt is required;
// an empty stored instruction falls back to the default description instruction.
func (d *Dispatcher) SubmitRecognize(imagePath string) (*RequestHandle, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	err := d.validateAPIKey()
	if err != nil {
		return nil, err
	}
	if d.busy {
		return nil, ErrRequestInProgress
	}
	instruction := strings.TrimSpace(d.preferencesService.RecognitionPrompt())
	if instruction == "" {
		instruction = DefaultRecognitionInstruction
	}
	return d.dispatch(NewRecognizeRequest(imagePath, instruction, d.preferencesService.APIKey())), nil
}

// UseContext composes the given prompt with the stored description: an empty prompt yields the
// description alone, otherwise the two are joined with UseContextSeparator. Pure string
// composition, no network effect.
func (d *Dispatcher) UseContext(prompt string) (string, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.description == "" {
		return "", ErrNoDescription
	}
	if strings.TrimSpace(prompt) == "" {
		return d.description, nil
	}
	return prompt + UseContextSeparator + d.description, nil
}

// SetDescription stores the description text directly, bypassing recognition. Used by context
// sources other than image recognition (e.g. topic summaries).
func (d *Dispatcher) SetDescription(text string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.description = text
}

func (d *Dispatcher) Description() string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.description
}

func (d *Dispatcher) CurrentImage() *Image {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.currentImage
}

// SaveImage encodes the current image to the given path (PNG or JPEG by extension).
func (d *Dispatcher) SaveImage(path string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.currentImage == nil {
		return ErrNoImage
	}
	return d.currentImage.SaveTo(path)
}

// Reset clears the current image, the last prompt and the description, purges the scratch
// directory, and orphans any in-flight request: its terminal event is still delivered to its
// handle but no longer mutates dispatcher state.
func (d *Dispatcher) Reset() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.epoch++
	d.busy = false
	d.lastPrompt = ""
	d.description = ""
	d.currentImage = nil
	d.jobQueue.Enqueue("purge scratch directory", func() error {
		return d.scratch.Purge()
	})
}

func (d *Dispatcher) State() State {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return State{
		Busy:          d.busy,
		LastPrompt:    d.lastPrompt,
		Description:   d.description,
		HasImage:      d.currentImage != nil,
		CanGenerate:   !d.busy,
		CanRegenerate: !d.busy && d.lastPrompt != "",
		CanSave:       !d.busy && d.currentImage != nil,
		CanUseContext: d.description != "",
	}
}

// validateAPIKey must be called under the mutex.
func (d *Dispatcher) validateAPIKey() error {
	if d.model.RequiresAPIKey() && d.preferencesService.APIKey() == "" {
		return ErrAPIKeyNotSet
	}
	return nil
}

// selectedModelIdentifier must be called under the mutex. An unknown stored display name
// silently falls back to the default model.
func (d *Dispatcher) selectedModelIdentifier() string {
	option, ok := FindModelOption(d.preferencesService.SelectedModel())
	if !ok {
		option = DefaultModelOption()
	}
	return option.Identifier
}

// dispatch must be called under the mutex.
func (d *Dispatcher) dispatch(request *Request) *RequestHandle {
	d.busy = true
	epoch := d.epoch
	worker := NewWorker(d.model, request, d.logger)
	return worker.Run(func(result Result) {
		d.complete(epoch, result)
	})
}

// complete runs on the worker goroutine, before the request handle resolves: anyone blocked in
// Wait observes the dispatcher state already updated.
func (d *Dispatcher) complete(epoch uint64, result Result) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if epoch != d.epoch {
		// The request was orphaned by a reset; its result must not touch the new state.
		return
	}
	d.busy = false
	if result.Failed() {
		d.logger.Log("request " + result.RequestID + " failed: " + result.Err.Error() + "\n")
		return
	}
	if result.Image != nil {
		d.currentImage = result.Image
		d.scheduleWorkingCopy(result)
		return
	}
	d.description = result.Description
}

// scheduleWorkingCopy must be called under the mutex. The copy is best-effort: a failure is
// logged by the job queue and the in-memory image stays usable.
func (d *Dispatcher) scheduleWorkingCopy(result Result) {
	d.jobQueue.Enqueue("save working copy of "+result.RequestID, func() error {
		data, err := result.Image.PNGBytes()
		if err != nil {
			return err
		}
		_, err = d.scratch.WriteFile("generated-"+result.RequestID+".png", data)
		return err
	})
}
