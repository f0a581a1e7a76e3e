package domain

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"pictorlab.dev/pictor/pkg/common"
)

type stubImageModel struct {
	mutex       sync.Mutex
	requiresKey bool
	image       *Image
	generateErr error
	description string
	describeErr error
	requests    []*Request
	seenImage   *Image
}

func (s *stubImageModel) Name() string { return "stub" }

func (s *stubImageModel) RequiresAPIKey() bool { return s.requiresKey }

func (s *stubImageModel) GenerateImage(ctx context.Context, request *Request) (*Image, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.requests = append(s.requests, request)
	return s.image, s.generateErr
}

func (s *stubImageModel) DescribeImage(ctx context.Context, request *Request, image *Image) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.requests = append(s.requests, request)
	s.seenImage = image
	return s.description, s.describeErr
}

func (s *stubImageModel) requestCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.requests)
}

func (s *stubImageModel) lastRequest() *Request {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

type stubPreferencesRepository struct{}

func (s *stubPreferencesRepository) Load() (Preferences, error) { return DefaultPreferences(), nil }

func (s *stubPreferencesRepository) Save(preferences Preferences) error { return nil }

type stubScratch struct {
	mutex  sync.Mutex
	files  map[string][]byte
	purged bool
}

func newStubScratch() *stubScratch {
	return &stubScratch{files: make(map[string][]byte)}
}

func (s *stubScratch) WriteFile(fileName string, data []byte) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.files[fileName] = data
	return fileName, nil
}

func (s *stubScratch) Purge() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.purged = true
	return nil
}

func newTestDispatcher(t *testing.T, model ImageModel) (*Dispatcher, *PreferencesService) {
	t.Helper()
	jobQueue := common.NewJobQueue(common.NewNullLogger())
	t.Cleanup(jobQueue.Stop)
	preferencesService := NewPreferencesService(&stubPreferencesRepository{}, jobQueue, common.NewNullLogger())
	dispatcher := NewDispatcher(model, preferencesService, newStubScratch(), jobQueue, common.NewNullLogger())
	return dispatcher, preferencesService
}

func encodedPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	if err != nil {
		t.Fatalf("failed to encode a test image: %v", err)
	}
	return buf.Bytes()
}

func TestSubmitGenerateRejectsMissingAPIKey(t *testing.T) {
	model := &stubImageModel{requiresKey: true}
	dispatcher, _ := newTestDispatcher(t, model)
	_, err := dispatcher.SubmitGenerate("a red barn")
	if !errors.Is(err, ErrAPIKeyNotSet) {
		t.Fatalf("got %v; want %v", err, ErrAPIKeyNotSet)
	}
	if model.requestCount() != 0 {
		t.Fatalf("got %d dispatched requests; want 0", model.requestCount())
	}
	if dispatcher.State().Busy {
		t.Fatal("dispatcher must not become busy after a validation failure")
	}
}

func TestSubmitGenerateRejectsEmptyPrompt(t *testing.T) {
	model := &stubImageModel{}
	dispatcher, _ := newTestDispatcher(t, model)
	for _, prompt := range []string{"", "   ", "\n\t"} {
		_, err := dispatcher.SubmitGenerate(prompt)
		if !errors.Is(err, ErrPromptEmpty) {
			t.Fatalf("prompt %q: got %v; want %v", prompt, err, ErrPromptEmpty)
		}
	}
	if model.requestCount() != 0 {
		t.Fatalf("got %d dispatched requests; want 0", model.requestCount())
	}
}

func TestSubmitRegenerateWithoutPreviousPrompt(t *testing.T) {
	// The missing prompt wins over a missing API key: there is nothing to regenerate either way.
	model := &stubImageModel{requiresKey: true}
	dispatcher, _ := newTestDispatcher(t, model)
	_, err := dispatcher.SubmitRegenerate()
	if !errors.Is(err, ErrNoPreviousPrompt) {
		t.Fatalf("got %v; want %v", err, ErrNoPreviousPrompt)
	}
	if model.requestCount() != 0 {
		t.Fatalf("got %d dispatched requests; want 0", model.requestCount())
	}
}

func TestGenerateSuccess(t *testing.T) {
	model := &stubImageModel{image: NewImage(encodedPNG(t), MIMETypePNG)}
	dispatcher, _ := newTestDispatcher(t, model)
	handle, err := dispatcher.SubmitGenerate("a red barn")
	if err != nil {
		t.Fatalf("SubmitGenerate: %v", err)
	}
	var lastProgress, previous int
	for value := range handle.Progress() {
		if value < previous {
			t.Fatalf("progress went backwards: %d after %d", value, previous)
		}
		previous = value
		lastProgress = value
	}
	result := handle.Wait()
	if result.Failed() {
		t.Fatalf("unexpected failure: %v", result.Err)
	}
	if lastProgress != ProgressDone {
		t.Fatalf("got terminal progress %d; want %d", lastProgress, ProgressDone)
	}
	if result.Image == nil || result.Image.Bitmap() == nil {
		t.Fatal("expected a decoded image in the result")
	}
	state := dispatcher.State()
	if !state.HasImage || !state.CanSave || !state.CanRegenerate || state.Busy {
		t.Fatalf("unexpected state after success: %+v", state)
	}
	if state.LastPrompt != "a red barn" {
		t.Fatalf("got last prompt %q; want %q", state.LastPrompt, "a red barn")
	}
}

func TestGenerateFailureWhenBackendReturnsNoImage(t *testing.T) {
	model := &stubImageModel{generateErr: errors.New("no image found in API response")}
	dispatcher, _ := newTestDispatcher(t, model)
	handle, err := dispatcher.SubmitGenerate("a red barn")
	if err != nil {
		t.Fatalf("SubmitGenerate: %v", err)
	}
	result := handle.Wait()
	if !result.Failed() {
		t.Fatal("expected a failure result")
	}
	if result.Image != nil || result.Description != "" {
		t.Fatal("a failure result must not carry a payload")
	}
	state := dispatcher.State()
	if state.Busy || state.HasImage || state.CanSave {
		t.Fatalf("unexpected state after failure: %+v", state)
	}
	// The prompt was validated, so regenerate stays available.
	if !state.CanRegenerate {
		t.Fatal("regenerate must stay available after a failed generation")
	}
}

func TestGenerateFailureOnUndecodableImage(t *testing.T) {
	model := &stubImageModel{image: NewImage([]byte("not an image"), MIMETypePNG)}
	dispatcher, _ := newTestDispatcher(t, model)
	handle, err := dispatcher.SubmitGenerate("a red barn")
	if err != nil {
		t.Fatalf("SubmitGenerate: %v", err)
	}
	result := handle.Wait()
	if !result.Failed() {
		t.Fatal("expected a failure result for undecodable bytes")
	}
	if dispatcher.State().HasImage {
		t.Fatal("an undecodable image must not become the current image")
	}
}

func TestRegenerateReusesLastPrompt(t *testing.T) {
	model := &stubImageModel{image: NewImage(encodedPNG(t), MIMETypePNG)}
	dispatcher, _ := newTestDispatcher(t, model)
	handle, err := dispatcher.SubmitGenerate("a red barn")
	if err != nil {
		t.Fatalf("SubmitGenerate: %v", err)
	}
	handle.Wait()
	handle, err = dispatcher.SubmitRegenerate()
	if err != nil {
		t.Fatalf("SubmitRegenerate: %v", err)
	}
	handle.Wait()
	request := model.lastRequest()
	if request == nil || request.Prompt != "a red barn" {
		t.Fatalf("regenerate dispatched %+v; want the previous prompt", request)
	}
}

func TestOverlappingSubmissionsAreRejected(t *testing.T) {
	release := make(chan struct{})
	model := &blockingImageModel{release: release, image: NewImage(encodedPNG(t), MIMETypePNG)}
	dispatcher, _ := newTestDispatcher(t, model)
	handle, err := dispatcher.SubmitGenerate("first")
	if err != nil {
		t.Fatalf("SubmitGenerate: %v", err)
	}
	_, err = dispatcher.SubmitGenerate("second")
	if !errors.Is(err, ErrRequestInProgress) {
		t.Fatalf("got %v; want %v", err, ErrRequestInProgress)
	}
	close(release)
	handle.Wait()
	if _, err := dispatcher.SubmitGenerate("third"); err != nil {
		t.Fatalf("submission after completion must succeed, got %v", err)
	}
}

type blockingImageModel struct {
	release chan struct{}
	image   *Image
}

func (b *blockingImageModel) Name() string { return "blocking" }

func (b *blockingImageModel) RequiresAPIKey() bool { return false }

func (b *blockingImageModel) GenerateImage(ctx context.Context, request *Request) (*Image, error) {
	<-b.release
	return b.image, nil
}

func (b *blockingImageModel) DescribeImage(ctx context.Context, request *Request, image *Image) (string, error) {
	<-b.release
	return "", nil
}

func TestRecognizeInfersMIMETypeFromExtension(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
	}{
		{"photo.JPG", MIMETypeJPEG},
		{"photo.jpeg", MIMETypeJPEG},
		{"photo.png", MIMETypePNG},
		{"photo.bmp", MIMETypePNG},
	}
	for _, test := range tests {
		model := &stubImageModel{description: "a red barn"}
		dispatcher, _ := newTestDispatcher(t, model)
		imagePath := filepath.Join(t.TempDir(), test.fileName)
		if err := os.WriteFile(imagePath, []byte("bytes"), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", test.fileName, err)
		}
		handle, err := dispatcher.SubmitRecognize(imagePath)
		if err != nil {
			t.Fatalf("SubmitRecognize(%s): %v", test.fileName, err)
		}
		if result := handle.Wait(); result.Failed() {
			t.Fatalf("unexpected failure for %s: %v", test.fileName, result.Err)
		}
		if model.seenImage.MIMEType != test.want {
			t.Fatalf("%s: got MIME type %q; want %q", test.fileName, model.seenImage.MIMEType, test.want)
		}
	}
}

func TestRecognizeStoresDescriptionAndDefaultsInstruction(t *testing.T) {
	model := &stubImageModel{description: "a red barn"}
	dispatcher, preferencesService := newTestDispatcher(t, model)
	preferencesService.SetRecognitionPrompt("   ")
	imagePath := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(imagePath, []byte("bytes"), 0600); err != nil {
		t.Fatalf("failed to write the image: %v", err)
	}
	handle, err := dispatcher.SubmitRecognize(imagePath)
	if err != nil {
		t.Fatalf("SubmitRecognize: %v", err)
	}
	if result := handle.Wait(); result.Failed() {
		t.Fatalf("unexpected failure: %v", result.Err)
	}
	if request := model.lastRequest(); request.Instruction != DefaultRecognitionInstruction {
		t.Fatalf("got instruction %q; want the default", request.Instruction)
	}
	state := dispatcher.State()
	if state.Description != "a red barn" || !state.CanUseContext {
		t.Fatalf("unexpected state after recognition: %+v", state)
	}
}

func TestUseContext(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t, &stubImageModel{})
	if _, err := dispatcher.UseContext("cat"); !errors.Is(err, ErrNoDescription) {
		t.Fatalf("got %v; want %v", err, ErrNoDescription)
	}
	dispatcher.SetDescription("a red barn")
	composed, err := dispatcher.UseContext("")
	if err != nil {
		t.Fatalf("UseContext: %v", err)
	}
	if composed != "a red barn" {
		t.Fatalf("got %q; want %q", composed, "a red barn")
	}
	composed, err = dispatcher.UseContext("cat")
	if err != nil {
		t.Fatalf("UseContext: %v", err)
	}
	if composed != "cat\n\nBased on: a red barn" {
		t.Fatalf("got %q; want %q", composed, "cat\n\nBased on: a red barn")
	}
}

func TestResetClearsState(t *testing.T) {
	model := &stubImageModel{image: NewImage(encodedPNG(t), MIMETypePNG)}
	dispatcher, _ := newTestDispatcher(t, model)
	handle, err := dispatcher.SubmitGenerate("a red barn")
	if err != nil {
		t.Fatalf("SubmitGenerate: %v", err)
	}
	handle.Wait()
	dispatcher.SetDescription("a red barn")
	dispatcher.Reset()
	state := dispatcher.State()
	if state.HasImage || state.LastPrompt != "" || state.Description != "" {
		t.Fatalf("unexpected state after reset: %+v", state)
	}
	if state.CanSave || state.CanRegenerate || state.CanUseContext {
		t.Fatalf("actions must be disabled after reset: %+v", state)
	}
	if err := dispatcher.SaveImage(filepath.Join(t.TempDir(), "out.png")); !errors.Is(err, ErrNoImage) {
		t.Fatalf("got %v; want %v", err, ErrNoImage)
	}
}

func TestResetOrphansInFlightRequest(t *testing.T) {
	release := make(chan struct{})
	model := &blockingImageModel{release: release, image: NewImage(encodedPNG(t), MIMETypePNG)}
	dispatcher, _ := newTestDispatcher(t, model)
	handle, err := dispatcher.SubmitGenerate("a red barn")
	if err != nil {
		t.Fatalf("SubmitGenerate: %v", err)
	}
	dispatcher.Reset()
	close(release)
	result := handle.Wait()
	// The orphaned request still resolves its own handle...
	if result.Failed() || result.Image == nil {
		t.Fatalf("the orphaned handle must still carry the result, got %+v", result)
	}
	// ...but no longer mutates dispatcher state.
	if dispatcher.State().HasImage {
		t.Fatal("an orphaned request must not become the current image")
	}
}

func TestSaveImageWritesCurrentImage(t *testing.T) {
	model := &stubImageModel{image: NewImage(encodedPNG(t), MIMETypePNG)}
	dispatcher, _ := newTestDispatcher(t, model)
	handle, err := dispatcher.SubmitGenerate("a red barn")
	if err != nil {
		t.Fatalf("SubmitGenerate: %v", err)
	}
	handle.Wait()
	outPath := filepath.Join(t.TempDir(), "out.png")
	if err := dispatcher.SaveImage(outPath); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	saved, err := LoadImage(outPath)
	if err != nil {
		t.Fatalf("failed to read the saved image: %v", err)
	}
	if err := saved.Decode(); err != nil {
		t.Fatalf("the saved image must decode: %v", err)
	}
}
