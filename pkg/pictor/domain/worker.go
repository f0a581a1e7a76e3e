package domain

import (
	"context"
	"fmt"
	"sync"

	"pictorlab.dev/pictor/pkg/common"
)

// Advisory progress milestones. Consumers must not depend on the exact values, only on
// monotonicity and on a final 100 before a successful terminal result.
const (
	ProgressStarted          = 0
	ProgressRequestSent      = 25
	ProgressResponseReceived = 60
	ProgressDecoded          = 90
	ProgressDone             = 100
)

// Result is the terminal outcome of a Request: exactly one of Image, Description or Err is set.
type Result struct {
	RequestID   string
	Image       *Image
	Description string
	Err         error
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// RequestHandle lets a caller observe one in-flight request without a GUI event loop:
// a channel of advisory progress values plus a single terminal result available via Wait.
type RequestHandle struct {
	request         *Request
	progressChannel chan int
	doneChannel     chan struct{}
	finishOnce      sync.Once
	lastProgress    int
	result          Result
}

func newRequestHandle(request *Request) *RequestHandle {
	return &RequestHandle{
		request:         request,
		progressChannel: make(chan int, 16),
		doneChannel:     make(chan struct{}),
	}
}

func (h *RequestHandle) Request() *Request {
	return h.request
}

// Progress returns the advisory progress channel. It's closed when the request terminates.
func (h *RequestHandle) Progress() <-chan int {
	return h.progressChannel
}

// Wait blocks until the request terminates and returns its result. Safe to call from
// several goroutines; every caller sees the same result.
func (h *RequestHandle) Wait() Result {
	<-h.doneChannel
	return h.result
}

// reportProgress is only ever called from the worker goroutine, so no lock is needed.
// Values below the last reported one are dropped to keep the sequence monotonic.
func (h *RequestHandle) reportProgress(value int) {
	if value < h.lastProgress {
		return
	}
	h.lastProgress = value
	select {
	case h.progressChannel <- value:
	default: // a consumer which ignores progress must not block the worker
	}
}

func (h *RequestHandle) finish(result Result, onTerminal func(Result)) {
	h.finishOnce.Do(func() {
		close(h.progressChannel)
		if onTerminal != nil {
			onTerminal(result)
		}
		h.result = result
		close(h.doneChannel)
	})
}

// Worker performs exactly one blocking remote operation off the caller's goroutine.
// One worker is bound to one request; serializing submissions is the dispatcher's job,
// not the worker's.
type Worker struct {
	model   ImageModel
	request *Request
	logger  common.Logger
}

func NewWorker(model ImageModel, request *Request, logger common.Logger) *Worker {
	return &Worker{
		model:   model,
		request: request,
		logger:  logger,
	}
}

// Run starts the worker goroutine and returns immediately. `onTerminal` (optional) is invoked
// on the worker goroutine before the handle resolves, so a caller blocked in Wait observes any
// state updates made there.
func (w *Worker) Run(onTerminal func(Result)) *RequestHandle {
	handle := newRequestHandle(w.request)
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				w.logger.Log(fmt.Sprintf("panic while processing request %s: %v\n", w.request.ID, recovered))
				handle.finish(Result{RequestID: w.request.ID, Err: fmt.Errorf("internal error: %v", recovered)}, onTerminal)
			}
		}()
		handle.finish(w.process(handle), onTerminal)
	}()
	return handle
}

func (w *Worker) process(handle *RequestHandle) Result {
	ctx := context.Background()
	result := Result{RequestID: w.request.ID}
	handle.reportProgress(ProgressStarted)
	switch w.request.Operation {
	case OperationRecognize:
		image, err := LoadImage(w.request.ImagePath)
		if err != nil {
			result.Err = fmt.Errorf("failed to read the image: %w", err)
			return result
		}
		handle.reportProgress(ProgressRequestSent)
		description, err := w.model.DescribeImage(ctx, w.request, image)
		if err != nil {
			result.Err = err
			return result
		}
		handle.reportProgress(ProgressResponseReceived)
		handle.reportProgress(ProgressDone)
		result.Description = description
	default: // OperationGenerate
		handle.reportProgress(ProgressRequestSent)
		image, err := w.model.GenerateImage(ctx, w.request)
		if err != nil {
			result.Err = err
			return result
		}
		handle.reportProgress(ProgressResponseReceived)
		err = image.Decode()
		if err != nil {
			result.Err = fmt.Errorf("failed to decode the generated image: %w", err)
			return result
		}
		handle.reportProgress(ProgressDecoded)
		handle.reportProgress(ProgressDone)
		result.Image = image
	}
	return result
}
