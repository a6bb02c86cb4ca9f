package document

import (
	"context"
	"sync"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
)

type Status int

const (
	StatusIdle Status = iota
	StatusSelected
	StatusProcessing
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSelected:
		return "selected"
	case StatusProcessing:
		return "processing"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Processor sends the selected file to the remote side.
type Processor[R any] func(ctx context.Context, f File) (R, error)

// Texts are the notifications emitted on completion.
type Texts struct {
	Success string
	Failure string
}

// Task is a snapshot of a Workflow.
type Task[R any] struct {
	Status    Status
	File      *File
	Preview   PreviewRef
	Result    R
	HasResult bool
	Error     string
}

// Workflow drives one upload screen: idle -> selected -> processing -> succeeded | failed.
// Exactly one preview reference is held while a file is selected; it is released on the
// next selection, on Clear and on Close. At most one submission is in flight.
type Workflow[R any] struct {
	process  Processor[R]
	pool     PreviewPool
	notifier core.Notifier
	logger   core.Logger
	texts    Texts

	mu        sync.Mutex
	status    Status
	file      *File
	preview   PreviewRef
	result    R
	hasResult bool
	errMsg    string
	closed    bool
}

func NewWorkflow[R any](process Processor[R], pool PreviewPool, notifier core.Notifier, logger core.Logger, texts Texts) (*Workflow[R], error) {
	if process == nil {
		return nil, errors.New("upload workflow: process is nil")
	}
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(pool, "pool"),
		vala.IsNotNil(notifier, "notifier"),
		vala.IsNotNil(logger, "logger"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "upload workflow")
	}
	return &Workflow[R]{process: process, pool: pool, notifier: notifier, logger: logger, texts: texts}, nil
}

// NewExtractionWorkflow builds the identity card extraction screen.
func NewExtractionWorkflow(ex Extractor, pool PreviewPool, notifier core.Notifier, logger core.Logger) (*Workflow[ExtractedFields], error) {
	if ex == nil {
		return nil, errors.New("upload workflow: extractor is nil")
	}
	return NewWorkflow[ExtractedFields](ex.Extract, pool, notifier, logger, Texts{
		Success: MsgExtractionSucceeded,
		Failure: MsgExtractionFailed,
	})
}

// NewBackgroundWorkflow builds the background removal screen.
func NewBackgroundWorkflow(br BackgroundRemover, pool PreviewPool, notifier core.Notifier, logger core.Logger) (*Workflow[Image], error) {
	if br == nil {
		return nil, errors.New("upload workflow: background remover is nil")
	}
	return NewWorkflow[Image](br.RemoveBackground, pool, notifier, logger, Texts{
		Success: MsgRemovalSucceeded,
		Failure: MsgRemovalFailed,
	})
}

// Select makes f the current file, dropping any previous preview and result.
// It is ignored while a submission is processing.
func (w *Workflow[R]) Select(f File) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false, errors.New("upload workflow is closed")
	}
	if w.status == StatusProcessing {
		w.logger.Debug("file selection ignored while processing")
		return false, nil
	}

	ref, err := w.pool.Acquire(f)
	if err != nil {
		return false, errors.Wrap(err, "acquiring preview")
	}
	w.releasePreview()

	w.file = &f
	w.preview = ref
	w.resetOutcome()
	w.status = StatusSelected
	return true, nil
}

// Submit processes the selected file. Without a file the operator is notified and nothing is sent.
func (w *Workflow[R]) Submit(ctx context.Context) bool {
	w.mu.Lock()
	if w.file == nil {
		w.mu.Unlock()
		core.NotifyError(w.notifier, MsgNoFile)
		return false
	}
	if w.status == StatusProcessing {
		w.mu.Unlock()
		w.logger.Debug("submit ignored: already processing")
		return false
	}
	w.status = StatusProcessing
	file := *w.file
	w.mu.Unlock()

	result, err := w.process(ctx, file)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.logger.Error("processing "+file.Name, err)
		w.status = StatusFailed
		w.errMsg = w.texts.Failure
		core.NotifyError(w.notifier, w.texts.Failure)
		return false
	}
	w.status = StatusSucceeded
	w.result = result
	w.hasResult = true
	w.errMsg = ""
	core.NotifySuccess(w.notifier, w.texts.Success)
	return true
}

// Clear drops the file, its preview and any outcome. It is ignored while processing.
func (w *Workflow[R]) Clear() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == StatusProcessing {
		return false
	}
	w.releasePreview()
	w.file = nil
	w.resetOutcome()
	w.status = StatusIdle
	return true
}

// Close releases the held preview. The workflow accepts no new selection afterwards.
func (w *Workflow[R]) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.releasePreview()
	w.closed = true
}

func (w *Workflow[R]) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Result returns the outcome of the last successful submission for the current file.
func (w *Workflow[R]) Result() (R, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result, w.hasResult
}

func (w *Workflow[R]) Snapshot() Task[R] {
	w.mu.Lock()
	defer w.mu.Unlock()
	task := Task[R]{
		Status:    w.status,
		Preview:   w.preview,
		Result:    w.result,
		HasResult: w.hasResult,
		Error:     w.errMsg,
	}
	if w.file != nil {
		f := *w.file
		task.File = &f
	}
	return task
}

func (w *Workflow[R]) releasePreview() {
	if w.preview != "" {
		w.pool.Release(w.preview)
		w.preview = ""
	}
}

func (w *Workflow[R]) resetOutcome() {
	var zero R
	w.result = zero
	w.hasResult = false
	w.errMsg = ""
}
