// Package student holds the student records screen: the remote record model,
// the entry form and the workflow driving list, create, edit and delete.
package student

import (
	"context"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
)

// Notification texts
const (
	MsgFetchFailed   = "Failed to fetch students. Ensure the backend is running."
	MsgCreated       = "Student created successfully"
	MsgUpdated       = "Student updated successfully"
	MsgDeleted       = "Student deleted successfully"
	MsgCreateFailed  = "Failed to create student"
	MsgUpdateFailed  = "Failed to update student"
	MsgDeleteFailed  = "Failed to delete student"
	DeleteConfirmMsg = "Are you sure you want to delete this student?"
)

// Confirmer asks the operator to confirm a destructive action.
type Confirmer func(prompt string) bool

// Workflow drives the student records screen.
// Every mutation that succeeds is followed by a full re-fetch of the list.
type Workflow struct {
	client     Client
	notifier   core.Notifier
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator

	mu          sync.Mutex
	records     []Record
	loading     bool
	formOpen    bool
	editing     *Record
	busy        bool
	fieldErrors []core.FieldError
}

func NewWorkflow(client Client, notifier core.Notifier, logger core.Logger) (*Workflow, error) {
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(client, "client"),
		vala.IsNotNil(notifier, "notifier"),
		vala.IsNotNil(logger, "logger"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "student workflow")
	}

	translator := core.NewTranslator()
	return &Workflow{
		client:     client,
		notifier:   notifier,
		logger:     logger,
		validate:   core.NewValidate(translator),
		translator: translator,
		records:    make([]Record, 0),
	}, nil
}

// FetchAll replaces the local list with the remote one.
// On failure the previous list is kept and the operator is notified.
func (w *Workflow) FetchAll(ctx context.Context) bool {
	w.mu.Lock()
	w.loading = true
	w.mu.Unlock()

	records, err := w.client.List(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false
	if err != nil {
		w.logger.Error("fetching students", err)
		core.NotifyError(w.notifier, MsgFetchFailed)
		return false
	}
	if records == nil {
		records = make([]Record, 0)
	}
	w.records = records
	return true
}

// Records returns a copy of the current list, in server order.
func (w *Workflow) Records() []Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append(make([]Record, 0, len(w.records)), w.records...)
}

func (w *Workflow) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

// Find returns the record with id from the current list.
func (w *Workflow) Find(id ID) (Record, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, rec := range w.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return Record{}, false
}

// OpenCreate opens an empty form; the next Submit creates a record.
func (w *Workflow) OpenCreate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.formOpen = true
	w.editing = nil
	w.fieldErrors = nil
}

// OpenEdit opens the form on rec; the next Submit updates it.
func (w *Workflow) OpenEdit(rec Record) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.formOpen = true
	w.editing = &rec
	w.fieldErrors = nil
}

func (w *Workflow) CloseForm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.formOpen = false
	w.editing = nil
	w.fieldErrors = nil
}

func (w *Workflow) FormOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.formOpen
}

// Editing returns the record being edited, if the form was opened with OpenEdit.
func (w *Workflow) Editing() (Record, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.editing == nil {
		return Record{}, false
	}
	return *w.editing, true
}

func (w *Workflow) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// FieldErrors returns the inline errors of the last rejected Submit.
func (w *Workflow) FieldErrors() []core.FieldError {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]core.FieldError(nil), w.fieldErrors...)
}

// Submit creates or updates a record depending on whether OpenEdit was called.
// Invalid forms are rejected without a remote call and their errors exposed by FieldErrors.
// A Submit issued while another mutation is in flight is ignored.
func (w *Workflow) Submit(ctx context.Context, form Form) bool {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		w.logger.Debug("student submit ignored: another request is in flight")
		return false
	}
	payload, err := form.Payload(w.validate, w.translator)
	if err != nil {
		var vErr *core.ValidationError
		if errors.As(err, &vErr) {
			w.fieldErrors = vErr.Fields
		}
		w.mu.Unlock()
		return false
	}
	w.busy = true
	w.fieldErrors = nil
	editing := w.editing
	w.mu.Unlock()

	if editing != nil {
		_, err = w.client.Update(ctx, editing.ID, payload)
	} else {
		_, err = w.client.Create(ctx, payload)
	}

	w.mu.Lock()
	w.busy = false
	if err != nil {
		w.mu.Unlock()
		w.logger.Error("saving student", err)
		if editing != nil {
			core.NotifyError(w.notifier, MsgUpdateFailed)
		} else {
			core.NotifyError(w.notifier, MsgCreateFailed)
		}
		return false
	}
	w.formOpen = false
	w.editing = nil
	w.mu.Unlock()

	if editing != nil {
		core.NotifySuccess(w.notifier, MsgUpdated)
	} else {
		core.NotifySuccess(w.notifier, MsgCreated)
	}
	w.FetchAll(ctx)
	return true
}

// Delete removes the record with id once confirm accepts DeleteConfirmMsg.
// Without confirmation no remote call is made.
func (w *Workflow) Delete(ctx context.Context, id ID, confirm Confirmer) bool {
	if confirm == nil || !confirm(DeleteConfirmMsg) {
		return false
	}

	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		w.logger.Debug("student delete ignored: another request is in flight")
		return false
	}
	w.busy = true
	w.mu.Unlock()

	err := w.client.Delete(ctx, id)

	w.mu.Lock()
	w.busy = false
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("deleting student", err)
		core.NotifyError(w.notifier, MsgDeleteFailed)
		return false
	}
	core.NotifySuccess(w.notifier, MsgDeleted)
	w.FetchAll(ctx)
	return true
}
