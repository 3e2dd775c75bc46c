package session

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-modelform/pkg/form"
)

var (
	// ErrSubmitInFlight rejects a submit while another is pending.
	ErrSubmitInFlight = errors.New("modelform/session: submit already in flight")
	// ErrNoMutator is returned when neither a Mutator nor an OverrideSubmit
	// is configured.
	ErrNoMutator = errors.New("modelform/session: no mutator configured")
	// ErrNoQuerier is returned by Load when no Querier is configured.
	ErrNoQuerier = errors.New("modelform/session: no querier configured")
	// ErrNoRecordID is returned when an update session has no identifier.
	ErrNoRecordID = errors.New("modelform/session: update session requires an id")
)

// SubmitError wraps a rejection from the mutation boundary. The form keeps its
// unsaved edits so the submit can be retried.
type SubmitError struct {
	Model string
	Mode  form.Mode
	Err   error
}

func (e *SubmitError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("modelform/session: %s %s failed: %v", e.Mode, e.Model, e.Err)
}

func (e *SubmitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
