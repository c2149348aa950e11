package dto

import "errors"

// Application-level request errors.
var (
	// ErrEmptyInput is returned when a turn that expects text carries none.
	ErrEmptyInput = errors.New("input text is required for this step")

	// ErrMissingForm is returned when the escalation step receives a turn
	// without form data.
	ErrMissingForm = errors.New("escalation form data is required for this step")

	// ErrUnknownCauseID is returned when a selection names a cause the
	// catalog does not contain.
	ErrUnknownCauseID = errors.New("selection contains unknown cause ID")

	// ErrAmbiguousAnswer is returned when a yes/no step cannot parse the
	// user's reply. The step does not change; the user is re-prompted.
	ErrAmbiguousAnswer = errors.New("answer must be yes or no")
)
