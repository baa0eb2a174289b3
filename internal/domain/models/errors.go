package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates an entry id that is not in the collection.
	ErrNotFound = errors.New("entry not found")
	// ErrExport indicates the export sink rejected the list.
	ErrExport = errors.New("export failed")
	// ErrEditInProgress is returned for actions suspended while an entry is being edited.
	ErrEditInProgress = errors.New("an entry is being edited")
	// ErrNotEditing is returned when cancelling an edit that was never started.
	ErrNotEditing = errors.New("no entry is being edited")
	// ErrNoPendingDelete is returned when confirming or cancelling without a delete request.
	ErrNoPendingDelete = errors.New("no deletion awaiting confirmation")
	// ErrNothingToUndo is returned once the undo window has closed.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrUnknownSortKey is returned for unsupported sort keys.
	ErrUnknownSortKey = errors.New("unknown sort key")
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidAttachment is returned for oversized or non-image attachments.
	ErrInvalidAttachment = errors.New("invalid attachment")
)

// Field names an input field of the entry form.
type Field string

const (
	FieldName   Field = "name"
	FieldVolume Field = "volume"
	FieldPrice  Field = "price"
)

// Problem describes why a field was rejected.
type Problem string

const (
	ProblemMissing     Problem = "is required"
	ProblemNotNumber   Problem = "must be a number"
	ProblemNotPositive Problem = "must be greater than zero"
)

// FieldProblem pairs a rejected field with the reason.
type FieldProblem struct {
	Field   Field   `json:"field"`
	Problem Problem `json:"problem"`
}

// ValidationError lists every problem found in a submitted form.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s %s", p.Field, p.Problem))
	}
	return "invalid entry: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ErrorCode is the error enum exposed at the input-surface boundary.
type ErrorCode string

const (
	CodeOK         ErrorCode = ""
	CodeValidation ErrorCode = "validation"
	CodeNotFound   ErrorCode = "not_found"
	CodeConflict   ErrorCode = "conflict"
	CodeExport     ErrorCode = "export"
	CodeInternal   ErrorCode = "internal"
)

// CodeOf classifies err into the boundary enum.
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnknownSortKey),
		errors.Is(err, ErrInvalidAttachment):
		return CodeValidation
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSessionNotFound):
		return CodeNotFound
	case errors.Is(err, ErrEditInProgress),
		errors.Is(err, ErrNotEditing),
		errors.Is(err, ErrNoPendingDelete),
		errors.Is(err, ErrNothingToUndo):
		return CodeConflict
	case errors.Is(err, ErrExport):
		return CodeExport
	default:
		return CodeInternal
	}
}
