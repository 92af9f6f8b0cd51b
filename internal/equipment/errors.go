package equipment

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned for artifacts that do not exist or belong to a
// different owner. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("artifact not found")

// ErrNoRows is returned when summarizing an empty row set. Ingestion never
// produces one, so seeing it means a caller skipped validation.
var ErrNoRows = errors.New("summarize: empty row set")

// ValidationReason identifies why an upload was rejected.
type ValidationReason string

const (
	ReasonEmpty            ValidationReason = "empty"
	ReasonMalformed        ValidationReason = "malformed"
	ReasonMissingColumns   ValidationReason = "missing_columns"
	ReasonDuplicateColumns ValidationReason = "duplicate_columns"
	ReasonNoValidRows      ValidationReason = "no_valid_rows"
)

// ValidationError rejects an upload with a user-presentable reason.
// Columns is set for missing and duplicate column failures.
type ValidationError struct {
	Reason  ValidationReason
	Columns []string
	Err     error
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmpty:
		return "empty file: no data rows found"
	case ReasonMalformed:
		if e.Err != nil {
			return fmt.Sprintf("invalid csv format: %v", e.Err)
		}
		return "invalid csv format"
	case ReasonMissingColumns:
		return "missing required columns: " + strings.Join(e.Columns, ", ")
	case ReasonDuplicateColumns:
		return "duplicate columns: " + strings.Join(e.Columns, ", ")
	case ReasonNoValidRows:
		return "no valid data rows found after cleaning"
	default:
		return "validation failed"
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError with the given reason.
func IsValidation(err error, reason ValidationReason) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Reason == reason
}

// StorageError reports blob or metadata I/O failure on an explicit
// operation. During retention eviction the same failures are warnings.
type StorageError struct {
	Op  string
	Ref string
	Err error
}

func (e *StorageError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("storage %s %s: %v", e.Op, e.Ref, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// RenderError reports that the report document itself could not be
// assembled. Individual chart failures never surface as RenderError.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render report: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
