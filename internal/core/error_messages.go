package core

// # Error Codes Reference
//
// User-facing errors carry a code support staff can look up.
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Missing columns: required columns are absent from the CSV
//	         Action: Include Equipment Name, Type, Flowrate, Pressure and Temperature
//	VAL002 - No valid rows: every row had a non-numeric measurement
//	         Action: Check Flowrate, Pressure and Temperature values are numbers
//	VAL003 - Empty file: no data rows after the header
//	VAL004 - Duplicate columns: a required column appears more than once
//	VAL005 - Invalid CSV: the file could not be parsed
//
// # Lookup and Storage Errors
//
//	NF001  - Dataset not found (missing, evicted, or not yours)
//	STO001 - Storage failure reading or deleting a dataset payload
//	RND001 - Report could not be assembled
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File exceeds the upload size limit
//	FILE002 - File is not a .csv
//	FILE004 - No file was selected
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: too many uploads in progress
//	UPL004 - Request was cancelled
//	UPL005 - Request timed out
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the technical error.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/equipreport/internal/equipment"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var validationMessages = map[equipment.ValidationReason]UserMessage{
	equipment.ReasonMissingColumns: {
		Message: "Required columns are missing from the CSV",
		Action:  "Include Equipment Name, Type, Flowrate, Pressure and Temperature columns",
		Code:    "VAL001",
	},
	equipment.ReasonNoValidRows: {
		Message: "No valid data rows found after cleaning",
		Action:  "Check that Flowrate, Pressure and Temperature contain numbers",
		Code:    "VAL002",
	},
	equipment.ReasonEmpty: {
		Message: "The uploaded file is empty",
		Action:  "Please upload a CSV file with data rows",
		Code:    "VAL003",
	},
	equipment.ReasonDuplicateColumns: {
		Message: "A required column appears more than once",
		Action:  "Remove or rename the duplicated column headers",
		Code:    "VAL004",
	},
	equipment.ReasonMalformed: {
		Message: "File is not a valid CSV",
		Action:  "Ensure file is comma-separated with consistent quoting",
		Code:    "VAL005",
	},
}

var (
	notFoundMessage = UserMessage{
		Message: "Dataset not found",
		Action:  "It may have been deleted or replaced by newer uploads",
		Code:    "NF001",
	}
	storageMessage = UserMessage{
		Message: "Dataset storage is unavailable",
		Action:  "Please try again in a few moments",
		Code:    "STO001",
	}
	renderMessage = UserMessage{
		Message: "The report could not be generated",
		Action:  "Please try again or contact support",
		Code:    "RND001",
	}
	busyMessage = UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	cancelledMessage = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	timeoutMessage = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
)

var (
	fileTooLargeMessage = UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	notCSVMessage = UserMessage{
		Message: "Only CSV files are accepted",
		Action:  "Save the sheet as .csv and upload it again",
		Code:    "FILE002",
	}
	noFileMessage = UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file to upload",
		Code:    "FILE004",
	}
)

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
// Validation errors keep their specific reason text (for example the list
// of missing columns) so the user sees exactly what to fix.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ve *equipment.ValidationError
	var se *equipment.StorageError
	var re *equipment.RenderError
	var tooLarge *FileTooLargeError

	switch {
	case errors.As(err, &ve):
		msg, ok := validationMessages[ve.Reason]
		if !ok {
			return defaultMessage
		}
		msg.Message = capitalize(ve.Error())
		return msg
	case errors.As(err, &tooLarge):
		msg := fileTooLargeMessage
		msg.Message = fmt.Sprintf("%s (%d MB)", msg.Message, tooLarge.Limit/(1024*1024))
		return msg
	case errors.Is(err, ErrNotCSV):
		return notCSVMessage
	case errors.Is(err, ErrNoFile):
		return noFileMessage
	case errors.Is(err, equipment.ErrNotFound):
		return notFoundMessage
	case errors.Is(err, ErrTooManyUploads):
		return busyMessage
	case errors.Is(err, context.DeadlineExceeded):
		return timeoutMessage
	case errors.Is(err, context.Canceled):
		return cancelledMessage
	case errors.As(err, &se):
		return storageMessage
	case errors.As(err, &re):
		return renderMessage
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
