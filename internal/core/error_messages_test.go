package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/JonMunkholm/equipreport/internal/equipment"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil", nil, ""},
		{"missing columns", &equipment.ValidationError{Reason: equipment.ReasonMissingColumns, Columns: []string{"Pressure"}}, "VAL001"},
		{"no valid rows", &equipment.ValidationError{Reason: equipment.ReasonNoValidRows}, "VAL002"},
		{"empty", &equipment.ValidationError{Reason: equipment.ReasonEmpty}, "VAL003"},
		{"duplicate", &equipment.ValidationError{Reason: equipment.ReasonDuplicateColumns, Columns: []string{"Type"}}, "VAL004"},
		{"malformed", &equipment.ValidationError{Reason: equipment.ReasonMalformed, Err: errors.New("bare quote")}, "VAL005"},
		{"not found", equipment.ErrNotFound, "NF001"},
		{"wrapped not found", fmt.Errorf("get: %w", equipment.ErrNotFound), "NF001"},
		{"storage", &equipment.StorageError{Op: "read", Err: errors.New("eio")}, "STO001"},
		{"render", &equipment.RenderError{Err: errors.New("font")}, "RND001"},
		{"busy", ErrTooManyUploads, "UPL002"},
		{"cancelled", context.Canceled, "UPL004"},
		{"timeout", fmt.Errorf("ingest: %w", context.DeadlineExceeded), "UPL005"},
		{"too large", &FileTooLargeError{Limit: 10 << 20}, "FILE001"},
		{"not csv", ErrNotCSV, "FILE002"},
		{"no file", ErrNoFile, "FILE004"},
		{"unknown", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
			if tt.err != nil && (got.Message == "" || got.Action == "") {
				t.Errorf("MapError(%v) has empty message or action: %+v", tt.err, got)
			}
		})
	}
}

func TestMapError_ValidationKeepsDetail(t *testing.T) {
	err := &equipment.ValidationError{Reason: equipment.ReasonMissingColumns, Columns: []string{"Pressure", "Temperature"}}

	got := MapError(err)
	want := "Missing required columns: Pressure, Temperature"
	if got.Message != want {
		t.Errorf("Message = %q, want %q", got.Message, want)
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	got := FormatUserError(equipment.ErrNotFound)
	if !strings.Contains(got, "(Code: NF001)") {
		t.Errorf("FormatUserError = %q, missing code", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true")
	}
	if IsUserFacing(errors.New("raw")) {
		t.Error("IsUserFacing(raw error) = true")
	}
	if !IsUserFacing(ErrTooManyUploads) {
		t.Error("IsUserFacing(ErrTooManyUploads) = false")
	}
}

func TestMapError_FileTooLargeNamesLimit(t *testing.T) {
	got := MapError(&FileTooLargeError{Limit: 10 << 20})
	if !strings.Contains(got.Message, "(10 MB)") {
		t.Errorf("Message = %q, want limit in MB", got.Message)
	}
}
