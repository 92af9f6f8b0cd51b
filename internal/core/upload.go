package core

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// MaxFileSize is the default upload size cap in bytes.
var MaxFileSize int64 = 10 * 1024 * 1024

var (
	// ErrNoFile is returned when an upload request carries no file part.
	ErrNoFile = errors.New("no file provided")

	// ErrNotCSV is returned for uploads whose name lacks a .csv extension.
	ErrNotCSV = errors.New("only .csv files are accepted")
)

// FileTooLargeError reports an upload above the configured size cap.
type FileTooLargeError struct {
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: limit is %d bytes", e.Limit)
}

// CheckUploadName rejects empty names and names without a .csv extension.
// The check is case-insensitive.
func CheckUploadName(filename string) error {
	name := strings.TrimSpace(filename)
	if name == "" {
		return ErrNoFile
	}
	if !strings.EqualFold(path.Ext(name), ".csv") {
		return ErrNotCSV
	}
	return nil
}

// UploadName reduces a client-supplied filename to its base name.
// Browsers on Windows may send a full path with backslashes.
func UploadName(filename string) string {
	name := strings.ReplaceAll(filename, `\`, "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
