package core

// streaming.go wraps upload readers so the CSV parser always sees clean UTF-8:
//
//   - A UTF-8 BOM (common from Excel on Windows) is stripped
//   - UTF-16 input announced by a BOM is transcoded
//   - Invalid UTF-8 sequences are replaced with U+FFFD
//
// Nothing is buffered beyond the transformer's window, so memory use does not
// grow with file size.

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewUploadReader returns r decoded to sanitized UTF-8.
func NewUploadReader(r io.Reader) io.Reader {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return transform.NewReader(r, decoder)
}

// CountingReader wraps an io.Reader to track bytes read.
// Used to log upload sizes without buffering the body.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}
