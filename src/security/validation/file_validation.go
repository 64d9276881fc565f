package validation

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/username/compartmentdesk/backend/src/logger"
)

// allowedClientContentTypes are the declared types accepted for a blotter upload.
var allowedClientContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true,
	"text/plain":               true,
	"application/octet-stream": true,
}

// ValidateClientContentType checks the Content-Type declared for the uploaded part.
func ValidateClientContentType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if ct == "" || allowedClientContentTypes[ct] {
		return nil
	}
	logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
	return fmt.Errorf("%w: file type '%s' is not allowed for CSV upload", ErrValidationFailed, contentType)
}

func isBinaryContent(buf []byte) bool {
	return bytes.IndexByte(buf, 0) != -1 || !utf8.Valid(buf)
}

// ValidateCSVContent sniffs the first KiB of file and rewinds it. Binary or
// non-text content is rejected.
func ValidateCSVContent(file io.ReadSeeker) error {
	if file == nil {
		return fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	buffer := make([]byte, 1024)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("read file for content checking: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("reset file read pointer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: file is empty", ErrValidationFailed)
	}

	// A multi-byte rune may be split at the buffer end.
	sample := buffer[:n]
	if n == len(buffer) {
		for i := 0; i < utf8.UTFMax && !utf8.Valid(sample); i++ {
			sample = sample[:len(sample)-1]
		}
	}
	if isBinaryContent(sample) {
		logger.L.Warn("File rejected: binary content detected in CSV upload")
		return fmt.Errorf("%w: file appears to be binary, not CSV", ErrValidationFailed)
	}

	detected := strings.ToLower(strings.Split(http.DetectContentType(sample), ";")[0])
	if detected != "text/plain" && detected != "text/csv" {
		logger.L.Warn("Disallowed detected file content type", "detectedContentType", detected)
		return fmt.Errorf("%w: detected file content type '%s' is not allowed", ErrValidationFailed, detected)
	}
	return nil
}
