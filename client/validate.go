package client

import (
	"errors"
	"strings"
)

var (
	ErrInvalidFileKind = errors.New("file must be a PDF")
	ErrFileTooLarge    = errors.New("file exceeds the 10MB limit")
)

// MaxPDFBytes is the client-side upload cap, tighter than the server's
// transport limit.
const MaxPDFBytes = 10 << 20

// ValidatePDF applies the pre-upload checks so an obviously bad file never
// costs the user a trial or a network round trip.
func ValidatePDF(filename, mimeType string, size int64) error {
	if mimeType != "application/pdf" && !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return ErrInvalidFileKind
	}
	if size > MaxPDFBytes {
		return ErrFileTooLarge
	}
	return nil
}
