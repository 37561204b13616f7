package workflow

import (
	"errors"

	"github.com/JaimeStill/qrgen/internal/generation"
)

// Sentinel errors for workflow operations.
var (
	ErrNoFileSelected = errors.New("no file selected")
	ErrNoArtifact     = errors.New("no artifact generated")
	ErrClosed         = errors.New("workflow closed")
	ErrReleased       = errors.New("artifact released")
)

// User-facing status messages.
const (
	MessageSelectFile = "Please select a CSV file."
	MessageGenerating = "Generating QR Codes..."
	MessageGenerated  = "QR Codes generated successfully!"
	MessageRetry      = "Error generating QR Codes. Please try again."
	MessageDownloaded = "PDF downloaded successfully!"
	MessageNoArtifact = "No PDF available for download."
	MessageSaveFailed = "Error saving PDF. Please try again."
)

// StatusFor maps an operation error to the status message shown to the user.
// A service-supplied message is surfaced verbatim.
func StatusFor(err error) string {
	var svcErr *generation.ServiceError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoFileSelected):
		return MessageSelectFile
	case errors.Is(err, ErrNoArtifact):
		return MessageNoArtifact
	case errors.As(err, &svcErr):
		return "Error: " + svcErr.Message
	default:
		return MessageRetry
	}
}
