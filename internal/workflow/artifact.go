package workflow

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/qrgen/internal/generation"
)

// ContentTypePDF is the media type of every generated artifact.
const ContentTypePDF = "application/pdf"

// Artifact is a generated PDF held in memory. It is a scoped resource:
// Release drops the bytes and removes any preview file, after which Bytes
// and Preview return ErrReleased.
type Artifact struct {
	ID          uuid.UUID
	RequestID   string
	Filename    string
	ContentType string
	Size        int64
	PageCount   *int
	CreatedAt   time.Time

	mu       sync.Mutex
	data     []byte
	spoolDir string
	preview  string
	released bool
}

func newArtifact(resp *generation.Response, spoolDir string, logger *slog.Logger) *Artifact {
	return &Artifact{
		ID:          uuid.New(),
		RequestID:   resp.RequestID,
		Filename:    ResolveFilename(resp.Disposition),
		ContentType: ContentTypePDF,
		Size:        int64(len(resp.Data)),
		PageCount:   pageCount(logger, resp.Data),
		CreatedAt:   time.Now(),
		data:        resp.Data,
		spoolDir:    spoolDir,
	}
}

// Bytes returns the PDF content. The slice is shared and must not be modified.
func (a *Artifact) Bytes() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return nil, ErrReleased
	}
	return a.data, nil
}

// Preview writes the PDF to a spool file on first use and returns its path.
// The file lives until Release.
func (a *Artifact) Preview() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return "", ErrReleased
	}
	if a.preview != "" {
		return a.preview, nil
	}

	dir, err := os.MkdirTemp(a.spoolDir, "qrgen-"+a.ID.String()+"-")
	if err != nil {
		return "", fmt.Errorf("create preview dir: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(a.Filename))
	if err := os.WriteFile(path, a.data, 0o600); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("write preview: %w", err)
	}

	a.preview = path
	return path, nil
}

// Release frees the artifact. Calling it more than once is a no-op.
func (a *Artifact) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return nil
	}
	a.released = true
	a.data = nil

	if a.preview == "" {
		return nil
	}

	dir := filepath.Dir(a.preview)
	a.preview = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove preview: %w", err)
	}
	return nil
}

// Released reports whether Release has been called.
func (a *Artifact) Released() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}

func pageCount(logger *slog.Logger, data []byte) (n *int) {
	// pdfcpu can panic on malformed input from the service.
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("failed to read PDF page count", "error", r)
			n = nil
		}
	}()

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to read PDF page count", "error", err)
		return nil
	}
	return &count
}
