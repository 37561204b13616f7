// Package sink delivers downloaded artifacts to a local directory or to blob storage.
package sink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const fallbackName = "generated.pdf"

// Local writes artifacts into a directory.
type Local struct {
	dir    string
	logger *slog.Logger
}

// NewLocal creates a Local sink rooted at dir.
func NewLocal(dir string, logger *slog.Logger) *Local {
	return &Local{
		dir:    dir,
		logger: logger.With("system", "sink", "sink", KindLocal),
	}
}

// Save writes r to dir/name through a temporary file and rename, so a
// partially written PDF never appears under the final name. An existing
// file is replaced.
func (l *Local) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(l.dir, ".qrgen-*.part")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	path := filepath.Join(l.dir, sanitizeFilename(name))
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename %s: %w", name, err)
	}

	l.logger.Info("artifact written", "path", path, "content_type", contentType)
	return path, nil
}

// sanitizeFilename keeps only the final path element of a service-supplied name.
func sanitizeFilename(name string) string {
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." || name == ".." || name == "" {
		return fallbackName
	}
	return name
}
