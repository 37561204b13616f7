package sink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"github.com/JaimeStill/qrgen/pkg/storage"
)

// Blob uploads artifacts to blob storage under prefix/<id>/<name>.
type Blob struct {
	store  storage.System
	prefix string
	logger *slog.Logger
}

// NewBlob creates a Blob sink over store.
func NewBlob(store storage.System, prefix string, logger *slog.Logger) *Blob {
	return &Blob{
		store:  store,
		prefix: prefix,
		logger: logger.With("system", "sink", "sink", KindAzure),
	}
}

// Save uploads r and returns the blob URL. Each call gets a fresh key.
func (b *Blob) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	key := path.Join(b.prefix, uuid.NewString(), sanitizeFilename(name))

	if err := b.store.Upload(ctx, key, r, contentType); err != nil {
		return "", fmt.Errorf("upload artifact: %w", err)
	}

	url := b.store.URL(key)
	b.logger.Info("artifact uploaded", "key", key, "url", url)
	return url, nil
}
