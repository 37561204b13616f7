// Package infrastructure assembles the systems a qrgen command depends on:
// logging, lifecycle coordination, the generation client, and the artifact
// sink (with Azure Blob Storage behind it when configured).
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/JaimeStill/qrgen/internal/config"
	"github.com/JaimeStill/qrgen/internal/generation"
	"github.com/JaimeStill/qrgen/internal/sink"
	"github.com/JaimeStill/qrgen/internal/workflow"
	"github.com/JaimeStill/qrgen/pkg/lifecycle"
	"github.com/JaimeStill/qrgen/pkg/storage"
)

// Infrastructure holds the systems shared by every command.
// Storage is nil unless the output sink is azure.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Generator generation.Client
	Sink      workflow.Sink
	Storage   storage.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
// A nil httpClient uses a client bounded by the service timeout.
func New(ctx context.Context, cfg *config.Config, httpClient *http.Client) (*Infrastructure, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	lc := lifecycle.New(ctx, logger)

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Generator: generation.New(&cfg.Service, httpClient, logger),
	}

	switch cfg.Output.Kind {
	case sink.KindAzure:
		store, err := storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
		infra.Sink = sink.NewBlob(store, cfg.Output.Prefix, logger)
	default:
		infra.Sink = sink.NewLocal(cfg.Output.Dir, logger)
	}

	return infra, nil
}

// Start registers startup hooks and blocks until they complete.
func (i *Infrastructure) Start() error {
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	i.Lifecycle.WaitForStartup()
	return nil
}
