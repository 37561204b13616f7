package main

import (
	"context"
	"fmt"

	"github.com/JaimeStill/qrgen/internal/config"
	"github.com/JaimeStill/qrgen/internal/infrastructure"
	"github.com/JaimeStill/qrgen/internal/workflow"
)

// app binds the infrastructure to a workflow for one command invocation.
type app struct {
	cfg      *config.Config
	infra    *infrastructure.Infrastructure
	workflow *workflow.Workflow
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	infra, err := infrastructure.New(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}

	wf := workflow.New(
		infra.Lifecycle.Context(),
		infra.Generator,
		infra.Sink,
		cfg.PreviewDir,
		infra.Logger,
	)

	infra.Lifecycle.OnShutdown("workflow", func() {
		if err := wf.Close(); err != nil {
			infra.Logger.Warn("workflow close failed", "error", err)
		}
	})

	infra.Logger.Info(
		"qrgen initialized",
		"version", cfg.Version,
		"env", cfg.Env(),
		"endpoint", cfg.Service.Endpoint(),
		"sink", cfg.Output.Kind,
	)

	return &app{cfg: cfg, infra: infra, workflow: wf}, nil
}

func (a *app) start() error {
	if err := a.infra.Start(); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}
	return nil
}

func (a *app) shutdown() {
	if err := a.infra.Lifecycle.Shutdown(a.cfg.ShutdownTimeoutDuration()); err != nil {
		a.infra.Logger.Error("shutdown failed", "error", err)
	}
}
