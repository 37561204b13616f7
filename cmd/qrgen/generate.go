package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/qrgen/internal/sink"
	"github.com/JaimeStill/qrgen/internal/workflow"
	"github.com/JaimeStill/qrgen/pkg/formatting"
)

type generateOptions struct {
	out     string
	preview bool
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <file.csv>",
		Short: "Generate a QR code PDF from a CSV file",
		Long: `Submit a CSV file to the generation service and save the returned PDF.

The PDF is written to the configured output sink: a local directory
(overridable with --out) or an Azure Blob Storage container.`,
		Example: `  qrgen generate codes.csv
  qrgen generate codes.csv --out ./pdfs --preview`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output directory for the local sink")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "open the generated PDF in the default viewer")

	return cmd
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions, path string) error {
	cfg := root.cfg
	if opts.out != "" {
		cfg.Output.Kind = sink.KindLocal
		cfg.Output.Dir = opts.out
	}

	data, err := readCSV(path, cfg.Service.MaxFileSizeBytes())
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.shutdown()

	if err := a.start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ctx := a.infra.Lifecycle.Context()
	go func() {
		select {
		case sig := <-sigChan:
			a.infra.Logger.Info("signal received", "signal", sig.String())
			a.shutdown()
		case <-ctx.Done():
		}
	}()

	wf := a.workflow
	out := cmd.OutOrStdout()

	if err := wf.SelectFile(filepath.Base(path), data); err != nil {
		return err
	}

	fmt.Fprintln(out, workflow.MessageGenerating)
	artifact, err := wf.Generate(ctx)
	if err != nil {
		if errors.Is(err, workflow.ErrClosed) || errors.Is(err, context.Canceled) {
			return errors.New("generation cancelled")
		}
		fmt.Fprintln(out, wf.Status())
		return err
	}
	fmt.Fprintln(out, wf.Status())

	location, err := wf.Download(ctx)
	if err != nil {
		fmt.Fprintln(out, wf.Status())
		return err
	}
	fmt.Fprintf(out, "%s %s (%s)\n", wf.Status(), location, formatting.FormatBytes(artifact.Size, 1))

	if opts.preview {
		return preview(ctx, cmd, wf)
	}
	return nil
}

// readCSV loads the file at path after checking its extension and size.
func readCSV(path string, limit int64) ([]byte, error) {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return nil, fmt.Errorf("%s (got %s)", workflow.MessageSelectFile, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s (%s is a directory)", workflow.MessageSelectFile, path)
	}
	if limit > 0 && info.Size() > limit {
		return nil, fmt.Errorf(
			"input %s is %s, exceeds limit of %s",
			path,
			formatting.FormatBytes(info.Size(), 1),
			formatting.FormatBytes(limit, 1),
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// preview opens the artifact in the system viewer and keeps the spooled copy
// alive until the user presses Enter or ctx is cancelled.
func preview(ctx context.Context, cmd *cobra.Command, wf *workflow.Workflow) error {
	path, err := wf.Preview()
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}

	if err := browser.OpenFile(path); err != nil {
		return fmt.Errorf("open preview: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Previewing %s. Press Enter to exit.\n", path)

	done := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return nil
}
