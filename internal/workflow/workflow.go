// Package workflow implements the upload workflow: selecting a CSV, submitting
// it to the generation service, and delivering the resulting PDF.
//
// A Workflow owns three pieces of state (the selected file, the current
// artifact, and a status message) and moves through
// idle → file_selected → generating → {generated, failed}. Only one
// generation request is in flight at a time; concurrent callers share it.
package workflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/qrgen/internal/generation"
	"github.com/JaimeStill/qrgen/pkg/formatting"
)

// ContentTypeCSV is the declared media type of every selected file.
const ContentTypeCSV = "text/csv"

const flightKey = "generate"

// Generator submits a CSV to the generation service.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Response, error)
}

// Sink persists a downloaded artifact and returns where it was written.
type Sink interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// SelectedFile is the CSV chosen for submission.
type SelectedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Outcome is the result of a generation delivered by Start.
type Outcome struct {
	Artifact *Artifact
	Err      error
}

// Workflow coordinates file selection, generation, and download.
type Workflow struct {
	gen      Generator
	sink     Sink
	spoolDir string
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	flight singleflight.Group

	mu       sync.Mutex
	state    State
	file     *SelectedFile
	artifact *Artifact
	status   string
	closed   bool
}

// New creates a Workflow. Generation requests run under a context derived
// from ctx and are abandoned when ctx is cancelled or Close is called; a
// result arriving after either leaves the state untouched.
// Preview files are spooled under spoolDir (os.TempDir when empty).
func New(
	ctx context.Context,
	gen Generator,
	sink Sink,
	spoolDir string,
	logger *slog.Logger,
) *Workflow {
	ctx, cancel := context.WithCancel(ctx)
	return &Workflow{
		gen:      gen,
		sink:     sink,
		spoolDir: spoolDir,
		logger:   logger.With("system", "workflow"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// State returns the current workflow state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Status returns the latest user-facing message.
func (w *Workflow) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// File returns the selected file, or nil.
func (w *Workflow) File() *SelectedFile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file
}

// Artifact returns the live artifact, or nil. A later successful generation
// or Close releases it.
func (w *Workflow) Artifact() *Artifact {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.artifact
}

// SelectFile replaces the selected file and clears the status. The content
// is not inspected. While a generation is in flight the state stays
// generating and the new file is used by the next Generate.
func (w *Workflow) SelectFile(name string, data []byte) error {
	file := &SelectedFile{
		Name:        name,
		ContentType: ContentTypeCSV,
		Data:        bytes.Clone(data),
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	w.file = file
	w.status = ""
	if w.state != StateGenerating {
		w.state = StateFileSelected
	}

	w.logger.Info(
		"file selected",
		"filename", name,
		"size", formatting.FormatBytes(int64(len(data)), 1),
	)
	return nil
}

// Start begins generation without blocking and delivers the outcome on the
// returned channel. If a generation is already in flight the caller joins it
// instead of issuing a second request. Cancelling ctx stops waiting but does
// not abort the shared request; Close does.
func (w *Workflow) Start(ctx context.Context) <-chan Outcome {
	out := make(chan Outcome, 1)
	results := w.flight.DoChan(flightKey, func() (any, error) {
		return w.generate()
	})

	go func() {
		select {
		case r := <-results:
			artifact, _ := r.Val.(*Artifact)
			out <- Outcome{Artifact: artifact, Err: r.Err}
		case <-ctx.Done():
			out <- Outcome{Err: ctx.Err()}
		}
	}()

	return out
}

// Generate submits the selected file and waits for the outcome.
func (w *Workflow) Generate(ctx context.Context) (*Artifact, error) {
	o := <-w.Start(ctx)
	return o.Artifact, o.Err
}

func (w *Workflow) generate() (*Artifact, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	if w.file == nil {
		w.status = StatusFor(ErrNoFileSelected)
		w.mu.Unlock()
		w.logger.Warn("generate without a selected file")
		return nil, ErrNoFileSelected
	}

	file := w.file
	w.state = StateGenerating
	w.status = MessageGenerating
	w.mu.Unlock()

	resp, err := w.gen.Generate(w.ctx, generation.Request{
		Filename:    file.Name,
		ContentType: file.ContentType,
		Data:        file.Data,
	})

	var artifact *Artifact
	if err == nil {
		artifact = newArtifact(resp, w.spoolDir, w.logger)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.ctx.Err() != nil {
		if artifact != nil {
			artifact.Release()
		}
		w.logger.Info("discarding generation result after teardown", "filename", file.Name)
		return nil, ErrClosed
	}

	if err != nil {
		w.state = StateFailed
		w.status = StatusFor(err)
		w.logger.Warn("generation failed", "filename", file.Name, "error", err)
		return nil, err
	}

	if prev := w.artifact; prev != nil {
		if err := prev.Release(); err != nil {
			w.logger.Warn("release previous artifact failed", "id", prev.ID, "error", err)
		}
	}

	w.artifact = artifact
	w.state = StateGenerated
	w.status = MessageGenerated

	attrs := []any{
		"id", artifact.ID,
		"request_id", artifact.RequestID,
		"filename", artifact.Filename,
		"size", formatting.FormatBytes(artifact.Size, 1),
	}
	if artifact.PageCount != nil {
		attrs = append(attrs, "pages", *artifact.PageCount)
	}
	w.logger.Info("artifact generated", attrs...)
	return artifact, nil
}

// Download saves the current artifact through the sink under its resolved
// filename and returns the sink's location. It does not change state and may
// be repeated.
func (w *Workflow) Download(ctx context.Context) (string, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return "", ErrClosed
	}

	artifact := w.artifact
	if artifact == nil {
		w.status = StatusFor(ErrNoArtifact)
		w.mu.Unlock()
		return "", ErrNoArtifact
	}

	// Close sets closed under w.mu before releasing, so the bytes are live here.
	data, err := artifact.Bytes()
	w.mu.Unlock()
	if err != nil {
		return "", err
	}

	location, err := w.sink.Save(ctx, artifact.Filename, artifact.ContentType, bytes.NewReader(data))

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		if !w.closed {
			w.status = MessageSaveFailed
		}
		w.logger.Error("save artifact failed", "filename", artifact.Filename, "error", err)
		return "", fmt.Errorf("save artifact: %w", err)
	}

	if !w.closed {
		w.status = MessageDownloaded
	}
	w.logger.Info("artifact saved", "filename", artifact.Filename, "location", location)
	return location, nil
}

// Preview returns a local file path holding the current artifact.
func (w *Workflow) Preview() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return "", ErrClosed
	}
	if w.artifact == nil {
		w.status = StatusFor(ErrNoArtifact)
		return "", ErrNoArtifact
	}
	return w.artifact.Preview()
}

// Close tears the workflow down: the in-flight request is cancelled, its
// result discarded, and the artifact released. Close is idempotent.
func (w *Workflow) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.cancel()

	artifact := w.artifact
	w.artifact = nil
	w.mu.Unlock()

	w.logger.Info("workflow closed")

	if artifact != nil {
		return artifact.Release()
	}
	return nil
}
