package workflow_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/JaimeStill/qrgen/internal/generation"
	"github.com/JaimeStill/qrgen/internal/workflow"
)

type fakeGenerator struct {
	mu       sync.Mutex
	requests []generation.Request
	respond  func(ctx context.Context, req generation.Request) (*generation.Response, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, req generation.Request) (*generation.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	respond := f.respond
	f.mu.Unlock()
	return respond(ctx, req)
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func pdfResponse(data []byte, disposition string) func(context.Context, generation.Request) (*generation.Response, error) {
	return func(context.Context, generation.Request) (*generation.Response, error) {
		return &generation.Response{
			RequestID:   "req-1",
			ContentType: "application/pdf",
			Disposition: disposition,
			Data:        data,
		}, nil
	}
}

type savedFile struct {
	name        string
	contentType string
	data        []byte
}

type fakeSink struct {
	mu    sync.Mutex
	saves []savedFile
	err   error
}

func (f *fakeSink) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, savedFile{name: name, contentType: contentType, data: data})
	return "/out/" + name, nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func newWorkflow(t *testing.T, gen workflow.Generator, sink workflow.Sink) *workflow.Workflow {
	t.Helper()
	w := workflow.New(context.Background(), gen, sink, t.TempDir(), slog.Default())
	t.Cleanup(func() { w.Close() })
	return w
}

// minimalPDF builds a single-page PDF with a correct cross-reference table.
func minimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}
