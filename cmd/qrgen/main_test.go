package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JaimeStill/qrgen/internal/workflow"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("id,text\n1,hello\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestGenerateSavesPDF(t *testing.T) {
	pdf := []byte("%PDF-1.4 qr")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="codes.pdf"`)
		w.Write(pdf)
	}))
	defer srv.Close()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("QRGEN_SERVICE_BASE_URL", srv.URL)

	input := writeCSV(t, dir, "codes.csv")
	outDir := filepath.Join(dir, "out")

	output, err := runCmd(t, "generate", input, "--out", outDir)
	if err != nil {
		t.Fatalf("generate failed: %v\n%s", err, output)
	}

	for _, want := range []string{workflow.MessageGenerating, workflow.MessageGenerated, workflow.MessageDownloaded} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}

	got, err := os.ReadFile(filepath.Join(outDir, "codes.pdf"))
	if err != nil {
		t.Fatalf("read saved pdf: %v", err)
	}
	if !bytes.Equal(got, pdf) {
		t.Errorf("saved pdf = %q, want %q", got, pdf)
	}
}

func TestGenerateServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Invalid CSV header"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("QRGEN_SERVICE_BASE_URL", srv.URL)

	input := writeCSV(t, dir, "codes.csv")

	output, err := runCmd(t, "generate", input, "--out", dir)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(output, "Error: Invalid CSV header") {
		t.Errorf("output missing service message:\n%s", output)
	}
}

func TestGenerateRejectsInput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("QRGEN_SERVICE_MAX_FILE_SIZE", "8B")

	tests := []struct {
		name string
		path string
		want string
	}{
		{"wrong extension", writeCSV(t, dir, "codes.txt"), workflow.MessageSelectFile},
		{"missing file", filepath.Join(dir, "absent.csv"), "stat input"},
		{"too large", writeCSV(t, dir, "big.csv"), "exceeds limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, "generate", tt.path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("QRGEN_VERSION", "1.2.3")

	output, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(output, "qrgen 1.2.3") {
		t.Errorf("output = %q", output)
	}
}
