package generation_test

import (
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/qrgen/internal/generation"
)

func TestConfigDefaults(t *testing.T) {
	cfg := generation.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if got := cfg.Endpoint(); got != "http://127.0.0.1:5000/upload" {
		t.Errorf("endpoint: got %s", got)
	}
	if cfg.FieldName != "csv" {
		t.Errorf("field_name: got %s, want csv", cfg.FieldName)
	}
	if cfg.TimeoutDuration() != 2*time.Minute {
		t.Errorf("timeout: got %v, want 2m", cfg.TimeoutDuration())
	}
	if cfg.MaxFileSizeBytes() != 10*1024*1024 {
		t.Errorf("max_file_size: got %d", cfg.MaxFileSizeBytes())
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("TEST_BASE_URL", "https://qr.example.com/")
	t.Setenv("TEST_UPLOAD_PATH", "api/upload")
	t.Setenv("TEST_TIMEOUT", "30s")

	env := &generation.Env{
		BaseURL:    "TEST_BASE_URL",
		UploadPath: "TEST_UPLOAD_PATH",
		Timeout:    "TEST_TIMEOUT",
	}

	cfg := generation.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if got := cfg.Endpoint(); got != "https://qr.example.com/api/upload" {
		t.Errorf("endpoint: got %s", got)
	}
	if cfg.TimeoutDuration() != 30*time.Second {
		t.Errorf("timeout: got %v", cfg.TimeoutDuration())
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     generation.Config
		wantErr string
	}{
		{"bad scheme", generation.Config{BaseURL: "ftp://host"}, "invalid base_url scheme"},
		{"bad timeout", generation.Config{Timeout: "soon"}, "invalid timeout"},
		{"bad file size", generation.Config{MaxFileSize: "lots"}, "invalid max_file_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	base := generation.Config{BaseURL: "http://a", Timeout: "1m"}
	base.Merge(&generation.Config{Timeout: "5s"})

	if base.BaseURL != "http://a" {
		t.Errorf("base_url should remain, got %s", base.BaseURL)
	}
	if base.Timeout != "5s" {
		t.Errorf("timeout: got %s, want 5s", base.Timeout)
	}
}
