package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipdigest/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Workflow.BatchSize != 5 {
		t.Fatalf("default batch size = %d, want 5", cfg.Workflow.BatchSize)
	}
	if cfg.Matcher.WindowMinutes != 120 {
		t.Fatalf("default matcher window = %d, want 120", cfg.Matcher.WindowMinutes)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
blob_dir = "` + filepath.Join(dir, "blobs") + `"
public_base_url = "https://digest.example.com/"

[manifest]
max_sections = 3

[github]
repository = "acme/widgets"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Manifest.MaxSections != 3 {
		t.Fatalf("max sections = %d, want 3", cfg.Manifest.MaxSections)
	}
	if cfg.GitHub.Repository != "acme/widgets" {
		t.Fatalf("repository = %q", cfg.GitHub.Repository)
	}
	if strings.HasSuffix(cfg.Paths.PublicBaseURL, "/") {
		t.Fatalf("public base url should be trimmed: %q", cfg.Paths.PublicBaseURL)
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := config.Default()
	cfg.Scoring.QualityWeight = 0.9
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected weight sum validation error")
	} else if !strings.Contains(err.Error(), "sum to 1.0") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsNegativeWeight(t *testing.T) {
	cfg := config.Default()
	cfg.Scoring.ViewsWeight = -0.15
	cfg.Scoring.QualityWeight = 0.60
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected negative weight validation error")
	}
}

func TestValidateThresholdOrdering(t *testing.T) {
	cfg := config.Default()
	cfg.Manifest.EstimatedThreshold = 0.9
	cfg.Manifest.ExactThreshold = 0.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected threshold ordering error")
	}
}

func TestValidateJudgeRequiresKeyWhenEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.Judge.Enabled = true
	cfg.Judge.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected judge api key validation error")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[scoring]") {
		t.Fatal("sample missing scoring section")
	}
}
