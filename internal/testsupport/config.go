package testsupport

import (
	"path/filepath"
	"testing"

	"clipdigest/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.BlobDir = filepath.Join(base, "blobs")
	cfgVal.Paths.PublicBaseURL = "http://127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRepository sets the GitHub repository on the test config.
func WithRepository(repo string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.GitHub.Repository = repo
	}
}

// WithMatchWindow overrides the temporal matching window in minutes.
func WithMatchWindow(minutes int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matcher.WindowMinutes = minutes
	}
}

// WithJudgeEnabled switches on the judge stage with a placeholder key.
func WithJudgeEnabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Judge.Enabled = true
		b.cfg.Judge.APIKey = "test"
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
