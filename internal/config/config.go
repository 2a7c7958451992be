package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and public URL configuration.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	LogDir        string `toml:"log_dir"`
	BlobDir       string `toml:"blob_dir"`
	PublicBaseURL string `toml:"public_base_url"`
}

// Scoring contains the weighted scoring configuration. The five weights
// must sum to 1.0; the maxima define the linear normalization ceilings.
type Scoring struct {
	QualityWeight    float64 `toml:"quality_weight"`
	ContextWeight    float64 `toml:"context_weight"`
	ViewsWeight      float64 `toml:"views_weight"`
	TranscriptWeight float64 `toml:"transcript_weight"`
	DurationWeight   float64 `toml:"duration_weight"`

	MaxViews           int     `toml:"max_views"`
	MaxTranscriptWords int     `toml:"max_transcript_words"`
	MaxDurationSeconds float64 `toml:"max_duration_seconds"`
}

// Matcher contains temporal correlation settings.
type Matcher struct {
	WindowMinutes int `toml:"window_minutes"`
}

// Manifest contains digest composition settings.
type Manifest struct {
	MaxSections        int     `toml:"max_sections"`
	MinDurationSeconds float64 `toml:"min_duration_seconds"`
	TitleMaxLength     int     `toml:"title_max_length"`
	BulletMaxLength    int     `toml:"bullet_max_length"`
	ExactThreshold     float64 `toml:"exact_threshold"`
	EstimatedThreshold float64 `toml:"estimated_threshold"`
	TargetBranch       string  `toml:"target_branch"`
}

// GitHub contains configuration for the development-event feed.
type GitHub struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	Repository     string `toml:"repository"`
	RequestTimeout int    `toml:"request_timeout"`
	MaxPages       int    `toml:"max_pages"`
}

// Judge contains configuration for the automated judging collaborator.
type Judge struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Jobs           bool   `toml:"jobs"`
	Digest         bool   `toml:"digest"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains worker timing and job lifecycle settings.
type Workflow struct {
	PollInterval       int `toml:"poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	BatchSize          int `toml:"batch_size"`
	JobTTLHours        int `toml:"job_ttl_hours"`
	SweepInterval      int `toml:"sweep_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipdigest.
//
// Configuration sections by subsystem:
//   - Paths: data/log/blob directories and the public API base URL
//   - Scoring: weighted scoring weights and normalization maxima
//   - Matcher: temporal correlation window
//   - Manifest: digest selection and composition bounds
//   - GitHub: development-event feed client
//   - Judge: automated judging collaborator
//   - Notifications: ntfy push notification settings
//   - Workflow: worker polling, batch size, and job expiry
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Scoring       Scoring       `toml:"scoring"`
	Matcher       Matcher       `toml:"matcher"`
	Manifest      Manifest      `toml:"manifest"`
	GitHub        GitHub        `toml:"github"`
	Judge         Judge         `toml:"judge"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipdigest/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path; the third reports whether a file was found there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipdigest.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.BlobDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
