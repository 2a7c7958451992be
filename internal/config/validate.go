package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// weightTolerance is the slack allowed when checking that scoring weights
// sum to 1.0.
const weightTolerance = 1e-3

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateMatcher(); err != nil {
		return err
	}
	if err := c.validateManifest(); err != nil {
		return err
	}
	if err := c.validateJudge(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScoring() error {
	weights := []struct {
		name  string
		value float64
	}{
		{"scoring.quality_weight", c.Scoring.QualityWeight},
		{"scoring.context_weight", c.Scoring.ContextWeight},
		{"scoring.views_weight", c.Scoring.ViewsWeight},
		{"scoring.transcript_weight", c.Scoring.TranscriptWeight},
		{"scoring.duration_weight", c.Scoring.DurationWeight},
	}
	sum := 0.0
	for _, w := range weights {
		if w.value < 0 {
			return fmt.Errorf("%s must be >= 0", w.name)
		}
		sum += w.value
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.4f", sum)
	}
	if c.Scoring.MaxViews <= 0 {
		return errors.New("scoring.max_views must be positive")
	}
	if c.Scoring.MaxTranscriptWords <= 0 {
		return errors.New("scoring.max_transcript_words must be positive")
	}
	if c.Scoring.MaxDurationSeconds <= 0 {
		return errors.New("scoring.max_duration_seconds must be positive")
	}
	return nil
}

func (c *Config) validateMatcher() error {
	if c.Matcher.WindowMinutes <= 0 {
		return errors.New("matcher.window_minutes must be positive")
	}
	return nil
}

func (c *Config) validateManifest() error {
	if c.Manifest.MaxSections <= 0 {
		return errors.New("manifest.max_sections must be positive")
	}
	if c.Manifest.MinDurationSeconds < 0 {
		return errors.New("manifest.min_duration_seconds must be >= 0")
	}
	if c.Manifest.TitleMaxLength <= 0 {
		return errors.New("manifest.title_max_length must be positive")
	}
	if c.Manifest.BulletMaxLength <= 0 {
		return errors.New("manifest.bullet_max_length must be positive")
	}
	if c.Manifest.ExactThreshold < 0 || c.Manifest.ExactThreshold > 1 {
		return errors.New("manifest.exact_threshold must be between 0 and 1")
	}
	if c.Manifest.EstimatedThreshold < 0 || c.Manifest.EstimatedThreshold > 1 {
		return errors.New("manifest.estimated_threshold must be between 0 and 1")
	}
	if c.Manifest.EstimatedThreshold > c.Manifest.ExactThreshold {
		return errors.New("manifest.estimated_threshold must not exceed manifest.exact_threshold")
	}
	return nil
}

func (c *Config) validateJudge() error {
	if !c.Judge.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Judge.APIKey) == "" {
		return errors.New("judge.api_key must be set when judge.enabled is true")
	}
	if c.Judge.TimeoutSeconds <= 0 {
		return errors.New("judge.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.poll_interval":        c.Workflow.PollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.batch_size":           c.Workflow.BatchSize,
		"workflow.job_ttl_hours":        c.Workflow.JobTTLHours,
		"workflow.sweep_interval":       c.Workflow.SweepInterval,
		"github.request_timeout":        c.GitHub.RequestTimeout,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
