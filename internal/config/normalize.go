package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGitHub()
	c.normalizeJudge()
	c.normalizeManifest()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.BlobDir) == "" {
		c.Paths.BlobDir = defaultBlobDir
	}
	if c.Paths.BlobDir, err = expandPath(c.Paths.BlobDir); err != nil {
		return fmt.Errorf("paths.blob_dir: %w", err)
	}
	c.Paths.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Paths.PublicBaseURL), "/")
	if c.Paths.PublicBaseURL == "" {
		c.Paths.PublicBaseURL = defaultPublicBaseURL
	}
	return nil
}

func (c *Config) normalizeGitHub() {
	c.GitHub.BaseURL = strings.TrimRight(strings.TrimSpace(c.GitHub.BaseURL), "/")
	if c.GitHub.BaseURL == "" {
		c.GitHub.BaseURL = defaultGitHubBaseURL
	}
	c.GitHub.Token = strings.TrimSpace(c.GitHub.Token)
	c.GitHub.Repository = strings.TrimSpace(c.GitHub.Repository)
	if c.GitHub.MaxPages <= 0 {
		c.GitHub.MaxPages = defaultGitHubMaxPages
	}
}

func (c *Config) normalizeJudge() {
	c.Judge.BaseURL = strings.TrimRight(strings.TrimSpace(c.Judge.BaseURL), "/")
	if c.Judge.BaseURL == "" {
		c.Judge.BaseURL = defaultJudgeBaseURL
	}
	c.Judge.APIKey = strings.TrimSpace(c.Judge.APIKey)
	c.Judge.Model = strings.TrimSpace(c.Judge.Model)
	if c.Judge.Model == "" {
		c.Judge.Model = defaultJudgeModel
	}
}

func (c *Config) normalizeManifest() {
	c.Manifest.TargetBranch = strings.TrimSpace(c.Manifest.TargetBranch)
	if c.Manifest.TargetBranch == "" {
		c.Manifest.TargetBranch = defaultManifestTargetBranch
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
