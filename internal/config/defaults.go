package config

const (
	defaultDataDir       = "~/.local/share/clipdigest/data"
	defaultLogDir        = "~/.local/share/clipdigest/logs"
	defaultBlobDir       = "~/.local/share/clipdigest/blobs"
	defaultPublicBaseURL = "http://127.0.0.1:8418"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultMatcherWindowMinutes = 120

	defaultMaxViews           = 10000
	defaultMaxTranscriptWords = 2000
	defaultMaxDurationSeconds = 180

	defaultManifestMaxSections        = 5
	defaultManifestMinDurationSeconds = 10
	defaultManifestTitleMaxLength     = 80
	defaultManifestBulletMaxLength    = 120
	defaultManifestExactThreshold     = 0.8
	defaultManifestEstimatedThreshold = 0.4
	defaultManifestTargetBranch       = "main"

	defaultGitHubBaseURL        = "https://api.github.com"
	defaultGitHubRequestTimeout = 15
	defaultGitHubMaxPages       = 3

	defaultJudgeBaseURL        = "https://openrouter.ai/api/v1"
	defaultJudgeModel          = "google/gemini-3-flash-preview"
	defaultJudgeTimeoutSeconds = 60

	defaultNotifyRequestTimeout = 10

	defaultWorkflowPollInterval       = 5
	defaultWorkflowErrorRetryInterval = 10
	defaultWorkflowBatchSize          = 5
	defaultWorkflowJobTTLHours        = 24
	defaultWorkflowSweepInterval      = 300
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			LogDir:        defaultLogDir,
			BlobDir:       defaultBlobDir,
			PublicBaseURL: defaultPublicBaseURL,
		},
		Scoring: Scoring{
			QualityWeight:      0.30,
			ContextWeight:      0.25,
			ViewsWeight:        0.15,
			TranscriptWeight:   0.15,
			DurationWeight:     0.15,
			MaxViews:           defaultMaxViews,
			MaxTranscriptWords: defaultMaxTranscriptWords,
			MaxDurationSeconds: defaultMaxDurationSeconds,
		},
		Matcher: Matcher{
			WindowMinutes: defaultMatcherWindowMinutes,
		},
		Manifest: Manifest{
			MaxSections:        defaultManifestMaxSections,
			MinDurationSeconds: defaultManifestMinDurationSeconds,
			TitleMaxLength:     defaultManifestTitleMaxLength,
			BulletMaxLength:    defaultManifestBulletMaxLength,
			ExactThreshold:     defaultManifestExactThreshold,
			EstimatedThreshold: defaultManifestEstimatedThreshold,
			TargetBranch:       defaultManifestTargetBranch,
		},
		GitHub: GitHub{
			BaseURL:        defaultGitHubBaseURL,
			RequestTimeout: defaultGitHubRequestTimeout,
			MaxPages:       defaultGitHubMaxPages,
		},
		Judge: Judge{
			BaseURL:        defaultJudgeBaseURL,
			Model:          defaultJudgeModel,
			TimeoutSeconds: defaultJudgeTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Jobs:           true,
			Digest:         true,
			Errors:         true,
		},
		Workflow: Workflow{
			PollInterval:       defaultWorkflowPollInterval,
			ErrorRetryInterval: defaultWorkflowErrorRetryInterval,
			BatchSize:          defaultWorkflowBatchSize,
			JobTTLHours:        defaultWorkflowJobTTLHours,
			SweepInterval:      defaultWorkflowSweepInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
