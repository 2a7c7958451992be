package manifest

import "time"

// AlignmentStatus describes how confidently a clip's timestamp matches its
// claimed development context.
type AlignmentStatus string

const (
	AlignmentExact     AlignmentStatus = "exact"
	AlignmentEstimated AlignmentStatus = "estimated"
	AlignmentMissing   AlignmentStatus = "missing"
)

// Section is one selected clip inside a digest.
type Section struct {
	ItemID        string          `json:"item_id"`
	Title         string          `json:"title"`
	Bullets       []string        `json:"bullets"`
	Paragraph     string          `json:"paragraph"`
	Score         int             `json:"score"`
	Repository    string          `json:"repository,omitempty"`
	PullRequests  []string        `json:"pull_requests,omitempty"`
	Alignment     AlignmentStatus `json:"alignment_status"`
	Confidence    float64         `json:"confidence"`
	StartSeconds  float64         `json:"start_seconds"`
	EndSeconds    float64         `json:"end_seconds"`
	SourceClipURL string          `json:"source_clip_url,omitempty"`
}

// JudgeResult is the optional quality verdict attached after an external
// judge pass over the composed digest.
type JudgeResult struct {
	Overall float64            `json:"overall"`
	Axes    map[string]float64 `json:"axes,omitempty"`
	Notes   string             `json:"notes,omitempty"`
}

// Manifest is the day-level digest.
type Manifest struct {
	ID             string       `json:"id"`
	Date           time.Time    `json:"date"`
	Sections       []Section    `json:"sections"`
	SourceVideoURL string       `json:"source_video_url,omitempty"`
	TargetBranch   string       `json:"target_branch"`
	Status         Status       `json:"status"`
	Judge          *JudgeResult `json:"judge,omitempty"`
	SocialPosts    []string     `json:"social_posts,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
