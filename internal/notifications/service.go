package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clipdigest/internal/config"
)

const userAgent = "ClipDigest-Go/0.1.0"

// Event identifies a pipeline milestone worth announcing.
type Event string

const (
	EventJobQueued      Event = "job_queued"
	EventJobStarted     Event = "job_started"
	EventJobCompleted   Event = "job_completed"
	EventJobFailed      Event = "job_failed"
	EventDigestComposed Event = "digest_composed"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries the per-event message fields.
type Payload map[string]string

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		jobs:     cfg.Notifications.Jobs,
		digest:   cfg.Notifications.Digest,
		errors:   cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	jobs     bool
	digest   bool
	errors   bool
}

// Publish renders the event into an ntfy message and posts it. Events whose
// category is disabled in configuration are silently dropped.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	data, ok := render(event, payload)
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}
	return n.send(ctx, data)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventJobQueued, EventJobStarted, EventJobCompleted, EventJobFailed:
		return n.jobs
	case EventDigestComposed:
		return n.digest
	case EventError:
		return n.errors
	default:
		return true
	}
}

func render(event Event, payload Payload) (message, bool) {
	get := func(key string) string { return strings.TrimSpace(payload[key]) }

	switch event {
	case EventJobQueued:
		return message{
			title: "ClipDigest - Job Queued",
			body:  fmt.Sprintf("Queued %s job %s", orUnknown(get("contentType")), get("jobID")),
			tags:  []string{"clipdigest", "job", "queued"},
		}, true
	case EventJobStarted:
		return message{
			title: "ClipDigest - Job Started",
			body:  fmt.Sprintf("Started job %s", get("jobID")),
			tags:  []string{"clipdigest", "job", "started"},
		}, true
	case EventJobCompleted:
		body := fmt.Sprintf("Job %s complete", get("jobID"))
		if sections := get("sections"); sections != "" {
			body = fmt.Sprintf("%s: %s sections composed", body, sections)
		}
		return message{
			title:    "ClipDigest - Job Complete",
			body:     body,
			tags:     []string{"clipdigest", "job", "completed"},
			priority: "high",
		}, true
	case EventJobFailed:
		body := fmt.Sprintf("Job %s failed", get("jobID"))
		if reason := get("error"); reason != "" {
			body = fmt.Sprintf("%s: %s", body, reason)
		}
		return message{
			title:    "ClipDigest - Job Failed",
			body:     body,
			tags:     []string{"clipdigest", "job", "failed"},
			priority: "high",
		}, true
	case EventDigestComposed:
		return message{
			title: "ClipDigest - Digest Ready",
			body:  fmt.Sprintf("Digest for %s composed with %s sections", get("date"), orUnknown(get("sections"))),
			tags:  []string{"clipdigest", "digest", "composed"},
		}, true
	case EventError:
		body := "Error"
		if label := get("context"); label != "" {
			body += " with " + label
		}
		body += ": " + orUnknown(get("error"))
		return message{
			title:    "ClipDigest - Error",
			body:     body,
			tags:     []string{"clipdigest", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "ClipDigest - Test",
			body:     "Notification system test",
			tags:     []string{"clipdigest", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
