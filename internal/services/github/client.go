package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"clipdigest/internal/config"
	"clipdigest/internal/githubmatch"
)

const (
	defaultBaseURL  = "https://api.github.com"
	defaultMaxPages = 3
	eventsPerPage   = 100
)

// Client fetches repository events from the GitHub API.
type Client struct {
	baseURL    string
	token      string
	repository string
	maxPages   int
	httpClient *http.Client
}

var _ githubmatch.Feed = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates an event-feed client for the configured repository
// ("owner/repo").
func New(cfg config.GitHub, opts ...Option) (*Client, error) {
	repository := strings.TrimSpace(cfg.Repository)
	if repository == "" || strings.Count(repository, "/") != 1 {
		return nil, errors.New("github repository must be owner/repo")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(cfg.Token),
		repository: repository,
		maxPages:   maxPages,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type apiEvent struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Payload   struct {
		PullRequest struct {
			HTMLURL string `json:"html_url"`
		} `json:"pull_request"`
		Issue struct {
			HTMLURL string `json:"html_url"`
		} `json:"issue"`
		Commits []struct {
			SHA string `json:"sha"`
		} `json:"commits"`
	} `json:"payload"`
}

// EventsBetween walks the repository event pages (newest first) and returns
// the classified events whose timestamps fall inside [from, to]. Paging
// stops early once events predate the range, and is capped at the
// configured page limit since the API only retains recent activity anyway.
func (c *Client) EventsBetween(ctx context.Context, from, to time.Time) ([]githubmatch.Event, error) {
	var events []githubmatch.Event
	for page := 1; page <= c.maxPages; page++ {
		pageEvents, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(pageEvents) == 0 {
			break
		}
		exhausted := false
		for _, raw := range pageEvents {
			if raw.CreatedAt.Before(from) {
				exhausted = true
				continue
			}
			if raw.CreatedAt.After(to) {
				continue
			}
			if event, ok := classify(raw); ok {
				events = append(events, event)
			}
		}
		if exhausted {
			break
		}
	}
	return events, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) ([]apiEvent, error) {
	endpoint, err := url.Parse(fmt.Sprintf("%s/repos/%s/events", c.baseURL, c.repository))
	if err != nil {
		return nil, fmt.Errorf("parse github url: %w", err)
	}
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(eventsPerPage))
	params.Set("page", strconv.Itoa(page))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github events returned %d for %s", resp.StatusCode, c.repository)
	}

	var payload []apiEvent
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode github response: %w", err)
	}
	return payload, nil
}

func classify(raw apiEvent) (githubmatch.Event, bool) {
	switch raw.Type {
	case "PullRequestEvent":
		return githubmatch.Event{
			Type:      githubmatch.EventPullRequest,
			Timestamp: raw.CreatedAt,
			URL:       raw.Payload.PullRequest.HTMLURL,
		}, true
	case "PushEvent":
		event := githubmatch.Event{
			Type:      githubmatch.EventPush,
			Timestamp: raw.CreatedAt,
		}
		for _, commit := range raw.Payload.Commits {
			if commit.SHA != "" {
				event.CommitIDs = append(event.CommitIDs, commit.SHA)
			}
		}
		return event, true
	case "IssuesEvent":
		return githubmatch.Event{
			Type:      githubmatch.EventIssue,
			Timestamp: raw.CreatedAt,
			URL:       raw.Payload.Issue.HTMLURL,
		}, true
	}
	return githubmatch.Event{}, false
}
