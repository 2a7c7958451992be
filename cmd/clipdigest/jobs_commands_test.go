package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"clipdigest/internal/jobs"
	"clipdigest/internal/testsupport"
)

func TestJobsCreateAndList(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"jobs", "create",
		"--from", "2026-03-01",
		"--to", "2026-03-01",
		"--type", "daily_recap",
	}, env.configPath)
	if err != nil {
		t.Fatalf("jobs create: %v", err)
	}
	requireContains(t, out, "Queued job")

	out, _, err = runCLI(t, []string{"jobs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "queued")
	requireContains(t, out, "daily_recap")

	store := testsupport.MustOpenJobStore(t, env.cfg)
	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[jobs.StatusQueued] != 1 {
		t.Fatalf("expected one queued job, got %+v", stats)
	}
}

func TestJobsCreateRejectsInvalidRange(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{
		"jobs", "create",
		"--from", "2026-03-02",
		"--to", "2026-03-01",
	}, env.configPath)
	if err == nil {
		t.Fatal("expected inverted date range to be rejected")
	}

	store := testsupport.MustOpenJobStore(t, env.cfg)
	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("invalid request must not be enqueued, got %+v", stats)
	}
}

func TestJobsStatusPrintsView(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	store := testsupport.MustOpenJobStore(t, env.cfg)
	job, _, err := store.CreateJob(ctx, validCLIRequest())
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs", "status", job.ID}, env.configPath)
	if err != nil {
		t.Fatalf("jobs status: %v", err)
	}

	var view jobs.StatusView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode status output: %v\n%s", err, out)
	}
	if view.JobID != job.ID {
		t.Fatalf("expected job id %s, got %s", job.ID, view.JobID)
	}
	if view.Status != jobs.StatusQueued {
		t.Fatalf("expected queued, got %s", view.Status)
	}
}

func TestJobsStatusUnknownJob(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"jobs", "status", "no-such-job"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestJobsRetryAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	store := testsupport.MustOpenJobStore(t, env.cfg)
	job, _, err := store.CreateJob(ctx, validCLIRequest())
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	job.Status = jobs.StatusFailed
	job.ErrorMessage = "boom"
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("fail job: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs", "retry", job.ID}, env.configPath)
	if err != nil {
		t.Fatalf("jobs retry: %v", err)
	}
	requireContains(t, out, "Requeued job")

	requeued, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if requeued.Status != jobs.StatusQueued {
		t.Fatalf("expected queued after retry, got %s", requeued.Status)
	}

	requeued.Status = jobs.StatusCompleted
	if err := store.Update(ctx, requeued); err != nil {
		t.Fatalf("complete job: %v", err)
	}

	out, _, err = runCLI(t, []string{"jobs", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 terminal jobs")
}

func TestJobsStats(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	store := testsupport.MustOpenJobStore(t, env.cfg)
	if _, _, err := store.CreateJob(ctx, validCLIRequest()); err != nil {
		t.Fatalf("create job: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs stats: %v", err)
	}
	requireContains(t, out, "queued")
	requireContains(t, out, "1")
}

func validCLIRequest() jobs.ContentGenerationRequest {
	return jobs.ContentGenerationRequest{
		DateRange: jobs.DateRange{
			Start: mustParseDay("2026-03-01"),
			End:   mustParseDay("2026-03-02"),
		},
		ContentType: jobs.ContentDailyRecap,
	}
}
