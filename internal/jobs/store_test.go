package jobs_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"clipdigest/internal/jobs"
	"clipdigest/internal/services"
	"clipdigest/internal/testsupport"
)

func testRequest() jobs.ContentGenerationRequest {
	start := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	return jobs.ContentGenerationRequest{
		DateRange:   jobs.DateRange{Start: start, End: start.Add(24 * time.Hour)},
		ContentType: jobs.ContentDailyRecap,
	}
}

func TestCreateJobStoresQueuedWithExpiry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobStore(t, cfg)

	job, msg, err := store.CreateJob(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.ID == "" || msg.JobID != job.ID {
		t.Fatalf("queue message mismatch: job %q msg %q", job.ID, msg.JobID)
	}
	if job.Status != jobs.StatusQueued {
		t.Fatalf("status = %s, want queued", job.Status)
	}
	if !job.ExpiresAt.After(job.CreatedAt) {
		t.Fatalf("expiry %v not after creation %v", job.ExpiresAt, job.CreatedAt)
	}

	got, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Status != jobs.StatusQueued {
		t.Fatalf("stored job = %+v", got)
	}
	if got.Request.ContentType != jobs.ContentDailyRecap {
		t.Fatalf("request round trip: %+v", got.Request)
	}
}

func TestCreateJobRejectsInvalidRequestSynchronously(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobStore(t, cfg)

	bad := testRequest()
	bad.ContentType = "monthly"
	if _, _, err := store.CreateJob(context.Background(), bad); !services.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("invalid request was enqueued: %v", stats)
	}
}

func TestUpdateBumpsUpdatedAtStrictly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobStore(t, cfg)

	job, _, err := store.CreateJob(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	prev := job.UpdatedAt
	for i := 0; i < 5; i++ {
		job.Progress = &jobs.Progress{Step: "fetch_items", Current: 1, Total: 5}
		if err := store.Update(context.Background(), job); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if !job.UpdatedAt.After(prev) {
			t.Fatalf("updated_at did not strictly increase: %v -> %v", prev, job.UpdatedAt)
		}
		prev = job.UpdatedAt
	}

	got, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.UpdatedAt.Equal(prev) {
		t.Fatalf("persisted updated_at = %v, want %v", got.UpdatedAt, prev)
	}
	if got.Progress == nil || got.Progress.Step != "fetch_items" {
		t.Fatalf("progress round trip: %+v", got.Progress)
	}
}

func TestUpdateMissingJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobStore(t, cfg)

	ghost := &jobs.Job{ID: "ghost", Status: jobs.StatusQueued}
	if err := store.Update(context.Background(), ghost); err == nil {
		t.Fatal("expected update on missing job to fail")
	}
}

func TestNextQueuedClaimsOldestFirstWithoutDoubleClaim(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobStore(t, cfg)

	first, _, err := store.CreateJob(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateJob first: %v", err)
	}
	second, _, err := store.CreateJob(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateJob second: %v", err)
	}

	claimed, err := store.NextQueued(context.Background(), "worker-a", 1)
	if err != nil {
		t.Fatalf("NextQueued: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != first.ID {
		t.Fatalf("expected oldest job %s, got %+v", first.ID, claimed)
	}
	if claimed[0].WorkerID != "worker-a" {
		t.Fatalf("claim not stamped: %+v", claimed[0])
	}

	rest, err := store.NextQueued(context.Background(), "worker-b", 5)
	if err != nil {
		t.Fatalf("NextQueued second: %v", err)
	}
	if len(rest) != 1 || rest[0].ID != second.ID {
		t.Fatalf("expected only unclaimed job %s, got %+v", second.ID, rest)
	}

	none, err := store.NextQueued(context.Background(), "worker-c", 5)
	if err != nil {
		t.Fatalf("NextQueued third: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected empty claim, got %+v", none)
	}
}

func TestReapExpired(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobStore(t, cfg)

	job, _, err := store.CreateJob(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	reaped, err := store.ReapExpired(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ReapExpired: %v", err)
	}
	if reaped != 0 {
		t.Fatalf("reaped live job: %d", reaped)
	}

	reaped, err = store.ReapExpired(context.Background(), job.ExpiresAt.Add(time.Second))
	if err != nil {
		t.Fatalf("ReapExpired past expiry: %v", err)
	}
	if reaped != 1 {
		t.Fatalf("reaped = %d, want 1", reaped)
	}

	got, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("expired job survived sweep: %+v", got)
	}
}

func TestClearTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobStore(t, cfg)

	queued, _, err := store.CreateJob(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	done, _, err := store.CreateJob(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	done.Status = jobs.StatusCompleted
	done.Result = json.RawMessage(`{"manifest":null}`)
	if err := store.Update(context.Background(), done); err != nil {
		t.Fatalf("Update: %v", err)
	}

	cleared, err := store.ClearTerminal(context.Background())
	if err != nil {
		t.Fatalf("ClearTerminal: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("cleared = %d, want 1", cleared)
	}
	if got, _ := store.GetByID(context.Background(), queued.ID); got == nil {
		t.Fatal("queued job removed by terminal clear")
	}
}

func TestRetryFailedRequeues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobStore(t, cfg)

	job, _, err := store.CreateJob(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	now := time.Now().UTC()
	job.Status = jobs.StatusFailed
	job.ErrorMessage = "judge unavailable"
	job.WorkerID = "worker-a"
	job.CompletedAt = &now
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	retried, err := store.RetryFailed(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if retried.Status != jobs.StatusQueued || retried.ErrorMessage != "" || retried.WorkerID != "" {
		t.Fatalf("retry did not reset job: %+v", retried)
	}
	if retried.CompletedAt != nil || retried.StartedAt != nil {
		t.Fatalf("retry kept terminal timestamps: %+v", retried)
	}

	if _, err := store.RetryFailed(context.Background(), job.ID); !services.IsValidation(err) {
		t.Fatalf("expected validation error retrying queued job, got %v", err)
	}
	if _, err := store.RetryFailed(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error for missing job")
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobStore(t, cfg)

	a, _, err := store.CreateJob(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if _, _, err := store.CreateJob(context.Background(), testRequest()); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	a.Status = jobs.StatusFailed
	a.ErrorMessage = "boom"
	if err := store.Update(context.Background(), a); err != nil {
		t.Fatalf("Update: %v", err)
	}

	all, err := store.List(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}

	failed, err := store.List(context.Background(), jobs.StatusFailed, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != a.ID {
		t.Fatalf("status filter wrong: %+v", failed)
	}
}

func TestStatusViewComposesURL(t *testing.T) {
	job := &jobs.Job{
		ID:        "job-1",
		Status:    jobs.StatusProcessing,
		Progress:  &jobs.Progress{Step: "generate_draft", Current: 2, Total: 5},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}
	view := jobs.NewStatusView(job, "https://digest.example/")
	if view.StatusURL != "https://digest.example/api/jobs/job-1" {
		t.Fatalf("status url = %q", view.StatusURL)
	}
	if view.Progress == nil || view.Progress.Current != 2 {
		t.Fatalf("progress = %+v", view.Progress)
	}

	bare := jobs.NewStatusView(job, "")
	if bare.StatusURL != "" {
		t.Fatalf("expected empty status url, got %q", bare.StatusURL)
	}
}
