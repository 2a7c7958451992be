package jobs

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"clipdigest/internal/config"
	"clipdigest/internal/services"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	ttl  time.Duration
}

// Open initializes or connects to the job database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "jobs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	ttl := time.Duration(cfg.Workflow.JobTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	store := &Store{db: db, path: dbPath, ttl: ttl}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version.Int64 != schemaVersion:
		return fmt.Errorf("%w: have %d, want %d", ErrSchemaMismatch, version.Int64, schemaVersion)
	}
	return nil
}

// CreateJob validates the request, allocates an id, and stores a queued job
// with an expiry. Invalid requests are never enqueued.
func (s *Store) CreateJob(ctx context.Context, request ContentGenerationRequest) (*Job, QueueMessage, error) {
	if err := request.Validate(); err != nil {
		return nil, QueueMessage{}, err
	}
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Request:   request,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.Create(ctx, job); err != nil {
		return nil, QueueMessage{}, err
	}
	return job, job.Message(""), nil
}

// Create inserts a new job row.
func (s *Store) Create(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	if strings.TrimSpace(job.ID) == "" {
		return errors.New("job id required")
	}
	requestJSON, err := json.Marshal(job.Request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	progressJSON, err := marshalProgress(job.Progress)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            id, status, progress_json, request_json, result_json,
            error_message, worker_id, created_at, updated_at, started_at,
            completed_at, expires_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.Status,
		nullableString(progressJSON),
		string(requestJSON),
		nullableString(string(job.Result)),
		nullableString(job.ErrorMessage),
		nullableString(job.WorkerID),
		job.CreatedAt.UTC().Format(time.RFC3339Nano),
		job.UpdatedAt.UTC().Format(time.RFC3339Nano),
		nullableTime(job.StartedAt),
		nullableTime(job.CompletedAt),
		job.ExpiresAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetByID fetches a job by identifier, returning nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Update writes the full job row atomically, bumping updated_at strictly
// forward.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.Touch(time.Now())

	requestJSON, err := json.Marshal(job.Request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	progressJSON, err := marshalProgress(job.Progress)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET
            status = ?, progress_json = ?, request_json = ?, result_json = ?,
            error_message = ?, worker_id = ?, updated_at = ?, started_at = ?,
            completed_at = ?, expires_at = ?
        WHERE id = ?`,
		job.Status,
		nullableString(progressJSON),
		string(requestJSON),
		nullableString(string(job.Result)),
		nullableString(job.ErrorMessage),
		nullableString(job.WorkerID),
		job.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(job.StartedAt),
		nullableTime(job.CompletedAt),
		job.ExpiresAt.UTC().Format(time.RFC3339Nano),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job rows: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "jobs", "update", "job "+job.ID+" not found", nil)
	}
	return nil
}

// List returns jobs newest first, optionally filtered by status. A limit of
// 0 applies a sane default.
func (s *Store) List(ctx context.Context, status Status, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

// NextQueued claims up to limit unclaimed queued jobs for a worker, oldest
// first. Claiming stamps the worker id inside one transaction so two
// workers never hold the same job.
func (s *Store) NextQueued(ctx context.Context, workerID string, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 1
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs
        WHERE status = ? AND (worker_id IS NULL OR worker_id = '')
        ORDER BY created_at ASC LIMIT ?`,
		StatusQueued,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select queued: %w", err)
	}
	var claimed []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		claimed = append(claimed, job)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, job := range claimed {
		job.WorkerID = workerID
		job.Touch(time.Now())
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE jobs SET worker_id = ?, updated_at = ? WHERE id = ?`,
			workerID,
			job.UpdatedAt.Format(time.RFC3339Nano),
			job.ID,
		); err != nil {
			return nil, fmt.Errorf("claim job %s: %w", job.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return claimed, nil
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// ReapExpired deletes jobs whose expiry has passed, returning the number
// removed. A job is never "stuck" beyond its expiry: the sweep removes it
// regardless of status.
func (s *Store) ReapExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(
		ctx,
		`DELETE FROM jobs WHERE expires_at <= ?`,
		now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reap expired jobs: %w", err)
	}
	return result.RowsAffected()
}

// ClearTerminal removes completed and failed jobs, returning the number
// removed.
func (s *Store) ClearTerminal(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(
		ctx,
		`DELETE FROM jobs WHERE status IN (?, ?)`,
		StatusCompleted,
		StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("clear terminal jobs: %w", err)
	}
	return result.RowsAffected()
}

// RetryFailed moves a failed job back to queued, clearing its error and
// claim so a worker can pick it up again. Retry is a scheduler concern;
// the processor itself never retries.
func (s *Store) RetryFailed(ctx context.Context, id string) (*Job, error) {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "retry", "job "+id+" not found", nil)
	}
	if job.Status != StatusFailed {
		return nil, services.Wrap(services.ErrValidation, "jobs", "retry", "job "+id+" is "+string(job.Status)+", not failed", nil)
	}

	now := time.Now().UTC()
	job.Status = StatusQueued
	job.Progress = nil
	job.Result = nil
	job.ErrorMessage = ""
	job.WorkerID = ""
	job.StartedAt = nil
	job.CompletedAt = nil
	job.ExpiresAt = now.Add(s.ttl)
	if err := s.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

const jobColumns = "id, status, progress_json, request_json, result_json, error_message, worker_id, created_at, updated_at, started_at, completed_at, expires_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           string
		statusStr    string
		progressJSON sql.NullString
		requestJSON  string
		resultJSON   sql.NullString
		errorMessage sql.NullString
		workerID     sql.NullString
		createdRaw   string
		updatedRaw   string
		startedRaw   sql.NullString
		completedRaw sql.NullString
		expiresRaw   string
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&progressJSON,
		&requestJSON,
		&resultJSON,
		&errorMessage,
		&workerID,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&completedRaw,
		&expiresRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:           id,
		Status:       Status(statusStr),
		ErrorMessage: errorMessage.String,
		WorkerID:     workerID.String,
	}
	if err := json.Unmarshal([]byte(requestJSON), &job.Request); err != nil {
		return nil, fmt.Errorf("decode request for %s: %w", id, err)
	}
	if progressJSON.Valid && progressJSON.String != "" {
		var progress Progress
		if err := json.Unmarshal([]byte(progressJSON.String), &progress); err != nil {
			return nil, fmt.Errorf("decode progress for %s: %w", id, err)
		}
		job.Progress = &progress
	}
	if resultJSON.Valid && resultJSON.String != "" {
		job.Result = json.RawMessage(resultJSON.String)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	if expires, err := parseTimeString(expiresRaw); err == nil {
		job.ExpiresAt = expires
	}
	if startedRaw.Valid {
		if t, err := parseTimeString(startedRaw.String); err == nil {
			job.StartedAt = &t
		}
	}
	if completedRaw.Valid {
		if t, err := parseTimeString(completedRaw.String); err == nil {
			job.CompletedAt = &t
		}
	}
	return job, nil
}

func marshalProgress(progress *Progress) (string, error) {
	if progress == nil {
		return "", nil
	}
	encoded, err := json.Marshal(progress)
	if err != nil {
		return "", fmt.Errorf("encode progress: %w", err)
	}
	return string(encoded), nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}
