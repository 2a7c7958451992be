package items

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

	_ "modernc.org/sqlite"

	"clipdigest/internal/config"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Filters narrows candidate queries. Zero values mean "no constraint".
type Filters struct {
	MinViews    int
	MinDuration float64
	MaxDuration float64
	Categories  []string
}

// Store manages content-item persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the item database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "items.db")
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

	store := &Store{db: db, path: dbPath}
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
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if count == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// Upsert inserts or replaces an item record, bumping updated_at.
func (s *Store) Upsert(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	if strings.TrimSpace(item.ID) == "" {
		return errors.New("item id required")
	}
	if item.Status == "" {
		item.Status = StatusPending
	}
	now := time.Now().UTC()
	if item.StoredAt.IsZero() {
		item.StoredAt = now
	}
	item.UpdatedAt = now

	tagsJSON, err := marshalTags(item.Tags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO content_items (
            id, title, source_url, duration_seconds, view_count, quality_score,
            created_at, status, transcript_url, transcript_bytes,
            transcript_summary, context_url, context_bytes, content_score,
            category, tags_json, stored_at, enhanced_at, content_ready_at,
            updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            title = excluded.title,
            source_url = excluded.source_url,
            duration_seconds = excluded.duration_seconds,
            view_count = excluded.view_count,
            quality_score = excluded.quality_score,
            created_at = excluded.created_at,
            status = excluded.status,
            transcript_url = excluded.transcript_url,
            transcript_bytes = excluded.transcript_bytes,
            transcript_summary = excluded.transcript_summary,
            context_url = excluded.context_url,
            context_bytes = excluded.context_bytes,
            content_score = excluded.content_score,
            category = excluded.category,
            tags_json = excluded.tags_json,
            enhanced_at = excluded.enhanced_at,
            content_ready_at = excluded.content_ready_at,
            updated_at = excluded.updated_at`,
		item.ID,
		nullableString(item.Title),
		nullableString(item.SourceURL),
		item.DurationSeconds,
		item.ViewCount,
		item.QualityScore,
		item.CreatedAt.UTC().Format(time.RFC3339Nano),
		item.Status,
		nullableString(item.Transcript.URL),
		item.Transcript.SizeBytes,
		nullableString(item.Transcript.Summary),
		nullableString(item.Context.URL),
		item.Context.SizeBytes,
		item.ContentScore,
		nullableString(item.Category),
		nullableString(tagsJSON),
		item.StoredAt.Format(time.RFC3339Nano),
		nullableTime(item.EnhancedAt),
		nullableTime(item.ContentReadyAt),
		item.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

// GetByID fetches an item by identifier, returning nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM content_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListByDateRange returns items whose creation timestamp falls in
// [from, to], newest first, honoring the optional filters.
func (s *Store) ListByDateRange(ctx context.Context, from, to time.Time, filters Filters) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM content_items WHERE created_at >= ? AND created_at <= ?`
	args := []any{from.UTC().Format(time.RFC3339Nano), to.UTC().Format(time.RFC3339Nano)}

	if filters.MinViews > 0 {
		query += ` AND view_count >= ?`
		args = append(args, filters.MinViews)
	}
	if filters.MinDuration > 0 {
		query += ` AND duration_seconds >= ?`
		args = append(args, filters.MinDuration)
	}
	if filters.MaxDuration > 0 {
		query += ` AND duration_seconds <= ?`
		args = append(args, filters.MaxDuration)
	}
	if len(filters.Categories) > 0 {
		query += ` AND category IN (` + makePlaceholders(len(filters.Categories)) + `)`
		for _, category := range filters.Categories {
			args = append(args, category)
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var result []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// Advance transitions an item forward and persists it.
func (s *Store) Advance(ctx context.Context, item *Item, to ProcessingStatus) error {
	if item == nil {
		return errors.New("item is nil")
	}
	if err := item.Advance(to, time.Now()); err != nil {
		return err
	}
	return s.Upsert(ctx, item)
}

// Stats returns a count of items grouped by processing status.
func (s *Store) Stats(ctx context.Context) (map[ProcessingStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM content_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("item stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[ProcessingStatus]int)
	for rows.Next() {
		var status ProcessingStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const itemColumns = "id, title, source_url, duration_seconds, view_count, quality_score, created_at, status, transcript_url, transcript_bytes, transcript_summary, context_url, context_bytes, content_score, category, tags_json, stored_at, enhanced_at, content_ready_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id                string
		title             sql.NullString
		sourceURL         sql.NullString
		duration          float64
		views             int
		quality           float64
		createdRaw        string
		statusStr         string
		transcriptURL     sql.NullString
		transcriptBytes   int64
		transcriptSummary sql.NullString
		contextURL        sql.NullString
		contextBytes      int64
		score             int
		category          sql.NullString
		tagsJSON          sql.NullString
		storedRaw         string
		enhancedRaw       sql.NullString
		readyRaw          sql.NullString
		updatedRaw        string
	)

	if err := scanner.Scan(
		&id,
		&title,
		&sourceURL,
		&duration,
		&views,
		&quality,
		&createdRaw,
		&statusStr,
		&transcriptURL,
		&transcriptBytes,
		&transcriptSummary,
		&contextURL,
		&contextBytes,
		&score,
		&category,
		&tagsJSON,
		&storedRaw,
		&enhancedRaw,
		&readyRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		Title:           title.String,
		SourceURL:       sourceURL.String,
		DurationSeconds: duration,
		ViewCount:       views,
		QualityScore:    quality,
		Status:          ProcessingStatus(statusStr),
		Transcript: ArtifactRef{
			URL:       transcriptURL.String,
			SizeBytes: transcriptBytes,
			Summary:   transcriptSummary.String,
		},
		Context: ArtifactRef{
			URL:       contextURL.String,
			SizeBytes: contextBytes,
		},
		ContentScore: score,
		Category:     category.String,
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &item.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for %s: %w", id, err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	if stored, err := parseTimeString(storedRaw); err == nil {
		item.StoredAt = stored
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	if enhancedRaw.Valid {
		if t, err := parseTimeString(enhancedRaw.String); err == nil {
			item.EnhancedAt = &t
		}
	}
	if readyRaw.Valid {
		if t, err := parseTimeString(readyRaw.String); err == nil {
			item.ContentReadyAt = &t
		}
	}
	return item, nil
}

func marshalTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "", nil
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(encoded), nil
}

func nullableString(value string) any {
	if value == "" {
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
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
