package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/odishajobs/internal/model"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS job_records (
	id                TEXT PRIMARY KEY,
	title             TEXT NOT NULL,
	organization      TEXT NOT NULL,
	source_name       TEXT NOT NULL DEFAULT '',
	notification_url  TEXT NOT NULL DEFAULT '',
	pdf_url           TEXT NOT NULL DEFAULT '',
	notification_text TEXT NOT NULL DEFAULT '',
	category          TEXT NOT NULL,
	tags              JSONB NOT NULL DEFAULT '[]'::jsonb,
	status            TEXT NOT NULL,
	is_ai_processed   BOOLEAN NOT NULL DEFAULT false,
	is_verified       BOOLEAN NOT NULL DEFAULT false,
	ai_summary        JSONB,
	resources         JSONB,
	view_count        INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL,
	UNIQUE (title, organization)
);
CREATE INDEX IF NOT EXISTS idx_job_records_status ON job_records (status);
CREATE INDEX IF NOT EXISTS idx_job_records_ai ON job_records (is_ai_processed);`

// PostgresStore persists job records in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL, verifies the connection and
// ensures the job_records table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating job_records table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func postgresPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func scanPostgres(row pgx.Row) (model.JobRecord, error) {
	var r recordRow
	var category, status string
	err := row.Scan(
		&r.rec.ID, &r.rec.Title, &r.rec.Organization, &r.rec.SourceName, &r.rec.NotificationURL, &r.rec.PDFURL,
		&r.rec.NotificationText, &category, &r.tags, &status, &r.rec.IsAIProcessed, &r.rec.IsVerified,
		&r.summary, &r.resources, &r.rec.ViewCount, &r.rec.CreatedAt, &r.rec.UpdatedAt,
	)
	if err != nil {
		return model.JobRecord{}, err
	}
	r.rec.Category = model.Category(category)
	r.rec.Status = model.Status(status)
	r.rec.CreatedAt = r.rec.CreatedAt.UTC()
	r.rec.UpdatedAt = r.rec.UpdatedAt.UTC()
	return r.decode()
}

// Find returns records matching filter, newest first.
func (s *PostgresStore) Find(ctx context.Context, filter model.RecordFilter) ([]model.JobRecord, error) {
	q, args := buildFind(filter, postgresPlaceholder)
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query job_records: %w", err)
	}
	defer rows.Close()

	records := []model.JobRecord{}
	for rows.Next() {
		rec, err := scanPostgres(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job records: %w", err)
	}
	return records, nil
}

// FindByID returns the record with id, or model.ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*model.JobRecord, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+columns+" FROM job_records WHERE id = $1", id)
	rec, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load job record %s: %w", id, err)
	}
	return &rec, nil
}

// Create inserts a new record, skipping on a natural-key conflict. A
// conflict is reported as model.ErrDuplicate.
func (s *PostgresStore) Create(ctx context.Context, in model.NewRecord) (model.JobRecord, error) {
	rec := newRecord(in, time.Now().UTC())
	tags, err := encodeJSON(&rec.Tags)
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("encode tags: %w", err)
	}

	var id string
	err = s.pool.QueryRow(ctx, `INSERT INTO job_records
		(id, title, organization, source_name, notification_url, pdf_url, notification_text,
		 category, tags, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11, $12)
		ON CONFLICT (title, organization) DO NOTHING
		RETURNING id`,
		rec.ID, rec.Title, rec.Organization, rec.SourceName, rec.NotificationURL, rec.PDFURL, rec.NotificationText,
		string(rec.Category), string(tags), string(rec.Status), rec.CreatedAt, rec.UpdatedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.JobRecord{}, fmt.Errorf("%w: %q / %q", model.ErrDuplicate, rec.Title, rec.Organization)
	}
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("insert job record %q: %w", rec.Title, err)
	}
	return rec, nil
}

// Update applies the non-nil fields of upd and returns the updated record.
func (s *PostgresStore) Update(ctx context.Context, id string, upd model.RecordUpdate) (model.JobRecord, error) {
	sets, err := updateClauses(upd)
	if err != nil {
		return model.JobRecord{}, err
	}
	q, args := buildUpdate(sets, time.Now().UTC(), id, postgresPlaceholder)

	tag, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("update job record %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.JobRecord{}, model.ErrNotFound
	}

	rec, err := s.FindByID(ctx, id)
	if err != nil {
		return model.JobRecord{}, err
	}
	return *rec, nil
}

// Delete removes the record with id and reports whether it existed.
func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM job_records WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete job record %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
