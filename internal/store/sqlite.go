package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/odishajobs/internal/model"
)

// SQLiteStore persists job records in a SQLite database. The natural key
// (title, organization) is enforced by a UNIQUE constraint.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `CREATE TABLE IF NOT EXISTS job_records (
	id                TEXT PRIMARY KEY,
	title             TEXT NOT NULL,
	organization      TEXT NOT NULL,
	source_name       TEXT NOT NULL DEFAULT '',
	notification_url  TEXT NOT NULL DEFAULT '',
	pdf_url           TEXT NOT NULL DEFAULT '',
	notification_text TEXT NOT NULL DEFAULT '',
	category          TEXT NOT NULL,
	tags              TEXT NOT NULL DEFAULT '[]',
	status            TEXT NOT NULL,
	is_ai_processed   INTEGER NOT NULL DEFAULT 0,
	is_verified       INTEGER NOT NULL DEFAULT 0,
	ai_summary        TEXT,
	resources         TEXT,
	view_count        INTEGER NOT NULL DEFAULT 0,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL,
	UNIQUE (title, organization)
);
CREATE INDEX IF NOT EXISTS idx_job_records_status ON job_records (status);
CREATE INDEX IF NOT EXISTS idx_job_records_ai ON job_records (is_ai_processed);`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// job_records table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One writer keeps concurrent enrichment updates from hitting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating job_records table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func sqlitePlaceholder(int) string { return "?" }

// sqliteTime is fixed width so that text ordering matches time ordering.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(sqliteTime) }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row rowScanner) (model.JobRecord, error) {
	var r recordRow
	var category, status, created, updated string
	err := row.Scan(
		&r.rec.ID, &r.rec.Title, &r.rec.Organization, &r.rec.SourceName, &r.rec.NotificationURL, &r.rec.PDFURL,
		&r.rec.NotificationText, &category, &r.tags, &status, &r.rec.IsAIProcessed, &r.rec.IsVerified,
		&r.summary, &r.resources, &r.rec.ViewCount, &created, &updated,
	)
	if err != nil {
		return model.JobRecord{}, err
	}
	r.rec.Category = model.Category(category)
	r.rec.Status = model.Status(status)
	if r.rec.CreatedAt, err = time.Parse(sqliteTime, created); err != nil {
		return model.JobRecord{}, fmt.Errorf("parsing created_at of %s: %w", r.rec.ID, err)
	}
	if r.rec.UpdatedAt, err = time.Parse(sqliteTime, updated); err != nil {
		return model.JobRecord{}, fmt.Errorf("parsing updated_at of %s: %w", r.rec.ID, err)
	}
	return r.decode()
}

// Find returns records matching filter, newest first.
func (s *SQLiteStore) Find(ctx context.Context, filter model.RecordFilter) ([]model.JobRecord, error) {
	q, args := buildFind(filter, sqlitePlaceholder)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying job records: %w", err)
	}
	defer rows.Close()

	records := []model.JobRecord{}
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job records: %w", err)
	}
	return records, nil
}

// FindByID returns the record with id, or model.ErrNotFound.
func (s *SQLiteStore) FindByID(ctx context.Context, id string) (*model.JobRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM job_records WHERE id = ?", id)
	rec, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading job record %s: %w", id, err)
	}
	return &rec, nil
}

// Create inserts a new record. A record with the same title and organization
// makes it fail with model.ErrDuplicate.
func (s *SQLiteStore) Create(ctx context.Context, in model.NewRecord) (model.JobRecord, error) {
	rec := newRecord(in, time.Now().UTC())
	tags, err := encodeJSON(&rec.Tags)
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("encoding tags: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO job_records
		(id, title, organization, source_name, notification_url, pdf_url, notification_text,
		 category, tags, status, is_ai_processed, is_verified, view_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, ?, ?)
		ON CONFLICT (title, organization) DO NOTHING`,
		rec.ID, rec.Title, rec.Organization, rec.SourceName, rec.NotificationURL, rec.PDFURL, rec.NotificationText,
		string(rec.Category), tags, string(rec.Status), formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("inserting job record %q: %w", rec.Title, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("inserting job record %q: %w", rec.Title, err)
	}
	if n == 0 {
		return model.JobRecord{}, fmt.Errorf("%w: %q / %q", model.ErrDuplicate, rec.Title, rec.Organization)
	}
	return rec, nil
}

// Update applies the non-nil fields of upd and returns the updated record.
func (s *SQLiteStore) Update(ctx context.Context, id string, upd model.RecordUpdate) (model.JobRecord, error) {
	sets, err := updateClauses(upd)
	if err != nil {
		return model.JobRecord{}, err
	}
	q, args := buildUpdate(sets, formatTime(time.Now()), id, sqlitePlaceholder)

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("updating job record %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.JobRecord{}, model.ErrNotFound
	}

	rec, err := s.FindByID(ctx, id)
	if err != nil {
		return model.JobRecord{}, err
	}
	return *rec, nil
}

// Delete removes the record with id and reports whether it existed.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM job_records WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting job record %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting job record %s: %w", id, err)
	}
	return n > 0, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
