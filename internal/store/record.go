package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/odishajobs/internal/model"
)

// columns is the select list shared by every query, in scan order.
const columns = `id, title, organization, source_name, notification_url, pdf_url,
	notification_text, category, tags, status, is_ai_processed, is_verified,
	ai_summary, resources, view_count, created_at, updated_at`

// recordRow holds a scanned row before JSON columns are decoded.
type recordRow struct {
	rec       model.JobRecord
	tags      []byte
	summary   []byte
	resources []byte
}

func (r *recordRow) decode() (model.JobRecord, error) {
	rec := r.rec
	rec.Tags = []string{}
	if len(r.tags) > 0 {
		if err := json.Unmarshal(r.tags, &rec.Tags); err != nil {
			return model.JobRecord{}, fmt.Errorf("decoding tags of %s: %w", rec.ID, err)
		}
	}
	if len(r.summary) > 0 {
		var s model.AISummary
		if err := json.Unmarshal(r.summary, &s); err != nil {
			return model.JobRecord{}, fmt.Errorf("decoding ai_summary of %s: %w", rec.ID, err)
		}
		rec.AISummary = &s
	}
	if len(r.resources) > 0 {
		var rs model.ResourceSet
		if err := json.Unmarshal(r.resources, &rs); err != nil {
			return model.JobRecord{}, fmt.Errorf("decoding resources of %s: %w", rec.ID, err)
		}
		rec.Resources = &rs
	}
	return rec, nil
}

// newRecord fills the generated fields of a record about to be inserted.
func newRecord(in model.NewRecord, now time.Time) model.JobRecord {
	status := in.Status
	if status == "" {
		status = model.StatusActive
	}
	category := in.Category
	if category == "" {
		category = model.CategoryOther
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	return model.JobRecord{
		ID:               uuid.NewString(),
		Title:            in.Title,
		Organization:     in.Organization,
		SourceName:       in.SourceName,
		NotificationURL:  in.NotificationURL,
		PDFURL:           in.PDFURL,
		NotificationText: in.NotificationText,
		Category:         category,
		Tags:             tags,
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// encodeJSON marshals v, returning nil for a nil pointer so the column stays NULL.
func encodeJSON[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// setClause is one column assignment of a partial update.
type setClause struct {
	column string
	value  any
}

// updateClauses lists the assignments for the non-nil fields of upd.
func updateClauses(upd model.RecordUpdate) ([]setClause, error) {
	var sets []setClause
	if upd.Tags != nil {
		b, err := json.Marshal(upd.Tags)
		if err != nil {
			return nil, fmt.Errorf("encoding tags: %w", err)
		}
		sets = append(sets, setClause{"tags", b})
	}
	if upd.Status != nil {
		sets = append(sets, setClause{"status", string(*upd.Status)})
	}
	if upd.IsAIProcessed != nil {
		sets = append(sets, setClause{"is_ai_processed", *upd.IsAIProcessed})
	}
	if upd.AISummary != nil {
		b, err := encodeJSON(upd.AISummary)
		if err != nil {
			return nil, fmt.Errorf("encoding ai_summary: %w", err)
		}
		sets = append(sets, setClause{"ai_summary", b})
	}
	if upd.Resources != nil {
		b, err := encodeJSON(upd.Resources)
		if err != nil {
			return nil, fmt.Errorf("encoding resources: %w", err)
		}
		sets = append(sets, setClause{"resources", b})
	}
	return sets, nil
}

// buildFind renders a SELECT for filter. ph returns the placeholder for the
// n-th (1-based) argument.
func buildFind(filter model.RecordFilter, ph func(n int) string) (string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, ph(len(args))))
	}

	if filter.Status != "" {
		add("status = %s", string(filter.Status))
	}
	if filter.Category != "" {
		add("category = %s", string(filter.Category))
	}
	if filter.Title != "" {
		add("title = %s", filter.Title)
	}
	if filter.Organization != "" {
		add("organization = %s", filter.Organization)
	}
	if filter.AIProcessed != nil {
		add("is_ai_processed = %s", *filter.AIProcessed)
	}

	q := "SELECT " + columns + " FROM job_records"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += " LIMIT " + ph(len(args))
	}
	return q, args
}

// buildUpdate renders an UPDATE of sets plus updated_at for the record id.
func buildUpdate(sets []setClause, now any, id string, ph func(n int) string) (string, []any) {
	assignments := make([]string, 0, len(sets)+1)
	args := make([]any, 0, len(sets)+2)
	for _, s := range sets {
		args = append(args, s.value)
		assignments = append(assignments, s.column+" = "+ph(len(args)))
	}
	args = append(args, now)
	assignments = append(assignments, "updated_at = "+ph(len(args)))
	args = append(args, id)
	return "UPDATE job_records SET " + strings.Join(assignments, ", ") + " WHERE id = " + ph(len(args)), args
}
