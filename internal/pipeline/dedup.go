package pipeline

import (
	"context"
	"fmt"

	"github.com/amishk599/odishajobs/internal/model"
)

// Deduplicator decides whether a candidate is already stored under its
// natural key.
type Deduplicator struct {
	store model.RecordStore
}

// NewDeduplicator creates a Deduplicator backed by store.
func NewDeduplicator(store model.RecordStore) *Deduplicator {
	return &Deduplicator{store: store}
}

// Exists reports whether a record with title and organization is stored.
func (d *Deduplicator) Exists(ctx context.Context, title, organization string) (bool, error) {
	found, err := d.store.Find(ctx, model.RecordFilter{
		Title:        title,
		Organization: organization,
		Limit:        1,
	})
	if err != nil {
		return false, fmt.Errorf("dedup lookup %q: %w", title, err)
	}
	return len(found) > 0, nil
}
