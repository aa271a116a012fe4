package store

import (
	"context"
	"time"

	"github.com/amishk599/odishajobs/internal/model"
)

// NopStore is a no-op store used in dry-run mode. It never finds a record,
// so every candidate appears new, and Create returns records it does not keep.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Find(context.Context, model.RecordFilter) ([]model.JobRecord, error) {
	return []model.JobRecord{}, nil
}

func (s *NopStore) FindByID(context.Context, string) (*model.JobRecord, error) {
	return nil, model.ErrNotFound
}

func (s *NopStore) Create(_ context.Context, in model.NewRecord) (model.JobRecord, error) {
	return newRecord(in, time.Now().UTC()), nil
}

func (s *NopStore) Update(context.Context, string, model.RecordUpdate) (model.JobRecord, error) {
	return model.JobRecord{}, model.ErrNotFound
}

func (s *NopStore) Delete(context.Context, string) (bool, error) { return false, nil }

func (s *NopStore) Close() error { return nil }
