package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/odishajobs/internal/enrich"
	"github.com/amishk599/odishajobs/internal/model"
	"github.com/amishk599/odishajobs/internal/store"
)

// --- fakes ---

type mockFetcher struct {
	candidates []model.Candidate
	err        error
	calls      int
}

func (m *mockFetcher) FetchCandidates(_ context.Context, _ string) ([]model.Candidate, error) {
	m.calls++
	return m.candidates, m.err
}

type mockText struct {
	text string
	urls []string
}

func (m *mockText) FetchText(_ context.Context, url string) model.NotificationText {
	m.urls = append(m.urls, url)
	return model.NotificationText{Text: m.text, URL: url}
}

type mockDispatcher struct {
	mu      sync.Mutex
	records []model.JobRecord
	err     error
}

func (m *mockDispatcher) Enqueue(_ context.Context, rec model.JobRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return m.err
}

type mockNotifier struct {
	batches [][]model.JobRecord
	err     error
}

func (m *mockNotifier) Notify(records []model.JobRecord) error {
	m.batches = append(m.batches, records)
	return m.err
}

// conflictStore reports every create as a duplicate, as a concurrent run
// winning the race would.
type conflictStore struct {
	*store.MemoryStore
}

func (conflictStore) Create(context.Context, model.NewRecord) (model.JobRecord, error) {
	return model.JobRecord{}, model.ErrDuplicate
}

type failingStore struct {
	*store.MemoryStore
}

func (failingStore) Find(context.Context, model.RecordFilter) ([]model.JobRecord, error) {
	return nil, errors.New("database is locked")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var longText = strings.Repeat("Applications are invited for the post of Junior Engineer. ", 5)

func candidate(title string) model.Candidate {
	return model.Candidate{
		Title:           title,
		Organization:    "Odisha Public Service Commission",
		SourceName:      "opsc",
		NotificationURL: "https://www.opsc.gov.in/notice/" + strings.ReplaceAll(title, " ", "-"),
		Category:        model.CategoryEngineering,
	}
}

func newPipeline(f model.CandidateFetcher, s model.RecordStore, text TextFetcher, d Dispatcher, n model.Notifier) *SourcePipeline {
	return NewSourcePipeline("opsc", "https://www.opsc.gov.in/notices", f, Deps{
		Store:         s,
		Text:          text,
		Dispatcher:    d,
		Notifier:      n,
		MinTextLength: 100,
		Logger:        discardLogger(),
	})
}

// slowProcessor stands in for the enricher so the queue fills up.
type slowProcessor struct {
	mu   sync.Mutex
	seen int
}

func (p *slowProcessor) Enrich(_ context.Context, id string) (model.JobRecord, error) {
	time.Sleep(time.Millisecond)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen++
	return model.JobRecord{ID: id}, nil
}

// --- tests ---

func TestRun_CreatesNewRecords(t *testing.T) {
	s := store.NewMemoryStore()
	fetcher := &mockFetcher{candidates: []model.Candidate{
		candidate("Junior Engineer (Civil) Recruitment"),
		candidate("Assistant Section Officer Recruitment"),
	}}
	text := &mockText{text: longText}
	disp := &mockDispatcher{}
	notif := &mockNotifier{}

	res, err := newPipeline(fetcher, s, text, disp, notif).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Fetched != 2 || len(res.Created) != 2 || res.Duplicates != 0 || res.Failed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(text.urls) != 2 {
		t.Errorf("expected 2 content fetches, got %d", len(text.urls))
	}
	if len(disp.records) != 2 {
		t.Errorf("expected 2 dispatched records, got %d", len(disp.records))
	}
	if len(notif.batches) != 1 || len(notif.batches[0]) != 2 {
		t.Errorf("expected one notify batch of 2, got %v", notif.batches)
	}

	rec := res.Created[0]
	if rec.ID == "" {
		t.Error("expected record id to be assigned")
	}
	if rec.Status != model.StatusActive {
		t.Errorf("expected status active, got %q", rec.Status)
	}
	if rec.IsAIProcessed || rec.IsVerified || rec.AISummary != nil {
		t.Errorf("new record must not be enriched or verified: %+v", rec)
	}
	if rec.NotificationText != longText {
		t.Errorf("expected fetched text to be stored")
	}
	for _, want := range []string{"engineering", "odisha", "government-job", "sarkari-naukri"} {
		if !contains(rec.Tags, want) {
			t.Errorf("expected tag %q in %v", want, rec.Tags)
		}
	}
}

func TestRun_SecondIngestionIsDuplicate(t *testing.T) {
	s := store.NewMemoryStore()
	fetcher := &mockFetcher{candidates: []model.Candidate{candidate("Junior Engineer (Civil) Recruitment")}}
	text := &mockText{text: longText}
	p := newPipeline(fetcher, s, text, &mockDispatcher{}, &mockNotifier{})

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if res.Duplicates != 1 || len(res.Created) != 0 {
		t.Errorf("expected 1 duplicate and no creates, got %+v", res)
	}
	if len(text.urls) != 1 {
		t.Errorf("duplicate must not fetch content, got %d fetches", len(text.urls))
	}
	all, _ := s.Find(context.Background(), model.RecordFilter{})
	if len(all) != 1 {
		t.Errorf("expected 1 stored record, got %d", len(all))
	}
}

func TestRun_ConcurrentCreateConflictIsSkipped(t *testing.T) {
	s := conflictStore{store.NewMemoryStore()}
	fetcher := &mockFetcher{candidates: []model.Candidate{candidate("Junior Engineer (Civil) Recruitment")}}
	disp := &mockDispatcher{}
	notif := &mockNotifier{}

	res, err := newPipeline(fetcher, s, &mockText{text: longText}, disp, notif).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Duplicates != 1 || res.Failed != 0 {
		t.Errorf("expected conflict counted as duplicate, got %+v", res)
	}
	if len(disp.records) != 0 || len(notif.batches) != 0 {
		t.Error("conflict must not dispatch or notify")
	}
}

func TestRun_ShortTextGetsPlaceholder(t *testing.T) {
	s := store.NewMemoryStore()
	fetcher := &mockFetcher{candidates: []model.Candidate{candidate("Junior Engineer (Civil) Recruitment")}}

	res, err := newPipeline(fetcher, s, &mockText{text: ""}, &mockDispatcher{}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Created) != 1 {
		t.Fatalf("expected record created despite empty text, got %+v", res)
	}
	got := res.Created[0].NotificationText
	if !strings.HasPrefix(got, "Junior Engineer (Civil) Recruitment - Odisha Public Service Commission.") {
		t.Errorf("expected placeholder text, got %q", got)
	}
}

func TestRun_AdapterErrorReturned(t *testing.T) {
	fetcher := &mockFetcher{err: model.ErrAdapter}
	notif := &mockNotifier{}

	_, err := newPipeline(fetcher, store.NewMemoryStore(), &mockText{}, &mockDispatcher{}, notif).Run(context.Background())
	if !errors.Is(err, model.ErrAdapter) {
		t.Fatalf("expected ErrAdapter, got %v", err)
	}
	if len(notif.batches) != 0 {
		t.Error("failed listing must not notify")
	}
}

func TestRun_StoreErrorCountsFailedAndContinues(t *testing.T) {
	s := failingStore{store.NewMemoryStore()}
	fetcher := &mockFetcher{candidates: []model.Candidate{
		candidate("Junior Engineer (Civil) Recruitment"),
		candidate("Lecturer in Physics"),
	}}

	res, err := newPipeline(fetcher, s, &mockText{text: longText}, &mockDispatcher{}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("per-candidate failures must not fail the run: %v", err)
	}
	if res.Failed != 2 || len(res.Created) != 0 {
		t.Errorf("expected 2 failures, got %+v", res)
	}
}

func TestRun_DispatchAndNotifyErrorsAreAbsorbed(t *testing.T) {
	s := store.NewMemoryStore()
	fetcher := &mockFetcher{candidates: []model.Candidate{candidate("Junior Engineer (Civil) Recruitment")}}
	disp := &mockDispatcher{err: errors.New("queue full")}
	notif := &mockNotifier{err: errors.New("webhook down")}

	res, err := newPipeline(fetcher, s, &mockText{text: longText}, disp, notif).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Created) != 1 {
		t.Errorf("record must persist when dispatch fails, got %+v", res)
	}
}

func TestRun_CategorizesWhenCandidateHasNone(t *testing.T) {
	c := candidate("Staff Nurse Recruitment")
	c.Category = ""
	fetcher := &mockFetcher{candidates: []model.Candidate{c}}

	res, err := newPipeline(fetcher, store.NewMemoryStore(), &mockText{text: longText}, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Created[0].Category; got != model.CategoryMedical {
		t.Errorf("expected Medical, got %q", got)
	}
}

func TestRun_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetcher := &mockFetcher{candidates: []model.Candidate{candidate("Junior Engineer (Civil) Recruitment")}}

	_, err := newPipeline(fetcher, store.NewMemoryStore(), &mockText{text: longText}, nil, nil).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCandidates_DoesNotPersist(t *testing.T) {
	s := store.NewMemoryStore()
	fetcher := &mockFetcher{candidates: []model.Candidate{candidate("Junior Engineer (Civil) Recruitment")}}

	got, err := newPipeline(fetcher, s, &mockText{}, nil, nil).Candidates(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 candidate, got %d", len(got))
	}
	all, _ := s.Find(context.Background(), model.RecordFilter{})
	if len(all) != 0 {
		t.Errorf("dry run persisted %d records", len(all))
	}
}

func TestDeduplicator_Exists(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	if _, err := s.Create(ctx, model.NewRecord{Title: "Lecturer in Physics", Organization: "OPSC"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	d := NewDeduplicator(s)

	tests := []struct {
		title, org string
		want       bool
	}{
		{"Lecturer in Physics", "OPSC", true},
		{"Lecturer in Physics", "OSSC", false},
		{"Lecturer in Chemistry", "OPSC", false},
	}
	for _, tt := range tests {
		got, err := d.Exists(ctx, tt.title, tt.org)
		if err != nil {
			t.Fatalf("Exists(%q, %q): %v", tt.title, tt.org, err)
		}
		if got != tt.want {
			t.Errorf("Exists(%q, %q) = %v, want %v", tt.title, tt.org, got, tt.want)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestRun_EveryCreatedRecordReachesEnrichmentQueue(t *testing.T) {
	var cands []model.Candidate
	for i := 0; i < 30; i++ {
		c := candidate(fmt.Sprintf("Assistant Section Officer %d", i))
		c.PDFURL = c.NotificationURL + ".pdf"
		cands = append(cands, c)
	}
	proc := &slowProcessor{}
	q := enrich.NewQueue(proc, discardLogger(), enrich.WithWorkers(1), enrich.WithQueueSize(4))

	res, err := newPipeline(&mockFetcher{candidates: cands}, store.NewMemoryStore(), &mockText{text: longText}, q, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Created) != 30 {
		t.Fatalf("expected 30 created, got %d", len(res.Created))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	st := q.Stats()
	if st.Enqueued != 30 || st.Dropped != 0 || st.Succeeded != 30 {
		t.Errorf("expected all 30 records enriched, got %+v", st)
	}
	if proc.seen != 30 {
		t.Errorf("expected processor to see 30 records, got %d", proc.seen)
	}
}
