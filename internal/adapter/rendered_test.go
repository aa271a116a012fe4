package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/amishk599/odishajobs/internal/model"
)

type fakeRenderer struct {
	html        string
	err         error
	gotURL      string
	gotSelector string
}

func (f *fakeRenderer) Render(_ context.Context, pageURL, waitSelector string) (string, error) {
	f.gotURL = pageURL
	f.gotSelector = waitSelector
	return f.html, f.err
}

const commissionPage = `<html><body><div id="list">
<div class="job-listing">
  <span class="job-title">Assistant Section Officer</span>
  <a href="Recruitment/aso.aspx">View</a>
  <a class="pdf-link" href="/Docs/aso-advt.pdf">PDF</a>
</div>
<div class="job-listing">
  <span class="job-title">Lecturer in Physics</span>
  <a href="https://opsc.example.in/lecturer">View</a>
</div>
</div></body></html>`

func TestRenderedFetchCandidates_Success(t *testing.T) {
	r := &fakeRenderer{html: commissionPage}
	a := NewRenderedAdapter(Source{Name: "OPSC", Organization: "Odisha Public Service Commission"}, r)

	got, err := a.FetchCandidates(context.Background(), "https://opsc.example.in/Recruitment/Current.aspx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.gotSelector != ".job-listing" {
		t.Errorf("waited for %q, want default listing selector", r.gotSelector)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}

	first := got[0]
	if first.NotificationURL != "https://opsc.example.in/Recruitment/aso.aspx" {
		t.Errorf("notification url = %q", first.NotificationURL)
	}
	if first.PDFURL != "https://opsc.example.in/Docs/aso-advt.pdf" {
		t.Errorf("pdf url = %q", first.PDFURL)
	}
	if first.Category != model.CategoryAdministrative {
		t.Errorf("category = %s, want Administrative", first.Category)
	}
	if got[1].PDFURL != "" {
		t.Errorf("expected no pdf url, got %q", got[1].PDFURL)
	}
	if got[1].Category != model.CategoryTeaching {
		t.Errorf("category = %s, want Teaching", got[1].Category)
	}
}

func TestRenderedFetchCandidates_RenderFailure(t *testing.T) {
	r := &fakeRenderer{err: context.DeadlineExceeded}
	a := NewRenderedAdapter(Source{Name: "OPSC"}, r)

	got, err := a.FetchCandidates(context.Background(), "https://opsc.example.in/")
	if !errors.Is(err, model.ErrAdapter) {
		t.Fatalf("expected ErrAdapter, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped deadline error, got %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %v", got)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name string
		page string
		href string
		want string
	}{
		{"absolute https", "https://a.in/x/y", "https://b.in/z", "https://b.in/z"},
		{"root relative", "https://a.in/x/y", "/docs/1.pdf", "https://a.in/docs/1.pdf"},
		{"path relative uses origin", "https://a.in/x/y.aspx", "docs/1.pdf", "https://a.in/docs/1.pdf"},
		{"protocol relative", "https://a.in/x", "//cdn.a.in/f", "https://cdn.a.in/f"},
		{"whitespace", "https://a.in/", "  /n  ", "https://a.in/n"},
		{"empty", "https://a.in/", "", ""},
		{"javascript link", "https://a.in/", "javascript:void(0)", ""},
		{"mailto link", "https://a.in/", "mailto:hr@a.in", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveURL(tc.page, tc.href); got != tc.want {
				t.Errorf("resolveURL(%q, %q) = %q, want %q", tc.page, tc.href, got, tc.want)
			}
		})
	}
}
