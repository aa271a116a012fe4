package model

import (
	"context"
	"time"
)

// Category is the fixed job category derived from a posting title.
type Category string

const (
	CategoryEngineering    Category = "Engineering"
	CategoryTeaching       Category = "Teaching"
	CategoryPolice         Category = "Police"
	CategoryMedical        Category = "Medical"
	CategoryAdministrative Category = "Administrative"
	CategoryRailway        Category = "Railway"
	CategoryBanking        Category = "Banking"
	CategoryOther          Category = "Other"
)

// Status is the lifecycle flag of a JobRecord.
type Status string

const (
	StatusUpcoming       Status = "upcoming"
	StatusActive         Status = "active"
	StatusClosed         Status = "closed"
	StatusResultDeclared Status = "result_declared"
)

// Candidate is a minimally parsed posting found on a source listing page.
// It is never persisted directly.
type Candidate struct {
	Title           string
	Organization    string
	SourceName      string
	NotificationURL string
	PDFURL          string // empty when the listing has no document link
	Category        Category
}

// NotificationText is the cleaned text of a notification page.
type NotificationText struct {
	Text      string
	URL       string
	FetchedAt time.Time
}

// ImportantDates holds the calendar dates of a recruitment cycle. Nil means absent.
type ImportantDates struct {
	ApplicationStart *time.Time `json:"applicationStart"`
	ApplicationEnd   *time.Time `json:"applicationEnd"`
	ExamDate         *time.Time `json:"examDate"`
	ResultDate       *time.Time `json:"resultDate"`
}

// AgeLimit is the age eligibility window. Nil bounds mean absent.
type AgeLimit struct {
	Min        *int   `json:"min"`
	Max        *int   `json:"max"`
	Relaxation string `json:"relaxation"`
}

// Vacancies holds the total post count and the per reservation-category breakdown.
type Vacancies struct {
	Total    int            `json:"total"`
	Category map[string]int `json:"category"`
}

// ApplicationFees holds fee amounts per applicant group. Nil means unknown.
type ApplicationFees struct {
	General *float64 `json:"general"`
	OBC     *float64 `json:"obc"`
	SCST    *float64 `json:"scst"`
	Female  *float64 `json:"female"`
}

// AISummary is the structured extraction of a notification. After
// normalization every field is populated (lists non-nil, maps non-nil).
type AISummary struct {
	ShortSummary     string          `json:"shortSummary"`
	Eligibility      []string        `json:"eligibility"`
	ImportantDates   ImportantDates  `json:"importantDates"`
	AgeLimit         AgeLimit        `json:"ageLimit"`
	Qualification    []string        `json:"qualification"`
	Vacancies        Vacancies       `json:"vacancies"`
	ApplicationFees  ApplicationFees `json:"applicationFees"`
	SelectionProcess []string        `json:"selectionProcess"`
	Salary           string          `json:"salary"`
	HowToApply       string          `json:"howToApply"`
}

// SearchLink pairs a search query with its external video-search URL.
type SearchLink struct {
	Query string `json:"query"`
	URL   string `json:"url"`
}

// Video is a video-index search hit merged with its aggregate statistics.
type Video struct {
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title"`
	ChannelName  string    `json:"channelName"`
	Thumbnail    string    `json:"thumbnail"`
	PublishedAt  time.Time `json:"publishedAt"`
	ViewCount    int64     `json:"viewCount"`
	LikeCount    int64     `json:"likeCount"`
	CommentCount int64     `json:"commentCount"`
}

// ResourceSet holds exam-preparation search suggestions for a record.
type ResourceSet struct {
	SearchQueries []string     `json:"searchQueries"`
	ExamType      string       `json:"examType"`
	MainSubjects  []string     `json:"mainSubjects"`
	SearchLinks   []SearchLink `json:"searchLinks"`
	Videos        []Video      `json:"videos,omitempty"` // strict mode only
}

// JobRecord is the persisted aggregate. (Title, Organization) is the natural key.
type JobRecord struct {
	ID               string
	Title            string
	Organization     string
	SourceName       string
	NotificationURL  string
	PDFURL           string
	NotificationText string
	Category         Category
	Tags             []string
	Status           Status
	IsAIProcessed    bool
	IsVerified       bool // owned by the admin workflow
	AISummary        *AISummary
	Resources        *ResourceSet
	ViewCount        int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewRecord is the data needed to create a JobRecord.
type NewRecord struct {
	Title            string
	Organization     string
	SourceName       string
	NotificationURL  string
	PDFURL           string
	NotificationText string
	Category         Category
	Tags             []string
	Status           Status
}

// RecordUpdate is a partial update; nil fields are left unchanged.
type RecordUpdate struct {
	Tags          []string
	Status        *Status
	IsAIProcessed *bool
	AISummary     *AISummary
	Resources     *ResourceSet
}

// RecordFilter selects records in Find. Zero-valued fields do not filter.
type RecordFilter struct {
	Status       Status
	Category     Category
	Title        string // natural-key equality, used together with Organization
	Organization string
	AIProcessed  *bool
	Limit        int
}

// CandidateFetcher extracts candidate postings from a source listing page.
type CandidateFetcher interface {
	FetchCandidates(ctx context.Context, url string) ([]Candidate, error)
}

// RecordStore persists JobRecords.
type RecordStore interface {
	Find(ctx context.Context, filter RecordFilter) ([]JobRecord, error)
	FindByID(ctx context.Context, id string) (*JobRecord, error)
	Create(ctx context.Context, rec NewRecord) (JobRecord, error)
	Update(ctx context.Context, id string, upd RecordUpdate) (JobRecord, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Notifier announces newly created records.
type Notifier interface {
	Notify(records []JobRecord) error
}
