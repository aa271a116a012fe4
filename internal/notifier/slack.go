package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/amishk599/odishajobs/internal/model"
	"github.com/amishk599/odishajobs/internal/retry"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts new job records to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	pause      time.Duration
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each record to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		pause:      500 * time.Millisecond,
		logger:     logger,
	}
}

// Notify sends each record as a separate Slack message using Block Kit.
// Returns an error only if ALL messages fail. Individual failures are logged.
func (s *SlackNotifier) Notify(records []model.JobRecord) error {
	if len(records) == 0 {
		return nil
	}

	failures := 0
	for i, r := range records {
		if i > 0 {
			time.Sleep(s.pause)
		}

		if err := s.sendMessage(r); err != nil {
			s.logger.Error("slack notification failed", "record_id", r.ID, "title", r.Title, "error", err)
			failures++
		}
	}

	sent := len(records) - failures
	if failures == len(records) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Info("slack notifications complete", "sent", sent, "failed", failures)
	return nil
}

func (s *SlackNotifier) sendMessage(r model.JobRecord) error {
	body, err := json.Marshal(buildPayload(r))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := retry.ParseRetryAfter(resp.Header.Get("Retry-After"))
		if wait <= 0 {
			wait = time.Second
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after", wait)
		time.Sleep(wait)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return &model.HTTPError{StatusCode: resp2.StatusCode, Err: fmt.Errorf("slack rejected message on retry")}
		}
		s.logger.Debug("slack message sent", "record_id", r.ID, "retried", true)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return &model.HTTPError{StatusCode: resp.StatusCode, Err: fmt.Errorf("slack rejected message")}
	}
	s.logger.Debug("slack message sent", "record_id", r.ID)
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style,omitempty"`
}

// SendTestMessage sends a dummy record notification to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	now := time.Now()
	test := model.JobRecord{
		ID:              "test-001",
		Title:           "Test Notification (Integration Verified)",
		Organization:    "OdishaJobs",
		SourceName:      "test",
		NotificationURL: "https://www.odisha.gov.in/",
		Category:        model.CategoryOther,
		Status:          model.StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return n.Notify([]model.JobRecord{test})
}

func buildPayload(r model.JobRecord) slackPayload {
	buttons := []slackElement{
		{
			Type:  "button",
			Text:  slackText{Type: "plain_text", Text: "View Notification"},
			URL:   r.NotificationURL,
			Style: "primary",
		},
	}
	if r.PDFURL != "" {
		buttons = append(buttons, slackElement{
			Type: "button",
			Text: slackText{Type: "plain_text", Text: "Download PDF"},
			URL:  r.PDFURL,
		})
	}

	return slackPayload{Blocks: []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "📢 " + r.Organization + ": " + r.Title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Organization:*\n" + r.Organization},
				{Type: "mrkdwn", Text: "*Category:*\n" + string(r.Category)},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Source:*\n" + r.SourceName},
				{Type: "mrkdwn", Text: "*Status:*\n" + string(r.Status)},
			},
		},
		{Type: "actions", Elements: buttons},
		{Type: "divider"},
	}}
}
