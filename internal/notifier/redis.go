package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/odishajobs/internal/model"
)

// EventJobCreated is the event type published for each new record.
const EventJobCreated = "EVENT_JOB_CREATED"

// Ensure RedisNotifier implements model.Notifier.
var _ model.Notifier = (*RedisNotifier)(nil)

// Publisher is the subset of *redis.Client used for publishing.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes one event per new record on a Redis channel.
type RedisNotifier struct {
	client  Publisher
	channel string
	timeout time.Duration
	logger  *slog.Logger
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedisNotifier returns a notifier publishing to channel.
func NewRedisNotifier(client Publisher, channel string, logger *slog.Logger) *RedisNotifier {
	if channel == "" {
		channel = EventJobCreated
	}
	return &RedisNotifier{
		client:  client,
		channel: channel,
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

type jobCreatedEvent struct {
	Type            string         `json:"type"`
	RecordID        string         `json:"recordId"`
	Title           string         `json:"title"`
	Organization    string         `json:"organization"`
	Category        model.Category `json:"category"`
	SourceName      string         `json:"sourceName"`
	NotificationURL string         `json:"notificationUrl"`
	PDFURL          string         `json:"pdfUrl,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// Notify publishes each record. Returns an error only if ALL publishes fail.
func (n *RedisNotifier) Notify(records []model.JobRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	failures := 0
	var lastErr error
	for _, r := range records {
		event, err := json.Marshal(jobCreatedEvent{
			Type:            EventJobCreated,
			RecordID:        r.ID,
			Title:           r.Title,
			Organization:    r.Organization,
			Category:        r.Category,
			SourceName:      r.SourceName,
			NotificationURL: r.NotificationURL,
			PDFURL:          r.PDFURL,
			CreatedAt:       r.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		if err := n.client.Publish(ctx, n.channel, event).Err(); err != nil {
			n.logger.Error("redis publish failed", "record_id", r.ID, "title", r.Title, "error", err)
			failures++
			lastErr = err
		}
	}

	if failures == len(records) {
		return fmt.Errorf("all %d redis publishes failed: %w", failures, lastErr)
	}
	n.logger.Debug("redis events published", "channel", n.channel, "sent", len(records)-failures, "failed", failures)
	return nil
}
