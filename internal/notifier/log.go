package notifier

import (
	"log/slog"

	"github.com/amishk599/odishajobs/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes newly created records to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each record via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each record. It never fails.
func (n *LogNotifier) Notify(records []model.JobRecord) error {
	for _, r := range records {
		args := []any{
			"record_id", r.ID,
			"organization", r.Organization,
			"title", r.Title,
			"category", r.Category,
			"source", r.SourceName,
			"url", r.NotificationURL,
		}
		if r.PDFURL != "" {
			args = append(args, "pdf_url", r.PDFURL)
		}
		n.logger.Info("new job record", args...)
	}
	return nil
}
