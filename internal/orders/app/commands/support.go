package commands

import (
	"context"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
)

var textPolicy = bluemonday.StrictPolicy()

// sanitizeText strips markup from free text typed by customers.
func sanitizeText(value string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(value)))
}

func newID() string {
	return ulid.Make().String()
}

// newOrderNumber returns a customer-facing number such as LFD3F9A0C12BE.
func newOrderNumber() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "LFD" + strings.ToUpper(hex[:10])
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// notify runs a notification and logs its failure. Notifications never fail
// the operation that triggered them.
func notify(ctx context.Context, logger *slog.Logger, event, orderID string, send func(context.Context) error) {
	if err := send(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to send notification",
			"event", event,
			"order_id", orderID,
			"error", err,
		)
	}
}
