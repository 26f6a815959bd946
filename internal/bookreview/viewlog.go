package bookreview

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

type viewLogSender interface {
	SendViewLog(ctx context.Context, id ID) error
}

// ViewLogger records review views. Sends are best effort: failures and
// throttled calls are logged and otherwise ignored.
type ViewLogger struct {
	sender  viewLogSender
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewViewLogger(sender viewLogSender, logger *slog.Logger) *ViewLogger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ViewLogger{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		logger:  logger,
	}
}

// Record reports whether a log request was actually sent successfully.
func (v *ViewLogger) Record(ctx context.Context, id ID) bool {
	if v == nil || v.sender == nil || id == "" {
		return false
	}
	if !v.limiter.Allow() {
		v.logger.Debug("view log throttled", "book_id", id)
		return false
	}
	if err := v.sender.SendViewLog(ctx, id); err != nil {
		v.logger.Warn("view log send failed", "book_id", id, "error", err)
		return false
	}
	return true
}
