package service

import (
	"context"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"
	"github.com/jasmnyeh/staircase-fairy/internal/logger"
)

// LogNotifier records outbound notifications in the log. It stands in when
// no transport-layer notifier is wired.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, userID string, key domain.MessageKey, params map[string]any) {
	logger.Info("notify", "user_id", userID, "message_key", string(key), "params", params)
}

// MultiNotifier fans one notification out to several sinks.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, userID string, key domain.MessageKey, params map[string]any) {
	for _, n := range m {
		n.Notify(ctx, userID, key, params)
	}
}
