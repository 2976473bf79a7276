package task

import (
	"context"
	"time"

	"github.com/landonvance1/BookSharingApp/pkg/code"

	"go.uber.org/zap"
)

// NotificationRefresher is the slice of the notification service the poll
// task needs.
type NotificationRefresher interface {
	Refresh(ctx context.Context) error
	UnreadCount() int
}

// NotificationPollTask keeps the unread-notification cache warm. Polling is
// the only delivery channel for notifications; the realtime hub carries chat
// frames only.
type NotificationPollTask struct {
	svc      NotificationRefresher
	interval time.Duration
	logger   *zap.Logger
}

func NewNotificationPollTask(svc NotificationRefresher, interval time.Duration, logger *zap.Logger) *NotificationPollTask {
	return &NotificationPollTask{
		svc:      svc,
		interval: interval,
		logger:   logger,
	}
}

func (t *NotificationPollTask) Name() string {
	return "notification_poll"
}

func (t *NotificationPollTask) LoopInterval() time.Duration {
	return t.interval
}

func (t *NotificationPollTask) IsStartupRun() bool {
	return true
}

func (t *NotificationPollTask) Run(ctx context.Context) error {
	if err := t.svc.Refresh(ctx); err != nil {
		// an expired credential is not a task failure, the next login repairs it
		if code.ErrorUnauthorized.Is(err) {
			t.logger.Warn("notification poll unauthorized, waiting for fresh credentials")
			return nil
		}
		return err
	}
	t.logger.Debug("notification poll ok", zap.Int("unread", t.svc.UnreadCount()))
	return nil
}
