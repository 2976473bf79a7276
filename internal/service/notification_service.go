package service

import (
	"context"

	"github.com/landonvance1/BookSharingApp/internal/model"
	"github.com/landonvance1/BookSharingApp/pkg/logger"
	"github.com/landonvance1/BookSharingApp/pkg/optimistic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// NotificationAPI is the REST surface the notification service depends on.
type NotificationAPI interface {
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkShareNotificationsRead(ctx context.Context, shareID int64) error
	MarkChatNotificationsRead(ctx context.Context, shareID int64) error
}

// NotificationService maintains the unread-notification cache. All counts and
// flags are derived from one cached list; mark-read mutations apply
// optimistically and roll back to the exact pre-mutation snapshot on failure.
type NotificationService interface {
	// Refresh re-polls the unread set. Concurrent callers share one request.
	Refresh(ctx context.Context) error

	// All returns a copy of the cached unread notifications.
	All() []model.Notification

	// UnreadCount is the total unread count across all shares.
	UnreadCount() int

	// UnreadCountForShare counts unread notifications for one share.
	UnreadCountForShare(shareID int64) int

	// CountForShares bulk-counts unread notifications per share.
	CountForShares(shareIDs []int64) map[int64]int

	// HasStatusUpdate reports an unread status-changed notification.
	HasStatusUpdate(shareID int64) bool

	// HasDueDateUpdate reports an unread due-date-changed notification.
	HasDueDateUpdate(shareID int64) bool

	// HasUnreadMessages reports an unread chat-message notification.
	HasUnreadMessages(shareID int64) bool

	// MarkShareRead clears every notification for the share.
	MarkShareRead(ctx context.Context, shareID int64) error

	// MarkChatRead clears only the chat-message notifications for the share.
	MarkChatRead(ctx context.Context, shareID int64) error

	// Subscribe observes every cache change. The handle unsubscribes.
	Subscribe(fn func([]model.Notification)) func()
}

type notificationService struct {
	api    NotificationAPI
	store  *optimistic.Store[[]model.Notification]
	sf     singleflight.Group
	logger *zap.Logger
}

// NewNotificationService builds the notification cache service.
func NewNotificationService(api NotificationAPI, lg *zap.Logger) NotificationService {
	return &notificationService{
		api:    api,
		store:  optimistic.NewStore([]model.Notification{}),
		logger: lg,
	}
}

func (s *notificationService) Refresh(ctx context.Context) error {
	_, err, _ := s.sf.Do("refresh", func() (any, error) {
		notifications, err := s.api.GetUnreadNotifications(ctx)
		if err != nil {
			return nil, err
		}
		s.store.Set(notifications)
		s.logger.Debug("Notification Refresh", zap.Int(logger.FieldCount, len(notifications)))
		return nil, nil
	})
	return err
}

func (s *notificationService) All() []model.Notification {
	return s.store.Get()
}

func (s *notificationService) UnreadCount() int {
	return len(s.store.Get())
}

func (s *notificationService) UnreadCountForShare(shareID int64) int {
	n := 0
	for _, notification := range s.store.Get() {
		if notification.ForShare(shareID) {
			n++
		}
	}
	return n
}

func (s *notificationService) CountForShares(shareIDs []int64) map[int64]int {
	counts := make(map[int64]int, len(shareIDs))
	for _, id := range shareIDs {
		counts[id] = 0
	}
	for _, notification := range s.store.Get() {
		if notification.ShareID == nil {
			continue
		}
		if _, ok := counts[*notification.ShareID]; ok {
			counts[*notification.ShareID]++
		}
	}
	return counts
}

func (s *notificationService) HasStatusUpdate(shareID int64) bool {
	return s.hasType(shareID, model.NotificationStatusChanged)
}

func (s *notificationService) HasDueDateUpdate(shareID int64) bool {
	return s.hasType(shareID, model.NotificationDueDateChanged)
}

func (s *notificationService) HasUnreadMessages(shareID int64) bool {
	return s.hasType(shareID, model.NotificationMessageReceived)
}

func (s *notificationService) hasType(shareID int64, notificationType string) bool {
	for _, notification := range s.store.Get() {
		if notification.ForShare(shareID) && notification.NotificationType == notificationType {
			return true
		}
	}
	return false
}

func (s *notificationService) MarkShareRead(ctx context.Context, shareID int64) error {
	return s.store.Mutate(ctx,
		func(cached []model.Notification) []model.Notification {
			return discard(cached, func(n model.Notification) bool {
				return n.ForShare(shareID)
			})
		},
		func(ctx context.Context) error {
			return s.api.MarkShareNotificationsRead(ctx, shareID)
		},
		s.reconcile,
	)
}

func (s *notificationService) MarkChatRead(ctx context.Context, shareID int64) error {
	return s.store.Mutate(ctx,
		func(cached []model.Notification) []model.Notification {
			return discard(cached, func(n model.Notification) bool {
				return n.ForShare(shareID) && n.NotificationType == model.NotificationMessageReceived
			})
		},
		func(ctx context.Context) error {
			return s.api.MarkChatNotificationsRead(ctx, shareID)
		},
		s.reconcile,
	)
}

func (s *notificationService) Subscribe(fn func([]model.Notification)) func() {
	return s.store.Subscribe(fn)
}

// reconcile re-polls after every mark-read settle. A failed reconcile only
// logs; the next poll tick repairs the cache.
func (s *notificationService) reconcile(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("Notification Reconcile failed", zap.Error(err))
	}
}

func discard(notifications []model.Notification, drop func(model.Notification) bool) []model.Notification {
	kept := make([]model.Notification, 0, len(notifications))
	for _, n := range notifications {
		if !drop(n) {
			kept = append(kept, n)
		}
	}
	return kept
}
