package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/landonvance1/BookSharingApp/internal/model"
	"github.com/landonvance1/BookSharingApp/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotificationAPI struct {
	unread       []model.Notification
	fetchCalls   int32
	markShareErr error
	markChatErr  error
	markedShares []int64
	markedChats  []int64
}

func (f *fakeNotificationAPI) GetUnreadNotifications(ctx context.Context) ([]model.Notification, error) {
	atomic.AddInt32(&f.fetchCalls, 1)
	out := make([]model.Notification, len(f.unread))
	copy(out, f.unread)
	return out, nil
}

func (f *fakeNotificationAPI) MarkShareNotificationsRead(ctx context.Context, shareID int64) error {
	if f.markShareErr != nil {
		return f.markShareErr
	}
	f.markedShares = append(f.markedShares, shareID)
	f.dropServerSide(shareID, "")
	return nil
}

func (f *fakeNotificationAPI) MarkChatNotificationsRead(ctx context.Context, shareID int64) error {
	if f.markChatErr != nil {
		return f.markChatErr
	}
	f.markedChats = append(f.markedChats, shareID)
	f.dropServerSide(shareID, model.NotificationMessageReceived)
	return nil
}

func (f *fakeNotificationAPI) dropServerSide(shareID int64, onlyType string) {
	kept := f.unread[:0]
	for _, n := range f.unread {
		if n.ForShare(shareID) && (onlyType == "" || n.NotificationType == onlyType) {
			continue
		}
		kept = append(kept, n)
	}
	f.unread = kept
}

func shareRef(id int64) *int64 { return &id }

func seedNotifications() []model.Notification {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return []model.Notification{
		{ID: 1, NotificationType: model.NotificationStatusChanged, ShareID: shareRef(10), CreatedAt: now},
		{ID: 2, NotificationType: model.NotificationMessageReceived, ShareID: shareRef(10), CreatedAt: now},
		{ID: 3, NotificationType: model.NotificationMessageReceived, ShareID: shareRef(10), CreatedAt: now},
		{ID: 4, NotificationType: model.NotificationDueDateChanged, ShareID: shareRef(20), CreatedAt: now},
	}
}

func newNotificationFixture(t *testing.T) (*fakeNotificationAPI, NotificationService) {
	t.Helper()
	api := &fakeNotificationAPI{unread: seedNotifications()}
	svc := NewNotificationService(api, zap.NewNop())
	require.NoError(t, svc.Refresh(context.Background()))
	return api, svc
}

func TestNotificationService_DerivedViews(t *testing.T) {
	_, svc := newNotificationFixture(t)

	assert.Equal(t, 4, svc.UnreadCount())
	assert.Equal(t, 3, svc.UnreadCountForShare(10))
	assert.Equal(t, 1, svc.UnreadCountForShare(20))
	assert.Equal(t, 0, svc.UnreadCountForShare(99))

	counts := svc.CountForShares([]int64{10, 20, 99})
	assert.Equal(t, map[int64]int{10: 3, 20: 1, 99: 0}, counts)

	assert.True(t, svc.HasStatusUpdate(10))
	assert.False(t, svc.HasStatusUpdate(20))
	assert.True(t, svc.HasDueDateUpdate(20))
	assert.True(t, svc.HasUnreadMessages(10))
	assert.False(t, svc.HasUnreadMessages(20))
}

func TestNotificationService_MarkShareReadRemovesAllForShare(t *testing.T) {
	api, svc := newNotificationFixture(t)

	require.NoError(t, svc.MarkShareRead(context.Background(), 10))
	assert.Equal(t, []int64{10}, api.markedShares)
	assert.Equal(t, 0, svc.UnreadCountForShare(10))
	assert.Equal(t, 1, svc.UnreadCountForShare(20), "other shares untouched")
}

func TestNotificationService_MarkChatReadKeepsOtherTypes(t *testing.T) {
	api, svc := newNotificationFixture(t)

	require.NoError(t, svc.MarkChatRead(context.Background(), 10))
	assert.Equal(t, []int64{10}, api.markedChats)
	assert.False(t, svc.HasUnreadMessages(10))
	assert.True(t, svc.HasStatusUpdate(10), "status notification survives a chat-only clear")
	assert.Equal(t, 1, svc.UnreadCountForShare(10))
}

func TestNotificationService_RollbackRestoresExactSnapshot(t *testing.T) {
	api, svc := newNotificationFixture(t)
	api.markShareErr = code.ErrorNetwork.WithDetails("offline")

	before := svc.All()

	err := svc.MarkShareRead(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, code.ErrorNetwork.Is(err))
	assert.Equal(t, before, svc.All(), "failed mutation must restore the snapshot verbatim")
}

func TestNotificationService_ReconcileRunsOnEverySettle(t *testing.T) {
	api, svc := newNotificationFixture(t)
	base := atomic.LoadInt32(&api.fetchCalls)

	require.NoError(t, svc.MarkShareRead(context.Background(), 10))
	assert.Equal(t, base+1, atomic.LoadInt32(&api.fetchCalls), "success still re-polls")

	api.markChatErr = code.ErrorNetwork
	_ = svc.MarkChatRead(context.Background(), 20)
	assert.Equal(t, base+2, atomic.LoadInt32(&api.fetchCalls), "failure re-polls too")
}

func TestNotificationService_SubscribeObservesOptimisticStates(t *testing.T) {
	api, svc := newNotificationFixture(t)
	api.markShareErr = code.ErrorNetwork

	var sawOptimistic, sawRestored bool
	off := svc.Subscribe(func(notifications []model.Notification) {
		for _, n := range notifications {
			if n.ForShare(10) {
				sawRestored = true
				return
			}
		}
		sawOptimistic = true
	})
	defer off()

	_ = svc.MarkShareRead(context.Background(), 10)
	assert.True(t, sawOptimistic, "optimistic removal must be visible before the commit settles")
	assert.True(t, sawRestored, "rollback must notify subscribers")
}
