package api

import (
	"context"
	"fmt"

	"github.com/landonvance1/BookSharingApp/internal/model"
)

// GetUnreadNotifications fetches every unread notification for the current
// user. This is the single source of truth for the notification cache.
func (c *Client) GetUnreadNotifications(ctx context.Context) ([]model.Notification, error) {
	var notifications []model.Notification
	if err := c.get(ctx, "/notifications", &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkShareNotificationsRead marks every notification for the share as read.
func (c *Client) MarkShareNotificationsRead(ctx context.Context, shareID int64) error {
	return c.mutate(ctx, "PATCH", fmt.Sprintf("/notifications/shares/%d/read", shareID), nil, nil)
}

// MarkChatNotificationsRead marks only the message-received notifications
// for the share as read.
func (c *Client) MarkChatNotificationsRead(ctx context.Context, shareID int64) error {
	return c.mutate(ctx, "PATCH", fmt.Sprintf("/notifications/shares/%d/chat/read", shareID), nil, nil)
}
