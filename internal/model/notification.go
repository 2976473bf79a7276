package model

import "time"

// Notification types the core filters on.
const (
	NotificationStatusChanged   = "ShareStatusChanged"
	NotificationDueDateChanged  = "ShareDueDateChanged"
	NotificationMessageReceived = "ShareMessageReceived"
)

// Notification is one unread server notification. The core only ever works
// on the unread subset; a notification marked read server-side drops out of
// the working set on the next poll.
type Notification struct {
	ID               int64      `json:"id"`
	UserID           string     `json:"userId"`
	NotificationType string     `json:"notificationType"`
	Message          string     `json:"message"`
	CreatedAt        time.Time  `json:"createdAt"`
	ReadAt           *time.Time `json:"readAt"`
	ShareID          *int64     `json:"shareId"`
	CreatedByUserID  string     `json:"createdByUserId"`
}

// IsShareRelated reports whether the notification belongs to the share feed
// (status, due date or chat message).
func (n Notification) IsShareRelated() bool {
	switch n.NotificationType {
	case NotificationStatusChanged, NotificationDueDateChanged, NotificationMessageReceived:
		return true
	}
	return false
}

// ForShare reports whether the notification targets the given share.
func (n Notification) ForShare(shareID int64) bool {
	return n.ShareID != nil && *n.ShareID == shareID
}
