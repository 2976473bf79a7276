package model

import "time"

// MaxMessageLength is the server-enforced chat content limit.
const MaxMessageLength = 2000

// ChatMessage is one immutable chat message tied to a share.
type ChatMessage struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content" validate:"required,max=2000"`
	Sender     User      `json:"sender"`
	SenderName string    `json:"senderName"`
	ShareID    int64     `json:"shareId"`
	SentAt     time.Time `json:"sentAt"`
}

// SendMessageRequest is the body for the REST fallback send.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// ChatMessagesResponse is one page of history, newest first.
type ChatMessagesResponse struct {
	Messages    []ChatMessage `json:"messages"`
	TotalCount  int           `json:"totalCount"`
	Page        int           `json:"page"`
	PageSize    int           `json:"pageSize"`
	HasNextPage bool          `json:"hasNextPage"`
}
