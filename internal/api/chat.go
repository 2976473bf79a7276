package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/landonvance1/BookSharingApp/internal/model"
)

// GetChatMessages fetches one history page for the share, newest first.
// Zero page/pageSize values are omitted so the server applies its defaults.
func (c *Client) GetChatMessages(ctx context.Context, shareID int64, page, pageSize int) (*model.ChatMessagesResponse, error) {
	path := fmt.Sprintf("/shares/%d/chat/messages", shareID)

	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		query.Set("pageSize", strconv.Itoa(pageSize))
	}
	if encoded := query.Encode(); encoded != "" {
		path = path + "?" + encoded
	}

	var resp model.ChatMessagesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendChatMessage posts a message through REST, the fallback path when the
// realtime channel is unavailable.
func (c *Client) SendChatMessage(ctx context.Context, shareID int64, content string) (*model.ChatMessage, error) {
	var msg model.ChatMessage
	path := fmt.Sprintf("/shares/%d/chat/messages", shareID)
	if err := c.mutate(ctx, "POST", path, model.SendMessageRequest{Content: content}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
