package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/landonvance1/BookSharingApp/internal/model"
	"github.com/landonvance1/BookSharingApp/pkg/code"
	"github.com/landonvance1/BookSharingApp/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/juju/ratelimit"
	"go.uber.org/zap"
)

// ChatAPI is the REST surface the chat service depends on.
type ChatAPI interface {
	GetChatMessages(ctx context.Context, shareID int64, page, pageSize int) (*model.ChatMessagesResponse, error)
	SendChatMessage(ctx context.Context, shareID int64, content string) (*model.ChatMessage, error)
}

// Realtime is the hub surface the chat service depends on.
type Realtime interface {
	IsConnected() bool
	JoinShareChat(shareID int64) error
	LeaveShareChat(shareID int64)
	SendMessage(shareID int64, content string) error
	Disconnect()
}

// ChatOptions tunes paging and the send throttle.
type ChatOptions struct {
	// PageSize history page size requested from the server
	PageSize int
	// SendRate sustained sends per second allowed per user
	SendRate float64
	// SendBurst burst capacity of the send throttle
	SendBurst int64
}

func (o *ChatOptions) withDefaults() {
	if o.PageSize <= 0 {
		o.PageSize = 50
	}
	if o.SendRate <= 0 {
		o.SendRate = 1
	}
	if o.SendBurst <= 0 {
		o.SendBurst = 5
	}
}

// ChatService handles per-share chat: history paging, room membership and
// sending. Sends prefer the realtime channel and fall back to REST when the
// channel is down, so a flaky connection never blocks a message.
type ChatService interface {
	// History fetches one message page, newest first.
	History(ctx context.Context, shareID int64, page int) (*model.ChatMessagesResponse, error)

	// Send validates, throttles and delivers a message.
	Send(ctx context.Context, shareID int64, content string) error

	// Open joins the share's realtime room.
	Open(shareID int64) error

	// Close leaves the share's realtime room, best-effort.
	Close(shareID int64)

	// Teardown leaves the room and drops the realtime connection; used when
	// the chat surface goes away entirely. Errors are logged, not returned.
	Teardown(shareID int64)
}

type chatService struct {
	api      ChatAPI
	realtime Realtime
	options  ChatOptions
	validate *validator.Validate
	throttle *ratelimit.Bucket
	logger   *zap.Logger
}

// NewChatService builds the chat service.
func NewChatService(api ChatAPI, realtime Realtime, options ChatOptions, lg *zap.Logger) ChatService {
	options.withDefaults()
	return &chatService{
		api:      api,
		realtime: realtime,
		options:  options,
		validate: validator.New(),
		throttle: ratelimit.NewBucketWithRate(options.SendRate, options.SendBurst),
		logger:   lg,
	}
}

func (s *chatService) History(ctx context.Context, shareID int64, page int) (*model.ChatMessagesResponse, error) {
	if page < 1 {
		page = 1
	}
	return s.api.GetChatMessages(ctx, shareID, page, s.options.PageSize)
}

func (s *chatService) Send(ctx context.Context, shareID int64, content string) error {
	if err := s.checkContent(content); err != nil {
		return err
	}
	if s.throttle.TakeAvailable(1) == 0 {
		return code.ErrorChatSendThrottled
	}

	if s.realtime.IsConnected() {
		err := s.realtime.SendMessage(shareID, content)
		if err == nil {
			return nil
		}
		if !code.ErrorNotConnected.Is(err) {
			return err
		}
		// connection dropped between the check and the write
		s.logger.Warn("Chat realtime send unavailable, falling back to REST",
			zap.Int64(logger.FieldShareID, shareID))
	}

	_, err := s.api.SendChatMessage(ctx, shareID, content)
	return err
}

func (s *chatService) Open(shareID int64) error {
	return s.realtime.JoinShareChat(shareID)
}

func (s *chatService) Close(shareID int64) {
	s.realtime.LeaveShareChat(shareID)
}

func (s *chatService) Teardown(shareID int64) {
	s.realtime.LeaveShareChat(shareID)
	s.realtime.Disconnect()
	s.logger.Info("Chat Teardown", zap.Int64(logger.FieldShareID, shareID))
}

func (s *chatService) checkContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return code.ErrorChatMessageEmpty
	}
	req := model.SendMessageRequest{Content: content}
	if err := s.validate.Struct(req); err != nil {
		if utf8.RuneCountInString(content) > model.MaxMessageLength {
			return code.ErrorChatMessageTooLong
		}
		return code.ErrorInvalidParams.WithDetails(err.Error())
	}
	return nil
}
