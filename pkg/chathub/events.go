package chathub

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Wire frames are text messages of the form "Action|{json}".

// Client-invoked procedures.
const (
	ActionJoinShareChat  = "JoinShareChat"
	ActionLeaveShareChat = "LeaveShareChat"
	ActionSendMessage    = "SendMessage"
)

// Server-invoked events.
const (
	ActionReceiveMessage = "ReceiveMessage"
	ActionJoinedChat     = "JoinedChat"
	ActionLeftChat       = "LeftChat"
	ActionError          = "Error"
)

type roomPayload struct {
	ShareID int64 `json:"shareId"`
}

type sendPayload struct {
	ShareID int64  `json:"shareId"`
	Content string `json:"content"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// EncodeFrame builds an "Action|{json}" text frame.
func EncodeFrame(action string, payload any) ([]byte, error) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("%s|%s", action, string(data))), nil
}

// DecodeFrame splits a text frame into its action and JSON payload.
func DecodeFrame(data []byte) (string, []byte, error) {
	s := string(data)
	index := strings.Index(s, "|")
	if index == -1 {
		return "", nil, fmt.Errorf("illegal message frame: %q", truncate(s, 64))
	}
	return s[:index], []byte(s[index+1:]), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
