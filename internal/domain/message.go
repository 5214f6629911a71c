package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const MaxChatContentLen = 4096

var (
	ErrChatContentEmpty   = errors.New("chat content empty")
	ErrChatContentTooLong = errors.New("chat content too long")
)

type ChatKind string

const (
	ChatText ChatKind = "text"
	ChatFile ChatKind = "file"
)

// ChatMessage exists only in transit through the relay; nothing here
// is persisted by the signaling core.
type ChatMessage struct {
	ID       string    `json:"id"`
	From     UserID    `json:"from"`
	FromName string    `json:"fromName"`
	Kind     ChatKind  `json:"kind"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sentAt"`
}

// NewChatMessage stamps id, sender and time server-side so clients
// cannot forge them.
func NewChatMessage(sender *User, kind ChatKind, content string) (*ChatMessage, error) {
	if len(content) == 0 {
		return nil, ErrChatContentEmpty
	}
	if len(content) > MaxChatContentLen {
		return nil, ErrChatContentTooLong
	}
	if kind != ChatFile {
		kind = ChatText
	}
	return &ChatMessage{
		ID:       uuid.NewString(),
		From:     sender.ID,
		FromName: sender.DisplayName,
		Kind:     kind,
		Content:  content,
		SentAt:   time.Now().UTC(),
	}, nil
}
