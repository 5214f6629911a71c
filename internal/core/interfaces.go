package core

import "github.com/Djacko3532/telemedecin/internal/domain"

// Frame is a serialized server-to-client event.
type Frame []byte

// SignalConnection abstracts the messaging transport of one client.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberDTO is a read-only view for room snapshots (no transport fields).
type MemberDTO struct {
	ConnID      domain.ConnID `json:"connId"`
	UserID      domain.UserID `json:"userId"`
	DisplayName string        `json:"displayName"`
}

// JoinResult tells a joiner why it was admitted or turned away.
type JoinResult int

const (
	JoinOK JoinResult = iota
	JoinRoomFull
	JoinRoomUnknown
)

func (j JoinResult) String() string {
	switch j {
	case JoinOK:
		return "ok"
	case JoinRoomFull:
		return "room_full"
	case JoinRoomUnknown:
		return "room_unknown"
	}
	return "unknown"
}
