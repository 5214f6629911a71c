package app

import (
	"github.com/rs/zerolog/log"

	"github.com/Djacko3532/telemedecin/internal/core"
	"github.com/Djacko3532/telemedecin/internal/domain"
)

// Relay forwards frames between the members of a room without looking
// at the payload. Delivery is at-most-once: a recipient with a full
// send queue simply misses the frame, WebRTC's own timeouts recover.
type Relay struct {
	Registry *Registry
	Rooms    *RoomDirectory
}

func NewRelay(reg *Registry, rooms *RoomDirectory) *Relay {
	return &Relay{Registry: reg, Rooms: rooms}
}

// Send forwards the frame to every member of the room except the
// sender. Returns the delivered count and ErrNotMember when the sender
// does not occupy the room.
func (r *Relay) Send(roomID domain.RoomID, sender domain.ConnID, frame core.Frame) (int, error) {
	if !r.Rooms.IsMember(roomID, sender) {
		log.Warn().Str("module", "app.relay").Str("room", string(roomID)).Str("conn", string(sender)).Msg("relay from non-member dropped")
		return 0, core.ErrNotMember
	}
	r.Rooms.Touch(roomID)
	return r.fanOut(roomID, sender, r.Rooms.MembersExcept(roomID, sender), frame), nil
}

// SendAll forwards to the whole room, sender included. Chat uses this
// so the sender sees its own message echoed with the server stamp.
func (r *Relay) SendAll(roomID domain.RoomID, sender domain.ConnID, frame core.Frame) (int, error) {
	if !r.Rooms.IsMember(roomID, sender) {
		log.Warn().Str("module", "app.relay").Str("room", string(roomID)).Str("conn", string(sender)).Msg("relay from non-member dropped")
		return 0, core.ErrNotMember
	}
	r.Rooms.Touch(roomID)
	targets := make([]domain.ConnID, 0, MaxRoomConnections)
	for _, m := range r.Rooms.Members(roomID) {
		targets = append(targets, m.ConnID)
	}
	return r.fanOut(roomID, sender, targets, frame), nil
}

func (r *Relay) fanOut(roomID domain.RoomID, sender domain.ConnID, targets []domain.ConnID, frame core.Frame) int {
	sent := 0
	for _, id := range targets {
		conn, ok := r.Registry.Connection(id)
		if !ok {
			continue
		}
		if err := conn.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.relay").Str("room", string(roomID)).Str("to", string(id)).Msg("frame dropped")
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.relay").Str("room", string(roomID)).Str("from", string(sender)).Int("sent_to", sent).Msg("relayed")
	return sent
}
