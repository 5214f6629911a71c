package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Djacko3532/telemedecin/internal/core"
	"github.com/Djacko3532/telemedecin/internal/domain"
)

type presenceEvent struct {
	Type string       `json:"type"`
	Room string       `json:"room"`
	User *domain.User `json:"user,omitempty"`
}

func (ctl *Controller) handleJoin(connID domain.ConnID, c *wsConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	user, ok := ctl.Registry.User(connID)
	if !ok {
		ctl.sendError(c, "not_authenticated")
		return
	}
	if ctl.joinLimiter != nil && !ctl.joinLimiter.Allow(user.ID) {
		log.Warn().Str("module", "signal").Str("user", string(user.ID)).Msg("join rate limited")
		ctl.sendError(c, "too_many_join_attempts")
		return
	}

	roomID := domain.RoomID(p.Room)
	switch res := ctl.Rooms.Join(roomID, connID, user); res {
	case core.JoinRoomUnknown:
		log.Warn().Str("module", "signal").Str("room", p.Room).Msg("join: room unknown")
		ctl.sendError(c, core.JoinRoomUnknown.String())
		return
	case core.JoinRoomFull:
		log.Warn().Str("module", "signal").Str("room", p.Room).Str("conn", string(connID)).Msg("join: room full")
		ctl.sendError(c, core.JoinRoomFull.String())
		return
	case core.JoinOK:
	}
	ctl.Registry.TrackJoin(connID, roomID)
	log.Info().Str("module", "signal").Str("conn", string(connID)).Str("room", p.Room).Msg("joined room")

	ctl.sendJSON(c, struct {
		Type    string           `json:"type"`
		Room    string           `json:"room"`
		Members []core.MemberDTO `json:"members"`
	}{
		Type:    "room-joined",
		Room:    p.Room,
		Members: ctl.Rooms.Members(roomID),
	})

	ctl.broadcastPresence(roomID, connID, "user-connected", user)
}

func (ctl *Controller) handleLeave(connID domain.ConnID, c *wsConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	roomID := domain.RoomID(p.Room)
	user, _ := ctl.Registry.User(connID)

	// Presence goes out while the leaver is still a member, then the
	// membership record is dropped.
	ctl.broadcastPresence(roomID, connID, "user-disconnected", user)
	ctl.Rooms.Leave(roomID, connID)
	ctl.Registry.TrackLeave(connID, roomID)
	log.Info().Str("module", "signal").Str("conn", string(connID)).Str("room", p.Room).Msg("left room")

	ctl.sendJSON(c, map[string]string{"type": "left", "room": p.Room})
}

// handleDisconnect is the transport-level cleanup path: the registry
// reports which rooms the connection occupied and each one is left with
// a presence broadcast, exactly as an explicit leave-room would do.
func (ctl *Controller) handleDisconnect(connID domain.ConnID) {
	user, _ := ctl.Registry.User(connID)
	for _, roomID := range ctl.Registry.Unregister(connID) {
		ctl.broadcastPresence(roomID, connID, "user-disconnected", user)
		ctl.Rooms.Leave(roomID, connID)
	}
}

func (ctl *Controller) broadcastPresence(roomID domain.RoomID, from domain.ConnID, event string, user *domain.User) {
	frame, err := json.Marshal(presenceEvent{Type: event, Room: string(roomID), User: user})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("marshal presence")
		return
	}
	if _, err := ctl.Relay.Send(roomID, from, frame); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("room", string(roomID)).Msg("presence broadcast skipped")
	}
}
