package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Djacko3532/telemedecin/internal/domain"
)

type chatEvent struct {
	Type    string              `json:"type"`
	Room    string              `json:"room"`
	Message *domain.ChatMessage `json:"message"`
}

// handleChat stamps the message server-side and echoes it to the whole
// room, sender included, so both parties render the same record.
func (ctl *Controller) handleChat(connID domain.ConnID, c *wsConn, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Room    string `json:"room"`
		Message struct {
			Kind    domain.ChatKind `json:"kind"`
			Content string          `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad chat payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	user, ok := ctl.Registry.User(connID)
	if !ok {
		ctl.sendError(c, "not_authenticated")
		return
	}
	msg, err := domain.NewChatMessage(user, p.Message.Kind, p.Message.Content)
	if err != nil {
		ctl.sendError(c, "invalid_message")
		return
	}

	frame, err := json.Marshal(chatEvent{Type: "chat-message", Room: p.Room, Message: msg})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("marshal chat")
		return
	}
	if _, err := ctl.Relay.SendAll(domain.RoomID(p.Room), connID, frame); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("room", p.Room).Msg("chat dropped")
	}
}
