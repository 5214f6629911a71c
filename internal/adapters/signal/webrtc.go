package signal

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/Djacko3532/telemedecin/internal/domain"
)

// Negotiation payloads reuse the standard wire types; the server never
// inspects the SDP or candidate, it only routes.
type descriptionEvent struct {
	Type        string                    `json:"type"`
	Room        string                    `json:"room"`
	Description webrtc.SessionDescription `json:"description"`
}

type candidateEvent struct {
	Type      string                  `json:"type"`
	Room      string                  `json:"room"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// handleDescription relays an offer or answer verbatim to the other
// room occupant. kind is "offer" or "answer", already validated by the
// dispatcher.
func (ctl *Controller) handleDescription(connID domain.ConnID, c *wsConn, kind string, data []byte) {
	var p descriptionEvent
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" || p.Description.SDP == "" {
		log.Error().Err(err).Str("module", "signal").Str("kind", kind).Msg("bad description payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	p.Type = kind

	frame, err := json.Marshal(p)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("marshal description")
		return
	}
	if _, err := ctl.Relay.Send(domain.RoomID(p.Room), connID, frame); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("room", p.Room).Str("kind", kind).Msg("description dropped")
	}
}

func (ctl *Controller) handleCandidate(connID domain.ConnID, c *wsConn, data []byte) {
	var p candidateEvent
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" || p.Candidate.Candidate == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	p.Type = "ice-candidate"

	frame, err := json.Marshal(p)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("marshal candidate")
		return
	}
	if _, err := ctl.Relay.Send(domain.RoomID(p.Room), connID, frame); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("room", p.Room).Msg("candidate dropped")
	}
}
