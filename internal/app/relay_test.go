package app

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Djacko3532/telemedecin/internal/core"
)

type relayFixture struct {
	registry *Registry
	rooms    *RoomDirectory
	relay    *Relay
	connA    *fakeConn
	connB    *fakeConn
}

// newRelayFixture wires a room with patient on cA and medecin on cB.
func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	f := &relayFixture{
		registry: NewRegistry(),
		connA:    &fakeConn{},
		connB:    &fakeConn{},
	}
	f.rooms = NewRoomDirectory(0, 0)
	f.relay = NewRelay(f.registry, f.rooms)

	f.registry.Register("cA", f.connA)
	f.registry.Register("cB", f.connB)
	require.NoError(t, f.registry.AssociateUser("cA", patient("u-patient")))
	require.NoError(t, f.registry.AssociateUser("cB", medecin("u-medecin")))

	f.rooms.Open(consultationRoom("r1"))
	require.Equal(t, core.JoinOK, f.rooms.Join("r1", "cA", patient("u-patient")))
	require.Equal(t, core.JoinOK, f.rooms.Join("r1", "cB", medecin("u-medecin")))
	return f
}

func TestRelayRejectsNonMember(t *testing.T) {
	f := newRelayFixture(t)

	sent, err := f.relay.Send("r1", "stranger", core.Frame(`{"type":"offer"}`))
	assert.ErrorIs(t, err, core.ErrNotMember)
	assert.Zero(t, sent)
	assert.Empty(t, f.connA.Frames())
	assert.Empty(t, f.connB.Frames())
}

func TestRelayExcludesSender(t *testing.T) {
	f := newRelayFixture(t)

	sent, err := f.relay.Send("r1", "cA", core.Frame(`{"type":"offer","sdp":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Empty(t, f.connA.Frames(), "sender must not receive its own negotiation message")
	require.Len(t, f.connB.Frames(), 1)
	assert.JSONEq(t, `{"type":"offer","sdp":"x"}`, string(f.connB.Frames()[0]))
}

func TestSendAllIncludesSender(t *testing.T) {
	f := newRelayFixture(t)

	sent, err := f.relay.SendAll("r1", "cA", core.Frame(`{"type":"chat-message"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, f.connA.Frames(), 1)
	assert.Len(t, f.connB.Frames(), 1)
}

// Offer then candidates from one sender must reach the peer in send
// order; WebRTC negotiation depends on it.
func TestRelayPreservesSenderOrder(t *testing.T) {
	f := newRelayFixture(t)

	frames := []string{
		`{"type":"offer","sdp":"x"}`,
		`{"type":"ice-candidate","candidate":"a"}`,
		`{"type":"ice-candidate","candidate":"b"}`,
	}
	for _, fr := range frames {
		_, err := f.relay.Send("r1", "cA", core.Frame(fr))
		require.NoError(t, err)
	}

	got := f.connB.Frames()
	require.Len(t, got, len(frames))
	for i, fr := range frames {
		assert.JSONEq(t, fr, string(got[i]))
	}
}

// Basic negotiation scenario: offer one way, answer the other.
func TestOfferAnswerRoundTrip(t *testing.T) {
	f := newRelayFixture(t)

	_, err := f.relay.Send("r1", "cA", core.Frame(`{"type":"offer","sdp":"x"}`))
	require.NoError(t, err)
	_, err = f.relay.Send("r1", "cB", core.Frame(`{"type":"answer","sdp":"y"}`))
	require.NoError(t, err)

	require.Len(t, f.connB.Frames(), 1)
	require.Len(t, f.connA.Frames(), 1)

	var offer, answer map[string]string
	require.NoError(t, json.Unmarshal(f.connB.Frames()[0], &offer))
	require.NoError(t, json.Unmarshal(f.connA.Frames()[0], &answer))
	assert.Equal(t, "x", offer["sdp"])
	assert.Equal(t, "y", answer["sdp"])
}

func TestRelayDropsOnBackpressure(t *testing.T) {
	f := newRelayFixture(t)
	f.connB.failSend = true

	sent, err := f.relay.Send("r1", "cA", core.Frame(`{"type":"offer"}`))
	require.NoError(t, err, "a slow recipient is not the sender's error")
	assert.Zero(t, sent)
}

func TestRelayToAbsentPeerIsSilent(t *testing.T) {
	f := newRelayFixture(t)
	f.rooms.Leave("r1", "cB")

	sent, err := f.relay.Send("r1", "cA", core.Frame(`{"type":"offer"}`))
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, f.connB.Frames())
}

func TestNoEventsAfterLeave(t *testing.T) {
	f := newRelayFixture(t)

	f.rooms.Leave("r1", "cA")
	_, err := f.relay.Send("r1", "cA", core.Frame(`{"type":"offer"}`))
	assert.ErrorIs(t, err, core.ErrNotMember)
	assert.Empty(t, f.connB.Frames())
}
