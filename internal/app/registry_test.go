package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Djacko3532/telemedecin/internal/core"
	"github.com/Djacko3532/telemedecin/internal/domain"
)

// Compile-time check that the fake satisfies the transport contract.
var _ core.SignalConnection = (*fakeConn)(nil)

// fakeConn records every frame it is handed. failSend simulates a full
// send queue.
type fakeConn struct {
	mu       sync.Mutex
	frames   []core.Frame
	failSend bool
	closed   bool
}

func (f *fakeConn) TrySend(frame core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return core.ErrBackpressure
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) Frames() []core.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Frame, len(f.frames))
	copy(out, f.frames)
	return out
}

func patient(id string) *domain.User {
	return &domain.User{ID: domain.UserID(id), Role: domain.RolePatient, DisplayName: "Patient " + id}
}

func medecin(id string) *domain.User {
	return &domain.User{ID: domain.UserID(id), Role: domain.RoleMedecin, DisplayName: "Dr " + id}
}

func TestRegisterIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	first := &fakeConn{}

	reg.Register("c1", first)
	reg.Register("c1", &fakeConn{})

	got, ok := reg.Connection("c1")
	require.True(t, ok)
	assert.Same(t, first, got.(*fakeConn), "second register must not replace the connection")
}

func TestAssociateUserUnknownConnection(t *testing.T) {
	reg := NewRegistry()
	err := reg.AssociateUser("ghost", patient("u1"))
	assert.ErrorIs(t, err, core.ErrConnectionUnknown)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	reg.Register("c1", &fakeConn{})
	reg.TrackJoin("c1", "r1")

	rooms := reg.Unregister("c1")
	assert.Equal(t, []domain.RoomID{"r1"}, rooms)

	assert.Nil(t, reg.Unregister("c1"), "second unregister is a no-op")

	_, ok := reg.Connection("c1")
	assert.False(t, ok)
}

func TestLookupConnectionsPerUser(t *testing.T) {
	reg := NewRegistry()
	u := patient("u1")

	assert.Empty(t, reg.LookupConnections(u.ID), "offline user has no connections")

	reg.Register("c1", &fakeConn{})
	reg.Register("c2", &fakeConn{})
	require.NoError(t, reg.AssociateUser("c1", u))
	require.NoError(t, reg.AssociateUser("c2", u))

	assert.Len(t, reg.LookupConnections(u.ID), 2)

	reg.Unregister("c1")
	assert.Len(t, reg.LookupConnections(u.ID), 1)

	reg.Unregister("c2")
	assert.Empty(t, reg.LookupConnections(u.ID))
}

func TestTrackLeaveRemovesRoomFromUnregisterResult(t *testing.T) {
	reg := NewRegistry()
	reg.Register("c1", &fakeConn{})
	reg.TrackJoin("c1", "r1")
	reg.TrackLeave("c1", "r1")

	assert.Empty(t, reg.Unregister("c1"))
}
