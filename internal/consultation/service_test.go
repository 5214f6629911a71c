package consultation

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Djacko3532/telemedecin/internal/app"
	"github.com/Djacko3532/telemedecin/internal/core"
	"github.com/Djacko3532/telemedecin/internal/domain"
)

// Compile-time check that the fake implements the store surface.
var _ Bootstrapper = (*fakeStore)(nil)

// fakeStore is a function-field fake so each test overrides only what
// it needs.
type fakeStore struct {
	EnsureRoomFunc func(ctx context.Context, id domain.AppointmentID) (*domain.Room, bool, error)
	RoomByIDFunc   func(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	EndFunc        func(ctx context.Context, id domain.RoomID, notes, prescription string) (*domain.Room, error)
}

func (f *fakeStore) EnsureRoom(ctx context.Context, id domain.AppointmentID) (*domain.Room, bool, error) {
	return f.EnsureRoomFunc(ctx, id)
}

func (f *fakeStore) RoomByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	return f.RoomByIDFunc(ctx, id)
}

func (f *fakeStore) End(ctx context.Context, id domain.RoomID, notes, prescription string) (*domain.Room, error) {
	return f.EndFunc(ctx, id, notes, prescription)
}

type recordingConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (c *recordingConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *recordingConn) Close() {}

func (c *recordingConn) Frames() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

func testRoom(state domain.RoomState) *domain.Room {
	return &domain.Room{
		ID:            "room-1",
		AppointmentID: "rdv-1",
		Patient:       "u-patient",
		Medecin:       "u-medecin",
		State:         state,
	}
}

type serviceFixture struct {
	svc         *Service
	rooms       *app.RoomDirectory
	patientConn *recordingConn
}

func newServiceFixture(t *testing.T, store *fakeStore) *serviceFixture {
	t.Helper()
	registry := app.NewRegistry()
	rooms := app.NewRoomDirectory(0, 0)
	notifier := app.NewNotifier(registry, nil)

	conn := &recordingConn{}
	registry.Register("c-patient", conn)
	require.NoError(t, registry.AssociateUser("c-patient", &domain.User{
		ID: "u-patient", Role: domain.RolePatient, DisplayName: "Alice",
	}))

	return &serviceFixture{
		svc:         NewService(store, rooms, notifier),
		rooms:       rooms,
		patientConn: conn,
	}
}

func TestStartOpensRoomAndNotifiesPatient(t *testing.T) {
	store := &fakeStore{
		EnsureRoomFunc: func(ctx context.Context, id domain.AppointmentID) (*domain.Room, bool, error) {
			assert.Equal(t, domain.AppointmentID("rdv-1"), id)
			return testRoom(domain.RoomWaiting), true, nil
		},
	}
	f := newServiceFixture(t, store)

	room, err := f.svc.Start(context.Background(), "rdv-1", "u-medecin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("room-1"), room.ID)

	state, ok := f.rooms.State("room-1")
	require.True(t, ok, "room must be opened in the directory")
	assert.Equal(t, domain.RoomWaiting, state)

	frames := f.patientConn.Frames()
	require.Len(t, frames, 1)
	var ev struct {
		Type         string              `json:"type"`
		Notification domain.Notification `json:"notification"`
	}
	require.NoError(t, json.Unmarshal(frames[0], &ev))
	assert.Equal(t, "notification", ev.Type)
	assert.Equal(t, domain.NotifConsultationReady, ev.Notification.Kind)
	assert.Equal(t, domain.UserID("u-patient"), ev.Notification.UserID)
}

func TestStartIsIdempotent(t *testing.T) {
	store := &fakeStore{
		EnsureRoomFunc: func(ctx context.Context, id domain.AppointmentID) (*domain.Room, bool, error) {
			return testRoom(domain.RoomWaiting), false, nil
		},
	}
	f := newServiceFixture(t, store)

	room, err := f.svc.Start(context.Background(), "rdv-1", "u-medecin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("room-1"), room.ID)

	assert.Empty(t, f.patientConn.Frames(), "resuming a session must not re-notify")
}

func TestStartRejectsForeignMedecin(t *testing.T) {
	store := &fakeStore{
		EnsureRoomFunc: func(ctx context.Context, id domain.AppointmentID) (*domain.Room, bool, error) {
			return testRoom(domain.RoomWaiting), true, nil
		},
	}
	f := newServiceFixture(t, store)

	_, err := f.svc.Start(context.Background(), "rdv-1", "u-other-medecin")
	assert.ErrorIs(t, err, ErrNotOwner)
	_, ok := f.rooms.State("room-1")
	assert.False(t, ok, "room must not open for a foreign medecin")
}

func TestStartUnknownAppointment(t *testing.T) {
	store := &fakeStore{
		EnsureRoomFunc: func(ctx context.Context, id domain.AppointmentID) (*domain.Room, bool, error) {
			return nil, false, ErrAppointmentNotFound
		},
	}
	f := newServiceFixture(t, store)

	_, err := f.svc.Start(context.Background(), "rdv-404", "u-medecin")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestGetRestrictedToParticipants(t *testing.T) {
	store := &fakeStore{
		RoomByIDFunc: func(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
			return testRoom(domain.RoomActive), nil
		},
	}
	f := newServiceFixture(t, store)

	room, err := f.svc.Get(context.Background(), "room-1", "u-patient")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomActive, room.State)

	_, err = f.svc.Get(context.Background(), "room-1", "u-stranger")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestFinishEndsRoomAndNotifies(t *testing.T) {
	store := &fakeStore{
		RoomByIDFunc: func(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
			return testRoom(domain.RoomActive), nil
		},
		EndFunc: func(ctx context.Context, id domain.RoomID, notes, prescription string) (*domain.Room, error) {
			assert.Equal(t, "notes", notes)
			assert.Equal(t, "rx", prescription)
			return testRoom(domain.RoomEnded), nil
		},
	}
	f := newServiceFixture(t, store)
	f.rooms.Open(testRoom(domain.RoomActive))

	room, err := f.svc.Finish(context.Background(), "room-1", "u-medecin", "notes", "rx")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomEnded, room.State)

	state, _ := f.rooms.State("room-1")
	assert.Equal(t, domain.RoomEnded, state)

	frames := f.patientConn.Frames()
	require.Len(t, frames, 1)
	var ev struct {
		Notification domain.Notification `json:"notification"`
	}
	require.NoError(t, json.Unmarshal(frames[0], &ev))
	assert.Equal(t, domain.NotifConsultationEnded, ev.Notification.Kind)
}

func TestFinishRejectsForeignMedecin(t *testing.T) {
	store := &fakeStore{
		RoomByIDFunc: func(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
			return testRoom(domain.RoomActive), nil
		},
	}
	f := newServiceFixture(t, store)

	_, err := f.svc.Finish(context.Background(), "room-1", "u-other", "", "")
	assert.ErrorIs(t, err, ErrNotOwner)
}
