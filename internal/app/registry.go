package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Djacko3532/telemedecin/internal/core"
	"github.com/Djacko3532/telemedecin/internal/domain"
)

type connEntry struct {
	conn  core.SignalConnection
	user  *domain.User
	rooms map[domain.RoomID]struct{}
}

// Registry tracks every live connection, its authenticated identity and
// the rooms it joined. It owns the connection records; rooms hold only
// membership, never the connection itself.
type Registry struct {
	mu     sync.RWMutex
	conns  map[domain.ConnID]*connEntry
	byUser map[domain.UserID]map[domain.ConnID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[domain.ConnID]*connEntry),
		byUser: make(map[domain.UserID]map[domain.ConnID]struct{}),
	}
}

// Register creates tracking state for a new transport connection.
// Registering the same id twice is a no-op.
func (r *Registry) Register(id domain.ConnID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		return
	}
	r.conns[id] = &connEntry{conn: conn, rooms: make(map[domain.RoomID]struct{})}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("connection registered")
}

// AssociateUser binds the verified identity to a connection.
func (r *Registry) AssociateUser(id domain.ConnID, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return core.ErrConnectionUnknown
	}
	if e.user != nil {
		delete(r.byUser[e.user.ID], id)
	}
	e.user = user
	set, ok := r.byUser[user.ID]
	if !ok {
		set = make(map[domain.ConnID]struct{})
		r.byUser[user.ID] = set
	}
	set[id] = struct{}{}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("user", string(user.ID)).Msg("user associated")
	return nil
}

// Unregister drops the connection and returns the rooms it had joined so
// the directory can clean up membership. Idempotent.
func (r *Registry) Unregister(id domain.ConnID) []domain.RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return nil
	}
	if e.user != nil {
		delete(r.byUser[e.user.ID], id)
		if len(r.byUser[e.user.ID]) == 0 {
			delete(r.byUser, e.user.ID)
		}
	}
	delete(r.conns, id)
	rooms := make([]domain.RoomID, 0, len(e.rooms))
	for rid := range e.rooms {
		rooms = append(rooms, rid)
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Int("rooms", len(rooms)).Msg("connection unregistered")
	return rooms
}

// LookupConnections returns the live connections of a user, empty when
// the user is offline.
func (r *Registry) LookupConnections(userID domain.UserID) []core.SignalConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.SignalConnection, 0, len(r.byUser[userID]))
	for id := range r.byUser[userID] {
		if e, ok := r.conns[id]; ok {
			out = append(out, e.conn)
		}
	}
	return out
}

func (r *Registry) Connection(id domain.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.conn, true
	}
	return nil, false
}

func (r *Registry) User(id domain.ConnID) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok && e.user != nil {
		return e.user, true
	}
	return nil, false
}

// TrackJoin mirrors room membership onto the connection record so
// Unregister can report it back.
func (r *Registry) TrackJoin(id domain.ConnID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.rooms[roomID] = struct{}{}
	}
}

func (r *Registry) TrackLeave(id domain.ConnID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		delete(e.rooms, roomID)
	}
}
