package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Djacko3532/telemedecin/internal/core"
	"github.com/Djacko3532/telemedecin/internal/domain"
)

// MaxRoomConnections caps simultaneous connections per room.
// Consultations are strictly patient + medecin.
const MaxRoomConnections = 2

type roomEntry struct {
	mu       sync.Mutex
	room     *domain.Room
	members  map[domain.ConnID]*domain.User
	seen     map[domain.UserID]struct{}
	lastSeen time.Time
	grace    *time.Timer
}

// RoomDirectory maps room ids to live membership. Rooms enter the
// directory only through Open; the directory never invents an id.
type RoomDirectory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomEntry

	// Grace delays the empty-room -> Ended transition so a brief
	// network blip does not kill the consultation.
	Grace time.Duration
	// IdleTimeout ends rooms with no join/leave/relay activity, a
	// safety net against missed disconnect events.
	IdleTimeout time.Duration
}

func NewRoomDirectory(grace, idleTimeout time.Duration) *RoomDirectory {
	return &RoomDirectory{
		rooms:       make(map[domain.RoomID]*roomEntry),
		Grace:       grace,
		IdleTimeout: idleTimeout,
	}
}

// Open registers a bootstrapped room. Reopening an existing id keeps the
// current membership (session resume).
func (d *RoomDirectory) Open(room *domain.Room) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.rooms[room.ID]; ok && e.room.State != domain.RoomEnded {
		return
	}
	d.rooms[room.ID] = &roomEntry{
		room:     room,
		members:  make(map[domain.ConnID]*domain.User),
		seen:     make(map[domain.UserID]struct{}),
		lastSeen: time.Now(),
	}
	log.Info().Str("module", "app.rooms").Str("room", string(room.ID)).Msg("room opened")
}

func (d *RoomDirectory) entry(id domain.RoomID) (*roomEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.rooms[id]
	return e, ok
}

// Join admits a connection into a room. Two rules apply: at most two
// simultaneous connections, and at most two distinct users over the
// room's lifetime. A returning user reconnecting is always welcome while
// a seat is free.
func (d *RoomDirectory) Join(roomID domain.RoomID, connID domain.ConnID, user *domain.User) core.JoinResult {
	e, ok := d.entry(roomID)
	if !ok {
		return core.JoinRoomUnknown
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.room.State == domain.RoomEnded {
		return core.JoinRoomUnknown
	}
	if _, ok := e.members[connID]; ok {
		return core.JoinOK
	}
	if len(e.members) >= MaxRoomConnections {
		return core.JoinRoomFull
	}
	if _, known := e.seen[user.ID]; !known && len(e.seen) >= 2 {
		return core.JoinRoomFull
	}
	if e.grace != nil {
		e.grace.Stop()
		e.grace = nil
	}
	e.members[connID] = user
	e.seen[user.ID] = struct{}{}
	e.lastSeen = time.Now()
	if len(e.members) == MaxRoomConnections {
		e.room.State = domain.RoomActive
	}
	log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Str("conn", string(connID)).
		Str("user", string(user.ID)).Str("state", e.room.State.String()).Msg("member joined")
	return core.JoinOK
}

// Leave removes membership. Idempotent; leaving an unknown room or a
// room one never joined is a no-op.
func (d *RoomDirectory) Leave(roomID domain.RoomID, connID domain.ConnID) {
	e, ok := d.entry(roomID)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.members[connID]; !ok {
		return
	}
	delete(e.members, connID)
	e.lastSeen = time.Now()
	log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Str("conn", string(connID)).Msg("member left")
	if len(e.members) > 0 || e.room.State == domain.RoomEnded {
		return
	}
	if d.Grace <= 0 {
		e.room.State = domain.RoomEnded
		log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Msg("room ended")
		return
	}
	if e.grace != nil {
		e.grace.Stop()
	}
	e.grace = time.AfterFunc(d.Grace, func() { d.endIfEmpty(roomID) })
}

func (d *RoomDirectory) endIfEmpty(roomID domain.RoomID) {
	e, ok := d.entry(roomID)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.members) == 0 && e.room.State != domain.RoomEnded {
		e.room.State = domain.RoomEnded
		log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Msg("room ended after grace period")
	}
}

// IsMember reports whether the connection currently occupies the room.
func (d *RoomDirectory) IsMember(roomID domain.RoomID, connID domain.ConnID) bool {
	e, ok := d.entry(roomID)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok = e.members[connID]
	return ok
}

// MembersExcept lists fan-out targets: every current member but the one
// given.
func (d *RoomDirectory) MembersExcept(roomID domain.RoomID, connID domain.ConnID) []domain.ConnID {
	e, ok := d.entry(roomID)
	if !ok {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.ConnID, 0, len(e.members))
	for id := range e.members {
		if id != connID {
			out = append(out, id)
		}
	}
	return out
}

// Members returns a snapshot for presence payloads.
func (d *RoomDirectory) Members(roomID domain.RoomID) []core.MemberDTO {
	e, ok := d.entry(roomID)
	if !ok {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]core.MemberDTO, 0, len(e.members))
	for id, u := range e.members {
		out = append(out, core.MemberDTO{ConnID: id, UserID: u.ID, DisplayName: u.DisplayName})
	}
	return out
}

func (d *RoomDirectory) Room(roomID domain.RoomID) (domain.Room, bool) {
	e, ok := d.entry(roomID)
	if !ok {
		return domain.Room{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.room, true
}

func (d *RoomDirectory) State(roomID domain.RoomID) (domain.RoomState, bool) {
	e, ok := d.entry(roomID)
	if !ok {
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.room.State, true
}

// Touch records relay activity so the reaper leaves busy rooms alone.
func (d *RoomDirectory) Touch(roomID domain.RoomID) {
	if e, ok := d.entry(roomID); ok {
		e.mu.Lock()
		e.lastSeen = time.Now()
		e.mu.Unlock()
	}
}

// EndRoom transitions a room to Ended regardless of membership. Used by
// the consultation service when the medecin closes the session.
func (d *RoomDirectory) EndRoom(roomID domain.RoomID) {
	e, ok := d.entry(roomID)
	if !ok {
		return
	}
	e.mu.Lock()
	e.room.State = domain.RoomEnded
	if e.grace != nil {
		e.grace.Stop()
		e.grace = nil
	}
	e.mu.Unlock()
	log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Msg("room ended explicitly")
}

// RunReaper ends idle rooms and drops ended ones. Blocks until ctx is
// done; callers run it in a goroutine.
func (d *RoomDirectory) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.reap()
		}
	}
}

func (d *RoomDirectory) reap() {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	for id, e := range d.rooms {
		e.mu.Lock()
		idle := now.Sub(e.lastSeen)
		ended := e.room.State == domain.RoomEnded
		if !ended && d.IdleTimeout > 0 && idle > d.IdleTimeout {
			e.room.State = domain.RoomEnded
			ended = true
			log.Warn().Str("module", "app.rooms").Str("room", string(id)).Dur("idle", idle).Msg("room reaped")
		}
		empty := len(e.members) == 0
		e.mu.Unlock()
		if ended && empty {
			delete(d.rooms, id)
		}
	}
}
