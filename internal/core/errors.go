package core

import "errors"

var (
	// ErrNotMember is returned when a sender relays into a room it has
	// not joined. The message is dropped, never queued.
	ErrNotMember = errors.New("sender is not a member of the room")

	// ErrRoomFull rejects a third simultaneous connection; consultations
	// are strictly pairwise.
	ErrRoomFull = errors.New("room already has two participants")

	// ErrRoomUnknown covers nonexistent and ended room identifiers.
	ErrRoomUnknown = errors.New("room does not exist")

	// ErrConnectionUnknown marks operations on an unregistered
	// connection. Callers treat it as a no-op, never fatal.
	ErrConnectionUnknown = errors.New("connection is not registered")

	// ErrBackpressure reports a recipient whose send queue is full.
	ErrBackpressure = errors.New("backpressure")

	// ErrConnectionClosed reports a send on an already closed connection.
	ErrConnectionClosed = errors.New("connection closed")
)
