package domain

type (
	RoomID        string
	AppointmentID string
	ConnID        string
)

// RoomState is the signaling lifecycle of one consultation session.
// Ended is terminal; a new session needs a new room id.
type RoomState int

const (
	RoomWaiting RoomState = iota
	RoomActive
	RoomEnded
)

func (s RoomState) String() string {
	switch s {
	case RoomWaiting:
		return "Waiting"
	case RoomActive:
		return "Active"
	case RoomEnded:
		return "Ended"
	}
	return "Unknown"
}

// Room pairs the two assigned participants of one appointment.
// Membership (live connections) lives in the room directory, not here.
type Room struct {
	ID            RoomID
	AppointmentID AppointmentID
	Patient       UserID
	Medecin       UserID
	State         RoomState
}
