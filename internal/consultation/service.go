package consultation

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Djacko3532/telemedecin/internal/app"
	"github.com/Djacko3532/telemedecin/internal/domain"
)

var ErrNotOwner = errors.New("appointment belongs to another medecin")

// Bootstrapper is the store surface the service needs. Kept as an
// interface so tests can run without Postgres.
type Bootstrapper interface {
	EnsureRoom(ctx context.Context, appointmentID domain.AppointmentID) (*domain.Room, bool, error)
	RoomByID(ctx context.Context, roomID domain.RoomID) (*domain.Room, error)
	End(ctx context.Context, roomID domain.RoomID, notes, prescription string) (*domain.Room, error)
}

// Service glues the bootstrap store to the live room directory and the
// notification fan-out.
type Service struct {
	Store    Bootstrapper
	Rooms    *app.RoomDirectory
	Notifier *app.Notifier
}

func NewService(store Bootstrapper, rooms *app.RoomDirectory, notifier *app.Notifier) *Service {
	return &Service{Store: store, Rooms: rooms, Notifier: notifier}
}

// Start creates or resumes the video session of an appointment. Only
// the medecin assigned to the appointment may start it. The patient is
// notified that the consultation is ready.
func (s *Service) Start(ctx context.Context, appointmentID domain.AppointmentID, medecinID domain.UserID) (*domain.Room, error) {
	room, created, err := s.Store.EnsureRoom(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if room.Medecin != medecinID {
		return nil, ErrNotOwner
	}
	s.Rooms.Open(room)
	log.Info().Str("module", "consultation").Str("room", string(room.ID)).
		Str("appointment", string(appointmentID)).Bool("created", created).Msg("consultation started")

	if created {
		s.Notifier.Notify(ctx, domain.NewNotification(
			room.Patient,
			"Consultation vidéo disponible",
			"Votre médecin a démarré la consultation vidéo. Rendez-vous dans votre espace patient pour rejoindre la consultation.",
			domain.NotifConsultationReady,
		))
	}
	return room, nil
}

// Get returns the consultation for a participant. Non-participants get
// ErrNotParticipant, mirroring the rejoin flow of the dashboards.
func (s *Service) Get(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (*domain.Room, error) {
	room, err := s.Store.RoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Patient != userID && room.Medecin != userID {
		return nil, ErrNotParticipant
	}
	return room, nil
}

// Finish closes the session: persists notes, ends the live room and
// notifies the patient.
func (s *Service) Finish(ctx context.Context, roomID domain.RoomID, medecinID domain.UserID, notes, prescription string) (*domain.Room, error) {
	room, err := s.Store.RoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Medecin != medecinID {
		return nil, ErrNotOwner
	}
	room, err = s.Store.End(ctx, roomID, notes, prescription)
	if err != nil {
		return nil, err
	}
	s.Rooms.EndRoom(roomID)
	log.Info().Str("module", "consultation").Str("room", string(roomID)).Msg("consultation finished")

	s.Notifier.Notify(ctx, domain.NewNotification(
		room.Patient,
		"Consultation terminée",
		"Votre consultation est terminée. Vous pouvez consulter les notes et la prescription dans votre espace.",
		domain.NotifConsultationEnded,
	))
	return room, nil
}
