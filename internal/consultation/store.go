// Package consultation bootstraps video sessions for confirmed
// appointments and owns their persistence.
package consultation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/Djacko3532/telemedecin/internal/domain"
)

var (
	ErrAppointmentNotFound  = errors.New("appointment not found or not confirmed")
	ErrConsultationNotFound = errors.New("consultation not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotParticipant       = errors.New("user is not a participant of this consultation")
)

// etat values of the consultation_video table.
const (
	etatWaiting = "En attente"
	etatActive  = "En cours"
	etatEnded   = "Terminee"
)

func stateFromEtat(etat string) domain.RoomState {
	switch etat {
	case etatActive:
		return domain.RoomActive
	case etatEnded:
		return domain.RoomEnded
	}
	return domain.RoomWaiting
}

// Store persists consultation and notification rows. All queries are
// parameterized; the schema is owned by the CRUD collaborator.
type Store struct {
	db *sql.DB
}

func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureRoom returns the room bound to the appointment, creating it on
// first call. Idempotent: later calls return the existing room id and
// state. This is the only place room identifiers are minted.
func (s *Store) EnsureRoom(ctx context.Context, appointmentID domain.AppointmentID) (*domain.Room, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var (
		patientID, medecinID string
		roomID               sql.NullString
		etat                 sql.NullString
	)
	err = tx.QueryRowContext(ctx,
		`SELECT rv.patient_id, rv.medecin_id, cv.room_id, cv.etat
		   FROM rendez_vous rv
		   LEFT JOIN consultation_video cv ON cv.rendez_vous_id = rv.id
		  WHERE rv.id = $1 AND rv.statut = 'Confirme'`,
		string(appointmentID),
	).Scan(&patientID, &medecinID, &roomID, &etat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("select appointment: %w", err)
	}

	room := &domain.Room{
		AppointmentID: appointmentID,
		Patient:       domain.UserID(patientID),
		Medecin:       domain.UserID(medecinID),
	}

	created := false
	if roomID.Valid {
		room.ID = domain.RoomID(roomID.String)
		room.State = stateFromEtat(etat.String)
	} else {
		room.ID = domain.RoomID(uuid.NewString())
		room.State = domain.RoomWaiting
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO consultation_video (rendez_vous_id, room_id, etat)
			 VALUES ($1, $2, $3)`,
			string(appointmentID), string(room.ID), etatWaiting,
		); err != nil {
			return nil, false, fmt.Errorf("insert consultation: %w", err)
		}
		created = true
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}
	return room, created, nil
}

// RoomByID loads the consultation a participant wants to join.
func (s *Store) RoomByID(ctx context.Context, roomID domain.RoomID) (*domain.Room, error) {
	var (
		appointmentID, patientID, medecinID, etat string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT cv.rendez_vous_id, rv.patient_id, rv.medecin_id, cv.etat
		   FROM consultation_video cv
		   JOIN rendez_vous rv ON rv.id = cv.rendez_vous_id
		  WHERE cv.room_id = $1`,
		string(roomID),
	).Scan(&appointmentID, &patientID, &medecinID, &etat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConsultationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select consultation: %w", err)
	}
	return &domain.Room{
		ID:            roomID,
		AppointmentID: domain.AppointmentID(appointmentID),
		Patient:       domain.UserID(patientID),
		Medecin:       domain.UserID(medecinID),
		State:         stateFromEtat(etat),
	}, nil
}

// End marks the consultation Terminee and records the medecin's notes.
func (s *Store) End(ctx context.Context, roomID domain.RoomID, notes, prescription string) (*domain.Room, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE consultation_video
		    SET etat = $1, date_fin = CURRENT_TIMESTAMP,
		        notes_consultation = $2, prescription = $3
		  WHERE room_id = $4`,
		etatEnded, notes, prescription, string(roomID),
	)
	if err != nil {
		return nil, fmt.Errorf("end consultation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrConsultationNotFound
	}
	return s.RoomByID(ctx, roomID)
}

// SaveNotification implements app.NotificationSink.
func (s *Store) SaveNotification(ctx context.Context, n domain.Notification) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notification (id, utilisateur_id, titre, message, type, date_creation)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, string(n.UserID), n.Title, n.Message, n.Kind, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID domain.UserID) ([]domain.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, utilisateur_id, titre, message, type, date_creation, lu
		   FROM notification
		  WHERE utilisateur_id = $1
		  ORDER BY date_creation DESC`,
		string(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var uid string
		if err := rows.Scan(&n.ID, &uid, &n.Title, &n.Message, &n.Kind, &n.CreatedAt, &n.Read); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.UserID = domain.UserID(uid)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, id string, userID domain.UserID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notification SET lu = true, date_lecture = CURRENT_TIMESTAMP
		  WHERE id = $1 AND utilisateur_id = $2`,
		id, string(userID),
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *Store) ClearNotifications(ctx context.Context, userID domain.UserID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM notification WHERE utilisateur_id = $1`, string(userID),
	); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}
