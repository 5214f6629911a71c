package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds understood by the patient/medecin dashboards.
const (
	NotifConsultationReady = "CONSULTATION_PRETE"
	NotifConsultationEnded = "CONSULTATION_TERMINEE"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    UserID    `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
}

func NewNotification(userID UserID, title, message, kind string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
}
