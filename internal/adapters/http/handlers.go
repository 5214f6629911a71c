package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Djacko3532/telemedecin/internal/consultation"
	"github.com/Djacko3532/telemedecin/internal/domain"
)

// NotificationStore is the read side of the notification collaborator.
type NotificationStore interface {
	ListNotifications(ctx context.Context, userID domain.UserID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string, userID domain.UserID) error
	ClearNotifications(ctx context.Context, userID domain.UserID) error
}

type APIHandlers struct {
	Consultations *consultation.Service
	Notifications NotificationStore
}

type roomResponse struct {
	RoomID        string `json:"roomId"`
	AppointmentID string `json:"appointmentId"`
	PatientID     string `json:"patientId"`
	MedecinID     string `json:"medecinId"`
	State         string `json:"state"`
}

func toRoomResponse(r *domain.Room) roomResponse {
	return roomResponse{
		RoomID:        string(r.ID),
		AppointmentID: string(r.AppointmentID),
		PatientID:     string(r.Patient),
		MedecinID:     string(r.Medecin),
		State:         r.State.String(),
	}
}

func (h *APIHandlers) StartConsultation(c *gin.Context) {
	var req struct {
		RendezVousID string `json:"rendezVousId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing rendezVousId"})
		return
	}
	user := currentUser(c)
	room, err := h.Consultations.Start(c.Request.Context(), domain.AppointmentID(req.RendezVousID), user.ID)
	switch {
	case errors.Is(err, consultation.ErrAppointmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "rendez-vous not found or not confirmed"})
	case errors.Is(err, consultation.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"message": "rendez-vous belongs to another medecin"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("start consultation")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "consultation ready", "consultation": toRoomResponse(room)})
	}
}

func (h *APIHandlers) GetConsultation(c *gin.Context) {
	user := currentUser(c)
	room, err := h.Consultations.Get(c.Request.Context(), domain.RoomID(c.Param("roomId")), user.ID)
	switch {
	case errors.Is(err, consultation.ErrConsultationNotFound), errors.Is(err, consultation.ErrNotParticipant):
		c.JSON(http.StatusNotFound, gin.H{"message": "consultation not found"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("get consultation")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
	default:
		c.JSON(http.StatusOK, toRoomResponse(room))
	}
}

func (h *APIHandlers) EndConsultation(c *gin.Context) {
	var req struct {
		Notes        string `json:"notes_consultation"`
		Prescription string `json:"prescription"`
	}
	// Body is optional; a consultation can end without notes.
	_ = c.ShouldBindJSON(&req)
	user := currentUser(c)
	room, err := h.Consultations.Finish(c.Request.Context(), domain.RoomID(c.Param("roomId")), user.ID, req.Notes, req.Prescription)
	switch {
	case errors.Is(err, consultation.ErrConsultationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "consultation not found"})
	case errors.Is(err, consultation.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"message": "rendez-vous belongs to another medecin"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("end consultation")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
	default:
		c.JSON(http.StatusOK, toRoomResponse(room))
	}
}

func (h *APIHandlers) ListNotifications(c *gin.Context) {
	user := currentUser(c)
	list, err := h.Notifications.ListNotifications(c.Request.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
		return
	}
	if list == nil {
		list = []domain.Notification{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *APIHandlers) MarkNotificationRead(c *gin.Context) {
	user := currentUser(c)
	err := h.Notifications.MarkRead(c.Request.Context(), c.Param("id"), user.ID)
	switch {
	case errors.Is(err, consultation.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "notification not found"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("mark notification read")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "notification read"})
	}
}

func (h *APIHandlers) ClearNotifications(c *gin.Context) {
	user := currentUser(c)
	if err := h.Notifications.ClearNotifications(c.Request.Context(), user.ID); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("clear notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notifications cleared"})
}
