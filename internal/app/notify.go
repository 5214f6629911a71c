package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Djacko3532/telemedecin/internal/domain"
)

// saveTimeout bounds the detached persistence write.
const saveTimeout = 10 * time.Second

// NotificationSink is the durable half of notifications, owned by the
// persistence collaborator. The notifier only writes through it.
type NotificationSink interface {
	SaveNotification(ctx context.Context, n domain.Notification) error
}

// Notifier pushes one-to-one events to every live connection of a user.
// Zero connections means the event is silently dropped; the sink keeps
// it for the next login.
type Notifier struct {
	Registry *Registry
	Sink     NotificationSink
}

func NewNotifier(reg *Registry, sink NotificationSink) *Notifier {
	return &Notifier{Registry: reg, Sink: sink}
}

type notificationEvent struct {
	Type         string              `json:"type"`
	Notification domain.Notification `json:"notification"`
}

// Notify persists the notification (fire-and-forget) and pushes it to
// the user's live connections. Never reports delivery failure.
func (n *Notifier) Notify(ctx context.Context, notif domain.Notification) {
	if n.Sink != nil {
		// The triggering request may return (and cancel its context)
		// before the row is written; the write must survive that.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
		go func() {
			defer cancel()
			if err := n.Sink.SaveNotification(saveCtx, notif); err != nil {
				log.Error().Err(err).Str("module", "app.notify").Str("user", string(notif.UserID)).Msg("persist notification")
			}
		}()
	}

	frame, err := json.Marshal(notificationEvent{Type: "notification", Notification: notif})
	if err != nil {
		log.Error().Err(err).Str("module", "app.notify").Msg("marshal notification")
		return
	}

	conns := n.Registry.LookupConnections(notif.UserID)
	if len(conns) == 0 {
		log.Debug().Str("module", "app.notify").Str("user", string(notif.UserID)).Msg("user offline, push dropped")
		return
	}
	for _, c := range conns {
		if err := c.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.notify").Str("user", string(notif.UserID)).Msg("notification push dropped")
		}
	}
}
