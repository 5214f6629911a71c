package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Djacko3532/telemedecin/internal/app"
	"github.com/Djacko3532/telemedecin/internal/core"
	"github.com/Djacko3532/telemedecin/internal/domain"
)

const sendQueueSize = 32

// Controller terminates the signaling websocket and dispatches typed
// events into the relay, room directory and registry.
type Controller struct {
	Registry *app.Registry
	Rooms    *app.RoomDirectory
	Relay    *app.Relay

	ReadLimit  int64
	PingPeriod time.Duration

	joinLimiter *RoomRateLimiter
}

func NewController(reg *app.Registry, rooms *app.RoomDirectory, relay *app.Relay, readLimit int64, pingPeriod time.Duration, joinLimiter *RoomRateLimiter) *Controller {
	return &Controller{
		Registry:    reg,
		Rooms:       rooms,
		Relay:       relay,
		ReadLimit:   readLimit,
		PingPeriod:  pingPeriod,
		joinLimiter: joinLimiter,
	}
}

// wsConn adapts one gorilla connection to core.SignalConnection.
// TrySend never blocks; a full queue is backpressure and the frame is
// the sender's to lose.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnectionClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection's pumps.
// The auth middleware must have placed the verified user on the context.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	v, ok := c.Get("user")
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}
	user := v.(*domain.User)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	connID := domain.ConnID(uuid.NewString())
	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, sendQueueSize),
	}

	ctl.Registry.Register(connID, conn)
	if err := ctl.Registry.AssociateUser(connID, user); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(connID)).Msg("associate user")
		conn.Close()
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(connID)).Str("user", string(user.ID)).Msg("new WS connection")

	connCtx, cancel := context.WithCancel(ctx)
	go ctl.writePump(connCtx, conn)
	go func() {
		defer cancel()
		ctl.readPump(connCtx, connID, conn)
	}()
}
