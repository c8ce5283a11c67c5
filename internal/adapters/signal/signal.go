package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/huddle-rtc/huddle/internal/app"
	"github.com/huddle-rtc/huddle/internal/config"
	"github.com/huddle-rtc/huddle/internal/core"
	"github.com/huddle-rtc/huddle/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// SignalWSController owns the websocket side of the relay: one
// connection id per upgrade, pumps per connection, and the dispatch of
// inbound events to the directory and to targeted peers.
type SignalWSController struct {
	Registry *app.Registry
	Rooms    *core.Directory

	readLimit  int64
	pingPeriod time.Duration
}

func NewSignalWSController(reg *app.Registry, rooms *core.Directory, cfg *config.Config) *SignalWSController {
	return &SignalWSController{
		Registry:   reg,
		Rooms:      rooms,
		readLimit:  cfg.ReadLimit,
		pingPeriod: cfg.PingPeriod,
	}
}

type wsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsSignalConn) Close() {
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
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection until the
// client goes away. The connection id lives exactly as long as the
// transport connection.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	id := domain.NewClientID()
	log.Info().Str("module", "signal").Str("client", string(id)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	conn := &wsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Registry.Bind(id, conn, cancel)

	go ctl.writePump(ctx, id, conn)
	go ctl.readPump(ctx, id, conn)
}

// handleDisconnect runs once per connection, after the read pump exits
// for any reason. Remaining room members get the disconnect notice; the
// departed client gets nothing.
func (ctl *SignalWSController) handleDisconnect(id domain.ClientID) {
	ctl.Registry.Unbind(id)
	room, remaining, ok := ctl.Rooms.Leave(id)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("client", string(id)).Str("room", string(room)).Int("notify", len(remaining)).Msg("disconnect fan-out")
	for _, member := range remaining {
		ctl.sendTo(member, disconnectNotice(id))
	}
}
