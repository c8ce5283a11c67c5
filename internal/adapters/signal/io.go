package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/huddle-rtc/huddle/internal/core"
	"github.com/huddle-rtc/huddle/internal/domain"
	"github.com/huddle-rtc/huddle/internal/protocol"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, id domain.ClientID, c *wsSignalConn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("client", string(id)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Str("client", string(id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, id domain.ClientID, c *wsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("client", string(id)).Msg("readPump closing")
		ctl.handleDisconnect(id)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.readLimit)

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("client", string(id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("client", string(id)).Msg("readPump read error")
				}
				return
			}
			ctl.dispatch(id, c, data)
		}
	}
}

// dispatch routes one inbound event. Each event is handled in isolation:
// a bad payload or stale target never affects other clients.
func (ctl *SignalWSController) dispatch(id domain.ClientID, c *wsSignalConn, data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case protocol.EvtJoinRoom:
		ctl.handleJoin(id, c, data)
	case protocol.EvtSendOffer:
		ctl.handleOffer(id, data)
	case protocol.EvtSendAnswer:
		ctl.handleAnswer(id, data)
	case protocol.EvtSendICECandidate:
		ctl.handleCandidate(id, data)
	case protocol.EvtHideRemoteCamera:
		ctl.handleCameraVisibility(id, data, protocol.EvtHideCamera)
	case protocol.EvtShowRemoteCamera:
		ctl.handleCameraVisibility(id, data, protocol.EvtShowCamera)
	case protocol.EvtMuteUser:
		ctl.handleMute(id, data)
	case protocol.EvtRequestFlipCamera:
		ctl.handleFlip(id, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *SignalWSController) sendJSON(c core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// sendTo delivers v to the target connection, or drops it silently when
// the target is no longer registered. Relays racing a disconnect land
// here; that is normal churn, not an error.
func (ctl *SignalWSController) sendTo(target domain.ClientID, v any) {
	conn, ok := ctl.Registry.Get(target)
	if !ok {
		log.Debug().Str("module", "signal").Str("target", string(target)).Msg("relay target gone, dropped")
		return
	}
	ctl.sendJSON(conn, v)
}
