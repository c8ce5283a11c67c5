package client

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// WSTransport connects a Session to the relay over a websocket. It
// implements SignalSender for the outbound direction and pumps inbound
// events into the session.
type WSTransport struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func DialSignal(ctx context.Context, serverURL string) (*WSTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, serverURL, nil)
	if err != nil {
		return nil, err
	}
	return &WSTransport{conn: conn}, nil
}

// Send marshals and writes one event. Safe for concurrent use; gorilla
// allows only one writer at a time.
func (t *WSTransport) Send(v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return t.conn.WriteJSON(v)
}

// Run pumps inbound events into the session until the connection drops
// or ctx is cancelled.
func (t *WSTransport) Run(ctx context.Context, s *Session) error {
	go t.pingLoop(ctx)
	go func() {
		<-ctx.Done()
		t.Close()
	}()

	_ = t.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		s.HandleMessage(data)
	}
}

func (t *WSTransport) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			_ = t.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			err := t.conn.WriteMessage(websocket.PingMessage, nil)
			t.mu.Unlock()
			if err != nil {
				log.Debug().Err(err).Str("module", "client.ws").Msg("ping failed")
				return
			}
		}
	}
}

func (t *WSTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	_ = t.conn.Close()
}
