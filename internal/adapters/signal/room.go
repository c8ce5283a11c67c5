package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/huddle-rtc/huddle/internal/core"
	"github.com/huddle-rtc/huddle/internal/domain"
	"github.com/huddle-rtc/huddle/internal/protocol"
)

func (ctl *SignalWSController) handleJoin(
	id domain.ClientID,
	conn *wsSignalConn,
	data []byte,
) {
	var p protocol.JoinRoom
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}
	roomID, err := domain.ParseRoomID(p.RoomID)
	if err != nil {
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "invalid_room",
		})
		return
	}

	existing, err := ctl.Rooms.Join(id, roomID)
	if errors.Is(err, core.ErrRoomFull) {
		ctl.sendJSON(conn, protocol.Bare{Type: protocol.EvtRoomFull})
		return
	}

	log.Info().Str("module", "signal").Str("client", string(id)).Str("room", string(roomID)).Int("existing", len(existing)).Msg("join")

	// The joiner learns who is already there; existing members learn
	// nothing until an offer reaches them.
	ctl.sendJSON(conn, protocol.ExistingUsers{
		Type:  protocol.EvtExistingUsers,
		Users: existing,
	})
}

func disconnectNotice(id domain.ClientID) protocol.UserDisconnected {
	return protocol.UserDisconnected{
		Type:   protocol.EvtUserDisconnected,
		UserID: id,
	}
}
