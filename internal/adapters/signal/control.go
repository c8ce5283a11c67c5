package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/huddle-rtc/huddle/internal/domain"
	"github.com/huddle-rtc/huddle/internal/protocol"
)

// Control relays: one-way administrative commands forwarded verbatim.
// The server does not check admin status; clients only surface these
// affordances to the first member of a room.

func (ctl *SignalWSController) handleCameraVisibility(id domain.ClientID, data []byte, outType string) {
	var p protocol.CameraCommand
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad camera payload")
		return
	}
	if p.TargetUserID == "" {
		return
	}
	log.Debug().Str("module", "signal").Str("from", string(id)).Str("target", string(p.TargetUserID)).Str("cmd", outType).Msg("camera visibility relay")
	ctl.sendTo(p.TargetUserID, protocol.Bare{Type: outType})
}

// handleMute forwards the mute notice to the target, naming the target
// itself in userId. The requester gets no echo. Changing either side of
// that would change the wire contract browsers rely on.
func (ctl *SignalWSController) handleMute(id domain.ClientID, data []byte) {
	var p protocol.MuteUser
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad mute payload")
		return
	}
	if p.TargetUserID == "" {
		return
	}
	ctl.sendTo(p.TargetUserID, protocol.UserMuted{
		Type:    protocol.EvtUserMuted,
		UserID:  p.TargetUserID,
		IsMuted: p.IsMuted,
	})
}

func (ctl *SignalWSController) handleFlip(id domain.ClientID, data []byte) {
	var p protocol.CameraCommand
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad flip payload")
		return
	}
	if p.TargetUserID == "" {
		return
	}
	log.Debug().Str("module", "signal").Str("from", string(id)).Str("target", string(p.TargetUserID)).Msg("flip camera relay")
	ctl.sendTo(p.TargetUserID, protocol.Bare{Type: protocol.EvtFlipCamera})
}
