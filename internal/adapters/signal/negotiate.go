package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/huddle-rtc/huddle/internal/domain"
	"github.com/huddle-rtc/huddle/internal/protocol"
)

// Negotiation relays. Each forwards an opaque payload to exactly one
// target and stamps the sender id so the receiver knows which peer map
// entry it belongs to.

func (ctl *SignalWSController) handleOffer(id domain.ClientID, data []byte) {
	var p protocol.SendOffer
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad offer payload")
		return
	}
	if p.TargetUserID == "" {
		return
	}
	ctl.sendTo(p.TargetUserID, protocol.ReceiveOffer{
		Type:     protocol.EvtReceiveOffer,
		SDP:      p.SDP,
		CallerID: id,
	})
}

func (ctl *SignalWSController) handleAnswer(id domain.ClientID, data []byte) {
	var p protocol.SendAnswer
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad answer payload")
		return
	}
	if p.TargetUserID == "" {
		return
	}
	ctl.sendTo(p.TargetUserID, protocol.ReceiveAnswer{
		Type:       protocol.EvtReceiveAnswer,
		SDP:        p.SDP,
		AnswererID: id,
	})
}

func (ctl *SignalWSController) handleCandidate(id domain.ClientID, data []byte) {
	var p protocol.SendICECandidate
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		return
	}
	if p.TargetUserID == "" {
		return
	}
	ctl.sendTo(p.TargetUserID, protocol.ReceiveICECandidate{
		Type:      protocol.EvtReceiveICECandidate,
		Candidate: p.Candidate,
		SenderID:  id,
	})
}
