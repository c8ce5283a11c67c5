package client

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/huddle-rtc/huddle/internal/domain"
	"github.com/huddle-rtc/huddle/internal/protocol"
)

// Outbound signaling and admin controls. Remote-control commands are
// gated by the admin flag; the inbound counterparts in session.go apply
// unconditionally.

func decodeDescription(raw json.RawMessage) (webrtc.SessionDescription, error) {
	var desc webrtc.SessionDescription
	err := json.Unmarshal(raw, &desc)
	return desc, err
}

func encodeDescription(desc *webrtc.SessionDescription) json.RawMessage {
	b, err := json.Marshal(desc)
	if err != nil {
		log.Error().Err(err).Str("module", "client").Msg("marshal description")
		return nil
	}
	return b
}

func (s *Session) sendOffer(target domain.ClientID, offer *webrtc.SessionDescription) {
	err := s.send.Send(protocol.SendOffer{
		Type:         protocol.EvtSendOffer,
		TargetUserID: target,
		SDP:          encodeDescription(offer),
	})
	if err != nil {
		log.Error().Err(err).Str("module", "client").Str("peer", string(target)).Msg("send offer")
	}
}

func (s *Session) sendAnswer(target domain.ClientID, answer *webrtc.SessionDescription) {
	err := s.send.Send(protocol.SendAnswer{
		Type:         protocol.EvtSendAnswer,
		TargetUserID: target,
		SDP:          encodeDescription(answer),
	})
	if err != nil {
		log.Error().Err(err).Str("module", "client").Str("peer", string(target)).Msg("send answer")
	}
}

func (s *Session) sendCandidate(target domain.ClientID, ci webrtc.ICECandidateInit) {
	b, err := json.Marshal(ci)
	if err != nil {
		log.Error().Err(err).Str("module", "client").Msg("marshal candidate")
		return
	}
	err = s.send.Send(protocol.SendICECandidate{
		Type:         protocol.EvtSendICECandidate,
		TargetUserID: target,
		Candidate:    b,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "client").Str("peer", string(target)).Msg("send candidate")
	}
}

func (s *Session) requireAdmin() error {
	if !s.Admin() {
		return ErrNotAdmin
	}
	return nil
}

func (s *Session) HideRemoteCamera(target domain.ClientID) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	return s.send.Send(protocol.CameraCommand{Type: protocol.EvtHideRemoteCamera, TargetUserID: target})
}

func (s *Session) ShowRemoteCamera(target domain.ClientID) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	return s.send.Send(protocol.CameraCommand{Type: protocol.EvtShowRemoteCamera, TargetUserID: target})
}

func (s *Session) MuteRemote(target domain.ClientID, muted bool) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	return s.send.Send(protocol.MuteUser{Type: protocol.EvtMuteUser, TargetUserID: target, IsMuted: muted})
}

func (s *Session) RequestFlipCamera(target domain.ClientID) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	return s.send.Send(protocol.CameraCommand{Type: protocol.EvtRequestFlipCamera, TargetUserID: target})
}
