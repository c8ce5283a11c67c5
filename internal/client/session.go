package client

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/huddle-rtc/huddle/internal/domain"
	"github.com/huddle-rtc/huddle/internal/protocol"
)

var ErrNotAdmin = errors.New("not room admin")

// SignalSender sends one client→server signaling event.
type SignalSender interface {
	Send(v any) error
}

// Session orchestrates one call: it owns the peer map, the admin flag
// and the local media, and reacts to relay events. All peer state is
// scoped to the session, nothing is process-global.
type Session struct {
	roomID  string
	send    SignalSender
	media   LocalMedia
	newLink LinkFactory

	mu          sync.Mutex
	peers       map[domain.ClientID]*PeerEntry
	admin       bool
	joinDecided bool

	// OnRemoteTrack and OnPeerClosed stand in for the rendering layer:
	// attach on track arrival, release on teardown.
	OnRemoteTrack func(domain.ClientID, *webrtc.TrackRemote)
	OnPeerClosed  func(domain.ClientID)
	// OnRoomFull fires when the join is rejected; terminal for this room.
	OnRoomFull func()
}

func NewSession(roomID string, sender SignalSender, media LocalMedia, newLink LinkFactory) *Session {
	return &Session{
		roomID:  roomID,
		send:    sender,
		media:   media,
		newLink: newLink,
		peers:   make(map[domain.ClientID]*PeerEntry),
	}
}

// Join announces this client to the room.
func (s *Session) Join() error {
	return s.send.Send(protocol.JoinRoom{Type: protocol.EvtJoinRoom, RoomID: s.roomID})
}

// Admin reports whether this client was first into the room. Fixed at
// join time for the life of the session.
func (s *Session) Admin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admin
}

// Peers returns the ids of all current peer entries.
func (s *Session) Peers() []domain.ClientID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ClientID, 0, len(s.peers))
	for id := range s.peers {
		out = append(out, id)
	}
	return out
}

// HandleMessage dispatches one server→client event. Failures are logged
// and isolated to the peer entry that triggered them.
func (s *Session) HandleMessage(data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "client").Msg("bad json")
		return
	}

	switch env.Type {
	case protocol.EvtExistingUsers:
		var p protocol.ExistingUsers
		if err := json.Unmarshal(data, &p); err != nil {
			log.Error().Err(err).Str("module", "client").Msg("bad existing_users payload")
			return
		}
		s.onExistingUsers(p.Users)
	case protocol.EvtRoomFull:
		log.Warn().Str("module", "client").Str("room", s.roomID).Msg("room full")
		if s.OnRoomFull != nil {
			s.OnRoomFull()
		}
	case protocol.EvtReceiveOffer:
		var p protocol.ReceiveOffer
		if err := json.Unmarshal(data, &p); err != nil {
			log.Error().Err(err).Str("module", "client").Msg("bad offer payload")
			return
		}
		desc, err := decodeDescription(p.SDP)
		if err != nil {
			log.Error().Err(err).Str("module", "client").Msg("bad offer sdp")
			return
		}
		s.onOffer(p.CallerID, desc)
	case protocol.EvtReceiveAnswer:
		var p protocol.ReceiveAnswer
		if err := json.Unmarshal(data, &p); err != nil {
			log.Error().Err(err).Str("module", "client").Msg("bad answer payload")
			return
		}
		desc, err := decodeDescription(p.SDP)
		if err != nil {
			log.Error().Err(err).Str("module", "client").Msg("bad answer sdp")
			return
		}
		s.onAnswer(p.AnswererID, desc)
	case protocol.EvtReceiveICECandidate:
		var p protocol.ReceiveICECandidate
		if err := json.Unmarshal(data, &p); err != nil {
			log.Error().Err(err).Str("module", "client").Msg("bad candidate payload")
			return
		}
		var ci webrtc.ICECandidateInit
		if err := json.Unmarshal(p.Candidate, &ci); err != nil {
			log.Error().Err(err).Str("module", "client").Msg("bad candidate body")
			return
		}
		s.onCandidate(p.SenderID, ci)
	case protocol.EvtUserDisconnected:
		var p protocol.UserDisconnected
		if err := json.Unmarshal(data, &p); err != nil {
			log.Error().Err(err).Str("module", "client").Msg("bad disconnect payload")
			return
		}
		s.onPeerGone(p.UserID)
	case protocol.EvtHideCamera:
		s.media.SetCameraEnabled(false)
	case protocol.EvtShowCamera:
		s.media.SetCameraEnabled(true)
	case protocol.EvtUserMuted:
		var p protocol.UserMuted
		if err := json.Unmarshal(data, &p); err != nil {
			log.Error().Err(err).Str("module", "client").Msg("bad mute payload")
			return
		}
		s.media.SetMuted(p.IsMuted)
	case protocol.EvtFlipCamera:
		s.flipCamera()
	default:
		log.Warn().Str("module", "client").Str("type", env.Type).Msg("unknown event")
	}
}

func (s *Session) onExistingUsers(users []domain.ClientID) {
	s.mu.Lock()
	if !s.joinDecided {
		s.admin = len(users) == 0
		s.joinDecided = true
	}
	s.mu.Unlock()
	log.Info().Str("module", "client").Str("room", s.roomID).Int("existing", len(users)).Bool("admin", s.Admin()).Msg("joined room")

	for _, id := range users {
		if err := s.callPeer(id); err != nil {
			log.Error().Err(err).Str("module", "client").Str("peer", string(id)).Msg("call peer")
		}
	}
}

// callPeer runs the caller path: a fresh link, local tracks attached,
// and an offer produced whenever the link signals negotiation is needed.
func (s *Session) callPeer(target domain.ClientID) error {
	link, err := s.newLink()
	if err != nil {
		return err
	}
	entry := newPeerEntry(target, link)

	s.mu.Lock()
	if _, exists := s.peers[target]; exists {
		s.mu.Unlock()
		link.Close()
		return nil
	}
	s.peers[target] = entry
	s.mu.Unlock()

	s.wireLink(target, link)
	link.OnNegotiationNeeded(func() {
		offer, err := entry.negotiateOffer()
		if err != nil {
			log.Error().Err(err).Str("module", "client").Str("peer", string(target)).Msg("create offer")
			return
		}
		s.sendOffer(target, offer)
	})

	// Attaching the shared tracks fires the negotiation-needed signal.
	if err := s.attachTracks(link); err != nil {
		s.onPeerGone(target)
		return err
	}
	return nil
}

// onOffer runs the callee path, or a renegotiation when an entry for the
// caller already exists.
func (s *Session) onOffer(caller domain.ClientID, offer webrtc.SessionDescription) {
	s.mu.Lock()
	entry, exists := s.peers[caller]
	s.mu.Unlock()

	attach := s.attachTracks
	if !exists {
		link, err := s.newLink()
		if err != nil {
			log.Error().Err(err).Str("module", "client").Str("peer", string(caller)).Msg("create link")
			return
		}
		entry = newPeerEntry(caller, link)
		s.mu.Lock()
		if prior, raced := s.peers[caller]; raced {
			entry = prior
			attach = nil
			link.Close()
		} else {
			s.peers[caller] = entry
			s.wireLink(caller, link)
		}
		s.mu.Unlock()
	} else {
		attach = nil
	}

	answer, err := entry.answerOffer(offer, attach)
	if err != nil {
		log.Error().Err(err).Str("module", "client").Str("peer", string(caller)).Msg("answer offer")
		return
	}
	s.sendAnswer(caller, answer)
}

func (s *Session) onAnswer(answerer domain.ClientID, answer webrtc.SessionDescription) {
	s.mu.Lock()
	entry, ok := s.peers[answerer]
	s.mu.Unlock()
	if !ok {
		log.Debug().Str("module", "client").Str("peer", string(answerer)).Msg("answer for unknown peer, dropped")
		return
	}
	if err := entry.acceptAnswer(answer); err != nil {
		log.Error().Err(err).Str("module", "client").Str("peer", string(answerer)).Msg("accept answer")
	}
}

func (s *Session) onCandidate(sender domain.ClientID, ci webrtc.ICECandidateInit) {
	s.mu.Lock()
	entry, ok := s.peers[sender]
	s.mu.Unlock()
	if !ok {
		log.Debug().Str("module", "client").Str("peer", string(sender)).Msg("candidate for unknown peer, dropped")
		return
	}
	if err := entry.addCandidate(ci); err != nil {
		log.Error().Err(err).Str("module", "client").Str("peer", string(sender)).Msg("add candidate")
	}
}

// onPeerGone tears down the entry and releases its rendering resource.
func (s *Session) onPeerGone(id domain.ClientID) {
	s.mu.Lock()
	entry, ok := s.peers[id]
	delete(s.peers, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	entry.close()
	if s.OnPeerClosed != nil {
		s.OnPeerClosed(id)
	}
	log.Info().Str("module", "client").Str("peer", string(id)).Msg("peer torn down")
}

// flipCamera swaps the local video track and propagates the replacement
// to every active sender.
func (s *Session) flipCamera() {
	track, err := s.media.Flip()
	if err != nil {
		log.Error().Err(err).Str("module", "client").Msg("flip camera")
		return
	}
	s.mu.Lock()
	entries := make([]*PeerEntry, 0, len(s.peers))
	for _, e := range s.peers {
		entries = append(entries, e)
	}
	s.mu.Unlock()
	for _, e := range entries {
		if err := e.replaceVideo(track); err != nil {
			log.Error().Err(err).Str("module", "client").Str("peer", string(e.id)).Msg("replace video track")
		}
	}
}

// Close tears down every peer entry and the local media.
func (s *Session) Close() {
	s.mu.Lock()
	entries := s.peers
	s.peers = make(map[domain.ClientID]*PeerEntry)
	s.mu.Unlock()
	for id, e := range entries {
		e.close()
		if s.OnPeerClosed != nil {
			s.OnPeerClosed(id)
		}
	}
	s.media.Close()
}

func (s *Session) attachTracks(link PeerLink) error {
	if err := link.AddTrack(s.media.AudioTrack()); err != nil {
		return err
	}
	return link.AddTrack(s.media.VideoTrack())
}

func (s *Session) wireLink(id domain.ClientID, link PeerLink) {
	link.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		s.sendCandidate(id, ci)
	})
	link.OnTrack(func(track *webrtc.TrackRemote) {
		if s.OnRemoteTrack != nil {
			s.OnRemoteTrack(id, track)
		}
	})
}
