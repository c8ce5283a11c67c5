package client

import (
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// pionLink implements PeerLink on a pion PeerConnection.
type pionLink struct {
	pc *webrtc.PeerConnection

	mu         sync.Mutex
	pending    []webrtc.ICECandidateInit
	haveRemote bool
	closed     bool
}

// NewPeerLink builds a PeerLink configured with the given STUN servers.
func NewPeerLink(stunServers []string) (PeerLink, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: stunServers},
		},
	})
	if err != nil {
		return nil, err
	}
	return &pionLink{pc: pc}, nil
}

func (l *pionLink) OnNegotiationNeeded(fn func()) {
	l.pc.OnNegotiationNeeded(fn)
}

func (l *pionLink) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	l.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c != nil {
			fn(c.ToJSON())
		}
	})
}

func (l *pionLink) OnTrack(fn func(track *webrtc.TrackRemote)) {
	l.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		fn(track)
	})
}

func (l *pionLink) AddTrack(track webrtc.TrackLocal) error {
	_, err := l.pc.AddTrack(track)
	return err
}

func (l *pionLink) ReplaceVideoTrack(track webrtc.TrackLocal) error {
	for _, sender := range l.pc.GetSenders() {
		t := sender.Track()
		if t != nil && t.Kind() == webrtc.RTPCodecTypeVideo {
			return sender.ReplaceTrack(track)
		}
	}
	return ErrNoVideoSender
}

func (l *pionLink) CreateOffer() (*webrtc.SessionDescription, error) {
	offer, err := l.pc.CreateOffer(nil)
	if err != nil {
		return nil, err
	}
	if err := l.pc.SetLocalDescription(offer); err != nil {
		return nil, err
	}
	return l.pc.LocalDescription(), nil
}

func (l *pionLink) AcceptOffer(offer webrtc.SessionDescription) error {
	if err := l.pc.SetRemoteDescription(offer); err != nil {
		return err
	}
	l.flushPending()
	return nil
}

func (l *pionLink) CreateAnswer() (*webrtc.SessionDescription, error) {
	answer, err := l.pc.CreateAnswer(nil)
	if err != nil {
		return nil, err
	}
	if err := l.pc.SetLocalDescription(answer); err != nil {
		return nil, err
	}
	return l.pc.LocalDescription(), nil
}

func (l *pionLink) AcceptAnswer(answer webrtc.SessionDescription) error {
	if err := l.pc.SetRemoteDescription(answer); err != nil {
		return err
	}
	l.flushPending()
	return nil
}

// AddICECandidate applies a remote candidate, or queues it if no remote
// description has been installed yet. Arrival order is preserved.
func (l *pionLink) AddICECandidate(ci webrtc.ICECandidateInit) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLinkClosed
	}
	if !l.haveRemote {
		l.pending = append(l.pending, ci)
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()
	return l.pc.AddICECandidate(ci)
}

func (l *pionLink) flushPending() {
	l.mu.Lock()
	l.haveRemote = true
	queued := l.pending
	l.pending = nil
	l.mu.Unlock()
	for _, ci := range queued {
		if err := l.pc.AddICECandidate(ci); err != nil {
			log.Error().Err(err).Str("module", "client.rtc").Msg("apply queued candidate")
		}
	}
}

func (l *pionLink) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()
	if err := l.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "client.rtc").Msg("close peer connection")
	}
}
