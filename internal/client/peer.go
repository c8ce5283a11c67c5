package client

import (
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/huddle-rtc/huddle/internal/domain"
)

type peerPhase int

const (
	phaseNegotiating peerPhase = iota
	phaseConnected
	phaseClosed
)

// PeerEntry tracks one remote participant. The mutex serializes
// description updates so two negotiation triggers for the same remote
// never interleave; candidate application stays outside the lock and is
// ordered by the link itself.
type PeerEntry struct {
	id   domain.ClientID
	link PeerLink

	mu    sync.Mutex
	phase peerPhase
}

func newPeerEntry(id domain.ClientID, link PeerLink) *PeerEntry {
	return &PeerEntry{id: id, link: link, phase: phaseNegotiating}
}

func (p *PeerEntry) negotiateOffer() (*webrtc.SessionDescription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase == phaseClosed {
		return nil, ErrLinkClosed
	}
	return p.link.CreateOffer()
}

// answerOffer runs the callee sequence: install the remote offer, attach
// local tracks, produce the answer. attach is nil on renegotiation.
func (p *PeerEntry) answerOffer(offer webrtc.SessionDescription, attach func(PeerLink) error) (*webrtc.SessionDescription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase == phaseClosed {
		return nil, ErrLinkClosed
	}
	if err := p.link.AcceptOffer(offer); err != nil {
		return nil, err
	}
	if attach != nil {
		if err := attach(p.link); err != nil {
			return nil, err
		}
	}
	return p.link.CreateAnswer()
}

func (p *PeerEntry) acceptAnswer(answer webrtc.SessionDescription) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase == phaseClosed {
		return ErrLinkClosed
	}
	if err := p.link.AcceptAnswer(answer); err != nil {
		return err
	}
	p.phase = phaseConnected
	return nil
}

// addCandidate feeds one remote candidate to the link. Candidates for a
// closed entry are dropped, not errors.
func (p *PeerEntry) addCandidate(ci webrtc.ICECandidateInit) error {
	p.mu.Lock()
	if p.phase == phaseClosed {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.link.AddICECandidate(ci)
}

func (p *PeerEntry) replaceVideo(track webrtc.TrackLocal) error {
	p.mu.Lock()
	if p.phase == phaseClosed {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.link.ReplaceVideoTrack(track)
}

// close is idempotent; tearing down a half-negotiated entry is a normal
// path, not an exceptional one.
func (p *PeerEntry) close() {
	p.mu.Lock()
	if p.phase == phaseClosed {
		p.mu.Unlock()
		return
	}
	p.phase = phaseClosed
	p.mu.Unlock()
	p.link.Close()
}

func (p *PeerEntry) Phase() peerPhase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}
