package client

import (
	"errors"

	"github.com/pion/webrtc/v4"
)

var (
	ErrLinkClosed    = errors.New("peer link closed")
	ErrNoVideoSender = errors.New("no video sender on link")
)

// PeerLink is the peer-connection capability one PeerEntry drives. The
// capability owns candidate ordering: candidates handed to it before the
// remote description is set are queued and applied afterward.
type PeerLink interface {
	OnNegotiationNeeded(func())
	OnICECandidate(func(webrtc.ICECandidateInit))
	OnTrack(func(track *webrtc.TrackRemote))

	AddTrack(webrtc.TrackLocal) error
	ReplaceVideoTrack(webrtc.TrackLocal) error

	// CreateOffer produces an offer and installs it as the local
	// description.
	CreateOffer() (*webrtc.SessionDescription, error)
	// AcceptOffer installs a remote offer and releases any queued
	// candidates.
	AcceptOffer(webrtc.SessionDescription) error
	// CreateAnswer produces an answer to the accepted offer and installs
	// it as the local description.
	CreateAnswer() (*webrtc.SessionDescription, error)
	// AcceptAnswer installs a remote answer and releases any queued
	// candidates.
	AcceptAnswer(webrtc.SessionDescription) error

	AddICECandidate(webrtc.ICECandidateInit) error

	Close()
}

// LocalMedia is the session-wide media capability shared by all peer
// entries. Implemented by media.SampleSource.
type LocalMedia interface {
	AudioTrack() webrtc.TrackLocal
	VideoTrack() webrtc.TrackLocal
	SetMuted(bool)
	SetCameraEnabled(bool)
	Flip() (webrtc.TrackLocal, error)
	Close()
}

// LinkFactory builds one PeerLink per remote participant.
type LinkFactory func() (PeerLink, error)
