// Package media provides the local media capability the call client
// attaches to its peer connections. Tracks are synthetic sample tracks:
// the client is headless, so it publishes placeholder frames instead of
// captured camera output, with the same mute/visibility/flip semantics.
package media

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog/log"
)

// Facing mirrors the camera orientation a browser toggles on flip.
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

const (
	audioInterval = 20 * time.Millisecond
	videoInterval = 33 * time.Millisecond
)

var ErrClosed = errors.New("media source closed")

// SampleSource owns one audio and one video track shared read-only by
// every peer connection. Mute gates audio samples, camera visibility
// gates video samples, Flip replaces the video track wholesale.
type SampleSource struct {
	muted atomic.Bool
	camOn atomic.Bool

	mu        sync.Mutex
	facing    Facing
	audio     *webrtc.TrackLocalStaticSample
	video     *webrtc.TrackLocalStaticSample
	stopVideo chan struct{}
	done      chan struct{}
	closed    bool
}

func NewSampleSource() (*SampleSource, error) {
	audio, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "huddle")
	if err != nil {
		return nil, err
	}
	s := &SampleSource{
		facing: FacingUser,
		audio:  audio,
		done:   make(chan struct{}),
	}
	s.camOn.Store(true)

	video, err := s.newVideoTrack(FacingUser)
	if err != nil {
		return nil, err
	}
	s.video = video
	s.stopVideo = make(chan struct{})

	go s.pumpAudio()
	go s.pumpVideo(video, s.stopVideo)
	return s, nil
}

func (s *SampleSource) newVideoTrack(facing Facing) (*webrtc.TrackLocalStaticSample, error) {
	return webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video-"+string(facing), "huddle")
}

func (s *SampleSource) AudioTrack() webrtc.TrackLocal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio
}

func (s *SampleSource) VideoTrack() webrtc.TrackLocal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.video
}

func (s *SampleSource) Facing() Facing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facing
}

func (s *SampleSource) SetMuted(muted bool) {
	s.muted.Store(muted)
	log.Info().Str("module", "media").Bool("muted", muted).Msg("mute state")
}

func (s *SampleSource) Muted() bool { return s.muted.Load() }

func (s *SampleSource) SetCameraEnabled(enabled bool) {
	s.camOn.Store(enabled)
	log.Info().Str("module", "media").Bool("enabled", enabled).Msg("camera visibility")
}

func (s *SampleSource) CameraEnabled() bool { return s.camOn.Load() }

// Flip swaps the camera facing and returns the replacement video track.
// The old track's pump is stopped before the new one starts, so the
// replaced track never leaks a writer.
func (s *SampleSource) Flip() (webrtc.TrackLocal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	next := FacingEnvironment
	if s.facing == FacingEnvironment {
		next = FacingUser
	}
	video, err := s.newVideoTrack(next)
	if err != nil {
		return nil, err
	}

	close(s.stopVideo)
	s.stopVideo = make(chan struct{})
	s.facing = next
	s.video = video
	go s.pumpVideo(video, s.stopVideo)

	log.Info().Str("module", "media").Str("facing", string(next)).Msg("camera flipped")
	return video, nil
}

func (s *SampleSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.stopVideo)
	close(s.done)
}

func (s *SampleSource) pumpAudio() {
	ticker := time.NewTicker(audioInterval)
	defer ticker.Stop()
	// Minimal opus silence frame.
	silence := []byte{0xf8, 0xff, 0xfe}
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if s.muted.Load() {
				continue
			}
			_ = s.audio.WriteSample(pionmedia.Sample{Data: silence, Duration: audioInterval})
		}
	}
}

func (s *SampleSource) pumpVideo(track *webrtc.TrackLocalStaticSample, stop chan struct{}) {
	ticker := time.NewTicker(videoInterval)
	defer ticker.Stop()
	frame := make([]byte, 16)
	for {
		select {
		case <-s.done:
			return
		case <-stop:
			return
		case <-ticker.C:
			if !s.camOn.Load() {
				continue
			}
			_ = track.WriteSample(pionmedia.Sample{Data: frame, Duration: videoInterval})
		}
	}
}
