// Package protocol defines the signaling event contract shared by the
// server relay and the call client. Field names are load-bearing: browser
// peers speak the same JSON.
package protocol

import (
	"encoding/json"

	"github.com/huddle-rtc/huddle/internal/domain"
)

// Client → server event types.
const (
	EvtJoinRoom          = "join_room"
	EvtSendOffer         = "send_offer"
	EvtSendAnswer        = "send_answer"
	EvtSendICECandidate  = "send_ice_candidate"
	EvtHideRemoteCamera  = "hide_remote_camera"
	EvtShowRemoteCamera  = "show_remote_camera"
	EvtMuteUser          = "mute_user"
	EvtRequestFlipCamera = "request_flip_camera"
)

// Server → client event types.
const (
	EvtExistingUsers       = "existing_users"
	EvtRoomFull            = "room_full"
	EvtReceiveOffer        = "receive_offer"
	EvtReceiveAnswer       = "receive_answer"
	EvtReceiveICECandidate = "receive_ice_candidate"
	EvtUserDisconnected    = "user_disconnected"
	EvtHideCamera          = "hide_camera"
	EvtShowCamera          = "show_camera"
	EvtUserMuted           = "user_muted"
	EvtFlipCamera          = "flip_camera"
)

// Envelope is the minimal decode used to dispatch on the event type.
type Envelope struct {
	Type string `json:"type"`
}

// Bare carries event types with no payload (room_full, hide_camera,
// show_camera, flip_camera).
type Bare struct {
	Type string `json:"type"`
}

type JoinRoom struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type ExistingUsers struct {
	Type  string            `json:"type"`
	Users []domain.ClientID `json:"users"`
}

// SendOffer and SendAnswer carry the SDP as an opaque blob; the relay
// never looks inside it.
type SendOffer struct {
	Type         string          `json:"type"`
	TargetUserID domain.ClientID `json:"targetUserId"`
	SDP          json.RawMessage `json:"sdp"`
}

type ReceiveOffer struct {
	Type     string          `json:"type"`
	SDP      json.RawMessage `json:"sdp"`
	CallerID domain.ClientID `json:"callerId"`
}

type SendAnswer struct {
	Type         string          `json:"type"`
	TargetUserID domain.ClientID `json:"targetUserId"`
	SDP          json.RawMessage `json:"sdp"`
}

type ReceiveAnswer struct {
	Type       string          `json:"type"`
	SDP        json.RawMessage `json:"sdp"`
	AnswererID domain.ClientID `json:"answererId"`
}

type SendICECandidate struct {
	Type         string          `json:"type"`
	TargetUserID domain.ClientID `json:"targetUserId"`
	Candidate    json.RawMessage `json:"candidate"`
}

type ReceiveICECandidate struct {
	Type      string          `json:"type"`
	Candidate json.RawMessage `json:"candidate"`
	SenderID  domain.ClientID `json:"senderId"`
}

type UserDisconnected struct {
	Type   string          `json:"type"`
	UserID domain.ClientID `json:"userId"`
}

// CameraCommand covers hide_remote_camera, show_remote_camera and
// request_flip_camera: target only, no other payload.
type CameraCommand struct {
	Type         string          `json:"type"`
	TargetUserID domain.ClientID `json:"targetUserId"`
}

type MuteUser struct {
	Type         string          `json:"type"`
	TargetUserID domain.ClientID `json:"targetUserId"`
	IsMuted      bool            `json:"isMuted"`
}

// UserMuted is delivered to the muted target and names that same target
// in UserID. The asymmetry is part of the wire contract.
type UserMuted struct {
	Type    string          `json:"type"`
	UserID  domain.ClientID `json:"userId"`
	IsMuted bool            `json:"isMuted"`
}
