package signaling

import "encoding/json"

// Message is the envelope for all websocket traffic between clients and the
// coordinator. Payload shapes depend on Type; SDP and ICE payloads stay raw
// because the coordinator relays them without interpretation.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants. Client-to-server, server-to-client and relayed
// types share one namespace.
const (
	TypeJoinRoom  = "join-room"
	TypeLeaveRoom = "leave-room"

	TypeRoomUsers     = "room-users"
	TypeUserJoined    = "user-joined"
	TypeUserLeft      = "user-left"
	TypeAdminAssigned = "admin-assigned"

	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"

	TypeAdminCommand = "admin-command"
)

// JoinRoomPayload is the join-room request body.
type JoinRoomPayload struct {
	RoomID        string `json:"roomId"`
	ParticipantID string `json:"participantId"`
}

// SignalPayload carries offer, answer and ice-candidate traffic. Exactly one
// of SDP or Candidate is set. Clients address the message with To; the
// coordinator rewrites it to From before forwarding.
type SignalPayload struct {
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	To        string          `json:"to,omitempty"`
	From      string          `json:"from,omitempty"`
}

// AdminCommandPayload is an admin-only directive aimed at one room member.
type AdminCommandPayload struct {
	Command  string `json:"command"`
	TargetID string `json:"targetId"`
	RoomID   string `json:"roomId,omitempty"`
	From     string `json:"from,omitempty"`
}

// NewMessage builds a Message with v marshaled as the payload. A nil v
// produces a payload-less message (admin-assigned has no body).
func NewMessage(msgType string, v any) (*Message, error) {
	msg := &Message{Type: msgType}
	if v == nil {
		return msg, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	msg.Payload = raw
	return msg, nil
}
