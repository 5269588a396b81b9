package signaling

import (
	"encoding/json"
	"log/slog"

	"github.com/cloudsphere/sphere/internal/metrics"
)

// Hub coordinates rooms and relays negotiation traffic. Room mutations are
// serialized by the RoomStore mutex; relay traffic only touches the
// Registry, so offers and candidates flow in parallel with joins and leaves.
//
// Every message handler is a silent no-op on bad input: unknown targets,
// stale rooms and unauthorized admin commands are dropped and counted, never
// reported back to the sender.
type Hub struct {
	store    *RoomStore
	registry *Registry
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewHub(m *metrics.Metrics, log *slog.Logger) *Hub {
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		store:    NewRoomStore(),
		registry: NewRegistry(),
		metrics:  m,
		log:      log,
	}
}

// HandleMessage dispatches one decoded client message. Called from the
// client's ReadPump goroutine.
func (h *Hub) HandleMessage(c *Client, msg *Message) {
	switch msg.Type {
	case TypeJoinRoom:
		h.handleJoin(c, msg.Payload)
	case TypeLeaveRoom:
		h.handleLeave(c, msg.Payload)
	case TypeOffer, TypeAnswer, TypeICECandidate:
		h.relay(c, msg.Type, msg.Payload)
	case TypeAdminCommand:
		h.handleAdminCommand(c, msg.Payload)
	default:
		h.log.Debug("unknown message type", "type", msg.Type)
	}
}

// Disconnect runs the membership cleanup for a dropped connection. It is the
// same path as an explicit leave; a connection that already left simply has
// no binding anymore.
func (h *Hub) Disconnect(c *Client) {
	h.removeBinding(c)
}

func (h *Hub) handleJoin(c *Client, payload json.RawMessage) {
	var p JoinRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.RoomID == "" || p.ParticipantID == "" {
		h.metrics.Inc(metrics.MalformedMessages)
		h.log.Warn("malformed join-room payload")
		return
	}

	// A connection may only carry one binding; joining again while bound
	// moves the participant, so run the leave cleanup for the old room first.
	if prev, ok := h.registry.BindingOf(c); ok {
		if prev.RoomID == p.RoomID && prev.ParticipantID == p.ParticipantID {
			return
		}
		h.removeBinding(c)
	}

	existing, created := h.store.Join(p.RoomID, p.ParticipantID)
	h.registry.Bind(c, p.ParticipantID, p.RoomID)
	if created {
		h.metrics.Inc(metrics.RoomsCreated)
	}
	h.log.Info("participant joined", "room", p.RoomID, "participant", p.ParticipantID, "existing", len(existing))

	// Snapshot of who is already here goes to the joiner only; everyone who
	// was present learns about the joiner.
	c.TrySend(h.encode(TypeRoomUsers, existing))
	joined := h.encode(TypeUserJoined, p.ParticipantID)
	h.sendToEach(existing, joined)
}

func (h *Hub) handleLeave(c *Client, payload json.RawMessage) {
	var roomID string
	if err := json.Unmarshal(payload, &roomID); err != nil {
		h.metrics.Inc(metrics.MalformedMessages)
		return
	}

	b, ok := h.registry.BindingOf(c)
	if !ok || (roomID != "" && roomID != b.RoomID) {
		// Stale room reference; nothing to do.
		h.metrics.Inc(metrics.RoomNotFound)
		return
	}
	h.removeBinding(c)
}

// removeBinding clears the connection's binding and applies the departure to
// the room: user-left plus a fresh room-users snapshot to everyone who
// remains, and admin-assigned to the new admin if the old one departed.
func (h *Hub) removeBinding(c *Client) {
	b, ok := h.registry.Unbind(c)
	if !ok {
		return
	}

	res := h.store.Leave(b.RoomID, b.ParticipantID)
	if !res.Removed {
		if !res.StillExists {
			h.metrics.Inc(metrics.RoomNotFound)
		}
		return
	}
	if !res.StillExists {
		h.metrics.Inc(metrics.RoomsDestroyed)
		h.log.Info("room destroyed", "room", b.RoomID)
		return
	}

	h.log.Info("participant left", "room", b.RoomID, "participant", b.ParticipantID)
	h.sendToEach(res.Remaining, h.encode(TypeUserLeft, b.ParticipantID))
	h.sendToEach(res.Remaining, h.encode(TypeRoomUsers, res.Remaining))

	if res.NewAdmin != "" {
		if admin, ok := h.registry.Lookup(res.NewAdmin); ok {
			admin.TrySend(h.encode(TypeAdminAssigned, nil))
		}
		h.log.Info("admin reassigned", "room", b.RoomID, "admin", res.NewAdmin)
	}
}

// relay forwards an offer, answer or ice-candidate to its target without
// inspecting the SDP or candidate contents. Missing targets drop the message
// silently: negotiation is best-effort and the application layer re-requests
// what it needs.
func (h *Hub) relay(c *Client, msgType string, payload json.RawMessage) {
	var p SignalPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.To == "" {
		h.metrics.Inc(metrics.MalformedMessages)
		return
	}

	b, ok := h.registry.BindingOf(c)
	if !ok {
		// Unbound connections have no identity to relay from.
		h.metrics.Inc(metrics.RelayDroppedNoTarget)
		return
	}
	target, ok := h.registry.Lookup(p.To)
	if !ok {
		h.metrics.Inc(metrics.RelayDroppedNoTarget)
		return
	}

	p.From = b.ParticipantID
	p.To = ""
	target.TrySend(h.encode(msgType, &p))
	h.metrics.Inc(metrics.MessagesRelayed)
}

func (h *Hub) handleAdminCommand(c *Client, payload json.RawMessage) {
	var p AdminCommandPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Command == "" || p.TargetID == "" {
		h.metrics.Inc(metrics.MalformedMessages)
		return
	}

	b, ok := h.registry.BindingOf(c)
	if !ok {
		h.metrics.Inc(metrics.AdminCommandRejected)
		return
	}
	roomID := p.RoomID
	if roomID == "" {
		roomID = b.RoomID
	}

	// Only the current admin may command, and only current members may be
	// commanded.
	if roomID != b.RoomID || !h.store.IsAdmin(roomID, b.ParticipantID) || !h.store.IsMember(roomID, p.TargetID) {
		h.metrics.Inc(metrics.AdminCommandRejected)
		h.log.Debug("admin command rejected", "room", roomID, "from", b.ParticipantID, "target", p.TargetID)
		return
	}

	target, ok := h.registry.Lookup(p.TargetID)
	if !ok {
		h.metrics.Inc(metrics.RelayDroppedNoTarget)
		return
	}
	target.TrySend(h.encode(TypeAdminCommand, &AdminCommandPayload{
		Command:  p.Command,
		TargetID: p.TargetID,
		From:     b.ParticipantID,
	}))
}

func (h *Hub) sendToEach(ids []string, msg *Message) {
	for _, id := range ids {
		if peer, ok := h.registry.Lookup(id); ok {
			if !peer.TrySend(msg) {
				h.metrics.Inc(metrics.SendDroppedSlowClient)
			}
		}
	}
}

func (h *Hub) encode(msgType string, v any) *Message {
	msg, err := NewMessage(msgType, v)
	if err != nil {
		// Payloads are our own types; marshal failure is a programming error.
		h.log.Error("encode message failed", "type", msgType, "err", err)
		return &Message{Type: msgType}
	}
	return msg
}
