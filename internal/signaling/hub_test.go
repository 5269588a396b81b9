package signaling

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/cloudsphere/sphere/internal/metrics"
)

func newTestHub() *Hub {
	return NewHub(metrics.New(), nil)
}

func send(t *testing.T, h *Hub, c *Client, msgType string, v any) {
	t.Helper()
	msg, err := NewMessage(msgType, v)
	if err != nil {
		t.Fatalf("NewMessage(%s): %v", msgType, err)
	}
	h.HandleMessage(c, msg)
}

func join(t *testing.T, h *Hub, c *Client, room, participant string) {
	t.Helper()
	send(t, h, c, TypeJoinRoom, JoinRoomPayload{RoomID: room, ParticipantID: participant})
}

// drain empties a client's send buffer.
func drain(c *Client) []*Message {
	var out []*Message
	for {
		select {
		case m := <-c.send:
			out = append(out, m)
		default:
			return out
		}
	}
}

func decodePayload[T any](t *testing.T, msg *Message) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		t.Fatalf("unmarshal %s payload %s: %v", msg.Type, msg.Payload, err)
	}
	return v
}

func countType(msgs []*Message, msgType string) int {
	n := 0
	for _, m := range msgs {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func TestJoinFlow(t *testing.T) {
	h := newTestHub()
	a, b := testClient(), testClient()

	join(t, h, a, "r1", "A")
	got := drain(a)
	if len(got) != 1 || got[0].Type != TypeRoomUsers {
		t.Fatalf("A received %v, want a single room-users", got)
	}
	if users := decodePayload[[]string](t, got[0]); len(users) != 0 {
		t.Fatalf("room-users to first joiner=%v, want []", users)
	}

	join(t, h, b, "r1", "B")
	bMsgs := drain(b)
	if len(bMsgs) != 1 || bMsgs[0].Type != TypeRoomUsers {
		t.Fatalf("B received %v, want a single room-users", bMsgs)
	}
	if users := decodePayload[[]string](t, bMsgs[0]); !reflect.DeepEqual(users, []string{"A"}) {
		t.Fatalf("room-users to B=%v, want [A]", users)
	}

	aMsgs := drain(a)
	if len(aMsgs) != 1 || aMsgs[0].Type != TypeUserJoined {
		t.Fatalf("A received %v, want a single user-joined", aMsgs)
	}
	if id := decodePayload[string](t, aMsgs[0]); id != "B" {
		t.Fatalf("user-joined to A=%q, want B", id)
	}
}

func TestRelayRewritesAddressing(t *testing.T) {
	h := newTestHub()
	a, b := testClient(), testClient()
	join(t, h, a, "r1", "A")
	join(t, h, b, "r1", "B")
	drain(a)
	drain(b)

	sdp := json.RawMessage(`{"type":"offer","sdp":"v=0..."}`)
	send(t, h, a, TypeOffer, &SignalPayload{SDP: sdp, To: "B"})

	got := drain(b)
	if len(got) != 1 || got[0].Type != TypeOffer {
		t.Fatalf("B received %v, want one offer", got)
	}
	p := decodePayload[SignalPayload](t, got[0])
	if p.From != "A" || p.To != "" {
		t.Fatalf("forwarded payload=%+v, want from=A and to cleared", p)
	}
	if string(p.SDP) != string(sdp) {
		t.Fatalf("sdp mutated in transit: %s", p.SDP)
	}
	if h.metrics.Get(metrics.MessagesRelayed) != 1 {
		t.Fatal("relay counter not incremented")
	}
}

func TestRelayToAbsentTargetIsSilent(t *testing.T) {
	h := newTestHub()
	a := testClient()
	join(t, h, a, "r1", "A")
	drain(a)

	send(t, h, a, TypeOffer, &SignalPayload{SDP: json.RawMessage(`{}`), To: "B"})

	if got := drain(a); len(got) != 0 {
		t.Fatalf("sender received %v, want nothing back on a dropped relay", got)
	}
	if h.metrics.Get(metrics.RelayDroppedNoTarget) != 1 {
		t.Fatal("drop counter not incremented")
	}
}

func TestAdminCommandGating(t *testing.T) {
	h := newTestHub()
	a, b, c := testClient(), testClient(), testClient()
	join(t, h, a, "r1", "A") // admin
	join(t, h, b, "r1", "B")
	join(t, h, c, "r1", "C")
	drain(a)
	drain(b)
	drain(c)

	// Non-admin sender: dropped.
	send(t, h, b, TypeAdminCommand, &AdminCommandPayload{Command: "mute", TargetID: "C", RoomID: "r1"})
	if got := drain(c); len(got) != 0 {
		t.Fatalf("C received %v from non-admin command", got)
	}
	if h.metrics.Get(metrics.AdminCommandRejected) != 1 {
		t.Fatal("rejection not counted")
	}

	// Target not a member: dropped.
	send(t, h, a, TypeAdminCommand, &AdminCommandPayload{Command: "mute", TargetID: "Z", RoomID: "r1"})
	if h.metrics.Get(metrics.AdminCommandRejected) != 2 {
		t.Fatal("non-member target not rejected")
	}

	// Admin to member: delivered to the target only, stamped with from.
	send(t, h, a, TypeAdminCommand, &AdminCommandPayload{Command: "mute", TargetID: "C", RoomID: "r1"})
	got := drain(c)
	if len(got) != 1 || got[0].Type != TypeAdminCommand {
		t.Fatalf("C received %v, want one admin-command", got)
	}
	p := decodePayload[AdminCommandPayload](t, got[0])
	if p.Command != "mute" || p.From != "A" || p.TargetID != "C" {
		t.Fatalf("forwarded command=%+v", p)
	}
	if got := drain(b); len(got) != 0 {
		t.Fatalf("B received %v, admin-command must go to target only", got)
	}
}

func TestAdminHandoffSameForLeaveAndDisconnect(t *testing.T) {
	electedVia := func(depart func(h *Hub, a *Client)) (string, int, []*Message, []*Message) {
		h := newTestHub()
		a, b, c := testClient(), testClient(), testClient()
		join(t, h, a, "r1", "A")
		join(t, h, b, "r1", "B")
		join(t, h, c, "r1", "C")
		drain(a)
		drain(b)
		drain(c)

		depart(h, a)

		bMsgs, cMsgs := drain(b), drain(c)
		assignments := countType(bMsgs, TypeAdminAssigned) + countType(cMsgs, TypeAdminAssigned)
		switch {
		case countType(bMsgs, TypeAdminAssigned) > 0:
			return "B", assignments, bMsgs, cMsgs
		case countType(cMsgs, TypeAdminAssigned) > 0:
			return "C", assignments, bMsgs, cMsgs
		default:
			return "", assignments, bMsgs, cMsgs
		}
	}

	byLeave, nLeave, bMsgs, cMsgs := electedVia(func(h *Hub, a *Client) {
		send(t, h, a, TypeLeaveRoom, "r1")
	})
	byDisconnect, nDisc, _, _ := electedVia(func(h *Hub, a *Client) {
		h.Disconnect(a)
	})

	if nLeave != 1 || nDisc != 1 {
		t.Fatalf("admin-assigned count leave=%d disconnect=%d, want exactly 1 each", nLeave, nDisc)
	}
	if byLeave == "" || byLeave != byDisconnect {
		t.Fatalf("elected %q via leave but %q via disconnect", byLeave, byDisconnect)
	}

	// Remaining members also learn about the departure and get a fresh
	// snapshot.
	for name, msgs := range map[string][]*Message{"B": bMsgs, "C": cMsgs} {
		if countType(msgs, TypeUserLeft) != 1 {
			t.Fatalf("%s got %d user-left messages, want 1", name, countType(msgs, TypeUserLeft))
		}
		if countType(msgs, TypeRoomUsers) != 1 {
			t.Fatalf("%s got %d room-users messages, want 1", name, countType(msgs, TypeRoomUsers))
		}
	}
}

func TestLeaveThenDisconnectIsIdempotent(t *testing.T) {
	h := newTestHub()
	a, b := testClient(), testClient()
	join(t, h, a, "r1", "A")
	join(t, h, b, "r1", "B")
	drain(a)
	drain(b)

	send(t, h, a, TypeLeaveRoom, "r1")
	h.Disconnect(a)

	got := drain(b)
	if n := countType(got, TypeUserLeft); n != 1 {
		t.Fatalf("B received %d user-left, want 1 despite leave+disconnect", n)
	}
	if n := countType(got, TypeAdminAssigned); n != 1 {
		t.Fatalf("B received %d admin-assigned, want exactly 1", n)
	}

	members, ok := h.store.MembersOf("r1")
	if !ok || !reflect.DeepEqual(members, []string{"B"}) {
		t.Fatalf("MembersOf=%v ok=%v, want [B]", members, ok)
	}
}

func TestRelayFromUnboundConnectionIsDropped(t *testing.T) {
	h := newTestHub()
	a, b := testClient(), testClient()
	join(t, h, b, "r1", "B")
	drain(b)

	// a never joined; it has no identity to relay from.
	send(t, h, a, TypeICECandidate, &SignalPayload{Candidate: json.RawMessage(`{}`), To: "B"})
	if got := drain(b); len(got) != 0 {
		t.Fatalf("B received %v from unbound sender", got)
	}
}

func TestMalformedPayloadsAreIgnored(t *testing.T) {
	h := newTestHub()
	a := testClient()

	h.HandleMessage(a, &Message{Type: TypeJoinRoom, Payload: json.RawMessage(`{"roomId":42}`)})
	h.HandleMessage(a, &Message{Type: TypeOffer, Payload: json.RawMessage(`not json`)})

	if got := drain(a); len(got) != 0 {
		t.Fatalf("client received %v for malformed input", got)
	}
	if h.metrics.Get(metrics.MalformedMessages) != 2 {
		t.Fatalf("malformed counter=%d, want 2", h.metrics.Get(metrics.MalformedMessages))
	}
}
