package signaling

import "testing"

func testClient() *Client {
	return &Client{send: make(chan *Message, 64)}
}

func TestRegistryBindLookupUnbind(t *testing.T) {
	r := NewRegistry()
	c := testClient()

	r.Bind(c, "A", "r1")

	if got, ok := r.Lookup("A"); !ok || got != c {
		t.Fatalf("Lookup(A)=%v ok=%v", got, ok)
	}
	if b, ok := r.BindingOf(c); !ok || b.ParticipantID != "A" || b.RoomID != "r1" {
		t.Fatalf("BindingOf=%+v ok=%v", b, ok)
	}

	b, ok := r.Unbind(c)
	if !ok || b.ParticipantID != "A" {
		t.Fatalf("Unbind=%+v ok=%v", b, ok)
	}
	if _, ok := r.Lookup("A"); ok {
		t.Fatal("participant index must be cleared on unbind")
	}
}

func TestRegistryUnbindIsIdempotent(t *testing.T) {
	r := NewRegistry()
	c := testClient()
	r.Bind(c, "A", "r1")

	if _, ok := r.Unbind(c); !ok {
		t.Fatal("first unbind should report the binding")
	}
	if _, ok := r.Unbind(c); ok {
		t.Fatal("second unbind must report nothing")
	}
}

func TestRegistryRebindDoesNotLeakOldIdentity(t *testing.T) {
	r := NewRegistry()
	c := testClient()

	r.Bind(c, "A", "r1")
	r.Bind(c, "A2", "r2")

	if _, ok := r.Lookup("A"); ok {
		t.Fatal("old participant index entry leaked after rebind")
	}
	if got, ok := r.Lookup("A2"); !ok || got != c {
		t.Fatalf("Lookup(A2)=%v ok=%v", got, ok)
	}
	b, _ := r.BindingOf(c)
	if b.RoomID != "r2" {
		t.Fatalf("BindingOf=%+v, want room r2", b)
	}
}

func TestRegistryUnbindKeepsNewerClaimant(t *testing.T) {
	r := NewRegistry()
	c1 := testClient()
	c2 := testClient()

	// Two connections assert the same untrusted id; the latest wins the
	// index. Unbinding the older connection must not evict the newer one.
	r.Bind(c1, "A", "r1")
	r.Bind(c2, "A", "r1")

	r.Unbind(c1)
	if got, ok := r.Lookup("A"); !ok || got != c2 {
		t.Fatalf("Lookup(A)=%v ok=%v, want newer connection to survive", got, ok)
	}
}
