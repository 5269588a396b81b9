package signaling

import (
	"fmt"
	"reflect"
	"testing"
)

func TestJoinCreatesRoomWithJoinerAsAdmin(t *testing.T) {
	s := NewRoomStore()

	existing, created := s.Join("r1", "A")
	if !created {
		t.Fatal("expected room creation on first join")
	}
	if len(existing) != 0 {
		t.Fatalf("existing=%v, want empty snapshot for first joiner", existing)
	}
	if !s.IsAdmin("r1", "A") {
		t.Fatal("first joiner must be admin")
	}

	members, ok := s.MembersOf("r1")
	if !ok || !reflect.DeepEqual(members, []string{"A"}) {
		t.Fatalf("MembersOf=%v ok=%v, want [A]", members, ok)
	}
}

func TestJoinSnapshotExcludesJoinerAndKeepsOrder(t *testing.T) {
	s := NewRoomStore()
	s.Join("r1", "C")
	s.Join("r1", "A")
	s.Join("r1", "B")

	existing, created := s.Join("r1", "D")
	if created {
		t.Fatal("room already existed")
	}
	if !reflect.DeepEqual(existing, []string{"C", "A", "B"}) {
		t.Fatalf("existing=%v, want join order [C A B]", existing)
	}
}

func TestJoinIsIdempotentForExistingMember(t *testing.T) {
	s := NewRoomStore()
	s.Join("r1", "A")
	s.Join("r1", "B")
	s.Join("r1", "B")

	members, _ := s.MembersOf("r1")
	if !reflect.DeepEqual(members, []string{"A", "B"}) {
		t.Fatalf("MembersOf=%v, want [A B] without duplicates", members)
	}
}

func TestLeaveDeletesEmptyRoom(t *testing.T) {
	s := NewRoomStore()
	s.Join("r1", "A")

	res := s.Leave("r1", "A")
	if !res.Removed || res.StillExists {
		t.Fatalf("Leave=%+v, want removed and room gone", res)
	}
	if _, ok := s.MembersOf("r1"); ok {
		t.Fatal("empty room must not be retained")
	}

	// A fresh join recreates the room from scratch.
	_, created := s.Join("r1", "B")
	if !created || !s.IsAdmin("r1", "B") {
		t.Fatal("rejoining a deleted room must create it with the joiner as admin")
	}
}

func TestLeaveElectsNewAdminDeterministically(t *testing.T) {
	s := NewRoomStore()
	s.Join("r1", "A")
	s.Join("r1", "B")
	s.Join("r1", "C")

	res := s.Leave("r1", "A")
	if res.NewAdmin != "B" {
		t.Fatalf("NewAdmin=%q, want first remaining member B", res.NewAdmin)
	}
	if !s.IsAdmin("r1", "B") {
		t.Fatal("store must reflect the elected admin")
	}
}

func TestLeaveByNonAdminKeepsAdmin(t *testing.T) {
	s := NewRoomStore()
	s.Join("r1", "A")
	s.Join("r1", "B")

	res := s.Leave("r1", "B")
	if res.NewAdmin != "" {
		t.Fatalf("NewAdmin=%q, want no election when a non-admin leaves", res.NewAdmin)
	}
	if !s.IsAdmin("r1", "A") {
		t.Fatal("admin must be unchanged")
	}
}

func TestLeaveUnknownRoomIsNoOp(t *testing.T) {
	s := NewRoomStore()
	res := s.Leave("nope", "A")
	if res.Removed || res.StillExists {
		t.Fatalf("Leave=%+v, want pure no-op", res)
	}
}

func TestLeaveTwiceIsIdempotent(t *testing.T) {
	s := NewRoomStore()
	s.Join("r1", "A")
	s.Join("r1", "B")

	first := s.Leave("r1", "A")
	if !first.Removed {
		t.Fatalf("first Leave=%+v", first)
	}
	second := s.Leave("r1", "A")
	if second.Removed {
		t.Fatalf("second Leave=%+v, want no-op for departed member", second)
	}
	if second.NewAdmin != "" {
		t.Fatal("second leave must not re-trigger election")
	}
}

// Invariant: at every point either the room is absent or the admin is a
// member.
func TestAdminAlwaysMemberAcrossSequences(t *testing.T) {
	s := NewRoomStore()
	participants := []string{"A", "B", "C", "D"}

	check := func(step string) {
		t.Helper()
		members, ok := s.MembersOf("r1")
		if !ok {
			return
		}
		for _, m := range members {
			if s.IsAdmin("r1", m) {
				return
			}
		}
		t.Fatalf("%s: no admin among members %v", step, members)
	}

	for i, p := range participants {
		s.Join("r1", p)
		check(fmt.Sprintf("join %d", i))
	}
	// Remove in an order that forces two elections.
	for i, p := range []string{"A", "C", "B", "D"} {
		s.Leave("r1", p)
		check(fmt.Sprintf("leave %d", i))
	}
	if _, ok := s.MembersOf("r1"); ok {
		t.Fatal("room should be gone after everyone left")
	}
}
