package wordid

import (
	"regexp"
	"testing"
)

var roomPattern = regexp.MustCompile(`^[a-z]+-[a-z]+-[a-z]+$`)
var participantPattern = regexp.MustCompile(`^[a-z]+-[a-z]+-[0-9a-f]{4}$`)

func TestRoomFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		id := Room()
		if !roomPattern.MatchString(id) {
			t.Fatalf("Room()=%q does not match %v", id, roomPattern)
		}
	}
}

func TestParticipantFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := Participant()
		if !participantPattern.MatchString(id) {
			t.Fatalf("Participant()=%q does not match %v", id, participantPattern)
		}
		seen[id] = true
	}
	// 16 bits of suffix entropy on top of the word pair: 50 draws colliding
	// down to a single value would mean the generator is broken.
	if len(seen) < 2 {
		t.Fatalf("expected distinct participant ids, got %v", seen)
	}
}
