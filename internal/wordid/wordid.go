// Package wordid generates memorable identifiers for rooms and participants.
// IDs are human-readable word combinations so they can be read out loud when
// inviting someone to a call.
package wordid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"math/big"
)

var adjectives = []string{
	"amber", "bold", "brisk", "calm", "clever", "cosmic", "crisp", "eager",
	"fuzzy", "gentle", "golden", "happy", "keen", "lively", "lucid", "mellow",
	"nimble", "polar", "quiet", "rapid", "shiny", "swift", "vivid", "witty",
}

var nouns = []string{
	"aurora", "badger", "canyon", "comet", "falcon", "fjord", "glacier",
	"harbor", "heron", "lagoon", "lantern", "maple", "meadow", "nebula",
	"otter", "pebble", "prairie", "quartz", "raven", "reef", "sparrow",
	"summit", "tundra", "willow",
}

// Room returns a three-word room identifier, e.g. "brisk-falcon-lagoon".
func Room() string {
	return fmt.Sprintf("%s-%s-%s",
		adjectives[randomIndex(len(adjectives))],
		nouns[randomIndex(len(nouns))],
		nouns[randomIndex(len(nouns))],
	)
}

// Participant returns a word pair with a short random suffix, e.g.
// "swift-otter-3f2a". The suffix keeps two anonymous joiners from colliding;
// the coordinator still treats the id as opaque and untrusted.
func Participant() string {
	return fmt.Sprintf("%s-%s-%s",
		adjectives[randomIndex(len(adjectives))],
		nouns[randomIndex(len(nouns))],
		randomHex(2),
	)
}

// randomIndex returns a cryptographically secure random index for a slice of
// the given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		log.Panic("failed to generate random index:", err)
	}
	return int(n.Int64())
}

func randomHex(nbytes int) string {
	b := make([]byte, nbytes)
	if _, err := rand.Read(b); err != nil {
		log.Panic("failed to read random bytes:", err)
	}
	return hex.EncodeToString(b)
}
