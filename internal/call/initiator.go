package call

// ShouldInitiate decides which side of a peer pair opens the negotiation:
// the side whose id sorts greater than the peer's. Both sides apply the same
// comparison and reach opposite conclusions, so every pair gets exactly one
// initiator without any coordination.
func ShouldInitiate(localID, remoteID string) bool {
	return localID > remoteID
}
