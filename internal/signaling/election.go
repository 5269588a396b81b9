package signaling

// NextAdmin picks the admin after the current one departs: the first
// remaining member in join order. The rule is a pure function of the
// remaining member snapshot, so the explicit-leave and disconnect cleanup
// paths elect the same admin for identical memberships. Returns "" when the
// room is empty.
func NextAdmin(remaining []string) string {
	if len(remaining) == 0 {
		return ""
	}
	return remaining[0]
}
