package signaling

import "sync"

// Room groups participants who may negotiate connections with each other.
// Members are kept in join order; that order is the snapshot order clients
// receive, so every observer derives the same peer set.
type Room struct {
	ID      string
	Admin   string
	members []string
}

func (r *Room) has(id string) bool {
	for _, m := range r.members {
		if m == id {
			return true
		}
	}
	return false
}

func (r *Room) remove(id string) {
	for i, m := range r.members {
		if m == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return
		}
	}
}

// RoomStore is the process-wide room map. All mutations go through its
// methods; the mutex makes join/leave linearizable per store so membership
// broadcasts always reflect one consistent snapshot.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*Room),
	}
}

// Join adds participantID to the room, creating the room with the joiner as
// admin if it does not exist yet. Adding an existing member is a no-op.
// Returns the member snapshot excluding the joiner (the "who is already
// here" list) and whether the room was created by this call.
func (s *RoomStore) Join(roomID, participantID string) (existing []string, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		room = &Room{ID: roomID, Admin: participantID}
		s.rooms[roomID] = room
		created = true
	}

	existing = make([]string, 0, len(room.members))
	for _, m := range room.members {
		if m != participantID {
			existing = append(existing, m)
		}
	}

	if !room.has(participantID) {
		room.members = append(room.members, participantID)
	}
	return existing, created
}

// LeaveResult reports what a Leave call changed.
type LeaveResult struct {
	// Removed is false when the room did not exist or the participant was
	// not a member; callers treat that as a no-op.
	Removed bool

	// StillExists is false when the member set became empty and the room
	// was deleted.
	StillExists bool

	// NewAdmin is set when the departing participant was admin and a new
	// one was elected.
	NewAdmin string

	// Remaining is the post-removal member snapshot in join order.
	Remaining []string
}

// Leave removes participantID from the room, elects a new admin if the admin
// departed, and deletes the room when it empties.
func (s *RoomStore) Leave(roomID, participantID string) LeaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return LeaveResult{}
	}
	if !room.has(participantID) {
		return LeaveResult{StillExists: true}
	}

	room.remove(participantID)
	if len(room.members) == 0 {
		delete(s.rooms, roomID)
		return LeaveResult{Removed: true}
	}

	res := LeaveResult{
		Removed:     true,
		StillExists: true,
		Remaining:   append([]string(nil), room.members...),
	}
	if room.Admin == participantID {
		room.Admin = NextAdmin(res.Remaining)
		res.NewAdmin = room.Admin
	}
	return res
}

// MembersOf returns a member snapshot in join order, or false if the room
// does not exist.
func (s *RoomStore) MembersOf(roomID string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}
	return append([]string(nil), room.members...), true
}

// IsAdmin reports whether participantID is the current admin of roomID.
// Unknown rooms are never admined.
func (s *RoomStore) IsAdmin(roomID, participantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	return ok && room.Admin == participantID
}

// IsMember reports whether participantID currently belongs to roomID.
func (s *RoomStore) IsMember(roomID, participantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	return ok && room.has(participantID)
}
