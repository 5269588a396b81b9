package signaling

import "sync"

// Binding ties a live connection to its logical identity for the lifetime of
// that connection.
type Binding struct {
	ParticipantID string
	RoomID        string
}

// Registry maps connections to bindings and participant ids back to
// connections. The participant index keeps relay target lookup O(1); relay
// traffic goes through the registry only and never locks the room store.
type Registry struct {
	mu            sync.RWMutex
	byConn        map[*Client]Binding
	byParticipant map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		byConn:        make(map[*Client]Binding),
		byParticipant: make(map[string]*Client),
	}
}

// Bind records the association. Rebinding the same connection replaces its
// previous binding without leaking the old participant index entry.
func (r *Registry) Bind(c *Client, participantID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byConn[c]; ok && r.byParticipant[prev.ParticipantID] == c {
		delete(r.byParticipant, prev.ParticipantID)
	}
	r.byConn[c] = Binding{ParticipantID: participantID, RoomID: roomID}
	r.byParticipant[participantID] = c
}

// Unbind clears the connection's binding and returns it. The second return
// is false when the connection was not bound, which makes the leave and
// disconnect cleanup paths naturally idempotent.
func (r *Registry) Unbind(c *Client) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byConn[c]
	if !ok {
		return Binding{}, false
	}
	delete(r.byConn, c)
	if r.byParticipant[b.ParticipantID] == c {
		delete(r.byParticipant, b.ParticipantID)
	}
	return b, true
}

// BindingOf returns the connection's current binding without clearing it.
func (r *Registry) BindingOf(c *Client) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byConn[c]
	return b, ok
}

// Lookup resolves a participant id to its active connection.
func (r *Registry) Lookup(participantID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byParticipant[participantID]
	return c, ok
}
