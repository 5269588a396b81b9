package metrics

import "sync"

// Counter names. Drops are counted instead of reported to senders: the
// signaling protocol treats unknown targets and unauthorized commands as
// silent no-ops, so counters are the only place they become visible.
const (
	MessagesRelayed       = "messages_relayed"
	RelayDroppedNoTarget  = "relay_dropped_no_target"
	AdminCommandRejected  = "admin_command_rejected"
	RoomNotFound          = "room_not_found"
	RoomsCreated          = "rooms_created"
	RoomsDestroyed        = "rooms_destroyed"
	SendDroppedSlowClient = "send_dropped_slow_client"
	MalformedMessages     = "malformed_messages"
)

// Metrics is a minimal, concurrency-safe counter registry exposed on the
// /metrics endpoint as plain text.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

func (m *Metrics) Inc(name string) {
	m.mu.Lock()
	m.m[name]++
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

// Snapshot returns a copy of all counters for rendering.
func (m *Metrics) Snapshot() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.m))
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
