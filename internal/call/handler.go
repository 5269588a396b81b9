package call

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/cloudsphere/sphere/internal/signaling"
)

// Handler routes incoming coordinator messages to typed channels. Done is
// closed when the message stream ends, which the session uses to detect a
// lost coordinator connection.
type Handler struct {
	client *Client

	RoomUsers     chan []string
	UserJoined    chan string
	UserLeft      chan string
	AdminAssigned chan struct{}
	AdminCommands chan *signaling.AdminCommandPayload
	Offers        chan *signaling.SignalPayload
	Answers       chan *signaling.SignalPayload
	Candidates    chan *signaling.SignalPayload
	Done          chan struct{}

	stop     chan struct{}
	stopOnce sync.Once
}

func NewHandler(client *Client) *Handler {
	return &Handler{
		client:        client,
		RoomUsers:     make(chan []string, 4),
		UserJoined:    make(chan string, 8),
		UserLeft:      make(chan string, 8),
		AdminAssigned: make(chan struct{}, 1),
		AdminCommands: make(chan *signaling.AdminCommandPayload, 4),
		Offers:        make(chan *signaling.SignalPayload, 32),
		Answers:       make(chan *signaling.SignalPayload, 32),
		Candidates:    make(chan *signaling.SignalPayload, 32),
		Done:          make(chan struct{}),
		stop:          make(chan struct{}),
	}
}

// Stop makes Start return even if no consumer is draining the typed
// channels. Safe to call more than once.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}

// Start consumes the client's incoming stream until it closes or Stop is
// called. Malformed payloads are dropped with a warning; the coordinator is
// trusted but the stream is not assumed immaculate. Every send selects on
// the stop signal so a departed consumer never strands this goroutine.
func (h *Handler) Start() {
	defer close(h.Done)

	for msg := range h.client.Incoming() {
		switch msg.Type {

		case signaling.TypeRoomUsers:
			var users []string
			if err := json.Unmarshal(msg.Payload, &users); err != nil {
				slog.Warn("malformed room-users payload", "err", err)
				continue
			}
			select {
			case h.RoomUsers <- users:
			case <-h.stop:
				return
			}

		case signaling.TypeUserJoined:
			if id, ok := decodeID(msg); ok {
				select {
				case h.UserJoined <- id:
				case <-h.stop:
					return
				}
			}

		case signaling.TypeUserLeft:
			if id, ok := decodeID(msg); ok {
				select {
				case h.UserLeft <- id:
				case <-h.stop:
					return
				}
			}

		case signaling.TypeAdminAssigned:
			select {
			case h.AdminAssigned <- struct{}{}:
			default:
			}

		case signaling.TypeAdminCommand:
			var p signaling.AdminCommandPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				slog.Warn("malformed admin-command payload", "err", err)
				continue
			}
			select {
			case h.AdminCommands <- &p:
			case <-h.stop:
				return
			}

		case signaling.TypeOffer:
			if p, ok := decodeSignal(msg); ok {
				select {
				case h.Offers <- p:
				case <-h.stop:
					return
				}
			}

		case signaling.TypeAnswer:
			if p, ok := decodeSignal(msg); ok {
				select {
				case h.Answers <- p:
				case <-h.stop:
					return
				}
			}

		case signaling.TypeICECandidate:
			if p, ok := decodeSignal(msg); ok {
				select {
				case h.Candidates <- p:
				case <-h.stop:
					return
				}
			}

		default:
			slog.Debug("unknown message type from coordinator", "type", msg.Type)
		}
	}
}

func decodeID(msg *signaling.Message) (string, bool) {
	var id string
	if err := json.Unmarshal(msg.Payload, &id); err != nil || id == "" {
		slog.Warn("malformed participant id payload", "type", msg.Type)
		return "", false
	}
	return id, true
}

func decodeSignal(msg *signaling.Message) (*signaling.SignalPayload, bool) {
	var p signaling.SignalPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil || p.From == "" {
		slog.Warn("malformed signal payload", "type", msg.Type)
		return nil, false
	}
	return &p, true
}
