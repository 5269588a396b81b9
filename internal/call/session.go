package call

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cloudsphere/sphere/internal/config"
	"github.com/cloudsphere/sphere/internal/media"
	"github.com/cloudsphere/sphere/internal/signaling"
)

// EventKind classifies session events delivered to the presentation layer.
type EventKind int

const (
	EventPeerAdded EventKind = iota
	EventPeerRemoved
	EventLinkState
	EventPeerState
	EventAdminAssigned
	EventAdminCommand
	EventError
	EventLeft
)

// Event is a session-level occurrence: roster changes, link transitions,
// peer state updates, admin notifications, errors, and final departure.
type Event struct {
	Kind    EventKind
	Remote  string
	State   LinkState
	Peer    PeerState
	Command *signaling.AdminCommandPayload
	Err     error
}

// SessionParams collects everything a session needs up front.
type SessionParams struct {
	Config      *config.ClientConfig
	RoomID      string
	LocalID     string
	DisplayName string
	Source      media.Source
	OnTrack     TrackHandler
	Logger      *slog.Logger
}

type sessionCommand struct {
	muted    *bool
	videoOff *bool
	source   media.Source
	admin    *signaling.AdminCommandPayload
}

// Session coordinates one participant's presence in a room: it joins via the
// coordinator, opens a peer link to every other member, and surfaces
// everything that happens as Events. All link bookkeeping runs on a single
// goroutine, so no lock guards the links map.
type Session struct {
	roomID  string
	localID string
	source  media.Source
	onTrack TrackHandler
	log     *slog.Logger

	engine  *media.Engine
	client  *Client
	handler *Handler

	links      map[string]*PeerLink
	admin      bool
	localState PeerState

	linkEvents chan linkEvent
	commands   chan sessionCommand
	events     chan Event
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
}

func NewSession(params SessionParams) *Session {
	log := params.Logger
	if log == nil {
		log = slog.Default()
	}
	source := params.Source
	if source == nil {
		source = media.None()
	}

	return &Session{
		roomID:  params.RoomID,
		localID: params.LocalID,
		source:  source,
		onTrack: params.OnTrack,
		log:     log.With("room", params.RoomID, "self", params.LocalID),
		engine:  media.NewEngine(params.Config, log),
		client:  NewClient(params.Config.WebSocketURL),
		links:   make(map[string]*PeerLink),
		localState: PeerState{
			Name: params.DisplayName,
		},
		linkEvents: make(chan linkEvent, 64),
		commands:   make(chan sessionCommand, 8),
		events:     make(chan Event, 64),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Events is the stream the presentation layer consumes. It is closed once
// the session has fully shut down.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Join connects to the coordinator, announces the participant, and starts
// the session loop. Negotiation with existing members begins as soon as the
// membership snapshot arrives.
func (s *Session) Join() error {
	if err := s.client.Connect(); err != nil {
		return newError("connect to coordinator", err)
	}

	s.handler = NewHandler(s.client)
	go s.handler.Start()

	err := s.client.Send(signaling.TypeJoinRoom, &signaling.JoinRoomPayload{
		RoomID:        s.roomID,
		ParticipantID: s.localID,
	})
	if err != nil {
		s.client.Close()
		return err
	}

	s.log.Info("joined room")
	go s.run()
	return nil
}

// Leave asks the session to shut down. Safe to call more than once; the
// events channel closing marks completion.
func (s *Session) Leave() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// SetMuted updates the local mute flag and pushes it to all peers.
func (s *Session) SetMuted(muted bool) {
	s.command(sessionCommand{muted: &muted})
}

// SetVideoOff updates the local video flag and pushes it to all peers.
func (s *Session) SetVideoOff(off bool) {
	s.command(sessionCommand{videoOff: &off})
}

// AttachMedia replaces the local media source and adds its tracks to every
// live link, for capture that completes after the session joined. Links
// created afterwards use the new source too.
func (s *Session) AttachMedia(src media.Source) {
	if src == nil {
		return
	}
	s.command(sessionCommand{source: src})
}

// SendAdminCommand asks the coordinator to forward a moderation command to
// the target. The coordinator enforces that only the admin may do this.
func (s *Session) SendAdminCommand(command, targetID string) {
	s.command(sessionCommand{admin: &signaling.AdminCommandPayload{
		Command:  command,
		TargetID: targetID,
		RoomID:   s.roomID,
	}})
}

// IsAdmin reports whether the coordinator has assigned this participant as
// the room admin. Only meaningful from the goroutine consuming Events.
func (s *Session) IsAdmin() bool {
	return s.admin
}

func (s *Session) command(cmd sessionCommand) {
	select {
	case s.commands <- cmd:
	case <-s.stopped:
	}
}

func (s *Session) run() {
	defer s.shutdown()

	for {
		select {
		case users := <-s.handler.RoomUsers:
			for _, id := range users {
				s.ensureLink(id)
			}

		case id := <-s.handler.UserJoined:
			s.ensureLink(id)

		case id := <-s.handler.UserLeft:
			s.dropLink(id)
			s.emit(Event{Kind: EventPeerRemoved, Remote: id})

		case <-s.handler.AdminAssigned:
			s.admin = true
			s.localState.Admin = true
			s.broadcastState()
			s.emit(Event{Kind: EventAdminAssigned})

		case cmd := <-s.handler.AdminCommands:
			s.emit(Event{Kind: EventAdminCommand, Remote: cmd.From, Command: cmd})

		case p := <-s.handler.Offers:
			s.handleOffer(p)

		case p := <-s.handler.Answers:
			if link, ok := s.links[p.From]; ok {
				if err := link.acceptAnswer(p.SDP); err != nil {
					s.abandonLink(p.From, err)
				}
			}

		case p := <-s.handler.Candidates:
			if link, ok := s.links[p.From]; ok {
				if err := link.addCandidate(p.Candidate); err != nil {
					s.log.Debug("discarded ICE candidate", "peer", p.From, "err", err)
				}
			}

		case ev := <-s.linkEvents:
			s.handleLinkEvent(ev)

		case cmd := <-s.commands:
			s.handleCommand(cmd)

		case <-s.handler.Done:
			s.emit(Event{Kind: EventError, Err: ErrSignalingClosed})
			return

		case <-s.done:
			return
		}
	}
}

// ensureLink opens a peer link to the given participant if none exists. The
// initiator side starts the offer immediately; the responder side waits for
// the remote's offer.
func (s *Session) ensureLink(remoteID string) {
	if remoteID == s.localID {
		return
	}
	if _, ok := s.links[remoteID]; ok {
		return
	}

	link, err := newPeerLink(s.localID, remoteID, s.engine, s.client, s.linkEvents, s.onTrack)
	if err != nil {
		s.emit(Event{Kind: EventError, Remote: remoteID, Err: err})
		return
	}

	if tracks := s.source.Tracks(); len(tracks) > 0 {
		err = link.attachMedia(s.source)
	} else {
		err = link.addRecvOnly()
	}
	if err != nil {
		link.close()
		s.emit(Event{Kind: EventError, Remote: remoteID, Err: err})
		return
	}

	s.links[remoteID] = link
	s.log.Debug("peer link created", "peer", remoteID, "initiator", link.Initiator())

	// Snapshot members and later joiners surface through the same event, so
	// the presentation layer never cares which path created the link.
	s.emit(Event{Kind: EventPeerAdded, Remote: remoteID})

	if link.Initiator() {
		if err := link.startOffer(); err != nil {
			s.abandonLink(remoteID, err)
		}
	}
}

func (s *Session) handleOffer(p *signaling.SignalPayload) {
	// An offer can arrive before the membership notice; create the link on
	// demand so the responder path works either way.
	if _, ok := s.links[p.From]; !ok {
		s.ensureLink(p.From)
	}
	link, ok := s.links[p.From]
	if !ok {
		return
	}
	if err := link.acceptOffer(p.SDP); err != nil {
		s.abandonLink(p.From, err)
	}
}

func (s *Session) handleLinkEvent(ev linkEvent) {
	link, ok := s.links[ev.remote]
	if !ok {
		return
	}

	switch ev.kind {
	case linkStateChanged:
		s.emit(Event{Kind: EventLinkState, Remote: ev.remote, State: ev.state})

	case linkControlOpen:
		link.sendState(s.localState)

	case linkPeerState:
		s.emit(Event{Kind: EventPeerState, Remote: ev.remote, Peer: ev.peer})

	case linkFailed:
		s.abandonLink(ev.remote, ev.err)
	}
}

func (s *Session) handleCommand(cmd sessionCommand) {
	switch {
	case cmd.muted != nil:
		s.localState.Muted = *cmd.muted
		s.broadcastState()

	case cmd.videoOff != nil:
		s.localState.VideoOff = *cmd.videoOff
		s.broadcastState()

	case cmd.source != nil:
		s.source = cmd.source
		for id, link := range s.links {
			if err := link.attachMedia(cmd.source); err != nil {
				s.abandonLink(id, err)
			}
		}

	case cmd.admin != nil:
		if err := s.client.Send(signaling.TypeAdminCommand, cmd.admin); err != nil {
			s.emit(Event{Kind: EventError, Err: err})
		}
	}
}

func (s *Session) broadcastState() {
	for _, link := range s.links {
		link.sendState(s.localState)
	}
}

// abandonLink tears down one failed link without touching the others. The
// peer stays in the roster; a fresh link forms if it rejoins.
func (s *Session) abandonLink(remoteID string, err error) {
	s.log.Warn("peer link failed", "peer", remoteID, "err", err)
	s.dropLink(remoteID)
	s.emit(Event{Kind: EventError, Remote: remoteID, Err: err})
}

func (s *Session) dropLink(remoteID string) {
	link, ok := s.links[remoteID]
	if !ok {
		return
	}
	delete(s.links, remoteID)
	link.close()
	s.emit(Event{Kind: EventLinkState, Remote: remoteID, State: LinkClosed})
}

func (s *Session) shutdown() {
	close(s.stopped)

	s.client.Send(signaling.TypeLeaveRoom, s.roomID)

	for id, link := range s.links {
		delete(s.links, id)
		link.close()
	}

	s.emit(Event{Kind: EventLeft})
	s.client.Close()

	// Release the handler even if it is blocked mid-send, then wait for it
	// so no send races the events close. Never hang on a wedged connection.
	if s.handler != nil {
		s.handler.Stop()
		select {
		case <-s.handler.Done:
		case <-time.After(time.Second):
		}
	}

	s.log.Info("left room")
	close(s.events)
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.log.Warn("dropped session event", "kind", ev.Kind)
	}
}
