package call

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"

	"github.com/cloudsphere/sphere/internal/media"
	"github.com/cloudsphere/sphere/internal/signaling"
)

// LinkState is the negotiation state of one peer link. Closed is terminal;
// reconnecting to the same peer means creating a fresh link.
type LinkState int32

const (
	LinkIdle LinkState = iota
	LinkNegotiating
	LinkConnected
	LinkClosed
)

func (s LinkState) String() string {
	switch s {
	case LinkIdle:
		return "idle"
	case LinkNegotiating:
		return "negotiating"
	case LinkConnected:
		return "connected"
	case LinkClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// TrackHandler receives remote media tracks as they arrive. Rendering is the
// presentation layer's problem.
type TrackHandler func(remoteID string, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)

type linkEventKind int

const (
	linkStateChanged linkEventKind = iota
	linkControlOpen
	linkPeerState
	linkFailed
)

// linkEvent is how pion's callback goroutines report back to the session
// loop. Sends never block: the loop is the only consumer and may itself be
// inside a link method when an event fires.
type linkEvent struct {
	kind   linkEventKind
	remote string
	state  LinkState
	peer   PeerState
	err    error
}

// PeerLink owns the connection-negotiation state machine for one remote
// participant.
type PeerLink struct {
	localID   string
	remoteID  string
	initiator bool

	pc      *webrtc.PeerConnection
	signals *Client
	events  chan<- linkEvent

	state atomic.Int32

	mu     sync.Mutex
	dc     *webrtc.DataChannel
	closed bool
}

// newPeerLink creates the link and registers the transport handlers:
// candidate discovery relays to the remote, remote tracks surface through
// onTrack, and connection-state changes feed the session loop.
func newPeerLink(localID, remoteID string, engine *media.Engine, signals *Client, events chan<- linkEvent, onTrack TrackHandler) (*PeerLink, error) {
	pc, err := engine.NewPeerConnection()
	if err != nil {
		return nil, peerError("create peer connection", remoteID, err)
	}

	l := &PeerLink{
		localID:   localID,
		remoteID:  remoteID,
		initiator: ShouldInitiate(localID, remoteID),
		pc:        pc,
		signals:   signals,
		events:    events,
	}
	l.state.Store(int32(LinkIdle))

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		raw, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}
		l.signals.Send(signaling.TypeICECandidate, &signaling.SignalPayload{
			Candidate: raw,
			To:        l.remoteID,
		})
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		if onTrack != nil {
			onTrack(l.remoteID, track, receiver)
		}
	})

	pc.OnConnectionStateChange(func(st webrtc.PeerConnectionState) {
		switch st {
		case webrtc.PeerConnectionStateConnected:
			l.setState(LinkConnected)
		case webrtc.PeerConnectionStateFailed:
			l.emit(linkEvent{kind: linkFailed, remote: l.remoteID, err: ErrLinkClosed})
		case webrtc.PeerConnectionStateClosed:
			l.setState(LinkClosed)
		}
	})

	// Late media attachment (capture finishing after the link exists) needs
	// a renegotiation round; only the initiator re-offers. pc re-fires this
	// once signaling returns to stable, so tracks attached mid-negotiation
	// are picked up then. The initial offer is driven by startOffer.
	pc.OnNegotiationNeeded(func() {
		if !l.initiator || l.State() == LinkIdle || l.State() == LinkClosed {
			return
		}
		if pc.SignalingState() != webrtc.SignalingStateStable {
			return
		}
		if err := l.sendOffer(); err != nil {
			l.emit(linkEvent{kind: linkFailed, remote: l.remoteID, err: err})
		}
	})

	if l.initiator {
		dc, err := pc.CreateDataChannel(controlChannelLabel, nil)
		if err == nil {
			l.watchControl(dc)
		}
	} else {
		pc.OnDataChannel(func(dc *webrtc.DataChannel) {
			if dc.Label() == controlChannelLabel {
				l.watchControl(dc)
			}
		})
	}

	return l, nil
}

func (l *PeerLink) State() LinkState {
	return LinkState(l.state.Load())
}

func (l *PeerLink) Initiator() bool {
	return l.initiator
}

func (l *PeerLink) setState(st LinkState) {
	if LinkState(l.state.Swap(int32(st))) == st {
		return
	}
	l.emit(linkEvent{kind: linkStateChanged, remote: l.remoteID, state: st})
}

func (l *PeerLink) emit(ev linkEvent) {
	select {
	case l.events <- ev:
	default:
	}
}

// startOffer runs the initiator path: local description, commit, relay.
func (l *PeerLink) startOffer() error {
	l.setState(LinkNegotiating)
	return l.sendOffer()
}

func (l *PeerLink) sendOffer() error {
	offer, err := l.pc.CreateOffer(nil)
	if err != nil {
		return peerError("create offer", l.remoteID, err)
	}
	if err := l.pc.SetLocalDescription(offer); err != nil {
		return peerError("set local description", l.remoteID, err)
	}
	raw, err := json.Marshal(l.pc.LocalDescription())
	if err != nil {
		return peerError("encode offer", l.remoteID, err)
	}
	return l.signals.Send(signaling.TypeOffer, &signaling.SignalPayload{
		SDP: raw,
		To:  l.remoteID,
	})
}

// acceptOffer runs the responder path: commit remote description, produce
// and commit the answer, relay it back.
func (l *PeerLink) acceptOffer(sdp json.RawMessage) error {
	l.setState(LinkNegotiating)

	var desc webrtc.SessionDescription
	if err := json.Unmarshal(sdp, &desc); err != nil {
		return peerError("decode offer", l.remoteID, err)
	}
	if err := l.pc.SetRemoteDescription(desc); err != nil {
		return peerError("set remote description", l.remoteID, err)
	}
	answer, err := l.pc.CreateAnswer(nil)
	if err != nil {
		return peerError("create answer", l.remoteID, err)
	}
	if err := l.pc.SetLocalDescription(answer); err != nil {
		return peerError("set local description", l.remoteID, err)
	}
	raw, err := json.Marshal(l.pc.LocalDescription())
	if err != nil {
		return peerError("encode answer", l.remoteID, err)
	}
	return l.signals.Send(signaling.TypeAnswer, &signaling.SignalPayload{
		SDP: raw,
		To:  l.remoteID,
	})
}

// acceptAnswer commits the remote description. The link reports Connected
// only once the transport itself does, not on commit.
func (l *PeerLink) acceptAnswer(sdp json.RawMessage) error {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(sdp, &desc); err != nil {
		return peerError("decode answer", l.remoteID, err)
	}
	if err := l.pc.SetRemoteDescription(desc); err != nil {
		return peerError("set remote description", l.remoteID, err)
	}
	return nil
}

// addCandidate applies a relayed network-path candidate.
func (l *PeerLink) addCandidate(candidate json.RawMessage) error {
	var init webrtc.ICECandidateInit
	if err := json.Unmarshal(candidate, &init); err != nil {
		return peerError("decode ICE candidate", l.remoteID, err)
	}
	if err := l.pc.AddICECandidate(init); err != nil {
		return peerError("add ICE candidate", l.remoteID, err)
	}
	return nil
}

// attachMedia adds the source's tracks to the link. Safe to call after
// negotiation completed; OnNegotiationNeeded picks up the re-offer.
func (l *PeerLink) attachMedia(src media.Source) error {
	for _, track := range src.Tracks() {
		sender, err := l.pc.AddTrack(track)
		if err != nil {
			return peerError("add track", l.remoteID, err)
		}
		// Drain RTCP so the interceptors keep running.
		go func() {
			buf := make([]byte, 1500)
			for {
				if _, _, err := sender.Read(buf); err != nil {
					return
				}
			}
		}()
	}
	return nil
}

// addRecvOnly requests inbound audio and video without sending any, for
// sessions with no local capture.
func (l *PeerLink) addRecvOnly() error {
	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		_, err := l.pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		})
		if err != nil {
			return peerError("add transceiver", l.remoteID, err)
		}
	}
	return nil
}

func (l *PeerLink) watchControl(dc *webrtc.DataChannel) {
	l.mu.Lock()
	l.dc = dc
	l.mu.Unlock()

	dc.OnOpen(func() {
		l.emit(linkEvent{kind: linkControlOpen, remote: l.remoteID})
	})
	dc.OnMessage(func(m webrtc.DataChannelMessage) {
		st, err := decodeState(m.Data)
		if err != nil {
			return
		}
		l.emit(linkEvent{kind: linkPeerState, remote: l.remoteID, peer: *st})
	})
}

// sendState pushes the local call state to the remote over the control
// channel, if it is open.
func (l *PeerLink) sendState(st PeerState) {
	l.mu.Lock()
	dc := l.dc
	l.mu.Unlock()

	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return
	}
	if data, err := encodeState(&st); err == nil {
		dc.Send(data)
	}
}

// close tears the link down. Idempotent; the state machine lands in Closed.
func (l *PeerLink) close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.pc.Close()
	l.state.Store(int32(LinkClosed))
}
