// Package media is the boundary to the local capture layer. Capture itself
// (devices, encoders) is an external collaborator; the call package only
// needs something that can hand over local tracks, possibly after links
// already exist.
package media

import "github.com/pion/webrtc/v4"

// Source provides the locally captured tracks to attach to peer links.
// Tracks may legitimately return nil before capture completes; callers
// re-attach once capture finishes.
type Source interface {
	Tracks() []webrtc.TrackLocal
}

// None returns a Source with no local media, for receive-only sessions.
func None() Source {
	return noSource{}
}

type noSource struct{}

func (noSource) Tracks() []webrtc.TrackLocal { return nil }

// StaticSource wraps a fixed set of pre-created tracks.
type StaticSource struct {
	tracks []webrtc.TrackLocal
}

func NewStaticSource(tracks ...webrtc.TrackLocal) *StaticSource {
	return &StaticSource{tracks: tracks}
}

func (s *StaticSource) Tracks() []webrtc.TrackLocal {
	return s.tracks
}
