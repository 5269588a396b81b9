package call

import "github.com/vmihailenco/msgpack/v5"

// controlChannelLabel names the data channel peers use to exchange call
// state (display name, mute flags) alongside the media tracks.
const controlChannelLabel = "control"

// PeerState is the call state a participant shares with each connected peer
// over the control channel.
type PeerState struct {
	Name     string `msgpack:"name"`
	Muted    bool   `msgpack:"muted"`
	VideoOff bool   `msgpack:"video_off"`
	Admin    bool   `msgpack:"admin"`
}

func encodeState(st *PeerState) ([]byte, error) {
	return msgpack.Marshal(st)
}

func decodeState(data []byte) (*PeerState, error) {
	var st PeerState
	if err := msgpack.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
