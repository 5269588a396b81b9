package config

import (
	"fmt"
	"os"
)

// Default configuration values (production).
const (
	DefaultDomain = "meet.cloudsphere.dev"
	DefaultSTUN   = "stun:stun.l.google.com:19302"

	DefaultListenAddr = ":8080"
)

// ClientConfig holds everything the call client needs: where the signaling
// coordinator lives and which ICE servers to hand to the transport layer.
type ClientConfig struct {
	// Domain is the coordinator domain; WebSocketURL is constructed from it
	// unless overridden directly.
	Domain       string
	WebSocketURL string

	// ICE servers for WebRTC.
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// ClientOptions carries CLI flag overrides for LoadClient.
type ClientOptions struct {
	Domain     string
	ServerURL  string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// resolve picks the first non-empty value: CLI flag > environment > default.
func resolve(flag, envKey, def string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return def
}

// LoadClient reads client configuration with the following priority:
// CLI flags (via opts) > environment variables > hardcoded defaults.
func LoadClient(opts ClientOptions) (*ClientConfig, error) {
	domain := resolve(opts.Domain, "DOMAIN", DefaultDomain)

	wsURL := resolve(opts.ServerURL, "SERVER_URL", "")
	if wsURL == "" {
		wsURL = fmt.Sprintf("wss://%s/ws", domain)
	}

	return &ClientConfig{
		Domain:       domain,
		WebSocketURL: wsURL,
		STUNServer:   resolve(opts.STUNServer, "STUN_SERVER", DefaultSTUN),
		TURNServer:   resolve(opts.TURNServer, "TURN_SERVER", ""),
		TURNUser:     resolve(opts.TURNUser, "TURN_USERNAME", ""),
		TURNPass:     resolve(opts.TURNPass, "TURN_PASSWORD", ""),
	}, nil
}

// GetSTUNServers returns STUN server URLs as strings.
func (c *ClientConfig) GetSTUNServers() []string {
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured.
func (c *ClientConfig) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
		fmt.Sprintf("turns:%s:5349?transport=tcp", c.TURNServer),
	}
}

// GetRoomLink returns the shareable web URL for a room.
func (c *ClientConfig) GetRoomLink(roomID string) string {
	return fmt.Sprintf("https://%s/room/%s", c.Domain, roomID)
}

// GetTURNCredentials returns the TURN username and password.
func (c *ClientConfig) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

// ServerConfig holds the coordinator's own settings.
type ServerConfig struct {
	ListenAddr string

	// AllowedOrigin restricts websocket upgrades to one Origin header value.
	// Empty means any origin is accepted.
	AllowedOrigin string
}

// LoadServer reads coordinator configuration from the environment.
func LoadServer() *ServerConfig {
	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = DefaultListenAddr
		}
	}

	return &ServerConfig{
		ListenAddr:    addr,
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
	}
}
