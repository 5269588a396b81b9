package media

import (
	"fmt"
	"log/slog"

	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"

	"github.com/cloudsphere/sphere/internal/config"
)

// Engine builds peer connections with a shared ICE server list and pion's
// internal logging routed through slog.
type Engine struct {
	api        *webrtc.API
	iceServers []webrtc.ICEServer
}

func NewEngine(cfg *config.ClientConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	se := webrtc.SettingEngine{}
	se.LoggerFactory = &slogFactory{base: logger.With("component", "pion")}
	api := webrtc.NewAPI(webrtc.WithSettingEngine(se))

	iceServers := []webrtc.ICEServer{{URLs: cfg.GetSTUNServers()}}
	if turnServers := cfg.GetTURNServers(); turnServers != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	return &Engine{api: api, iceServers: iceServers}
}

func (e *Engine) NewPeerConnection() (*webrtc.PeerConnection, error) {
	return e.api.NewPeerConnection(webrtc.Configuration{
		ICEServers: e.iceServers,
	})
}

// slogFactory adapts pion/logging to slog. Pion's trace level maps to debug;
// slog has no finer level.
type slogFactory struct {
	base *slog.Logger
}

func (f *slogFactory) NewLogger(scope string) logging.LeveledLogger {
	return &leveledLogger{log: f.base.With("scope", scope)}
}

type leveledLogger struct {
	log *slog.Logger
}

func (l *leveledLogger) Trace(msg string) { l.log.Debug(msg) }
func (l *leveledLogger) Tracef(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}
func (l *leveledLogger) Debug(msg string) { l.log.Debug(msg) }
func (l *leveledLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}
func (l *leveledLogger) Info(msg string) { l.log.Info(msg) }
func (l *leveledLogger) Infof(format string, args ...interface{}) {
	l.log.Info(fmt.Sprintf(format, args...))
}
func (l *leveledLogger) Warn(msg string) { l.log.Warn(msg) }
func (l *leveledLogger) Warnf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...))
}
func (l *leveledLogger) Error(msg string) { l.log.Error(msg) }
func (l *leveledLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...))
}
