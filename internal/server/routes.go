package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/cloudsphere/sphere/internal/metrics"
	"github.com/cloudsphere/sphere/internal/signaling"
)

// NewRouter builds the coordinator's HTTP surface: the websocket endpoint,
// a health probe and a plain-text counter dump. Static assets and the web
// client are hosted elsewhere.
func NewRouter(hub *signaling.Hub, m *metrics.Metrics, allowedOrigin string) *mux.Router {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/metrics", metricsHandler(m)).Methods("GET")
	r.HandleFunc("/ws", serveWs(hub, upgrader))
	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}

func metricsHandler(m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := m.Snapshot()
		names := make([]string, 0, len(snap))
		for name := range snap {
			names = append(names, name)
		}
		sort.Strings(names)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, name := range names {
			fmt.Fprintf(w, "%s %d\n", name, snap[name])
		}
	}
}

// serveWs upgrades the HTTP connection and hands it to the hub. Each
// connection gets one reader and one writer goroutine.
func serveWs(hub *signaling.Hub, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "err", err)
			return
		}

		client := signaling.NewClient(hub, conn)
		go client.WritePump()
		go client.ReadPump()
	}
}
