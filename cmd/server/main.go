package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/cloudsphere/sphere/internal/config"
	"github.com/cloudsphere/sphere/internal/logging"
	"github.com/cloudsphere/sphere/internal/metrics"
	"github.com/cloudsphere/sphere/internal/server"
	"github.com/cloudsphere/sphere/internal/signaling"
)

func main() {
	// A missing .env file is fine; the environment itself still applies.
	godotenv.Load()
	logging.Init()

	cfg := config.LoadServer()
	m := metrics.New()
	hub := signaling.NewHub(m, slog.Default())
	router := server.NewRouter(hub, m, cfg.AllowedOrigin)

	slog.Info("signaling coordinator listening", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
