package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/chatwire/relay/config"
	"github.com/chatwire/relay/src/auth"
	"github.com/chatwire/relay/src/bridge"
	"github.com/chatwire/relay/src/hub"
	"github.com/chatwire/relay/src/relay"
	"github.com/chatwire/relay/src/server"
	"github.com/chatwire/relay/src/store"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	cfg := config.FromEnv()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("failed to open store")
	}

	registry := hub.NewRegistry(logger)
	verifier := auth.NewVerifier(cfg.JWTSecret)
	svc := relay.New(registry, verifier, st, cfg.HistoryLimit, logger)

	var rb *bridge.RedisBridge
	if cfg.BridgeEnabled {
		rb = bridge.NewRedisBridge(bridge.RedisConfigFromEnv(), svc, logger)
		if err := rb.Start(); err != nil {
			logger.Warn().Err(err).Msg("redis bridge unavailable, running standalone")
			rb = nil
		} else {
			svc.SetBridge(rb)
		}
	}

	srv := &fasthttp.Server{
		Handler: server.New(svc, cfg, logger).Handler(),
		Name:    "chatwire-relay",
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("relay listening")
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutdown signal received")
	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	if rb != nil {
		if err := rb.Stop(); err != nil {
			logger.Error().Err(err).Msg("bridge stop error")
		}
	}
	svc.Drain()
	logger.Info().Msg("relay stopped")
}
