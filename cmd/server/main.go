package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/loungefm/loungefm/internal/adapters/http"
	wsignal "github.com/loungefm/loungefm/internal/adapters/signal"
	"github.com/loungefm/loungefm/internal/app"
	"github.com/loungefm/loungefm/internal/broker"
	"github.com/loungefm/loungefm/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("jwt_secret is required")
	}

	// One broker for the whole process, injected everywhere that emits.
	bus := broker.NewChannelBroker()
	auth := app.NewAuthenticator(cfg.JWTSecret, cfg.JWTTTL)
	registry := app.NewRegistry()
	lounges := app.NewLoungeManager(bus)
	ws := wsignal.NewController(cfg, auth, registry, lounges, bus)

	r := router.SetupRouter(ctx, cfg, auth, lounges, bus, ws)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("loungefm server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	bus.Shutdown()
	log.Info().Msg("Server exited gracefully")
}
