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

	router "github.com/Djacko3532/telemedecin/internal/adapters/http"
	wssignal "github.com/Djacko3532/telemedecin/internal/adapters/signal"
	"github.com/Djacko3532/telemedecin/internal/app"
	"github.com/Djacko3532/telemedecin/internal/config"
	"github.com/Djacko3532/telemedecin/internal/consultation"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	db, err := consultation.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	store := consultation.NewStore(db)

	registry := app.NewRegistry()
	rooms := app.NewRoomDirectory(cfg.RoomGrace, cfg.RoomIdleTimeout)
	relay := app.NewRelay(registry, rooms)
	notifier := app.NewNotifier(registry, store)
	service := consultation.NewService(store, rooms, notifier)

	go rooms.RunReaper(ctx, cfg.ReaperInterval)

	limiter := wssignal.NewRoomRateLimiter(cfg.JoinRateLimit, cfg.JoinRateInterval)
	ctl := wssignal.NewController(registry, rooms, relay, cfg.ReadLimit, cfg.PingPeriod, limiter)
	api := &router.APIHandlers{Consultations: service, Notifications: store}

	r := router.SetupRouter(ctx, cfg, ctl, api)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("telemedecin signaling server started")
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
	log.Info().Msg("Server exited gracefully")
}
