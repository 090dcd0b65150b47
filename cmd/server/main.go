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

	"github.com/dkeye/RemoteDesk/internal/adapters/capture"
	router "github.com/dkeye/RemoteDesk/internal/adapters/http"
	"github.com/dkeye/RemoteDesk/internal/adapters/inject"
	"github.com/dkeye/RemoteDesk/internal/adapters/journal"
	"github.com/dkeye/RemoteDesk/internal/app"
	"github.com/dkeye/RemoteDesk/internal/app/input"
	"github.com/dkeye/RemoteDesk/internal/app/orch"
	"github.com/dkeye/RemoteDesk/internal/app/stream"
	"github.com/dkeye/RemoteDesk/internal/config"
	"github.com/dkeye/RemoteDesk/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Debug() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	var jr core.Journal = core.NopJournal{}
	if cfg.Journal.Path != "" {
		sq, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Journal.Path).Msg("failed to open journal")
		}
		jr = sq
	}
	defer jr.Close()

	src := capture.NewDemoSource(cfg.Capture.ScreenWidth, cfg.Capture.ScreenHeight, cfg.Capture.Label)
	src.Configure(stream.PresetFor(stream.DefaultQuality).Settings())

	var injector core.Injector
	switch cfg.Input.Backend {
	case "xdotool":
		x := inject.NewXdotool("")
		if !x.Available() {
			log.Warn().Str("module", "main").Msg("xdotool not found on PATH, input will fail")
		}
		injector = x
	default:
		injector = inject.NewHeadless()
	}

	var policy app.Policy = app.SimplePolicy{}
	if cfg.Stream.MaxDroppedFrames > 0 {
		policy = app.NewSlowPeerPolicy(cfg.Stream.MaxDroppedFrames)
	}

	reg := app.NewRegistry()
	sessions := app.NewSessionStore(app.WithPasswordCost(cfg.PasswordCost))
	streams := stream.NewManager(src, reg, sessions, policy)

	o := &orch.Orchestrator{
		Registry:     reg,
		Sessions:     sessions,
		Streams:      streams,
		Source:       src,
		Input:        input.NewExecutor(injector, src),
		Journal:      jr,
		JoinLimiter:  app.NewAttemptLimiter(cfg.Limits.JoinAttempts, cfg.Limits.JoinWindow),
		InputLimiter: app.NewInputLimiter(cfg.Input.Rate, cfg.Input.Burst),
	}

	r := router.SetupRouter(ctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("environment", cfg.Environment).Msg("RemoteDesk broker started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	streams.StopAll()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
