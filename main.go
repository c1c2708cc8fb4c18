package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cvhariharan/go-pub/command"
	"github.com/cvhariharan/go-pub/config"
	"github.com/cvhariharan/go-pub/federation"
	"github.com/cvhariharan/go-pub/inbox"
	"github.com/cvhariharan/go-pub/logging"
	"github.com/cvhariharan/go-pub/server"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("loading config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogPretty, os.Stdout)

	identity, err := cfg.Identity()
	if err != nil {
		log.Fatal().Err(err).Msg("loading identity")
	}

	fed := federation.New(log.With().Str("component", "federation").Logger())
	srv := server.New(server.Options{
		Identity: identity,
		Inbox: inbox.New(inbox.Options{
			Fetcher:          fed,
			Deliverer:        fed,
			Logger:           log.With().Str("component", "inbox").Logger(),
			AcceptUndoFollow: cfg.AcceptUndoFollow,
		}),
		Commands: command.New(command.Options{
			Secret:    cfg.Secret,
			Fetcher:   fed,
			Deliverer: fed,
			Logger:    log.With().Str("component", "command").Logger(),
		}),
		Logger:    log,
		PublicDir: cfg.PublicDir,
	})
	e := srv.Echo()

	log.Warn().Msg("inbound request signatures are not verified")
	if cfg.Secret == "" {
		log.Warn().Msg("no secret configured, command endpoint disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("user", identity.Username).Msg("listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
