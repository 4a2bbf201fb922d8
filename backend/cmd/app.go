package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/adwski/chat-client/backend/avatar"
	wsClient "github.com/adwski/chat-client/backend/client/websocket"
	httpServer "github.com/adwski/chat-client/backend/server/http"
	"github.com/adwski/chat-client/backend/service"
	store "github.com/adwski/chat-client/backend/storage/memory"
	sw "github.com/adwski/chat-client/backend/switch"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	fs := pflag.NewFlagSet("main", pflag.ContinueOnError)

	var (
		serverURL      = fs.StringP("server-url", "s", "ws://127.0.0.1:8080", "chat server websocket url")
		userID         = fs.StringP("user", "u", "", "user name to register with")
		apiListenAddr  = fs.StringP("api-listen-addr", "a", ":8000", "presentation api listen address")
		logLevel       = fs.StringP("log-level", "l", "info", "log level")
		avatarTemplate = fs.String("avatar-template", avatar.DefaultTemplate, "avatar url template, "+avatar.Placeholder+" is replaced with user name")
		dumpFrames     = fs.Bool("dump-frames", false, "dump decoded frames at trace level")
	)
	if err := fs.Parse(os.Args[1:]); err != nil {
		logger.Fatal().Err(err).Msg("failed to parse command line arguments")
	}
	if *userID == "" {
		logger.Fatal().Msg("user name is required")
	}

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse loglevel")
	}
	logger = logger.Level(lvl).With().Str("session", uuid.NewString()).Logger()

	bus := sw.NewSwitch(&logger)
	transport := wsClient.NewClient(wsClient.Config{
		Logger:    &logger,
		Publisher: bus,
		URL:       *serverURL,
	})
	svc := service.NewService(service.Config{
		Store:      store.NewMemStore(avatar.NewResolver(*avatarTemplate)),
		Transport:  transport,
		Bus:        bus,
		Logger:     &logger,
		UserID:     *userID,
		DumpFrames: *dumpFrames,
	})
	httpSrv := httpServer.NewServer(httpServer.Config{
		Logger:      &logger,
		ChatService: svc,
		ListenAddr:  *apiListenAddr,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		wg   = &sync.WaitGroup{}
		errc = make(chan error, 2)
	)
	wg.Add(3)
	go svc.Run(ctx, wg)
	go transport.Run(ctx, wg, errc)
	go httpSrv.Run(ctx, wg, errc)

	select {
	case err = <-errc:
		logger.Error().Err(err).Msg("unexpected error, shutting down")
	case <-ctx.Done():
		logger.Warn().Msg("interrupted")
	}
	cancel()
	wg.Wait()
}
