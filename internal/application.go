package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/whot-backend/internal/config"
	"github.com/rocketscienceinc/whot-backend/internal/repository"
	"github.com/rocketscienceinc/whot-backend/internal/repository/storage"
	"github.com/rocketscienceinc/whot-backend/internal/session"
	"github.com/rocketscienceinc/whot-backend/internal/usecase"
	"github.com/rocketscienceinc/whot-backend/transport/rest"
	"github.com/rocketscienceinc/whot-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	if conf.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	lobbyRepo := repository.NewLobbyRepository(redisStorage.Connection, conf.Lobby.TTL)

	registry := session.NewRegistry(ctx, logger, lobbyRepo, session.Pacing{
		Clock:       session.RealClock(),
		SettleDelay: conf.Session.SettleDelay,
		MoveDelay:   conf.Session.MoveDelay,
		JoinTimeout: conf.Session.JoinTimeout,
	})

	sessionManager := usecase.NewSessionManager(logger, registry, lobbyRepo, usecase.BotSettings{
		Clock: session.RealClock(),
		Delay: conf.Session.BotMoveDelay,
	})

	go sessionManager.SyncLobby(ctx, conf.Lobby.Interval)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, sessionManager, conf.Transport.AllowedOrigins)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, sessionManager, websocket.Settings{
			AllowedOrigins: conf.Transport.AllowedOrigins,
			MessageRate:    conf.Transport.MessageRate,
			MessageBurst:   conf.Transport.MessageBurst,
			ListInterval:   conf.Lobby.Interval,
		})
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
