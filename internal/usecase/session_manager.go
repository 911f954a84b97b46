package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/whot-backend/internal/bot"
	"github.com/rocketscienceinc/whot-backend/internal/entity"
	"github.com/rocketscienceinc/whot-backend/internal/session"
)

type lobbyRepoDep interface {
	ListPublic(ctx context.Context) ([]entity.SessionSummary, error)
}

// BotSettings - pacing of the automated players.
type BotSettings struct {
	Clock session.Clock
	Delay time.Duration
}

type SessionManager struct {
	logger    *slog.Logger
	registry  *session.Registry
	lobbyRepo lobbyRepoDep
	bots      BotSettings
}

func NewSessionManager(logger *slog.Logger, registry *session.Registry, lobbyRepo lobbyRepoDep, bots BotSettings) *SessionManager {
	if bots.Clock == nil {
		bots.Clock = session.RealClock()
	}

	return &SessionManager{
		logger: logger,

		registry:  registry,
		lobbyRepo: lobbyRepo,
		bots:      bots,
	}
}

// CreateSession - creates a session, seats its automated players and returns the session id.
func (that *SessionManager) CreateSession(ctx context.Context, config entity.SessionConfig) (string, error) {
	log := that.logger.With("method", "CreateSession")

	coordinator, err := that.registry.Create(config)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	for range config.NumAI {
		agent := bot.New(that.logger, that.bots.Clock, that.bots.Delay)

		go agent.Run(context.WithoutCancel(ctx), coordinator)

		if err = coordinator.Join(ctx, agent.Client()); err != nil {
			_ = agent.Close()
			return "", fmt.Errorf("failed to seat bot: %w", err)
		}
	}

	log.Info("session created", "sessionID", coordinator.ID(), "bots", config.NumAI)

	return coordinator.ID(), nil
}

// JoinSession - seats a client in an existing session.
func (that *SessionManager) JoinSession(ctx context.Context, sessionID string, client *session.Client) (*session.Coordinator, error) {
	coordinator, err := that.registry.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err = coordinator.Join(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to join session: %w", err)
	}

	return coordinator, nil
}

// ListSessions - public joinable sessions as stored in the lobby.
// Without the lobby only the sessions of this process are listed.
func (that *SessionManager) ListSessions(ctx context.Context) []entity.SessionSummary {
	summaries, err := that.lobbyRepo.ListPublic(ctx)
	if err != nil {
		that.logger.Warn("lobby unavailable, listing local sessions", "method", "ListSessions", "error", err)
		return that.registry.List()
	}

	return summaries
}

// SyncLobby - publishes the listing of live sessions every interval until ctx is done.
func (that *SessionManager) SyncLobby(ctx context.Context, interval time.Duration) {
	log := that.logger.With("method", "SyncLobby")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := that.registry.Publish(ctx); err != nil {
				log.Error("failed to publish lobby", "error", err)
			}
		}
	}
}
