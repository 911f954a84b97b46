package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/whot-backend/internal/apperror"
	"github.com/rocketscienceinc/whot-backend/internal/entity"
	"github.com/rocketscienceinc/whot-backend/internal/whot"
)

// Lobby mirrors the public session listing outside of the process.
type Lobby interface {
	Save(ctx context.Context, summary entity.SessionSummary) error
	Delete(ctx context.Context, id string) error
}

// Registry is the only process-wide mutable structure, it maps session ids to their coordinators.
type Registry struct {
	ctx    context.Context
	logger *slog.Logger
	lobby  Lobby
	pacing Pacing

	mu       sync.Mutex
	sessions map[string]*Coordinator

	// serializes lobby writes so a withdrawn session is never saved again
	lobbyMu sync.Mutex
}

// NewRegistry - sessions created by the registry live as long as ctx.
func NewRegistry(ctx context.Context, logger *slog.Logger, lobby Lobby, pacing Pacing) *Registry {
	return &Registry{
		ctx:    ctx,
		logger: logger.With("component", "registry"),
		lobby:  lobby,
		pacing: pacing,

		sessions: make(map[string]*Coordinator),
	}
}

// Create - registers a new session and starts its coordinator.
func (that *Registry) Create(config entity.SessionConfig) (*Coordinator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	deck := entity.NewShuffledDeck(rand.New(rand.NewSource(time.Now().UnixNano()))) //nolint:gosec // card shuffling

	coordinator := NewCoordinator(that.logger, id, config, whot.NewEngine(deck), that.pacing)
	coordinator.onClose = func(id string) {
		that.Delete(id)
	}

	that.mu.Lock()
	that.sessions[id] = coordinator
	that.mu.Unlock()

	go coordinator.Run(that.ctx)

	that.logger.Info("session created", "sessionID", id, "host", config.HostName, "players", config.NumPlayers)

	return coordinator, nil
}

func (that *Registry) Get(id string) (*Coordinator, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	coordinator, ok := that.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	return coordinator, nil
}

// Delete - forgets the session and withdraws it from the lobby.
func (that *Registry) Delete(id string) {
	that.mu.Lock()
	_, ok := that.sessions[id]
	delete(that.sessions, id)
	that.mu.Unlock()

	if !ok {
		return
	}

	that.lobbyMu.Lock()
	defer that.lobbyMu.Unlock()

	if err := that.lobby.Delete(that.ctx, id); err != nil {
		that.logger.Error("failed to remove session from lobby", "sessionID", id, "error", err)
	}
}

// List - summaries of the sessions shown in the lobby, ordered by id.
func (that *Registry) List() []entity.SessionSummary {
	summaries := make([]entity.SessionSummary, 0)
	for _, summary := range that.summaries() {
		if summary.IsListed() {
			summaries = append(summaries, summary)
		}
	}

	return summaries
}

// Publish - pushes the current listing to the lobby, hidden sessions are withdrawn.
// A failing entry does not stop the others.
func (that *Registry) Publish(ctx context.Context) error {
	var errs []error

	for _, summary := range that.summaries() {
		if err := that.publish(ctx, summary); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (that *Registry) publish(ctx context.Context, summary entity.SessionSummary) error {
	that.lobbyMu.Lock()
	defer that.lobbyMu.Unlock()

	if !summary.IsListed() {
		if err := that.lobby.Delete(ctx, summary.ID); err != nil {
			return fmt.Errorf("failed to withdraw session %s: %w", summary.ID, err)
		}
		return nil
	}

	// ended since the snapshot, Delete already withdrew it
	if !that.contains(summary.ID) {
		return nil
	}

	if err := that.lobby.Save(ctx, summary); err != nil {
		return fmt.Errorf("failed to publish session %s: %w", summary.ID, err)
	}

	return nil
}

func (that *Registry) contains(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.sessions[id]
	return ok
}

func (that *Registry) summaries() []entity.SessionSummary {
	that.mu.Lock()
	summaries := make([]entity.SessionSummary, 0, len(that.sessions))
	for _, coordinator := range that.sessions {
		summaries = append(summaries, coordinator.Summary())
	}
	that.mu.Unlock()

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })

	return summaries
}
