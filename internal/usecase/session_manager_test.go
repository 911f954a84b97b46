package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/whot-backend/internal/apperror"
	"github.com/rocketscienceinc/whot-backend/internal/entity"
	"github.com/rocketscienceinc/whot-backend/internal/session"
	mockedUseCase "github.com/rocketscienceinc/whot-backend/mocks/usecase"
)

var errRedisDown = errors.New("redis down")

type recordingConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (that *recordingConn) Send(data []byte) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.frames = append(that.frames, data)
	return nil
}

func (that *recordingConn) Close() error {
	return nil
}

// publishedLobby - the registry side of the lobby, it remembers the last published summary per id.
type publishedLobby struct {
	mu        sync.Mutex
	published map[string]entity.SessionSummary
}

func (that *publishedLobby) Save(_ context.Context, summary entity.SessionSummary) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.published[summary.ID] = summary
	return nil
}

func (that *publishedLobby) Delete(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.published, id)
	return nil
}

func (that *publishedLobby) Get(id string) (entity.SessionSummary, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	summary, ok := that.published[id]
	return summary, ok
}

func newTestManager(t *testing.T) (*SessionManager, *mockedUseCase.MocklobbyRepoDep, *publishedLobby) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	lobbyRepo := mockedUseCase.NewMocklobbyRepoDep(t)
	lobby := &publishedLobby{published: make(map[string]entity.SessionSummary)}

	registry := session.NewRegistry(ctx, logger, lobby, session.Pacing{Clock: session.NoDelay()})
	manager := NewSessionManager(logger, registry, lobbyRepo, BotSettings{Clock: session.NoDelay()})

	return manager, lobbyRepo, lobby
}

func sessionConfig(players, bots int) entity.SessionConfig {
	return entity.SessionConfig{
		HostName:         "ada",
		NumStartingCards: 4,
		NumPlayers:       players,
		NumAI:            bots,
	}
}

func TestSessionManager_CreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Seats the automated players", func(t *testing.T) {
		// Given: a manager
		manager, _, _ := newTestManager(t)

		// When: creating a three seat session with two bots
		id, err := manager.CreateSession(ctx, sessionConfig(3, 2))

		// Then: the session waits for its only human
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		coordinator, err := manager.registry.Get(id)
		require.NoError(t, err)
		assert.Eventually(t, func() bool {
			summary := coordinator.Summary()
			return summary.NumPlayers == 2 && summary.Status == entity.StatusWaiting
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("Refuses an invalid config", func(t *testing.T) {
		// Given: a manager
		manager, _, _ := newTestManager(t)

		// When: creating a session without a seat for a human
		id, err := manager.CreateSession(ctx, sessionConfig(2, 2))

		// Then: ErrInvalidConfig is returned
		require.ErrorIs(t, err, apperror.ErrInvalidConfig)
		assert.Empty(t, id)
	})
}

func TestSessionManager_JoinSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Joins an existing session", func(t *testing.T) {
		// Given: a session waiting for players
		manager, _, _ := newTestManager(t)

		id, err := manager.CreateSession(ctx, sessionConfig(3, 0))
		require.NoError(t, err)

		// When: a client joins it
		conn := &recordingConn{}
		coordinator, err := manager.JoinSession(ctx, id, &session.Client{ID: "c1", Name: "ada", Conn: conn})

		// Then: the client is seated
		require.NoError(t, err)
		assert.Equal(t, id, coordinator.ID())
		assert.Eventually(t, func() bool {
			return coordinator.Summary().NumPlayers == 1
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("Unknown session", func(t *testing.T) {
		// Given: a manager without sessions
		manager, _, _ := newTestManager(t)

		// When: joining an unknown id
		coordinator, err := manager.JoinSession(ctx, "nope", &session.Client{ID: "c1", Conn: &recordingConn{}})

		// Then: ErrSessionNotFound is returned
		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
		assert.Nil(t, coordinator)
	})

	t.Run("Same client twice", func(t *testing.T) {
		// Given: a session with a seated client
		manager, _, _ := newTestManager(t)

		id, err := manager.CreateSession(ctx, sessionConfig(3, 0))
		require.NoError(t, err)

		_, err = manager.JoinSession(ctx, id, &session.Client{ID: "c1", Name: "ada", Conn: &recordingConn{}})
		require.NoError(t, err)

		// When: the same client joins again
		_, err = manager.JoinSession(ctx, id, &session.Client{ID: "c1", Name: "ada", Conn: &recordingConn{}})

		// Then: ErrAlreadyJoined is returned
		require.ErrorIs(t, err, apperror.ErrAlreadyJoined)
	})
}

func TestSessionManager_ListSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns the lobby listing", func(t *testing.T) {
		// Given: a lobby with one public session
		manager, lobbyRepo, _ := newTestManager(t)

		listed := []entity.SessionSummary{{ID: "a", Host: "ada", Status: entity.StatusWaiting, MaxPlayers: 2, NumPlayers: 1}}
		lobbyRepo.EXPECT().ListPublic(mock.Anything).Return(listed, nil).Once()

		// When: listing
		summaries := manager.ListSessions(ctx)

		// Then: the listing is returned as is
		assert.Equal(t, listed, summaries)
	})

	t.Run("Lobby is unreachable", func(t *testing.T) {
		// Given: a local session with a player and a lobby that fails
		manager, lobbyRepo, _ := newTestManager(t)

		id, err := manager.CreateSession(ctx, sessionConfig(3, 0))
		require.NoError(t, err)

		coordinator, err := manager.JoinSession(ctx, id, &session.Client{ID: "c1", Name: "ada", Conn: &recordingConn{}})
		require.NoError(t, err)
		require.Eventually(t, func() bool { return coordinator.Summary().NumPlayers == 1 }, time.Second, 5*time.Millisecond)

		lobbyRepo.EXPECT().ListPublic(mock.Anything).Return(nil, errRedisDown).Once()

		// When: listing
		summaries := manager.ListSessions(ctx)

		// Then: the sessions of this process are listed instead
		require.Len(t, summaries, 1)
		assert.Equal(t, id, summaries[0].ID)
		assert.Equal(t, 1, summaries[0].NumPlayers)
	})
}

func TestSessionManager_SyncLobby(t *testing.T) {
	// Given: a public session with a seated client
	manager, _, lobby := newTestManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id, err := manager.CreateSession(ctx, sessionConfig(3, 0))
	require.NoError(t, err)

	_, err = manager.JoinSession(ctx, id, &session.Client{ID: "c1", Name: "ada", Conn: &recordingConn{}})
	require.NoError(t, err)

	// When: the lobby sync runs
	go manager.SyncLobby(ctx, 5*time.Millisecond)

	// Then: the session is published
	require.Eventually(t, func() bool {
		summary, ok := lobby.Get(id)
		return ok && summary.NumPlayers == 1
	}, time.Second, 5*time.Millisecond)

	summary, _ := lobby.Get(id)
	assert.Equal(t, "ada", summary.Host)
	assert.Equal(t, 3, summary.MaxPlayers)
}
