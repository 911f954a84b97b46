package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/whot-backend/internal/entity"
	"github.com/rocketscienceinc/whot-backend/internal/protocol"
	"github.com/rocketscienceinc/whot-backend/internal/session"
	"github.com/rocketscienceinc/whot-backend/internal/usecase"
)

type memoryLobby struct {
	mu      sync.Mutex
	listing []entity.SessionSummary
}

func (that *memoryLobby) Save(context.Context, entity.SessionSummary) error {
	return nil
}

func (that *memoryLobby) Delete(context.Context, string) error {
	return nil
}

func (that *memoryLobby) ListPublic(context.Context) ([]entity.SessionSummary, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]entity.SessionSummary{}, that.listing...), nil
}

type testEnv struct {
	server   *httptest.Server
	sessions *usecase.SessionManager
	lobby    *memoryLobby
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	lobby := &memoryLobby{}

	registry := session.NewRegistry(ctx, logger, lobby, session.Pacing{Clock: session.NoDelay()})
	sessions := usecase.NewSessionManager(logger, registry, lobby, usecase.BotSettings{Clock: session.NoDelay()})

	srv := New(logger, sessions, Settings{
		AllowedOrigins: []string{"*"},
		MessageRate:    100,
		MessageBurst:   100,
		ListInterval:   10 * time.Millisecond,
	})

	server := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	return &testEnv{server: server, sessions: sessions, lobby: lobby}
}

func (that *testEnv) dial(t *testing.T, path string, query url.Values) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	endpoint := "ws" + strings.TrimPrefix(that.server.URL, "http") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	conn, res, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err == nil {
		t.Cleanup(func() { _ = conn.Close() })
	}

	return conn, res, err
}

func (that *testEnv) join(t *testing.T, sessionID, clientID, name string) *websocket.Conn {
	t.Helper()

	conn, _, err := that.dial(t, "/ws/join/"+sessionID, url.Values{"client_id": {clientID}, "display_name": {name}})
	require.NoError(t, err)

	return conn
}

// readUntil - reads frames until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(frame map[string]json.RawMessage) bool) []byte {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var frame map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &frame))

		if match(frame) {
			return data
		}
	}
}

func isState(frame map[string]json.RawMessage) bool {
	_, ok := frame["player_cards"]
	return ok
}

func readState(t *testing.T, conn *websocket.Conn, match func(state protocol.State) bool) protocol.State {
	t.Helper()

	for {
		data := readUntil(t, conn, isState)

		state, err := protocol.DecodeState(data)
		require.NoError(t, err)

		if match(state) {
			return state
		}
	}
}

func anyState(protocol.State) bool {
	return true
}

func TestServer_JoinSession(t *testing.T) {
	t.Run("Unknown session is refused", func(t *testing.T) {
		// Given: a server without sessions
		env := newTestEnv(t)

		// When: a client joins an unknown id
		conn := env.join(t, "nope", "c1", "ada")

		// Then: it is told the session is finished and the socket closes
		data := readUntil(t, conn, func(frame map[string]json.RawMessage) bool {
			_, ok := frame["error"]
			return ok
		})

		refusal, err := protocol.DecodeError(data)
		require.NoError(t, err)
		assert.Equal(t, protocol.StatusFinished, refusal.Status)

		_, _, err = conn.ReadMessage()
		assert.Error(t, err)
	})

	t.Run("Full table starts and plays", func(t *testing.T) {
		// Given: a two seat session
		env := newTestEnv(t)

		sessionID, err := env.sessions.CreateSession(context.Background(), entity.SessionConfig{
			HostName: "ada", NumStartingCards: 3, NumPlayers: 2, TimeLimit: 30,
		})
		require.NoError(t, err)

		// When: two clients join
		ada := env.join(t, sessionID, "c1", "ada")
		readUntil(t, ada, func(frame map[string]json.RawMessage) bool { return string(frame["status"]) == `"waiting"` })

		bob := env.join(t, sessionID, "c2", "bob")

		// Then: both get the opening state
		opening := readState(t, ada, anyState)
		readState(t, bob, anyState)

		assert.Len(t, opening.PlayerCards, 2)
		assert.Len(t, opening.Hand("c1"), 3)
		assert.Equal(t, 30, opening.TimePerTurn)

		// When: the player to move goes to market
		mover := map[string]*websocket.Conn{"c1": ada, "c2": bob}[opening.Turn]
		require.NoError(t, mover.WriteMessage(websocket.TextMessage, []byte(`{"stack":[]}`)))

		// Then: everybody sees the draw
		played := func(state protocol.State) bool { return state.TurnsPlayed == 1 }
		afterAda := readState(t, ada, played)
		readState(t, bob, played)

		assert.Len(t, afterAda.Hand(opening.Turn), 4)
		assert.NotEqual(t, opening.Turn, afterAda.Turn)
	})

	t.Run("Last client standing wins", func(t *testing.T) {
		// Given: a game between two clients
		env := newTestEnv(t)

		sessionID, err := env.sessions.CreateSession(context.Background(), entity.SessionConfig{
			HostName: "ada", NumStartingCards: 3, NumPlayers: 2,
		})
		require.NoError(t, err)

		ada := env.join(t, sessionID, "c1", "ada")
		readUntil(t, ada, func(frame map[string]json.RawMessage) bool { return string(frame["status"]) == `"waiting"` })

		bob := env.join(t, sessionID, "c2", "bob")
		readState(t, ada, anyState)

		// When: bob hangs up
		require.NoError(t, bob.Close())

		// Then: ada wins by attrition
		final := readState(t, ada, func(state protocol.State) bool { return state.Winner != "" })
		assert.Equal(t, "ada", final.Winner)
		assert.Equal(t, []entity.Ranking{{Total: 0, Name: "ada"}}, final.Rankings)
	})
}

func TestServer_CreateSession(t *testing.T) {
	t.Run("Invalid settings are refused before the upgrade", func(t *testing.T) {
		env := newTestEnv(t)

		_, res, err := env.dial(t, "/ws/create/host", url.Values{"settings": {`{"hostName":"ada","numPlayers":1}`}})

		require.Error(t, err)
		require.NotNil(t, res)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("Host is seated with the bots", func(t *testing.T) {
		// Given: settings for the host and one bot
		env := newTestEnv(t)

		settings := `{"hostName":"ada","numStartingCards":3,"numPlayers":2,"numAI":1,"timeLimit":0,"isPrivate":true}`

		// When: the host opens the create socket
		conn, _, err := env.dial(t, "/ws/create/host", url.Values{"settings": {settings}})
		require.NoError(t, err)

		// Then: the table is complete and the game starts
		opening := readState(t, conn, anyState)
		require.Len(t, opening.PlayerCards, 2)

		names := []string{opening.PlayerCards[0].Name, opening.PlayerCards[1].Name}
		assert.Contains(t, names, "ada")
		assert.Len(t, opening.Hand("host"), 3)
	})
}

func TestServer_WatchGames(t *testing.T) {
	// Given: a lobby with one public session
	env := newTestEnv(t)
	env.lobby.listing = []entity.SessionSummary{{ID: "s1", Host: "ada", Status: entity.StatusWaiting, MaxPlayers: 3, NumPlayers: 1}}

	// When: watching the games
	conn, _, err := env.dial(t, "/ws/games", nil)
	require.NoError(t, err)

	// Then: the listing is pushed
	data := readUntil(t, conn, func(frame map[string]json.RawMessage) bool {
		_, ok := frame["games"]
		return ok
	})

	assert.JSONEq(t,
		`{"games":[{"id":"s1","private":false,"host":"ada","status":"waiting","max_players":3,"num_players":1}]}`,
		string(data))
}
