package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/whot-backend/internal/apperror"
)

func seatPlayers(ids ...string) []*Player {
	players := make([]*Player, 0, len(ids))
	for _, id := range ids {
		players = append(players, &Player{ID: id, Name: "name-" + id, Hand: []Card{{Shape: ShapeStar, Num: 3}}})
	}
	return players
}

func TestGameState_StatusMethods(t *testing.T) {
	t.Run("Returns nil when game is in progress", func(t *testing.T) {
		game := &GameState{Status: StatusInProgress}

		assert.NoError(t, game.ConfirmOngoingState())
	})

	t.Run("Returns ErrGameIsNotStarted while waiting or starting", func(t *testing.T) {
		assert.ErrorIs(t, (&GameState{Status: StatusWaiting}).ConfirmOngoingState(), apperror.ErrGameIsNotStarted)
		assert.ErrorIs(t, (&GameState{Status: StatusStarting}).ConfirmOngoingState(), apperror.ErrGameIsNotStarted)
	})

	t.Run("Returns ErrGameFinished when game is over", func(t *testing.T) {
		game := &GameState{Status: StatusGameOver}

		assert.ErrorIs(t, game.ConfirmOngoingState(), apperror.ErrGameFinished)
	})

	t.Run("Returns error for unknown game status", func(t *testing.T) {
		err := (&GameState{Status: "unknown"}).ConfirmOngoingState()

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownGameStatus)
	})
}

func TestGameState_Rotation(t *testing.T) {
	t.Run("NextTurn cycles over the seats", func(t *testing.T) {
		// Given: a game with three seats
		game := NewGameState(seatPlayers("a", "b", "c"), Card{Shape: ShapeCircle, Num: 4})
		require.Equal(t, "a", game.Turn)

		// When/Then: the turn cycles a -> b -> c -> a
		assert.Equal(t, "b", game.NextTurn())
		assert.Equal(t, "c", game.NextTurn())
		assert.Equal(t, "a", game.NextTurn())
	})

	t.Run("Removing a seat before the holder keeps the holder", func(t *testing.T) {
		game := NewGameState(seatPlayers("a", "b", "c", "d"), Card{})
		game.NextTurn()
		game.NextTurn()
		require.Equal(t, "c", game.Turn)

		game.RemovePlayer("a")

		assert.Equal(t, "c", game.Turn)
		assert.Equal(t, "d", game.NextTurn())
		assert.Equal(t, "b", game.NextTurn())
	})

	t.Run("Removing the holder passes the turn to the next seat", func(t *testing.T) {
		game := NewGameState(seatPlayers("a", "b", "c"), Card{})
		game.NextTurn()

		removed := game.RemovePlayer("b")

		assert.True(t, removed)
		assert.Equal(t, "c", game.Turn)
	})

	t.Run("Removing the last seat while it holds the turn wraps around", func(t *testing.T) {
		game := NewGameState(seatPlayers("a", "b", "c"), Card{})
		game.NextTurn()
		game.NextTurn()

		game.RemovePlayer("c")

		assert.Equal(t, "a", game.Turn)
		assert.Equal(t, 0, game.TurnIndex)
	})

	t.Run("Removing an unknown player changes nothing", func(t *testing.T) {
		game := NewGameState(seatPlayers("a", "b"), Card{})

		assert.False(t, game.RemovePlayer("zzz"))
		assert.Len(t, game.Players, 2)
	})
}

func TestGameState_UpdateResult(t *testing.T) {
	t.Run("Sole remaining player wins with a zero ranking", func(t *testing.T) {
		// Given: one seated player holding cards
		game := NewGameState(seatPlayers("a"), Card{})
		game.Players[0].Hand = []Card{{Shape: ShapeCross, Num: 14}, {Shape: ShapeCross, Num: 13}}

		// When: updating the result
		game.UpdateResult()

		// Then: the player wins by attrition
		assert.Equal(t, "name-a", game.Winner)
		assert.Equal(t, []Ranking{{Total: 0, Name: "name-a"}}, game.Rankings)
		assert.True(t, game.IsFinished())
	})

	t.Run("Empty hand wins and rankings ascend by hand total", func(t *testing.T) {
		players := seatPlayers("a", "b", "c")
		players[0].Hand = []Card{{Shape: ShapeCross, Num: 14}}
		players[1].Hand = []Card{}
		players[2].Hand = []Card{{Shape: ShapeStar, Num: 2}, {Shape: ShapeStar, Num: 3}}
		game := NewGameState(players, Card{})

		game.UpdateResult()

		assert.Equal(t, "name-b", game.Winner)
		assert.Equal(t, []Ranking{{0, "name-b"}, {5, "name-c"}, {14, "name-a"}}, game.Rankings)
		assert.Equal(t, StatusGameOver, game.Status)
	})

	t.Run("No winner keeps the game going", func(t *testing.T) {
		game := NewGameState(seatPlayers("a", "b"), Card{})

		game.UpdateResult()

		assert.Empty(t, game.Winner)
		assert.Equal(t, StatusInProgress, game.Status)
	})
}

func TestGameState_Clone(t *testing.T) {
	game := NewGameState(seatPlayers("a", "b"), Card{Shape: ShapeSquare, Num: 7})

	clone := game.Clone()
	clone.Players[0].Take([]Card{{Shape: ShapeStar, Num: 4}})
	clone.NextTurn()

	assert.Len(t, game.Players[0].Hand, 1)
	assert.Equal(t, "a", game.Turn)
}

func TestRanking_JSON(t *testing.T) {
	data, err := json.Marshal([]Ranking{{Total: 12, Name: "ada"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[[12,"ada"]]`, string(data))

	var rankings []Ranking
	require.NoError(t, json.Unmarshal(data, &rankings))
	assert.Equal(t, []Ranking{{Total: 12, Name: "ada"}}, rankings)

	assert.Error(t, json.Unmarshal([]byte(`[[1]]`), &rankings))
}
