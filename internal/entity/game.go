package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/rocketscienceinc/whot-backend/internal/apperror"
)

const (
	StatusWaiting    = "waiting"
	StatusStarting   = "starting"
	StatusInProgress = "in-progress"
	StatusGameOver   = "game_over"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

// Ranking is encoded as a [total, name] pair.
type Ranking struct {
	Total int
	Name  string
}

func (that Ranking) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{that.Total, that.Name})
}

func (that *Ranking) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("failed to unmarshal ranking: %w", err)
	}

	if len(pair) != 2 {
		return fmt.Errorf("ranking must have 2 elements, got %d", len(pair))
	}

	if err := json.Unmarshal(pair[0], &that.Total); err != nil {
		return fmt.Errorf("failed to unmarshal ranking total: %w", err)
	}

	if err := json.Unmarshal(pair[1], &that.Name); err != nil {
		return fmt.Errorf("failed to unmarshal ranking name: %w", err)
	}

	return nil
}

// GameState is the single authoritative copy of a game.
type GameState struct {
	Players       []*Player
	FaceCard      Card
	Market        int
	Stack         []Card
	Turn          string
	TurnIndex     int
	TurnsToSkip   int
	FailedDefense bool
	Winner        string
	Rankings      []Ranking
	TurnsPlayed   int
	Status        string
}

// NewGameState - seats the players in order, the first seat moves first.
func NewGameState(players []*Player, faceCard Card) *GameState {
	state := &GameState{
		Players:  players,
		FaceCard: faceCard,
		Stack:    []Card{},
		Status:   StatusInProgress,
	}

	if len(players) > 0 {
		state.Turn = players[0].ID
	}

	return state
}

// Clone - deep copy, the engine never mutates the state it was handed.
func (that *GameState) Clone() *GameState {
	players := make([]*Player, len(that.Players))
	for i, player := range that.Players {
		players[i] = player.Clone()
	}

	clone := *that
	clone.Players = players
	clone.Stack = slices.Clone(that.Stack)
	clone.Rankings = slices.Clone(that.Rankings)

	return &clone
}

// Player - finds a seated player by id.
func (that *GameState) Player(id string) (*Player, bool) {
	for _, player := range that.Players {
		if player.ID == id {
			return player, true
		}
	}

	return nil, false
}

func (that *GameState) seat(id string) int {
	return slices.IndexFunc(that.Players, func(player *Player) bool { return player.ID == id })
}

// NextTurn - moves the rotation one seat forward and returns the new turn holder.
func (that *GameState) NextTurn() string {
	if len(that.Players) == 0 {
		return ""
	}

	that.TurnIndex = (that.TurnIndex + 1) % len(that.Players)
	that.Turn = that.Players[that.TurnIndex].ID

	return that.Turn
}

// RemovePlayer - drops a seat from the game and the rotation. If the turn holder leaves,
// the turn passes to whoever now sits at the same index.
func (that *GameState) RemovePlayer(id string) bool {
	idx := that.seat(id)
	if idx < 0 {
		return false
	}

	that.Players = slices.Delete(that.Players, idx, idx+1)

	if len(that.Players) == 0 {
		that.TurnIndex = 0
		that.Turn = ""
		return true
	}

	if idx < that.TurnIndex {
		that.TurnIndex--
	}

	if that.TurnIndex >= len(that.Players) {
		that.TurnIndex = 0
	}

	that.Turn = that.Players[that.TurnIndex].ID

	return true
}

// UpdateResult - recomputes winner and rankings, finishing the game once somebody won.
func (that *GameState) UpdateResult() {
	that.Winner, that.Rankings = that.result()

	if that.Winner != "" {
		that.Status = StatusGameOver
	}
}

func (that *GameState) result() (string, []Ranking) {
	if len(that.Players) == 1 {
		name := that.Players[0].Name
		return name, []Ranking{{Total: 0, Name: name}}
	}

	rankings := make([]Ranking, 0, len(that.Players))
	for _, player := range that.Players {
		rankings = append(rankings, Ranking{Total: player.HandTotal(), Name: player.Name})
	}

	slices.SortStableFunc(rankings, func(a, b Ranking) int { return a.Total - b.Total })

	for _, player := range that.Players {
		if len(player.Hand) == 0 {
			return player.Name, rankings
		}
	}

	return "", rankings
}

func (that *GameState) IsFinished() bool {
	return that.Status == StatusGameOver
}

func (that *GameState) IsOngoing() bool {
	return that.Status == StatusInProgress
}

func (that *GameState) IsWaiting() bool {
	return that.Status == StatusWaiting || that.Status == StatusStarting
}

// ConfirmOngoingState - a move can only be resolved while the game is in progress.
func (that *GameState) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}
