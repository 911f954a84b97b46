package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/whot-backend/internal/apperror"
	"github.com/rocketscienceinc/whot-backend/internal/entity"
)

// Statuses sent to a client whose join was refused.
const (
	StatusFull     = "full"
	StatusStarted  = "started"
	StatusFinished = "finished"
)

// State is the table as every participant sees it after a move.
type State struct {
	PlayerCards   []*entity.Player `json:"player_cards"`
	FaceCard      entity.Card      `json:"face_card"`
	Market        int              `json:"market"`
	Stack         []entity.Card    `json:"stack"`
	Turn          string           `json:"turn"`
	TurnsToSkip   int              `json:"turns_to_skip"`
	FailedDefense bool             `json:"failed_defense"`
	Winner        string           `json:"winner"`
	Rankings      []entity.Ranking `json:"rankings"`
	TurnsPlayed   int              `json:"turns_played"`
	TimePerTurn   int              `json:"time_per_turn,omitempty"`
	Status        string           `json:"status,omitempty"`
}

// Control announces a phase transition of the session.
type Control struct {
	Status string `json:"status"`
}

// Error is only ever sent to the client that caused it.
type Error struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

// Listing is pushed periodically to lobby watchers.
type Listing struct {
	Games []entity.SessionSummary `json:"games"`
}

// Move is the inbound message of the player to move. Turn is optional and must name the sender.
type Move struct {
	Turn  string        `json:"turn,omitempty"`
	Stack []entity.Card `json:"stack"`
}

// NewState - snapshot of the game for broadcasting.
func NewState(game *entity.GameState, timePerTurn int) State {
	players := make([]*entity.Player, len(game.Players))
	for i, player := range game.Players {
		players[i] = player.Clone()
		if players[i].Hand == nil {
			players[i].Hand = []entity.Card{}
		}
	}

	stack := game.Stack
	if stack == nil {
		stack = []entity.Card{}
	}

	rankings := game.Rankings
	if rankings == nil {
		rankings = []entity.Ranking{}
	}

	return State{
		PlayerCards:   players,
		FaceCard:      game.FaceCard,
		Market:        game.Market,
		Stack:         append([]entity.Card{}, stack...),
		Turn:          game.Turn,
		TurnsToSkip:   game.TurnsToSkip,
		FailedDefense: game.FailedDefense,
		Winner:        game.Winner,
		Rankings:      append([]entity.Ranking{}, rankings...),
		TurnsPlayed:   game.TurnsPlayed,
		TimePerTurn:   timePerTurn,
		Status:        game.Status,
	}
}

// Hand - cards held by the given player in this snapshot.
func (that State) Hand(playerID string) []entity.Card {
	for _, player := range that.PlayerCards {
		if player.ID == playerID {
			return player.Hand
		}
	}

	return nil
}

// Encode - marshals any outbound message.
func Encode(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

// DecodeMove - parses an inbound move. A move needs a stack, possibly empty, of real cards.
// Clients may echo the whole state record back, only turn and stack are read from it.
func DecodeMove(data []byte) (Move, error) {
	var raw struct {
		Turn  *string        `json:"turn"`
		Stack *[]entity.Card `json:"stack"`

		PlayerCards   json.RawMessage `json:"player_cards"`
		FaceCard      json.RawMessage `json:"face_card"`
		Market        json.RawMessage `json:"market"`
		TurnsToSkip   json.RawMessage `json:"turns_to_skip"`
		FailedDefense json.RawMessage `json:"failed_defense"`
		Winner        json.RawMessage `json:"winner"`
		Rankings      json.RawMessage `json:"rankings"`
		TurnsPlayed   json.RawMessage `json:"turns_played"`
		TimePerTurn   json.RawMessage `json:"time_per_turn"`
		Status        json.RawMessage `json:"status"`
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&raw); err != nil {
		return Move{}, fmt.Errorf("%w: %w", apperror.ErrProtocol, err)
	}

	if raw.Stack == nil {
		return Move{}, fmt.Errorf("%w: stack is required", apperror.ErrProtocol)
	}

	for _, card := range *raw.Stack {
		if err := card.Validate(); err != nil {
			return Move{}, fmt.Errorf("%w: %w", apperror.ErrProtocol, err)
		}
	}

	move := Move{Stack: *raw.Stack}
	if raw.Turn != nil {
		move.Turn = *raw.Turn
	}

	return move, nil
}

// DecodeState - parses a broadcast frame. Control frames carry no player_cards and are rejected.
func DecodeState(data []byte) (State, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return State{}, fmt.Errorf("%w: %w", apperror.ErrProtocol, err)
	}

	if _, ok := probe["player_cards"]; !ok {
		return State{}, fmt.Errorf("%w: not a state message", apperror.ErrProtocol)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("%w: %w", apperror.ErrProtocol, err)
	}

	return state, nil
}

// DecodeError - parses an error frame.
func DecodeError(data []byte) (Error, error) {
	var msg Error
	if err := json.Unmarshal(data, &msg); err != nil {
		return Error{}, fmt.Errorf("%w: %w", apperror.ErrProtocol, err)
	}

	return msg, nil
}
