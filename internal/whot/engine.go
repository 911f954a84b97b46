package whot

import (
	"fmt"
	"slices"

	"github.com/rocketscienceinc/whot-backend/internal/apperror"
	"github.com/rocketscienceinc/whot-backend/internal/entity"
)

// Move is one turn as submitted by a player: the cards played in order, possibly none.
type Move struct {
	PlayerID string
	Stack    []entity.Card
}

// ResolvedMove is a legal move together with its effect on the table.
type ResolvedMove struct {
	PlayerID string
	Stack    []entity.Card
	FaceCard entity.Card
	Outcome
}

// Seat is a player taking part in a new game.
type Seat struct {
	ID   string
	Name string
}

// Engine applies moves to game states, it owns the session's draw pile.
type Engine struct {
	deck *entity.Deck
}

func NewEngine(deck *entity.Deck) *Engine {
	return &Engine{deck: deck}
}

// Start - deals a hand to every seat and opens on a plain card.
func (that *Engine) Start(seats []Seat, handSize int) *entity.GameState {
	hands := that.deck.Deal(len(seats), handSize)

	players := make([]*entity.Player, len(seats))
	for i, seat := range seats {
		players[i] = &entity.Player{ID: seat.ID, Name: seat.Name, Hand: hands[i]}
	}

	return entity.NewGameState(players, that.deck.OpeningCard())
}

// Play - validates a move against the state and returns the next state.
// The given state is left untouched, also when the move is rejected.
func (that *Engine) Play(state *entity.GameState, move Move) (*entity.GameState, error) {
	resolved, indices, err := Resolve(state, move)
	if err != nil {
		return nil, err
	}

	next := state.Clone()

	player, _ := next.Player(move.PlayerID)
	player.RemoveAt(indices)

	return that.Advance(next, resolved), nil
}

// Resolve - checks a move is legal for the state and computes its outcome.
// It also returns the hand indices of the played cards.
func Resolve(state *entity.GameState, move Move) (ResolvedMove, []int, error) {
	if err := state.ConfirmOngoingState(); err != nil {
		return ResolvedMove{}, nil, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, err)
	}

	if state.Turn != move.PlayerID {
		return ResolvedMove{}, nil, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, apperror.ErrNotYourTurn)
	}

	player, ok := state.Player(move.PlayerID)
	if !ok {
		return ResolvedMove{}, nil, fmt.Errorf("%w: player %s is not seated", apperror.ErrIllegalMove, move.PlayerID)
	}

	indices, err := player.Locate(move.Stack)
	if err != nil {
		return ResolvedMove{}, nil, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, err)
	}

	if err = ValidateStack(state.FaceCard, move.Stack); err != nil {
		return ResolvedMove{}, nil, err
	}

	outcome := ResolveStack(move.Stack, state.Market)

	// nothing played and nothing owed: the player goes to market for one card
	if len(move.Stack) == 0 && outcome.Market == 0 {
		outcome.Market = 1
	}

	face := state.FaceCard
	if len(move.Stack) > 0 {
		face = move.Stack[len(move.Stack)-1]
	}

	return ResolvedMove{
		PlayerID: move.PlayerID,
		Stack:    slices.Clone(move.Stack),
		FaceCard: face,
		Outcome:  outcome,
	}, indices, nil
}

// Advance - applies the special card effects of a resolved move, moves the turn on and
// settles the result. The actor's hand must already have the played cards removed.
func (that *Engine) Advance(state *entity.GameState, move ResolvedMove) *entity.GameState {
	state.FaceCard = move.FaceCard
	state.Market = move.Market
	state.Stack = move.Stack
	state.TurnsToSkip = move.TurnsToSkip
	state.FailedDefense = move.FailedDefense
	state.TurnsPlayed++

	face := move.FaceCard.Num
	market := move.Market

	switch {
	case (face == entity.PickTwo || face == entity.PickThree) && market > 1:
		that.pickAttack(state, move)
	case face == entity.GeneralMarket && market != 1:
		that.generalMarket(state, max(market, 1))
	case face == entity.Suspension && market == 0:
		for range move.TurnsToSkip {
			state.NextTurn()
		}
	case face == entity.HoldOn && market == 0:
		// the actor plays again
	default:
		// follow-ups of general market, suspension and hold on draw one card like any market draw
		that.drawFor(state, state.Turn, market)
		state.Market = 0
		state.NextTurn()
	}

	state.UpdateResult()

	return state
}

// pickAttack - the attacked player defends with the same rank or a wildcard, otherwise draws.
func (that *Engine) pickAttack(state *entity.GameState, move ResolvedMove) {
	target := state.Turn
	if !move.FailedDefense {
		target = state.NextTurn()
	}

	player, ok := state.Player(target)
	if !ok {
		return
	}

	if move.FailedDefense || !canDefend(player, move.FaceCard.Num) {
		player.Take(that.deck.Draw(state.Market, false))
		state.Market = 0
		state.NextTurn()
	}
}

// generalMarket - everybody but the actor draws, the actor keeps the turn.
func (that *Engine) generalMarket(state *entity.GameState, count int) {
	for _, player := range state.Players {
		if player.ID == state.Turn {
			continue
		}
		player.Take(that.deck.Draw(count, false))
	}

	state.Market = 0
}

func (that *Engine) drawFor(state *entity.GameState, playerID string, count int) {
	if count <= 0 {
		return
	}

	if player, ok := state.Player(playerID); ok {
		player.Take(that.deck.Draw(count, false))
	}
}

func canDefend(player *entity.Player, num int) bool {
	return slices.ContainsFunc(player.Hand, func(card entity.Card) bool {
		return card.Num == num || card.IsWildcard()
	})
}
