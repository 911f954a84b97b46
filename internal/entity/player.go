package entity

import (
	"fmt"
	"slices"

	"github.com/rocketscienceinc/whot-backend/internal/apperror"
)

// Player is a seat in a game. The hand is owned by the player and only changed by the engine.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Hand []Card `json:"hand"`
}

func (that *Player) Clone() *Player {
	return &Player{
		ID:   that.ID,
		Name: that.Name,
		Hand: slices.Clone(that.Hand),
	}
}

// HandTotal - sum of the card numbers held, lower is better for rankings.
func (that *Player) HandTotal() int {
	total := 0
	for _, card := range that.Hand {
		total += card.Num
	}

	return total
}

// Take - appends drawn cards to the hand.
func (that *Player) Take(cards []Card) {
	that.Hand = append(that.Hand, cards...)
}

// Locate - maps every card onto a distinct hand index, first free match wins.
func (that *Player) Locate(cards []Card) ([]int, error) {
	used := make([]bool, len(that.Hand))
	indices := make([]int, 0, len(cards))

	for _, card := range cards {
		found := -1
		for i, held := range that.Hand {
			if !used[i] && held == card {
				found = i
				break
			}
		}

		if found < 0 {
			return nil, fmt.Errorf("%s: %w", card, apperror.ErrCardNotInHand)
		}

		used[found] = true
		indices = append(indices, found)
	}

	return indices, nil
}

// RemoveAt - drops the cards at the given indices in one step and returns them in index order.
func (that *Player) RemoveAt(indices []int) []Card {
	drop := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		drop[i] = struct{}{}
	}

	kept := make([]Card, 0, len(that.Hand))
	removed := make([]Card, 0, len(indices))
	for i, card := range that.Hand {
		if _, ok := drop[i]; ok {
			removed = append(removed, card)
			continue
		}
		kept = append(kept, card)
	}

	that.Hand = kept

	return removed
}
