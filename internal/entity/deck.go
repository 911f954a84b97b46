package entity

import "math/rand"

// Deck is the draw pile. It never runs out: whenever the remaining supply cannot cover a draw
// it is replaced by a freshly shuffled pack, discarded cards are never recycled.
type Deck struct {
	rng   *rand.Rand
	cards []Card
}

// NewShuffledDeck - creates a deck holding a uniform permutation of the pack.
func NewShuffledDeck(rng *rand.Rand) *Deck {
	deck := &Deck{rng: rng}
	deck.reshuffle()

	return deck
}

// size - number of cards left before the next reshuffle.
func (that *Deck) size() int {
	return len(that.cards)
}

// remaining - copy of the cards left, front first.
func (that *Deck) remaining() []Card {
	out := make([]Card, len(that.cards))
	copy(out, that.cards)

	return out
}

// Draw - removes n cards from the front of the deck.
// With excludeActionCards set, action cards are sent to the back until a plain card shows up.
func (that *Deck) Draw(n int, excludeActionCards bool) []Card {
	if n <= 0 {
		return []Card{}
	}

	if n > len(that.cards) {
		that.reshuffle()
	}

	hand := make([]Card, 0, n)
	rejected := 0

	for len(hand) < n {
		if len(that.cards) == 0 || (excludeActionCards && rejected >= len(that.cards)) {
			that.reshuffle()
			rejected = 0
		}

		card := that.cards[0]
		that.cards = that.cards[1:]

		if excludeActionCards && card.IsAction() {
			that.cards = append(that.cards, card)
			rejected++
			continue
		}

		hand = append(hand, card)
		rejected = 0
	}

	return hand
}

// Deal - draws one hand of size cards per player.
func (that *Deck) Deal(players, size int) [][]Card {
	hands := make([][]Card, players)
	for i := range hands {
		hands[i] = that.Draw(size, false)
	}

	return hands
}

// OpeningCard - first face card of a game, never an action card.
func (that *Deck) OpeningCard() Card {
	return that.Draw(1, true)[0]
}

func (that *Deck) reshuffle() {
	cards := Pack()
	that.rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	that.cards = cards
}
