package entity

import (
	"errors"
	"fmt"
	"slices"
)

type Shape string

const (
	ShapeCross    Shape = "cross"
	ShapeSquare   Shape = "square"
	ShapeCircle   Shape = "circle"
	ShapeTriangle Shape = "triangle"
	ShapeStar     Shape = "star"
	ShapeWhot     Shape = "whot"
)

const (
	HoldOn          = 1
	PickTwo         = 2
	PickThree       = 5
	Suspension      = 8
	GeneralMarket   = 14
	WhotNum         = 20
	whotCardsInPack = 5
)

var ErrUnknownCard = errors.New("unknown card")

// canon lists the ranks printed for every shape, the whot cards are added separately.
var canon = []struct {
	shape Shape
	nums  []int
}{
	{ShapeCross, []int{1, 2, 3, 5, 7, 10, 11, 13, 14}},
	{ShapeSquare, []int{1, 2, 3, 5, 7, 10, 11, 13, 14}},
	{ShapeCircle, []int{1, 2, 3, 4, 5, 7, 8, 10, 11, 12, 13, 14}},
	{ShapeTriangle, []int{1, 2, 3, 4, 5, 7, 8, 10, 11, 12, 13, 14}},
	{ShapeStar, []int{1, 2, 3, 4, 5, 7, 8}},
}

var actionNums = []int{HoldOn, PickTwo, PickThree, Suspension, GeneralMarket, WhotNum}

// Card is an immutable card value, two cards are equal when shape and num match.
type Card struct {
	Shape Shape `json:"shape"`
	Num   int   `json:"num"`
}

func (that Card) String() string {
	return fmt.Sprintf("%s %d", that.Shape, that.Num)
}

// IsWildcard - whot cards can be played on any face card.
func (that Card) IsWildcard() bool {
	return that.Shape == ShapeWhot || that.Num == WhotNum
}

// IsAction - reports whether the card has a special effect.
func (that Card) IsAction() bool {
	return slices.Contains(actionNums, that.Num)
}

// Validate - checks the card exists in the pack.
func (that Card) Validate() error {
	if that.Shape == ShapeWhot {
		if that.Num != WhotNum {
			return fmt.Errorf("%w: %s", ErrUnknownCard, that)
		}
		return nil
	}

	for _, suit := range canon {
		if suit.shape == that.Shape && slices.Contains(suit.nums, that.Num) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnknownCard, that)
}

// Pack - returns the 54 card canon in a fixed order.
func Pack() []Card {
	cards := make([]Card, 0, 54)
	for _, suit := range canon {
		for _, num := range suit.nums {
			cards = append(cards, Card{Shape: suit.shape, Num: num})
		}
	}

	for range whotCardsInPack {
		cards = append(cards, Card{Shape: ShapeWhot, Num: WhotNum})
	}

	return cards
}
