package whot

import (
	"fmt"
	"slices"

	"github.com/rocketscienceinc/whot-backend/internal/apperror"
	"github.com/rocketscienceinc/whot-backend/internal/entity"
)

// specialNums can only be answered by their own rank once they are on the table.
var specialNums = []int{entity.HoldOn, entity.PickTwo, entity.PickThree, entity.Suspension, entity.GeneralMarket}

// Outcome is what a played stack does to the table.
type Outcome struct {
	Market        int
	TurnsToSkip   int
	FailedDefense bool
}

// IsLegalPlay - checks whether candidate may be put on face.
// Once a card was played this turn, only cards of the same rank continue the stack.
func IsLegalPlay(face, candidate entity.Card, hasPlayed bool) bool {
	if candidate.IsWildcard() {
		return true
	}

	if hasPlayed {
		return candidate.Num == face.Num
	}

	if candidate.Shape == face.Shape || candidate.Num == face.Num {
		return true
	}

	if slices.Contains(specialNums, face.Num) {
		return candidate.Num == face.Num
	}

	return false
}

// ValidateStack - every card of the stack must be legal on top of the previous one.
func ValidateStack(face entity.Card, stack []entity.Card) error {
	top := face
	for i, card := range stack {
		if !IsLegalPlay(top, card, i > 0) {
			return fmt.Errorf("%w: %s can't be played on %s", apperror.ErrIllegalMove, card, top)
		}
		top = card
	}

	return nil
}

// ResolveStack - computes the market, skip count and defense result of one turn's stack.
func ResolveStack(stack []entity.Card, incomingMarket int) Outcome {
	value := 0
	skip := 1

	if len(stack) > 0 {
		switch stack[0].Num {
		case entity.PickTwo:
			value = 2 * len(stack)
		case entity.PickThree:
			value = 3 * len(stack)
		case entity.GeneralMarket:
			if len(stack) > 1 {
				value = len(stack)
			}
		case entity.Suspension:
			skip = len(stack)
		}
	}

	return Outcome{
		Market:        incomingMarket + value,
		TurnsToSkip:   skip + 1,
		FailedDefense: len(stack) == 0 && incomingMarket > 0,
	}
}
