package entity

import (
	"fmt"

	"github.com/rocketscienceinc/whot-backend/internal/apperror"
)

const (
	MinPlayers       = 2
	MaxPlayers       = 8
	MaxStartingCards = 20
)

// SessionConfig is fixed when a session is created.
type SessionConfig struct {
	HostName         string `json:"hostName"`
	NumStartingCards int    `json:"numStartingCards"`
	NumPlayers       int    `json:"numPlayers"`
	NumAI            int    `json:"numAI"`
	TimeLimit        int    `json:"timeLimit"`
	IsPrivate        bool   `json:"isPrivate"`
}

func (that SessionConfig) Validate() error {
	switch {
	case that.HostName == "":
		return fmt.Errorf("%w: host name is required", apperror.ErrInvalidConfig)
	case that.NumPlayers < MinPlayers || that.NumPlayers > MaxPlayers:
		return fmt.Errorf("%w: players must be between %d and %d", apperror.ErrInvalidConfig, MinPlayers, MaxPlayers)
	case that.NumAI < 0 || that.NumAI >= that.NumPlayers:
		return fmt.Errorf("%w: at least one seat must be left for a human", apperror.ErrInvalidConfig)
	case that.NumStartingCards < 1 || that.NumStartingCards > MaxStartingCards:
		return fmt.Errorf("%w: starting cards must be between 1 and %d", apperror.ErrInvalidConfig, MaxStartingCards)
	case that.TimeLimit < 0:
		return fmt.Errorf("%w: time limit can't be negative", apperror.ErrInvalidConfig)
	}

	return nil
}

// SessionSummary is one row of the public session listing.
type SessionSummary struct {
	ID         string `json:"id"`
	Private    bool   `json:"private"`
	Host       string `json:"host"`
	Status     string `json:"status"`
	MaxPlayers int    `json:"max_players"`
	NumPlayers int    `json:"num_players"`
}

// IsListed - private, finished and empty sessions are hidden from the lobby.
func (that SessionSummary) IsListed() bool {
	return !that.Private && that.Status != StatusGameOver && that.NumPlayers > 0
}
