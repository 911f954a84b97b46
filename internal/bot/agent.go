package bot

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/whot-backend/internal/entity"
	"github.com/rocketscienceinc/whot-backend/internal/protocol"
	"github.com/rocketscienceinc/whot-backend/internal/session"
	"github.com/rocketscienceinc/whot-backend/internal/whot"
)

const inboxSize = 16

var ErrStopped = errors.New("bot is stopped")

// Submitter takes the moves of a participant, a session coordinator in practice.
type Submitter interface {
	Submit(ctx context.Context, clientID string, data []byte) error
}

// Agent is an automated player living in the server process. It receives exactly the frames
// a websocket client would and answers with the same move messages.
type Agent struct {
	logger *slog.Logger
	id     string
	name   string
	clock  session.Clock
	delay  time.Duration

	inbox chan []byte
	stop  chan struct{}
	once  sync.Once

	last     *protocol.State
	fellBack bool
}

// New - creates an agent with a fresh id, it does nothing until Run is called.
func New(logger *slog.Logger, clock session.Clock, delay time.Duration) *Agent {
	id := uuid.NewString()

	return &Agent{
		logger: logger.With("component", "bot", "botID", id),
		id:     id,
		name:   "bot_" + id[:8],
		clock:  clock,
		delay:  delay,

		inbox: make(chan []byte, inboxSize),
		stop:  make(chan struct{}),
	}
}

func (that *Agent) ID() string {
	return that.id
}

func (that *Agent) Name() string {
	return that.name
}

// Client - the agent as a session participant.
func (that *Agent) Client() *session.Client {
	return &session.Client{ID: that.id, Name: that.name, Conn: that, Bot: true}
}

// Send - hands a frame to the agent without blocking, the oldest pending frame is dropped when the inbox is full.
func (that *Agent) Send(data []byte) error {
	for {
		select {
		case <-that.stop:
			return ErrStopped
		default:
		}

		select {
		case that.inbox <- data:
			return nil
		default:
		}

		select {
		case <-that.inbox:
		default:
		}
	}
}

// Close - stops the agent.
func (that *Agent) Close() error {
	that.once.Do(func() {
		close(that.stop)
	})

	return nil
}

// Run - reacts to frames until the agent is stopped or ctx is done.
func (that *Agent) Run(ctx context.Context, coordinator Submitter) {
	log := that.logger.With("method", "Run")

	for {
		select {
		case <-ctx.Done():
			return
		case <-that.stop:
			log.Debug("bot stopped")
			return
		case data := <-that.inbox:
			move, ok := that.react(data)
			if !ok {
				continue
			}

			if !that.pause(ctx) {
				return
			}

			if err := coordinator.Submit(ctx, that.id, move); err != nil {
				log.Info("failed to submit move", "error", err)
				return
			}
		}
	}
}

// react - decides whether a frame calls for a move. A rejected move falls back to a market draw.
func (that *Agent) react(data []byte) ([]byte, bool) {
	state, err := protocol.DecodeState(data)
	if err != nil {
		if that.fellBack || that.last == nil || !isError(data) || !that.mustPlay(*that.last) {
			return nil, false
		}

		that.fellBack = true

		that.logger.Warn("move was rejected, going to market")

		return that.encode(protocol.Move{Turn: that.id, Stack: []entity.Card{}})
	}

	that.last = &state
	that.fellBack = false

	if !that.mustPlay(state) {
		return nil, false
	}

	return that.encode(protocol.Move{Turn: that.id, Stack: ChooseStack(state.FaceCard, state.Hand(that.id))})
}

func (that *Agent) mustPlay(state protocol.State) bool {
	return state.Turn == that.id && state.Winner == ""
}

func (that *Agent) encode(move protocol.Move) ([]byte, bool) {
	data, err := protocol.Encode(move)
	if err != nil {
		that.logger.Error("failed to encode move", "error", err)
		return nil, false
	}

	return data, true
}

func (that *Agent) pause(ctx context.Context) bool {
	if that.delay <= 0 {
		return true
	}

	select {
	case <-that.clock.After(that.delay):
		return true
	case <-that.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

// ChooseStack - plays the hand from the lowest number up, chaining every card that stays legal.
// An empty stack means going to market.
func ChooseStack(face entity.Card, hand []entity.Card) []entity.Card {
	sorted := slices.Clone(hand)
	slices.SortStableFunc(sorted, func(a, b entity.Card) int { return a.Num - b.Num })

	stack := []entity.Card{}
	top := face
	for _, card := range sorted {
		if whot.IsLegalPlay(top, card, len(stack) > 0) {
			stack = append(stack, card)
			top = card
		}
	}

	return stack
}

func isError(data []byte) bool {
	msg, err := protocol.DecodeError(data)
	return err == nil && msg.Error != ""
}
