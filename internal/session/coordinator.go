package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rocketscienceinc/whot-backend/internal/apperror"
	"github.com/rocketscienceinc/whot-backend/internal/entity"
	"github.com/rocketscienceinc/whot-backend/internal/protocol"
	"github.com/rocketscienceinc/whot-backend/internal/whot"
)

const inboxSize = 64

// Conn is the outbound channel of a participant. Send must not block.
type Conn interface {
	Send(data []byte) error
	Close() error
}

// Client is a participant connected to a session.
type Client struct {
	ID   string
	Name string
	Conn Conn
	Bot  bool
}

// Pacing holds the cooperative pauses of a session. A zero JoinTimeout waits forever for players.
type Pacing struct {
	Clock       Clock
	SettleDelay time.Duration
	MoveDelay   time.Duration
	JoinTimeout time.Duration
}

type joinEvent struct {
	client *Client
	reply  chan error
}

type moveEvent struct {
	clientID string
	data     []byte
}

type leaveEvent struct {
	clientID string
}

// Coordinator owns one session. Every mutation happens on the goroutine running Run,
// other goroutines talk to it through the inbox.
type Coordinator struct {
	logger *slog.Logger
	id     string
	config entity.SessionConfig
	engine *whot.Engine
	pacing Pacing

	events  chan any
	done    chan struct{}
	onClose func(id string)
	summary atomic.Pointer[entity.SessionSummary]

	clients []*Client
	game    *entity.GameState
	status  string
}

func NewCoordinator(logger *slog.Logger, id string, config entity.SessionConfig, engine *whot.Engine, pacing Pacing) *Coordinator {
	if pacing.Clock == nil {
		pacing.Clock = RealClock()
	}

	coordinator := &Coordinator{
		logger: logger.With("component", "session", "sessionID", id),
		id:     id,
		config: config,
		engine: engine,
		pacing: pacing,

		events: make(chan any, inboxSize),
		done:   make(chan struct{}),

		status: entity.StatusWaiting,
	}

	coordinator.publish()

	return coordinator
}

func (that *Coordinator) ID() string {
	return that.id
}

// Summary - listing row of the session, safe to call from any goroutine.
func (that *Coordinator) Summary() entity.SessionSummary {
	return *that.summary.Load()
}

// Done - closed once the session has ended.
func (that *Coordinator) Done() <-chan struct{} {
	return that.done
}

// Join - seats a client. Once the last seat is taken the game starts.
func (that *Coordinator) Join(ctx context.Context, client *Client) error {
	reply := make(chan error, 1)

	if err := that.enqueue(ctx, joinEvent{client: client, reply: reply}); err != nil {
		return err
	}

	select {
	case err := <-reply:
		return err
	case <-that.done:
		return apperror.ErrSessionClosed
	case <-ctx.Done():
		return fmt.Errorf("failed to join session: %w", ctx.Err())
	}
}

// Submit - queues a raw inbound message of a client.
func (that *Coordinator) Submit(ctx context.Context, clientID string, data []byte) error {
	return that.enqueue(ctx, moveEvent{clientID: clientID, data: data})
}

// Leave - reports a client whose channel went away.
func (that *Coordinator) Leave(ctx context.Context, clientID string) error {
	return that.enqueue(ctx, leaveEvent{clientID: clientID})
}

func (that *Coordinator) enqueue(ctx context.Context, event any) error {
	select {
	case <-that.done:
		return apperror.ErrSessionClosed
	default:
	}

	select {
	case that.events <- event:
		return nil
	case <-that.done:
		return apperror.ErrSessionClosed
	case <-ctx.Done():
		return fmt.Errorf("failed to reach session: %w", ctx.Err())
	}
}

// Run - drains the inbox until the game is over, the session is abandoned or ctx is done.
func (that *Coordinator) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	defer that.shutdown()

	var joinTimeout <-chan time.Time
	if that.pacing.JoinTimeout > 0 {
		joinTimeout = that.pacing.Clock.After(that.pacing.JoinTimeout)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("session cancelled")
			return
		case <-joinTimeout:
			joinTimeout = nil
			if that.status == entity.StatusWaiting && !that.hasHumans() {
				log.Info("nobody joined in time, closing session")
				return
			}
		case event := <-that.events:
			finished := that.handle(ctx, event)
			that.publish()

			if finished {
				return
			}
		}
	}
}

func (that *Coordinator) handle(ctx context.Context, event any) bool {
	switch ev := event.(type) {
	case joinEvent:
		err := that.join(ev.client)
		ev.reply <- err

		if err == nil && len(that.clients) == that.config.NumPlayers {
			return that.start(ctx)
		}
	case moveEvent:
		return that.move(ctx, ev)
	case leaveEvent:
		return that.leave(ev.clientID)
	}

	return false
}

func (that *Coordinator) join(client *Client) error {
	log := that.logger.With("method", "join")

	if err := that.admit(client); err != nil {
		log.Info("join refused", "clientID", client.ID, "error", err)
		return err
	}

	that.clients = append(that.clients, client)
	log.Info("client joined", "clientID", client.ID, "name", client.Name, "connected", len(that.clients))

	that.broadcast(protocol.Control{Status: entity.StatusWaiting})

	return nil
}

func (that *Coordinator) admit(client *Client) error {
	switch that.status {
	case entity.StatusStarting:
		return apperror.ErrSessionStarting
	case entity.StatusInProgress:
		return apperror.ErrSessionFull
	case entity.StatusGameOver:
		return apperror.ErrGameFinished
	}

	if len(that.clients) >= that.config.NumPlayers {
		return apperror.ErrSessionFull
	}

	for _, joined := range that.clients {
		if joined.ID == client.ID || joined.Name == client.Name {
			return fmt.Errorf("%w: %s", apperror.ErrAlreadyJoined, client.Name)
		}
	}

	return nil
}

// start - runs the start sequence once every seat is taken.
func (that *Coordinator) start(ctx context.Context) bool {
	log := that.logger.With("method", "start")

	that.status = entity.StatusStarting
	that.publish()
	that.broadcast(protocol.Control{Status: entity.StatusStarting})

	if !that.pause(ctx, that.pacing.SettleDelay) {
		return true
	}

	seats := make([]whot.Seat, len(that.clients))
	for i, client := range that.clients {
		seats[i] = whot.Seat{ID: client.ID, Name: client.Name}
	}

	that.game = that.engine.Start(seats, that.config.NumStartingCards)
	that.status = entity.StatusInProgress

	log.Info("game started", "players", len(seats), "faceCard", that.game.FaceCard.String())

	that.broadcast(protocol.NewState(that.game, that.config.TimeLimit))
	that.broadcast(protocol.Control{Status: entity.StatusInProgress})

	return false
}

func (that *Coordinator) move(ctx context.Context, ev moveEvent) bool {
	log := that.logger.With("method", "move", "clientID", ev.clientID)

	client := that.client(ev.clientID)
	if client == nil {
		log.Warn("message from a client that is not seated")
		return false
	}

	msg, err := protocol.DecodeMove(ev.data)
	if err != nil {
		log.Warn("dropping malformed message", "error", err)
		return false
	}

	if that.game == nil {
		that.sendError(client, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, apperror.ErrGameIsNotStarted))
		return false
	}

	if msg.Turn != "" && msg.Turn != ev.clientID {
		that.sendError(client, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, apperror.ErrNotYourTurn))
		return false
	}

	next, err := that.engine.Play(that.game, whot.Move{PlayerID: ev.clientID, Stack: msg.Stack})
	if err != nil {
		log.Info("move rejected", "error", err)
		that.sendError(client, err)
		return false
	}

	that.game = next

	if !that.pause(ctx, that.pacing.MoveDelay) {
		return true
	}

	that.broadcast(protocol.NewState(that.game, 0))

	if that.game.IsFinished() {
		that.finish()
		return true
	}

	return false
}

// leave - drops the client's channel. Mid-game the departed player leaves the rotation,
// and a sole remaining player wins by attrition.
func (that *Coordinator) leave(clientID string) bool {
	log := that.logger.With("method", "leave", "clientID", clientID)

	idx := slices.IndexFunc(that.clients, func(client *Client) bool { return client.ID == clientID })
	if idx < 0 {
		return false
	}

	that.clients = slices.Delete(that.clients, idx, idx+1)
	log.Info("client left", "connected", len(that.clients))

	if that.game == nil {
		if !that.hasHumans() {
			log.Info("no human players left, closing session")
			return true
		}

		that.broadcast(protocol.Control{Status: entity.StatusWaiting})

		return false
	}

	that.game.RemovePlayer(clientID)

	if len(that.clients) == 1 {
		survivor := that.clients[0].ID
		for _, player := range slices.Clone(that.game.Players) {
			if player.ID != survivor {
				that.game.RemovePlayer(player.ID)
			}
		}
	}

	that.game.UpdateResult()
	that.broadcast(protocol.NewState(that.game, 0))

	if that.game.IsFinished() {
		that.finish()
		return true
	}

	if !that.hasHumans() {
		log.Info("only automated players left, closing session")
		return true
	}

	return false
}

func (that *Coordinator) finish() {
	that.status = entity.StatusGameOver
	that.broadcast(protocol.Control{Status: entity.StatusGameOver})

	that.logger.Info("game over", "winner", that.game.Winner, "turnsPlayed", that.game.TurnsPlayed)
}

// shutdown - closes every channel, stopping automated players with them, and unregisters the session.
func (that *Coordinator) shutdown() {
	that.status = entity.StatusGameOver
	that.publish()

	close(that.done)

	for _, client := range that.clients {
		if err := client.Conn.Close(); err != nil {
			that.logger.Debug("failed to close client channel", "clientID", client.ID, "error", err)
		}
	}

	that.clients = nil

	if that.onClose != nil {
		that.onClose(that.id)
	}
}

func (that *Coordinator) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	select {
	case <-that.pacing.Clock.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func (that *Coordinator) broadcast(msg any) {
	data, err := protocol.Encode(msg)
	if err != nil {
		that.logger.Error("failed to encode broadcast", "error", err)
		return
	}

	for _, client := range that.clients {
		if err = client.Conn.Send(data); err != nil {
			that.logger.Debug("failed to send to client", "clientID", client.ID, "error", err)
		}
	}
}

func (that *Coordinator) sendError(client *Client, cause error) {
	data, err := protocol.Encode(protocol.Error{Error: cause.Error(), Status: that.status})
	if err != nil {
		that.logger.Error("failed to encode error", "error", err)
		return
	}

	if err = client.Conn.Send(data); err != nil {
		that.logger.Debug("failed to send error to client", "clientID", client.ID, "error", err)
	}
}

func (that *Coordinator) client(id string) *Client {
	for _, client := range that.clients {
		if client.ID == id {
			return client
		}
	}

	return nil
}

func (that *Coordinator) hasHumans() bool {
	return slices.ContainsFunc(that.clients, func(client *Client) bool { return !client.Bot })
}

func (that *Coordinator) publish() {
	that.summary.Store(&entity.SessionSummary{
		ID:         that.id,
		Private:    that.config.IsPrivate,
		Host:       that.config.HostName,
		Status:     that.status,
		MaxPlayers: that.config.NumPlayers,
		NumPlayers: len(that.clients),
	})
}

// RejectionStatus - status told to a client whose join was refused.
func RejectionStatus(err error) string {
	switch {
	case errors.Is(err, apperror.ErrSessionFull):
		return protocol.StatusFull
	case errors.Is(err, apperror.ErrSessionStarting):
		return protocol.StatusStarted
	case errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrSessionClosed),
		errors.Is(err, apperror.ErrSessionNotFound):
		return protocol.StatusFinished
	default:
		return entity.StatusWaiting
	}
}
