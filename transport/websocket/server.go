package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/whot-backend/internal/apperror"
	"github.com/rocketscienceinc/whot-backend/internal/entity"
	"github.com/rocketscienceinc/whot-backend/internal/protocol"
	"github.com/rocketscienceinc/whot-backend/internal/server"
	"github.com/rocketscienceinc/whot-backend/internal/session"
	"github.com/rocketscienceinc/whot-backend/pkg/handlers"
)

type sessionUseCase interface {
	CreateSession(ctx context.Context, config entity.SessionConfig) (string, error)
	JoinSession(ctx context.Context, sessionID string, client *session.Client) (*session.Coordinator, error)
	ListSessions(ctx context.Context) []entity.SessionSummary
}

// Settings - limits of the websocket transport.
type Settings struct {
	AllowedOrigins []string
	MessageRate    float64
	MessageBurst   int
	ListInterval   time.Duration
}

type Server struct {
	logger   *slog.Logger
	sessions sessionUseCase
	settings Settings
	upgrader websocket.Upgrader
	router   *gin.Engine
}

func New(logger *slog.Logger, sessions sessionUseCase, settings Settings) *Server {
	that := &Server{
		logger:   logger.With("component", "websocket"),
		sessions: sessions,
		settings: settings,
		router:   gin.New(),
	}

	that.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(req *http.Request) bool {
			return handlers.OriginAllowed(settings.AllowedOrigins, req.Header.Get("Origin"))
		},
	}

	that.router.Use(gin.Recovery(), handlers.CORS(settings.AllowedOrigins))

	that.router.GET("/ping", handlers.PingHandler)
	that.router.GET("/ws/create/:host_id", that.createSession)
	that.router.GET("/ws/join/:id", that.joinSession)
	that.router.GET("/ws/games", that.watchGames)

	return that
}

func (that *Server) Handler() http.Handler {
	return that.router
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	return server.Run(ctx, server.New(port, that.router))
}

// createSession - creates a session from the settings query and seats the host in it.
func (that *Server) createSession(ctx *gin.Context) {
	log := that.logger.With("method", "createSession")

	var config entity.SessionConfig
	if err := json.Unmarshal([]byte(ctx.Query("settings")), &config); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-configs"})
		return
	}

	if err := config.Validate(); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, ok := that.upgrade(ctx)
	if !ok {
		return
	}

	sessionID, err := that.sessions.CreateSession(ctx.Request.Context(), config)
	if err != nil {
		log.Error("failed to create session", "error", err)
		that.reject(conn, err)
		return
	}

	that.play(ctx.Request.Context(), conn, sessionID, clientID(ctx.Param("host_id")), config.HostName)
}

// joinSession - seats a client in an existing session.
func (that *Server) joinSession(ctx *gin.Context) {
	conn, ok := that.upgrade(ctx)
	if !ok {
		return
	}

	id := clientID(ctx.Query("client_id"))

	name := ctx.Query("display_name")
	if name == "" {
		name = id
	}

	that.play(ctx.Request.Context(), conn, ctx.Param("id"), id, name)
}

// watchGames - pushes the public listing until the watcher goes away.
func (that *Server) watchGames(ctx *gin.Context) {
	log := that.logger.With("method", "watchGames")

	conn, ok := that.upgrade(ctx)
	if !ok {
		return
	}
	defer conn.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, err := conn.read(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(that.settings.ListInterval)
	defer ticker.Stop()

	for {
		data, err := protocol.Encode(protocol.Listing{Games: that.sessions.ListSessions(ctx.Request.Context())})
		if err != nil {
			log.Error("failed to encode listing", "error", err)
			return
		}

		if err = conn.Send(data); errors.Is(err, ErrConnectionClosed) {
			return
		}

		select {
		case <-gone:
			return
		case <-ctx.Request.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func (that *Server) upgrade(ctx *gin.Context) (*connection, bool) {
	socket, err := that.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		that.logger.Warn("websocket upgrade failed", "error", err)
		return nil, false
	}

	conn := newConnection(socket)
	go conn.writePump()

	return conn, true
}

// play - joins the session and feeds the client's frames to it until either side hangs up.
func (that *Server) play(ctx context.Context, conn *connection, sessionID, id, name string) {
	log := that.logger.With("method", "play", "sessionID", sessionID, "clientID", id)

	coordinator, err := that.sessions.JoinSession(ctx, sessionID, &session.Client{ID: id, Name: name, Conn: conn})
	if err != nil {
		log.Info("join refused", "error", err)
		that.reject(conn, err)
		return
	}

	limiter := rate.NewLimiter(rate.Limit(that.settings.MessageRate), that.settings.MessageBurst)

	for {
		data, err := conn.read()
		if err != nil {
			break
		}

		if !limiter.Allow() {
			log.Warn("message dropped, rate limit exceeded")
			continue
		}

		if err = coordinator.Submit(ctx, id, data); err != nil {
			break
		}
	}

	if err = coordinator.Leave(ctx, id); err != nil && !errors.Is(err, apperror.ErrSessionClosed) {
		log.Error("failed to leave session", "error", err)
	}

	_ = conn.Close()
}

func (that *Server) reject(conn *connection, err error) {
	data, encodeErr := protocol.Encode(protocol.Error{Error: err.Error(), Status: session.RejectionStatus(err)})
	if encodeErr == nil {
		_ = conn.Send(data)
	}

	_ = conn.Close()
}

func clientID(id string) string {
	if id == "" {
		return uuid.NewString()
	}

	return id
}
