package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/whot-backend/internal/apperror"
	"github.com/rocketscienceinc/whot-backend/internal/entity"
	"github.com/rocketscienceinc/whot-backend/internal/server"
	"github.com/rocketscienceinc/whot-backend/pkg/handlers"
)

type sessionUseCase interface {
	CreateSession(ctx context.Context, config entity.SessionConfig) (string, error)
	ListSessions(ctx context.Context) []entity.SessionSummary
}

type Server struct {
	logger   *slog.Logger
	sessions sessionUseCase
	router   *gin.Engine
}

func New(logger *slog.Logger, sessions sessionUseCase, allowedOrigins []string) *Server {
	that := &Server{
		logger:   logger.With("component", "rest"),
		sessions: sessions,
		router:   gin.New(),
	}

	that.router.Use(gin.Recovery(), handlers.CORS(allowedOrigins))

	that.router.GET("/ping", handlers.PingHandler)
	that.router.POST("/sessions", that.createSession)
	that.router.GET("/sessions", that.listSessions)

	return that
}

func (that *Server) Handler() http.Handler {
	return that.router
}

// Start - starts HTTP server.
func (that *Server) Start(ctx context.Context, port string) error {
	return server.Run(ctx, server.New(port, that.router))
}

func (that *Server) createSession(ctx *gin.Context) {
	log := that.logger.With("method", "createSession")

	var config entity.SessionConfig
	if err := ctx.ShouldBindJSON(&config); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-configs"})
		return
	}

	id, err := that.sessions.CreateSession(ctx.Request.Context(), config)
	if errors.Is(err, apperror.ErrInvalidConfig) {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err != nil {
		log.Error("failed to create session", "error", err)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"id": id})
}

func (that *Server) listSessions(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, that.sessions.ListSessions(ctx.Request.Context()))
}
