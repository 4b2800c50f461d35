// Package httpapi exposes the match engine over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	errs "github.com/arenakit/arena/internal/platform/errors"
	"github.com/arenakit/arena/internal/services/match/domain"
	"github.com/arenakit/arena/internal/services/match/engine"
	"github.com/arenakit/arena/internal/services/match/rules"
)

const serviceName = "match"

// defaultWatchInterval bounds how often the watch endpoint re-reads state.
const defaultWatchInterval = 500 * time.Millisecond

// Handler serves the match HTTP API.
type Handler struct {
	engine        *engine.Engine
	upgrader      websocket.Upgrader
	watchInterval time.Duration
}

// NewHandler creates a Handler backed by the provided engine.
func NewHandler(e *engine.Engine) *Handler {
	return &Handler{
		engine:        e,
		upgrader:      websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		watchInterval: defaultWatchInterval,
	}
}

// Router builds the gin router with all match routes registered.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName), requestID())

	router.GET("/healthz", h.handleHealthz)

	v1 := router.Group("/v1")
	v1.POST("/matchmaking/join", h.handleJoin)

	sessions := v1.Group("/sessions")
	sessions.GET("/:id", h.handleGetState)
	sessions.POST("/:id/moves", h.handleSubmitMove)
	sessions.GET("/:id/results", h.handleGetResults)
	sessions.GET("/:id/watch", h.handleWatch)

	return router
}

type joinResponse struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
}

type stateResponse struct {
	ParticipantCount int    `json:"participant_count"`
	MoveCount        int    `json:"move_count"`
	Phase            string `json:"phase"`
}

type moveRequest struct {
	ParticipantID string `json:"participant_id"`
	Choice        string `json:"choice"`
}

type moveResponse struct {
	ParticipantID string `json:"participant_id"`
	Choice        string `json:"choice"`
}

type resultsResponse struct {
	Moves   []moveResponse `json:"moves"`
	Verdict string         `json:"verdict,omitempty"`
}

func (h *Handler) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) handleJoin(c *gin.Context) {
	sessionID, participantID, err := h.engine.Join(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, joinResponse{
		SessionID:     sessionID,
		ParticipantID: participantID,
	})
}

func (h *Handler) handleGetState(c *gin.Context) {
	state, err := h.engine.GetState(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStateResponse(state))
}

func (h *Handler) handleSubmitMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  errs.CodeInvalidArgument,
			"error": "invalid json body",
		})
		return
	}
	err := h.engine.SubmitMove(c.Request.Context(), c.Param("id"), req.ParticipantID, req.Choice)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleGetResults(c *gin.Context) {
	moves, err := h.engine.GetResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := resultsResponse{Moves: make([]moveResponse, 0, len(moves))}
	for _, move := range moves {
		resp.Moves = append(resp.Moves, moveResponse{
			ParticipantID: move.ParticipantID,
			Choice:        move.Choice,
		})
	}
	// Both moves in means the round is finished; decorate with the ruleset's
	// reading of the raw choices when they are recognizable.
	if len(moves) == domain.MaxParticipants {
		if outcome := rules.Judge(moves[0].Choice, moves[1].Choice); outcome != rules.OutcomeUnknown {
			resp.Verdict = outcome.String()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// handleWatch streams state snapshots over a WebSocket until the session
// finishes or the client goes away.
func (h *Handler) handleWatch(c *gin.Context) {
	sessionID := c.Param("id")

	// Resolve the session before upgrading so unknown ids fail as plain HTTP.
	state, err := h.engine.GetState(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// The upgrade hijacks the connection, so the request context no longer
	// observes client disconnects. The read pump is the only disconnect
	// signal: clients send nothing, and ReadMessage fails when they go away.
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(toStateResponse(state)); err != nil {
		return
	}
	if state.Phase == domain.PhaseFinished {
		return
	}

	ticker := time.NewTicker(h.watchInterval)
	defer ticker.Stop()

	last := state
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state, err := h.engine.GetState(ctx, sessionID)
			if err != nil {
				return
			}
			if state != last {
				if err := conn.WriteJSON(toStateResponse(state)); err != nil {
					return
				}
				last = state
			}
			if state.Phase == domain.PhaseFinished {
				return
			}
		}
	}
}

func toStateResponse(state domain.State) stateResponse {
	return stateResponse{
		ParticipantCount: state.ParticipantCount,
		MoveCount:        state.MoveCount,
		Phase:            state.Phase.String(),
	}
}

// writeError translates engine failures to HTTP responses. Domain errors map
// by code; anything else is an opaque internal failure.
func writeError(c *gin.Context, err error) {
	var domainErr *errs.Error
	if errors.As(err, &domainErr) {
		c.JSON(domainErr.Code.HTTPStatus(), gin.H{
			"code":  domainErr.Code,
			"error": domainErr.Message,
		})
		return
	}
	log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":  errs.CodeUnknown,
		"error": "internal error",
	})
}
