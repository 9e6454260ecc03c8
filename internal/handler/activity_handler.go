package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/studygroup-backend/internal/config"
	"github.com/stemsi/studygroup-backend/internal/model"
	"github.com/stemsi/studygroup-backend/internal/response"
	"github.com/stemsi/studygroup-backend/internal/service"
	ws "github.com/stemsi/studygroup-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// ActivityHandler streams committed study group events to WebSocket subscribers.
type ActivityHandler struct {
	rdb          *redis.Client
	groupService *service.StudyGroupService
	log          zerolog.Logger
	upgrader     websocket.Upgrader
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(rdb *redis.Client, groupService *service.StudyGroupService, log zerolog.Logger, allowedOrigins []string) *ActivityHandler {
	return &ActivityHandler{
		rdb:          rdb,
		groupService: groupService,
		log:          log.With().Str("component", "activity_handler").Logger(),
		upgrader:     buildUpgrader(allowedOrigins),
	}
}

// Stream godoc
// WS /ws/v1/study-groups/:id/activity
// Upgrades to WebSocket and forwards every event published for the group.
func (h *ActivityHandler) Stream(c *gin.Context) {
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	_, found, err := h.groupService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int("group_id", id).Msg("Group lookup failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if !found {
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, model.MsgGroupNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Int("group_id", id).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.rdb.Subscribe(ctx, config.CacheKey.GroupActivityChannel(id))
	defer sub.Close()

	wsLog.Info().Msg("Subscriber connected")

	// Only this goroutine writes to conn; the reader hands pings over.
	pings := make(chan struct{}, 1)
	go h.readLoop(conn, wsLog, pings, cancel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Subscriber disconnected")
			return
		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		case msg, ok := <-messages:
			if !ok {
				ws.WriteError(conn, "activity stream closed")
				return
			}
			if err := ws.WriteActivity(conn, msg.Payload); err != nil {
				wsLog.Warn().Err(err).Msg("Forward failed")
				return
			}
		}
	}
}

// readLoop consumes client frames until the connection closes, then cancels the stream.
func (h *ActivityHandler) readLoop(conn *websocket.Conn, wsLog zerolog.Logger, pings chan<- struct{}, cancel context.CancelFunc) {
	defer cancel()
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		if msg.Action != ws.ActionPing {
			wsLog.Debug().Str("action", string(msg.Action)).Msg("Ignoring unknown action")
			continue
		}
		select {
		case pings <- struct{}{}:
		default:
		}
	}
}
