package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/vssut/academia-backend/internal/model"
	"github.com/vssut/academia-backend/internal/response"
	"github.com/vssut/academia-backend/internal/service"
	ws "github.com/vssut/academia-backend/internal/websocket"
)

// AttemptEventSubscriber streams the ledger transitions of one exam.
type AttemptEventSubscriber interface {
	Subscribe(ctx context.Context, examID uuid.UUID) (<-chan model.AttemptEvent, func() error, error)
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
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

// MonitorHandler streams an exam's ledger to a supervising teacher.
type MonitorHandler struct {
	examService    *service.ExamService
	attemptService *service.AttemptService
	events         AttemptEventSubscriber
	upgrader       websocket.Upgrader
	log            zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler. events may be nil, in which
// case the endpoint answers 503.
func NewMonitorHandler(
	examService *service.ExamService,
	attemptService *service.AttemptService,
	events AttemptEventSubscriber,
	allowedOrigins []string,
	log zerolog.Logger,
) *MonitorHandler {
	return &MonitorHandler{
		examService:    examService,
		attemptService: attemptService,
		events:         events,
		upgrader:       buildUpgrader(allowedOrigins),
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorExam godoc
// WS /ws/exams/:examId/monitor
// Sends a snapshot of the ledger, then every transition as it happens.
func (h *MonitorHandler) MonitorExam(c *gin.Context) {
	if h.events == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrMonitorUnavailable)
		return
	}

	examID, ok := parseExamID(c, c.Param("examId"))
	if !ok {
		return
	}
	if _, err := h.examService.Get(c.Request.Context(), examID); err != nil {
		failFromError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("exam_id", examID.String()).Logger()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Subscribe before the snapshot so no transition falls in between.
	events, closeSub, err := h.events.Subscribe(ctx, examID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Monitor subscribe failed")
		_ = ws.WriteError(conn, "monitor unavailable")
		return
	}
	defer closeSub()

	attempts, err := h.attemptService.Results(ctx, examID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Monitor snapshot failed")
		_ = ws.WriteError(conn, "snapshot unavailable")
		return
	}

	// The read pump owns every read; all data frames are written from this goroutine.
	pongs := make(chan struct{}, 1)
	go h.readPump(ctx, cancel, conn, pongs, wsLog)

	if err := ws.WriteSnapshot(conn, examID.String(), attempts); err != nil {
		return
	}
	wsLog.Info().Int("attempts", len(attempts)).Msg("Teacher attached to live monitor")

	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wsLog.Info().Msg("Teacher detached from live monitor")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := ws.WriteAttempt(conn, ev); err != nil {
				wsLog.Debug().Err(err).Msg("Monitor write failed")
				return
			}
		case <-pongs:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		case <-ticker.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}

// readPump consumes client frames so control frames are processed, answers
// ping actions, and cancels the stream once the client goes away.
func (h *MonitorHandler) readPump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, pongs chan<- struct{}, log zerolog.Logger) {
	defer cancel()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(ws.PongWait))
	})

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		if msg.Action == ws.ActionPing {
			select {
			case pongs <- struct{}{}:
			case <-ctx.Done():
				return
			default:
			}
		}
	}
}
