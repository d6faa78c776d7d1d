package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/vssut/academia-backend/internal/response"
)

const healthTimeout = 2 * time.Second

// PingFunc checks one backing dependency.
type PingFunc func(ctx context.Context) error

// HealthHandler reports whether the store (and Redis, when configured) answer.
type HealthHandler struct {
	checks map[string]PingFunc
	log    zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler. checks maps a dependency name
// to its ping.
func NewHealthHandler(checks map[string]PingFunc, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		log:    log.With().Str("component", "health_handler").Logger(),
	}
}

// Health godoc
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			deps[name] = "down"
			healthy = false
			continue
		}
		deps[name] = "up"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, response.Response{
			Data: gin.H{"status": "degraded", "dependencies": deps},
			Error: &response.ErrorBody{
				Code:    response.ErrStoreUnavailable,
				Message: response.GetMessage(response.ErrStoreUnavailable),
			},
			Metadata: response.Metadata{
				RequestID: response.RequestID(c),
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			},
		})
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "ok", "dependencies": deps})
}
