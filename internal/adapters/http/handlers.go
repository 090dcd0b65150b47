package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dkeye/RemoteDesk/internal/app/orch"
	"github.com/dkeye/RemoteDesk/internal/config"
	"github.com/dkeye/RemoteDesk/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const serviceName = "remote-desktop-broker"

var features = []string{
	"session_management",
	"password_protection",
	"host_approval",
	"screen_streaming",
	"input_relay",
	"webrtc_signaling",
}

type handlers struct {
	cfg  *config.Config
	orch *orch.Orchestrator
}

func (h *handlers) health(c *gin.Context) {
	sessions, pending := h.orch.Sessions.Counts()
	streams := 0
	if h.orch.Streams != nil {
		streams = h.orch.Streams.Count()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":              "healthy",
		"service":             serviceName,
		"environment":         h.cfg.Environment,
		"features":            features,
		"active_connections":  h.orch.Registry.Count(),
		"active_sessions":     sessions,
		"pending_connections": pending,
		"active_streams":      streams,
	})
}

type connDump struct {
	ID        domain.ConnID `json:"id"`
	Remote    string        `json:"remote_addr"`
	UserAgent string        `json:"user_agent"`
	Streaming bool          `json:"streaming"`
	FPS       int           `json:"stream_fps,omitempty"`
}

func (h *handlers) debugSessions(c *gin.Context) {
	ids := h.orch.Registry.IDs()
	conns := make([]connDump, 0, len(ids))
	for _, id := range ids {
		meta, ok := h.orch.Registry.Meta(id)
		if !ok {
			continue
		}
		d := connDump{ID: id, Remote: meta.RemoteAddr, UserAgent: meta.UserAgent}
		if h.orch.Streams != nil {
			d.FPS, d.Streaming = h.orch.Streams.FPS(id)
		}
		conns = append(conns, d)
	}
	sessions, pending := h.orch.Sessions.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"connections":      conns,
		"sessions":         sessions,
		"pending_requests": pending,
	})
}

func (h *handlers) debugEvents(c *gin.Context) {
	if h.orch.Journal == nil {
		c.JSON(http.StatusOK, gin.H{"events": []any{}})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := h.orch.Journal.Recent(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("journal recent")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if events == nil {
		c.JSON(http.StatusOK, gin.H{"events": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *handlers) screenshot(c *gin.Context) {
	if h.orch.Source == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "no frame source"})
		return
	}
	f, err := h.orch.Source.Capture(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("test screenshot")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Screenshot captured",
		"frame_size":  len(f.Data),
		"screen_size": fmt.Sprintf("%dx%d", f.ScreenWidth, f.ScreenHeight),
		"canvas_size": fmt.Sprintf("%dx%d", f.CanvasWidth, f.CanvasHeight),
		"quality":     h.orch.Source.Settings().Quality,
	})
}
