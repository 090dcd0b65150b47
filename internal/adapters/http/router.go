package http

import (
	"context"
	"path/filepath"

	"github.com/dkeye/RemoteDesk/internal/adapters/signal"
	"github.com/dkeye/RemoteDesk/internal/app/orch"
	"github.com/dkeye/RemoteDesk/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	sessionName = "RemoteDeskSessions"
	visitorKey  = "visitor"
)

// ClientTokenMiddleware gives every browser a stable visitor token kept in
// the signed session cookie. It shows up in connection metadata and join
// requests so a host can recognise a returning client.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get(visitorKey).(string)
		if token == "" {
			token = uuid.NewString()
			s.Set(visitorKey, token)
			if err := s.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save visitor session")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Debug() {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(ClientTokenMiddleware())

	page := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.File(filepath.Join(cfg.StaticPath, name))
		}
	}
	r.Static("/static", cfg.StaticPath)
	r.GET("/", page("index.html"))
	r.GET("/host", page("host.html"))
	r.GET("/client", page("client.html"))

	h := &handlers{cfg: cfg, orch: o}
	r.GET("/health", h.health)
	r.GET("/test/screenshot", h.screenshot)

	if cfg.Debug() {
		debug := r.Group("/debug")
		debug.GET("/sessions", h.debugSessions)
		debug.GET("/events", h.debugEvents)
	}

	ctrl := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:      cfg.ReadLimit,
		PingPeriod:     cfg.PingPeriod,
		PongWait:       cfg.PongWait,
		WriteWait:      cfg.WriteWait,
		SendBuffer:     cfg.SendBuffer,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	r.GET("/ws", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("visitor", c.GetString("client_token")).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Bool("debug_routes", cfg.Debug()).Msg("router setup")
	return r
}
