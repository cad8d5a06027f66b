package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ticket-notification-service/internal/auth"
	"github.com/fathima-sithara/ticket-notification-service/internal/metrics"
	"github.com/fathima-sithara/ticket-notification-service/internal/service"
	"github.com/fathima-sithara/ticket-notification-service/internal/templates"
	"github.com/fathima-sithara/ticket-notification-service/internal/ws"
)

type ServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	WSPath       string
	InternalKey  string
	// CORSOrigins is a comma separated allow list; empty disables CORS.
	CORSOrigins string
	// RateLimitPerMinute of 0 disables the per-IP limiter.
	RateLimitPerMinute int
	RateLimitBurst     int
}

type Deps struct {
	Auth          *auth.Authenticator
	Notifications *service.NotificationService
	Templates     *templates.Service
	Stream        *ws.Handler
	Log           *zap.SugaredLogger
}

// Server is the HTTP surface of the service.
type Server struct {
	App     *fiber.App
	limiter *IPRateLimiter
}

func NewServer(cfg ServerConfig, d Deps) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          ErrorHandler(d.Log),
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(RequestLogger(d.Log))
	if cfg.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		}))
	}

	s := &Server{App: app}

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	var limit fiber.Handler = func(c *fiber.Ctx) error { return c.Next() }
	if cfg.RateLimitPerMinute > 0 {
		s.limiter = NewIPRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst, d.Log)
		limit = s.limiter.Handler()
	}

	if d.Stream != nil {
		path := cfg.WSPath
		if path == "" {
			path = "/ws/notifications"
		}
		app.Use(path, limit)
		d.Stream.Register(app, path)
	}

	api := app.Group("/api/v1", limit, RequireAuth(d.Auth))

	nh := NewNotificationHandler(d.Notifications)
	n := api.Group("/notifications")
	n.Get("/", nh.List)
	n.Get("/unread-count", nh.UnreadCount)
	n.Post("/read-all", nh.MarkAllRead)
	n.Get("/preferences", nh.GetPreferences)
	n.Put("/preferences", nh.UpdatePreferences)
	n.Post("/:id/read", nh.MarkRead)
	n.Delete("/", nh.ClearAll)

	th := NewTemplateHandler(d.Templates)
	admin := api.Group("/admin", RequireAdmin())
	admin.Get("/notification-templates", th.List)
	admin.Put("/notification-templates/:type/:variant", th.Update)
	admin.Post("/notification-templates/:type/:variant/reset", th.Reset)
	admin.Post("/notification-templates/:type/:variant/preview", th.Preview)

	hh := NewHookHandler(d.Notifications)
	hooks := app.Group("/internal/v1/ticket-events", RequireInternalKey(cfg.InternalKey))
	hooks.Post("/created", hh.TicketCreated)
	hooks.Post("/assigned", hh.TicketAssigned)
	hooks.Post("/status-updated", hh.TicketStatusUpdated)
	hooks.Post("/note-created", hh.TicketNoteCreated)

	return s
}

// Close releases background resources; call after the app shut down.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Close()
	}
}
