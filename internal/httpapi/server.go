// Package httpapi exposes the service over HTTP with JSON bodies,
// built on the teacher's Fiber stack: recover, request-id, cors, and a
// centralized error handler translating *errors.AppError to wire form.
package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/danor93/chat-router/internal/middleware"
	"github.com/danor93/chat-router/internal/service"
	"github.com/danor93/chat-router/internal/trigger"
)

// Server owns the Fiber app mounted on the hub's single listening
// socket; the stream adapter attaches its /ws route to the same app.
type Server struct {
	App     *fiber.App
	svc     *service.Service
	trigger trigger.Trigger
	selfURL string
}

// New builds the Fiber app and mounts every /api route of spec.md §4.3.
// trig is always a concrete Trigger — trigger.Noop when ACS_JOB_NAME is
// unset — never a nil check at the call site.
func New(svc *service.Service, trig trigger.Trigger, selfURL string) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	s := &Server{App: app, svc: svc, trigger: trig, selfURL: selfURL}

	api := app.Group("/api")
	api.Post("/messages", s.handleIngest)
	api.Post("/responses", s.handleRecordResponse)
	api.Get("/timeline/:platform/:chatId", s.handleConversationTimeline)
	api.Get("/timeline", s.handleUnifiedTimeline)
	api.Get("/conversations", s.handleListConversations)
	api.Get("/conversations/:platform/:chatId", s.handleGetConversation)
	api.Get("/health", s.handleHealth)

	return s
}
